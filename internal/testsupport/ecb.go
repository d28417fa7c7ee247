package testsupport

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
)

// ECBHeader is the column header of the ECB csvdata format.
const ECBHeader = "KEY,FREQ,CURRENCY,CURRENCY_DENOM,EXR_TYPE,EXR_SUFFIX,TIME_PERIOD,OBS_VALUE\n"

// ECBSeries renders an ECB csvdata body for base/quote; each observation is
// written as "YYYY-MM-DD=value".
func ECBSeries(base, quote string, obs ...string) string {
	var b strings.Builder
	b.WriteString(ECBHeader)
	for _, o := range obs {
		date, value, _ := strings.Cut(o, "=")
		fmt.Fprintf(&b, "EXR.D.%s.%s.SP00.A,D,%s,%s,SP00,A,%s,%s\n", quote, base, quote, base, date, value)
	}
	return b.String()
}

// ECBServer serves csvdata series keyed by quote currency, mimicking the
// data API path layout D.<QUOTE>.<BASE>.SP00.A. Unknown series return 404.
type ECBServer struct {
	*httptest.Server

	mu     sync.Mutex
	series map[string]string
	status map[string]int
	hits   map[string]int
}

// NewECBServer starts a server for the given series and closes it with the test.
func NewECBServer(t testing.TB, series map[string]string) *ECBServer {
	t.Helper()
	s := &ECBServer{series: series, status: map[string]int{}, hits: map[string]int{}}
	s.Server = httptest.NewServer(http.HandlerFunc(s.serve))
	t.Cleanup(s.Close)
	return s
}

func (s *ECBServer) serve(w http.ResponseWriter, r *http.Request) {
	parts := strings.Split(strings.Trim(r.URL.Path, "/"), ".")
	if len(parts) != 5 || parts[0] != "D" {
		http.Error(w, "bad series key", http.StatusBadRequest)
		return
	}
	quote := parts[1]

	s.mu.Lock()
	s.hits[quote]++
	status := s.status[quote]
	body, ok := s.series[quote]
	s.mu.Unlock()

	if status != 0 {
		http.Error(w, http.StatusText(status), status)
		return
	}
	if !ok {
		http.Error(w, "No results found.", http.StatusNotFound)
		return
	}
	w.Header().Set("Content-Type", "text/csv")
	_, _ = w.Write([]byte(body))
}

// SetSeries replaces the body served for quote.
func (s *ECBServer) SetSeries(quote, body string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.series[quote] = body
}

// FailWith makes requests for quote answer status; zero restores the series.
func (s *ECBServer) FailWith(quote string, status int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.status[quote] = status
}

// Hits returns how many requests were made for quote.
func (s *ECBServer) Hits(quote string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.hits[quote]
}
