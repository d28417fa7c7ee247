package staleness_test

import (
	"testing"
	"time"

	"fxpipe/internal/staleness"
)

type fakeMeta map[string]time.Time

func (m fakeMeta) ModifiedAt(key string) (time.Time, bool) {
	t, ok := m[key]
	return t, ok
}

func TestCheck(t *testing.T) {
	base := time.Date(2024, 4, 1, 12, 0, 0, 0, time.UTC)
	tests := []struct {
		name    string
		meta    fakeMeta
		subject staleness.Subject
		stale   bool
		reason  staleness.Reason
		key     string
	}{
		{
			name:    "output missing",
			meta:    fakeMeta{"EUR_USD": base},
			subject: staleness.Subject{Inputs: []string{"EUR_USD"}, Outputs: []string{"EUR_USD_monthly_stats"}},
			stale:   true,
			reason:  staleness.ReasonOutputMissing,
			key:     "EUR_USD_monthly_stats",
		},
		{
			name:    "input missing",
			meta:    fakeMeta{"EUR_USD_monthly_stats": base},
			subject: staleness.Subject{Inputs: []string{"EUR_USD"}, Outputs: []string{"EUR_USD_monthly_stats"}},
			stale:   true,
			reason:  staleness.ReasonInputMissing,
			key:     "EUR_USD",
		},
		{
			name:    "input strictly newer",
			meta:    fakeMeta{"EUR_USD": base.Add(time.Second), "EUR_USD_monthly_stats": base},
			subject: staleness.Subject{Inputs: []string{"EUR_USD"}, Outputs: []string{"EUR_USD_monthly_stats"}},
			stale:   true,
			reason:  staleness.ReasonInputNewer,
			key:     "EUR_USD",
		},
		{
			name:    "equal timestamps are fresh",
			meta:    fakeMeta{"EUR_USD": base, "EUR_USD_monthly_stats": base},
			subject: staleness.Subject{Inputs: []string{"EUR_USD"}, Outputs: []string{"EUR_USD_monthly_stats"}},
			reason:  staleness.ReasonFresh,
		},
		{
			name: "oldest output governs",
			meta: fakeMeta{"src": base, "out_a": base.Add(-time.Minute), "out_b": base.Add(time.Minute)},
			subject: staleness.Subject{
				Inputs:  []string{"src"},
				Outputs: []string{"out_a", "out_b"},
			},
			stale:  true,
			reason: staleness.ReasonInputNewer,
			key:    "src",
		},
		{
			name:    "no outputs always run",
			meta:    fakeMeta{},
			subject: staleness.Subject{},
			stale:   true,
			reason:  staleness.ReasonNoOutputs,
		},
		{
			name:    "source with no inputs is fresh",
			meta:    fakeMeta{"ECB_EUR_USD": base.Add(-time.Hour)},
			subject: staleness.Subject{Outputs: []string{"ECB_EUR_USD"}, MaxAge: 24 * time.Hour},
			reason:  staleness.ReasonFresh,
		},
		{
			name:    "source past max age",
			meta:    fakeMeta{"ECB_EUR_USD": base.Add(-25 * time.Hour)},
			subject: staleness.Subject{Outputs: []string{"ECB_EUR_USD"}, MaxAge: 24 * time.Hour},
			stale:   true,
			reason:  staleness.ReasonExpired,
			key:     "ECB_EUR_USD",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			oracle := staleness.New(tt.meta, staleness.WithClock(func() time.Time { return base }))
			got := oracle.Check(tt.subject)
			if got.Stale != tt.stale || got.Reason != tt.reason || got.Key != tt.key {
				t.Fatalf("Check = %+v, want stale=%v reason=%q key=%q", got, tt.stale, tt.reason, tt.key)
			}
		})
	}
}

func TestCheckIsPure(t *testing.T) {
	base := time.Date(2024, 4, 1, 12, 0, 0, 0, time.UTC)
	meta := fakeMeta{"pairs": base, "dates": base, "EUR_USD_missing_data": base.Add(time.Second)}
	oracle := staleness.New(meta)
	subject := staleness.Subject{Inputs: []string{"pairs", "dates"}, Outputs: []string{"EUR_USD_missing_data"}}
	first := oracle.Check(subject)
	second := oracle.Check(subject)
	if first != second || first.Stale {
		t.Fatalf("expected identical fresh decisions, got %+v and %+v", first, second)
	}
}
