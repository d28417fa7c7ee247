package fx

import (
	"fmt"
	"strings"

	"golang.org/x/text/currency"

	"fxpipe/internal/services"
)

// Pair identifies a directed currency pair such as EUR_USD.
type Pair struct {
	Base  string
	Quote string
}

// NewPair validates both ISO 4217 codes and returns the canonical pair.
func NewPair(base, quote string) (Pair, error) {
	b, err := parseCurrency(base)
	if err != nil {
		return Pair{}, err
	}
	q, err := parseCurrency(quote)
	if err != nil {
		return Pair{}, err
	}
	if b == q {
		return Pair{}, services.Wrap(services.ErrValidation, "fx", "pair", fmt.Sprintf("base and quote are both %s", b), nil)
	}
	return Pair{Base: b, Quote: q}, nil
}

// ParsePair accepts EUR_USD, eur_usd, EUR/USD, EUR-USD and EURUSD.
func ParsePair(text string) (Pair, error) {
	trimmed := strings.ToUpper(strings.TrimSpace(text))
	var base, quote string
	if idx := strings.IndexAny(trimmed, "_/-"); idx >= 0 {
		base, quote = trimmed[:idx], trimmed[idx+1:]
	} else if len(trimmed) == 6 {
		base, quote = trimmed[:3], trimmed[3:]
	} else {
		return Pair{}, services.Wrap(services.ErrValidation, "fx", "parse pair", fmt.Sprintf("unrecognized pair %q", text), nil)
	}
	return NewPair(base, quote)
}

// MustParsePair is ParsePair for literals known to be valid.
func MustParsePair(text string) Pair {
	p, err := ParsePair(text)
	if err != nil {
		panic(err)
	}
	return p
}

// String renders the canonical BASE_QUOTE form.
func (p Pair) String() string {
	return p.Base + "_" + p.Quote
}

// IsZero reports whether p is the zero value.
func (p Pair) IsZero() bool {
	return p.Base == "" && p.Quote == ""
}

// Inverse returns the pair with base and quote swapped.
func (p Pair) Inverse() Pair {
	return Pair{Base: p.Quote, Quote: p.Base}
}

func parseCurrency(code string) (string, error) {
	normalized := strings.ToUpper(strings.TrimSpace(code))
	if len(normalized) != 3 {
		return "", services.Wrap(services.ErrValidation, "fx", "currency", fmt.Sprintf("invalid ISO 4217 code %q", code), nil)
	}
	unit, err := currency.ParseISO(normalized)
	if err != nil {
		return "", services.Wrap(services.ErrValidation, "fx", "currency", fmt.Sprintf("invalid ISO 4217 code %q", code), err)
	}
	return unit.String(), nil
}

// ValidCurrency reports whether code is a recognized ISO 4217 currency.
func ValidCurrency(code string) bool {
	_, err := parseCurrency(code)
	return err == nil
}
