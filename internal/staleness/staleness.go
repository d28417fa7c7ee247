// Package staleness decides from artifact modification times alone whether a
// task has to run. Content is never inspected.
package staleness

import (
	"fmt"
	"time"
)

// Metadata exposes artifact modification times. *artifact.Store satisfies it.
type Metadata interface {
	ModifiedAt(key string) (time.Time, bool)
}

// Subject is the part of a task the oracle looks at.
type Subject struct {
	Inputs  []string
	Outputs []string
	// MaxAge marks outputs older than now-MaxAge as stale. Zero disables it.
	MaxAge time.Duration
}

// Reason explains a Decision.
type Reason string

const (
	ReasonFresh         Reason = "fresh"
	ReasonNoOutputs     Reason = "no declared outputs"
	ReasonOutputMissing Reason = "output missing"
	ReasonInputMissing  Reason = "input missing"
	ReasonInputNewer    Reason = "input newer than output"
	ReasonExpired       Reason = "output expired"
)

// Decision is the oracle verdict for one task.
type Decision struct {
	Stale  bool
	Reason Reason
	// Key is the artifact that triggered the verdict, if any.
	Key string
}

func (d Decision) String() string {
	if d.Key == "" {
		return string(d.Reason)
	}
	return fmt.Sprintf("%s (%s)", d.Reason, d.Key)
}

// Oracle evaluates staleness against a metadata source.
type Oracle struct {
	meta Metadata
	now  func() time.Time
}

// Option configures an Oracle.
type Option func(*Oracle)

// WithClock overrides the clock used for MaxAge checks.
func WithClock(now func() time.Time) Option {
	return func(o *Oracle) {
		if now != nil {
			o.now = now
		}
	}
}

// New returns an oracle reading metadata from meta.
func New(meta Metadata, opts ...Option) *Oracle {
	o := &Oracle{meta: meta, now: time.Now}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Check reports whether s must run. Outputs are checked first, then inputs,
// then the age window; the first failing rule wins. A task with no outputs is
// always stale.
func (o *Oracle) Check(s Subject) Decision {
	if len(s.Outputs) == 0 {
		return Decision{Stale: true, Reason: ReasonNoOutputs}
	}

	var oldest time.Time
	oldestKey := ""
	for _, key := range s.Outputs {
		mod, ok := o.meta.ModifiedAt(key)
		if !ok {
			return Decision{Stale: true, Reason: ReasonOutputMissing, Key: key}
		}
		if oldestKey == "" || mod.Before(oldest) {
			oldest, oldestKey = mod, key
		}
	}

	for _, key := range s.Inputs {
		mod, ok := o.meta.ModifiedAt(key)
		if !ok {
			return Decision{Stale: true, Reason: ReasonInputMissing, Key: key}
		}
		if mod.After(oldest) {
			return Decision{Stale: true, Reason: ReasonInputNewer, Key: key}
		}
	}

	if s.MaxAge > 0 && oldest.Before(o.now().Add(-s.MaxAge)) {
		return Decision{Stale: true, Reason: ReasonExpired, Key: oldestKey}
	}

	return Decision{Reason: ReasonFresh}
}
