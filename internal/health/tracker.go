package health

import (
	"time"

	"github.com/aleister1102/pagewatch/internal/models"
)

const (
	DefaultMaxConsecutiveFailures = 5
	DefaultInitialBackoff         = 30 * time.Second
	DefaultMaxBackoff             = 600 * time.Second
)

// Policy holds the thresholds of the source health state machine.
type Policy struct {
	MaxConsecutiveFailures int
	InitialBackoff         time.Duration
	MaxBackoff             time.Duration
}

// DefaultPolicy returns the default thresholds.
func DefaultPolicy() Policy {
	return Policy{
		MaxConsecutiveFailures: DefaultMaxConsecutiveFailures,
		InitialBackoff:         DefaultInitialBackoff,
		MaxBackoff:             DefaultMaxBackoff,
	}
}

// Transition describes the effect of one recorded outcome on a source.
type Transition struct {
	From models.HealthState
	To   models.HealthState
}

// Changed reports whether the outcome moved the source to another state.
func (t Transition) Changed() bool {
	return t.From != t.To
}

// Tracker applies fetch outcomes to per-source health records.
// It holds no per-source state itself: callers own the records and must not
// mutate the same record from two goroutines at once.
type Tracker struct {
	policy Policy
}

// NewTracker creates a tracker, falling back to defaults for unset thresholds.
func NewTracker(policy Policy) *Tracker {
	def := DefaultPolicy()
	if policy.MaxConsecutiveFailures <= 0 {
		policy.MaxConsecutiveFailures = def.MaxConsecutiveFailures
	}
	if policy.InitialBackoff <= 0 {
		policy.InitialBackoff = def.InitialBackoff
	}
	if policy.MaxBackoff <= 0 {
		policy.MaxBackoff = def.MaxBackoff
	}
	if policy.MaxBackoff < policy.InitialBackoff {
		policy.MaxBackoff = policy.InitialBackoff
	}
	return &Tracker{policy: policy}
}

// Policy returns the effective thresholds.
func (t *Tracker) Policy() Policy {
	return t.policy
}

// NewHealth returns the record of a freshly configured source.
func (t *Tracker) NewHealth() models.SourceHealth {
	return models.SourceHealth{
		State:        models.HealthActive,
		BackoffDelay: t.policy.InitialBackoff,
	}
}

// RecordSuccess marks a successful fetch or health probe.
func (t *Tracker) RecordSuccess(h *models.SourceHealth, now time.Time) Transition {
	tr := Transition{From: h.State, To: models.HealthActive}

	h.State = models.HealthActive
	h.ConsecutiveFailures = 0
	h.BackoffDelay = t.policy.InitialBackoff
	h.BackoffUntil = time.Time{}
	h.LastError = ""

	return tr
}

// RecordFailure marks a failed fetch or health probe.
func (t *Tracker) RecordFailure(h *models.SourceHealth, now time.Time, cause error) Transition {
	tr := Transition{From: h.State}

	h.ConsecutiveFailures++
	if cause != nil {
		h.LastError = cause.Error()
	}

	switch {
	case h.State == models.HealthDisabled:
		h.BackoffDelay = t.nextBackoff(h.BackoffDelay)
		h.BackoffUntil = now.Add(h.BackoffDelay)
	case h.ConsecutiveFailures >= t.policy.MaxConsecutiveFailures:
		h.State = models.HealthDisabled
		h.BackoffDelay = t.policy.InitialBackoff
		h.BackoffUntil = now.Add(h.BackoffDelay)
	default:
		h.State = models.HealthDegraded
	}

	tr.To = h.State
	return tr
}

// ProbeDue reports whether a disabled source should get a health probe at now.
func (t *Tracker) ProbeDue(h models.SourceHealth, now time.Time) bool {
	return h.State == models.HealthDisabled && !now.Before(h.BackoffUntil)
}

// BackoffAfter returns the delay after k consecutive failed probes: min(initial*2^k, max).
func (t *Tracker) BackoffAfter(k int) time.Duration {
	d := t.policy.InitialBackoff
	for i := 0; i < k; i++ {
		d = t.nextBackoff(d)
		if d == t.policy.MaxBackoff {
			break
		}
	}
	return d
}

func (t *Tracker) nextBackoff(current time.Duration) time.Duration {
	if current <= 0 {
		return t.policy.InitialBackoff
	}
	if current >= t.policy.MaxBackoff/2 {
		return t.policy.MaxBackoff
	}
	return current * 2
}
