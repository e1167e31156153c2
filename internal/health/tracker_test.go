package health

import (
	"errors"
	"testing"
	"time"

	"github.com/aleister1102/pagewatch/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var errTimeout = errors.New("network timeout")

func newTestTracker() *Tracker {
	return NewTracker(Policy{
		MaxConsecutiveFailures: 5,
		InitialBackoff:         30 * time.Second,
		MaxBackoff:             600 * time.Second,
	})
}

func TestNewTracker_Defaults(t *testing.T) {
	tr := NewTracker(Policy{})
	assert.Equal(t, DefaultPolicy(), tr.Policy())

	tr = NewTracker(Policy{InitialBackoff: time.Minute, MaxBackoff: time.Second})
	assert.Equal(t, time.Minute, tr.Policy().MaxBackoff)
}

func TestRecordSuccess_ResetsFailures(t *testing.T) {
	tr := newTestTracker()
	now := time.Now()
	h := tr.NewHealth()

	for i := 0; i < 3; i++ {
		tr.RecordFailure(&h, now, errTimeout)
	}
	require.Equal(t, models.HealthDegraded, h.State)
	require.Equal(t, 3, h.ConsecutiveFailures)

	transition := tr.RecordSuccess(&h, now)

	assert.Equal(t, Transition{From: models.HealthDegraded, To: models.HealthActive}, transition)
	assert.Equal(t, 0, h.ConsecutiveFailures)
	assert.Empty(t, h.LastError)
	assert.True(t, h.Enabled())
}

func TestDisabledIffFailuresReachMax(t *testing.T) {
	tr := newTestTracker()
	now := time.Now()
	h := tr.NewHealth()

	for i := 1; i <= 8; i++ {
		tr.RecordFailure(&h, now, errTimeout)
		assert.Equal(t, i, h.ConsecutiveFailures)
		assert.Equal(t, h.ConsecutiveFailures >= 5, h.State == models.HealthDisabled, "after %d failures", i)
	}
}

func TestFifthFailureDisablesWithInitialBackoff(t *testing.T) {
	tr := newTestTracker()
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	h := tr.NewHealth()

	var last Transition
	for i := 0; i < 5; i++ {
		last = tr.RecordFailure(&h, now, errTimeout)
	}

	assert.Equal(t, Transition{From: models.HealthDegraded, To: models.HealthDisabled}, last)
	assert.Equal(t, 30*time.Second, h.BackoffDelay)
	assert.Equal(t, now.Add(30*time.Second), h.BackoffUntil)
	assert.Equal(t, "network timeout", h.LastError)
}

func TestProbeSuccessReEnables(t *testing.T) {
	tr := newTestTracker()
	now := time.Now()
	h := tr.NewHealth()
	for i := 0; i < 5; i++ {
		tr.RecordFailure(&h, now, errTimeout)
	}
	tr.RecordFailure(&h, now, errTimeout)
	require.Equal(t, 60*time.Second, h.BackoffDelay)

	transition := tr.RecordSuccess(&h, now)

	assert.True(t, transition.Changed())
	assert.Equal(t, models.HealthActive, h.State)
	assert.Equal(t, 0, h.ConsecutiveFailures)
	assert.Equal(t, 30*time.Second, h.BackoffDelay)
	assert.True(t, h.BackoffUntil.IsZero())
}

func TestFailedProbesDoubleBackoffUpToCap(t *testing.T) {
	tr := newTestTracker()
	now := time.Now()
	h := tr.NewHealth()
	for i := 0; i < 5; i++ {
		tr.RecordFailure(&h, now, errTimeout)
	}

	expected := []time.Duration{60, 120, 240, 480, 600, 600, 600}
	for k, want := range expected {
		transition := tr.RecordFailure(&h, now, errTimeout)
		assert.False(t, transition.Changed())
		assert.Equal(t, want*time.Second, h.BackoffDelay, "probe failure %d", k+1)
		assert.Equal(t, now.Add(h.BackoffDelay), h.BackoffUntil)
		assert.Equal(t, tr.BackoffAfter(k+1), h.BackoffDelay)
	}
}

func TestBackoffAfter(t *testing.T) {
	tr := newTestTracker()
	for k := 0; k < 12; k++ {
		want := 30 * time.Second * time.Duration(1<<k)
		if want > 600*time.Second {
			want = 600 * time.Second
		}
		assert.Equal(t, want, tr.BackoffAfter(k), "k=%d", k)
	}
}

func TestProbeDue(t *testing.T) {
	tr := newTestTracker()
	now := time.Now()
	h := tr.NewHealth()
	assert.False(t, tr.ProbeDue(h, now), "active sources are never probed")

	for i := 0; i < 5; i++ {
		tr.RecordFailure(&h, now, errTimeout)
	}
	assert.False(t, tr.ProbeDue(h, now.Add(29*time.Second)))
	assert.True(t, tr.ProbeDue(h, now.Add(30*time.Second)))
}
