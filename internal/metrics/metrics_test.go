package metrics

import (
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/aleister1102/pagewatch/internal/monitor"
	"github.com/aleister1102/pagewatch/internal/notifier"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	_ monitor.PassObserver      = (*Metrics)(nil)
	_ notifier.DeliveryObserver = (*Metrics)(nil)
)

func TestObservePass(t *testing.T) {
	m := New()
	summary := monitor.PassSummary{
		Pass:      1,
		StartedAt: time.Unix(1700000000, 0),
		Elapsed:   3 * time.Second,
		Recovered: 1,
		Disabled:  2,
		Resources: monitor.ResourceUsage{RSSMB: 64},
		Sources: []monitor.SourceStatus{
			{URL: "https://a.example", Outcome: monitor.OutcomeChanged, Duration: time.Second},
			{URL: "https://b.example", Outcome: monitor.OutcomeUnchanged, Duration: time.Second},
			{URL: "https://c.example", Outcome: monitor.OutcomeFailed, Probe: true},
			{URL: "https://d.example", Outcome: monitor.OutcomeSkipped},
		},
	}

	m.ObservePass(summary)
	m.ObservePass(summary)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.passesTotal))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.recoveriesTotal))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.sourcesDisabled))
	assert.Equal(t, float64(64*1024*1024), testutil.ToFloat64(m.processRSSBytes))
	assert.Equal(t, 1700000003.0, testutil.ToFloat64(m.lastPassTimestamp))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.checksTotal.WithLabelValues("changed", "false")))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.checksTotal.WithLabelValues("failed", "true")))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.checksTotal.WithLabelValues("skipped", "false")))
}

func TestObserveDelivery(t *testing.T) {
	m := New()

	m.ObserveDelivery("discord", notifier.EventKindChange, nil, 100*time.Millisecond)
	m.ObserveDelivery("discord", notifier.EventKindChange, errors.New("boom"), time.Second)
	m.ObserveDelivery("log", notifier.EventKindHealth, nil, time.Millisecond)
	m.ObserveDrop(notifier.EventKindChange)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.notificationsTotal.WithLabelValues("discord", "change", "success")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.notificationsTotal.WithLabelValues("discord", "change", "error")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.notificationsTotal.WithLabelValues("log", "health", "success")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.notificationsDroppedTotal.WithLabelValues("change")))
}

func TestHandlerExposesRegistry(t *testing.T) {
	m := New()
	m.ObserveDrop(notifier.EventKindHealth)

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	body, err := io.ReadAll(rec.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), `pagewatch_notifications_dropped_total{kind="health"} 1`)
	assert.Contains(t, string(body), "go_goroutines")
}

func TestNewUsesIndependentRegistries(t *testing.T) {
	assert.NotPanics(t, func() {
		New()
		New()
	})
}
