package statusapi

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/aleister1102/pagewatch/internal/models"
	"github.com/aleister1102/pagewatch/internal/monitor"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeProvider struct {
	sources []models.MonitoredSource
	summary *monitor.PassSummary
}

func (f *fakeProvider) Sources() []models.MonitoredSource { return f.sources }

func (f *fakeProvider) LastSummary() (monitor.PassSummary, bool) {
	if f.summary == nil {
		return monitor.PassSummary{}, false
	}
	return *f.summary, true
}

func newProvider() *fakeProvider {
	now := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	return &fakeProvider{sources: []models.MonitoredSource{
		{
			URL: "https://a.example", Snapshot: "Seats: 9", SnapshotHash: "abc",
			LastSuccessAt: now, LastCheckedAt: now,
			Health: models.SourceHealth{State: models.HealthActive, BackoffDelay: 30 * time.Second},
		},
		{
			URL: "https://b.example", LastCheckedAt: now,
			Health: models.SourceHealth{
				State: models.HealthDisabled, ConsecutiveFailures: 6,
				BackoffDelay: time.Minute, BackoffUntil: now.Add(time.Minute), LastError: "connection refused",
			},
		},
	}}
}

func get(t *testing.T, h http.Handler, path string) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
	return rec
}

func TestHealthz(t *testing.T) {
	provider := newProvider()
	srv := NewServer(provider, nil, zerolog.Nop())

	rec := get(t, srv.Handler(), "/healthz")
	require.Equal(t, http.StatusOK, rec.Code)
	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "ok", body["status"])
	assert.NotContains(t, body, "last_pass")

	provider.summary = &monitor.PassSummary{Pass: 3}
	rec = get(t, srv.Handler(), "/healthz")
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, 3.0, body["last_pass"])
}

func TestSources(t *testing.T) {
	srv := NewServer(newProvider(), nil, zerolog.Nop())

	rec := get(t, srv.Handler(), "/sources")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	var views []SourceView
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &views))
	require.Len(t, views, 2)

	assert.Equal(t, "https://a.example", views[0].URL)
	assert.True(t, views[0].HasSnapshot)
	assert.Empty(t, views[0].BackoffDelay)
	assert.Nil(t, views[0].BackoffUntil)

	assert.Equal(t, models.HealthDisabled, views[1].State)
	assert.Equal(t, "1m0s", views[1].BackoffDelay)
	require.NotNil(t, views[1].BackoffUntil)
	assert.Equal(t, "connection refused", views[1].LastError)
	assert.False(t, views[1].HasSnapshot)
	assert.Nil(t, views[1].LastSuccessAt)
	assert.NotContains(t, rec.Body.String(), "Seats: 9")
}

func TestSources_StateFilter(t *testing.T) {
	srv := NewServer(newProvider(), nil, zerolog.Nop())

	rec := get(t, srv.Handler(), "/sources?state=disabled")
	require.Equal(t, http.StatusOK, rec.Code)
	var views []SourceView
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &views))
	require.Len(t, views, 1)
	assert.Equal(t, "https://b.example", views[0].URL)

	rec = get(t, srv.Handler(), "/sources?state=degraded")
	assert.JSONEq(t, "[]", rec.Body.String())

	rec = get(t, srv.Handler(), "/sources?state=bogus")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestSummary(t *testing.T) {
	provider := newProvider()
	srv := NewServer(provider, nil, zerolog.Nop())

	assert.Equal(t, http.StatusNotFound, get(t, srv.Handler(), "/summary").Code)

	provider.summary = &monitor.PassSummary{Pass: 2, Checked: 5, Changed: 1}
	rec := get(t, srv.Handler(), "/summary")
	require.Equal(t, http.StatusOK, rec.Code)
	var summary monitor.PassSummary
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &summary))
	assert.Equal(t, 2, summary.Pass)
	assert.Equal(t, 1, summary.Changed)
}

func TestMetricsRoute(t *testing.T) {
	withoutMetrics := NewServer(newProvider(), nil, zerolog.Nop())
	assert.Equal(t, http.StatusNotFound, get(t, withoutMetrics.Handler(), "/metrics").Code)

	metricsHandler := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("pagewatch_passes_total 1\n"))
	})
	srv := NewServer(newProvider(), metricsHandler, zerolog.Nop())
	rec := get(t, srv.Handler(), "/metrics")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "pagewatch_passes_total 1")
}
