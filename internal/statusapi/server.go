// Package statusapi serves a read-only JSON view of the monitored sources and the Prometheus metrics.
package statusapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/aleister1102/pagewatch/internal/models"
	"github.com/aleister1102/pagewatch/internal/monitor"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"
)

const shutdownTimeout = 5 * time.Second

// StatusProvider exposes the live state of the poll loop.
type StatusProvider interface {
	Sources() []models.MonitoredSource
	LastSummary() (monitor.PassSummary, bool)
}

// SourceView is the JSON shape of one source.
type SourceView struct {
	URL                 string             `json:"url"`
	State               models.HealthState `json:"state"`
	ConsecutiveFailures int                `json:"consecutive_failures"`
	BackoffDelay        string             `json:"backoff_delay,omitempty"`
	BackoffUntil        *time.Time         `json:"backoff_until,omitempty"`
	LastError           string             `json:"last_error,omitempty"`
	HasSnapshot         bool               `json:"has_snapshot"`
	SnapshotHash        string             `json:"snapshot_hash,omitempty"`
	LastSuccessAt       *time.Time         `json:"last_success_at,omitempty"`
	LastCheckedAt       *time.Time         `json:"last_checked_at,omitempty"`
}

// Server wires the status handlers onto a chi router.
type Server struct {
	router   chi.Router
	provider StatusProvider
	logger   zerolog.Logger
	started  time.Time
}

// NewServer creates the router. metricsHandler may be nil.
func NewServer(provider StatusProvider, metricsHandler http.Handler, logger zerolog.Logger) *Server {
	s := &Server{
		provider: provider,
		logger:   logger.With().Str("component", "StatusAPI").Logger(),
		started:  time.Now(),
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(s.loggingMiddleware)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", s.healthz)
	r.Get("/sources", s.sources)
	r.Get("/summary", s.summary)
	if metricsHandler != nil {
		r.Method(http.MethodGet, "/metrics", metricsHandler)
	}

	s.router = r
	return s
}

// Handler returns the router for use with http.Server.
func (s *Server) Handler() http.Handler {
	return s.router
}

// ListenAndServe serves on addr until ctx is cancelled, then shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info().Str("address", addr).Msg("Status API listening")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			s.logger.Warn().Err(err).Msg("Status API shutdown did not complete")
			return err
		}
		s.logger.Info().Msg("Status API stopped")
		return nil
	}
}

func (s *Server) healthz(w http.ResponseWriter, _ *http.Request) {
	body := map[string]any{
		"status":         "ok",
		"uptime_seconds": int64(time.Since(s.started).Seconds()),
	}
	if summary, ok := s.provider.LastSummary(); ok {
		body["last_pass"] = summary.Pass
		body["last_pass_at"] = summary.StartedAt
	}
	writeJSON(w, http.StatusOK, body)
}

func (s *Server) sources(w http.ResponseWriter, r *http.Request) {
	state := models.HealthState(r.URL.Query().Get("state"))
	switch state {
	case "", models.HealthActive, models.HealthDegraded, models.HealthDisabled:
	default:
		writeError(w, http.StatusBadRequest, "unknown state filter")
		return
	}

	views := make([]SourceView, 0)
	for _, src := range s.provider.Sources() {
		if state != "" && src.Health.State != state {
			continue
		}
		views = append(views, newSourceView(src))
	}
	writeJSON(w, http.StatusOK, views)
}

func (s *Server) summary(w http.ResponseWriter, _ *http.Request) {
	summary, ok := s.provider.LastSummary()
	if !ok {
		writeError(w, http.StatusNotFound, "no pass completed yet")
		return
	}
	writeJSON(w, http.StatusOK, summary)
}

func (s *Server) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		s.logger.Debug().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", ww.Status()).
			Str("request_id", middleware.GetReqID(r.Context())).
			Dur("duration", time.Since(start)).
			Msg("Request completed")
	})
}

func newSourceView(src models.MonitoredSource) SourceView {
	view := SourceView{
		URL:                 src.URL,
		State:               src.Health.State,
		ConsecutiveFailures: src.Health.ConsecutiveFailures,
		LastError:           src.Health.LastError,
		HasSnapshot:         src.HasSnapshot(),
		SnapshotHash:        src.SnapshotHash,
		LastSuccessAt:       timePtr(src.LastSuccessAt),
		LastCheckedAt:       timePtr(src.LastCheckedAt),
	}
	if !src.Health.Enabled() {
		view.BackoffDelay = src.Health.BackoffDelay.String()
		view.BackoffUntil = timePtr(src.Health.BackoffUntil)
	}
	return view
}

func timePtr(t time.Time) *time.Time {
	if t.IsZero() {
		return nil
	}
	return &t
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
