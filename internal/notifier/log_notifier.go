package notifier

import (
	"context"

	"github.com/aleister1102/pagewatch/internal/models"

	"github.com/rs/zerolog"
)

// LogNotifier writes events to the application log.
type LogNotifier struct {
	logger zerolog.Logger
}

// NewLogNotifier creates a new LogNotifier.
func NewLogNotifier(logger zerolog.Logger) *LogNotifier {
	return &LogNotifier{logger: logger.With().Str("component", "LogNotifier").Logger()}
}

// Name implements Sink.
func (ln *LogNotifier) Name() string { return "log" }

// NotifyChange implements Sink.
func (ln *LogNotifier) NotifyChange(_ context.Context, event models.ChangeEvent) error {
	ln.logger.Info().
		Str("event_id", event.ID).
		Str("url", event.URL).
		Int("lines_added", event.LinesAdded).
		Int("lines_removed", event.LinesRemoved).
		Bool("diff_truncated", event.DiffTruncated).
		Str("diff", event.Diff).
		Time("detected_at", event.DetectedAt).
		Msg("Page changed")
	return nil
}

// NotifyHealth implements Sink.
func (ln *LogNotifier) NotifyHealth(_ context.Context, event models.HealthEvent) error {
	ln.logger.Info().
		Str("url", event.URL).
		Str("from", string(event.From)).
		Str("to", string(event.To)).
		Int("consecutive_failures", event.ConsecutiveFailures).
		Dur("backoff_delay", event.BackoffDelay).
		Str("error", event.Error).
		Msg("Source health changed")
	return nil
}
