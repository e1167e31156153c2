package notifier

import (
	"context"
	"fmt"

	"github.com/aleister1102/pagewatch/internal/models"
)

// Sink receives change and health events. Calls are made with a bounded context
// and a failure never affects the health of the source that produced the event.
type Sink interface {
	Name() string
	NotifyChange(ctx context.Context, event models.ChangeEvent) error
	NotifyHealth(ctx context.Context, event models.HealthEvent) error
}

// Event kinds carried by SinkError.
const (
	EventKindChange = "change"
	EventKindHealth = "health"
)

// SinkError reports a failed delivery to one sink.
type SinkError struct {
	Sink string
	Kind string
	URL  string
	Err  error
}

func (e *SinkError) Error() string {
	return fmt.Sprintf("sink %s: %s event for %s: %v", e.Sink, e.Kind, e.URL, e.Err)
}

// Unwrap returns the underlying error.
func (e *SinkError) Unwrap() error {
	return e.Err
}
