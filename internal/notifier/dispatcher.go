package notifier

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/aleister1102/pagewatch/internal/models"

	"github.com/rs/zerolog"
)

const (
	DefaultQueueSize     = 256
	DefaultNotifyTimeout = 10 * time.Second
)

// DeliveryObserver is told about every sink call and every dropped event.
type DeliveryObserver interface {
	ObserveDelivery(sink, kind string, err error, elapsed time.Duration)
	ObserveDrop(kind string)
}

type notification struct {
	change *models.ChangeEvent
	health *models.HealthEvent
}

func (n notification) kind() string {
	if n.change != nil {
		return EventKindChange
	}
	return EventKindHealth
}

func (n notification) url() string {
	if n.change != nil {
		return n.change.URL
	}
	return n.health.URL
}

// Dispatcher fans events out to its sinks from a single background worker.
// Publishing never blocks: when the queue is full the event is dropped with a warning.
type Dispatcher struct {
	logger    zerolog.Logger
	sinks     []Sink
	timeout   time.Duration
	observers []DeliveryObserver

	queue   chan notification
	mu      sync.RWMutex
	closed  bool
	started bool
	done    chan struct{}
}

// DispatcherBuilder provides a fluent interface for creating a Dispatcher
type DispatcherBuilder struct {
	logger    zerolog.Logger
	sinks     []Sink
	queueSize int
	timeout   time.Duration
	observers []DeliveryObserver
}

// NewDispatcherBuilder creates a new builder
func NewDispatcherBuilder(logger zerolog.Logger) *DispatcherBuilder {
	return &DispatcherBuilder{
		logger:    logger,
		queueSize: DefaultQueueSize,
		timeout:   DefaultNotifyTimeout,
	}
}

// WithSinks appends sinks
func (b *DispatcherBuilder) WithSinks(sinks ...Sink) *DispatcherBuilder {
	for _, s := range sinks {
		if s != nil {
			b.sinks = append(b.sinks, s)
		}
	}
	return b
}

// WithQueueSize sets the number of events buffered before dropping
func (b *DispatcherBuilder) WithQueueSize(size int) *DispatcherBuilder {
	if size > 0 {
		b.queueSize = size
	}
	return b
}

// WithTimeout bounds every sink call
func (b *DispatcherBuilder) WithTimeout(timeout time.Duration) *DispatcherBuilder {
	if timeout > 0 {
		b.timeout = timeout
	}
	return b
}

// WithObserver registers a delivery observer
func (b *DispatcherBuilder) WithObserver(o DeliveryObserver) *DispatcherBuilder {
	if o != nil {
		b.observers = append(b.observers, o)
	}
	return b
}

// Build creates the dispatcher. Call Start before publishing.
func (b *DispatcherBuilder) Build() *Dispatcher {
	return &Dispatcher{
		logger:    b.logger.With().Str("component", "Dispatcher").Logger(),
		sinks:     append([]Sink(nil), b.sinks...),
		timeout:   b.timeout,
		observers: append([]DeliveryObserver(nil), b.observers...),
		queue:     make(chan notification, b.queueSize),
		done:      make(chan struct{}),
	}
}

// Sinks returns the names of the configured sinks.
func (d *Dispatcher) Sinks() []string {
	names := make([]string, 0, len(d.sinks))
	for _, s := range d.sinks {
		names = append(names, s.Name())
	}
	return names
}

// Start launches the delivery worker.
func (d *Dispatcher) Start() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.started || d.closed {
		return
	}
	d.started = true
	go d.run()
	d.logger.Info().Strs("sinks", d.Sinks()).Int("queue_size", cap(d.queue)).Msg("Notification dispatcher started")
}

// PublishChange queues a change event.
func (d *Dispatcher) PublishChange(event models.ChangeEvent) {
	d.enqueue(notification{change: &event})
}

// PublishHealth queues a health event.
func (d *Dispatcher) PublishHealth(event models.HealthEvent) {
	d.enqueue(notification{health: &event})
}

func (d *Dispatcher) enqueue(n notification) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	if d.closed {
		d.logger.Debug().Str("kind", n.kind()).Str("url", n.url()).Msg("Dispatcher closed, event discarded")
		return
	}

	select {
	case d.queue <- n:
	default:
		d.logger.Warn().Str("kind", n.kind()).Str("url", n.url()).Msg("Notification queue full, event dropped")
		for _, o := range d.observers {
			o.ObserveDrop(n.kind())
		}
	}
}

// Close stops accepting events and waits until queued events are delivered or ctx expires.
func (d *Dispatcher) Close(ctx context.Context) error {
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return nil
	}
	d.closed = true
	started := d.started
	close(d.queue)
	d.mu.Unlock()

	if !started {
		return nil
	}

	select {
	case <-d.done:
		d.logger.Info().Msg("Notification dispatcher drained")
		return nil
	case <-ctx.Done():
		d.logger.Warn().Int("pending", len(d.queue)).Msg("Notification dispatcher did not drain before shutdown")
		return ctx.Err()
	}
}

func (d *Dispatcher) run() {
	defer close(d.done)
	for n := range d.queue {
		d.deliver(n)
	}
}

func (d *Dispatcher) deliver(n notification) {
	for _, sink := range d.sinks {
		start := time.Now()
		err := d.callSink(sink, n)
		elapsed := time.Since(start)

		if err != nil {
			sinkErr := &SinkError{Sink: sink.Name(), Kind: n.kind(), URL: n.url(), Err: err}
			d.logger.Error().Err(sinkErr).Str("sink", sink.Name()).Dur("elapsed", elapsed).Msg("Notification sink failed")
			err = sinkErr
		}
		for _, o := range d.observers {
			o.ObserveDelivery(sink.Name(), n.kind(), err, elapsed)
		}
	}
}

func (d *Dispatcher) callSink(sink Sink, n notification) (err error) {
	ctx, cancel := context.WithTimeout(context.Background(), d.timeout)
	defer cancel()

	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("sink panicked: %v", r)
		}
	}()

	if n.change != nil {
		return sink.NotifyChange(ctx, *n.change)
	}
	return sink.NotifyHealth(ctx, *n.health)
}
