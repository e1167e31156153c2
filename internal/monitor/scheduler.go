package monitor

import (
	"context"
	"sync"
	"time"

	"github.com/aleister1102/pagewatch/internal/differ"
	"github.com/aleister1102/pagewatch/internal/health"
	"github.com/aleister1102/pagewatch/internal/models"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
)

// EventPublisher receives change and health events. Implementations must not block.
type EventPublisher interface {
	PublishChange(event models.ChangeEvent)
	PublishHealth(event models.HealthEvent)
}

// PassObserver is notified after every pass.
type PassObserver interface {
	ObservePass(summary PassSummary)
}

type nopPublisher struct{}

func (nopPublisher) PublishChange(models.ChangeEvent) {}
func (nopPublisher) PublishHealth(models.HealthEvent) {}

// SchedulerConfig holds the loop settings.
type SchedulerConfig struct {
	Interval            time.Duration
	FetchTimeout        time.Duration
	MaxConcurrentChecks int
	MaxPasses           int // 0 means run until stopped
}

// Scheduler drives passes over the source table.
type Scheduler struct {
	logger      zerolog.Logger
	cfg         SchedulerConfig
	table       *SourceTable
	checker     *URLChecker
	tracker     *health.Tracker
	publisher   EventPublisher
	observers   []PassObserver
	passTracker *PassTracker
	now         func() time.Time

	mu          sync.RWMutex
	lastSummary *PassSummary
}

// NewScheduler creates a new poll scheduler.
func NewScheduler(
	cfg SchedulerConfig,
	table *SourceTable,
	checker *URLChecker,
	tracker *health.Tracker,
	publisher EventPublisher,
	logger zerolog.Logger,
) *Scheduler {
	if cfg.MaxConcurrentChecks <= 0 {
		cfg.MaxConcurrentChecks = 1
	}
	if cfg.Interval < 0 {
		cfg.Interval = 0
	}
	if publisher == nil {
		publisher = nopPublisher{}
	}
	return &Scheduler{
		logger:      logger.With().Str("component", "MonitorScheduler").Logger(),
		cfg:         cfg,
		table:       table,
		checker:     checker,
		tracker:     tracker,
		publisher:   publisher,
		passTracker: NewPassTracker(cfg.MaxPasses),
		now:         time.Now,
	}
}

// AddObserver registers an observer for pass summaries.
func (s *Scheduler) AddObserver(o PassObserver) {
	s.observers = append(s.observers, o)
}

// Run executes passes until ctx is cancelled or MaxPasses is reached.
// Cancellation is a clean stop and returns nil.
func (s *Scheduler) Run(ctx context.Context) error {
	s.logger.Info().
		Int("sources", s.table.Len()).
		Dur("interval", s.cfg.Interval).
		Int("max_concurrent_checks", s.cfg.MaxConcurrentChecks).
		Int("max_passes", s.cfg.MaxPasses).
		Msg("Starting poll loop")

	for {
		s.RunPass(ctx)

		if ctx.Err() != nil {
			s.logger.Info().Int("passes", s.passTracker.PassCount()).Msg("Poll loop stopped")
			return nil
		}
		if !s.passTracker.ShouldContinue() {
			s.logger.Info().Int("passes", s.passTracker.PassCount()).Msg("Reached max passes, stopping poll loop")
			return nil
		}

		timer := time.NewTimer(s.cfg.Interval)
		select {
		case <-ctx.Done():
			timer.Stop()
			s.logger.Info().Int("passes", s.passTracker.PassCount()).Msg("Poll loop stopped")
			return nil
		case <-timer.C:
		}
	}
}

// RunPass checks every enabled source once, then probes every disabled source whose backoff elapsed.
// Sources not yet started when ctx is cancelled are skipped; started ones always finish.
func (s *Scheduler) RunPass(ctx context.Context) PassSummary {
	start := s.now()
	pass, passID := s.passTracker.StartPass(start)
	summary := PassSummary{Pass: pass, PassID: passID, StartedAt: start}

	var active []string
	for _, src := range s.table.Sources() {
		if src.Health.Enabled() {
			active = append(active, src.URL)
		}
	}
	s.runChecks(ctx, active, false, &summary)

	probeAt := s.now()
	var due []string
	for _, src := range s.table.Sources() {
		if s.tracker.ProbeDue(src.Health, probeAt) {
			due = append(due, src.URL)
		}
	}
	s.runChecks(ctx, due, true, &summary)

	for _, src := range s.table.Sources() {
		if !src.Health.Enabled() {
			summary.Disabled++
		}
	}
	summary.Interrupted = ctx.Err() != nil
	summary.Elapsed = s.now().Sub(start)
	summary.Resources = GetResourceUsage()

	summary.Log(s.logger)
	s.mu.Lock()
	s.lastSummary = &summary
	s.mu.Unlock()
	for _, o := range s.observers {
		o.ObservePass(summary)
	}
	return summary
}

// LastSummary returns the summary of the most recent pass.
func (s *Scheduler) LastSummary() (PassSummary, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.lastSummary == nil {
		return PassSummary{}, false
	}
	return *s.lastSummary, true
}

// Table returns the source table driven by the scheduler.
func (s *Scheduler) Table() *SourceTable {
	return s.table
}

type checkOutcome struct {
	status    SourceStatus
	recovered bool
}

func (s *Scheduler) runChecks(ctx context.Context, urls []string, probe bool, summary *PassSummary) {
	if len(urls) == 0 {
		return
	}

	outcomes := make([]checkOutcome, len(urls))
	var g errgroup.Group
	g.SetLimit(s.cfg.MaxConcurrentChecks)

	for i, url := range urls {
		if ctx.Err() != nil {
			outcomes[i] = s.skipped(url, probe)
			continue
		}
		g.Go(func() error {
			if ctx.Err() != nil {
				outcomes[i] = s.skipped(url, probe)
				return nil
			}
			outcomes[i] = s.checkSource(ctx, url, probe)
			return nil
		})
	}
	_ = g.Wait()

	for _, o := range outcomes {
		summary.add(o.status, o.recovered)
	}
}

// checkSource runs one check and applies it to the source record.
// The check is detached from ctx cancellation and bounded by the fetch timeout, so the record
// is always updated exactly once after the fetch resolves.
func (s *Scheduler) checkSource(ctx context.Context, url string, probe bool) checkOutcome {
	src, ok := s.table.Get(url)
	if !ok {
		return checkOutcome{status: SourceStatus{URL: url, Probe: probe, Outcome: OutcomeSkipped}}
	}

	checkCtx := context.WithoutCancel(ctx)
	if s.cfg.FetchTimeout > 0 {
		var cancel context.CancelFunc
		checkCtx, cancel = context.WithTimeout(checkCtx, s.cfg.FetchTimeout)
		defer cancel()
	}
	result := s.checker.Check(checkCtx, url, src.Snapshot)

	now := s.now()
	var transition health.Transition
	var updated models.MonitoredSource
	s.table.Update(url, func(rec *models.MonitoredSource) {
		rec.LastCheckedAt = now
		if result.Succeeded() {
			transition = s.tracker.RecordSuccess(&rec.Health, now)
			rec.Snapshot = result.Content
			rec.SnapshotHash = differ.HashContent(result.Content)
			rec.LastSuccessAt = now
		} else {
			transition = s.tracker.RecordFailure(&rec.Health, now, result.Err)
		}
		updated = *rec
	})

	status := SourceStatus{
		URL:                 url,
		Probe:               probe,
		State:               updated.Health.State,
		ConsecutiveFailures: updated.Health.ConsecutiveFailures,
		Duration:            result.Duration,
	}

	switch {
	case !result.Succeeded():
		status.Outcome = OutcomeFailed
		status.Error = result.Err.Error()
		s.logger.Warn().Err(result.Err).
			Str("url", url).
			Bool("probe", probe).
			Int("consecutive_failures", updated.Health.ConsecutiveFailures).
			Msg("Source check failed")
	case result.Event != nil:
		status.Outcome = OutcomeChanged
		s.passTracker.AddChangedURL(url)
		s.logger.Info().
			Str("url", url).
			Str("event_id", result.Event.ID).
			Int("lines_added", result.Event.LinesAdded).
			Int("lines_removed", result.Event.LinesRemoved).
			Msg("Change detected")
		s.publisher.PublishChange(*result.Event)
	case !src.HasSnapshot():
		status.Outcome = OutcomeBaseline
		s.logger.Debug().Str("url", url).Msg("Recorded baseline snapshot")
	default:
		status.Outcome = OutcomeUnchanged
	}

	// A failed probe keeps the source disabled but extends its backoff, which is reported too.
	if transition.Changed() || (probe && !result.Succeeded()) {
		s.publishHealth(updated, transition, now)
	}

	return checkOutcome{
		status:    status,
		recovered: transition.From == models.HealthDisabled && transition.To == models.HealthActive,
	}
}

func (s *Scheduler) publishHealth(src models.MonitoredSource, transition health.Transition, now time.Time) {
	event := models.HealthEvent{
		URL:                 src.URL,
		From:                transition.From,
		To:                  transition.To,
		ConsecutiveFailures: src.Health.ConsecutiveFailures,
		BackoffDelay:        src.Health.BackoffDelay,
		BackoffUntil:        src.Health.BackoffUntil,
		Error:               src.Health.LastError,
		OccurredAt:          now,
	}

	logEvent := s.logger.Info()
	if event.Disabled() {
		logEvent = s.logger.Warn()
	}
	logEvent.
		Str("url", event.URL).
		Str("from", string(event.From)).
		Str("to", string(event.To)).
		Int("consecutive_failures", event.ConsecutiveFailures).
		Dur("backoff_delay", event.BackoffDelay).
		Time("backoff_until", event.BackoffUntil).
		Msg("Source health changed")

	s.publisher.PublishHealth(event)
}

func (s *Scheduler) skipped(url string, probe bool) checkOutcome {
	status := SourceStatus{URL: url, Probe: probe, Outcome: OutcomeSkipped}
	if src, ok := s.table.Get(url); ok {
		status.State = src.Health.State
		status.ConsecutiveFailures = src.Health.ConsecutiveFailures
	}
	return checkOutcome{status: status}
}
