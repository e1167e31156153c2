package monitor

import (
	"context"

	"github.com/aleister1102/pagewatch/internal/config"
	"github.com/aleister1102/pagewatch/internal/differ"
	"github.com/aleister1102/pagewatch/internal/health"
	"github.com/aleister1102/pagewatch/internal/httpclient"
	"github.com/aleister1102/pagewatch/internal/models"
	"github.com/aleister1102/pagewatch/internal/normalizer"

	"github.com/rs/zerolog"
)

// SnapshotStore provides the last stored snapshot per URL.
type SnapshotStore interface {
	LatestSnapshots(ctx context.Context) (map[string]string, error)
}

// MonitoringService assembles the fetcher, normalizer, differ, health tracker,
// source table and scheduler from the loaded configuration.
type MonitoringService struct {
	gCfg      *config.GlobalConfig
	logger    zerolog.Logger
	table     *SourceTable
	tracker   *health.Tracker
	checker   *URLChecker
	scheduler *Scheduler
}

// NewMonitoringService creates a service for gCfg.MonitorConfig.TargetURLs.
// Target URLs must already be resolved and validated.
func NewMonitoringService(
	gCfg *config.GlobalConfig,
	client *httpclient.HTTPClient,
	publisher EventPublisher,
	baseLogger zerolog.Logger,
) *MonitoringService {
	fetcher := NewHTTPFetcher(client, gCfg.MonitorConfig.BypassCache, baseLogger)
	return NewMonitoringServiceWithFetcher(gCfg, fetcher, publisher, baseLogger)
}

// NewMonitoringServiceWithFetcher is NewMonitoringService with a caller supplied fetcher.
func NewMonitoringServiceWithFetcher(
	gCfg *config.GlobalConfig,
	fetcher Fetcher,
	publisher EventPublisher,
	baseLogger zerolog.Logger,
) *MonitoringService {
	tracker := health.NewTracker(gCfg.HealthConfig.Policy())
	contentDiffer := differ.NewContentDifferBuilder(baseLogger).
		WithDiffConfig(gCfg.DiffConfig.DifferConfig()).
		Build()
	checker := NewURLChecker(baseLogger, fetcher, normalizer.NewNormalizer(baseLogger), contentDiffer)
	table := NewSourceTable(gCfg.MonitorConfig.TargetURLs, tracker.Policy().InitialBackoff, baseLogger)

	scheduler := NewScheduler(SchedulerConfig{
		Interval:            gCfg.MonitorConfig.CheckInterval(),
		FetchTimeout:        gCfg.MonitorConfig.FetchTimeout(),
		MaxConcurrentChecks: gCfg.MonitorConfig.MaxConcurrentChecks,
		MaxPasses:           gCfg.MonitorConfig.MaxPasses,
	}, table, checker, tracker, publisher, baseLogger)

	return &MonitoringService{
		gCfg:      gCfg,
		logger:    baseLogger.With().Str("component", "MonitoringService").Logger(),
		table:     table,
		tracker:   tracker,
		checker:   checker,
		scheduler: scheduler,
	}
}

// SeedSnapshots loads stored snapshots so the first pass compares against them.
// A storage error is logged and the run starts from fresh baselines.
func (s *MonitoringService) SeedSnapshots(ctx context.Context, store SnapshotStore) int {
	snapshots, err := store.LatestSnapshots(ctx)
	if err != nil {
		s.logger.Warn().Err(err).Msg("Failed to load stored snapshots, starting from fresh baselines")
		return 0
	}
	return s.table.Seed(snapshots)
}

// AddObserver registers a pass observer on the scheduler.
func (s *MonitoringService) AddObserver(o PassObserver) {
	s.scheduler.AddObserver(o)
}

// Run starts the poll loop and blocks until it stops.
func (s *MonitoringService) Run(ctx context.Context) error {
	s.logger.Info().Int("sources", s.table.Len()).Msg("Starting MonitoringService")
	err := s.scheduler.Run(ctx)
	s.logger.Info().Msg("MonitoringService stopped")
	return err
}

// RunOnce performs a single pass.
func (s *MonitoringService) RunOnce(ctx context.Context) PassSummary {
	return s.scheduler.RunPass(ctx)
}

// Sources returns a copy of every source record in target order.
func (s *MonitoringService) Sources() []models.MonitoredSource {
	return s.table.Sources()
}

// LastSummary returns the summary of the most recent pass.
func (s *MonitoringService) LastSummary() (PassSummary, bool) {
	return s.scheduler.LastSummary()
}

// Table returns the live source table.
func (s *MonitoringService) Table() *SourceTable {
	return s.table
}

// Scheduler returns the poll scheduler.
func (s *MonitoringService) Scheduler() *Scheduler {
	return s.scheduler
}
