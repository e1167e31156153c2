package main

import (
	"context"
	"os"
	"time"

	"github.com/aleister1102/pagewatch/internal/common"
	"github.com/aleister1102/pagewatch/internal/config"
	"github.com/aleister1102/pagewatch/internal/datastore"
	"github.com/aleister1102/pagewatch/internal/logger"
	"github.com/aleister1102/pagewatch/internal/metrics"
	"github.com/aleister1102/pagewatch/internal/monitor"
	"github.com/aleister1102/pagewatch/internal/notifier"
	"github.com/aleister1102/pagewatch/internal/statusapi"

	"github.com/rs/zerolog"
)

const shutdownTimeout = 15 * time.Second

// application holds every long-lived component of one process.
type application struct {
	cfg        *config.GlobalConfig
	baseLogger zerolog.Logger
	logger     zerolog.Logger
	service    *monitor.MonitoringService
	dispatcher *notifier.Dispatcher
	store      *datastore.SQLiteEventStore
	metrics    *metrics.Metrics
}

// loadConfig reads and validates the configuration, then builds the configured logger.
func loadConfig() (*config.GlobalConfig, zerolog.Logger, error) {
	bootstrap := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}).
		With().Timestamp().Logger()

	cfg, err := config.LoadAndValidate(rootFlags.configFile, rootFlags.targetsFile, bootstrap)
	if err != nil {
		return nil, bootstrap, err
	}

	zLogger, err := logger.New(cfg.LogConfig)
	if err != nil {
		return nil, bootstrap, common.WrapError(err, "could not initialize logger")
	}
	return cfg, zLogger, nil
}

// newApplication wires the fetcher, sinks, dispatcher, storage and metrics for cfg.
func newApplication(ctx context.Context, cfg *config.GlobalConfig, zLogger zerolog.Logger) (*application, error) {
	client, err := cfg.HTTPClientConfig.ClientBuilder(zLogger).Build()
	if err != nil {
		return nil, common.WrapError(err, "could not create HTTP client")
	}

	app := &application{
		cfg:        cfg,
		baseLogger: zLogger,
		logger:     zLogger.With().Str("component", "Main").Logger(),
		metrics:    metrics.New(),
	}

	sinks := notifier.SinksFromConfig(cfg.NotificationConfig, client, zLogger)

	if cfg.StorageConfig.SQLitePath != "" {
		store, err := datastore.NewSQLiteEventStore(cfg.StorageConfig.SQLitePath, zLogger)
		if err != nil {
			return nil, err
		}
		app.store = store
		sinks = append(sinks, store)
	}

	if cfg.StorageConfig.ParquetBasePath != "" {
		archive, err := datastore.NewParquetArchiveBuilder(zLogger).
			WithBasePath(cfg.StorageConfig.ParquetBasePath).
			WithCompression(cfg.StorageConfig.CompressionCodec).
			Build()
		if err != nil {
			app.closeStore()
			return nil, err
		}
		sinks = append(sinks, archive)
	}

	app.dispatcher = notifier.NewDispatcherBuilder(zLogger).
		WithSinks(sinks...).
		WithQueueSize(cfg.NotificationConfig.QueueSize).
		WithTimeout(time.Duration(cfg.NotificationConfig.NotifyTimeoutSeconds) * time.Second).
		WithObserver(app.metrics).
		Build()

	app.service = monitor.NewMonitoringService(cfg, client, app.dispatcher, zLogger)
	app.service.AddObserver(app.metrics)

	if app.store != nil && cfg.StorageConfig.SeedSnapshots {
		seeded := app.service.SeedSnapshots(ctx, app.store)
		app.logger.Info().Int("seeded", seeded).Msg("Resumed from stored snapshots")
	}

	return app, nil
}

// start launches the dispatcher and, when configured, the status API.
func (a *application) start(ctx context.Context) {
	a.dispatcher.Start()

	if addr := a.cfg.MetricsConfig.ListenAddress; addr != "" {
		srv := statusapi.NewServer(a.service, a.metrics.Handler(), a.baseLogger)
		go func() {
			if err := srv.ListenAndServe(ctx, addr); err != nil {
				a.logger.Error().Err(err).Str("address", addr).Msg("Status API failed")
			}
		}()
	}
}

// shutdown drains pending notifications, persists snapshots and closes the store.
func (a *application) shutdown() {
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := a.dispatcher.Close(ctx); err != nil {
		a.logger.Warn().Err(err).Msg("Pending notifications were not delivered")
	}

	if a.store != nil {
		if _, err := a.store.SaveSnapshots(ctx, a.service.Sources()); err != nil {
			a.logger.Error().Err(err).Msg("Failed to save snapshots")
		}
	}
	a.closeStore()
}

func (a *application) closeStore() {
	if a.store == nil {
		return
	}
	if err := a.store.Close(); err != nil {
		a.logger.Error().Err(err).Msg("Failed to close event store")
	}
}
