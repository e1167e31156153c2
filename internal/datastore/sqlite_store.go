package datastore

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/aleister1102/pagewatch/internal/common"
	"github.com/aleister1102/pagewatch/internal/models"

	"github.com/rs/zerolog"
	_ "modernc.org/sqlite"
)

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS change_events (
	id TEXT PRIMARY KEY,
	url TEXT NOT NULL,
	previous_hash TEXT NOT NULL,
	current_hash TEXT NOT NULL,
	diff TEXT NOT NULL,
	diff_truncated INTEGER NOT NULL DEFAULT 0,
	lines_added INTEGER NOT NULL DEFAULT 0,
	lines_removed INTEGER NOT NULL DEFAULT 0,
	detected_at INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_change_events_url ON change_events (url, detected_at);

CREATE TABLE IF NOT EXISTS health_events (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	url TEXT NOT NULL,
	from_state TEXT NOT NULL,
	to_state TEXT NOT NULL,
	consecutive_failures INTEGER NOT NULL,
	backoff_ms INTEGER NOT NULL,
	error TEXT,
	occurred_at INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_health_events_url ON health_events (url, occurred_at);

CREATE TABLE IF NOT EXISTS snapshots (
	url TEXT PRIMARY KEY,
	content TEXT NOT NULL,
	hash TEXT NOT NULL,
	updated_at INTEGER NOT NULL
);
`

// SQLiteEventStore journals change and health events and keeps the latest snapshot per URL.
// It is used as a notification sink and as the snapshot source on startup.
type SQLiteEventStore struct {
	db     *sql.DB
	logger zerolog.Logger
}

// NewSQLiteEventStore opens (or creates) the database at path and ensures the schema.
func NewSQLiteEventStore(path string, logger zerolog.Logger) (*SQLiteEventStore, error) {
	logger = logger.With().Str("component", "SQLiteEventStore").Logger()
	logger.Info().Str("db_path", path).Msg("Opening event journal")

	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, common.WrapError(err, "failed to create database directory "+dir)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, common.WrapError(err, "failed to open sqlite database "+path)
	}
	// sqlite allows one writer; a single connection avoids SQLITE_BUSY between pool members
	db.SetMaxOpenConns(1)

	store := &SQLiteEventStore{db: db, logger: logger}
	if err := store.initSchema(); err != nil {
		_ = db.Close()
		return nil, err
	}
	return store, nil
}

func (s *SQLiteEventStore) initSchema() error {
	if _, err := s.db.Exec(sqliteSchema); err != nil {
		s.logger.Error().Err(err).Msg("Failed to initialize schema")
		return common.WrapError(err, "failed to initialize schema")
	}
	s.logger.Debug().Msg("Schema initialized")
	return nil
}

// Close closes the database connection.
func (s *SQLiteEventStore) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// Name implements notifier.Sink.
func (s *SQLiteEventStore) Name() string { return "sqlite" }

// NotifyChange journals the event and stores its current content as the latest snapshot.
func (s *SQLiteEventStore) NotifyChange(ctx context.Context, event models.ChangeEvent) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return common.WrapError(err, "begin change transaction")
	}
	defer func() { _ = tx.Rollback() }()

	res, err := tx.ExecContext(ctx,
		`INSERT OR IGNORE INTO change_events
			(id, url, previous_hash, current_hash, diff, diff_truncated, lines_added, lines_removed, detected_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		event.ID, event.URL, event.PreviousHash, event.CurrentHash, event.Diff,
		event.DiffTruncated, event.LinesAdded, event.LinesRemoved, event.DetectedAt.UnixMilli())
	if err != nil {
		return common.WrapError(err, "insert change event")
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		s.logger.Debug().Str("event_id", event.ID).Msg("Change event already journaled")
		return nil
	}

	if event.CurrentContent != "" {
		if err := upsertSnapshot(ctx, tx, event.URL, event.CurrentContent, event.CurrentHash, event.DetectedAt); err != nil {
			return err
		}
	}

	if err := tx.Commit(); err != nil {
		return common.WrapError(err, "commit change event")
	}
	s.logger.Debug().Str("url", event.URL).Str("event_id", event.ID).Msg("Change event journaled")
	return nil
}

// NotifyHealth journals a health event.
func (s *SQLiteEventStore) NotifyHealth(ctx context.Context, event models.HealthEvent) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO health_events
			(url, from_state, to_state, consecutive_failures, backoff_ms, error, occurred_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		event.URL, string(event.From), string(event.To), event.ConsecutiveFailures,
		event.BackoffDelay.Milliseconds(),
		sql.NullString{String: event.Error, Valid: event.Error != ""},
		event.OccurredAt.UnixMilli())
	if err != nil {
		return common.WrapError(err, "insert health event")
	}
	return nil
}

// SaveSnapshots stores the current snapshot of every source that has one.
// Rows already holding a newer snapshot are left alone; the count includes them.
func (s *SQLiteEventStore) SaveSnapshots(ctx context.Context, sources []models.MonitoredSource) (int, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, common.WrapError(err, "begin snapshot transaction")
	}
	defer func() { _ = tx.Rollback() }()

	saved := 0
	for _, src := range sources {
		if !src.HasSnapshot() {
			continue
		}
		at := src.LastSuccessAt
		if at.IsZero() {
			at = time.Now()
		}
		if err := upsertSnapshot(ctx, tx, src.URL, src.Snapshot, src.SnapshotHash, at); err != nil {
			return 0, err
		}
		saved++
	}
	if err := tx.Commit(); err != nil {
		return 0, common.WrapError(err, "commit snapshots")
	}
	s.logger.Info().Int("snapshots", saved).Msg("Saved source snapshots")
	return saved, nil
}

// LatestSnapshots returns the last stored content per URL.
func (s *SQLiteEventStore) LatestSnapshots(ctx context.Context) (map[string]string, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT url, content FROM snapshots`)
	if err != nil {
		return nil, common.WrapError(err, "query snapshots")
	}
	defer rows.Close()

	snapshots := make(map[string]string)
	for rows.Next() {
		var url, content string
		if err := rows.Scan(&url, &content); err != nil {
			return nil, common.WrapError(err, "scan snapshot row")
		}
		snapshots[url] = content
	}
	if err := rows.Err(); err != nil {
		return nil, common.WrapError(err, "iterate snapshots")
	}
	return snapshots, nil
}

// ChangeEvents returns the journaled change events for url, newest first.
// Content fields are not journaled and stay empty.
func (s *SQLiteEventStore) ChangeEvents(ctx context.Context, url string, limit int) ([]models.ChangeEvent, error) {
	if limit <= 0 {
		limit = -1
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, url, previous_hash, current_hash, diff, diff_truncated, lines_added, lines_removed, detected_at
		FROM change_events WHERE url = ? ORDER BY detected_at DESC, rowid DESC LIMIT ?`, url, limit)
	if err != nil {
		return nil, common.WrapError(err, "query change events")
	}
	defer rows.Close()

	var events []models.ChangeEvent
	for rows.Next() {
		var e models.ChangeEvent
		var detectedAt int64
		if err := rows.Scan(&e.ID, &e.URL, &e.PreviousHash, &e.CurrentHash, &e.Diff,
			&e.DiffTruncated, &e.LinesAdded, &e.LinesRemoved, &detectedAt); err != nil {
			return nil, common.WrapError(err, "scan change event row")
		}
		e.DetectedAt = time.UnixMilli(detectedAt).UTC()
		events = append(events, e)
	}
	if err := rows.Err(); err != nil {
		return nil, common.WrapError(err, "iterate change events")
	}
	return events, nil
}

// HealthEvents returns the journaled health events for url, oldest first.
func (s *SQLiteEventStore) HealthEvents(ctx context.Context, url string) ([]models.HealthEvent, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT url, from_state, to_state, consecutive_failures, backoff_ms, error, occurred_at
		FROM health_events WHERE url = ? ORDER BY id`, url)
	if err != nil {
		return nil, common.WrapError(err, "query health events")
	}
	defer rows.Close()

	var events []models.HealthEvent
	for rows.Next() {
		var e models.HealthEvent
		var from, to string
		var backoffMS, occurredAt int64
		var errText sql.NullString
		if err := rows.Scan(&e.URL, &from, &to, &e.ConsecutiveFailures, &backoffMS, &errText, &occurredAt); err != nil {
			return nil, common.WrapError(err, "scan health event row")
		}
		e.From = models.HealthState(from)
		e.To = models.HealthState(to)
		e.BackoffDelay = time.Duration(backoffMS) * time.Millisecond
		e.Error = errText.String
		e.OccurredAt = time.UnixMilli(occurredAt).UTC()
		events = append(events, e)
	}
	if err := rows.Err(); err != nil {
		return nil, common.WrapError(err, "iterate health events")
	}
	return events, nil
}

// upsertSnapshot stores content unless the row already holds a newer snapshot.
func upsertSnapshot(ctx context.Context, tx *sql.Tx, url, content, hash string, at time.Time) error {
	_, err := tx.ExecContext(ctx,
		`INSERT INTO snapshots (url, content, hash, updated_at) VALUES (?, ?, ?, ?)
		ON CONFLICT(url) DO UPDATE SET content = excluded.content, hash = excluded.hash, updated_at = excluded.updated_at
		WHERE excluded.updated_at >= snapshots.updated_at`,
		url, content, hash, at.UnixMilli())
	if err != nil {
		return fmt.Errorf("upsert snapshot for %s: %w", url, err)
	}
	return nil
}
