package datastore

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/aleister1102/pagewatch/internal/models"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *SQLiteEventStore {
	t.Helper()
	store, err := NewSQLiteEventStore(filepath.Join(t.TempDir(), "nested", "events.db"), zerolog.Nop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func changeEvent(id, url, content string, at time.Time) models.ChangeEvent {
	return models.ChangeEvent{
		ID:             id,
		URL:            url,
		PreviousHash:   "prev-" + id,
		CurrentHash:    "curr-" + id,
		CurrentContent: content,
		Diff:           "-old\n+" + content + "\n",
		LinesAdded:     1,
		LinesRemoved:   1,
		DetectedAt:     at,
	}
}

func TestSQLiteEventStore_ChangeEventsAndSnapshots(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	base := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

	require.NoError(t, store.NotifyChange(ctx, changeEvent("e1", "https://a.example", "Seats: 9", base)))
	require.NoError(t, store.NotifyChange(ctx, changeEvent("e2", "https://a.example", "Seats: 8", base.Add(time.Minute))))
	require.NoError(t, store.NotifyChange(ctx, changeEvent("e3", "https://b.example", "Open", base)))
	// the dispatcher never repeats an event, but a replay must not duplicate rows
	require.NoError(t, store.NotifyChange(ctx, changeEvent("e1", "https://a.example", "Seats: 9", base)))

	events, err := store.ChangeEvents(ctx, "https://a.example", 0)
	require.NoError(t, err)
	require.Len(t, events, 2)
	assert.Equal(t, "e2", events[0].ID)
	assert.Equal(t, "e1", events[1].ID)
	assert.Equal(t, "-old\n+Seats: 8\n", events[0].Diff)
	assert.Equal(t, base.Add(time.Minute), events[0].DetectedAt)
	assert.Equal(t, 1, events[0].LinesAdded)

	limited, err := store.ChangeEvents(ctx, "https://a.example", 1)
	require.NoError(t, err)
	assert.Len(t, limited, 1)

	snapshots, err := store.LatestSnapshots(ctx)
	require.NoError(t, err)
	assert.Equal(t, map[string]string{
		"https://a.example": "Seats: 8",
		"https://b.example": "Open",
	}, snapshots)
}

func TestSQLiteEventStore_OlderSnapshotNeverOverwritesNewer(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	base := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	const url = "https://a.example"

	require.NoError(t, store.NotifyChange(ctx, changeEvent("late", url, "Seats: 4", base.Add(time.Hour))))
	require.NoError(t, store.NotifyChange(ctx, changeEvent("early", url, "Seats: 9", base)))

	saved, err := store.SaveSnapshots(ctx, []models.MonitoredSource{
		{URL: url, Snapshot: "Seats: 10", SnapshotHash: "stale", LastSuccessAt: base.Add(-time.Hour)},
	})
	require.NoError(t, err)
	assert.Equal(t, 1, saved)

	snapshots, err := store.LatestSnapshots(ctx)
	require.NoError(t, err)
	assert.Equal(t, "Seats: 4", snapshots[url])

	events, err := store.ChangeEvents(ctx, url, 0)
	require.NoError(t, err)
	assert.Len(t, events, 2, "both events are journalled")
}

func TestSQLiteEventStore_SaveSnapshots(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	sources := []models.MonitoredSource{
		{URL: "https://a.example", Snapshot: "Seats: 10", SnapshotHash: "h1", LastSuccessAt: time.Now()},
		{URL: "https://never-fetched.example"},
	}
	saved, err := store.SaveSnapshots(ctx, sources)
	require.NoError(t, err)
	assert.Equal(t, 1, saved)

	require.NoError(t, store.NotifyChange(ctx, changeEvent("e1", "https://a.example", "Seats: 9", time.Now())))

	snapshots, err := store.LatestSnapshots(ctx)
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"https://a.example": "Seats: 9"}, snapshots)
}

func TestSQLiteEventStore_HealthEvents(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	at := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

	require.NoError(t, store.NotifyHealth(ctx, models.HealthEvent{
		URL: "https://a.example", From: models.HealthDegraded, To: models.HealthDisabled,
		ConsecutiveFailures: 5, BackoffDelay: 30 * time.Second, Error: "connection refused", OccurredAt: at,
	}))
	require.NoError(t, store.NotifyHealth(ctx, models.HealthEvent{
		URL: "https://a.example", From: models.HealthDisabled, To: models.HealthActive, OccurredAt: at.Add(time.Minute),
	}))

	events, err := store.HealthEvents(ctx, "https://a.example")
	require.NoError(t, err)
	require.Len(t, events, 2)
	assert.Equal(t, models.HealthDisabled, events[0].To)
	assert.Equal(t, 30*time.Second, events[0].BackoffDelay)
	assert.Equal(t, "connection refused", events[0].Error)
	assert.Equal(t, at, events[0].OccurredAt)
	assert.True(t, events[1].Recovered())
	assert.Empty(t, events[1].Error)
}

func TestSQLiteEventStore_ReopenKeepsData(t *testing.T) {
	path := filepath.Join(t.TempDir(), "events.db")
	ctx := context.Background()

	store, err := NewSQLiteEventStore(path, zerolog.Nop())
	require.NoError(t, err)
	require.NoError(t, store.NotifyChange(ctx, changeEvent("e1", "https://a.example", "Seats: 9", time.Now())))
	require.NoError(t, store.Close())

	reopened, err := NewSQLiteEventStore(path, zerolog.Nop())
	require.NoError(t, err)
	defer reopened.Close()

	snapshots, err := reopened.LatestSnapshots(ctx)
	require.NoError(t, err)
	assert.Equal(t, "Seats: 9", snapshots["https://a.example"])
}
