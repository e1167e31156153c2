package datastore

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParquetArchiveBuilder_Validation(t *testing.T) {
	_, err := NewParquetArchiveBuilder(zerolog.Nop()).Build()
	assert.Error(t, err)

	_, err = NewParquetArchiveBuilder(zerolog.Nop()).
		WithBasePath(t.TempDir()).
		WithCompression("lz77").
		Build()
	assert.Error(t, err)
}

func TestParquetArchive_AppendsPerURL(t *testing.T) {
	for _, codec := range []string{CompressionZstd, CompressionSnappy, CompressionGzip, CompressionNone} {
		t.Run(codec, func(t *testing.T) {
			base := t.TempDir()
			archive, err := NewParquetArchiveBuilder(zerolog.Nop()).
				WithBasePath(base).
				WithCompression(codec).
				Build()
			require.NoError(t, err)

			ctx := context.Background()
			at := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
			first := changeEvent("e1", "https://example.com/event", "Seats: 9", at)
			first.PreviousContent = "Seats: 10"
			second := changeEvent("e2", "https://example.com/event", "Seats: 8", at.Add(time.Minute))

			require.NoError(t, archive.NotifyChange(ctx, first))
			require.NoError(t, archive.NotifyChange(ctx, second))
			require.NoError(t, archive.NotifyChange(ctx, first))
			require.NoError(t, archive.NotifyChange(ctx, changeEvent("x", "https://other.example:8443/", "x", at)))

			events, err := archive.Changes("https://example.com/event")
			require.NoError(t, err)
			require.Len(t, events, 2)
			assert.Equal(t, "e2", events[0].ID)
			assert.Equal(t, "e1", events[1].ID)
			assert.Equal(t, "Seats: 10", events[1].PreviousContent)
			assert.Equal(t, "Seats: 9", events[1].CurrentContent)
			assert.Equal(t, at, events[1].DetectedAt)

			path := filepath.Join(base, archiveDataDir, "example.com_443", urlHash("https://example.com/event")+archiveFileSuffix)
			assert.FileExists(t, path)
			assert.NoFileExists(t, path+".tmp")
			assert.DirExists(t, filepath.Join(base, archiveDataDir, "other.example_8443"))
		})
	}
}

func TestParquetArchive_WithoutContent(t *testing.T) {
	archive, err := NewParquetArchiveBuilder(zerolog.Nop()).
		WithBasePath(t.TempDir()).
		WithContent(false).
		Build()
	require.NoError(t, err)

	require.NoError(t, archive.NotifyChange(context.Background(),
		changeEvent("e1", "http://example.com", "Seats: 9", time.Now())))

	events, err := archive.Changes("http://example.com")
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Empty(t, events[0].CurrentContent)
	assert.Equal(t, "-old\n+Seats: 9\n", events[0].Diff)
}

func TestParquetArchive_ConcurrentAppends(t *testing.T) {
	archive, err := NewParquetArchiveBuilder(zerolog.Nop()).WithBasePath(t.TempDir()).Build()
	require.NoError(t, err)

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			id := string(rune('a' + i))
			assert.NoError(t, archive.NotifyChange(context.Background(),
				changeEvent(id, "https://example.com", id, time.Now())))
		}(i)
	}
	wg.Wait()

	events, err := archive.Changes("https://example.com")
	require.NoError(t, err)
	assert.Len(t, events, 10)
}

func TestParquetArchive_UnknownURLHasNoChanges(t *testing.T) {
	archive, err := NewParquetArchiveBuilder(zerolog.Nop()).WithBasePath(t.TempDir()).Build()
	require.NoError(t, err)

	events, err := archive.Changes("https://never.example")
	require.NoError(t, err)
	assert.Empty(t, events)
}

func TestParquetArchive_CancelledContext(t *testing.T) {
	base := t.TempDir()
	archive, err := NewParquetArchiveBuilder(zerolog.Nop()).WithBasePath(base).Build()
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err = archive.NotifyChange(ctx, changeEvent("e1", "https://example.com", "x", time.Now()))
	assert.ErrorIs(t, err, context.Canceled)

	entries, err := os.ReadDir(base)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestHostnameWithPort(t *testing.T) {
	hp, err := hostnameWithPort("https://Example.COM/path")
	require.NoError(t, err)
	assert.Equal(t, "example.com:443", hp)

	hp, err = hostnameWithPort("http://example.com:8080")
	require.NoError(t, err)
	assert.Equal(t, "example.com:8080", hp)

	_, err = hostnameWithPort("not a url")
	assert.Error(t, err)
}
