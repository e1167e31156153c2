package monitor

import (
	"sync"
	"time"

	"github.com/aleister1102/pagewatch/internal/differ"
	"github.com/aleister1102/pagewatch/internal/models"

	"github.com/rs/zerolog"
)

type sourceEntry struct {
	mu     sync.Mutex
	source models.MonitoredSource
}

// SourceTable owns the per-source records for the lifetime of a run.
// Each record has its own mutex so that at most one goroutine mutates a source at a time,
// while readers such as the status API get consistent copies.
type SourceTable struct {
	logger   zerolog.Logger
	entries  map[string]*sourceEntry
	order    []string
	mapMutex sync.RWMutex
}

// NewSourceTable creates a table with one active record per URL, keeping the configured order.
// Duplicate URLs are ignored.
func NewSourceTable(urls []string, initialBackoff time.Duration, logger zerolog.Logger) *SourceTable {
	t := &SourceTable{
		logger:  logger.With().Str("component", "SourceTable").Logger(),
		entries: make(map[string]*sourceEntry, len(urls)),
		order:   make([]string, 0, len(urls)),
	}
	for _, url := range urls {
		if _, exists := t.entries[url]; exists {
			continue
		}
		t.entries[url] = &sourceEntry{source: models.NewMonitoredSource(url, initialBackoff)}
		t.order = append(t.order, url)
	}
	return t
}

// URLs returns the monitored URLs in configuration order.
func (t *SourceTable) URLs() []string {
	t.mapMutex.RLock()
	defer t.mapMutex.RUnlock()

	return append([]string(nil), t.order...)
}

// Len returns the number of monitored sources.
func (t *SourceTable) Len() int {
	t.mapMutex.RLock()
	defer t.mapMutex.RUnlock()

	return len(t.order)
}

// Get returns a copy of the record for url.
func (t *SourceTable) Get(url string) (models.MonitoredSource, bool) {
	entry := t.entry(url)
	if entry == nil {
		return models.MonitoredSource{}, false
	}
	entry.mu.Lock()
	defer entry.mu.Unlock()
	return entry.source, true
}

// Update applies fn to the record for url while holding its mutex.
// It returns false when url is not monitored.
func (t *SourceTable) Update(url string, fn func(*models.MonitoredSource)) bool {
	entry := t.entry(url)
	if entry == nil {
		return false
	}
	entry.mu.Lock()
	defer entry.mu.Unlock()
	fn(&entry.source)
	return true
}

// Sources returns copies of every record in configuration order.
func (t *SourceTable) Sources() []models.MonitoredSource {
	urls := t.URLs()
	out := make([]models.MonitoredSource, 0, len(urls))
	for _, url := range urls {
		if src, ok := t.Get(url); ok {
			out = append(out, src)
		}
	}
	return out
}

// Seed installs previously stored snapshots so that a restart compares against them
// instead of treating the first fetch as a new baseline. Unknown URLs and sources that
// already hold a snapshot are left untouched.
func (t *SourceTable) Seed(snapshots map[string]string) int {
	seeded := 0
	for url, content := range snapshots {
		if content == "" {
			continue
		}
		t.Update(url, func(src *models.MonitoredSource) {
			if src.HasSnapshot() {
				return
			}
			src.Snapshot = content
			src.SnapshotHash = differ.HashContent(content)
			seeded++
		})
	}
	if seeded > 0 {
		t.logger.Info().Int("seeded", seeded).Msg("Seeded snapshots from storage")
	}
	return seeded
}

func (t *SourceTable) entry(url string) *sourceEntry {
	t.mapMutex.RLock()
	defer t.mapMutex.RUnlock()

	return t.entries[url]
}
