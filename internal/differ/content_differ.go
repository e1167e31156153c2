package differ

import (
	"crypto/sha256"
	"encoding/hex"
	"time"

	"github.com/aleister1102/pagewatch/internal/models"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// ContentDiffer decides whether a snapshot changed and renders the change.
type ContentDiffer struct {
	processor *DiffProcessor
	config    DiffConfig
	logger    zerolog.Logger
}

// ContentDifferBuilder provides a fluent interface for creating ContentDiffer
type ContentDifferBuilder struct {
	config DiffConfig
	logger zerolog.Logger
}

// NewContentDifferBuilder creates a new builder
func NewContentDifferBuilder(logger zerolog.Logger) *ContentDifferBuilder {
	return &ContentDifferBuilder{
		config: DefaultDiffConfig(),
		logger: logger,
	}
}

// WithDiffConfig sets the diff configuration
func (b *ContentDifferBuilder) WithDiffConfig(cfg DiffConfig) *ContentDifferBuilder {
	b.config = cfg
	return b
}

// Build creates a new ContentDiffer instance
func (b *ContentDifferBuilder) Build() *ContentDiffer {
	cfg := b.config
	if cfg.ContextLines < 0 {
		cfg.ContextLines = 0
	}
	return &ContentDiffer{
		processor: NewDiffProcessor(),
		config:    cfg,
		logger:    b.logger.With().Str("component", "ContentDiffer").Logger(),
	}
}

// Detect compares the previous snapshot of url with the current text.
// It returns nil on the first observation (empty previous) and when both texts are equal.
// Equality is decided on the full text; hashes are recorded on the event only.
func (cd *ContentDiffer) Detect(url, previous, current string, at time.Time) *models.ChangeEvent {
	if previous == "" || previous == current {
		return nil
	}

	ops := cd.processor.LineOps(previous, current)
	rendered, added, removed := renderUnified(ops, cd.config.ContextLines)
	diff, truncated := truncateDiff(rendered, cd.config.MaxDiffChars)

	event := &models.ChangeEvent{
		ID:              uuid.NewString(),
		URL:             url,
		PreviousContent: previous,
		CurrentContent:  current,
		PreviousHash:    HashContent(previous),
		CurrentHash:     HashContent(current),
		Diff:            diff,
		DiffTruncated:   truncated,
		LinesAdded:      added,
		LinesRemoved:    removed,
		DetectedAt:      at,
	}

	cd.logger.Debug().
		Str("url", url).
		Int("lines_added", added).
		Int("lines_removed", removed).
		Bool("diff_truncated", truncated).
		Msg("Content change detected")

	return event
}

// HashContent returns the hex SHA-256 digest of text.
func HashContent(text string) string {
	sum := sha256.Sum256([]byte(text))
	return hex.EncodeToString(sum[:])
}
