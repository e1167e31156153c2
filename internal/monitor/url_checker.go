package monitor

import (
	"context"
	"time"

	"github.com/aleister1102/pagewatch/internal/differ"
	"github.com/aleister1102/pagewatch/internal/models"
	"github.com/aleister1102/pagewatch/internal/normalizer"

	"github.com/rs/zerolog"
)

// CheckResult is the outcome of one fetch, normalize and detect run for a source.
type CheckResult struct {
	URL       string
	Content   string // normalized text, empty on failure
	Event     *models.ChangeEvent
	Err       error
	CheckedAt time.Time
	Duration  time.Duration
}

// Succeeded reports whether the source produced a usable snapshot.
func (r CheckResult) Succeeded() bool {
	return r.Err == nil
}

// URLChecker runs the check pipeline for a single source.
// The main pass and the health probe pass both go through Check.
type URLChecker struct {
	logger     zerolog.Logger
	fetcher    Fetcher
	normalizer *normalizer.Normalizer
	differ     *differ.ContentDiffer
	now        func() time.Time
}

// NewURLChecker creates a new URLChecker.
func NewURLChecker(
	logger zerolog.Logger,
	fetcher Fetcher,
	normalizer *normalizer.Normalizer,
	contentDiffer *differ.ContentDiffer,
) *URLChecker {
	return &URLChecker{
		logger:     logger.With().Str("component", "URLChecker").Logger(),
		fetcher:    fetcher,
		normalizer: normalizer,
		differ:     contentDiffer,
		now:        time.Now,
	}
}

// Check fetches url, decodes and normalizes the body and compares it with previous.
// It never mutates source state; the caller applies the result.
func (uc *URLChecker) Check(ctx context.Context, url, previous string) CheckResult {
	start := uc.now()
	result := CheckResult{URL: url}

	page, err := uc.fetcher.Fetch(ctx, url)
	if err == nil {
		result.Content, err = uc.normalizer.NormalizeContent(page.Body, page.ContentType)
		if err != nil {
			uc.logger.Warn().Err(err).Str("url", url).Msg("Failed to normalize content")
		}
	}

	result.CheckedAt = uc.now()
	result.Duration = result.CheckedAt.Sub(start)
	if err != nil {
		result.Content = ""
		result.Err = err
		return result
	}

	result.Event = uc.differ.Detect(url, previous, result.Content, result.CheckedAt)
	return result
}
