package datastore

import (
	"time"

	"github.com/aleister1102/pagewatch/internal/models"
)

// ArchivedChange is the parquet row stored for every change event.
// Timestamps are Unix milliseconds.
type ArchivedChange struct {
	EventID         string  `parquet:"event_id"`
	URL             string  `parquet:"url"`
	PreviousHash    string  `parquet:"previous_hash"`
	CurrentHash     string  `parquet:"current_hash"`
	Diff            string  `parquet:"diff"`
	DiffTruncated   bool    `parquet:"diff_truncated"`
	LinesAdded      int32   `parquet:"lines_added"`
	LinesRemoved    int32   `parquet:"lines_removed"`
	PreviousContent *string `parquet:"previous_content,optional"`
	CurrentContent  *string `parquet:"current_content,optional"`
	DetectedAt      int64   `parquet:"detected_at"`
}

func newArchivedChange(e models.ChangeEvent, withContent bool) ArchivedChange {
	row := ArchivedChange{
		EventID:       e.ID,
		URL:           e.URL,
		PreviousHash:  e.PreviousHash,
		CurrentHash:   e.CurrentHash,
		Diff:          e.Diff,
		DiffTruncated: e.DiffTruncated,
		LinesAdded:    int32(e.LinesAdded),
		LinesRemoved:  int32(e.LinesRemoved),
		DetectedAt:    e.DetectedAt.UnixMilli(),
	}
	if withContent {
		row.PreviousContent = stringPtrOrNil(e.PreviousContent)
		row.CurrentContent = stringPtrOrNil(e.CurrentContent)
	}
	return row
}

// ToChangeEvent converts the row back to a change event.
func (a ArchivedChange) ToChangeEvent() models.ChangeEvent {
	return models.ChangeEvent{
		ID:              a.EventID,
		URL:             a.URL,
		PreviousHash:    a.PreviousHash,
		CurrentHash:     a.CurrentHash,
		Diff:            a.Diff,
		DiffTruncated:   a.DiffTruncated,
		LinesAdded:      int(a.LinesAdded),
		LinesRemoved:    int(a.LinesRemoved),
		PreviousContent: stringFromPtr(a.PreviousContent),
		CurrentContent:  stringFromPtr(a.CurrentContent),
		DetectedAt:      time.UnixMilli(a.DetectedAt).UTC(),
	}
}

func stringPtrOrNil(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func stringFromPtr(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
