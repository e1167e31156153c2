package models

import "time"

// ChangeEvent describes a textual change detected between two successive snapshots of a source.
type ChangeEvent struct {
	ID              string    `json:"id"`
	URL             string    `json:"url"`
	PreviousContent string    `json:"previous_content"`
	CurrentContent  string    `json:"current_content"`
	PreviousHash    string    `json:"previous_hash"`
	CurrentHash     string    `json:"current_hash"`
	Diff            string    `json:"diff"`
	DiffTruncated   bool      `json:"diff_truncated"`
	LinesAdded      int       `json:"lines_added"`
	LinesRemoved    int       `json:"lines_removed"`
	DetectedAt      time.Time `json:"detected_at"`
}

// HealthEvent is emitted whenever a source moves between health states.
type HealthEvent struct {
	URL                 string        `json:"url"`
	From                HealthState   `json:"from"`
	To                  HealthState   `json:"to"`
	ConsecutiveFailures int           `json:"consecutive_failures"`
	BackoffDelay        time.Duration `json:"backoff_delay"`
	BackoffUntil        time.Time     `json:"backoff_until,omitempty"`
	Error               string        `json:"error,omitempty"`
	OccurredAt          time.Time     `json:"occurred_at"`
}

// Recovered reports whether the event re-enables a previously disabled source.
func (e HealthEvent) Recovered() bool {
	return e.From == HealthDisabled && e.To == HealthActive
}

// Disabled reports whether the event disables a source or extends its backoff.
func (e HealthEvent) Disabled() bool {
	return e.To == HealthDisabled
}
