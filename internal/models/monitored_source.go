package models

import "time"

// HealthState is the health classification of a monitored source.
type HealthState string

const (
	// HealthActive means the last fetch succeeded.
	HealthActive HealthState = "active"
	// HealthDegraded means at least one recent fetch failed but the source is still polled.
	HealthDegraded HealthState = "degraded"
	// HealthDisabled means the source is skipped by the main pass and only probed after its backoff.
	HealthDisabled HealthState = "disabled"
)

// SourceHealth is the per-source health record driven by the health tracker.
type SourceHealth struct {
	State               HealthState   `json:"state"`
	ConsecutiveFailures int           `json:"consecutive_failures"`
	BackoffDelay        time.Duration `json:"backoff_delay"`
	BackoffUntil        time.Time     `json:"backoff_until,omitempty"`
	LastError           string        `json:"last_error,omitempty"`
}

// Enabled reports whether the source takes part in the main poll pass.
func (h SourceHealth) Enabled() bool {
	return h.State != HealthDisabled
}

// MonitoredSource is the state kept for one monitored URL for the lifetime of the process.
type MonitoredSource struct {
	URL           string       `json:"url"`
	Snapshot      string       `json:"-"`
	SnapshotHash  string       `json:"snapshot_hash,omitempty"`
	LastSuccessAt time.Time    `json:"last_success_at,omitempty"`
	LastCheckedAt time.Time    `json:"last_checked_at,omitempty"`
	Health        SourceHealth `json:"health"`
}

// NewMonitoredSource creates an active source with no snapshot.
func NewMonitoredSource(url string, initialBackoff time.Duration) MonitoredSource {
	return MonitoredSource{
		URL: url,
		Health: SourceHealth{
			State:        HealthActive,
			BackoffDelay: initialBackoff,
		},
	}
}

// HasSnapshot reports whether the source was ever fetched successfully.
func (s MonitoredSource) HasSnapshot() bool {
	return s.Snapshot != ""
}
