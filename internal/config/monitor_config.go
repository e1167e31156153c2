package config

import "time"

// MonitorConfig defines the poll loop settings
type MonitorConfig struct {
	TargetURLs           []string `json:"target_urls,omitempty" yaml:"target_urls,omitempty"`
	TargetsFile          string   `json:"targets_file,omitempty" yaml:"targets_file,omitempty" validate:"omitempty,fileexists"`
	CheckIntervalSeconds float64  `json:"check_interval_seconds,omitempty" yaml:"check_interval_seconds,omitempty" validate:"gte=0"`
	MaxConcurrentChecks  int      `json:"max_concurrent_checks,omitempty" yaml:"max_concurrent_checks,omitempty" validate:"omitempty,min=1,max=64"`
	FetchTimeoutSeconds  int      `json:"fetch_timeout_seconds,omitempty" yaml:"fetch_timeout_seconds,omitempty" validate:"omitempty,min=1"`
	MaxPasses            int      `json:"max_passes,omitempty" yaml:"max_passes,omitempty" validate:"gte=0"` // 0 means run until stopped
	BypassCache          bool     `json:"bypass_cache" yaml:"bypass_cache"`
}

// NewDefaultMonitorConfig creates default monitor configuration
func NewDefaultMonitorConfig() MonitorConfig {
	return MonitorConfig{
		TargetURLs:           []string{},
		CheckIntervalSeconds: DefaultCheckIntervalSeconds,
		MaxConcurrentChecks:  DefaultMaxConcurrentChecks,
		FetchTimeoutSeconds:  DefaultFetchTimeoutSeconds,
		MaxPasses:            0,
		BypassCache:          true,
	}
}

// CheckInterval is the pause between two passes.
func (c MonitorConfig) CheckInterval() time.Duration {
	return time.Duration(c.CheckIntervalSeconds * float64(time.Second))
}

// FetchTimeout bounds one fetch including its retries.
func (c MonitorConfig) FetchTimeout() time.Duration {
	return time.Duration(c.FetchTimeoutSeconds) * time.Second
}

// HealthConfig defines the failure and backoff policy for sources
type HealthConfig struct {
	MaxConsecutiveFailures int `json:"max_consecutive_failures,omitempty" yaml:"max_consecutive_failures,omitempty" validate:"omitempty,min=1"`
	InitialBackoffSeconds  int `json:"initial_backoff_seconds,omitempty" yaml:"initial_backoff_seconds,omitempty" validate:"omitempty,min=1"`
	MaxBackoffSeconds      int `json:"max_backoff_seconds,omitempty" yaml:"max_backoff_seconds,omitempty" validate:"omitempty,min=1,gtefield=InitialBackoffSeconds"`
}

// NewDefaultHealthConfig creates default health configuration
func NewDefaultHealthConfig() HealthConfig {
	return HealthConfig{
		MaxConsecutiveFailures: DefaultMaxConsecutiveFailures,
		InitialBackoffSeconds:  DefaultInitialBackoffSeconds,
		MaxBackoffSeconds:      DefaultMaxBackoffSeconds,
	}
}

// DiffConfig defines how change diffs are rendered
type DiffConfig struct {
	ContextLines int `json:"context_lines" yaml:"context_lines" validate:"gte=0"`
	MaxDiffChars int `json:"max_diff_chars,omitempty" yaml:"max_diff_chars,omitempty" validate:"gte=0"`
}

// NewDefaultDiffConfig creates default diff configuration
func NewDefaultDiffConfig() DiffConfig {
	return DiffConfig{
		ContextLines: DefaultContextLines,
		MaxDiffChars: DefaultMaxDiffChars,
	}
}
