package monitor

import (
	"time"

	"github.com/aleister1102/pagewatch/internal/models"

	"github.com/rs/zerolog"
)

// Outcome classifies what happened to a source during a pass.
type Outcome string

const (
	OutcomeBaseline  Outcome = "baseline"  // first successful fetch, snapshot recorded
	OutcomeUnchanged Outcome = "unchanged" // content equal to the snapshot
	OutcomeChanged   Outcome = "changed"   // a ChangeEvent was emitted
	OutcomeFailed    Outcome = "failed"    // fetch or normalize failed
	OutcomeSkipped   Outcome = "skipped"   // not started because the run was stopped
)

// SourceStatus is the per-source line of a pass summary.
type SourceStatus struct {
	URL                 string             `json:"url"`
	Probe               bool               `json:"probe"`
	Outcome             Outcome            `json:"outcome"`
	State               models.HealthState `json:"state"`
	ConsecutiveFailures int                `json:"consecutive_failures"`
	Duration            time.Duration      `json:"duration"`
	Error               string             `json:"error,omitempty"`
}

// PassSummary reports one pass over the source set. It is advisory output only.
type PassSummary struct {
	Pass        int            `json:"pass"`
	PassID      string         `json:"pass_id"`
	StartedAt   time.Time      `json:"started_at"`
	Elapsed     time.Duration  `json:"elapsed"`
	Checked     int            `json:"checked"`
	Changed     int            `json:"changed"`
	Failed      int            `json:"failed"`
	Probed      int            `json:"probed"`
	Recovered   int            `json:"recovered"`
	Disabled    int            `json:"disabled"`
	Skipped     int            `json:"skipped"`
	Interrupted bool           `json:"interrupted"`
	Sources     []SourceStatus `json:"sources"`
	Resources   ResourceUsage  `json:"resources"`
}

func (s *PassSummary) add(status SourceStatus, recovered bool) {
	s.Sources = append(s.Sources, status)

	switch status.Outcome {
	case OutcomeSkipped:
		s.Skipped++
		return
	case OutcomeChanged:
		s.Changed++
	case OutcomeFailed:
		s.Failed++
	}
	if status.Probe {
		s.Probed++
	} else {
		s.Checked++
	}
	if recovered {
		s.Recovered++
	}
}

// Log writes the summary at info level and each source at debug level.
func (s PassSummary) Log(logger zerolog.Logger) {
	logger.Info().
		Int("pass", s.Pass).
		Dur("elapsed", s.Elapsed).
		Int("checked", s.Checked).
		Int("changed", s.Changed).
		Int("failed", s.Failed).
		Int("probed", s.Probed).
		Int("recovered", s.Recovered).
		Int("disabled", s.Disabled).
		Int("skipped", s.Skipped).
		Int64("rss_mb", s.Resources.RSSMB).
		Bool("interrupted", s.Interrupted).
		Msg("Pass completed")

	for _, src := range s.Sources {
		logger.Debug().
			Int("pass", s.Pass).
			Str("url", src.URL).
			Bool("probe", src.Probe).
			Str("outcome", string(src.Outcome)).
			Str("state", string(src.State)).
			Int("consecutive_failures", src.ConsecutiveFailures).
			Dur("duration", src.Duration).
			Str("error", src.Error).
			Msg("Source status")
	}
}
