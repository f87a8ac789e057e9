package store

import (
	"errors"
	"time"

	"github.com/danielpatrickdp/witness-metrics/internal/metrics"
	"github.com/danielpatrickdp/witness-metrics/internal/witness"
)

// ErrRunNotFound is returned when a run id has no row.
var ErrRunNotFound = errors.New("run not found")

// #region run
// Run is one persisted metrics computation: the witnesses it was fed and the
// report the engine produced.
type Run struct {
	RunID     string
	Label     string
	Settings  metrics.Config
	Witnesses []witness.Witness
	Report    metrics.Report
	CreatedAt time.Time
}

// #endregion run

// #region run-summary
// RunSummary is the list view of a run, read from the summary columns
// without decoding the full report.
type RunSummary struct {
	RunID        string
	Label        string
	Polarity     string
	WitnessCount int
	Available    bool
	Optimal      *float64
	NumInS       int
	Diversity    float64
	CreatedAt    time.Time
}

// RunWithLog pairs a run summary with its latest run_log row fields.
type RunWithLog struct {
	RunSummary
	Source     string
	Outcome    string
	Reason     string
	RecordJSON string
}

// #endregion run-summary
