package logging

import (
	"database/sql"
	"time"
)

// TimeLayout is the fixed-width UTC timestamp written to the database so
// that text ordering matches time ordering.
const TimeLayout = "2006-01-02T15:04:05.000000000Z07:00"

// Execer is satisfied by *sql.DB and *sql.Tx.
type Execer interface {
	Exec(query string, args ...any) (sql.Result, error)
}

// #region run-log-entry
// RunLogEntry is a single row in the run_log table.
type RunLogEntry struct {
	RunID      string
	Source     string // "cli" | "grpc" | "replay"
	Polarity   string
	RecordJSON string
	Outcome    string // "computed" | "no_data"
	Reason     string
	CreatedAt  time.Time
}
// #endregion run-log-entry

// #region run-record
// RunRecord captures the inputs and headline outputs of one computation.
// Serialized as JSON into run_log.record_json so a run can be audited
// without reloading the full report.
type RunRecord struct {
	Label     string `json:"label,omitempty"`
	Witnesses int    `json:"witnesses"`

	// Engine settings active at computation time
	Settings RunRecordSettings `json:"settings"`

	// Headline outputs
	Available   bool     `json:"available"`
	Optimal     *float64 `json:"optimal,omitempty"`
	NumInS      int      `json:"num_in_s"`
	Diversity   float64  `json:"diversity"`
	Atoms       int      `json:"atoms"`
	HasSupport  bool     `json:"has_support"`
	CautiousSet []string `json:"cautious,omitempty"`
}

// RunRecordSettings captures the engine configuration of a run.
type RunRecordSettings struct {
	Polarity string `json:"polarity"`
	Levels   int    `json:"levels"`
	Coverage int    `json:"coverage"`
}
// #endregion run-record
