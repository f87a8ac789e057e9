package logging

import (
	"fmt"
	"time"
)

// #region log-run
// LogRun writes a provenance entry to the run_log table. Pass a *sql.Tx to
// make the entry part of a larger write.
func LogRun(db Execer, entry RunLogEntry) error {
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now().UTC()
	}

	_, err := db.Exec(
		`INSERT INTO run_log (run_id, source, polarity, record_json, outcome, reason, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		entry.RunID,
		entry.Source,
		nullIfEmpty(entry.Polarity),
		nullIfEmpty(entry.RecordJSON),
		entry.Outcome,
		nullIfEmpty(entry.Reason),
		entry.CreatedAt.UTC().Format(TimeLayout),
	)
	if err != nil {
		return fmt.Errorf("log run: %w", err)
	}
	return nil
}
// #endregion log-run

// #region helpers
func nullIfEmpty(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}
// #endregion helpers
