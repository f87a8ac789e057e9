package store

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/danielpatrickdp/witness-metrics/internal/logging"
	"github.com/danielpatrickdp/witness-metrics/internal/polarity"
)

// #region schema
const schema = `
CREATE TABLE IF NOT EXISTS runs (
	run_id         TEXT PRIMARY KEY,
	label          TEXT,
	polarity       TEXT NOT NULL,
	settings_json  TEXT NOT NULL,
	witness_count  INTEGER NOT NULL,
	available      INTEGER NOT NULL,
	optimal        REAL,
	num_in_s       INTEGER NOT NULL,
	diversity      REAL NOT NULL,
	witnesses_json TEXT NOT NULL,
	report_json    TEXT NOT NULL,
	created_at     TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS run_log (
	id          INTEGER PRIMARY KEY AUTOINCREMENT,
	run_id      TEXT NOT NULL,
	source      TEXT NOT NULL,
	polarity    TEXT,
	record_json TEXT,
	outcome     TEXT NOT NULL,
	reason      TEXT,
	created_at  TEXT NOT NULL,
	FOREIGN KEY (run_id) REFERENCES runs(run_id)
);
`
// #endregion schema

// #region store-struct
// Store keeps the run history in SQLite.
type Store struct {
	db *sql.DB
}
// #endregion store-struct

// #region constructor
// NewStore opens a SQLite database and runs migrations.
func NewStore(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("pragma: %w", err)
	}
	if _, err := db.Exec("PRAGMA foreign_keys=ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("pragma fk: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return &Store{db: db}, nil
}
// #endregion constructor

// #region close
// Close closes the underlying database connection.
func (s *Store) Close() error {
	return s.db.Close()
}
// #endregion close

// #region db-accessor
// DB returns the underlying *sql.DB for use by other packages (e.g. logging).
func (s *Store) DB() *sql.DB {
	return s.db
}
// #endregion db-accessor

// #region save-run
// SaveRun inserts a run. A missing RunID gets a fresh UUID and a zero
// CreatedAt is set to now. The stored run is returned.
func (s *Store) SaveRun(run Run) (Run, error) {
	return saveRun(s.db, run)
}

func saveRun(db logging.Execer, run Run) (Run, error) {
	if run.RunID == "" {
		run.RunID = uuid.New().String()
	}
	if run.CreatedAt.IsZero() {
		run.CreatedAt = time.Now().UTC()
	}

	settingsJSON, err := json.Marshal(run.Settings)
	if err != nil {
		return Run{}, fmt.Errorf("marshal settings: %w", err)
	}
	witnessesJSON, err := json.Marshal(run.Witnesses)
	if err != nil {
		return Run{}, fmt.Errorf("marshal witnesses: %w", err)
	}
	reportJSON, err := json.Marshal(run.Report)
	if err != nil {
		return Run{}, fmt.Errorf("marshal report: %w", err)
	}

	var optimal interface{}
	numInS := 0
	diversity := 0.0
	if run.Report.Available && run.Report.Global != nil {
		optimal = run.Report.Global.Optimal
		numInS = run.Report.Global.NumInS
		diversity = run.Report.Global.Diversity
	}

	_, err = db.Exec(
		`INSERT INTO runs (run_id, label, polarity, settings_json, witness_count, available, optimal,
		                   num_in_s, diversity, witnesses_json, report_json, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		run.RunID, nullIfEmpty(run.Label), string(polarity.Parse(run.Settings.Polarity.Polarity)),
		string(settingsJSON), len(run.Witnesses), run.Report.Available, optimal,
		numInS, diversity, string(witnessesJSON), string(reportJSON),
		run.CreatedAt.UTC().Format(logging.TimeLayout),
	)
	if err != nil {
		return Run{}, fmt.Errorf("insert run: %w", err)
	}
	return run, nil
}
// #endregion save-run

// #region record-run
// RecordRun saves a run and appends its provenance row to run_log in one
// transaction; on error neither row is kept.
func (s *Store) RecordRun(run Run, source string) (Run, error) {
	tx, err := s.db.Begin()
	if err != nil {
		return Run{}, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	saved, err := saveRun(tx, run)
	if err != nil {
		return Run{}, err
	}

	rec := summarize(saved)
	recJSON, err := json.Marshal(rec)
	if err != nil {
		return Run{}, fmt.Errorf("marshal run record: %w", err)
	}

	outcome, reason := "no_data", "no witnesses"
	if saved.Report.Available {
		outcome = "computed"
		reason = fmt.Sprintf("numInS=%d of %d", rec.NumInS, rec.Witnesses)
	}

	err = logging.LogRun(tx, logging.RunLogEntry{
		RunID:      saved.RunID,
		Source:     source,
		Polarity:   rec.Settings.Polarity,
		RecordJSON: string(recJSON),
		Outcome:    outcome,
		Reason:     reason,
		CreatedAt:  saved.CreatedAt,
	})
	if err != nil {
		return Run{}, err
	}
	if err := tx.Commit(); err != nil {
		return Run{}, fmt.Errorf("commit tx: %w", err)
	}
	return saved, nil
}

func summarize(run Run) logging.RunRecord {
	rec := logging.RunRecord{
		Label:     run.Label,
		Witnesses: len(run.Witnesses),
		Settings: logging.RunRecordSettings{
			Polarity: string(polarity.Parse(run.Settings.Polarity.Polarity)),
			Levels:   run.Settings.Selection.Levels,
			Coverage: run.Settings.Selection.Coverage,
		},
		Available:  run.Report.Available,
		HasSupport: run.Report.HasSupport,
		Atoms:      len(run.Report.Atoms),
	}
	if g := run.Report.Global; g != nil {
		optimal := g.Optimal
		rec.Optimal = &optimal
		rec.NumInS = g.NumInS
		rec.Diversity = g.Diversity
	}
	for _, name := range run.Report.AtomNames() {
		if run.Report.Atoms[name].CautiousS {
			rec.CautiousSet = append(rec.CautiousSet, name)
		}
	}
	return rec
}
// #endregion record-run

// #region get-run
// GetRun retrieves a run with its witnesses and full report.
func (s *Store) GetRun(id string) (Run, error) {
	var run Run
	var label sql.NullString
	var settingsJSON, witnessesJSON, reportJSON, createdStr string

	err := s.db.QueryRow(
		`SELECT run_id, label, settings_json, witnesses_json, report_json, created_at
		 FROM runs WHERE run_id = ?`, id,
	).Scan(&run.RunID, &label, &settingsJSON, &witnessesJSON, &reportJSON, &createdStr)
	if errors.Is(err, sql.ErrNoRows) {
		return Run{}, fmt.Errorf("get run %s: %w", id, ErrRunNotFound)
	}
	if err != nil {
		return Run{}, fmt.Errorf("get run %s: %w", id, err)
	}

	if label.Valid {
		run.Label = label.String
	}
	if err := json.Unmarshal([]byte(settingsJSON), &run.Settings); err != nil {
		return Run{}, fmt.Errorf("unmarshal settings: %w", err)
	}
	if err := json.Unmarshal([]byte(witnessesJSON), &run.Witnesses); err != nil {
		return Run{}, fmt.Errorf("unmarshal witnesses: %w", err)
	}
	if err := json.Unmarshal([]byte(reportJSON), &run.Report); err != nil {
		return Run{}, fmt.Errorf("unmarshal report: %w", err)
	}
	run.CreatedAt, _ = time.Parse(logging.TimeLayout, createdStr)
	return run, nil
}
// #endregion get-run

// #region list-runs
const summaryColumns = `r.run_id, r.label, r.polarity, r.witness_count, r.available, r.optimal,
	r.num_in_s, r.diversity, r.created_at`

// ListRuns returns the most recent run summaries, newest first.
func (s *Store) ListRuns(limit int) ([]RunSummary, error) {
	rows, err := s.db.Query(
		`SELECT `+summaryColumns+` FROM runs r ORDER BY r.created_at DESC, r.rowid DESC LIMIT ?`, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	defer rows.Close()

	var out []RunSummary
	for rows.Next() {
		sum, err := scanSummary(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, sum)
	}
	return out, rows.Err()
}

// ListRunsWithLog returns recent runs joined with their latest run_log row.
func (s *Store) ListRunsWithLog(limit int) ([]RunWithLog, error) {
	rows, err := s.db.Query(
		`SELECT `+summaryColumns+`, l.source, l.outcome, l.reason, l.record_json
		 FROM runs r
		 LEFT JOIN run_log l ON l.id = (SELECT MAX(id) FROM run_log WHERE run_id = r.run_id)
		 ORDER BY r.created_at DESC, r.rowid DESC LIMIT ?`, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("list runs with log: %w", err)
	}
	defer rows.Close()

	var out []RunWithLog
	for rows.Next() {
		var rw RunWithLog
		var label, source, outcome, reason, recordJSON sql.NullString
		var optimal sql.NullFloat64
		var createdStr string
		if err := rows.Scan(&rw.RunID, &label, &rw.Polarity, &rw.WitnessCount, &rw.Available, &optimal,
			&rw.NumInS, &rw.Diversity, &createdStr, &source, &outcome, &reason, &recordJSON); err != nil {
			return nil, fmt.Errorf("scan row: %w", err)
		}
		fillSummary(&rw.RunSummary, label, optimal, createdStr)
		rw.Source = source.String
		rw.Outcome = outcome.String
		rw.Reason = reason.String
		rw.RecordJSON = recordJSON.String
		out = append(out, rw)
	}
	return out, rows.Err()
}
// #endregion list-runs

// #region helpers
func scanSummary(rows *sql.Rows) (RunSummary, error) {
	var sum RunSummary
	var label sql.NullString
	var optimal sql.NullFloat64
	var createdStr string
	if err := rows.Scan(&sum.RunID, &label, &sum.Polarity, &sum.WitnessCount, &sum.Available, &optimal,
		&sum.NumInS, &sum.Diversity, &createdStr); err != nil {
		return RunSummary{}, fmt.Errorf("scan row: %w", err)
	}
	fillSummary(&sum, label, optimal, createdStr)
	return sum, nil
}

func fillSummary(sum *RunSummary, label sql.NullString, optimal sql.NullFloat64, createdStr string) {
	if label.Valid {
		sum.Label = label.String
	}
	if optimal.Valid {
		v := optimal.Float64
		sum.Optimal = &v
	}
	sum.CreatedAt, _ = time.Parse(logging.TimeLayout, createdStr)
}

func nullIfEmpty(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}
// #endregion helpers
