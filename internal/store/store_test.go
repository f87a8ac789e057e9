package store

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/danielpatrickdp/witness-metrics/internal/logging"
	"github.com/danielpatrickdp/witness-metrics/internal/metrics"
	"github.com/danielpatrickdp/witness-metrics/internal/witness"
)

func tempDB(t *testing.T) *Store {
	t.Helper()
	dir := t.TempDir()
	s, err := NewStore(filepath.Join(dir, "test.db"))
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func computedRun(label string, ws ...witness.Witness) Run {
	cfg := metrics.DefaultConfig()
	return Run{
		Label:     label,
		Settings:  cfg,
		Witnesses: ws,
		Report:    metrics.NewEngine(cfg).Compute(ws),
	}
}

func TestSaveAndGetRun(t *testing.T) {
	s := tempDB(t)
	run := computedRun("first",
		witness.Scored(10, "a"),
		witness.Scored(10, "a", "b"),
		witness.Scored(15, "c"),
		witness.Scored(20, "c"),
	)

	saved, err := s.SaveRun(run)
	if err != nil {
		t.Fatalf("SaveRun: %v", err)
	}
	if saved.RunID == "" {
		t.Fatal("expected a generated run id")
	}
	if saved.CreatedAt.IsZero() {
		t.Fatal("expected CreatedAt to be filled")
	}

	got, err := s.GetRun(saved.RunID)
	if err != nil {
		t.Fatalf("GetRun: %v", err)
	}
	if got.Label != "first" || len(got.Witnesses) != 4 {
		t.Fatalf("unexpected run: label=%q witnesses=%d", got.Label, len(got.Witnesses))
	}
	if !got.Report.Available || got.Report.Global.NumInS != 3 {
		t.Fatalf("report did not round-trip: %+v", got.Report.Global)
	}
	if got.Report.Atoms["a"].BestWith == nil || *got.Report.Atoms["a"].BestWith != 10 {
		t.Fatalf("atom metrics did not round-trip: %+v", got.Report.Atoms["a"])
	}
	if got.Report.Atoms["a"].Penalty == nil {
		t.Fatal("penalty(a) should be defined")
	}
	if got.Settings.Selection.Coverage != 3 {
		t.Fatalf("settings did not round-trip: %+v", got.Settings)
	}
}

func TestSaveNoDataRun(t *testing.T) {
	s := tempDB(t)
	saved, err := s.SaveRun(computedRun("empty"))
	if err != nil {
		t.Fatalf("SaveRun: %v", err)
	}

	got, err := s.GetRun(saved.RunID)
	if err != nil {
		t.Fatalf("GetRun: %v", err)
	}
	if got.Report.Available {
		t.Fatal("expected unavailable report")
	}

	runs, err := s.ListRuns(10)
	if err != nil {
		t.Fatalf("ListRuns: %v", err)
	}
	if len(runs) != 1 || runs[0].Optimal != nil || runs[0].Available {
		t.Fatalf("no-data summary should have no optimal: %+v", runs)
	}
}

func TestGetRunNotFound(t *testing.T) {
	s := tempDB(t)
	_, err := s.GetRun("nonexistent-id")
	if !errors.Is(err, ErrRunNotFound) {
		t.Fatalf("expected ErrRunNotFound, got %v", err)
	}
}

func TestSaveRunDuplicateID(t *testing.T) {
	s := tempDB(t)
	run := computedRun("dup", witness.Scored(1))
	run.RunID = "fixed-id"
	if _, err := s.SaveRun(run); err != nil {
		t.Fatalf("SaveRun: %v", err)
	}
	if _, err := s.SaveRun(run); err == nil {
		t.Fatal("expected error for duplicate run id")
	}
}

func TestListRunsNewestFirst(t *testing.T) {
	s := tempDB(t)
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	for i, label := range []string{"one", "two", "three"} {
		run := computedRun(label, witness.Scored(float64(i+1), "a"))
		run.CreatedAt = base.Add(time.Duration(i) * time.Minute)
		if _, err := s.SaveRun(run); err != nil {
			t.Fatalf("SaveRun %s: %v", label, err)
		}
	}

	runs, err := s.ListRuns(2)
	if err != nil {
		t.Fatalf("ListRuns: %v", err)
	}
	if len(runs) != 2 {
		t.Fatalf("expected 2 runs, got %d", len(runs))
	}
	if runs[0].Label != "three" || runs[1].Label != "two" {
		t.Fatalf("unexpected order: %s, %s", runs[0].Label, runs[1].Label)
	}
	if runs[0].Optimal == nil || *runs[0].Optimal != 3 {
		t.Fatalf("optimal summary = %v", runs[0].Optimal)
	}
	if runs[0].Polarity != "cost" || runs[0].WitnessCount != 1 {
		t.Fatalf("unexpected summary: %+v", runs[0])
	}
}

func TestRecordRunWritesLog(t *testing.T) {
	s := tempDB(t)
	run := computedRun("logged",
		witness.Scored(1, "a", "b"),
		witness.Scored(2, "a"),
	)

	saved, err := s.RecordRun(run, "cli")
	if err != nil {
		t.Fatalf("RecordRun: %v", err)
	}

	withLog, err := s.ListRunsWithLog(5)
	if err != nil {
		t.Fatalf("ListRunsWithLog: %v", err)
	}
	if len(withLog) != 1 {
		t.Fatalf("expected 1 row, got %d", len(withLog))
	}
	rw := withLog[0]
	if rw.RunID != saved.RunID || rw.Source != "cli" || rw.Outcome != "computed" {
		t.Fatalf("unexpected log join: %+v", rw)
	}

	var rec logging.RunRecord
	if err := json.Unmarshal([]byte(rw.RecordJSON), &rec); err != nil {
		t.Fatalf("unmarshal record: %v", err)
	}
	if rec.Witnesses != 2 || rec.NumInS != 2 || rec.Settings.Polarity != "cost" {
		t.Fatalf("unexpected record: %+v", rec)
	}
	if len(rec.CautiousSet) != 1 || rec.CautiousSet[0] != "a" {
		t.Fatalf("cautious set = %v, want [a]", rec.CautiousSet)
	}
}

func TestRecordRunNoData(t *testing.T) {
	s := tempDB(t)
	if _, err := s.RecordRun(computedRun("none"), "grpc"); err != nil {
		t.Fatalf("RecordRun: %v", err)
	}
	withLog, err := s.ListRunsWithLog(5)
	if err != nil {
		t.Fatalf("ListRunsWithLog: %v", err)
	}
	if withLog[0].Outcome != "no_data" {
		t.Fatalf("outcome = %q, want no_data", withLog[0].Outcome)
	}
}

func TestListRunsWithLogWithoutLogRow(t *testing.T) {
	s := tempDB(t)
	if _, err := s.SaveRun(computedRun("bare", witness.Scored(1))); err != nil {
		t.Fatalf("SaveRun: %v", err)
	}
	withLog, err := s.ListRunsWithLog(5)
	if err != nil {
		t.Fatalf("ListRunsWithLog: %v", err)
	}
	if len(withLog) != 1 || withLog[0].Outcome != "" {
		t.Fatalf("expected empty log fields: %+v", withLog)
	}
}

func TestNewStoreInvalidPath(t *testing.T) {
	_, err := NewStore(filepath.Join(string(os.PathSeparator), "nonexistent", "deep", "path", "test.db"))
	if err == nil {
		t.Fatal("expected error for invalid path")
	}
}

func TestDBAccessor(t *testing.T) {
	s := tempDB(t)
	if s.DB() == nil {
		t.Fatal("expected non-nil *sql.DB")
	}
}

func TestListRunsSubSecondOrder(t *testing.T) {
	s := tempDB(t)
	base := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	older := computedRun("older", witness.Scored(1))
	older.CreatedAt = base
	newer := computedRun("newer", witness.Scored(1))
	newer.CreatedAt = base.Add(500 * time.Millisecond)
	for _, run := range []Run{older, newer} {
		if _, err := s.SaveRun(run); err != nil {
			t.Fatalf("SaveRun %s: %v", run.Label, err)
		}
	}

	runs, err := s.ListRuns(10)
	if err != nil {
		t.Fatalf("ListRuns: %v", err)
	}
	if runs[0].Label != "newer" || runs[1].Label != "older" {
		t.Fatalf("unexpected order: %s, %s", runs[0].Label, runs[1].Label)
	}
	if !runs[0].CreatedAt.Equal(newer.CreatedAt) {
		t.Fatalf("created_at = %v, want %v", runs[0].CreatedAt, newer.CreatedAt)
	}

	withLog, err := s.ListRunsWithLog(10)
	if err != nil {
		t.Fatalf("ListRunsWithLog: %v", err)
	}
	if withLog[0].Label != "newer" {
		t.Fatalf("unexpected order with log: %s", withLog[0].Label)
	}
}

func TestRecordRunRollsBackOnLogFailure(t *testing.T) {
	s := tempDB(t)
	if _, err := s.DB().Exec("DROP TABLE run_log"); err != nil {
		t.Fatalf("drop run_log: %v", err)
	}

	run := computedRun("atomic", witness.Scored(1, "a"))
	run.RunID = "atomic-run"
	if _, err := s.RecordRun(run, "cli"); err == nil {
		t.Fatal("expected error when run_log is unavailable")
	}

	if _, err := s.GetRun("atomic-run"); !errors.Is(err, ErrRunNotFound) {
		t.Fatalf("run should not persist after failed log insert, got %v", err)
	}
	runs, err := s.ListRuns(10)
	if err != nil {
		t.Fatalf("ListRuns: %v", err)
	}
	if len(runs) != 0 {
		t.Fatalf("expected no runs, got %d", len(runs))
	}
}
