package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/danielpatrickdp/witness-metrics/internal/metrics"
	"github.com/danielpatrickdp/witness-metrics/internal/render"
	"github.com/danielpatrickdp/witness-metrics/internal/replay"
	"github.com/danielpatrickdp/witness-metrics/internal/store"
)

// #region main

// exitError carries a process exit code through cobra.
type exitError struct{ code int }

func (e exitError) Error() string { return fmt.Sprintf("exit %d", e.code) }

var (
	fixturePath string
	dbPath      string
	lastRuns    int
)

var rootCmd = &cobra.Command{
	Use:   "replay",
	Short: "Replay witness fixtures or stored runs and compare against expectations",
	Long: `replay --fixture path/to/fixture.json
replay --db path/to/witness_metrics.db [--last N]

Exit status is 0 when everything matches, 1 on divergence and 2 on usage or
load errors.`,
	Args:          cobra.NoArgs,
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		if (dbPath == "") == (fixturePath == "") {
			return fmt.Errorf("exactly one of --fixture or --db is required")
		}
		var code int
		if fixturePath != "" {
			code = runFixtureMode(fixturePath)
		} else {
			code = runDBMode(dbPath, lastRuns)
		}
		if code != 0 {
			return exitError{code: code}
		}
		return nil
	},
}

func init() {
	rootCmd.Flags().StringVar(&fixturePath, "fixture", "", "path to fixture JSON (fixture mode)")
	rootCmd.Flags().StringVar(&dbPath, "db", "", "path to run history database (DB mode)")
	rootCmd.Flags().IntVar(&lastRuns, "last", 50, "number of stored runs to recompute in DB mode")
}

func main() {
	err := rootCmd.Execute()
	var ee exitError
	switch {
	case err == nil:
	case errors.As(err, &ee):
		os.Exit(ee.code)
	default:
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(2)
	}
}

// #endregion main

// #region fixture-mode

func runFixtureMode(path string) int {
	f, err := replay.LoadFixture(path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "load fixture: %v\n", err)
		return 2
	}
	if f.Description != "" {
		fmt.Printf("%s\n\n", f.Description)
	}
	return printComparison(replay.Replay(f))
}

// #endregion fixture-mode

// #region db-mode

// runDBMode recomputes stored runs with their saved settings and compares
// each fresh report with the stored one.
func runDBMode(path string, last int) int {
	st, err := store.NewStore(path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "open db: %v\n", err)
		return 2
	}
	defer st.Close()

	summaries, err := st.ListRuns(last)
	if err != nil {
		fmt.Fprintf(os.Stderr, "list runs: %v\n", err)
		return 2
	}
	if len(summaries) == 0 {
		fmt.Fprintln(os.Stderr, "no runs found")
		return 2
	}

	results := make([]replay.CaseResult, 0, len(summaries))
	for _, sum := range summaries {
		run, err := st.GetRun(sum.RunID)
		if err != nil {
			fmt.Fprintf(os.Stderr, "get run: %v\n", err)
			return 2
		}
		exp, err := replay.ExpectedFromReport(run.Report)
		if err != nil {
			fmt.Fprintf(os.Stderr, "run %s: %v\n", run.RunID, err)
			return 2
		}
		report := metrics.NewEngine(run.Settings).Compute(run.Witnesses)
		results = append(results, replay.CaseResult{
			Name:   render.ShortID(run.RunID),
			Report: report,
			Checks: replay.Compare(exp, report),
		})
	}
	return printComparison(results)
}

// #endregion db-mode

// #region output

// printComparison outputs one row per diverging field plus a per-case
// status line and returns the exit code.
func printComparison(results []replay.CaseResult) int {
	fmt.Printf("%-24s| %-28s| %-14s| %-14s| %s\n", "Case", "Field", "Expected", "Replayed", "Match")
	fmt.Printf("%-24s+%-29s+%-15s+%-15s+%s\n",
		"------------------------", "-----------------------------", "---------------", "---------------", "------")

	for _, r := range results {
		if r.Passed() {
			fmt.Printf("%-24s| %-28s| %-14s| %-14s| %s\n", r.Name, fmt.Sprintf("(%d fields)", len(r.Checks)), "", "", "OK")
			continue
		}
		for _, c := range r.Checks {
			if c.OK {
				continue
			}
			fmt.Printf("%-24s| %-28s| %-14s| %-14s| %s\n", r.Name, c.Field, c.Expected, c.Actual, "DIFF")
		}
	}

	sum := replay.Summarize(results)
	fmt.Printf("\nSummary: %d cases (%d pass), %d fields, %d match, %d diverge\n",
		sum.Cases, sum.PassedCases, sum.Checks, sum.Matches, sum.Diffs)

	if sum.Diffs > 0 {
		return 1
	}
	return 0
}

// #endregion output
