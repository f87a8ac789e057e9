package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/danielpatrickdp/witness-metrics/internal/render"
	"github.com/danielpatrickdp/witness-metrics/internal/store"
)

// #region main

var (
	dbPath  string
	last    int
	runID   string
	jsonOut bool
)

var rootCmd = &cobra.Command{
	Use:           "inspect",
	Short:         "Inspect the witness-metrics run history",
	Args:          cobra.NoArgs,
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		st, err := store.NewStore(dbPath)
		if err != nil {
			return err
		}
		defer st.Close()

		if runID != "" {
			return runDetailMode(st, runID, jsonOut)
		}
		return runListMode(st, last, jsonOut)
	},
}

func init() {
	rootCmd.Flags().StringVar(&dbPath, "db", "", "path to witness_metrics.db")
	rootCmd.Flags().IntVar(&last, "last", 20, "show N most recent runs")
	rootCmd.Flags().StringVar(&runID, "run", "", "show single run detail")
	rootCmd.Flags().BoolVar(&jsonOut, "json", false, "output as JSON instead of table")
	_ = rootCmd.MarkFlagRequired("db")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

// #endregion main

// #region list-mode

type listRow struct {
	RunID     string   `json:"run_id"`
	Label     string   `json:"label,omitempty"`
	Polarity  string   `json:"polarity"`
	Witnesses int      `json:"witnesses"`
	Optimal   *float64 `json:"optimal"`
	NumInS    int      `json:"num_in_s"`
	Diversity float64  `json:"diversity"`
	Source    string   `json:"source,omitempty"`
	Outcome   string   `json:"outcome,omitempty"`
	Reason    string   `json:"reason,omitempty"`
	CreatedAt string   `json:"created_at"`
}

func runListMode(st *store.Store, last int, jsonOut bool) error {
	runs, err := st.ListRunsWithLog(last)
	if err != nil {
		return err
	}
	if len(runs) == 0 {
		fmt.Fprintln(os.Stderr, "no runs found")
		return nil
	}

	// Store returns DESC, reverse for chronological
	rows := make([]listRow, len(runs))
	for i, r := range runs {
		rows[len(runs)-1-i] = listRow{
			RunID:     r.RunID,
			Label:     r.Label,
			Polarity:  r.Polarity,
			Witnesses: r.WitnessCount,
			Optimal:   r.Optimal,
			NumInS:    r.NumInS,
			Diversity: r.Diversity,
			Source:    r.Source,
			Outcome:   r.Outcome,
			Reason:    r.Reason,
			CreatedAt: r.CreatedAt.Format("2006-01-02T15:04:05Z"),
		}
	}

	if jsonOut {
		return render.JSON(os.Stdout, rows)
	}

	fmt.Printf("%-10s  %-16s  %-8s  %9s  %8s  %5s  %9s  %-8s  %-8s  %s\n",
		"Run", "Label", "Polarity", "Witnesses", "Optimal", "|S|", "Diversity", "Source", "Outcome", "Time")
	fmt.Printf("%-10s+-%-16s+-%-8s+-%9s+-%8s+-%5s+-%9s+-%-8s+-%-8s+-%s\n",
		"----------", "----------------", "--------", "---------", "--------", "-----", "---------", "--------", "--------", "--------------------")
	for _, r := range rows {
		fmt.Printf("%-10s  %-16s  %-8s  %9d  %8s  %5d  %9.4f  %-8s  %-8s  %s\n",
			render.ShortID(r.RunID), r.Label, r.Polarity, r.Witnesses, render.Opt(r.Optimal),
			r.NumInS, r.Diversity, r.Source, r.Outcome, r.CreatedAt)
	}
	return nil
}

// #endregion list-mode

// #region detail-mode

func runDetailMode(st *store.Store, id string, jsonOut bool) error {
	run, err := st.GetRun(id)
	if err != nil {
		return err
	}

	if jsonOut {
		return render.JSON(os.Stdout, struct {
			RunID     string `json:"run_id"`
			Label     string `json:"label,omitempty"`
			CreatedAt string `json:"created_at"`
			Settings  any    `json:"settings"`
			Witnesses int    `json:"witnesses"`
			Report    any    `json:"report"`
		}{
			RunID:     run.RunID,
			Label:     run.Label,
			CreatedAt: run.CreatedAt.Format("2006-01-02T15:04:05Z"),
			Settings:  run.Settings,
			Witnesses: len(run.Witnesses),
			Report:    run.Report,
		})
	}

	fmt.Printf("Run:        %s\n", run.RunID)
	if run.Label != "" {
		fmt.Printf("Label:      %s\n", run.Label)
	}
	fmt.Printf("Created:    %s\n", run.CreatedAt.Format("2006-01-02T15:04:05Z"))
	fmt.Printf("Settings:   polarity=%s K=%d m=%d\n",
		run.Settings.Polarity.Polarity, run.Settings.Selection.Levels, run.Settings.Selection.Coverage)
	fmt.Printf("Witnesses:  %d\n\n", len(run.Witnesses))
	render.Report(os.Stdout, run.Report)
	return nil
}

// #endregion detail-mode
