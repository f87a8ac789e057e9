package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/danielpatrickdp/witness-metrics/internal/metrics"
	"github.com/danielpatrickdp/witness-metrics/internal/render"
	"github.com/danielpatrickdp/witness-metrics/internal/store"
	"github.com/danielpatrickdp/witness-metrics/internal/witness"
)

// #region compute

var (
	computePolarity string
	computeLevels   int
	computeCoverage int
	computeJSON     bool
	computeSave     bool
	computeDB       string
	computeLabel    string
)

var computeCmd = &cobra.Command{
	Use:   "compute FILE",
	Short: "Compute metrics for a JSON or YAML witness file",
	Args:  cobra.ExactArgs(1),
	RunE:  runCompute,
}

func init() {
	addEngineFlags(computeCmd, &computePolarity, &computeLevels, &computeCoverage)
	computeCmd.Flags().BoolVar(&computeJSON, "json", false, "output as JSON instead of table")
	computeCmd.Flags().BoolVar(&computeSave, "save", false, "record the run in the history database")
	computeCmd.Flags().StringVar(&computeDB, "db", "", "history database path (default from config)")
	computeCmd.Flags().StringVar(&computeLabel, "label", "", "label stored with the run")
}

func runCompute(cmd *cobra.Command, args []string) error {
	witnesses, err := witness.LoadFile(args[0])
	if err != nil {
		return err
	}

	engineCfg := engineConfig(cmd, computePolarity, computeLevels, computeCoverage)
	report := metrics.NewEngine(engineCfg, metrics.WithLogger(logger)).Compute(witnesses)

	if computeSave {
		if err := saveRun(engineCfg, witnesses, report); err != nil {
			return err
		}
	}

	if computeJSON {
		return render.JSON(os.Stdout, report)
	}
	render.Report(os.Stdout, report)
	return nil
}

func saveRun(engineCfg metrics.Config, witnesses []witness.Witness, report metrics.Report) error {
	path := cfg.Store.Path
	if computeDB != "" {
		path = computeDB
	}
	st, err := store.NewStore(path)
	if err != nil {
		return err
	}
	defer st.Close()

	run, err := st.RecordRun(store.Run{
		Label:     computeLabel,
		Settings:  engineCfg,
		Witnesses: witnesses,
		Report:    report,
	}, "cli")
	if err != nil {
		return fmt.Errorf("save run: %w", err)
	}
	logger.Info("run saved", zap.String("run_id", run.RunID), zap.String("db", path))
	return nil
}

// #endregion compute

// #region engine-flags

func addEngineFlags(cmd *cobra.Command, pol *string, levels, coverage *int) {
	cmd.Flags().StringVar(pol, "polarity", "", "cost or strength (default from config)")
	cmd.Flags().IntVar(levels, "levels", 0, "score levels admitted up front, K (default from config)")
	cmd.Flags().IntVar(coverage, "coverage", 0, "minimum models in S, m (default from config)")
}

// engineConfig applies flags that were set on top of the loaded config.
func engineConfig(cmd *cobra.Command, pol string, levels, coverage int) metrics.Config {
	ec := cfg.EngineConfig()
	if cmd.Flags().Changed("polarity") {
		ec.Polarity.Polarity = pol
	}
	if cmd.Flags().Changed("levels") {
		ec.Selection.Levels = levels
	}
	if cmd.Flags().Changed("coverage") {
		ec.Selection.Coverage = coverage
	}
	return ec
}

// #endregion engine-flags
