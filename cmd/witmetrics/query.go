package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/danielpatrickdp/witness-metrics/internal/metrics"
	"github.com/danielpatrickdp/witness-metrics/internal/render"
	"github.com/danielpatrickdp/witness-metrics/internal/rules"
	"github.com/danielpatrickdp/witness-metrics/internal/witness"
)

// #region query

var (
	queryPolarity  string
	queryLevels    int
	queryCoverage  int
	queryRules     string
	queryPredicate string
	queryJSON      bool
)

var queryCmd = &cobra.Command{
	Use:   "query FILE",
	Short: "Run Datalog rules over the metrics of a witness file",
	Long: `query computes the report for FILE, loads it as Mangle facts
(witness, accepted, in_near_optimal, rank, atom, brave, cautious, regret_free,
contrary) together with the built-in robust/optional/contested rules and any
rules from --rules, then prints the facts of --predicate. Without --predicate
the available predicates are listed.`,
	Args: cobra.ExactArgs(1),
	RunE: runQuery,
}

func init() {
	addEngineFlags(queryCmd, &queryPolarity, &queryLevels, &queryCoverage)
	queryCmd.Flags().StringVar(&queryRules, "rules", "", "Mangle source file with extra rules")
	queryCmd.Flags().StringVar(&queryPredicate, "predicate", "", "predicate to print")
	queryCmd.Flags().BoolVar(&queryJSON, "json", false, "output rows as JSON")
}

func runQuery(cmd *cobra.Command, args []string) error {
	witnesses, err := witness.LoadFile(args[0])
	if err != nil {
		return err
	}

	var source string
	if queryRules != "" {
		data, err := os.ReadFile(queryRules)
		if err != nil {
			return fmt.Errorf("read rules %s: %w", queryRules, err)
		}
		source = string(data)
	}

	engineCfg := engineConfig(cmd, queryPolarity, queryLevels, queryCoverage)
	report := metrics.NewEngine(engineCfg, metrics.WithLogger(logger)).Compute(witnesses)

	program, err := rules.Evaluate(witnesses, report, source)
	if err != nil {
		return err
	}

	if queryPredicate == "" {
		for _, p := range program.Predicates() {
			fmt.Println(p)
		}
		return nil
	}

	rows, err := program.Query(queryPredicate)
	if err != nil {
		return err
	}
	if queryJSON {
		return render.JSON(os.Stdout, rows)
	}
	for _, row := range rows {
		parts := make([]string, len(row))
		for i, v := range row {
			parts[i] = fmt.Sprint(v)
		}
		fmt.Printf("%s(%s)\n", queryPredicate, strings.Join(parts, ", "))
	}
	fmt.Printf("\n%d facts\n", len(rows))
	return nil
}

// #endregion query
