// Package render prints reports and run histories for the command-line tools.
package render

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/danielpatrickdp/witness-metrics/internal/metrics"
)

// #region json
// JSON writes v indented.
func JSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("encode json: %w", err)
	}
	return nil
}

// #endregion json

// #region report
// Report prints the global block followed by one row per atom.
func Report(w io.Writer, r metrics.Report) {
	if !r.Available {
		fmt.Fprintln(w, "No witnesses: metrics unavailable.")
		return
	}
	g := r.Global
	labels := r.Context.Labels

	fmt.Fprintf(w, "Polarity:   %s (%s is better)\n", r.Context.Polarity, labels.Better)
	fmt.Fprintf(w, "Optimal:    %s (%s)\n", Num(g.Optimal), labels.Optimal)
	fmt.Fprintf(w, "Runner-up:  %s (%s %s)\n", Opt(g.SecondBest), labels.Gap, Opt(g.Gap))
	fmt.Fprintf(w, "Allowed:    %s of %s (%s %s)\n", list(g.AllowedLevels), list(g.Levels), labels.Slack, Num(g.Slack))
	fmt.Fprintf(w, "S:          %d of %d models %v\n", g.NumInS, g.TotalModels, g.Members)
	fmt.Fprintf(w, "Diversity:  %.4f\n", g.Diversity)
	fmt.Fprintln(w)

	if r.HasSupport {
		fmt.Fprintf(w, "%-16s  %-5s  %-8s  %8s  %11s  %8s  %8s  %6s  %6s  %6s  %s\n",
			"Atom", "Brave", "Cautious", "BestWith", "BestWithout", "Regret", "Penalty", "Pi_S", "N_S", "net_S", "Contrary")
	} else {
		fmt.Fprintf(w, "%-16s  %-5s  %-8s  %8s  %11s  %8s  %s\n",
			"Atom", "Brave", "Cautious", "BestWith", "BestWithout", "Regret", "Penalty")
	}

	for _, name := range r.AtomNames() {
		m := r.Atoms[name]
		if r.HasSupport {
			contrary := "-"
			if m.Contrary != nil {
				contrary = *m.Contrary
			}
			fmt.Fprintf(w, "%-16s  %-5s  %-8s  %8s  %11s  %8s  %8s  %6s  %6s  %6s  %s\n",
				name, yesNo(m.BraveS), yesNo(m.CautiousS), Opt(m.BestWith), Opt(m.BestWithout),
				Opt(m.Regret), Opt(m.Penalty), Opt(m.PiS), Opt(m.NS), Opt(m.NetS), contrary)
			continue
		}
		fmt.Fprintf(w, "%-16s  %-5s  %-8s  %8s  %11s  %8s  %s\n",
			name, yesNo(m.BraveS), yesNo(m.CautiousS), Opt(m.BestWith), Opt(m.BestWithout),
			Opt(m.Regret), Opt(m.Penalty))
	}
}

// #endregion report

// #region values
// Num formats a number without trailing zeros.
func Num(v float64) string {
	return strconv.FormatFloat(v, 'g', 6, 64)
}

// Opt formats an optional number, "-" when absent.
func Opt(v *float64) string {
	if v == nil {
		return "-"
	}
	return Num(*v)
}

func list(vs []float64) string {
	parts := make([]string, len(vs))
	for i, v := range vs {
		parts[i] = Num(v)
	}
	return "[" + strings.Join(parts, " ") + "]"
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}

// ShortID truncates an id for table display.
func ShortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

// #endregion values
