package atoms

import (
	"math"
	"sort"

	"github.com/danielpatrickdp/witness-metrics/internal/polarity"
	"github.com/danielpatrickdp/witness-metrics/internal/selection"
	"github.com/danielpatrickdp/witness-metrics/internal/witness"
)

// #region compute
// Compute derives metrics for every atom in Universe(models).
// Entailment and possibilistic measures look only at S; bestWith/bestWithout
// look at the full population.
func Compute(
	models []witness.Model,
	vocab witness.Vocabulary,
	sel selection.Result,
	ctx polarity.Context,
) map[string]Metrics {
	names := Universe(models)
	withSupport := HasSupport(models)

	out := make(map[string]Metrics, len(names))
	for _, atom := range names {
		m := entailment(models, sel, atom)

		// --- Sensitivity over all models ---
		m.BestWith, m.BestWithout = bestScores(models, ctx, atom)
		if m.BestWith != nil {
			regret := math.Abs(*m.BestWith - sel.Optimal)
			m.Regret = &regret
		}
		if m.BestWith != nil && m.BestWithout != nil {
			penalty := *m.BestWith - *m.BestWithout
			m.Penalty = &penalty
		}

		// --- Possibilistic over S ---
		if withSupport {
			possibilistic(&m, models, vocab, sel, atom)
		}

		out[atom] = m
	}
	return out
}

// #endregion compute

// #region universe
// Universe returns the sorted union of accepted atoms and support keys.
func Universe(models []witness.Model) []string {
	seen := make(map[string]bool)
	add := func(a string) { seen[a] = true }
	for _, m := range models {
		m.AcceptedAtoms(add)
		m.SupportAtoms(add)
	}
	names := make([]string, 0, len(seen))
	for a := range seen {
		names = append(names, a)
	}
	sort.Strings(names)
	return names
}

// HasSupport reports whether any model carries support data.
func HasSupport(models []witness.Model) bool {
	for _, m := range models {
		if m.HasSupport() {
			return true
		}
	}
	return false
}

// #endregion universe

// #region helpers
func entailment(models []witness.Model, sel selection.Result, atom string) Metrics {
	var m Metrics
	if sel.Size() == 0 {
		return m
	}
	m.CautiousS = true
	for _, idx := range sel.Members {
		if models[idx].Accepts(atom) {
			m.BraveS = true
		} else {
			m.CautiousS = false
		}
	}
	return m
}

func bestScores(models []witness.Model, ctx polarity.Context, atom string) (with, without *float64) {
	for _, m := range models {
		score := m.Score
		if m.Accepts(atom) {
			if with == nil || ctx.Better(score, *with) {
				with = &score
			}
		} else if without == nil || ctx.Better(score, *without) {
			without = &score
		}
	}
	return with, without
}

func possibilistic(m *Metrics, models []witness.Model, vocab witness.Vocabulary, sel selection.Result, atom string) {
	if sel.Size() == 0 {
		return
	}
	first := models[sel.Members[0]].Support(atom)
	pi, n := first, first
	for _, idx := range sel.Members[1:] {
		s := models[idx].Support(atom)
		pi = math.Max(pi, s)
		n = math.Min(n, s)
	}
	m.PiS = &pi
	m.NS = &n

	contrary, ok := vocab.Contrary(atom)
	if !ok {
		return
	}
	var net float64
	for _, idx := range sel.Members {
		net += models[idx].Support(atom) - models[idx].Support(contrary)
	}
	net /= float64(sel.Size())
	m.NetS = &net
	m.Contrary = &contrary
}

// #endregion helpers
