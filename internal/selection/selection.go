package selection

import (
	"math"

	"github.com/danielpatrickdp/witness-metrics/internal/polarity"
	"github.com/danielpatrickdp/witness-metrics/internal/witness"
)

// #region selector
// Selector picks the near-optimal set from a model population.
type Selector struct {
	config Config
}

// NewSelector creates a selector; non-positive settings fall back to defaults.
func NewSelector(config Config) *Selector {
	return &Selector{config: config.withDefaults()}
}

// Select ranks score levels under ctx and admits whole levels until S holds
// at least Coverage models or no levels remain. An empty population yields an
// empty Result.
func (s *Selector) Select(models []witness.Model, ctx polarity.Context) Result {
	if len(models) == 0 {
		return Result{inS: map[int]bool{}}
	}

	// 1. Distinct levels, best first
	levels := distinctScores(models)
	ctx.Sort(levels)

	res := Result{
		Optimal: levels[0],
		Levels:  levels,
	}
	if len(levels) > 1 {
		second := levels[1]
		gap := math.Abs(second - res.Optimal)
		res.SecondBest = &second
		res.Gap = &gap
	}

	// 2. Level-based growth with coverage fallback
	perLevel := make(map[float64]int, len(levels))
	for _, m := range models {
		perLevel[m.Score]++
	}
	k := s.config.Levels
	if k > len(levels) {
		k = len(levels)
	}
	size := 0
	for _, l := range levels[:k] {
		size += perLevel[l]
	}
	for size < s.config.Coverage && k < len(levels) {
		size += perLevel[levels[k]]
		k++
	}
	res.AllowedLevels = append([]float64(nil), levels[:k]...)

	allowed := make(map[float64]bool, k)
	for _, l := range res.AllowedLevels {
		allowed[l] = true
	}
	res.inS = make(map[int]bool, size)
	res.Members = make([]int, 0, size)
	for i, m := range models {
		if allowed[m.Score] {
			res.Members = append(res.Members, i)
			res.inS[i] = true
		}
	}

	// 3. Display-only slack
	res.Slack = ctx.Slack(res.Optimal, res.AllowedLevels)

	// 4. Diversity over S
	res.Diversity = Diversity(models, res.Members)

	return res
}

// #endregion selector

// #region diversity
// Diversity is the mean pairwise Jaccard distance between the accepted sets
// of the given models. Pairs whose union is empty are skipped; fewer than two
// members, or no counted pair, gives 0.
func Diversity(models []witness.Model, members []int) float64 {
	if len(members) <= 1 {
		return 0
	}
	var sum float64
	pairs := 0
	for i := 0; i < len(members); i++ {
		a := models[members[i]]
		for j := i + 1; j < len(members); j++ {
			b := models[members[j]]
			inter := intersection(a, b)
			union := a.AcceptedCount() + b.AcceptedCount() - inter
			if union == 0 {
				continue
			}
			sum += 1 - float64(inter)/float64(union)
			pairs++
		}
	}
	if pairs == 0 {
		return 0
	}
	return sum / float64(pairs)
}

// #endregion diversity

// #region helpers
func distinctScores(models []witness.Model) []float64 {
	seen := make(map[float64]bool, len(models))
	levels := make([]float64, 0, len(models))
	for _, m := range models {
		if seen[m.Score] {
			continue
		}
		seen[m.Score] = true
		levels = append(levels, m.Score)
	}
	return levels
}

func intersection(a, b witness.Model) int {
	if a.AcceptedCount() > b.AcceptedCount() {
		a, b = b, a
	}
	n := 0
	a.AcceptedAtoms(func(atom string) {
		if b.Accepts(atom) {
			n++
		}
	})
	return n
}

// #endregion helpers
