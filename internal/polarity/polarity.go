package polarity

import (
	"sort"
	"strings"
)

// #region polarity
// Polarity selects whether low or high witness scores are preferred.
type Polarity string

const (
	Cost     Polarity = "cost"
	Strength Polarity = "strength"
)

// Parse maps a configuration value onto a Polarity. Anything that is not a
// recognised strength/reward spelling is treated as cost.
func Parse(s string) Polarity {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "strength", "reward":
		return Strength
	default:
		return Cost
	}
}

// #endregion polarity

// #region config
// Config is the caller-facing polarity configuration.
type Config struct {
	Polarity string `json:"polarity" yaml:"polarity"`
}

// DefaultConfig returns the cost polarity.
func DefaultConfig() Config {
	return Config{Polarity: string(Cost)}
}

// #endregion config

// #region context
// Direction names which way scores improve.
type Direction string

const (
	Lower  Direction = "lower"
	Higher Direction = "higher"
)

// Labels are display strings for presentation layers.
type Labels struct {
	Optimal string `json:"optimal"`
	Slack   string `json:"slack"`
	Gap     string `json:"gap"`
	Better  string `json:"better"`
	Worse   string `json:"worse"`
}

// Context carries the comparison semantics for one computation.
type Context struct {
	Polarity        Polarity  `json:"polarity"`
	BetterDirection Direction `json:"betterDirection"`
	SortAscending   bool      `json:"sortAscending"`
	Labels          Labels    `json:"labels"`
}

// FromConfig derives the comparison context. It never fails.
func FromConfig(cfg Config) Context {
	if Parse(cfg.Polarity) == Strength {
		return Context{
			Polarity:        Strength,
			BetterDirection: Higher,
			SortAscending:   false,
			Labels: Labels{
				Optimal: "best strength",
				Slack:   "strength slack",
				Gap:     "gap to runner-up",
				Better:  "higher",
				Worse:   "lower",
			},
		}
	}
	return Context{
		Polarity:        Cost,
		BetterDirection: Lower,
		SortAscending:   true,
		Labels: Labels{
			Optimal: "lowest cost",
			Slack:   "cost slack",
			Gap:     "gap to runner-up",
			Better:  "lower",
			Worse:   "higher",
		},
	}
}

// #endregion context

// #region comparisons
// Better reports whether a is strictly preferred over b.
func (c Context) Better(a, b float64) bool {
	if c.SortAscending {
		return a < b
	}
	return a > b
}

// Best returns the preferred value, or false when values is empty.
func (c Context) Best(values []float64) (float64, bool) {
	if len(values) == 0 {
		return 0, false
	}
	best := values[0]
	for _, v := range values[1:] {
		if c.Better(v, best) {
			best = v
		}
	}
	return best, true
}

// Sort orders values best-first in place.
func (c Context) Sort(values []float64) {
	if c.SortAscending {
		sort.Float64s(values)
		return
	}
	sort.Sort(sort.Reverse(sort.Float64Slice(values)))
}

// Slack measures how far the worst allowed level sits from the optimum.
// The result is non-negative for a best-first level list.
func (c Context) Slack(optimal float64, allowed []float64) float64 {
	if len(allowed) == 0 {
		return 0
	}
	if c.SortAscending {
		worst := allowed[0]
		for _, v := range allowed[1:] {
			if v > worst {
				worst = v
			}
		}
		return worst - optimal
	}
	worst := allowed[0]
	for _, v := range allowed[1:] {
		if v < worst {
			worst = v
		}
	}
	return optimal - worst
}

// #endregion comparisons
