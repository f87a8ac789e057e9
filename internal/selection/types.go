package selection

// #region selection-config
// Config controls how the near-optimal set grows.
type Config struct {
	Levels   int `json:"levels" yaml:"levels"`     // K: score levels admitted up front
	Coverage int `json:"coverage" yaml:"coverage"` // m: minimum models before growth stops
}

// DefaultConfig returns K=2, m=3.
func DefaultConfig() Config {
	return Config{
		Levels:   2,
		Coverage: 3,
	}
}

// withDefaults replaces non-positive fields with their defaults.
func (c Config) withDefaults() Config {
	d := DefaultConfig()
	if c.Levels <= 0 {
		c.Levels = d.Levels
	}
	if c.Coverage <= 0 {
		c.Coverage = d.Coverage
	}
	return c
}

// #endregion selection-config

// #region selection-result
// Result describes the near-optimal set S and its global statistics.
type Result struct {
	Optimal       float64
	SecondBest    *float64 // nil with a single level
	Gap           *float64 // |SecondBest - Optimal|, nil with a single level
	Levels        []float64
	AllowedLevels []float64
	Members       []int // model indices in S, ascending
	Slack         float64
	Diversity     float64

	inS map[int]bool
}

// Contains reports whether the model with the given index is in S.
func (r Result) Contains(index int) bool {
	return r.inS[index]
}

// Size returns |S|.
func (r Result) Size() int {
	return len(r.Members)
}

// #endregion selection-result
