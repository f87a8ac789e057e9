package metrics

import (
	"encoding/json"
	"sort"

	"github.com/danielpatrickdp/witness-metrics/internal/atoms"
	"github.com/danielpatrickdp/witness-metrics/internal/polarity"
	"github.com/danielpatrickdp/witness-metrics/internal/selection"
)

// #region config
// Config bundles the polarity and selection settings for one engine.
type Config struct {
	Polarity  polarity.Config  `json:"polarity" yaml:"polarity"`
	Selection selection.Config `json:"selection" yaml:"selection"`
}

// DefaultConfig returns cost polarity with K=2, m=3.
func DefaultConfig() Config {
	return Config{
		Polarity:  polarity.DefaultConfig(),
		Selection: selection.DefaultConfig(),
	}
}

// #endregion config

// #region report
// Global holds run-wide statistics.
type Global struct {
	Optimal       float64   `json:"optimal"`
	SecondBest    *float64  `json:"secondBest"`
	Gap           *float64  `json:"gap"`
	Slack         float64   `json:"slack"`
	Levels        []float64 `json:"levels"`
	AllowedLevels []float64 `json:"allowedLevels"`
	Members       []int     `json:"members"`
	NumInS        int       `json:"numInS"`
	TotalModels   int       `json:"totalModels"`
	Diversity     float64   `json:"diversity"`
}

// Report is the engine's output contract. When Available is false every
// other field is empty and the JSON form is just {"available": false}.
type Report struct {
	Available  bool                     `json:"available"`
	Global     *Global                  `json:"global,omitempty"`
	Atoms      map[string]atoms.Metrics `json:"atoms,omitempty"`
	HasSupport bool                     `json:"hasSupport"`
	Context    *polarity.Context        `json:"context,omitempty"`
}

// NoData is the explicit empty-input result.
func NoData() Report {
	return Report{}
}

// AtomNames returns atom names in sorted order.
func (r Report) AtomNames() []string {
	names := make([]string, 0, len(r.Atoms))
	for a := range r.Atoms {
		names = append(names, a)
	}
	sort.Strings(names)
	return names
}

// MarshalJSON keeps the no-data form free of zero-valued fields.
func (r Report) MarshalJSON() ([]byte, error) {
	if !r.Available {
		return []byte(`{"available":false}`), nil
	}
	type plain Report
	return json.Marshal(plain(r))
}

// #endregion report
