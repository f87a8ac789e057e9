package replay

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/danielpatrickdp/witness-metrics/internal/metrics"
	"github.com/danielpatrickdp/witness-metrics/internal/polarity"
	"github.com/danielpatrickdp/witness-metrics/internal/selection"
	"github.com/danielpatrickdp/witness-metrics/internal/witness"
)

// #region fixture-types

// Fixture is the top-level JSON structure for a replay fixture.
type Fixture struct {
	Description string        `json:"description"`
	Cases       []FixtureCase `json:"cases"`
}

// FixtureCase is one witness population with its expected report.
type FixtureCase struct {
	Name      string            `json:"name"`
	Config    FixtureConfig     `json:"config"`
	Witnesses []witness.Witness `json:"witnesses"`
	Expected  Expected          `json:"expected"`
}

// FixtureConfig holds the engine settings for a case. Zero values fall back
// to the engine defaults.
type FixtureConfig struct {
	Polarity string `json:"polarity"`
	Levels   int    `json:"levels"`
	Coverage int    `json:"coverage"`
}

// Expected lists the values a case must reproduce. Global and atom entries
// are keyed by their report JSON names and an explicit null means the value
// must be absent. Unless Complete is set, only listed keys are compared;
// with Complete, atoms and keys the report has but Expected lacks fail.
type Expected struct {
	Available bool                      `json:"available"`
	Complete  bool                      `json:"complete,omitempty"`
	Global    map[string]any            `json:"global,omitempty"`
	Atoms     map[string]map[string]any `json:"atoms,omitempty"`
}

// #endregion fixture-types

// #region fixture-loader

// LoadFixture reads and parses a JSON fixture file.
func LoadFixture(path string) (*Fixture, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read fixture %s: %w", path, err)
	}
	var f Fixture
	if err := json.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse fixture %s: %w", path, err)
	}
	return &f, nil
}

// ToEngineConfig converts a FixtureConfig to an engine Config.
func (fc FixtureConfig) ToEngineConfig() metrics.Config {
	cfg := metrics.DefaultConfig()
	if fc.Polarity != "" {
		cfg.Polarity = polarity.Config{Polarity: fc.Polarity}
	}
	if fc.Levels > 0 || fc.Coverage > 0 {
		cfg.Selection = selection.Config{Levels: fc.Levels, Coverage: fc.Coverage}
	}
	return cfg
}

// ExpectedFromReport captures every field of report as an expectation. It
// is used to check a stored report against a fresh computation.
func ExpectedFromReport(report metrics.Report) (Expected, error) {
	exp := Expected{Available: report.Available, Complete: true}
	if !report.Available {
		return exp, nil
	}
	if err := roundTrip(report.Global, &exp.Global); err != nil {
		return Expected{}, fmt.Errorf("capture global: %w", err)
	}
	if err := roundTrip(report.Atoms, &exp.Atoms); err != nil {
		return Expected{}, fmt.Errorf("capture atoms: %w", err)
	}
	return exp, nil
}

func roundTrip(in, out any) error {
	data, err := json.Marshal(in)
	if err != nil {
		return err
	}
	return json.Unmarshal(data, out)
}

// #endregion fixture-loader
