package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v3"

	"github.com/danielpatrickdp/witness-metrics/internal/metrics"
	"github.com/danielpatrickdp/witness-metrics/internal/polarity"
	"github.com/danielpatrickdp/witness-metrics/internal/selection"
)

// #region config
// Config holds all witness-metrics settings.
type Config struct {
	Metrics MetricsConfig `yaml:"metrics"`
	Store   StoreConfig   `yaml:"store"`
	Server  ServerConfig  `yaml:"server"`
	Logging LoggingConfig `yaml:"logging"`
}

// MetricsConfig configures the engine.
type MetricsConfig struct {
	Polarity string `yaml:"polarity" env:"WITMETRICS_POLARITY"` // cost | strength
	Levels   int    `yaml:"levels" env:"WITMETRICS_LEVELS"`     // K
	Coverage int    `yaml:"coverage" env:"WITMETRICS_COVERAGE"` // m
}

// StoreConfig configures the run history database.
type StoreConfig struct {
	Path string `yaml:"path" env:"WITMETRICS_DB"`
}

// ServerConfig configures the serving surface.
type ServerConfig struct {
	Addr        string `yaml:"addr" env:"WITMETRICS_ADDR"`
	MetricsAddr string `yaml:"metrics_addr" env:"WITMETRICS_METRICS_ADDR"`
}

// LoggingConfig configures zap.
type LoggingConfig struct {
	Level  string `yaml:"level" env:"WITMETRICS_LOG_LEVEL"`   // debug, info, warn, error
	Format string `yaml:"format" env:"WITMETRICS_LOG_FORMAT"` // json, console
}

// Default returns the built-in configuration.
func Default() Config {
	sel := selection.DefaultConfig()
	return Config{
		Metrics: MetricsConfig{
			Polarity: string(polarity.Cost),
			Levels:   sel.Levels,
			Coverage: sel.Coverage,
		},
		Store: StoreConfig{
			Path: "witness_metrics.db",
		},
		Server: ServerConfig{
			Addr:        "localhost:50061",
			MetricsAddr: "localhost:9464",
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "console",
		},
	}
}

// #endregion config

// #region load
// Load reads a YAML file over the defaults and then applies WITMETRICS_*
// environment overrides. An empty path or a missing file yields defaults
// plus environment.
func Load(path string) (Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case errors.Is(err, fs.ErrNotExist):
			// defaults
		case err != nil:
			return Config{}, fmt.Errorf("read config %s: %w", path, err)
		default:
			if err := yaml.Unmarshal(data, &cfg); err != nil {
				return Config{}, fmt.Errorf("parse config %s: %w", path, err)
			}
		}
	}

	if err := ParseEnv(&cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// ParseEnv loads environment overrides into target.
func ParseEnv(target any) error {
	if err := env.Parse(target); err != nil {
		return fmt.Errorf("parse env: %w", err)
	}
	return nil
}

// #endregion load

// #region engine-config
// EngineConfig converts the metrics section into an engine configuration.
func (c Config) EngineConfig() metrics.Config {
	return metrics.Config{
		Polarity: polarity.Config{Polarity: c.Metrics.Polarity},
		Selection: selection.Config{
			Levels:   c.Metrics.Levels,
			Coverage: c.Metrics.Coverage,
		},
	}
}

// #endregion engine-config
