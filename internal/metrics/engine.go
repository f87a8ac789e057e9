package metrics

import (
	"go.uber.org/zap"

	"github.com/danielpatrickdp/witness-metrics/internal/atoms"
	"github.com/danielpatrickdp/witness-metrics/internal/polarity"
	"github.com/danielpatrickdp/witness-metrics/internal/selection"
	"github.com/danielpatrickdp/witness-metrics/internal/witness"
)

// #region engine
// Engine runs the metrics pipeline. It holds configuration only and is safe
// for concurrent use.
type Engine struct {
	config   Config
	selector *selection.Selector
	logger   *zap.Logger
}

// Option configures an Engine.
type Option func(*Engine)

// WithLogger attaches a logger for debug output at the engine boundary.
func WithLogger(l *zap.Logger) Option {
	return func(e *Engine) {
		if l != nil {
			e.logger = l
		}
	}
}

// NewEngine creates an engine with the given configuration.
func NewEngine(config Config, opts ...Option) *Engine {
	e := &Engine{
		config:   config,
		selector: selection.NewSelector(config.Selection),
		logger:   zap.NewNop(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Config returns the engine configuration.
func (e *Engine) Config() Config {
	return e.config
}

// Compute runs normalize -> select -> per-atom metrics -> assemble.
// Zero witnesses yield NoData().
func (e *Engine) Compute(witnesses []witness.Witness) Report {
	if len(witnesses) == 0 {
		e.logger.Debug("no witnesses, metrics unavailable")
		return NoData()
	}

	ctx := polarity.FromConfig(e.config.Polarity)

	// 1. Normalize
	models, vocab := witness.Normalize(witnesses)

	// 2. Select S
	sel := e.selector.Select(models, ctx)

	// 3. Per-atom metrics
	perAtom := atoms.Compute(models, vocab, sel, ctx)

	// 4. Assemble
	report := Report{
		Available: true,
		Global: &Global{
			Optimal:       sel.Optimal,
			SecondBest:    sel.SecondBest,
			Gap:           sel.Gap,
			Slack:         sel.Slack,
			Levels:        sel.Levels,
			AllowedLevels: sel.AllowedLevels,
			Members:       sel.Members,
			NumInS:        sel.Size(),
			TotalModels:   len(models),
			Diversity:     sel.Diversity,
		},
		Atoms:      perAtom,
		HasSupport: atoms.HasSupport(models),
		Context:    &ctx,
	}

	e.logger.Debug("metrics computed",
		zap.String("polarity", string(ctx.Polarity)),
		zap.Int("models", len(models)),
		zap.Int("levels", len(sel.Levels)),
		zap.Int("num_in_s", sel.Size()),
		zap.Int("atoms", len(perAtom)),
		zap.Float64("optimal", sel.Optimal),
		zap.Float64("diversity", sel.Diversity),
	)

	return report
}

// #endregion engine
