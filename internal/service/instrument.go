package service

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// #region collectors
// Collectors holds the Prometheus instruments for Compute calls.
type Collectors struct {
	computations *prometheus.CounterVec
	witnesses    prometheus.Histogram
	duration     prometheus.Histogram
}

// NewCollectors registers the service instruments on reg.
func NewCollectors(reg prometheus.Registerer) *Collectors {
	factory := promauto.With(reg)
	return &Collectors{
		computations: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "witmetrics_computations_total",
			Help: "Metrics computations by result (ok, empty, invalid)",
		}, []string{"result"}),
		witnesses: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "witmetrics_witnesses",
			Help:    "Witnesses per computation",
			Buckets: []float64{0, 1, 5, 10, 50, 100, 500, 1000, 5000},
		}),
		duration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "witmetrics_compute_duration_seconds",
			Help:    "Metrics computation duration",
			Buckets: []float64{0.0001, 0.001, 0.01, 0.1, 1, 10},
		}),
	}
}

func (c *Collectors) observe(result string, witnesses int, seconds float64) {
	if c == nil {
		return
	}
	c.computations.WithLabelValues(result).Inc()
	if result != resultInvalid {
		c.witnesses.Observe(float64(witnesses))
		c.duration.Observe(seconds)
	}
}

// #endregion collectors
