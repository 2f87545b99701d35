// Package metrics provides Prometheus metrics collection for profit-curve
// evaluations. It counts evaluated and failed models, times each evaluation,
// records curve sizes and exposes the best profit reached by every model.
//
// The CLI is a batch tool, so instead of serving an endpoint the gathered
// registry is written to a node-exporter style textfile after a run.
package metrics

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus collectors for an evaluation run.
type Metrics struct {
	Evaluations       prometheus.Counter     // Total number of model evaluations started
	ModelFailures     *prometheus.CounterVec // Model failures by stage
	EvaluationLatency prometheus.Histogram   // Fit plus predict plus curve duration
	CurveThresholds   prometheus.Histogram   // Number of thresholds per computed curve
	BestProfit        *prometheus.GaugeVec   // Best expected profit per example by model

	gatherer prometheus.Gatherer
}

// New creates and registers all metrics using the default registry.
func New() *Metrics {
	return NewWithRegistry(prometheus.DefaultRegisterer)
}

// NewWithRegistry creates metrics with a custom registry (useful for testing).
// When the registerer is also a Gatherer it is used by WriteTextfile,
// otherwise the default gatherer is.
func NewWithRegistry(registerer prometheus.Registerer) *Metrics {
	factory := promauto.With(registerer)

	gatherer, ok := registerer.(prometheus.Gatherer)
	if !ok {
		gatherer = prometheus.DefaultGatherer
	}

	return &Metrics{
		Evaluations: factory.NewCounter(prometheus.CounterOpts{
			Name: "profit_evaluations_total",
			Help: "Total number of model evaluations started",
		}),
		ModelFailures: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "profit_model_failures_total",
			Help: "Total number of model failures by stage",
		}, []string{"stage"}),
		EvaluationLatency: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "profit_evaluation_duration_seconds",
			Help:    "Duration of a single model evaluation in seconds",
			Buckets: prometheus.ExponentialBuckets(0.001, 2, 15),
		}),
		CurveThresholds: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "profit_curve_thresholds",
			Help:    "Number of thresholds in each computed profit curve",
			Buckets: prometheus.ExponentialBuckets(1, 4, 10),
		}),
		BestProfit: factory.NewGaugeVec(prometheus.GaugeOpts{
			Name: "profit_best_expected_profit",
			Help: "Best expected profit per example reached by a model",
		}, []string{"model"}),
		gatherer: gatherer,
	}
}

// WriteTextfile gathers the registry and writes it in the text exposition
// format to path.
func (m *Metrics) WriteTextfile(path string) error {
	if err := prometheus.WriteToTextfile(path, m.gatherer); err != nil {
		return fmt.Errorf("failed to write metrics to %s: %w", path, err)
	}
	return nil
}
