package metrics

// MetricsWrapper adapts Metrics to the narrow interface the evaluator uses,
// so the ml package does not import prometheus.
type MetricsWrapper struct {
	m *Metrics
}

func NewWrapper(m *Metrics) *MetricsWrapper {
	return &MetricsWrapper{m: m}
}

func (w *MetricsWrapper) EvaluationsInc() {
	w.m.Evaluations.Inc()
}

func (w *MetricsWrapper) ModelFailuresInc(stage string) {
	w.m.ModelFailures.WithLabelValues(stage).Inc()
}

func (w *MetricsWrapper) EvaluationLatencyObserve(seconds float64) {
	w.m.EvaluationLatency.Observe(seconds)
}

func (w *MetricsWrapper) CurveThresholdsObserve(n float64) {
	w.m.CurveThresholds.Observe(n)
}

func (w *MetricsWrapper) BestProfitSet(modelID string, profit float64) {
	w.m.BestProfit.WithLabelValues(modelID).Set(profit)
}
