package ml

import "sync"

// MockMetrics implements MetricsInterface for testing
type MockMetrics struct {
	mu          sync.Mutex
	evaluations int
	failures    map[string]int
	latencySum  float64
	thresholds  []float64
	bestProfits map[string]float64
}

func (m *MockMetrics) EvaluationsInc() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.evaluations++
}

func (m *MockMetrics) ModelFailuresInc(stage string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failures == nil {
		m.failures = make(map[string]int)
	}
	m.failures[stage]++
}

func (m *MockMetrics) EvaluationLatencyObserve(v float64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.latencySum += v
}

func (m *MockMetrics) CurveThresholdsObserve(v float64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.thresholds = append(m.thresholds, v)
}

func (m *MockMetrics) BestProfitSet(modelID string, profit float64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.bestProfits == nil {
		m.bestProfits = make(map[string]float64)
	}
	m.bestProfits[modelID] = profit
}
