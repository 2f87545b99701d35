package metrics

import (
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestNewWrapper(t *testing.T) {
	registry := prometheus.NewRegistry()
	metrics := NewWithRegistry(registry)
	wrapper := NewWrapper(metrics)

	if wrapper == nil {
		t.Fatal("NewWrapper returned nil")
	}
	if wrapper.m != metrics {
		t.Error("Wrapper does not contain correct metrics instance")
	}
}

func TestMetricsWrapper_Counters(t *testing.T) {
	metrics := NewWithRegistry(prometheus.NewRegistry())
	wrapper := NewWrapper(metrics)

	if v := testutil.ToFloat64(metrics.Evaluations); v != 0 {
		t.Errorf("Expected initial counter value 0, got %f", v)
	}

	wrapper.EvaluationsInc()
	wrapper.EvaluationsInc()
	if v := testutil.ToFloat64(metrics.Evaluations); v != 2 {
		t.Errorf("Expected counter value 2, got %f", v)
	}

	wrapper.ModelFailuresInc("fit")
	wrapper.ModelFailuresInc("predict")
	wrapper.ModelFailuresInc("predict")
	if v := testutil.ToFloat64(metrics.ModelFailures.WithLabelValues("fit")); v != 1 {
		t.Errorf("Expected 1 fit failure, got %f", v)
	}
	if v := testutil.ToFloat64(metrics.ModelFailures.WithLabelValues("predict")); v != 2 {
		t.Errorf("Expected 2 predict failures, got %f", v)
	}
}

func TestMetricsWrapper_BestProfit(t *testing.T) {
	metrics := NewWithRegistry(prometheus.NewRegistry())
	wrapper := NewWrapper(metrics)

	wrapper.BestProfitSet("logistic", 40)
	wrapper.BestProfitSet("prior", -5)
	wrapper.BestProfitSet("logistic", 42.5)

	if v := testutil.ToFloat64(metrics.BestProfit.WithLabelValues("logistic")); v != 42.5 {
		t.Errorf("Expected logistic best profit 42.5, got %f", v)
	}
	if v := testutil.ToFloat64(metrics.BestProfit.WithLabelValues("prior")); v != -5 {
		t.Errorf("Expected prior best profit -5, got %f", v)
	}
}

func TestMetricsWrapper_Histograms(t *testing.T) {
	registry := prometheus.NewRegistry()
	metrics := NewWithRegistry(registry)
	wrapper := NewWrapper(metrics)

	wrapper.EvaluationLatencyObserve(0.2)
	wrapper.EvaluationLatencyObserve(0.3)
	wrapper.CurveThresholdsObserve(17)

	if n := testutil.CollectAndCount(metrics.EvaluationLatency); n != 1 {
		t.Errorf("Expected 1 latency series, got %d", n)
	}

	families, err := registry.Gather()
	if err != nil {
		t.Fatalf("Gather failed: %v", err)
	}
	for _, mf := range families {
		if mf.GetName() == "profit_evaluation_duration_seconds" {
			h := mf.GetMetric()[0].GetHistogram()
			if h.GetSampleCount() != 2 {
				t.Errorf("Expected 2 latency samples, got %d", h.GetSampleCount())
			}
			if s := h.GetSampleSum(); s < 0.499 || s > 0.501 {
				t.Errorf("Expected latency sum 0.5, got %f", s)
			}
		}
	}
}

func TestMetricsWrapper_Concurrent(t *testing.T) {
	metrics := NewWithRegistry(prometheus.NewRegistry())
	wrapper := NewWrapper(metrics)

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			wrapper.EvaluationsInc()
			wrapper.ModelFailuresInc("curve")
		}()
	}
	wg.Wait()

	if v := testutil.ToFloat64(metrics.Evaluations); v != 50 {
		t.Errorf("Expected 50 evaluations, got %f", v)
	}
	if v := testutil.ToFloat64(metrics.ModelFailures.WithLabelValues("curve")); v != 50 {
		t.Errorf("Expected 50 curve failures, got %f", v)
	}
}

func TestWriteTextfile(t *testing.T) {
	metrics := NewWithRegistry(prometheus.NewRegistry())
	wrapper := NewWrapper(metrics)
	wrapper.EvaluationsInc()
	wrapper.BestProfitSet("logistic", 40)

	path := filepath.Join(t.TempDir(), "metrics.prom")
	if err := metrics.WriteTextfile(path); err != nil {
		t.Fatalf("WriteTextfile failed: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("failed to read textfile: %v", err)
	}
	text := string(data)
	for _, want := range []string{
		"profit_evaluations_total 1",
		`profit_best_expected_profit{model="logistic"} 40`,
	} {
		if !strings.Contains(text, want) {
			t.Errorf("expected textfile to contain %q, got:\n%s", want, text)
		}
	}
}

func TestWriteTextfile_BadPath(t *testing.T) {
	metrics := NewWithRegistry(prometheus.NewRegistry())
	if err := metrics.WriteTextfile(filepath.Join(t.TempDir(), "missing", "metrics.prom")); err == nil {
		t.Error("expected error for unwritable path")
	}
}
