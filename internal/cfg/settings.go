package cfg

import (
	"errors"
	"time"

	"churn-profit/internal/common"
	"churn-profit/internal/profit"
)

// Settings is the resolved configuration of one evaluation run.
type Settings struct {
	CostBenefit   profit.CostBenefit
	TrainPath     string
	TestPath      string
	LabelColumn   string
	Models        []ModelConfig
	Concurrency   int
	ResampleSteps int
	OutputPath    string
	MetricsFile   string
	DataPath      string
	LogLevel      string
}

// ModelConfig describes one candidate classifier.
type ModelConfig struct {
	Name         string
	Type         string
	LearningRate float64
	Iterations   int
	L2           float64
	URL          string
	Timeout      time.Duration
}

// RequireDatasets reports whether both dataset paths are set.
func (s *Settings) RequireDatasets() error {
	if s.TrainPath == "" || s.TestPath == "" {
		return errors.New(common.ErrMsgDatasetsRequired)
	}
	return nil
}

// ModelNames returns the configured model identifiers in order.
func (s *Settings) ModelNames() []string {
	names := make([]string, len(s.Models))
	for i, m := range s.Models {
		names[i] = m.Name
	}
	return names
}
