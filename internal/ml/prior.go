package ml

import (
	"fmt"

	"gonum.org/v1/gonum/mat"
)

// PriorModel ignores features and predicts the training positive rate for
// every example. Its curve has a single data threshold plus the sentinel and
// is the floor any real model should beat.
type PriorModel struct {
	rate   float64
	fitted bool
}

func (m *PriorModel) Fit(_ *mat.Dense, labels []int) error {
	if len(labels) == 0 {
		return fmt.Errorf("prior fit: no labels")
	}
	positives := 0
	for _, y := range labels {
		positives += y
	}
	m.rate = float64(positives) / float64(len(labels))
	m.fitted = true
	return nil
}

func (m *PriorModel) PredictProbability(features *mat.Dense) ([]float64, error) {
	if !m.fitted {
		return nil, ErrNotFitted
	}
	if features == nil {
		return nil, fmt.Errorf("prior predict: nil features")
	}
	rows, _ := features.Dims()
	probs := make([]float64, rows)
	for i := range probs {
		probs[i] = m.rate
	}
	return probs, nil
}
