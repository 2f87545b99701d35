package ml

import (
	"errors"
	"sync/atomic"
	"testing"

	"churn-profit/internal/dataset"
	"churn-profit/internal/profit"

	"gonum.org/v1/gonum/mat"
)

var churnCB = profit.NewCostBenefit(80, -70, -10, 0)

// stubModel returns fixed probabilities regardless of the features.
type stubModel struct {
	probs      []float64
	fitErr     error
	predictErr error

	fitCalls atomic.Int32
}

func (s *stubModel) Fit(_ *mat.Dense, _ []int) error {
	s.fitCalls.Add(1)
	return s.fitErr
}

func (s *stubModel) PredictProbability(_ *mat.Dense) ([]float64, error) {
	if s.predictErr != nil {
		return nil, s.predictErr
	}
	return append([]float64(nil), s.probs...), nil
}

func mustDataset(t *testing.T, rows [][]float64, labels []int) dataset.Dataset {
	t.Helper()
	ds, err := dataset.New(rows, labels)
	if err != nil {
		t.Fatalf("dataset.New: %v", err)
	}
	return ds
}

// churnSets returns a 4-row train set and a test set labelled [1,1,0,0].
func churnSets(t *testing.T) (dataset.Dataset, dataset.Dataset) {
	t.Helper()
	train := mustDataset(t, [][]float64{{1}, {2}, {3}, {4}}, []int{1, 0, 1, 0})
	test := mustDataset(t, [][]float64{{5}, {6}, {7}, {8}}, []int{1, 1, 0, 0})
	return train, test
}

var errBoom = errors.New("boom")
