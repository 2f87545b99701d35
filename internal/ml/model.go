// Package ml evaluates binary classifiers by the profit their scores would
// earn at every decision threshold, and picks the most profitable one.
//
// Classifiers are opaque: anything that can be fitted on a feature matrix and
// then return positive-class probabilities satisfies Model. The package ships
// a gonum logistic regression, a base-rate baseline and an HTTP adapter for
// models hosted by an external scoring service.
package ml

import (
	"gonum.org/v1/gonum/mat"
)

// Model is the capability every candidate classifier must provide.
type Model interface {
	// Fit trains the model. It may mutate the model's learned state.
	Fit(features *mat.Dense, labels []int) error

	// PredictProbability returns P(label == 1) for every row of features.
	PredictProbability(features *mat.Dense) ([]float64, error)
}

// NamedModel pairs a model with the identifier it is reported under.
type NamedModel struct {
	ID    string
	Model Model
}

// MetricsInterface defines metrics methods needed by the evaluator
type MetricsInterface interface {
	EvaluationsInc()
	ModelFailuresInc(stage string)
	EvaluationLatencyObserve(float64)
	CurveThresholdsObserve(float64)
	BestProfitSet(modelID string, profit float64)
}
