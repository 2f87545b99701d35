package ml

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
)

// ErrNotFitted is returned when a model is asked to predict before Fit.
var ErrNotFitted = errors.New("model not fitted")

// LogisticModel is an L2-regularised logistic regression trained with batch
// gradient descent. Training is deterministic: weights start at zero.
type LogisticModel struct {
	LearningRate float64
	Iterations   int
	L2           float64

	weights *mat.VecDense
	bias    float64
}

// NewLogisticModel creates a logistic regression with the given
// hyper-parameters. Non-positive values fall back to defaults.
func NewLogisticModel(learningRate float64, iterations int, l2 float64) *LogisticModel {
	if learningRate <= 0 {
		learningRate = 0.1
	}
	if iterations <= 0 {
		iterations = 500
	}
	if l2 < 0 {
		l2 = 0
	}
	return &LogisticModel{LearningRate: learningRate, Iterations: iterations, L2: l2}
}

// Fit learns weights and bias.
func (m *LogisticModel) Fit(features *mat.Dense, labels []int) error {
	if features == nil {
		return fmt.Errorf("logistic fit: nil features")
	}
	rows, cols := features.Dims()
	if rows != len(labels) {
		return fmt.Errorf("logistic fit: %d rows vs %d labels", rows, len(labels))
	}

	n := float64(rows)
	w := mat.NewVecDense(cols, nil)
	bias := 0.0
	residual := mat.NewVecDense(rows, nil)
	var z, grad mat.VecDense

	for iter := 0; iter < m.Iterations; iter++ {
		z.MulVec(features, w)

		var biasGrad float64
		for i := 0; i < rows; i++ {
			r := sigmoid(z.AtVec(i)+bias) - float64(labels[i])
			residual.SetVec(i, r)
			biasGrad += r
		}

		grad.MulVec(features.T(), residual)
		grad.ScaleVec(1/n, &grad)
		if m.L2 > 0 {
			grad.AddScaledVec(&grad, m.L2, w)
		}

		w.AddScaledVec(w, -m.LearningRate, &grad)
		bias -= m.LearningRate * biasGrad / n
	}

	m.weights = w
	m.bias = bias
	return nil
}

// PredictProbability scores every row of features.
func (m *LogisticModel) PredictProbability(features *mat.Dense) ([]float64, error) {
	if m.weights == nil {
		return nil, ErrNotFitted
	}
	if features == nil {
		return nil, fmt.Errorf("logistic predict: nil features")
	}
	rows, cols := features.Dims()
	if cols != m.weights.Len() {
		return nil, fmt.Errorf("logistic predict: expected %d features, got %d", m.weights.Len(), cols)
	}

	var z mat.VecDense
	z.MulVec(features, m.weights)

	probs := make([]float64, rows)
	for i := range probs {
		probs[i] = sigmoid(z.AtVec(i) + m.bias)
	}
	return probs, nil
}

// Coefficients returns a copy of the learned weights and the bias.
func (m *LogisticModel) Coefficients() ([]float64, float64) {
	if m.weights == nil {
		return nil, 0
	}
	return mat.Col(nil, 0, m.weights), m.bias
}

// sigmoid converts a score to a probability
func sigmoid(x float64) float64 {
	return 1.0 / (1.0 + math.Exp(-x))
}
