package ml

import (
	"context"
	"errors"
	"fmt"
	"time"

	"churn-profit/internal/dataset"
	"churn-profit/internal/profit"

	"github.com/rs/zerolog/log"
)

// Evaluation stages reported by ModelFailure.
const (
	StageFit     = "fit"
	StagePredict = "predict"
	StageCurve   = "curve"
	StageSkipped = "skipped"
)

// ModelFailure records why a single model could not produce a curve.
// Unwrap exposes the underlying error unchanged.
type ModelFailure struct {
	ModelID string `json:"model_id"`
	Stage   string `json:"stage"`
	Err     error  `json:"-"`
}

func (f *ModelFailure) Error() string {
	return fmt.Sprintf("model %s failed during %s: %v", f.ModelID, f.Stage, f.Err)
}

func (f *ModelFailure) Unwrap() error {
	return f.Err
}

// ModelResult is a model's profit curve plus its most profitable point.
type ModelResult struct {
	ModelID   string       `json:"model_id"`
	Curve     profit.Curve `json:"curve"`
	Threshold float64      `json:"threshold"`
	Profit    float64      `json:"profit"`
}

// NewModelResult derives the best point of curve. Ties within the curve go
// to the lowest threshold.
func NewModelResult(modelID string, curve profit.Curve) (ModelResult, error) {
	best, ok := curve.Best()
	if !ok {
		return ModelResult{}, fmt.Errorf("model %s: empty curve: %w", modelID, profit.ErrEmptyInput)
	}
	return ModelResult{
		ModelID:   modelID,
		Curve:     curve,
		Threshold: best.Threshold,
		Profit:    best.Profit,
	}, nil
}

// Evaluator fits one model and turns its held-out scores into a profit curve.
type Evaluator struct {
	metrics MetricsInterface
}

// NewEvaluator creates an evaluator. metrics may be nil.
func NewEvaluator(metrics MetricsInterface) *Evaluator {
	return &Evaluator{metrics: metrics}
}

// Evaluate fits model on train, scores test and computes the profit curve
// against test's labels. Dataset problems are returned before the model is
// touched; fit and predict errors come back as *ModelFailure.
func (e *Evaluator) Evaluate(ctx context.Context, id string, model Model, cb profit.CostBenefit, train, test dataset.Dataset) (profit.Curve, error) {
	if err := dataset.CheckCompatible(train, test); err != nil {
		return profit.Curve{}, fmt.Errorf("evaluate %s: %w", id, err)
	}
	if err := ctx.Err(); err != nil {
		return profit.Curve{}, &ModelFailure{ModelID: id, Stage: StageSkipped, Err: err}
	}

	start := time.Now()
	if e.metrics != nil {
		e.metrics.EvaluationsInc()
		defer func() {
			e.metrics.EvaluationLatencyObserve(time.Since(start).Seconds())
		}()
	}

	if err := model.Fit(train.Features, train.Labels); err != nil {
		return profit.Curve{}, e.fail(id, StageFit, err)
	}

	probs, err := model.PredictProbability(test.Features)
	if err != nil {
		return profit.Curve{}, e.fail(id, StagePredict, err)
	}
	if len(probs) != test.Len() {
		return profit.Curve{}, e.fail(id, StagePredict,
			fmt.Errorf("%d probabilities for %d test rows: %w", len(probs), test.Len(), profit.ErrDimensionMismatch))
	}

	curve, err := profit.ComputeCurve(cb, probs, test.Labels)
	if err != nil {
		return profit.Curve{}, e.fail(id, StageCurve, err)
	}

	if e.metrics != nil {
		e.metrics.CurveThresholdsObserve(float64(curve.Len()))
	}

	log.Debug().
		Str("model", id).
		Int("train_rows", train.Len()).
		Int("test_rows", test.Len()).
		Int("thresholds", curve.Len()).
		Dur("elapsed", time.Since(start)).
		Msg("Model evaluated")

	return curve, nil
}

func (e *Evaluator) fail(id, stage string, err error) *ModelFailure {
	if e.metrics != nil {
		e.metrics.ModelFailuresInc(stage)
	}
	log.Error().Err(err).Str("model", id).Str("stage", stage).Msg("Model evaluation failed")
	return &ModelFailure{ModelID: id, Stage: stage, Err: err}
}

// asFailure converts any evaluation error into a ModelFailure for id.
func asFailure(id string, err error) *ModelFailure {
	var failure *ModelFailure
	if errors.As(err, &failure) {
		return failure
	}
	return &ModelFailure{ModelID: id, Stage: StageCurve, Err: err}
}
