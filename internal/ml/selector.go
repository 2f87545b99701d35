package ml

import (
	"context"
	"errors"
	"fmt"

	"churn-profit/internal/dataset"
	"churn-profit/internal/profit"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"
)

var (
	// ErrNoModels is returned when SelectBest is called without candidates.
	ErrNoModels = errors.New("no models to evaluate")
	// ErrAllModelsFailed is returned when no candidate produced a curve.
	ErrAllModelsFailed = errors.New("all models failed")
)

// Selection is the outcome of comparing candidate models. Results and
// Failures keep the input order of the models.
type Selection struct {
	Best     *ModelResult    `json:"best"`
	Results  []ModelResult   `json:"results"`
	Failures []*ModelFailure `json:"failures,omitempty"`
}

// Selector runs an Evaluator over many models and keeps the most profitable.
type Selector struct {
	evaluator   *Evaluator
	concurrency int
}

// NewSelector creates a selector. concurrency below 1 means sequential.
func NewSelector(evaluator *Evaluator, concurrency int) *Selector {
	if concurrency < 1 {
		concurrency = 1
	}
	return &Selector{evaluator: evaluator, concurrency: concurrency}
}

type outcome struct {
	result  *ModelResult
	failure *ModelFailure
}

// SelectBest evaluates every model and returns the one whose curve reaches
// the highest profit. Only a strictly greater profit replaces the current
// leader, so ties go to the earliest model in input order.
//
// A failing model does not stop the others; it is reported in
// Selection.Failures. The returned Selection is non-nil whenever the datasets
// are valid, even alongside ErrAllModelsFailed or a context error.
func (s *Selector) SelectBest(ctx context.Context, models []NamedModel, cb profit.CostBenefit, train, test dataset.Dataset) (*Selection, error) {
	if len(models) == 0 {
		return nil, ErrNoModels
	}
	if err := dataset.CheckCompatible(train, test); err != nil {
		return nil, fmt.Errorf("select best: %w", err)
	}

	slots := make([]outcome, len(models))
	scheduled := 0

	var g errgroup.Group
	g.SetLimit(s.concurrency)
	for i, nm := range models {
		if ctx.Err() != nil {
			break
		}
		scheduled++
		g.Go(func() error {
			slots[i] = s.evaluate(ctx, nm, cb, train, test)
			return nil
		})
	}
	_ = g.Wait()

	for i := scheduled; i < len(models); i++ {
		slots[i] = outcome{failure: &ModelFailure{ModelID: models[i].ID, Stage: StageSkipped, Err: ctx.Err()}}
	}

	selection := reduce(slots)
	if selection.Best != nil {
		log.Info().
			Str("model", selection.Best.ModelID).
			Float64("threshold", selection.Best.Threshold).
			Float64("profit", selection.Best.Profit).
			Int("succeeded", len(selection.Results)).
			Int("failed", len(selection.Failures)).
			Msg("Best model selected")
	}

	if err := ctx.Err(); err != nil {
		return selection, fmt.Errorf("select best interrupted: %w", err)
	}
	if selection.Best == nil {
		return selection, ErrAllModelsFailed
	}
	return selection, nil
}

func (s *Selector) evaluate(ctx context.Context, nm NamedModel, cb profit.CostBenefit, train, test dataset.Dataset) outcome {
	curve, err := s.evaluator.Evaluate(ctx, nm.ID, nm.Model, cb, train, test)
	if err != nil {
		return outcome{failure: asFailure(nm.ID, err)}
	}

	result, err := NewModelResult(nm.ID, curve)
	if err != nil {
		return outcome{failure: asFailure(nm.ID, err)}
	}

	if s.evaluator.metrics != nil {
		s.evaluator.metrics.BestProfitSet(nm.ID, result.Profit)
	}
	log.Info().
		Str("model", nm.ID).
		Float64("threshold", result.Threshold).
		Float64("profit", result.Profit).
		Int("thresholds", curve.Len()).
		Msg("Profit curve computed")

	return outcome{result: &result}
}

// reduce folds outcomes in input order.
func reduce(slots []outcome) *Selection {
	selection := &Selection{}
	for _, slot := range slots {
		if slot.failure != nil {
			selection.Failures = append(selection.Failures, slot.failure)
			continue
		}
		selection.Results = append(selection.Results, *slot.result)
		if selection.Best == nil || slot.result.Profit > selection.Best.Profit {
			best := *slot.result
			selection.Best = &best
		}
	}
	return selection
}
