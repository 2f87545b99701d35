package ml

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"testing"

	"churn-profit/internal/profit"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSelectBest_PicksHighestProfit(t *testing.T) {
	train, test := churnSets(t)
	models := []NamedModel{
		{ID: "prior", Model: &stubModel{probs: []float64{0.5, 0.5, 0.5, 0.5}}},
		{ID: "churn", Model: &stubModel{probs: []float64{0.9, 0.4, 0.3, 0.1}}},
	}

	sel, err := NewSelector(NewEvaluator(nil), 1).SelectBest(context.Background(), models, churnCB, train, test)
	require.NoError(t, err)

	require.NotNil(t, sel.Best)
	assert.Equal(t, "churn", sel.Best.ModelID)
	assert.Equal(t, 0.4, sel.Best.Threshold)
	assert.Equal(t, 40.0, sel.Best.Profit)
	require.Len(t, sel.Results, 2)
	assert.Equal(t, "prior", sel.Results[0].ModelID)
	assert.Empty(t, sel.Failures)
}

func TestSelectBest_TieGoesToEarlierModel(t *testing.T) {
	train, test := churnSets(t)
	// Both curves peak at 40 at different thresholds.
	models := []NamedModel{
		{ID: "first", Model: &stubModel{probs: []float64{0.8, 0.7, 0.2, 0.2}}},
		{ID: "second", Model: &stubModel{probs: []float64{0.9, 0.4, 0.3, 0.1}}},
	}

	for _, concurrency := range []int{1, 2} {
		t.Run(fmt.Sprintf("concurrency=%d", concurrency), func(t *testing.T) {
			sel, err := NewSelector(NewEvaluator(nil), concurrency).SelectBest(context.Background(), models, churnCB, train, test)
			require.NoError(t, err)
			require.NotNil(t, sel.Best)
			assert.Equal(t, sel.Results[0].Profit, sel.Results[1].Profit)
			assert.Equal(t, "first", sel.Best.ModelID)
			assert.Equal(t, 0.7, sel.Best.Threshold)
		})
	}
}

func TestSelectBest_PartialFailures(t *testing.T) {
	train, test := churnSets(t)
	metrics := &MockMetrics{}
	models := []NamedModel{
		{ID: "broken-fit", Model: &stubModel{fitErr: errBoom}},
		{ID: "churn", Model: &stubModel{probs: []float64{0.9, 0.4, 0.3, 0.1}}},
		{ID: "broken-predict", Model: &stubModel{predictErr: errBoom}},
	}

	sel, err := NewSelector(NewEvaluator(metrics), 1).SelectBest(context.Background(), models, churnCB, train, test)
	require.NoError(t, err)

	assert.Equal(t, "churn", sel.Best.ModelID)
	require.Len(t, sel.Failures, 2)
	assert.Equal(t, "broken-fit", sel.Failures[0].ModelID)
	assert.Equal(t, StageFit, sel.Failures[0].Stage)
	assert.Equal(t, "broken-predict", sel.Failures[1].ModelID)
	assert.Equal(t, StagePredict, sel.Failures[1].Stage)
	assert.True(t, errors.Is(sel.Failures[0], errBoom))

	assert.Equal(t, 3, metrics.evaluations)
	assert.Equal(t, 40.0, metrics.bestProfits["churn"])
	assert.Len(t, metrics.bestProfits, 1)
}

func TestSelectBest_AllFailed(t *testing.T) {
	train, test := churnSets(t)
	models := []NamedModel{
		{ID: "a", Model: &stubModel{fitErr: errBoom}},
		{ID: "b", Model: &stubModel{predictErr: errBoom}},
	}

	sel, err := NewSelector(NewEvaluator(nil), 1).SelectBest(context.Background(), models, churnCB, train, test)
	assert.True(t, errors.Is(err, ErrAllModelsFailed))
	require.NotNil(t, sel)
	assert.Nil(t, sel.Best)
	assert.Len(t, sel.Failures, 2)
}

func TestSelectBest_NoModels(t *testing.T) {
	train, test := churnSets(t)
	sel, err := NewSelector(NewEvaluator(nil), 1).SelectBest(context.Background(), nil, churnCB, train, test)
	assert.True(t, errors.Is(err, ErrNoModels))
	assert.Nil(t, sel)
}

func TestSelectBest_IncompatibleDatasets(t *testing.T) {
	_, test := churnSets(t)
	train := mustDataset(t, [][]float64{{1, 2}, {3, 4}}, []int{0, 1})
	models := []NamedModel{{ID: "a", Model: &stubModel{probs: []float64{0.1, 0.2, 0.3, 0.4}}}}

	sel, err := NewSelector(NewEvaluator(nil), 1).SelectBest(context.Background(), models, churnCB, train, test)
	assert.True(t, errors.Is(err, profit.ErrDimensionMismatch))
	assert.Nil(t, sel)
}

func TestSelectBest_ParallelMatchesSequential(t *testing.T) {
	rng := rand.New(rand.NewSource(11))
	n := 60
	trainRows, testRows := make([][]float64, n), make([][]float64, n)
	trainLabels, testLabels := make([]int, n), make([]int, n)
	for i := 0; i < n; i++ {
		trainRows[i] = []float64{rng.Float64()}
		testRows[i] = []float64{rng.Float64()}
		trainLabels[i] = rng.Intn(2)
		testLabels[i] = rng.Intn(2)
	}
	train := mustDataset(t, trainRows, trainLabels)
	test := mustDataset(t, testRows, testLabels)

	var models []NamedModel
	for m := 0; m < 9; m++ {
		probs := make([]float64, n)
		for i := range probs {
			probs[i] = float64(rng.Intn(20)) / 20
		}
		models = append(models, NamedModel{ID: fmt.Sprintf("model-%d", m), Model: &stubModel{probs: probs}})
	}
	models = append(models, NamedModel{ID: "broken", Model: &stubModel{fitErr: errBoom}})

	seq, err := NewSelector(NewEvaluator(nil), 1).SelectBest(context.Background(), models, churnCB, train, test)
	require.NoError(t, err)
	par, err := NewSelector(NewEvaluator(&MockMetrics{}), 4).SelectBest(context.Background(), models, churnCB, train, test)
	require.NoError(t, err)

	assert.Equal(t, seq.Best, par.Best)
	assert.Equal(t, seq.Results, par.Results)
	require.Len(t, par.Failures, 1)
	assert.Equal(t, "broken", par.Failures[0].ModelID)
}

func TestSelectBest_CancelledContext(t *testing.T) {
	train, test := churnSets(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	first := &stubModel{probs: []float64{0.9, 0.4, 0.3, 0.1}}
	models := []NamedModel{
		{ID: "a", Model: first},
		{ID: "b", Model: &stubModel{probs: []float64{0.9, 0.4, 0.3, 0.1}}},
	}

	sel, err := NewSelector(NewEvaluator(nil), 2).SelectBest(ctx, models, churnCB, train, test)
	assert.True(t, errors.Is(err, context.Canceled))
	require.NotNil(t, sel)
	assert.Nil(t, sel.Best)
	require.Len(t, sel.Failures, 2)
	for _, f := range sel.Failures {
		assert.Equal(t, StageSkipped, f.Stage)
	}
	assert.Zero(t, first.fitCalls.Load())
}

func TestNewSelector_ClampsConcurrency(t *testing.T) {
	s := NewSelector(NewEvaluator(nil), 0)
	assert.Equal(t, 1, s.concurrency)
}
