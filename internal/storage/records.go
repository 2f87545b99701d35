package storage

import (
	"time"

	"churn-profit/internal/ml"
	"churn-profit/internal/profit"

	"github.com/google/uuid"
)

// ModelRecord is the archived outcome of one successful model.
type ModelRecord struct {
	Model      string    `json:"model"`
	Threshold  float64   `json:"threshold"`
	Profit     float64   `json:"profit"`
	Thresholds []float64 `json:"thresholds"`
	Profits    []float64 `json:"profits"`
}

// FailureRecord is the archived form of an ml.ModelFailure.
type FailureRecord struct {
	Model string `json:"model"`
	Stage string `json:"stage"`
	Error string `json:"error"`
}

// RunRecord is one archived evaluation run.
type RunRecord struct {
	ID          string             `json:"id"`
	CreatedAt   time.Time          `json:"created_at"`
	CostBenefit profit.CostBenefit `json:"cost_benefit"`
	TrainRows   int                `json:"train_rows"`
	TestRows    int                `json:"test_rows"`
	Best        *ModelRecord       `json:"best,omitempty"`
	Models      []ModelRecord      `json:"models"`
	Failures    []FailureRecord    `json:"failures,omitempty"`
}

// NewRunRecord snapshots a selection under a fresh run ID.
func NewRunRecord(sel *ml.Selection, cb profit.CostBenefit, trainRows, testRows int) RunRecord {
	rec := RunRecord{
		ID:          uuid.NewString(),
		CreatedAt:   time.Now().UTC(),
		CostBenefit: cb,
		TrainRows:   trainRows,
		TestRows:    testRows,
	}
	if sel == nil {
		return rec
	}

	for _, r := range sel.Results {
		rec.Models = append(rec.Models, modelRecord(r))
	}
	for _, f := range sel.Failures {
		fr := FailureRecord{Model: f.ModelID, Stage: f.Stage}
		if f.Err != nil {
			fr.Error = f.Err.Error()
		}
		rec.Failures = append(rec.Failures, fr)
	}
	if sel.Best != nil {
		best := modelRecord(*sel.Best)
		rec.Best = &best
	}
	return rec
}

func modelRecord(r ml.ModelResult) ModelRecord {
	return ModelRecord{
		Model:      r.ModelID,
		Threshold:  r.Threshold,
		Profit:     r.Profit,
		Thresholds: r.Curve.Thresholds,
		Profits:    r.Curve.Profits,
	}
}
