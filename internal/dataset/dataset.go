// Package dataset holds the numeric, already-encoded feature matrices and
// {0,1} label vectors that models are trained and evaluated on.
//
// Ingestion here is deliberately thin: rows are parsed and dimensions are
// checked, nothing is scaled, imputed or encoded.
package dataset

import (
	"fmt"

	"churn-profit/internal/profit"

	"gonum.org/v1/gonum/mat"
)

// Dataset is a feature matrix with one label per row.
type Dataset struct {
	Names    []string
	Features *mat.Dense
	Labels   []int
}

// New builds a Dataset from row-major features.
func New(rows [][]float64, labels []int) (Dataset, error) {
	if len(rows) == 0 {
		return Dataset{}, fmt.Errorf("dataset: no rows: %w", profit.ErrEmptyInput)
	}
	cols := len(rows[0])
	if cols == 0 {
		return Dataset{}, fmt.Errorf("dataset: no feature columns: %w", profit.ErrEmptyInput)
	}

	data := make([]float64, 0, len(rows)*cols)
	for i, row := range rows {
		if len(row) != cols {
			return Dataset{}, fmt.Errorf("dataset: row %d has %d columns, want %d: %w",
				i, len(row), cols, profit.ErrDimensionMismatch)
		}
		data = append(data, row...)
	}

	ds := Dataset{
		Features: mat.NewDense(len(rows), cols, data),
		Labels:   append([]int(nil), labels...),
	}
	if err := ds.Validate(); err != nil {
		return Dataset{}, err
	}
	return ds, nil
}

// Len returns the number of examples.
func (d Dataset) Len() int {
	return len(d.Labels)
}

// Cols returns the number of feature columns, or 0 without features.
func (d Dataset) Cols() int {
	if d.Features == nil {
		return 0
	}
	_, c := d.Features.Dims()
	return c
}

// Positives returns how many labels are 1.
func (d Dataset) Positives() int {
	n := 0
	for _, y := range d.Labels {
		n += y
	}
	return n
}

// Row returns a copy of row i.
func (d Dataset) Row(i int) []float64 {
	return mat.Row(nil, i, d.Features)
}

// Rows returns the features as row-major slices.
func (d Dataset) Rows() [][]float64 {
	r, _ := d.Features.Dims()
	rows := make([][]float64, r)
	for i := range rows {
		rows[i] = d.Row(i)
	}
	return rows
}

// Validate checks that features and labels are non-empty, aligned and that
// every label is 0 or 1.
func (d Dataset) Validate() error {
	if d.Features == nil || len(d.Labels) == 0 {
		return fmt.Errorf("dataset: %w", profit.ErrEmptyInput)
	}
	r, _ := d.Features.Dims()
	if r != len(d.Labels) {
		return fmt.Errorf("dataset: %d feature rows vs %d labels: %w", r, len(d.Labels), profit.ErrDimensionMismatch)
	}
	for i, y := range d.Labels {
		if y != 0 && y != 1 {
			return fmt.Errorf("dataset: label[%d]=%d: %w", i, y, profit.ErrInvalidLabel)
		}
	}
	return nil
}

// CheckCompatible verifies that train and test share a feature width.
func CheckCompatible(train, test Dataset) error {
	if err := train.Validate(); err != nil {
		return fmt.Errorf("train set: %w", err)
	}
	if err := test.Validate(); err != nil {
		return fmt.Errorf("test set: %w", err)
	}
	if train.Cols() != test.Cols() {
		return fmt.Errorf("train has %d features, test has %d: %w",
			train.Cols(), test.Cols(), profit.ErrDimensionMismatch)
	}
	return nil
}
