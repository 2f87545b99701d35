// Package report joins per-model profit curves into one table and renders
// the outcome of a selection as CSV, JSON and plain text.
package report

import (
	"errors"
	"fmt"
	"math"
	"slices"
	"sort"

	"churn-profit/internal/ml"
	"churn-profit/internal/profit"

	"github.com/rs/zerolog/log"
	"gonum.org/v1/gonum/stat"
)

var (
	// ErrNoResults is returned when there is nothing to aggregate.
	ErrNoResults = errors.New("no results to aggregate")
	// ErrInvalidGrid is returned for grids that are empty, unsorted or outside [0,1].
	ErrInvalidGrid = errors.New("invalid threshold grid")
)

// Table is a joint threshold/profit table with one profit column per model.
type Table struct {
	// Reference names the model whose thresholds form the axis. Empty for
	// tables built on a shared grid.
	Reference  string
	Thresholds []float64
	Models     []string
	// Profits[m][row] is model m's profit on that row; NaN pads short series.
	Profits [][]float64
	// Misaligned is set when some model's own thresholds differ from the
	// axis, meaning its column is positional rather than threshold-matched.
	Misaligned bool
}

// Rows returns the number of table rows.
func (t Table) Rows() int {
	return len(t.Thresholds)
}

// Column returns the profit column of model.
func (t Table) Column(model string) ([]float64, bool) {
	for i, m := range t.Models {
		if m == model {
			return t.Profits[i], true
		}
	}
	return nil, false
}

// Aggregate lays every result against the first result's threshold axis.
// Each model's profits are placed positionally, in the order of its own
// thresholds, and are not resampled. The table has as many rows as the
// longest curve; missing cells, including axis cells past the reference
// curve, are NaN.
func Aggregate(results []ml.ModelResult) (Table, error) {
	if len(results) == 0 {
		return Table{}, ErrNoResults
	}

	ref := results[0]
	rows := 0
	for _, r := range results {
		rows = max(rows, r.Curve.Len())
	}

	table := Table{
		Reference:  ref.ModelID,
		Thresholds: padded(ref.Curve.Thresholds, rows),
		Models:     make([]string, len(results)),
		Profits:    make([][]float64, len(results)),
	}
	for i, r := range results {
		table.Models[i] = r.ModelID
		table.Profits[i] = padded(r.Curve.Profits, rows)
		if i > 0 && !slices.Equal(ref.Curve.Thresholds, r.Curve.Thresholds) {
			table.Misaligned = true
		}
	}

	if table.Misaligned {
		log.Warn().
			Str("reference", ref.ModelID).
			Int("models", len(results)).
			Msg("Models have different threshold sets; profits are reported against the reference axis positionally")
	}
	return table, nil
}

// AggregateOnGrid resamples every curve onto grid with Curve.ProfitAt, so
// each row compares all models at the same threshold.
func AggregateOnGrid(results []ml.ModelResult, grid []float64) (Table, error) {
	if len(results) == 0 {
		return Table{}, ErrNoResults
	}
	if err := validateGrid(grid); err != nil {
		return Table{}, err
	}

	table := Table{
		Thresholds: append([]float64(nil), grid...),
		Models:     make([]string, len(results)),
		Profits:    make([][]float64, len(results)),
	}
	for i, r := range results {
		table.Models[i] = r.ModelID
		col := make([]float64, len(grid))
		for j, t := range grid {
			p, ok := r.Curve.ProfitAt(t)
			if !ok {
				p = math.NaN()
			}
			col[j] = p
		}
		table.Profits[i] = col
	}
	return table, nil
}

// UniformGrid returns steps evenly spaced thresholds from 0 to 1 inclusive.
func UniformGrid(steps int) ([]float64, error) {
	if steps < 2 {
		return nil, fmt.Errorf("%w: need at least 2 steps, got %d", ErrInvalidGrid, steps)
	}
	grid := make([]float64, steps)
	for i := range grid {
		grid[i] = float64(i) / float64(steps-1)
	}
	grid[steps-1] = profit.Sentinel
	return grid, nil
}

// PercentileGrid places thresholds at evenly spaced empirical quantiles of
// scores, collapsing duplicates and closing the grid with the sentinel.
func PercentileGrid(scores []float64, steps int) ([]float64, error) {
	if steps < 2 {
		return nil, fmt.Errorf("%w: need at least 2 steps, got %d", ErrInvalidGrid, steps)
	}
	if len(scores) == 0 {
		return nil, fmt.Errorf("%w: no scores", ErrInvalidGrid)
	}

	sorted := append([]float64(nil), scores...)
	sort.Float64s(sorted)
	if sorted[0] < 0 || sorted[len(sorted)-1] > profit.Sentinel || math.IsNaN(sorted[0]) {
		return nil, fmt.Errorf("%w: scores must lie in [0,1]", ErrInvalidGrid)
	}

	grid := make([]float64, 0, steps+1)
	for i := 0; i < steps; i++ {
		q := stat.Quantile(float64(i)/float64(steps-1), stat.Empirical, sorted, nil)
		if len(grid) == 0 || q > grid[len(grid)-1] {
			grid = append(grid, q)
		}
	}
	if grid[len(grid)-1] < profit.Sentinel {
		grid = append(grid, profit.Sentinel)
	}
	return grid, nil
}

// PooledThresholds collects the distinct curve thresholds of all results,
// without the sentinel, as input for PercentileGrid.
func PooledThresholds(results []ml.ModelResult) []float64 {
	var pooled []float64
	for _, r := range results {
		for _, t := range r.Curve.Thresholds {
			if t < profit.Sentinel {
				pooled = append(pooled, t)
			}
		}
	}
	return pooled
}

func validateGrid(grid []float64) error {
	if len(grid) == 0 {
		return fmt.Errorf("%w: empty", ErrInvalidGrid)
	}
	for i, t := range grid {
		if math.IsNaN(t) || t < 0 || t > profit.Sentinel {
			return fmt.Errorf("%w: threshold %v outside [0,1]", ErrInvalidGrid, t)
		}
		if i > 0 && t <= grid[i-1] {
			return fmt.Errorf("%w: thresholds must be strictly ascending", ErrInvalidGrid)
		}
	}
	return nil
}

func padded(values []float64, n int) []float64 {
	out := make([]float64, n)
	copy(out, values)
	for i := len(values); i < n; i++ {
		out[i] = math.NaN()
	}
	return out
}
