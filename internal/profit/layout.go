package profit

import "fmt"

// CostBenefit holds the payoff of each classification outcome arranged as
// [[TP, FP], [FN, TN]]: rows are predicted positive/negative, columns are
// actual positive/negative.
type CostBenefit [2][2]float64

// NewCostBenefit builds a matrix from the four outcome payoffs.
func NewCostBenefit(tp, fp, fn, tn float64) CostBenefit {
	return CostBenefit{{tp, fp}, {fn, tn}}
}

func (cb CostBenefit) TruePositive() float64  { return cb[0][0] }
func (cb CostBenefit) FalsePositive() float64 { return cb[0][1] }
func (cb CostBenefit) FalseNegative() float64 { return cb[1][0] }
func (cb CostBenefit) TrueNegative() float64  { return cb[1][1] }

// Counts are the four outcome counts for one threshold.
type Counts struct {
	TP int `json:"tp"`
	FP int `json:"fp"`
	FN int `json:"fn"`
	TN int `json:"tn"`
}

// Total returns the number of examples the counts cover.
func (c Counts) Total() int {
	return c.TP + c.FP + c.FN + c.TN
}

// Matrix returns the counts in the same cell order as CostBenefit.
func (c Counts) Matrix() [2][2]int {
	return [2][2]int{{c.TP, c.FP}, {c.FN, c.TN}}
}

// Payoff multiplies every count by its matching cost-benefit cell and sums the
// products. The result is a total, not a per-example value.
func (c Counts) Payoff(cb CostBenefit) float64 {
	m := c.Matrix()
	var total float64
	for i := range m {
		for j := range m[i] {
			total += float64(m[i][j]) * cb[i][j]
		}
	}
	return total
}

// demote moves one example from the predicted-positive side to the
// predicted-negative side.
func (c Counts) demote(label int) Counts {
	if label == 1 {
		c.TP--
		c.FN++
	} else {
		c.FP--
		c.TN++
	}
	return c
}

// Layout counts outcomes for aligned actual and predicted label vectors and
// returns them in CostBenefit order.
func Layout(actual, predicted []int) (Counts, error) {
	std, err := standardMatrix(actual, predicted)
	if err != nil {
		return Counts{}, err
	}

	// std is [actual][predicted]: [[TN, FP], [FN, TP]].
	return Counts{
		TP: std[1][1],
		FP: std[0][1],
		FN: std[1][0],
		TN: std[0][0],
	}, nil
}

func standardMatrix(actual, predicted []int) ([2][2]int, error) {
	var m [2][2]int
	if len(actual) == 0 || len(predicted) == 0 {
		return m, fmt.Errorf("confusion layout: %w", ErrEmptyInput)
	}
	if len(actual) != len(predicted) {
		return m, fmt.Errorf("confusion layout: %d actual vs %d predicted labels: %w",
			len(actual), len(predicted), ErrDimensionMismatch)
	}
	for i := range actual {
		a, p := actual[i], predicted[i]
		if !isLabel(a) {
			return m, fmt.Errorf("confusion layout: actual[%d]=%d: %w", i, a, ErrInvalidLabel)
		}
		if !isLabel(p) {
			return m, fmt.Errorf("confusion layout: predicted[%d]=%d: %w", i, p, ErrInvalidLabel)
		}
		m[a][p]++
	}
	return m, nil
}

// Predict applies the decision rule: an example is positive iff its
// probability is at least the threshold.
func Predict(probabilities []float64, threshold float64) []int {
	out := make([]int, len(probabilities))
	for i, p := range probabilities {
		if p >= threshold {
			out[i] = 1
		}
	}
	return out
}

func isLabel(v int) bool {
	return v == 0 || v == 1
}
