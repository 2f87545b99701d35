package profit

import (
	"fmt"
	"math"
	"sort"
)

// Sentinel is the threshold appended so that "predict nothing positive" is
// always on the curve.
const Sentinel = 1.0

// Point is one (threshold, profit) pair of a curve.
type Point struct {
	Threshold float64 `json:"threshold"`
	Profit    float64 `json:"profit"`
}

// Curve is expected profit per example as a function of threshold.
// Thresholds are ascending and Profits[i] belongs to Thresholds[i].
type Curve struct {
	Thresholds []float64 `json:"thresholds"`
	Profits    []float64 `json:"profits"`
}

// Len returns the number of evaluated thresholds.
func (c Curve) Len() int {
	return len(c.Thresholds)
}

// Points returns the curve as pairs.
func (c Curve) Points() []Point {
	points := make([]Point, len(c.Thresholds))
	for i, t := range c.Thresholds {
		points[i] = Point{Threshold: t, Profit: c.Profits[i]}
	}
	return points
}

// Best returns the maximum-profit point. Ties go to the lowest threshold.
// ok is false for an empty curve.
func (c Curve) Best() (best Point, ok bool) {
	for i, p := range c.Profits {
		if !ok || p > best.Profit {
			best = Point{Threshold: c.Thresholds[i], Profit: p}
			ok = true
		}
	}
	return best, ok
}

// ProfitAt returns the profit of classifying with an arbitrary threshold t.
// No score lies strictly between two neighbouring curve thresholds, so t
// behaves like the smallest curve threshold that is >= t.
func (c Curve) ProfitAt(t float64) (float64, bool) {
	if math.IsNaN(t) || t < 0 || t > Sentinel {
		return 0, false
	}
	idx := sort.SearchFloat64s(c.Thresholds, t)
	if idx == len(c.Thresholds) {
		return 0, false
	}
	return c.Profits[idx], true
}

func (c *Curve) add(threshold, profit float64) {
	c.Thresholds = append(c.Thresholds, threshold)
	c.Profits = append(c.Profits, profit)
}

// ComputeCurve evaluates expected profit per example at every distinct score
// in probabilities, plus Sentinel when the top score is below it.
//
// Scores are sorted once; the sweep starts with every example predicted
// positive and demotes examples one at a time as the threshold passes their
// score, so the cost is O(N log N).
func ComputeCurve(cb CostBenefit, probabilities []float64, labels []int) (Curve, error) {
	n := len(probabilities)
	if n == 0 {
		return Curve{}, fmt.Errorf("compute curve: no probabilities: %w", ErrEmptyInput)
	}
	if n != len(labels) {
		return Curve{}, fmt.Errorf("compute curve: %d probabilities vs %d labels: %w",
			n, len(labels), ErrDimensionMismatch)
	}

	positives := 0
	for i, y := range labels {
		if !isLabel(y) {
			return Curve{}, fmt.Errorf("compute curve: label[%d]=%d: %w", i, y, ErrInvalidLabel)
		}
		positives += y
	}
	for i, p := range probabilities {
		if math.IsNaN(p) || p < 0 || p > 1 {
			return Curve{}, fmt.Errorf("compute curve: probability[%d]=%v: %w", i, p, ErrInvalidProbability)
		}
	}

	order := make([]int, n)
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		return probabilities[order[a]] < probabilities[order[b]]
	})

	total := float64(n)
	counts := Counts{TP: positives, FP: n - positives}
	curve := Curve{
		Thresholds: make([]float64, 0, n+1),
		Profits:    make([]float64, 0, n+1),
	}

	for i := 0; i < n; {
		t := probabilities[order[i]]
		curve.add(t, counts.Payoff(cb)/total)
		for i < n && probabilities[order[i]] == t {
			counts = counts.demote(labels[order[i]])
			i++
		}
	}

	if curve.Thresholds[curve.Len()-1] < Sentinel {
		curve.add(Sentinel, counts.Payoff(cb)/total)
	}

	return curve, nil
}
