// Package profit turns predicted probabilities into expected profit per example
// across every distinguishing decision threshold.
//
// The package is pure: nothing here logs, allocates shared state or mutates its
// inputs. Callers supply a CostBenefit matrix once per run and receive a Curve
// whose thresholds are sorted ascending.
package profit

import "errors"

var (
	// ErrDimensionMismatch is returned when aligned vectors differ in length.
	ErrDimensionMismatch = errors.New("dimension mismatch")
	// ErrInvalidLabel is returned when a label is not 0 or 1.
	ErrInvalidLabel = errors.New("invalid label")
	// ErrEmptyInput is returned for zero-length probability or label vectors.
	ErrEmptyInput = errors.New("empty input")
	// ErrInvalidProbability is returned for scores that are NaN or outside [0,1].
	ErrInvalidProbability = errors.New("invalid probability")
)
