package verify

import (
	"errors"
	"fmt"
	"math"
)

var ErrSizeMismatch = errors.New("verify: tensors differ in size")

func checkSizes(ref, out []float64) error {
	if len(ref) != len(out) {
		return fmt.Errorf("%w: %d vs %d", ErrSizeMismatch, len(ref), len(out))
	}
	return nil
}

// RMSRange returns the root mean square of the difference normalized by the
// largest magnitude of both tensors:
//
//	sqrt(sum((a-b)^2)) / (sqrt(n) * max(max|a|, max|b|))
//
// Two all-zero (or empty) tensors have a distance of 0.
func RMSRange(ref, out []float64) (float64, error) {
	if err := checkSizes(ref, out); err != nil {
		return 0, err
	}
	var sum, mag float64
	for i := range ref {
		d := ref[i] - out[i]
		sum += d * d
		mag = math.Max(mag, math.Max(math.Abs(ref[i]), math.Abs(out[i])))
	}
	if mag == 0 {
		return 0, nil
	}
	return math.Sqrt(sum) / (math.Sqrt(float64(len(ref))) * mag), nil
}

// MaxAbsDiff returns the largest absolute element difference and its index
// (-1 for empty tensors).
func MaxAbsDiff(ref, out []float64) (float64, int, error) {
	if err := checkSizes(ref, out); err != nil {
		return 0, -1, err
	}
	maxDiff, idx := 0.0, -1
	for i := range ref {
		if d := math.Abs(ref[i] - out[i]); d > maxDiff || idx < 0 {
			maxDiff, idx = d, i
		}
	}
	return maxDiff, idx, nil
}

// Tolerance is an element wise tolerance: |a-b| <= Abs + Rel*|a|.
type Tolerance struct {
	Abs float64
	Rel float64
}

func (t Tolerance) accepts(ref, out float64) bool {
	if math.IsNaN(ref) || math.IsNaN(out) {
		return false
	}
	return math.Abs(ref-out) <= t.Abs+t.Rel*math.Abs(ref)
}

// Report is the result of Compare.
type Report struct {
	Elements      int
	Mismatches    int
	FirstMismatch int // -1 if all elements match
	MaxAbsDiff    float64
	RMS           float64
}

func (r Report) Passed() bool {
	return r.Mismatches == 0
}

func (r Report) String() string {
	if r.Passed() {
		return fmt.Sprintf("passed: %d elements, max abs diff %g, rms %g", r.Elements, r.MaxAbsDiff, r.RMS)
	}
	return fmt.Sprintf("failed: %d of %d elements mismatch (first at %d), max abs diff %g, rms %g",
		r.Mismatches, r.Elements, r.FirstMismatch, r.MaxAbsDiff, r.RMS)
}

// Compare checks out against the reference element wise.
func Compare(ref, out []float64, tol Tolerance) (Report, error) {
	report := Report{Elements: len(ref), FirstMismatch: -1}
	var err error
	if report.RMS, err = RMSRange(ref, out); err != nil {
		return Report{}, err
	}
	if report.MaxAbsDiff, _, err = MaxAbsDiff(ref, out); err != nil {
		return Report{}, err
	}
	for i := range ref {
		if tol.accepts(ref[i], out[i]) {
			continue
		}
		if report.FirstMismatch < 0 {
			report.FirstMismatch = i
		}
		report.Mismatches++
	}
	return report, nil
}
