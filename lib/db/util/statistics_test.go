package util

import (
	"math"
	"testing"
)

func TestNewStats(t *testing.T) {
	if s := NewStats(nil); s != (Stats{}) {
		t.Errorf("Expected zero stats for no samples, got %+v", s)
	}

	s := NewStats([]float64{1, 2, 3, 4})
	if s.Min != 1 || s.Max != 4 {
		t.Errorf("Expected min 1 and max 4, got %+v", s)
	}
	if s.Mean != 2.5 {
		t.Errorf("Expected mean 2.5, got %v", s.Mean)
	}
	if math.Abs(s.StdDeviation-math.Sqrt(1.25)) > 1e-12 {
		t.Errorf("Expected std deviation %v, got %v", math.Sqrt(1.25), s.StdDeviation)
	}
}

func TestLineHistogram(t *testing.T) {
	h := NewLineHistogram()

	if h.Count() != 0 || h.Mean() != 0 || h.Median() != 0 {
		t.Errorf("Expected empty histogram")
	}

	for i := 0; i < 90; i++ {
		h.Add(20) // bucket (16, 32]
	}
	for i := 0; i < 10; i++ {
		h.Add(3000) // bucket (2048, 4096]
	}

	if h.Count() != 100 {
		t.Errorf("Expected 100 samples, got %d", h.Count())
	}
	if got := h.Mean(); got != (90*20+10*3000)/100 {
		t.Errorf("Expected mean %d, got %d", (90*20+10*3000)/100, got)
	}
	if h.Shortest() != 20 || h.Longest() != 3000 {
		t.Errorf("Expected extremes 20 and 3000, got %d and %d", h.Shortest(), h.Longest())
	}
	// bucket middle 24 is inside [20, 3000]
	if got := h.Median(); got != 24 {
		t.Errorf("Expected median estimate 24, got %d", got)
	}
	// bucket middle 3072 is clamped to the longest line
	if got := h.Percentile(99); got != 3000 {
		t.Errorf("Expected p99 estimate 3000, got %d", got)
	}
	if got := h.Percentile(95); got != 3000 {
		t.Errorf("Expected p95 estimate 3000, got %d", got)
	}
	if got := h.Percentile(101); got != 0 {
		t.Errorf("Expected 0 for an invalid percentile, got %d", got)
	}
}

func TestLineHistogramClampsToExtremes(t *testing.T) {
	h := NewLineHistogram()
	h.Add(6) // first bucket, middle is 8
	if got := h.Median(); got != 6 {
		t.Errorf("Expected estimate clamped to the only line, got %d", got)
	}

	h.Add(10 * 1024 * 1024)
	h.Add(10 * 1024 * 1024)
	if got := h.Percentile(90); got != 10*1024*1024 {
		t.Errorf("Expected the longest line for the overflow bucket, got %d", got)
	}
	if got := h.Percentile(0); got != 6 {
		t.Errorf("Expected the shortest line for p0, got %d", got)
	}
}
