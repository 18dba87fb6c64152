package util

import "math"

// ----------------------------------------------------------------------------
// Stats
// ----------------------------------------------------------------------------

// Stats summarizes a list of samples, e.g. the number of pairs per record.
type Stats struct {
	StdDeviation float64 `json:"std_deviation"`
	Min          float64 `json:"min"`
	Max          float64 `json:"max"`
	Mean         float64 `json:"mean"`
}

// NewStats computes the population statistics of values.
// An empty list results in zero Stats.
func NewStats(values []float64) Stats {
	if len(values) == 0 {
		return Stats{}
	}

	s := Stats{Min: values[0], Max: values[0]}
	var sum float64
	for _, v := range values {
		sum += v
		s.Min = math.Min(s.Min, v)
		s.Max = math.Max(s.Max, v)
	}
	s.Mean = sum / float64(len(values))

	var squares float64
	for _, v := range values {
		squares += (v - s.Mean) * (v - s.Mean)
	}
	s.StdDeviation = math.Sqrt(squares / float64(len(values)))
	return s
}

// ----------------------------------------------------------------------------
// LineHistogram
// ----------------------------------------------------------------------------

// lineBoundaries are the upper bounds (bytes, inclusive) of the histogram
// buckets. Lines longer than the last bound share one overflow bucket.
var lineBoundaries = []int{
	16, 32, 64, 128, 256, 512, // typical record lines
	1024, 2048, 4096, 8192, // records with many solvers
	16384, 65536, 262144, 1048576, // encoded structs
}

// LineHistogram records the sizes of the lines of a database file in
// exponentially growing buckets. The smallest and largest line are tracked
// exactly, percentiles are estimated from the buckets.
//
// Not safe for concurrent use, it is filled by a single scan.
type LineHistogram struct {
	buckets  []int64
	count    int64
	sum      int64
	shortest int
	longest  int
}

func NewLineHistogram() *LineHistogram {
	return &LineHistogram{
		buckets: make([]int64, len(lineBoundaries)+1),
	}
}

// Add records one line of size bytes (including its terminator).
func (h *LineHistogram) Add(size int) {
	i := len(lineBoundaries)
	for b, bound := range lineBoundaries {
		if size <= bound {
			i = b
			break
		}
	}
	h.buckets[i]++

	if h.count == 0 || size < h.shortest {
		h.shortest = size
	}
	if size > h.longest {
		h.longest = size
	}
	h.count++
	h.sum += int64(size)
}

func (h *LineHistogram) Count() int64 {
	return h.count
}

// Mean returns the average line size, 0 for an empty histogram.
func (h *LineHistogram) Mean() int {
	if h.count == 0 {
		return 0
	}
	return int(h.sum / h.count)
}

// Shortest and Longest return the exact extremes.
func (h *LineHistogram) Shortest() int { return h.shortest }
func (h *LineHistogram) Longest() int  { return h.longest }

// Percentile estimates the size below which p percent (0-100) of the lines
// fall. The estimate is the middle of the bucket, clamped to the exact
// shortest and longest line. p 0 and 100 are the exact extremes.
func (h *LineHistogram) Percentile(p int) int {
	switch {
	case h.count == 0 || p < 0 || p > 100:
		return 0
	case p == 0:
		return h.shortest
	case p == 100:
		return h.longest
	}

	target := int64(math.Ceil(float64(h.count) * float64(p) / 100))
	var seen int64
	for i, n := range h.buckets {
		seen += n
		if seen < target {
			continue
		}
		var estimate int
		switch {
		case i == 0:
			estimate = lineBoundaries[0] / 2
		case i == len(lineBoundaries):
			estimate = h.longest
		default:
			estimate = (lineBoundaries[i-1] + lineBoundaries[i]) / 2
		}
		return min(max(estimate, h.shortest), h.longest)
	}
	return h.longest
}

func (h *LineHistogram) Median() int {
	return h.Percentile(50)
}
