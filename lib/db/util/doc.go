// Package util provides statistics helpers used to describe the contents of
// a performance database file.
//
// The package contains:
//   - Stats: min, max, mean and standard deviation of a list of samples
//   - LineHistogram: the size distribution of record lines with exact
//     extremes and bucket based percentile estimates
package util
