// Package testing provides standardised tests and benchmarks for
// performance database implementations that satisfy the db.IPerfDB interface.
//
// The package contains:
//   - testing: A test suite for validating conformance to the IPerfDB contract,
//     including the on-disk format (in place overwrite, rewrite, append),
//     merge semantics of UpdateRecord and the handling of malformed lines
//   - benchmark: Performance tests for the common database operations
//
// Every test and benchmark works on its own file in a temp directory, so the
// factory receives the path of the database file.
//
// Example usage:
//
//	// Creating a factory function for your implementation
//	factory := func(path string) db.IPerfDB {
//		return NewMyDatabase(path)
//	}
//
//	// Running the standard test suite
//	dbtesting.RunPerfDBTests(t, "MyDatabase", factory)
//
//	// Running performance benchmarks
//	dbtesting.RunPerfDBBenchmarks(b, "MyDatabase", factory)
package testing
