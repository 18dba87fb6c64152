// Package verify provides what a host (CPU) reference needs to check the
// output of a tuned kernel: a tensor shape descriptor and numeric comparison
// of a result against the reference.
//
// The reference computations themselves are not part of this package.
//
//	report, err := verify.Compare(ref, out, verify.Tolerance{Abs: 1e-6, Rel: 1e-3})
//	if err == nil && !report.Passed() {
//	    // the stored PerfConfig produced wrong results
//	}
package verify
