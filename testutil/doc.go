// Package testutil provides helpers for clustering tests.
//
// This package is intended for use in tests only. It generates clustered
// observation matrices and computes single-process reference updates that
// distributed runs are checked against.
//
//	x := testutil.ClusteredMatrix(rng.New(1), 120, 4, 3, 0.5)
//	want := testutil.LloydStep(x, initial)
package testutil
