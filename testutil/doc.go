// Package testutil provides testing utilities for graphpart.
//
// This package is intended for use in tests and benchmarks only.
// It provides helpers for generating random graphs and feature matrices
// with deterministic, seedable randomness.
//
// # Random Graph Generation
//
//	rng := testutil.NewRNG(seed)
//	idx := rng.RandomGraph(1000, 5000)   // 1000 nodes, 5000 edges
//	feats := rng.Features(1000, 64)      // uniform [0, 1) features
//
// # Deterministic Fixtures
//
//	idx := testutil.RingGraph(6)          // 0->1->...->5->0
//	feats := testutil.RowIDFeatures(6, 4) // row i filled with float32(i)
package testutil
