package partition

import "github.com/hupe1980/graphpart/tensor"

// GraphPartition is one shard's slice of a (typed) edge list: three
// parallel arrays of equal length holding source ids, destination ids and
// the original global edge ids. Edge order equals input order restricted
// to the shard.
type GraphPartition struct {
	Rows []int64
	Cols []int64
	EIDs []int64
}

// Len returns the number of edges in the partition.
func (g *GraphPartition) Len() int64 { return int64(len(g.EIDs)) }

// FeaturePartition is one shard's slice of a feature tensor: the owned
// rows with their global ids, plus an optional replica of hot remote rows
// (the feature cache). Owned and cache id sets are disjoint.
type FeaturePartition struct {
	IDs   []int64
	Feats *tensor.Matrix

	// CacheIDs/CacheFeats are nil when no caching was requested.
	CacheIDs   []int64
	CacheFeats *tensor.Matrix
}

// HasCache reports whether the partition carries replicated cache rows.
func (f *FeaturePartition) HasCache() bool {
	return f != nil && f.CacheFeats != nil && len(f.CacheIDs) > 0
}
