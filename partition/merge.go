package partition

import (
	"fmt"

	"github.com/hupe1980/graphpart/tensor"
)

// MergedFeatures is one shard's feature partition after folding its cache
// into a single contiguous tensor.
//
// Row layout is a compatibility contract: the C cache rows come first (in
// their stored order), the O owned rows follow, so downstream consumers
// that derived local indices from an earlier merge need not recompute
// them when the cache is unchanged.
type MergedFeatures struct {
	// CacheRatio is C / (C + O), reported for diagnostics.
	CacheRatio float64

	// Feats holds all C+O rows.
	Feats *tensor.Matrix

	// ID2Index maps a global id to its row in Feats. It is sized
	// max(id)+1; entries for ids absent from this partition are
	// meaningless and must not be read.
	ID2Index []int64

	// Book is the feature-lookup partition book: the input book with every
	// cache id patched to the merging shard. When no cache exists it is
	// the input book itself (same backing array, no copy).
	Book PartitionBook
}

// MergeFeatureCache combines a shard's owned feature rows with its
// replicated cache rows.
//
// The input book is never mutated: the patched feature book is a copy.
// Topology routing must keep using the original book, since a cached
// node's edges still live on its owning shard; only its feature row is
// local.
func MergeFeatureCache(shard uint32, fp *FeaturePartition, book PartitionBook) (*MergedFeatures, error) {
	if fp == nil {
		return nil, fmt.Errorf("partition: nil feature partition")
	}

	if !fp.HasCache() {
		return &MergedFeatures{
			CacheRatio: 0,
			Feats:      fp.Feats,
			ID2Index:   buildID2Index(nil, fp.IDs),
			Book:       book,
		}, nil
	}

	if !disjoint(fp.IDs, fp.CacheIDs) {
		return nil, fmt.Errorf("partition: cache ids overlap owned ids for shard %d", shard)
	}

	feats, err := tensor.Concat(fp.CacheFeats, fp.Feats)
	if err != nil {
		return nil, err
	}

	feedBook := book.Clone()
	feedBook.Patch(fp.CacheIDs, shard)

	c := len(fp.CacheIDs)
	o := len(fp.IDs)
	return &MergedFeatures{
		CacheRatio: float64(c) / float64(c+o),
		Feats:      feats,
		ID2Index:   buildID2Index(fp.CacheIDs, fp.IDs),
		Book:       feedBook,
	}, nil
}

// buildID2Index returns a dense id → local row index map for cache ids
// (rows [0, C)) followed by owned ids (rows [C, C+O)). Sized max(id)+1;
// ids are dense per construction, so the max-id sizing is proportional to
// the entity count, not wasteful.
func buildID2Index(cacheIDs, ids []int64) []int64 {
	var maxID int64 = -1
	for _, id := range cacheIDs {
		maxID = max(maxID, id)
	}
	for _, id := range ids {
		maxID = max(maxID, id)
	}

	id2idx := make([]int64, maxID+1)
	for i, id := range cacheIDs {
		id2idx[id] = int64(i)
	}
	for i, id := range ids {
		id2idx[id] = int64(len(cacheIDs) + i)
	}
	return id2idx
}
