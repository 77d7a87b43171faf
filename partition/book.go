package partition

// PartitionBook is a total mapping from a dense global entity id space
// [0, N) to owning shard indices. Lookups are array indexing.
//
// Two books exist per entity type at runtime: the authoritative topology
// book produced by partitioning, and a derived feature-lookup book with
// cached ids patched to the local shard (see MergeFeatureCache). The
// topology book is never patched; Patch is only ever applied to a Clone.
type PartitionBook []uint32

// NewPartitionBook returns a book of the given length with every id
// assigned to shard 0.
func NewPartitionBook(n int64) PartitionBook {
	return make(PartitionBook, n)
}

// Len returns the number of ids the book covers.
func (b PartitionBook) Len() int64 { return int64(len(b)) }

// Shard returns the owning shard of a global id.
func (b PartitionBook) Shard(id int64) uint32 { return b[id] }

// Lookup returns the owning shard of every id, in order.
func (b PartitionBook) Lookup(ids []int64) []uint32 {
	out := make([]uint32, len(ids))
	for i, id := range ids {
		out[i] = b[id]
	}
	return out
}

// Patch overwrites the shard assignment for the given ids in place.
// Callers must only patch derived copies, never the topology book.
func (b PartitionBook) Patch(ids []int64, shard uint32) {
	for _, id := range ids {
		b[id] = shard
	}
}

// Clone returns an independent copy of the book.
func (b PartitionBook) Clone() PartitionBook {
	out := make(PartitionBook, len(b))
	copy(out, b)
	return out
}

// Counts returns how many ids each shard owns.
func (b PartitionBook) Counts(numParts int) []int64 {
	counts := make([]int64, numParts)
	for _, s := range b {
		counts[s]++
	}
	return counts
}
