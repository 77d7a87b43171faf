package partition

import (
	"fmt"

	"github.com/RoaringBitmap/roaring/v2/roaring64"
)

// validateAssignment checks that a node assignment is a partition of
// [0, numNodes): every id appears in exactly one shard list and the book
// agrees with the lists.
func validateAssignment(ntype NodeType, a *Assignment, numNodes int64, numParts int) error {
	if len(a.PerShard) != numParts {
		return fmt.Errorf("partition: assigner returned %d shard lists, want %d", len(a.PerShard), numParts)
	}
	if a.Book.Len() != numNodes {
		return &ShapeError{What: "partition book", Key: ntype, Want: numNodes, Got: a.Book.Len()}
	}

	seen := roaring64.New()
	var total uint64
	for pidx, ids := range a.PerShard {
		for _, id := range ids {
			if id < 0 || id >= numNodes {
				return fmt.Errorf("partition: assigner produced id %d outside [0, %d) for %q", id, numNodes, ntype)
			}
			if a.Book[id] != uint32(pidx) {
				return fmt.Errorf("partition: book disagrees with shard list for id %d of %q: book says %d, list says %d",
					id, ntype, a.Book[id], pidx)
			}
			seen.Add(uint64(id))
			total++
		}
	}
	if seen.GetCardinality() != uint64(numNodes) || total != uint64(numNodes) {
		return &CoverageError{NodeType: ntype, Want: uint64(numNodes), Got: seen.GetCardinality(), Total: total}
	}
	return nil
}

// validateCache checks that per-shard cache id lists only name remote ids
// (disjoint from the shard's owned set).
func validateCache(ntype NodeType, a *Assignment, cacheIDs [][]int64) error {
	for pidx, ids := range cacheIDs {
		for _, id := range ids {
			if id < 0 || id >= a.Book.Len() {
				return fmt.Errorf("partition: cache selector produced id %d outside [0, %d) for %q", id, a.Book.Len(), ntype)
			}
			if a.Book[id] == uint32(pidx) {
				return fmt.Errorf("partition: cache selector picked locally owned id %d for shard %d of %q", id, pidx, ntype)
			}
		}
	}
	return nil
}

// disjoint reports whether the two id sets share no element.
func disjoint(a, b []int64) bool {
	set := roaring64.New()
	for _, id := range a {
		set.Add(uint64(id))
	}
	for _, id := range b {
		if set.Contains(uint64(id)) {
			return false
		}
	}
	return true
}
