package partition

import (
	"context"
	"sort"
)

// CacheSelector is the second policy hook: it picks, per shard, "hot"
// remote node ids whose feature rows should be replicated locally so
// training-time lookups skip a network round trip. Returning nil means no
// caching for that node type.
//
// Only node features are ever cached; edge features are read once per
// epoch and replicating them buys little.
type CacheSelector interface {
	// Name identifies the policy in logs.
	Name() string

	// SelectCache returns, for each shard, node ids NOT owned by that
	// shard whose features should be replicated there. A nil outer slice
	// disables caching entirely; individual entries may also be nil.
	SelectCache(ctx context.Context, in *Input, ntype NodeType, a *Assignment, numParts int) ([][]int64, error)
}

// NoCacheSelector disables feature caching. This is the default.
type NoCacheSelector struct{}

// Name implements CacheSelector.
func (NoCacheSelector) Name() string { return "none" }

// SelectCache implements CacheSelector.
func (NoCacheSelector) SelectCache(context.Context, *Input, NodeType, *Assignment, int) ([][]int64, error) {
	return nil, nil
}

// TopDegreeCacheSelector replicates the highest in-degree remote nodes on
// every shard. In-degree is how often a node appears as an edge
// destination; in neighbor sampling those are exactly the feature rows
// fetched most often.
type TopDegreeCacheSelector struct {
	// Ratio is the cache budget per shard as a fraction of the shard's
	// owned node count, e.g. 0.2 caches up to 20% extra rows.
	Ratio float64
}

// Name implements CacheSelector.
func (TopDegreeCacheSelector) Name() string { return "top-degree" }

// SelectCache implements CacheSelector.
func (s TopDegreeCacheSelector) SelectCache(ctx context.Context, in *Input, ntype NodeType, a *Assignment, numParts int) ([][]int64, error) {
	if s.Ratio <= 0 {
		return nil, nil
	}

	n, err := in.NumNodes(ntype)
	if err != nil {
		return nil, err
	}

	indeg, err := nodeInDegrees(in, ntype, n)
	if err != nil {
		return nil, err
	}

	// Hot ids, most referenced first, ties broken by id for determinism.
	hot := make([]int64, n)
	for i := range hot {
		hot[i] = int64(i)
	}
	sort.SliceStable(hot, func(i, j int) bool { return indeg[hot[i]] > indeg[hot[j]] })

	res := make([][]int64, numParts)
	for pidx := 0; pidx < numParts; pidx++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		budget := int(float64(len(a.PerShard[pidx])) * s.Ratio)
		if budget == 0 {
			continue
		}
		ids := make([]int64, 0, budget)
		for _, id := range hot {
			if len(ids) == budget {
				break
			}
			if indeg[id] == 0 {
				break // remaining candidates are never referenced
			}
			if a.Book[id] == uint32(pidx) {
				continue // already local
			}
			ids = append(ids, id)
		}
		if len(ids) > 0 {
			res[pidx] = ids
		}
	}
	return res, nil
}

// nodeInDegrees counts, per node of the given type, how many edges point
// at it.
func nodeInDegrees(in *Input, ntype NodeType, numNodes int64) ([]int64, error) {
	indeg := make([]int64, numNodes)
	for _, et := range in.edgeKeys() {
		if in.Hetero() && et.Dst != ntype {
			continue
		}
		index, err := in.EdgeIndexOf(et)
		if err != nil {
			return nil, err
		}
		for _, id := range index.Cols {
			indeg[id]++
		}
	}
	return indeg, nil
}
