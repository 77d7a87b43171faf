package partition

import (
	"container/heap"
	"context"
	"sort"
)

// Assignment is the result of a node-assignment policy for one node type:
// the ids owned by each shard and the book covering all ids exactly once.
type Assignment struct {
	PerShard [][]int64
	Book     PartitionBook
}

// NodeAssigner decides shard ownership for all nodes of one type. It is
// the first of the two policy hooks a Partitioner is parameterized by;
// the partitioning algorithm itself is policy-free.
type NodeAssigner interface {
	// Name identifies the policy in logs.
	Name() string

	// AssignNodes produces per-shard id lists and a partition book for the
	// given node type. The union of the lists must cover [0, NumNodes)
	// exactly once.
	AssignNodes(ctx context.Context, in *Input, ntype NodeType, numParts int) (*Assignment, error)
}

// RangeAssigner assigns contiguous id blocks to shards: ids
// [k*ceil(N/P), (k+1)*ceil(N/P)) go to shard k. Cheap and deterministic;
// the right choice when ids were ordered meaningfully upstream.
type RangeAssigner struct{}

// Name implements NodeAssigner.
func (RangeAssigner) Name() string { return "range" }

// AssignNodes implements NodeAssigner.
func (RangeAssigner) AssignNodes(_ context.Context, in *Input, ntype NodeType, numParts int) (*Assignment, error) {
	n, err := in.NumNodes(ntype)
	if err != nil {
		return nil, err
	}

	blockSize := (n + int64(numParts) - 1) / int64(numParts)
	a := &Assignment{
		PerShard: make([][]int64, numParts),
		Book:     NewPartitionBook(n),
	}
	for pidx := 0; pidx < numParts; pidx++ {
		start := min(int64(pidx)*blockSize, n)
		end := min(start+blockSize, n)
		ids := make([]int64, 0, end-start)
		for id := start; id < end; id++ {
			ids = append(ids, id)
			a.Book[id] = uint32(pidx)
		}
		a.PerShard[pidx] = ids
	}
	return a, nil
}

// HashAssigner assigns ids by a fingerprint of the id, spreading load
// uniformly with no regard for locality.
type HashAssigner struct {
	// Seed perturbs the fingerprint so distinct datasets shard differently.
	Seed uint64
}

// Name implements NodeAssigner.
func (HashAssigner) Name() string { return "hash" }

// AssignNodes implements NodeAssigner.
func (h HashAssigner) AssignNodes(_ context.Context, in *Input, ntype NodeType, numParts int) (*Assignment, error) {
	n, err := in.NumNodes(ntype)
	if err != nil {
		return nil, err
	}

	a := &Assignment{
		PerShard: make([][]int64, numParts),
		Book:     NewPartitionBook(n),
	}
	for id := int64(0); id < n; id++ {
		pidx := uint32(fingerprint64(uint64(id)^h.Seed) % uint64(numParts))
		a.Book[id] = pidx
		a.PerShard[pidx] = append(a.PerShard[pidx], id)
	}
	return a, nil
}

// fingerprint64 is the splitmix64 finalizer; a cheap, well-mixed, stable
// integer hash.
func fingerprint64(x uint64) uint64 {
	x += 0x9e3779b97f4a7c15
	x = (x ^ (x >> 30)) * 0xbf58476d1ce4e5b9
	x = (x ^ (x >> 27)) * 0x94d049bb133111eb
	return x ^ (x >> 31)
}

// DegreeBalancedAssigner balances shards by total degree rather than node
// count: nodes are placed greedily, heaviest first, onto the least loaded
// shard. Useful for power-law graphs where a handful of hubs dominate
// edge volume.
type DegreeBalancedAssigner struct{}

// Name implements NodeAssigner.
func (DegreeBalancedAssigner) Name() string { return "degree-balanced" }

// AssignNodes implements NodeAssigner.
func (DegreeBalancedAssigner) AssignNodes(ctx context.Context, in *Input, ntype NodeType, numParts int) (*Assignment, error) {
	n, err := in.NumNodes(ntype)
	if err != nil {
		return nil, err
	}

	deg, err := nodeDegrees(in, ntype, n)
	if err != nil {
		return nil, err
	}

	order := make([]int64, n)
	for i := range order {
		order[i] = int64(i)
	}
	sort.SliceStable(order, func(i, j int) bool { return deg[order[i]] > deg[order[j]] })

	a := &Assignment{
		PerShard: make([][]int64, numParts),
		Book:     NewPartitionBook(n),
	}

	loads := make(shardLoadHeap, numParts)
	for pidx := range loads {
		loads[pidx] = &shardLoad{shard: uint32(pidx)}
	}
	heap.Init(&loads)

	for i, id := range order {
		if i%65536 == 0 {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
		}
		least := loads[0]
		a.Book[id] = least.shard
		a.PerShard[least.shard] = append(a.PerShard[least.shard], id)
		// Weight 1+degree so isolated nodes still spread by count.
		least.load += 1 + deg[id]
		heap.Fix(&loads, 0)
	}

	// Keep per-shard lists in ascending id order like the other policies.
	for pidx := range a.PerShard {
		sort.Slice(a.PerShard[pidx], func(i, j int) bool {
			return a.PerShard[pidx][i] < a.PerShard[pidx][j]
		})
	}
	return a, nil
}

// nodeDegrees counts, per node of the given type, how many edge endpoints
// of any edge type touch it.
func nodeDegrees(in *Input, ntype NodeType, numNodes int64) ([]int64, error) {
	deg := make([]int64, numNodes)
	for _, et := range in.edgeKeys() {
		index, err := in.EdgeIndexOf(et)
		if err != nil {
			return nil, err
		}
		if !in.Hetero() || et.Src == ntype {
			for _, id := range index.Rows {
				deg[id]++
			}
		}
		if !in.Hetero() || et.Dst == ntype {
			for _, id := range index.Cols {
				deg[id]++
			}
		}
	}
	return deg, nil
}

type shardLoad struct {
	shard uint32
	load  int64
}

type shardLoadHeap []*shardLoad

func (h shardLoadHeap) Len() int { return len(h) }
func (h shardLoadHeap) Less(i, j int) bool {
	if h[i].load != h[j].load {
		return h[i].load < h[j].load
	}
	return h[i].shard < h[j].shard
}
func (h shardLoadHeap) Swap(i, j int)      { h[i], h[j] = h[j], h[i] }
func (h *shardLoadHeap) Push(x any)        { *h = append(*h, x.(*shardLoad)) }
func (h *shardLoadHeap) Pop() any {
	old := *h
	n := len(old)
	x := old[n-1]
	*h = old[:n-1]
	return x
}
