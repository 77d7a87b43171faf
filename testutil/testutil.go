package testutil

import (
	"math/rand"
	"sync"

	"github.com/hupe1980/graphpart/partition"
	"github.com/hupe1980/graphpart/tensor"
)

// RNG struct encapsulates the random number generator and seed.
// It is thread-safe.
type RNG struct {
	rand *rand.Rand
	seed int64
	mu   sync.Mutex
}

// NewRNG creates a new RNG instance with the specified seed.
func NewRNG(seed int64) *RNG {
	return &RNG{
		rand: rand.New(rand.NewSource(seed)),
		seed: seed,
	}
}

// Reset resets the RNG to its initial seed.
func (r *RNG) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.rand.Seed(r.seed)
}

// Int63n returns a pseudo-random int64 in [0, n).
func (r *RNG) Int63n(n int64) int64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.rand.Int63n(n)
}

// RandomGraph generates a directed graph with numNodes nodes and
// numEdges uniformly random edges. Self loops and duplicate edges are
// allowed; every node id appears in range [0, numNodes).
func (r *RNG) RandomGraph(numNodes, numEdges int64) partition.EdgeIndex {
	r.mu.Lock()
	defer r.mu.Unlock()

	rows := make([]int64, numEdges)
	cols := make([]int64, numEdges)
	for i := range rows {
		rows[i] = r.rand.Int63n(numNodes)
		cols[i] = r.rand.Int63n(numNodes)
	}
	return partition.EdgeIndex{Rows: rows, Cols: cols}
}

// Features generates a rows x dim matrix with uniform values in [0, 1).
// Uses a single backing array for efficiency.
func (r *RNG) Features(rows, dim int) *tensor.Matrix {
	r.mu.Lock()
	defer r.mu.Unlock()

	m := tensor.NewMatrix(rows, dim)
	for i := range m.Data {
		m.Data[i] = r.rand.Float32()
	}
	return m
}

// RingGraph builds the directed ring 0->1->...->n-1->0.
func RingGraph(n int64) partition.EdgeIndex {
	rows := make([]int64, n)
	cols := make([]int64, n)
	for i := int64(0); i < n; i++ {
		rows[i] = i
		cols[i] = (i + 1) % n
	}
	return partition.EdgeIndex{Rows: rows, Cols: cols}
}

// RowIDFeatures builds a rows x dim matrix where every cell of row i
// holds float32(i). Lets tests verify gathers by inspecting any column.
func RowIDFeatures(rows, dim int) *tensor.Matrix {
	m := tensor.NewMatrix(rows, dim)
	for i := 0; i < rows; i++ {
		row := m.Data[i*dim : (i+1)*dim]
		for j := range row {
			row[j] = float32(i)
		}
	}
	return m
}

// StarGraph builds a graph where every node 1..n-1 points at node 0.
// Node 0 has in-degree n-1, all others in-degree 0. Useful for cache
// selection tests that need one clearly hot node.
func StarGraph(n int64) partition.EdgeIndex {
	rows := make([]int64, n-1)
	cols := make([]int64, n-1)
	for i := int64(1); i < n; i++ {
		rows[i-1] = i
		cols[i-1] = 0
	}
	return partition.EdgeIndex{Rows: rows, Cols: cols}
}
