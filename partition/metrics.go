package partition

import (
	"sync/atomic"
	"time"
)

// Collector receives partitioning and load measurements. Implementations
// must be safe for concurrent use; all methods are called from worker
// goroutines.
type Collector interface {
	// RecordNodePartition is called once per node type after its
	// assignment, cache selection and feature shards are written.
	RecordNodePartition(ntype NodeType, numNodes int64, d time.Duration, err error)

	// RecordEdgePartition is called once per edge type after its topology
	// shards, book and feature shards are written.
	RecordEdgePartition(etype EdgeType, numEdges int64, d time.Duration, err error)

	// RecordLoad is called once per LoadPartition call.
	RecordLoad(shard int, d time.Duration, err error)
}

// NoopCollector discards all measurements.
type NoopCollector struct{}

func (NoopCollector) RecordNodePartition(NodeType, int64, time.Duration, error) {}
func (NoopCollector) RecordEdgePartition(EdgeType, int64, time.Duration, error) {}
func (NoopCollector) RecordLoad(int, time.Duration, error)                      {}

// BasicCollector keeps running totals with atomic counters. Useful for
// tests and for processes that want cheap in-memory stats without an
// exporter.
type BasicCollector struct {
	NodesAssigned    atomic.Int64
	EdgesAssigned    atomic.Int64
	NodeTypeFailures atomic.Int64
	EdgeTypeFailures atomic.Int64
	Loads            atomic.Int64
	LoadFailures     atomic.Int64
}

func (c *BasicCollector) RecordNodePartition(_ NodeType, n int64, _ time.Duration, err error) {
	if err != nil {
		c.NodeTypeFailures.Add(1)
		return
	}
	c.NodesAssigned.Add(n)
}

func (c *BasicCollector) RecordEdgePartition(_ EdgeType, n int64, _ time.Duration, err error) {
	if err != nil {
		c.EdgeTypeFailures.Add(1)
		return
	}
	c.EdgesAssigned.Add(n)
}

func (c *BasicCollector) RecordLoad(_ int, _ time.Duration, err error) {
	c.Loads.Add(1)
	if err != nil {
		c.LoadFailures.Add(1)
	}
}
