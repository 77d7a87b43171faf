package partition

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/hupe1980/graphpart/blobstore"
)

// EdgeAssignStrategy selects which endpoint's owner an edge follows.
type EdgeAssignStrategy string

const (
	// AssignBySrc places each edge on the shard owning its source node.
	AssignBySrc EdgeAssignStrategy = "by_src"
	// AssignByDst places each edge on the shard owning its destination node.
	AssignByDst EdgeAssignStrategy = "by_dst"
)

// DefaultChunkSize bounds the per-iteration working set of the edge
// scatter loop.
const DefaultChunkSize = 10000

// Partitioner splits a graph dataset into a fixed number of shards and
// writes the result to a blob store in the partition directory layout.
type Partitioner struct {
	store       *Store
	in          *Input
	numParts    int
	assigner    NodeAssigner
	cacheSel    CacheSelector
	strategy    EdgeAssignStrategy
	chunkSize   int
	parallelism int
	logger      *slog.Logger
	collector   Collector
}

// PartitionerOption configures a Partitioner.
type PartitionerOption func(*Partitioner)

// WithAssigner overrides the node assignment policy. Defaults to
// RangeAssigner.
func WithAssigner(a NodeAssigner) PartitionerOption {
	return func(p *Partitioner) {
		if a != nil {
			p.assigner = a
		}
	}
}

// WithCacheSelector overrides the feature cache policy. Defaults to
// NoCacheSelector.
func WithCacheSelector(s CacheSelector) PartitionerOption {
	return func(p *Partitioner) {
		if s != nil {
			p.cacheSel = s
		}
	}
}

// WithEdgeAssignStrategy selects the endpoint edges follow. Defaults to
// AssignBySrc.
func WithEdgeAssignStrategy(s EdgeAssignStrategy) PartitionerOption {
	return func(p *Partitioner) { p.strategy = s }
}

// WithChunkSize overrides the edge scatter chunk size.
func WithChunkSize(n int) PartitionerOption {
	return func(p *Partitioner) {
		if n > 0 {
			p.chunkSize = n
		}
	}
}

// WithParallelism bounds the number of types partitioned concurrently.
// Zero or negative means no limit.
func WithParallelism(n int) PartitionerOption {
	return func(p *Partitioner) { p.parallelism = n }
}

// WithLogger sets the logger. Defaults to slog.Default.
func WithLogger(l *slog.Logger) PartitionerOption {
	return func(p *Partitioner) {
		if l != nil {
			p.logger = l
		}
	}
}

// WithCollector sets the metrics sink. Defaults to NoopCollector.
func WithCollector(c Collector) PartitionerOption {
	return func(p *Partitioner) {
		if c != nil {
			p.collector = c
		}
	}
}

// NewPartitioner prepares a run that splits in into numParts shards on
// bs. Store-level knobs (compression, rate limits) are passed through
// WithStoreOptions.
func NewPartitioner(bs blobstore.BlobStore, in *Input, numParts int, opts ...PartitionerOption) (*Partitioner, error) {
	if numParts <= 1 {
		return nil, fmt.Errorf("%w: got %d", ErrNumPartitions, numParts)
	}
	if in == nil {
		return nil, fmt.Errorf("input must not be nil")
	}

	p := &Partitioner{
		store:     NewStore(bs),
		in:        in,
		numParts:  numParts,
		assigner:  RangeAssigner{},
		cacheSel:  NoCacheSelector{},
		strategy:  AssignBySrc,
		chunkSize: DefaultChunkSize,
		logger:    slog.Default(),
		collector: NoopCollector{},
	}
	for _, opt := range opts {
		opt(p)
	}
	return p, nil
}

// WithStoreOptions rebuilds the underlying Store with the given options.
func WithStoreOptions(opts ...StoreOption) PartitionerOption {
	return func(p *Partitioner) {
		p.store = NewStore(p.store.bs, opts...)
	}
}

// Partition runs the full pipeline: nodes first (assignment, cache
// selection, feature shards, node books), then edges (topology shards,
// edge books, edge feature shards), then META. META is written only
// after every other artifact, so its presence marks a complete run.
func (p *Partitioner) Partition(ctx context.Context) error {
	start := time.Now()

	nodeKeys := p.in.nodeKeys()
	edgeKeys := p.in.edgeKeys()

	p.logger.InfoContext(ctx, "partitioning started",
		slog.Int("num_parts", p.numParts),
		slog.String("assigner", p.assigner.Name()),
		slog.String("cache_selector", p.cacheSel.Name()),
		slog.String("edge_strategy", string(p.strategy)),
		slog.Int("node_types", len(nodeKeys)),
		slog.Int("edge_types", len(edgeKeys)),
	)

	// Node phase. Edge assignment needs the finished node books, so the
	// two phases do not overlap.
	books := make([]PartitionBook, len(nodeKeys))

	g, gctx := errgroup.WithContext(ctx)
	if p.parallelism > 0 {
		g.SetLimit(p.parallelism)
	}
	for i, nt := range nodeKeys {
		g.Go(func() error {
			pb, err := p.partitionNodes(gctx, nt)
			if err != nil {
				return err
			}
			books[i] = pb
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	nodePBs := make(map[NodeType]PartitionBook, len(nodeKeys))
	for i, nt := range nodeKeys {
		nodePBs[nt] = books[i]
	}

	// Edge phase.
	g, gctx = errgroup.WithContext(ctx)
	if p.parallelism > 0 {
		g.SetLimit(p.parallelism)
	}
	for _, et := range edgeKeys {
		g.Go(func() error {
			return p.partitionEdges(gctx, et, nodePBs)
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	meta := &Meta{NumParts: p.numParts, DataClass: DataClassHomo}
	if p.in.Hetero() {
		meta.DataClass = DataClassHetero
		meta.NodeTypes = p.in.NodeTypes()
		meta.EdgeTypes = p.in.EdgeTypes()
	}
	if err := p.store.SaveMeta(ctx, meta); err != nil {
		return fmt.Errorf("save meta: %w", err)
	}

	p.logger.InfoContext(ctx, "partitioning finished",
		slog.Duration("elapsed", time.Since(start)),
	)
	return nil
}

// partitionNodes handles one node type end to end and returns its book.
func (p *Partitioner) partitionNodes(ctx context.Context, nt NodeType) (pb PartitionBook, err error) {
	start := time.Now()
	var numNodes int64
	defer func() {
		p.collector.RecordNodePartition(nt, numNodes, time.Since(start), err)
	}()

	numNodes, err = p.in.NumNodes(nt)
	if err != nil {
		return nil, err
	}

	a, err := p.assigner.AssignNodes(ctx, p.in, nt, p.numParts)
	if err != nil {
		return nil, fmt.Errorf("assign nodes %q: %w", nt, err)
	}
	if err = validateAssignment(nt, a, numNodes, p.numParts); err != nil {
		return nil, err
	}

	cacheIDs, err := p.cacheSel.SelectCache(ctx, p.in, nt, a, p.numParts)
	if err != nil {
		return nil, fmt.Errorf("select cache %q: %w", nt, err)
	}
	if cacheIDs != nil {
		if err = validateCache(nt, a, cacheIDs); err != nil {
			return nil, err
		}
	}

	feats, err := p.in.NodeFeatures(nt)
	if err != nil {
		return nil, err
	}
	if feats != nil {
		for k := 0; k < p.numParts; k++ {
			fp := &FeaturePartition{
				IDs:   a.PerShard[k],
				Feats: feats.Gather(a.PerShard[k]),
			}
			if cacheIDs != nil && len(cacheIDs[k]) > 0 {
				fp.CacheIDs = cacheIDs[k]
				fp.CacheFeats = feats.Gather(cacheIDs[k])
			}
			if err = p.store.SaveFeaturePartition(ctx, k, fp, nodeFeatDir, string(nt)); err != nil {
				return nil, fmt.Errorf("save node features %q part %d: %w", nt, k, err)
			}
		}
	}

	if err = p.store.SaveNodePB(ctx, a.Book, nt); err != nil {
		return nil, fmt.Errorf("save node book %q: %w", nt, err)
	}

	p.logger.DebugContext(ctx, "node type partitioned",
		slog.String("type", string(nt)),
		slog.Int64("num_nodes", numNodes),
		slog.Duration("elapsed", time.Since(start)),
	)
	return a.Book, nil
}

// partitionEdges scatters one edge type by its designated endpoint's
// owner, writes per-shard topology slices, the edge book, and per-shard
// edge feature slices. Edge ids are the input positions; every shard's
// slice keeps the input's relative order.
func (p *Partitioner) partitionEdges(ctx context.Context, et EdgeType, nodePBs map[NodeType]PartitionBook) (err error) {
	start := time.Now()
	var numEdges int64
	defer func() {
		p.collector.RecordEdgePartition(et, numEdges, time.Since(start), err)
	}()

	idx, err := p.in.EdgeIndexOf(et)
	if err != nil {
		return err
	}
	numEdges = idx.Len()

	book, target, err := p.edgeTarget(et, idx, nodePBs)
	if err != nil {
		return err
	}

	shards := make([]*GraphPartition, p.numParts)
	for k := range shards {
		shards[k] = &GraphPartition{}
	}
	edgePB := NewPartitionBook(numEdges)

	for base := int64(0); base < numEdges; base += int64(p.chunkSize) {
		if err = ctx.Err(); err != nil {
			return err
		}
		end := base + int64(p.chunkSize)
		if end > numEdges {
			end = numEdges
		}
		for i := base; i < end; i++ {
			sd := book.Shard(target[i])
			g := shards[sd]
			g.Rows = append(g.Rows, idx.Rows[i])
			g.Cols = append(g.Cols, idx.Cols[i])
			g.EIDs = append(g.EIDs, i)
			edgePB[i] = sd
		}
	}

	for k := 0; k < p.numParts; k++ {
		if err = p.store.SaveGraphPartition(ctx, k, shards[k], et); err != nil {
			return fmt.Errorf("save graph %q part %d: %w", et, k, err)
		}
	}

	feats, err := p.in.EdgeFeatures(et)
	if err != nil {
		return err
	}
	if feats != nil {
		for k := 0; k < p.numParts; k++ {
			fp := &FeaturePartition{
				IDs:   shards[k].EIDs,
				Feats: feats.Gather(shards[k].EIDs),
			}
			if err = p.store.SaveFeaturePartition(ctx, k, fp, edgeFeatDir, keyOf("", et)); err != nil {
				return fmt.Errorf("save edge features %q part %d: %w", et, k, err)
			}
		}
	}

	if err = p.store.SaveEdgePB(ctx, edgePB, et); err != nil {
		return fmt.Errorf("save edge book %q: %w", et, err)
	}

	p.logger.DebugContext(ctx, "edge type partitioned",
		slog.String("type", et.String()),
		slog.Int64("num_edges", numEdges),
		slog.Duration("elapsed", time.Since(start)),
	)
	return nil
}

// edgeTarget resolves which node book and which endpoint column the
// scatter loop consults for the given edge type.
func (p *Partitioner) edgeTarget(et EdgeType, idx EdgeIndex, nodePBs map[NodeType]PartitionBook) (PartitionBook, []int64, error) {
	nt := et.Src
	target := idx.Rows
	if p.strategy == AssignByDst {
		nt = et.Dst
		target = idx.Cols
	}
	book, ok := nodePBs[nt]
	if !ok {
		return nil, nil, fmt.Errorf("%w: no node book for %q", ErrUnknownType, nt)
	}
	return book, target, nil
}
