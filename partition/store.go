package partition

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"time"

	"github.com/hupe1980/graphpart/blobstore"
	"github.com/hupe1980/graphpart/codec"
	"github.com/hupe1980/graphpart/tensor"
)

// Artifact names within a partition directory. The layout is part of the
// on-disk contract:
//
//	META
//	node_pb.pt | node_pb/<ntype>.pt
//	edge_pb.pt | edge_pb/<etype>.pt
//	part<k>/graph[/<etype>]/{rows.pt, cols.pt, eids.pt}
//	part<k>/node_feat[/<ntype>]/{feats.pt, ids.pt, cache_feats.pt?, cache_ids.pt?}
//	part<k>/edge_feat[/<etype>]/{feats.pt, ids.pt}
const (
	metaName    = "META"
	nodePBName  = "node_pb"
	edgePBName  = "edge_pb"
	graphDir    = "graph"
	nodeFeatDir = "node_feat"
	edgeFeatDir = "edge_feat"
)

// Data-class tags stored in META.
const (
	DataClassHomo   = "homo"
	DataClassHetero = "hetero"
)

// Meta describes a finished partition directory. It is written last:
// readers treat its presence as "all shards fully written".
type Meta struct {
	NumParts  int        `json:"num_parts"`
	DataClass string     `json:"data_cls"`
	NodeTypes []NodeType `json:"node_types,omitempty"`
	EdgeTypes []EdgeType `json:"edge_types,omitempty"`
}

// Hetero reports whether the directory holds a heterogeneous dataset.
func (m *Meta) Hetero() bool { return m.DataClass == DataClassHetero }

// Store reads and writes partition directories on a blob store.
type Store struct {
	bs        blobstore.BlobStore
	codec     codec.Codec
	saveOpts  []tensor.SaveOption
	loadOpts  []tensor.LoadOption
	collector Collector
}

// StoreOption configures a Store.
type StoreOption func(*Store)

// WithStoreCodec overrides the META codec. Defaults to codec.Default.
func WithStoreCodec(c codec.Codec) StoreOption {
	return func(s *Store) {
		if c != nil {
			s.codec = c
		}
	}
}

// WithTensorSaveOptions applies the given options (compression, rate
// limiting) to every tensor written by the store.
func WithTensorSaveOptions(opts ...tensor.SaveOption) StoreOption {
	return func(s *Store) { s.saveOpts = opts }
}

// WithTensorLoadOptions applies the given options to every tensor read.
func WithTensorLoadOptions(opts ...tensor.LoadOption) StoreOption {
	return func(s *Store) { s.loadOpts = opts }
}

// WithStoreCollector sets the metrics sink for load measurements.
// Defaults to NoopCollector.
func WithStoreCollector(c Collector) StoreOption {
	return func(s *Store) {
		if c != nil {
			s.collector = c
		}
	}
}

// NewStore creates a partition store on top of a blob store.
func NewStore(bs blobstore.BlobStore, opts ...StoreOption) *Store {
	s := &Store{bs: bs, codec: codec.Default, collector: NoopCollector{}}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func partDir(pidx int) string { return fmt.Sprintf("part%d", pidx) }

// typed returns dir/sub/<key> for heterogeneous data, dir/sub otherwise.
func typed(dir, key string) string {
	if key == "" {
		return dir
	}
	return path.Join(dir, key)
}

// SaveMeta writes the META record. Call only after every other artifact
// of the run has been written.
func (s *Store) SaveMeta(ctx context.Context, m *Meta) error {
	data, err := s.codec.Marshal(m)
	if err != nil {
		return err
	}
	return s.bs.Put(ctx, metaName, data)
}

// LoadMeta reads the META record.
func (s *Store) LoadMeta(ctx context.Context) (*Meta, error) {
	b, err := s.bs.Open(ctx, metaName)
	if err != nil {
		if errors.Is(err, blobstore.ErrNotFound) {
			return nil, &CorruptLayoutError{Missing: metaName, cause: err}
		}
		return nil, err
	}
	defer b.Close()

	r, err := b.ReadRange(ctx, 0, b.Size())
	if err != nil {
		return nil, err
	}
	defer r.Close()

	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}

	var m Meta
	if err := s.codec.Unmarshal(data, &m); err != nil {
		return nil, err
	}
	return &m, nil
}

// SaveNodePB writes the node partition book of one type. ntype is empty
// for homogeneous datasets.
func (s *Store) SaveNodePB(ctx context.Context, pb PartitionBook, ntype NodeType) error {
	name := nodePBName + ".pt"
	if ntype != "" {
		name = path.Join(nodePBName, ntype+".pt")
	}
	return tensor.SaveUint32s(ctx, s.bs, name, pb, s.saveOpts...)
}

// SaveEdgePB writes the edge partition book of one type. etype is zero
// for homogeneous datasets.
func (s *Store) SaveEdgePB(ctx context.Context, pb PartitionBook, etype EdgeType) error {
	name := edgePBName + ".pt"
	if etype != (EdgeType{}) {
		name = path.Join(edgePBName, etype.String()+".pt")
	}
	return tensor.SaveUint32s(ctx, s.bs, name, pb, s.saveOpts...)
}

// SaveGraphPartition writes one shard's topology slice.
func (s *Store) SaveGraphPartition(ctx context.Context, pidx int, g *GraphPartition, etype EdgeType) error {
	key := ""
	if etype != (EdgeType{}) {
		key = etype.String()
	}
	dir := typed(path.Join(partDir(pidx), graphDir), key)

	if err := tensor.SaveInt64s(ctx, s.bs, path.Join(dir, "rows.pt"), g.Rows, s.saveOpts...); err != nil {
		return err
	}
	if err := tensor.SaveInt64s(ctx, s.bs, path.Join(dir, "cols.pt"), g.Cols, s.saveOpts...); err != nil {
		return err
	}
	return tensor.SaveInt64s(ctx, s.bs, path.Join(dir, "eids.pt"), g.EIDs, s.saveOpts...)
}

// SaveFeaturePartition writes one shard's feature slice under the given
// group ("node_feat" or "edge_feat"). Cache artifacts are written only
// when present.
func (s *Store) SaveFeaturePartition(ctx context.Context, pidx int, fp *FeaturePartition, group, key string) error {
	dir := typed(path.Join(partDir(pidx), group), key)

	if err := tensor.SaveMatrix(ctx, s.bs, path.Join(dir, "feats.pt"), fp.Feats, s.saveOpts...); err != nil {
		return err
	}
	if err := tensor.SaveInt64s(ctx, s.bs, path.Join(dir, "ids.pt"), fp.IDs, s.saveOpts...); err != nil {
		return err
	}
	if !fp.HasCache() {
		return nil
	}
	if err := tensor.SaveMatrix(ctx, s.bs, path.Join(dir, "cache_feats.pt"), fp.CacheFeats, s.saveOpts...); err != nil {
		return err
	}
	return tensor.SaveInt64s(ctx, s.bs, path.Join(dir, "cache_ids.pt"), fp.CacheIDs, s.saveOpts...)
}

// LoadedPartition is everything one worker needs from a partition
// directory: its own shard's topology and feature slices, plus the FULL
// partition books of every type (remote lookups need the complete
// id → shard map).
//
// Tensors may alias memory mappings owned by the LoadedPartition; callers
// must Close it when done, after which all loaded data is invalid.
type LoadedPartition struct {
	Meta *Meta
	Idx  int

	// Keyed by type; homogeneous data lives under the zero key.
	Graph    map[EdgeType]*GraphPartition
	NodeFeat map[NodeType]*FeaturePartition
	EdgeFeat map[EdgeType]*FeaturePartition
	NodePB   map[NodeType]PartitionBook
	EdgePB   map[EdgeType]PartitionBook

	closers []io.Closer
}

// Close releases all memory mappings backing the loaded tensors.
func (p *LoadedPartition) Close() error {
	var first error
	for _, c := range p.closers {
		if err := c.Close(); err != nil && first == nil {
			first = err
		}
	}
	p.closers = nil
	return first
}

func (p *LoadedPartition) retain(c io.Closer) {
	p.closers = append(p.closers, c)
}

// LoadPartition reads shard pidx of the partition directory. Feature
// slices come back raw (cache not yet merged); run them through
// MergeFeatureCache or use the dataset package, which does so.
func (s *Store) LoadPartition(ctx context.Context, pidx int) (p *LoadedPartition, err error) {
	start := time.Now()
	defer func() {
		s.collector.RecordLoad(pidx, time.Since(start), err)
	}()

	meta, err := s.LoadMeta(ctx)
	if err != nil {
		return nil, err
	}
	if pidx < 0 || pidx >= meta.NumParts {
		return nil, &ShardOutOfRangeError{Shard: pidx, NumParts: meta.NumParts}
	}

	p = &LoadedPartition{
		Meta:     meta,
		Idx:      pidx,
		Graph:    make(map[EdgeType]*GraphPartition),
		NodeFeat: make(map[NodeType]*FeaturePartition),
		EdgeFeat: make(map[EdgeType]*FeaturePartition),
		NodePB:   make(map[NodeType]PartitionBook),
		EdgePB:   make(map[EdgeType]PartitionBook),
	}

	nodeTypes := meta.NodeTypes
	edgeTypes := meta.EdgeTypes
	if !meta.Hetero() {
		nodeTypes = []NodeType{""}
		edgeTypes = []EdgeType{{}}
	}

	for _, et := range edgeTypes {
		if err := s.loadGraph(ctx, p, pidx, et); err != nil {
			_ = p.Close()
			return nil, err
		}
	}
	for _, nt := range nodeTypes {
		if err := s.loadFeatures(ctx, p, pidx, nodeFeatDir, nt, EdgeType{}); err != nil {
			_ = p.Close()
			return nil, err
		}
	}
	for _, et := range edgeTypes {
		if err := s.loadFeatures(ctx, p, pidx, edgeFeatDir, "", et); err != nil {
			_ = p.Close()
			return nil, err
		}
	}
	for _, nt := range nodeTypes {
		pb, err := s.loadBook(ctx, p, nodePBName, keyOf(nt, EdgeType{}))
		if err != nil {
			_ = p.Close()
			return nil, err
		}
		p.NodePB[nt] = pb
	}
	for _, et := range edgeTypes {
		pb, err := s.loadBook(ctx, p, edgePBName, keyOf("", et))
		if err != nil {
			_ = p.Close()
			return nil, err
		}
		p.EdgePB[et] = pb
	}

	return p, nil
}

func keyOf(nt NodeType, et EdgeType) string {
	if nt != "" {
		return nt
	}
	if et != (EdgeType{}) {
		return et.String()
	}
	return ""
}

// loadGraph reads one typed topology slice. Topology is mandatory: a
// listed edge type without graph files means the directory is corrupt.
func (s *Store) loadGraph(ctx context.Context, p *LoadedPartition, pidx int, et EdgeType) error {
	dir := typed(path.Join(partDir(pidx), graphDir), keyOf("", et))

	rows, closer, err := s.loadInt64s(ctx, path.Join(dir, "rows.pt"))
	if err != nil {
		if errors.Is(err, blobstore.ErrNotFound) {
			return &CorruptLayoutError{Missing: path.Join(dir, "rows.pt"), cause: err}
		}
		return err
	}
	p.retain(closer)

	cols, closer, err := s.loadInt64s(ctx, path.Join(dir, "cols.pt"))
	if err != nil {
		return corruptIfMissing(err, path.Join(dir, "cols.pt"))
	}
	p.retain(closer)

	eids, closer, err := s.loadInt64s(ctx, path.Join(dir, "eids.pt"))
	if err != nil {
		return corruptIfMissing(err, path.Join(dir, "eids.pt"))
	}
	p.retain(closer)

	p.Graph[et] = &GraphPartition{Rows: rows, Cols: cols, EIDs: eids}
	return nil
}

// loadFeatures reads one typed feature slice. Features are optional;
// absent files mean the dataset simply has none.
func (s *Store) loadFeatures(ctx context.Context, p *LoadedPartition, pidx int, group string, nt NodeType, et EdgeType) error {
	dir := typed(path.Join(partDir(pidx), group), keyOf(nt, et))

	feats, closer, err := tensor.LoadMatrix(ctx, s.bs, path.Join(dir, "feats.pt"), s.loadOpts...)
	if err != nil {
		if errors.Is(err, blobstore.ErrNotFound) {
			return nil // no features for this type
		}
		return err
	}
	p.retain(closer)

	ids, closer, err := s.loadInt64s(ctx, path.Join(dir, "ids.pt"))
	if err != nil {
		return corruptIfMissing(err, path.Join(dir, "ids.pt"))
	}
	p.retain(closer)

	fp := &FeaturePartition{IDs: ids, Feats: feats}

	// Cache artifacts are optional and only valid as a pair.
	cacheFeats, cfCloser, err := tensor.LoadMatrix(ctx, s.bs, path.Join(dir, "cache_feats.pt"), s.loadOpts...)
	if err == nil {
		cacheIDs, ciCloser, idErr := s.loadInt64s(ctx, path.Join(dir, "cache_ids.pt"))
		if idErr != nil {
			_ = cfCloser.Close()
			return corruptIfMissing(idErr, path.Join(dir, "cache_ids.pt"))
		}
		p.retain(cfCloser)
		p.retain(ciCloser)
		fp.CacheFeats = cacheFeats
		fp.CacheIDs = cacheIDs
	} else if !errors.Is(err, blobstore.ErrNotFound) {
		return err
	}

	if group == nodeFeatDir {
		p.NodeFeat[nt] = fp
	} else {
		p.EdgeFeat[et] = fp
	}
	return nil
}

// loadBook reads one full partition book. Books are mandatory for every
// type META lists.
func (s *Store) loadBook(ctx context.Context, p *LoadedPartition, base, key string) (PartitionBook, error) {
	name := base + ".pt"
	if key != "" {
		name = path.Join(base, key+".pt")
	}
	pb, closer, err := tensor.LoadUint32s(ctx, s.bs, name, s.loadOpts...)
	if err != nil {
		if errors.Is(err, blobstore.ErrNotFound) {
			return nil, &CorruptLayoutError{Missing: name, cause: err}
		}
		return nil, err
	}
	p.retain(closer)
	return PartitionBook(pb), nil
}

func (s *Store) loadInt64s(ctx context.Context, name string) ([]int64, io.Closer, error) {
	return tensor.LoadInt64s(ctx, s.bs, name, s.loadOpts...)
}

// corruptIfMissing upgrades a not-found error on a mandatory artifact to
// a CorruptLayoutError.
func corruptIfMissing(err error, name string) error {
	if errors.Is(err, blobstore.ErrNotFound) {
		return &CorruptLayoutError{Missing: name, cause: err}
	}
	return err
}
