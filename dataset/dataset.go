// Package dataset assembles a loaded partition into the form a training
// worker consumes: per-type topology slices, merged feature tensors with
// their lookup books, and whole-graph label tensors.
package dataset

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path"

	"github.com/hupe1980/graphpart/blobstore"
	"github.com/hupe1980/graphpart/partition"
	"github.com/hupe1980/graphpart/tensor"
)

// Dataset is one worker's view of a partitioned graph. It keeps two
// books per entity class: the topology book, which routes neighbor
// lookups to the shard owning a node, and the feature book, which
// additionally maps cached nodes to the local shard. Datasets without a
// feature cache share one book for both roles.
//
// Close releases the memory mappings backing all tensors.
type Dataset struct {
	meta *partition.Meta
	idx  int

	graph    map[partition.EdgeType]*partition.GraphPartition
	nodeFeat map[partition.NodeType]*partition.MergedFeatures
	edgeFeat map[partition.EdgeType]*partition.MergedFeatures

	nodePB map[partition.NodeType]partition.PartitionBook
	edgePB map[partition.EdgeType]partition.PartitionBook

	labels map[partition.NodeType]*tensor.Matrix

	closers []io.Closer
}

// Option configures dataset loading.
type Option func(*loadConfig)

type loadConfig struct {
	storeOpts  []partition.StoreOption
	withLabels bool
}

// WithStoreOptions forwards options to the underlying partition store.
func WithStoreOptions(opts ...partition.StoreOption) Option {
	return func(c *loadConfig) { c.storeOpts = append(c.storeOpts, opts...) }
}

// WithCollector routes load measurements to the given metrics sink.
func WithCollector(col partition.Collector) Option {
	return func(c *loadConfig) {
		c.storeOpts = append(c.storeOpts, partition.WithStoreCollector(col))
	}
}

// WithNodeLabels also loads the whole-graph node label tensors. Labels
// are not partitioned: every worker reads the full tensor, stored as
// labels.pt (or labels/<ntype>.pt for heterogeneous data) next to META.
func WithNodeLabels() Option {
	return func(c *loadConfig) { c.withLabels = true }
}

// Load reads shard pidx from bs and folds each feature cache into its
// owned rows.
func Load(ctx context.Context, bs blobstore.BlobStore, pidx int, opts ...Option) (*Dataset, error) {
	var cfg loadConfig
	for _, opt := range opts {
		opt(&cfg)
	}

	store := partition.NewStore(bs, cfg.storeOpts...)
	lp, err := store.LoadPartition(ctx, pidx)
	if err != nil {
		return nil, err
	}

	d := &Dataset{
		meta:     lp.Meta,
		idx:      pidx,
		graph:    lp.Graph,
		nodeFeat: make(map[partition.NodeType]*partition.MergedFeatures, len(lp.NodeFeat)),
		edgeFeat: make(map[partition.EdgeType]*partition.MergedFeatures, len(lp.EdgeFeat)),
		nodePB:   lp.NodePB,
		edgePB:   lp.EdgePB,
		closers:  []io.Closer{lp},
	}

	for nt, fp := range lp.NodeFeat {
		merged, err := partition.MergeFeatureCache(uint32(pidx), fp, lp.NodePB[nt])
		if err != nil {
			_ = d.Close()
			return nil, fmt.Errorf("merge node features %q: %w", nt, err)
		}
		d.nodeFeat[nt] = merged
	}
	for et, fp := range lp.EdgeFeat {
		merged, err := partition.MergeFeatureCache(uint32(pidx), fp, lp.EdgePB[et])
		if err != nil {
			_ = d.Close()
			return nil, fmt.Errorf("merge edge features %q: %w", et, err)
		}
		d.edgeFeat[et] = merged
	}

	if cfg.withLabels {
		if err := d.loadLabels(ctx, bs); err != nil {
			_ = d.Close()
			return nil, err
		}
	}

	return d, nil
}

func (d *Dataset) loadLabels(ctx context.Context, bs blobstore.BlobStore) error {
	d.labels = make(map[partition.NodeType]*tensor.Matrix)

	types := []partition.NodeType{""}
	if d.meta.Hetero() {
		types = d.meta.NodeTypes
	}
	for _, nt := range types {
		name := "labels.pt"
		if nt != "" {
			name = path.Join("labels", string(nt)+".pt")
		}
		m, closer, err := tensor.LoadMatrix(ctx, bs, name)
		if err != nil {
			if errors.Is(err, blobstore.ErrNotFound) {
				continue // this type has no labels
			}
			return fmt.Errorf("load labels %q: %w", nt, err)
		}
		d.closers = append(d.closers, closer)
		d.labels[nt] = m
	}
	return nil
}

// Meta returns the directory metadata.
func (d *Dataset) Meta() *partition.Meta { return d.meta }

// PartIdx returns the shard index this dataset holds.
func (d *Dataset) PartIdx() int { return d.idx }

// Graph returns this shard's topology slice for the given edge type.
// Pass the zero EdgeType for homogeneous data.
func (d *Dataset) Graph(et partition.EdgeType) (*partition.GraphPartition, bool) {
	g, ok := d.graph[et]
	return g, ok
}

// NodeFeatures returns this shard's merged node features for the given
// type, or false when the dataset has none.
func (d *Dataset) NodeFeatures(nt partition.NodeType) (*partition.MergedFeatures, bool) {
	m, ok := d.nodeFeat[nt]
	return m, ok
}

// EdgeFeatures returns this shard's merged edge features for the given
// type, or false when the dataset has none.
func (d *Dataset) EdgeFeatures(et partition.EdgeType) (*partition.MergedFeatures, bool) {
	m, ok := d.edgeFeat[et]
	return m, ok
}

// NodeLabels returns the whole-graph label tensor for the given type.
// Nil unless loading used WithNodeLabels and the tensor exists.
func (d *Dataset) NodeLabels(nt partition.NodeType) *tensor.Matrix {
	return d.labels[nt]
}

// NodePB returns the topology partition book for the given node type.
// Use this for neighbor and sampling routing.
func (d *Dataset) NodePB(nt partition.NodeType) partition.PartitionBook {
	return d.nodePB[nt]
}

// EdgePB returns the topology partition book for the given edge type.
func (d *Dataset) EdgePB(et partition.EdgeType) partition.PartitionBook {
	return d.edgePB[et]
}

// NodeFeatPB returns the feature-lookup book for the given node type:
// the patched book when a cache was merged, otherwise the topology book.
func (d *Dataset) NodeFeatPB(nt partition.NodeType) partition.PartitionBook {
	if m, ok := d.nodeFeat[nt]; ok {
		return m.Book
	}
	return d.nodePB[nt]
}

// EdgeFeatPB returns the feature-lookup book for the given edge type,
// falling back to the topology book when no edge features were loaded.
func (d *Dataset) EdgeFeatPB(et partition.EdgeType) partition.PartitionBook {
	if m, ok := d.edgeFeat[et]; ok {
		return m.Book
	}
	return d.edgePB[et]
}

// Close releases all memory mappings backing the dataset's tensors.
func (d *Dataset) Close() error {
	var first error
	for _, c := range d.closers {
		if err := c.Close(); err != nil && first == nil {
			first = err
		}
	}
	d.closers = nil
	return first
}
