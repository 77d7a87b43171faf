// Package graphpart partitions graph datasets for distributed GNN
// training and loads the resulting shards back, with production-ready
// features including:
//
//   - Pluggable node assignment: range, hash, and degree-balanced policies
//   - Order-preserving chunked edge scatter (by source or destination owner)
//   - Per-shard feature caches of hot remote nodes with patched lookup books
//   - Homogeneous and heterogeneous (typed) graphs
//   - Checksummed binary tensor files with optional LZ4/Zstd compression
//   - Zero-copy mmap loading and cross-process dataset handles
//   - Pluggable blob backends: local directory, in-memory, S3, MinIO
//   - Atomic publication: META is written last, and the S3 backend can
//     fence concurrent writers through a DynamoDB commit marker
//
// # Quick Start
//
// Partition a homogeneous graph into two shards on local disk:
//
//	in, err := partition.NewInput(numNodes, partition.EdgeIndex{Rows: rows, Cols: cols},
//	    partition.WithNodeFeatures(feats))
//	if err != nil {
//	    panic(err)
//	}
//	err = graphpart.Partition(ctx, "./out", in, 2,
//	    partition.WithAssigner(partition.DegreeBalancedAssigner{}),
//	    partition.WithCacheSelector(partition.TopDegreeCacheSelector{Ratio: 0.2}))
//
// Load one shard back on a training worker:
//
//	ds, err := graphpart.LoadDataset(ctx, "./out", 0, dataset.WithNodeLabels())
//	if err != nil {
//	    panic(err)
//	}
//	defer ds.Close()
//
// Remote storage goes through the blobstore interfaces; pass any
// blobstore.BlobStore to PartitionTo and LoadDatasetFrom.
package graphpart

import (
	"context"

	"github.com/hupe1980/graphpart/blobstore"
	"github.com/hupe1980/graphpart/dataset"
	"github.com/hupe1980/graphpart/partition"
)

// Aliases for the most commonly used types, so simple callers need only
// this package and partition.
type (
	Input         = partition.Input
	NodeType      = partition.NodeType
	EdgeType      = partition.EdgeType
	EdgeIndex     = partition.EdgeIndex
	PartitionBook = partition.PartitionBook
	Dataset       = dataset.Dataset
	Handle        = dataset.Handle
)

// Partition splits in into numParts shards under a local directory.
func Partition(ctx context.Context, dir string, in *Input, numParts int, opts ...partition.PartitionerOption) error {
	bs, err := blobstore.NewLocalStore(dir)
	if err != nil {
		return err
	}
	return PartitionTo(ctx, bs, in, numParts, opts...)
}

// PartitionTo splits in into numParts shards on an arbitrary blob store.
func PartitionTo(ctx context.Context, bs blobstore.BlobStore, in *Input, numParts int, opts ...partition.PartitionerOption) error {
	p, err := partition.NewPartitioner(bs, in, numParts, opts...)
	if err != nil {
		return err
	}
	return p.Partition(ctx)
}

// LoadDataset opens shard pidx of a partition directory on local disk.
func LoadDataset(ctx context.Context, dir string, pidx int, opts ...dataset.Option) (*Dataset, error) {
	bs, err := blobstore.NewLocalStore(dir)
	if err != nil {
		return nil, err
	}
	return dataset.Load(ctx, bs, pidx, opts...)
}

// LoadDatasetFrom opens shard pidx from an arbitrary blob store.
func LoadDatasetFrom(ctx context.Context, bs blobstore.BlobStore, pidx int, opts ...dataset.Option) (*Dataset, error) {
	return dataset.Load(ctx, bs, pidx, opts...)
}
