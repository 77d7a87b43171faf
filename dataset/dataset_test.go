package dataset

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/graphpart/blobstore"
	"github.com/hupe1980/graphpart/partition"
	"github.com/hupe1980/graphpart/tensor"
	"github.com/hupe1980/graphpart/testutil"
)

// starStore partitions a 10-node star graph with features into two shards
// and returns the backing store. Node 0 is hot; with the top-degree cache
// selector shard 1 replicates its feature row.
func starStore(t *testing.T, cacheRatio float64) blobstore.BlobStore {
	t.Helper()
	ctx := context.Background()
	bs := blobstore.NewMemoryStore()

	idx := testutil.StarGraph(10)
	feats := testutil.RowIDFeatures(10, 4)
	in, err := partition.NewInput(10, idx, partition.WithNodeFeatures(feats))
	require.NoError(t, err)

	opts := []partition.PartitionerOption{}
	if cacheRatio > 0 {
		opts = append(opts, partition.WithCacheSelector(partition.TopDegreeCacheSelector{Ratio: cacheRatio}))
	}
	p, err := partition.NewPartitioner(bs, in, 2, opts...)
	require.NoError(t, err)
	require.NoError(t, p.Partition(ctx))
	return bs
}

func TestLoadMergesCache(t *testing.T) {
	ctx := context.Background()
	bs := starStore(t, 0.2)

	ds, err := Load(ctx, bs, 1)
	require.NoError(t, err)
	defer ds.Close()

	assert.Equal(t, 1, ds.PartIdx())
	assert.Equal(t, 2, ds.Meta().NumParts)

	m, ok := ds.NodeFeatures("")
	require.True(t, ok)

	// 5 owned rows plus the cached hub.
	assert.Equal(t, 6, m.Feats.Rows())
	assert.InDelta(t, 1.0/6.0, m.CacheRatio, 1e-9)

	// The cached hub resolves locally through the feature book but stays
	// remote in the topology book.
	assert.Equal(t, uint32(1), ds.NodeFeatPB("").Shard(0))
	assert.Equal(t, uint32(0), ds.NodePB("").Shard(0))

	// Row content: cache row first, hub features are all zeros by
	// construction (row id 0).
	row := m.Feats.Row(m.ID2Index[0])
	assert.Equal(t, []float32{0, 0, 0, 0}, row)
	row = m.Feats.Row(m.ID2Index[7])
	assert.Equal(t, []float32{7, 7, 7, 7}, row)
}

func TestLoadWithoutCacheSharesBook(t *testing.T) {
	ctx := context.Background()
	bs := starStore(t, 0)

	ds, err := Load(ctx, bs, 0)
	require.NoError(t, err)
	defer ds.Close()

	m, ok := ds.NodeFeatures("")
	require.True(t, ok)
	assert.Zero(t, m.CacheRatio)

	// Feature lookups fall back to the topology book.
	assert.Equal(t, ds.NodePB(""), ds.NodeFeatPB(""))
}

func TestLoadRecordsMetrics(t *testing.T) {
	ctx := context.Background()
	bs := starStore(t, 0)

	var collector partition.BasicCollector

	ds, err := Load(ctx, bs, 0, WithCollector(&collector))
	require.NoError(t, err)
	defer ds.Close()

	assert.Equal(t, int64(1), collector.Loads.Load())
	assert.Zero(t, collector.LoadFailures.Load())

	_, err = Load(ctx, bs, 5, WithCollector(&collector))
	require.Error(t, err)

	assert.Equal(t, int64(2), collector.Loads.Load())
	assert.Equal(t, int64(1), collector.LoadFailures.Load())
}

func TestLoadNodeLabels(t *testing.T) {
	ctx := context.Background()
	bs := starStore(t, 0)

	labels := testutil.RowIDFeatures(10, 1)
	require.NoError(t, tensor.SaveMatrix(ctx, bs, "labels.pt", labels))

	ds, err := Load(ctx, bs, 0, WithNodeLabels())
	require.NoError(t, err)
	defer ds.Close()

	got := ds.NodeLabels("")
	require.NotNil(t, got)
	assert.Equal(t, 10, got.Rows())
	assert.Equal(t, []float32{9}, got.Row(9))
}

func TestLoadLabelsAbsent(t *testing.T) {
	ctx := context.Background()
	bs := starStore(t, 0)

	ds, err := Load(ctx, bs, 0, WithNodeLabels())
	require.NoError(t, err)
	defer ds.Close()

	assert.Nil(t, ds.NodeLabels(""))
}

func TestHandleRoundTrip(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()

	bs, err := blobstore.NewLocalStore(dir)
	require.NoError(t, err)

	idx := testutil.RingGraph(6)
	in, err := partition.NewInput(6, idx)
	require.NoError(t, err)
	p, err := partition.NewPartitioner(bs, in, 2)
	require.NoError(t, err)
	require.NoError(t, p.Partition(ctx))

	h := NewHandle(dir, 1, false)

	ds, err := FromHandle(ctx, h)
	require.NoError(t, err)
	defer ds.Close()

	assert.Equal(t, 1, ds.PartIdx())
	g, ok := ds.Graph(partition.EdgeType{})
	require.True(t, ok)
	assert.Equal(t, []int64{3, 4, 5}, g.EIDs)
}

func TestFromHandleNil(t *testing.T) {
	_, err := FromHandle(context.Background(), nil)
	assert.Error(t, err)
}
