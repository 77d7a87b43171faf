package partition

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/graphpart/tensor"
)

func rowFilled(rows, dim int, vals ...float32) *tensor.Matrix {
	m := tensor.NewMatrix(rows, dim)
	for i := 0; i < rows; i++ {
		for j := 0; j < dim; j++ {
			m.Data[i*dim+j] = vals[i]
		}
	}
	return m
}

func TestMergeFeatureCache(t *testing.T) {
	// Shard 1 owns ids 10 and 11, and carries id 5 as cache. Books cover
	// ids 0..11.
	book := NewPartitionBook(12)
	for id := 6; id < 12; id++ {
		book[id] = 1
	}

	fp := &FeaturePartition{
		IDs:        []int64{10, 11},
		Feats:      rowFilled(2, 4, 10, 11),
		CacheIDs:   []int64{5},
		CacheFeats: rowFilled(1, 4, 5),
	}

	m, err := MergeFeatureCache(1, fp, book)
	require.NoError(t, err)

	// Cache rows come first.
	require.Equal(t, 3, m.Feats.Rows())
	assert.Equal(t, []float32{5, 5, 5, 5}, m.Feats.Row(0))
	assert.Equal(t, []float32{10, 10, 10, 10}, m.Feats.Row(1))
	assert.Equal(t, []float32{11, 11, 11, 11}, m.Feats.Row(2))

	assert.Equal(t, int64(0), m.ID2Index[5])
	assert.Equal(t, int64(1), m.ID2Index[10])
	assert.Equal(t, int64(2), m.ID2Index[11])

	assert.InDelta(t, 1.0/3.0, m.CacheRatio, 1e-9)

	// The feature book maps the cached id locally; the input book is
	// untouched.
	assert.Equal(t, uint32(1), m.Book.Shard(5))
	assert.Equal(t, uint32(0), book.Shard(5))
}

func TestMergeFeatureCacheNoCache(t *testing.T) {
	book := NewPartitionBook(4)
	book[2] = 1
	book[3] = 1

	fp := &FeaturePartition{
		IDs:   []int64{2, 3},
		Feats: rowFilled(2, 2, 2, 3),
	}

	m, err := MergeFeatureCache(1, fp, book)
	require.NoError(t, err)

	assert.Zero(t, m.CacheRatio)
	assert.Same(t, fp.Feats, m.Feats)
	assert.Equal(t, int64(0), m.ID2Index[2])
	assert.Equal(t, int64(1), m.ID2Index[3])

	// Without a cache the books are identical, down to the backing array.
	m.Book[0] = 9
	assert.Equal(t, uint32(9), book[0])
	book[0] = 0
}

func TestMergeFeatureCacheRejectsOverlap(t *testing.T) {
	book := NewPartitionBook(4)
	fp := &FeaturePartition{
		IDs:        []int64{1},
		Feats:      rowFilled(1, 2, 1),
		CacheIDs:   []int64{1},
		CacheFeats: rowFilled(1, 2, 1),
	}

	_, err := MergeFeatureCache(0, fp, book)
	assert.Error(t, err)
}
