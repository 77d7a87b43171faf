package tensor

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/graphpart/blobstore"
)

func TestSaveLoadInt64s(t *testing.T) {
	ctx := context.Background()
	store := blobstore.NewMemoryStore()

	want := []int64{0, 1, -7, 1 << 40, 42}
	require.NoError(t, SaveInt64s(ctx, store, "ids.pt", want))

	got, closer, err := LoadInt64s(ctx, store, "ids.pt")
	require.NoError(t, err)
	defer closer.Close()

	assert.Equal(t, want, got)
}

func TestSaveLoadUint32s(t *testing.T) {
	ctx := context.Background()
	store := blobstore.NewMemoryStore()

	want := []uint32{0, 1, 2, 1, 0}
	require.NoError(t, SaveUint32s(ctx, store, "book.pt", want))

	got, closer, err := LoadUint32s(ctx, store, "book.pt")
	require.NoError(t, err)
	defer closer.Close()

	assert.Equal(t, want, got)
}

func TestSaveLoadMatrix(t *testing.T) {
	ctx := context.Background()
	store := blobstore.NewMemoryStore()

	want := &Matrix{Dim: 3, Data: []float32{1, 2, 3, 4, 5, 6}}
	require.NoError(t, SaveMatrix(ctx, store, "feats.pt", want))

	got, closer, err := LoadMatrix(ctx, store, "feats.pt")
	require.NoError(t, err)
	defer closer.Close()

	assert.Equal(t, want.Dim, got.Dim)
	assert.Equal(t, want.Data, got.Data)
}

func TestSaveLoadCompressed(t *testing.T) {
	ctx := context.Background()

	for _, c := range []Compression{CompressionLZ4, CompressionZstd} {
		store := blobstore.NewMemoryStore()

		want := make([]int64, 4096)
		for i := range want {
			want[i] = int64(i % 17)
		}
		require.NoError(t, SaveInt64s(ctx, store, "ids.pt", want, WithCompression(c)))

		got, closer, err := LoadInt64s(ctx, store, "ids.pt")
		require.NoError(t, err)
		assert.Equal(t, want, got)
		require.NoError(t, closer.Close())
	}
}

func TestLoadZeroCopyFromDisk(t *testing.T) {
	ctx := context.Background()
	store, err := blobstore.NewLocalStore(t.TempDir())
	require.NoError(t, err)

	want := []int64{10, 20, 30}
	require.NoError(t, SaveInt64s(ctx, store, "ids.pt", want))

	got, closer, err := LoadInt64s(ctx, store, "ids.pt")
	require.NoError(t, err)
	assert.Equal(t, want, got)
	require.NoError(t, closer.Close())

	// Copying load must survive the closer.
	got, closer, err = LoadInt64s(ctx, store, "ids.pt", WithCopy())
	require.NoError(t, err)
	require.NoError(t, closer.Close())
	assert.Equal(t, want, got)
}

func TestLoadDTypeMismatch(t *testing.T) {
	ctx := context.Background()
	store := blobstore.NewMemoryStore()

	require.NoError(t, SaveInt64s(ctx, store, "ids.pt", []int64{1, 2}))

	_, _, err := LoadUint32s(ctx, store, "ids.pt")
	assert.ErrorIs(t, err, ErrInvalidDType)
}

func TestLoadMissingBlob(t *testing.T) {
	ctx := context.Background()
	store := blobstore.NewMemoryStore()

	_, _, err := LoadInt64s(ctx, store, "nope.pt")
	assert.ErrorIs(t, err, blobstore.ErrNotFound)
}

func TestLoadDetectsCorruption(t *testing.T) {
	ctx := context.Background()
	store := blobstore.NewMemoryStore()

	require.NoError(t, SaveInt64s(ctx, store, "ids.pt", []int64{1, 2, 3}))

	blob, err := store.Open(ctx, "ids.pt")
	require.NoError(t, err)
	raw := make([]byte, blob.Size())
	_, err = blob.ReadAt(ctx, raw, 0)
	require.NoError(t, err)
	require.NoError(t, blob.Close())

	// Flip one payload byte past the header.
	raw[HeaderSize] ^= 0xff
	require.NoError(t, store.Put(ctx, "ids.pt", raw))

	_, _, err = LoadInt64s(ctx, store, "ids.pt")
	var cerr *ChecksumMismatchError
	assert.True(t, errors.As(err, &cerr))
}

func TestSaveEmptyTensor(t *testing.T) {
	ctx := context.Background()
	store := blobstore.NewMemoryStore()

	require.NoError(t, SaveInt64s(ctx, store, "empty.pt", nil))

	got, closer, err := LoadInt64s(ctx, store, "empty.pt")
	require.NoError(t, err)
	defer closer.Close()
	assert.Empty(t, got)
}
