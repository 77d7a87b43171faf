package blobstore

import (
	"context"
	"io"
	"os"
)

// ErrNotFound is returned when a blob does not exist.
//
// Implementations should return an error that satisfies
// `errors.Is(err, ErrNotFound)`. The default maps to `os.ErrNotExist`.
// The partition store relies on this contract to distinguish optional
// artifacts (absent cache files) from real failures.
var ErrNotFound = os.ErrNotExist

// BlobStore is an abstraction for storing immutable partition artifacts
// (tensor files, partition books, META). Implementations must be safe for
// concurrent use.
//
// Blob names are slash-separated relative paths, e.g.
// "part0/node_feat/feats.pt". Implementations map them onto their own
// namespace (directories, object keys).
type BlobStore interface {
	// Open opens a blob for reading. Returns ErrNotFound if absent.
	Open(ctx context.Context, name string) (Blob, error)

	// Create creates a blob for streaming writes. The blob is visible to
	// readers only after Close returns nil.
	Create(ctx context.Context, name string) (WritableBlob, error)

	// Put writes a blob atomically in one call.
	Put(ctx context.Context, name string, data []byte) error

	// Delete removes a blob. Deleting an absent blob is not an error.
	Delete(ctx context.Context, name string) error

	// List returns all blob names with the given prefix.
	List(ctx context.Context, prefix string) ([]string, error)
}

// Blob is a read-only handle to a stored artifact.
type Blob interface {
	io.Closer

	// ReadAt reads len(p) bytes starting at off.
	ReadAt(ctx context.Context, p []byte, off int64) (int, error)

	// ReadRange returns a reader over [off, off+length).
	ReadRange(ctx context.Context, off, length int64) (io.ReadCloser, error)

	// Size returns the size of the blob in bytes.
	Size() int64
}

// WritableBlob is a write-once handle returned by Create.
type WritableBlob interface {
	io.WriteCloser

	// Sync flushes buffered data to stable storage where supported.
	Sync() error
}

// Mappable is an optional interface for Blobs that support memory mapping.
// Local blobs implement it; tensor loading uses it for zero-copy reads.
type Mappable interface {
	// Bytes returns the underlying byte slice without copying.
	// The slice is valid until the Blob is closed and must not be mutated.
	Bytes() ([]byte, error)
}
