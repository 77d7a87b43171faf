// Package blobstore provides the storage abstraction behind graphpart's
// partition directories.
//
// Every artifact the partitioner emits (tensor files, partition books,
// META) is an immutable blob addressed by a slash-separated relative name
// that follows the partition directory layout, e.g.
// "part0/graph/rows.pt". A BlobStore maps those names onto a backend:
//
//   - LocalStore: local filesystem with mmap reads and atomic renames
//   - MemoryStore: in-memory, for tests
//   - s3.Store: Amazon S3 with range reads and parallel uploads, plus an
//     optional DynamoDB commit marker for atomic META publication
//   - minio.Store: MinIO and other S3-compatible object stores
//
// Blobs are written once and never mutated, so implementations need no
// cross-writer coordination beyond "Create is invisible until Close".
package blobstore
