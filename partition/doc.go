// Package partition splits graph datasets into shards for distributed
// training and reads them back.
//
// A Partitioner assigns nodes to shards through a pluggable NodeAssigner,
// optionally selects hot remote nodes for per-shard feature caches
// through a CacheSelector, scatters edges to the shard owning a chosen
// endpoint, and writes everything to a blobstore.BlobStore. The mapping
// from ids to shards is kept as a PartitionBook, a dense uint32 array
// indexed by id.
//
// Store reads a finished directory back; MergeFeatureCache folds a
// shard's cached remote features into a single matrix with a patched
// lookup book.
package partition
