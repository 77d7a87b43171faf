package graphpart

import (
	"github.com/hupe1980/graphpart/blobstore"
	"github.com/hupe1980/graphpart/partition"
)

// Sentinel errors re-exported from the subpackages so callers matching
// with errors.Is need only this package.
var (
	// ErrNumPartitions is returned when the requested shard count is not
	// at least two.
	ErrNumPartitions = partition.ErrNumPartitions

	// ErrTypeRequired is returned when a typed accessor is called with a
	// zero type on heterogeneous data.
	ErrTypeRequired = partition.ErrTypeRequired

	// ErrUnknownType is returned when a type is not part of the dataset.
	ErrUnknownType = partition.ErrUnknownType

	// ErrNotFound is returned when a blob does not exist.
	ErrNotFound = blobstore.ErrNotFound
)

// Structured errors carrying detail; match with errors.As.
type (
	ShapeError           = partition.ShapeError
	ShardOutOfRangeError = partition.ShardOutOfRangeError
	CorruptLayoutError   = partition.CorruptLayoutError
	CoverageError        = partition.CoverageError
)
