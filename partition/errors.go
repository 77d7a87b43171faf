package partition

import (
	"errors"
	"fmt"
)

var (
	// ErrNumPartitions is returned when the configured shard count is not
	// greater than one. Partitioning into a single shard is a no-op the
	// caller should not route through this package.
	ErrNumPartitions = errors.New("partition: num_parts must be > 1")

	// ErrTypeRequired is returned when a node or edge type argument is
	// missing for a heterogeneous input.
	ErrTypeRequired = errors.New("partition: type argument required for heterogeneous input")

	// ErrUnknownType is returned when a node or edge type is not part of
	// the input.
	ErrUnknownType = errors.New("partition: unknown type")
)

// ShapeError indicates inconsistently shaped per-type inputs.
//
// The original underlying error (if any) can be accessed via errors.Unwrap.
type ShapeError struct {
	What  string // offending input, e.g. "node features"
	Key   string // type key, empty for homogeneous inputs
	Want  int64
	Got   int64
	cause error
}

func (e *ShapeError) Error() string {
	if e.Key != "" {
		return fmt.Sprintf("partition: %s shape mismatch for %q: want %d, got %d", e.What, e.Key, e.Want, e.Got)
	}
	return fmt.Sprintf("partition: %s shape mismatch: want %d, got %d", e.What, e.Want, e.Got)
}

func (e *ShapeError) Unwrap() error { return e.cause }

// ShardOutOfRangeError is returned when a load requests a shard index
// outside [0, NumParts).
type ShardOutOfRangeError struct {
	Shard    int
	NumParts int
}

func (e *ShardOutOfRangeError) Error() string {
	return fmt.Sprintf("partition: shard index %d out of range [0, %d)", e.Shard, e.NumParts)
}

// CorruptLayoutError is returned when META references an artifact that is
// missing from the partition directory. The directory cannot be trusted;
// no partial recovery is attempted.
type CorruptLayoutError struct {
	Missing string
	cause   error
}

func (e *CorruptLayoutError) Error() string {
	return fmt.Sprintf("partition: corrupt layout: missing %s", e.Missing)
}

func (e *CorruptLayoutError) Unwrap() error { return e.cause }

// CoverageError indicates a node assignment that is not a partition of the
// id space (gaps or duplicates across shards).
type CoverageError struct {
	NodeType NodeType
	Want     uint64 // expected id count
	Got      uint64 // distinct assigned ids
	Total    uint64 // assigned ids including duplicates
}

func (e *CoverageError) Error() string {
	return fmt.Sprintf("partition: node assignment for %q does not cover id space: %d distinct of %d assigned, want %d",
		e.NodeType, e.Got, e.Total, e.Want)
}
