package dataset

import (
	"context"
	"fmt"

	"github.com/hupe1980/graphpart/blobstore"
)

// Handle is a serializable recipe for opening the same dataset from
// another process on the same machine. It carries no tensor data: the
// receiving process maps the same files, so the page cache is shared
// between processes instead of the bytes being copied.
//
// Only local directories can be handed over this way; remote stores are
// opened independently per process.
type Handle struct {
	Root       string `json:"root"`
	PartIdx    int    `json:"part_idx"`
	WithLabels bool   `json:"with_labels,omitempty"`
}

// NewHandle describes a dataset rooted at a local directory.
func NewHandle(root string, pidx int, withLabels bool) *Handle {
	return &Handle{Root: root, PartIdx: pidx, WithLabels: withLabels}
}

// FromHandle opens the dataset a Handle describes.
func FromHandle(ctx context.Context, h *Handle, opts ...Option) (*Dataset, error) {
	if h == nil {
		return nil, fmt.Errorf("dataset: nil handle")
	}
	bs, err := blobstore.NewLocalStore(h.Root)
	if err != nil {
		return nil, fmt.Errorf("dataset: open handle root: %w", err)
	}
	if h.WithLabels {
		opts = append(opts, WithNodeLabels())
	}
	return Load(ctx, bs, h.PartIdx, opts...)
}
