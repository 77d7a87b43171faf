package s3

import (
	"context"
	"io"

	"github.com/hupe1980/graphpart/blobstore"
	"golang.org/x/sync/errgroup"
)

// Mirror copies every blob under prefix from src to dst with up to
// parallelism concurrent uploads.
//
// The intended use is a partition job that writes shards to local disk and
// then publishes the finished dataset to object storage. Mirror copies the
// META record last so remote readers never observe a half-published
// directory.
func Mirror(ctx context.Context, src, dst blobstore.BlobStore, prefix string, parallelism int) error {
	if parallelism <= 0 {
		parallelism = 8
	}

	names, err := src.List(ctx, prefix)
	if err != nil {
		return err
	}

	var meta []string
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(parallelism)
	for _, name := range names {
		if name == metaBlobName {
			meta = append(meta, name)
			continue
		}
		g.Go(func() error {
			return copyBlob(ctx, src, dst, name)
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	for _, name := range meta {
		if err := copyBlob(ctx, src, dst, name); err != nil {
			return err
		}
	}
	return nil
}

func copyBlob(ctx context.Context, src, dst blobstore.BlobStore, name string) error {
	b, err := src.Open(ctx, name)
	if err != nil {
		return err
	}
	defer b.Close()

	r, err := b.ReadRange(ctx, 0, b.Size())
	if err != nil {
		return err
	}
	defer r.Close()

	data, err := io.ReadAll(r)
	if err != nil {
		return err
	}
	return dst.Put(ctx, name, data)
}
