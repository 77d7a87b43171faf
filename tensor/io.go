package tensor

import (
	"bytes"
	"context"
	"fmt"
	"io"

	"github.com/hupe1980/graphpart/blobstore"
	"github.com/hupe1980/graphpart/resource"
	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"
)

// SaveOption configures tensor writes.
type SaveOption func(*saveOptions)

type saveOptions struct {
	compression Compression
	rc          *resource.Controller
}

// WithCompression selects the payload compression codec.
// CompressionNone (the default) keeps files mmap-loadable in place.
func WithCompression(c Compression) SaveOption {
	return func(o *saveOptions) { o.compression = c }
}

// WithSaveRateLimit throttles the write through the given controller.
func WithSaveRateLimit(rc *resource.Controller) SaveOption {
	return func(o *saveOptions) { o.rc = rc }
}

// LoadOption configures tensor reads.
type LoadOption func(*loadOptions)

type loadOptions struct {
	copyData bool
	rc       *resource.Controller
}

// WithCopy forces the loaded tensor into private heap memory even when the
// blob supports zero-copy mapping. Use it when the caller intends to
// mutate the result.
func WithCopy() LoadOption {
	return func(o *loadOptions) { o.copyData = true }
}

// WithLoadRateLimit throttles the read through the given controller.
func WithLoadRateLimit(rc *resource.Controller) LoadOption {
	return func(o *loadOptions) { o.rc = rc }
}

// SaveInt64s writes v as a 1-D int64 tensor blob.
func SaveInt64s(ctx context.Context, store blobstore.BlobStore, name string, v []int64, opts ...SaveOption) error {
	return save(ctx, store, name, DTypeInt64, uint64(len(v)), 1, int64sToBytes(v), opts)
}

// SaveUint32s writes v as a 1-D uint32 tensor blob.
func SaveUint32s(ctx context.Context, store blobstore.BlobStore, name string, v []uint32, opts ...SaveOption) error {
	return save(ctx, store, name, DTypeUint32, uint64(len(v)), 1, uint32sToBytes(v), opts)
}

// SaveMatrix writes m as a [rows, dim] float32 tensor blob.
func SaveMatrix(ctx context.Context, store blobstore.BlobStore, name string, m *Matrix, opts ...SaveOption) error {
	dim := uint32(m.Dim)
	if dim == 0 {
		dim = 1
	}
	return save(ctx, store, name, DTypeFloat32, uint64(len(m.Data)), dim, float32sToBytes(m.Data), opts)
}

// LoadInt64s reads a 1-D int64 tensor blob. The returned slice may alias a
// memory mapping owned by the returned closer; it stays valid until the
// closer is closed and must be treated as immutable.
func LoadInt64s(ctx context.Context, store blobstore.BlobStore, name string, opts ...LoadOption) ([]int64, io.Closer, error) {
	raw, _, closer, err := load(ctx, store, name, DTypeInt64, opts)
	if err != nil {
		return nil, nil, err
	}
	return bytesToInt64s(raw), closer, nil
}

// LoadUint32s reads a 1-D uint32 tensor blob. Aliasing as in LoadInt64s.
func LoadUint32s(ctx context.Context, store blobstore.BlobStore, name string, opts ...LoadOption) ([]uint32, io.Closer, error) {
	raw, _, closer, err := load(ctx, store, name, DTypeUint32, opts)
	if err != nil {
		return nil, nil, err
	}
	return bytesToUint32s(raw), closer, nil
}

// LoadMatrix reads a float32 matrix blob. Aliasing as in LoadInt64s.
func LoadMatrix(ctx context.Context, store blobstore.BlobStore, name string, opts ...LoadOption) (*Matrix, io.Closer, error) {
	raw, header, closer, err := load(ctx, store, name, DTypeFloat32, opts)
	if err != nil {
		return nil, nil, err
	}
	return &Matrix{Dim: int(header.Dim), Data: bytesToFloat32s(raw)}, closer, nil
}

func save(ctx context.Context, store blobstore.BlobStore, name string, dtype DType, count uint64, dim uint32, raw []byte, opts []SaveOption) error {
	var o saveOptions
	for _, opt := range opts {
		opt(&o)
	}

	payload, err := compress(raw, o.compression)
	if err != nil {
		return err
	}

	header := FileHeader{
		Magic:       FormatMagic,
		Version:     FormatVersion,
		DType:       dtype,
		Compression: o.compression,
		Count:       count,
		Dim:         dim,
		PayloadSize: uint64(len(payload)),
		Checksum:    checksum(payload),
	}

	wb, err := store.Create(ctx, name)
	if err != nil {
		return err
	}

	var w io.Writer = wb
	if o.rc != nil {
		w = resource.NewRateLimitedWriter(ctx, wb, o.rc)
	}
	if _, err := header.WriteTo(w); err != nil {
		_ = wb.Close()
		return err
	}
	if _, err := w.Write(payload); err != nil {
		_ = wb.Close()
		return err
	}
	return wb.Close()
}

// load returns the raw (uncompressed) payload, retaining the blob when the
// payload aliases its mapping.
func load(ctx context.Context, store blobstore.BlobStore, name string, want DType, opts []LoadOption) ([]byte, *FileHeader, io.Closer, error) {
	var o loadOptions
	for _, opt := range opts {
		opt(&o)
	}

	blob, err := store.Open(ctx, name)
	if err != nil {
		return nil, nil, nil, err
	}

	header, raw, keepOpen, err := readPayload(ctx, blob, &o)
	if err != nil {
		_ = blob.Close()
		return nil, nil, nil, err
	}
	if header.DType != want {
		_ = blob.Close()
		return nil, nil, nil, fmt.Errorf("%w: file %s holds dtype %d, want %d", ErrInvalidDType, name, header.DType, want)
	}

	if keepOpen {
		return raw, header, blob, nil
	}
	_ = blob.Close()
	return raw, header, nopCloser{}, nil
}

func readPayload(ctx context.Context, blob blobstore.Blob, o *loadOptions) (*FileHeader, []byte, bool, error) {
	// Zero-copy path: uncompressed payload read directly from the mapping.
	if m, ok := blob.(blobstore.Mappable); ok && !o.copyData {
		data, err := m.Bytes()
		if err == nil && len(data) >= HeaderSize {
			var header FileHeader
			header.decode(data[:HeaderSize])
			if err := header.Validate(); err != nil {
				return nil, nil, false, err
			}
			if header.Compression == CompressionNone {
				payload := data[HeaderSize : HeaderSize+int(header.PayloadSize)]
				if got := checksum(payload); got != header.Checksum {
					return nil, nil, false, &ChecksumMismatchError{Expected: header.Checksum, Actual: got}
				}
				return &header, payload, true, nil
			}
			// Compressed files fall through to the copying path below.
		}
	}

	r, err := blob.ReadRange(ctx, 0, blob.Size())
	if err != nil {
		return nil, nil, false, err
	}
	defer r.Close()

	var rr io.Reader = r
	if o.rc != nil {
		rr = resource.NewRateLimitedReader(ctx, r, o.rc)
	}

	var header FileHeader
	if _, err := header.ReadFrom(rr); err != nil {
		return nil, nil, false, err
	}

	payload := make([]byte, header.PayloadSize)
	if _, err := io.ReadFull(rr, payload); err != nil {
		return nil, nil, false, err
	}
	if got := checksum(payload); got != header.Checksum {
		return nil, nil, false, &ChecksumMismatchError{Expected: header.Checksum, Actual: got}
	}

	raw, err := decompress(payload, header.Compression, header.rawSize())
	if err != nil {
		return nil, nil, false, err
	}
	return &header, raw, false, nil
}

func compress(raw []byte, c Compression) ([]byte, error) {
	switch c {
	case CompressionNone:
		return raw, nil
	case CompressionLZ4:
		var buf bytes.Buffer
		zw := lz4.NewWriter(&buf)
		if _, err := zw.Write(raw); err != nil {
			return nil, err
		}
		if err := zw.Close(); err != nil {
			return nil, err
		}
		return buf.Bytes(), nil
	case CompressionZstd:
		enc, err := zstd.NewWriter(nil)
		if err != nil {
			return nil, err
		}
		defer enc.Close()
		return enc.EncodeAll(raw, make([]byte, 0, len(raw)/2)), nil
	default:
		return nil, ErrInvalidCompression
	}
}

func decompress(payload []byte, c Compression, rawSize int64) ([]byte, error) {
	switch c {
	case CompressionNone:
		// The payload buffer is private here (copying path), safe to return.
		return payload, nil
	case CompressionLZ4:
		raw := make([]byte, rawSize)
		if _, err := io.ReadFull(lz4.NewReader(bytes.NewReader(payload)), raw); err != nil {
			return nil, err
		}
		return raw, nil
	case CompressionZstd:
		dec, err := zstd.NewReader(nil)
		if err != nil {
			return nil, err
		}
		defer dec.Close()
		return dec.DecodeAll(payload, make([]byte, 0, rawSize))
	default:
		return nil, ErrInvalidCompression
	}
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }
