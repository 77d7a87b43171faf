package tensor

import (
	"encoding/binary"
	"errors"
	"fmt"
	"hash/crc32"
	"io"
)

const (
	// FormatMagic identifies graphpart tensor files (ASCII: "GPT0").
	FormatMagic = 0x47505430

	// FormatVersion is the current tensor file format version.
	FormatVersion uint32 = 1

	// HeaderSize is the size of the file header in bytes. The payload
	// starts at HeaderSize, which is 8-byte aligned so mmap'd int64/float32
	// payloads can be reinterpreted in place.
	HeaderSize = 48
)

// DType identifies the element type of a tensor file.
type DType uint8

const (
	// DTypeInt64 is a 1-D vector of int64 (ids, edge endpoints).
	DTypeInt64 DType = 1
	// DTypeUint32 is a 1-D vector of uint32 (partition books).
	DTypeUint32 DType = 2
	// DTypeFloat32 is a row-major float32 matrix (feature rows).
	DTypeFloat32 DType = 3
)

func (d DType) elemSize() int64 {
	switch d {
	case DTypeInt64:
		return 8
	case DTypeUint32, DTypeFloat32:
		return 4
	default:
		return 0
	}
}

// Compression identifies the payload compression codec.
type Compression uint8

const (
	// CompressionNone stores the payload raw; required for zero-copy loads.
	CompressionNone Compression = 0
	// CompressionLZ4 compresses the payload as an LZ4 frame.
	CompressionLZ4 Compression = 1
	// CompressionZstd compresses the payload with zstandard.
	CompressionZstd Compression = 2
)

var (
	// ErrInvalidMagic is returned when a file has an invalid magic number.
	ErrInvalidMagic = errors.New("tensor: invalid magic number")
	// ErrInvalidVersion is returned when a file has an unsupported version.
	ErrInvalidVersion = errors.New("tensor: unsupported format version")
	// ErrInvalidDType is returned when the stored dtype does not match the
	// requested one.
	ErrInvalidDType = errors.New("tensor: dtype mismatch")
	// ErrInvalidCompression is returned for an unknown compression codec.
	ErrInvalidCompression = errors.New("tensor: unknown compression codec")
)

// ChecksumMismatchError is returned when payload verification fails.
type ChecksumMismatchError struct {
	Expected uint32
	Actual   uint32
}

func (e *ChecksumMismatchError) Error() string {
	return fmt.Sprintf("tensor: checksum mismatch: expected 0x%08x, got 0x%08x", e.Expected, e.Actual)
}

// FileHeader is the 48-byte header at the start of every tensor file.
//
// All multi-byte fields are little-endian.
type FileHeader struct {
	Magic       uint32 // 0x47505430 ("GPT0")
	Version     uint32 // Format version (currently 1)
	DType       DType
	Compression Compression
	Count       uint64 // Number of elements (rows * dim for matrices)
	Dim         uint32 // Row width; 1 for vectors
	PayloadSize uint64 // Stored payload bytes (post-compression)
	Checksum    uint32 // CRC32 (IEEE) of the stored payload
}

// Validate checks magic, version and codec.
func (h *FileHeader) Validate() error {
	if h.Magic != FormatMagic {
		return ErrInvalidMagic
	}
	if h.Version > FormatVersion {
		return ErrInvalidVersion
	}
	if h.Compression > CompressionZstd {
		return ErrInvalidCompression
	}
	if h.DType.elemSize() == 0 {
		return ErrInvalidDType
	}
	return nil
}

// rawSize returns the uncompressed payload size in bytes.
func (h *FileHeader) rawSize() int64 {
	return int64(h.Count) * h.DType.elemSize()
}

// WriteTo writes the header to w.
func (h *FileHeader) WriteTo(w io.Writer) (int64, error) {
	buf := make([]byte, HeaderSize)
	binary.LittleEndian.PutUint32(buf[0:4], h.Magic)
	binary.LittleEndian.PutUint32(buf[4:8], h.Version)
	buf[8] = byte(h.DType)
	buf[9] = byte(h.Compression)
	binary.LittleEndian.PutUint64(buf[16:24], h.Count)
	binary.LittleEndian.PutUint32(buf[24:28], h.Dim)
	binary.LittleEndian.PutUint64(buf[32:40], h.PayloadSize)
	binary.LittleEndian.PutUint32(buf[40:44], h.Checksum)

	n, err := w.Write(buf)
	return int64(n), err
}

// ReadFrom reads and validates the header from r.
func (h *FileHeader) ReadFrom(r io.Reader) (int64, error) {
	buf := make([]byte, HeaderSize)
	n, err := io.ReadFull(r, buf)
	if err != nil {
		return int64(n), err
	}
	h.decode(buf)
	return int64(n), h.Validate()
}

func (h *FileHeader) decode(buf []byte) {
	h.Magic = binary.LittleEndian.Uint32(buf[0:4])
	h.Version = binary.LittleEndian.Uint32(buf[4:8])
	h.DType = DType(buf[8])
	h.Compression = Compression(buf[9])
	h.Count = binary.LittleEndian.Uint64(buf[16:24])
	h.Dim = binary.LittleEndian.Uint32(buf[24:28])
	h.PayloadSize = binary.LittleEndian.Uint64(buf[32:40])
	h.Checksum = binary.LittleEndian.Uint32(buf[40:44])
}

func checksum(data []byte) uint32 {
	return crc32.ChecksumIEEE(data)
}
