// Package tensor provides the dense data containers partitioned by
// graphpart and their on-disk binary format.
//
// Two shapes cover everything the partitioner touches: 1-D integer vectors
// (global ids, edge endpoints, partition books) and 2-D float32 matrices
// (feature rows indexed by a parallel id vector). Both are stored in a
// checksummed little-endian binary file that can be memory-mapped and read
// in place.
package tensor

import "fmt"

// Matrix is a dense row-major [rows, dim] float32 matrix. Feature rows for
// row i live at Data[i*Dim : (i+1)*Dim].
type Matrix struct {
	Dim  int
	Data []float32
}

// NewMatrix allocates a zeroed rows x dim matrix.
func NewMatrix(rows, dim int) *Matrix {
	return &Matrix{Dim: dim, Data: make([]float32, rows*dim)}
}

// Rows returns the number of rows.
func (m *Matrix) Rows() int {
	if m == nil || m.Dim == 0 {
		return 0
	}
	return len(m.Data) / m.Dim
}

// Row returns the i-th row without copying. The slice aliases the matrix
// storage and must be treated as immutable when the matrix is mmap-backed.
func (m *Matrix) Row(i int64) []float32 {
	off := int(i) * m.Dim
	return m.Data[off : off+m.Dim : off+m.Dim]
}

// Gather returns a new matrix whose k-th row is the ids[k]-th row of m.
func (m *Matrix) Gather(ids []int64) *Matrix {
	out := NewMatrix(len(ids), m.Dim)
	for k, id := range ids {
		copy(out.Data[k*m.Dim:(k+1)*m.Dim], m.Row(id))
	}
	return out
}

// Concat returns a new matrix holding all rows of a followed by all rows
// of b. Either argument may be nil or empty.
func Concat(a, b *Matrix) (*Matrix, error) {
	switch {
	case a == nil || a.Rows() == 0:
		return b, nil
	case b == nil || b.Rows() == 0:
		return a, nil
	}
	if a.Dim != b.Dim {
		return nil, fmt.Errorf("tensor: concat dimension mismatch: %d vs %d", a.Dim, b.Dim)
	}
	out := &Matrix{Dim: a.Dim, Data: make([]float32, 0, len(a.Data)+len(b.Data))}
	out.Data = append(out.Data, a.Data...)
	out.Data = append(out.Data, b.Data...)
	return out, nil
}
