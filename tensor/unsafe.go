package tensor

import "unsafe"

// Raw byte views over typed slices and back. The mmap load path depends on
// these being true reinterpretations, not copies.
//
// Payloads start at HeaderSize (8-byte aligned) inside page-aligned
// mappings, so alignment holds for every conversion below; the checks are
// kept for buffers that arrive from elsewhere.

func int64sToBytes(v []int64) []byte {
	if len(v) == 0 {
		return nil
	}
	return unsafe.Slice((*byte)(unsafe.Pointer(&v[0])), len(v)*8)
}

func uint32sToBytes(v []uint32) []byte {
	if len(v) == 0 {
		return nil
	}
	return unsafe.Slice((*byte)(unsafe.Pointer(&v[0])), len(v)*4)
}

func float32sToBytes(v []float32) []byte {
	if len(v) == 0 {
		return nil
	}
	return unsafe.Slice((*byte)(unsafe.Pointer(&v[0])), len(v)*4)
}

func bytesToInt64s(b []byte) []int64 {
	if len(b) == 0 {
		return nil
	}
	if uintptr(unsafe.Pointer(&b[0]))%8 != 0 {
		return copyToInt64s(b)
	}
	return unsafe.Slice((*int64)(unsafe.Pointer(&b[0])), len(b)/8)
}

func bytesToUint32s(b []byte) []uint32 {
	if len(b) == 0 {
		return nil
	}
	if uintptr(unsafe.Pointer(&b[0]))%4 != 0 {
		return copyToUint32s(b)
	}
	return unsafe.Slice((*uint32)(unsafe.Pointer(&b[0])), len(b)/4)
}

func bytesToFloat32s(b []byte) []float32 {
	if len(b) == 0 {
		return nil
	}
	if uintptr(unsafe.Pointer(&b[0]))%4 != 0 {
		return copyToFloat32s(b)
	}
	return unsafe.Slice((*float32)(unsafe.Pointer(&b[0])), len(b)/4)
}

func copyToInt64s(b []byte) []int64 {
	out := make([]int64, len(b)/8)
	copy(int64sToBytes(out), b)
	return out
}

func copyToUint32s(b []byte) []uint32 {
	out := make([]uint32, len(b)/4)
	copy(uint32sToBytes(out), b)
	return out
}

func copyToFloat32s(b []byte) []float32 {
	out := make([]float32, len(b)/4)
	copy(float32sToBytes(out), b)
	return out
}
