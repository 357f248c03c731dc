package mem

import (
	"unsafe"
)

// Alignment is the cache line size assumed by the allocator.
const Alignment = 64

// AllocAligned returns a zeroed byte slice of length size whose first
// element sits on an Alignment boundary. It returns nil for size <= 0.
func AllocAligned(size int) []byte {
	if size <= 0 {
		return nil
	}

	buf := make([]byte, size+Alignment)
	addr := uintptr(unsafe.Pointer(&buf[0])) //nolint:gosec // alignment arithmetic
	offset := (Alignment - addr&(Alignment-1)) & (Alignment - 1)
	return buf[offset : offset+uintptr(size) : offset+uintptr(size)]
}

// AllocAlignedFloat64 returns a zeroed, aligned float64 slice of length n.
func AllocAlignedFloat64(n int) []float64 {
	if n <= 0 {
		return nil
	}
	b := AllocAligned(n * 8)
	return unsafe.Slice((*float64)(unsafe.Pointer(&b[0])), n) //nolint:gosec // b is 64-byte aligned
}
