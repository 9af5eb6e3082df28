package tensor

import (
	"unsafe"
)

// Float32FromBytes returns a float32 slice that shares memory with b.
// Caller must ensure b has length divisible by 4.
func Float32FromBytes(b []byte) []float32 {
	if len(b) == 0 {
		return nil
	}
	return unsafe.Slice((*float32)(unsafe.Pointer(&b[0])), len(b)/4)
}

// BytesFromFloat32 returns a byte slice that shares memory with f.
func BytesFromFloat32(f []float32) []byte {
	if len(f) == 0 {
		return nil
	}
	return unsafe.Slice((*byte)(unsafe.Pointer(&f[0])), len(f)*4)
}
