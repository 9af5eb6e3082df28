// Package cpu registers the float32 CPU backend. Matrix products go through
// gonum's blas32; the remaining kernels are plain loops.
package cpu

import (
	"fmt"
	"math"
	"strings"
	"unsafe"

	"github.com/klauspost/cpuid/v2"
	"gonum.org/v1/gonum/blas"
	"gonum.org/v1/gonum/blas/blas32"

	"github.com/AaronAnima/Twinnet/backend"
	"github.com/AaronAnima/Twinnet/core"
)

type cpuBackend struct{}

func init() {
	backend.Register(&cpuBackend{})
}

func (b *cpuBackend) Name() string                   { return "cpu" }
func (b *cpuBackend) DeviceType() backend.DeviceType { return backend.CPU }

// Describe reports the CPU brand and the SIMD extensions gonum can benefit from.
func (b *cpuBackend) Describe(d backend.Device) string {
	var feats []string
	for _, f := range []struct {
		id   cpuid.FeatureID
		name string
	}{
		{cpuid.SSE4, "sse4"},
		{cpuid.AVX, "avx"},
		{cpuid.AVX2, "avx2"},
		{cpuid.FMA3, "fma3"},
		{cpuid.AVX512F, "avx512f"},
		{cpuid.ASIMD, "asimd"},
	} {
		if cpuid.CPU.Supports(f.id) {
			feats = append(feats, f.name)
		}
	}
	brand := cpuid.CPU.BrandName
	if brand == "" {
		brand = "unknown cpu"
	}
	return fmt.Sprintf("%s (%s, %d cores, [%s])", d, brand, cpuid.CPU.PhysicalCores, strings.Join(feats, " "))
}

func (b *cpuBackend) Alloc(byteLen int) (backend.Storage, error) {
	if byteLen < 0 {
		return nil, fmt.Errorf("cpu: negative allocation %d", byteLen)
	}
	return Alloc(byteLen), nil
}

func (b *cpuBackend) Free(s backend.Storage) {
	if cs, ok := s.(*storage); ok {
		cs.Free()
	}
}

func (b *cpuBackend) Copy(dst, src backend.Storage, byteLen int) error {
	d, err := asStorage(dst)
	if err != nil {
		return err
	}
	s, err := asStorage(src)
	if err != nil {
		return err
	}
	if byteLen > len(d.buf) || byteLen > len(s.buf) {
		return fmt.Errorf("cpu: copy of %d bytes exceeds buffers (%d, %d)", byteLen, len(d.buf), len(s.buf))
	}
	copy(d.buf[:byteLen], s.buf[:byteLen])
	return nil
}

func (b *cpuBackend) ToDevice(d backend.Device, src backend.Storage) (backend.Storage, error) {
	if d.Type != backend.CPU {
		return nil, backend.ErrUnsupported
	}
	s, err := asStorage(src)
	if err != nil {
		return nil, err
	}
	out := make([]byte, len(s.buf))
	copy(out, s.buf)
	return &storage{buf: out, dev: d}, nil
}

// floatSlice views the first n float32 values of s. Storage owned by another
// backend is ErrUnsupported.
func floatSlice(s backend.Storage, n int) ([]float32, error) {
	cs, err := asStorage(s)
	if err != nil {
		return nil, err
	}
	if n*4 > len(cs.buf) {
		return nil, fmt.Errorf("cpu: %d elements exceed a %d-byte buffer", n, len(cs.buf))
	}
	if n == 0 {
		return nil, nil
	}
	return unsafe.Slice((*float32)(unsafe.Pointer(&cs.buf[0])), n), nil
}

// unaryFloats resolves dst and src of an elementwise kernel.
func unaryFloats(dst, src backend.Storage, n int) (d, x []float32, err error) {
	if d, err = floatSlice(dst, n); err != nil {
		return nil, nil, err
	}
	if x, err = floatSlice(src, n); err != nil {
		return nil, nil, err
	}
	return d, x, nil
}

func (b *cpuBackend) Tanh(dst, src backend.Storage, nElems int) error {
	d, x, err := unaryFloats(dst, src, nElems)
	if err != nil {
		return err
	}
	for i := range d {
		d[i] = float32(math.Tanh(float64(x[i])))
	}
	return nil
}

func (b *cpuBackend) Sigmoid(dst, src backend.Storage, nElems int) error {
	d, x, err := unaryFloats(dst, src, nElems)
	if err != nil {
		return err
	}
	for i := range d {
		d[i] = float32(1 / (1 + math.Exp(-float64(x[i]))))
	}
	return nil
}

// broadcastIter: for each linear out index, compute linear indices into a and b (NumPy broadcast).
func broadcastIter(outShape core.Shape, aShape, bShape core.Shape, aStrides, bStrides core.Strides) (nOut int, getIndices func(outLinear int) (aIdx, bIdx int)) {
	nOut = outShape.NumElements()
	nd := len(outShape)
	aPad := nd - len(aShape)
	bPad := nd - len(bShape)
	idx := make([]int, nd)
	getIndices = func(outLinear int) (aIdx, bIdx int) {
		rem := outLinear
		for i := nd - 1; i >= 0; i-- {
			idx[i] = rem % outShape[i]
			rem /= outShape[i]
		}
		for i := 0; i < nd; i++ {
			if i >= aPad && aShape[i-aPad] != 1 {
				aIdx += idx[i] * (aStrides[i-aPad] / 4)
			}
			if i >= bPad && bShape[i-bPad] != 1 {
				bIdx += idx[i] * (bStrides[i-bPad] / 4)
			}
		}
		return aIdx, bIdx
	}
	return nOut, getIndices
}

func (b *cpuBackend) binary(dst, a, bs backend.Storage, aShape, bShape core.Shape, aStrides, bStrides core.Strides, outShape core.Shape, op func(x, y float32) float32) error {
	n, get := broadcastIter(outShape, aShape, bShape, aStrides, bStrides)
	da, err := floatSlice(dst, n)
	if err != nil {
		return err
	}
	pa, err := floatSlice(a, aShape.NumElements())
	if err != nil {
		return err
	}
	pb, err := floatSlice(bs, bShape.NumElements())
	if err != nil {
		return err
	}
	if aShape.Equal(bShape) && aShape.Equal(outShape) {
		for i := 0; i < n; i++ {
			da[i] = op(pa[i], pb[i])
		}
		return nil
	}
	for i := 0; i < n; i++ {
		ai, bi := get(i)
		da[i] = op(pa[ai], pb[bi])
	}
	return nil
}

func (b *cpuBackend) Add(dst, a, bs backend.Storage, aShape, bShape core.Shape, aStrides, bStrides core.Strides, outShape core.Shape) error {
	return b.binary(dst, a, bs, aShape, bShape, aStrides, bStrides, outShape, func(x, y float32) float32 { return x + y })
}

func (b *cpuBackend) Mul(dst, a, bs backend.Storage, aShape, bShape core.Shape, aStrides, bStrides core.Strides, outShape core.Shape) error {
	return b.binary(dst, a, bs, aShape, bShape, aStrides, bStrides, outShape, func(x, y float32) float32 { return x * y })
}

func (b *cpuBackend) Sum(dst, src backend.Storage, srcShape core.Shape, srcStrides core.Strides, axis int) error {
	srcF, err := floatSlice(src, srcShape.NumElements())
	if err != nil {
		return err
	}
	if axis < 0 || len(srcShape) == 0 {
		dstF, err := floatSlice(dst, 1)
		if err != nil {
			return err
		}
		var sum float32
		for _, v := range srcF {
			sum += v
		}
		dstF[0] = sum
		return nil
	}
	if axis >= len(srcShape) {
		return fmt.Errorf("cpu: sum axis %d out of range for %v", axis, srcShape)
	}
	before := 1
	for i := 0; i < axis; i++ {
		before *= srcShape[i]
	}
	after := 1
	for i := axis + 1; i < len(srcShape); i++ {
		after *= srcShape[i]
	}
	dimSize := srcShape[axis]
	dstF, err := floatSlice(dst, before*after)
	if err != nil {
		return err
	}
	for i := 0; i < before; i++ {
		for j := 0; j < after; j++ {
			var s float32
			for k := 0; k < dimSize; k++ {
				s += srcF[i*after*dimSize+k*after+j]
			}
			dstF[i*after+j] = s
		}
	}
	return nil
}

func (b *cpuBackend) MatMul(dst, a, bs backend.Storage, M, N, K int, transA, transB bool) error {
	cData, err := floatSlice(dst, M*N)
	if err != nil {
		return err
	}
	aData, err := floatSlice(a, M*K)
	if err != nil {
		return err
	}
	bData, err := floatSlice(bs, K*N)
	if err != nil {
		return err
	}
	if M == 0 || N == 0 {
		return nil
	}
	c := blas32.General{Rows: M, Cols: N, Stride: N, Data: cData}
	if K == 0 {
		for i := range c.Data {
			c.Data[i] = 0
		}
		return nil
	}
	ga := blas32.General{Rows: M, Cols: K, Stride: K, Data: aData}
	tA := blas.NoTrans
	if transA {
		ga = blas32.General{Rows: K, Cols: M, Stride: M, Data: aData}
		tA = blas.Trans
	}
	gb := blas32.General{Rows: K, Cols: N, Stride: N, Data: bData}
	tB := blas.NoTrans
	if transB {
		gb = blas32.General{Rows: N, Cols: K, Stride: K, Data: bData}
		tB = blas.Trans
	}
	blas32.Gemm(tA, tB, 1, ga, gb, 0, c)
	return nil
}

func (b *cpuBackend) CopyBlocks(dst, src backend.Storage, outer, n, dstStride, dstOffset, srcStride, srcOffset int) error {
	d, err := floatSlice(dst, dst.ByteLen()/4)
	if err != nil {
		return err
	}
	s, err := floatSlice(src, src.ByteLen()/4)
	if err != nil {
		return err
	}
	if outer == 0 || n == 0 {
		return nil
	}
	if last := (outer-1)*dstStride + dstOffset + n; last > len(d) {
		return fmt.Errorf("cpu: block copy writes %d elements into %d", last, len(d))
	}
	if last := (outer-1)*srcStride + srcOffset + n; last > len(s) {
		return fmt.Errorf("cpu: block copy reads %d elements from %d", last, len(s))
	}
	for o := 0; o < outer; o++ {
		copy(d[o*dstStride+dstOffset:o*dstStride+dstOffset+n], s[o*srcStride+srcOffset:o*srcStride+srcOffset+n])
	}
	return nil
}

func (b *cpuBackend) Fill(dst backend.Storage, nElems int, value float32) error {
	d, err := floatSlice(dst, nElems)
	if err != nil {
		return err
	}
	for i := range d {
		d[i] = value
	}
	return nil
}
