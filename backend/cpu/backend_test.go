package cpu

import (
	"errors"
	"math"
	"strings"
	"testing"

	"github.com/AaronAnima/Twinnet/backend"
	"github.com/AaronAnima/Twinnet/core"
)

func fromSlice(v []float32) backend.Storage {
	s := Alloc(len(v) * 4)
	copy(mustFloats(s, len(v)), v)
	return s
}

// mustFloats is floatSlice for storage the test allocated itself.
func mustFloats(s backend.Storage, n int) []float32 {
	f, err := floatSlice(s, n)
	if err != nil {
		panic(err)
	}
	return f
}

// deviceStorage stands in for memory owned by an accelerator backend.
type deviceStorage struct{ n int }

func (d deviceStorage) Device() backend.Device { return backend.Device{Type: backend.CUDA} }
func (d deviceStorage) Ptr() uintptr           { return 0 }
func (d deviceStorage) Bytes() []byte          { return nil }
func (d deviceStorage) ByteLen() int           { return d.n }
func (d deviceStorage) Free()                  {}

func naiveMatMul(a, b []float32, M, N, K int, transA, transB bool) []float32 {
	out := make([]float32, M*N)
	for i := 0; i < M; i++ {
		for j := 0; j < N; j++ {
			var s float32
			for k := 0; k < K; k++ {
				av := a[i*K+k]
				if transA {
					av = a[k*M+i]
				}
				bv := b[k*N+j]
				if transB {
					bv = b[j*K+k]
				}
				s += av * bv
			}
			out[i*N+j] = s
		}
	}
	return out
}

func TestMatMulTransposeFlags(t *testing.T) {
	be, err := backend.Get(backend.CPU)
	if err != nil {
		t.Fatal(err)
	}
	const M, N, K = 3, 4, 5
	a := make([]float32, M*K)
	b := make([]float32, K*N)
	for i := range a {
		a[i] = float32(i%7) - 3
	}
	for i := range b {
		b[i] = float32(i%5)*0.5 - 1
	}
	for _, tc := range []struct{ tA, tB bool }{{false, false}, {true, false}, {false, true}, {true, true}} {
		dst := Alloc(M * N * 4)
		if err := be.MatMul(dst, fromSlice(a), fromSlice(b), M, N, K, tc.tA, tc.tB); err != nil {
			t.Fatal(err)
		}
		want := naiveMatMul(a, b, M, N, K, tc.tA, tc.tB)
		got := mustFloats(dst, M*N)
		for i := range want {
			if math.Abs(float64(got[i]-want[i])) > 1e-5 {
				t.Fatalf("transA=%v transB=%v: out[%d] = %v, want %v", tc.tA, tc.tB, i, got[i], want[i])
			}
		}
	}
}

func TestActivations(t *testing.T) {
	be, _ := backend.Get(backend.CPU)
	src := fromSlice([]float32{-2, 0, 3})
	dst := Alloc(12)
	be.Sigmoid(dst, src, 3)
	got := mustFloats(dst, 3)
	if got[1] != 0.5 || math.Abs(float64(got[2])-1/(1+math.Exp(-3))) > 1e-6 {
		t.Fatalf("Sigmoid = %v", got)
	}
	be.Tanh(dst, src, 3)
	got = mustFloats(dst, 3)
	if got[1] != 0 || math.Abs(float64(got[0])-math.Tanh(-2)) > 1e-6 {
		t.Fatalf("Tanh = %v", got)
	}
}

func TestAddBroadcastAndSum(t *testing.T) {
	be, _ := backend.Get(backend.CPU)
	aShape, bShape := core.Shape{2, 3}, core.Shape{3}
	a := fromSlice([]float32{1, 2, 3, 4, 5, 6})
	b := fromSlice([]float32{10, 20, 30})
	dst := Alloc(6 * 4)
	if err := be.Add(dst, a, b, aShape, bShape, core.ContiguousStrides(aShape, 4), core.ContiguousStrides(bShape, 4), aShape); err != nil {
		t.Fatal(err)
	}
	want := []float32{11, 22, 33, 14, 25, 36}
	for i, v := range mustFloats(dst, 6) {
		if v != want[i] {
			t.Fatalf("Add = %v, want %v", mustFloats(dst, 6), want)
		}
	}
	sum := Alloc(3 * 4)
	if err := be.Sum(sum, dst, aShape, core.ContiguousStrides(aShape, 4), 0); err != nil {
		t.Fatal(err)
	}
	if s := mustFloats(sum, 3); s[0] != 25 || s[1] != 47 || s[2] != 69 {
		t.Fatalf("Sum axis 0 = %v", s)
	}
}

func TestDescribe(t *testing.T) {
	if d := backend.Describe(backend.CPU0); !strings.HasPrefix(d, "cpu:0 (") {
		t.Fatalf("Describe(cpu0) = %q", d)
	}
}

func TestToDeviceRejectsAccelerators(t *testing.T) {
	be, _ := backend.Get(backend.CPU)
	if _, err := be.ToDevice(backend.Device{Type: backend.CUDA}, Alloc(4)); err != backend.ErrUnsupported {
		t.Fatalf("ToDevice(cuda) err = %v", err)
	}
}

func TestCopyBlocks(t *testing.T) {
	be, _ := backend.Get(backend.CPU)
	// [2, 3, 2] -> time step 1 -> [2, 2]
	src := fromSlice([]float32{0, 1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11})
	dst := Alloc(4 * 4)
	if err := be.CopyBlocks(dst, src, 2, 2, 2, 0, 6, 2); err != nil {
		t.Fatal(err)
	}
	if got := mustFloats(dst, 4); got[0] != 2 || got[1] != 3 || got[2] != 8 || got[3] != 9 {
		t.Fatalf("CopyBlocks = %v", got)
	}
	if err := be.CopyBlocks(dst, src, 3, 2, 2, 0, 6, 2); err == nil {
		t.Fatalf("CopyBlocks past the end of dst should fail")
	}
}

func TestKernelsRejectForeignStorage(t *testing.T) {
	be, _ := backend.Get(backend.CPU)
	host := Alloc(4 * 4)
	dev := deviceStorage{n: 4 * 4}
	shape := core.Shape{4}
	strides := core.ContiguousStrides(shape, 4)
	checks := map[string]error{
		"Tanh":       be.Tanh(host, dev, 4),
		"Sigmoid":    be.Sigmoid(dev, host, 4),
		"Add":        be.Add(host, dev, host, shape, shape, strides, strides, shape),
		"Mul":        be.Mul(host, host, dev, shape, shape, strides, strides, shape),
		"Sum":        be.Sum(host, dev, shape, strides, -1),
		"MatMul":     be.MatMul(host, dev, host, 2, 2, 2, false, false),
		"CopyBlocks": be.CopyBlocks(dev, host, 1, 4, 4, 0, 4, 0),
		"Fill":       be.Fill(dev, 4, 1),
		"Copy":       be.Copy(host, dev, 16),
	}
	for name, err := range checks {
		if !errors.Is(err, backend.ErrUnsupported) {
			t.Errorf("%s on device storage: err = %v, want ErrUnsupported", name, err)
		}
	}
}

func TestKernelsRejectShortBuffers(t *testing.T) {
	be, _ := backend.Get(backend.CPU)
	if err := be.Fill(Alloc(8), 3, 1); err == nil {
		t.Fatalf("Fill of 3 elements into a 2-element buffer should fail")
	}
}
