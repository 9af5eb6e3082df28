package tensor

import (
	"testing"

	"github.com/AaronAnima/Twinnet/backend"
	_ "github.com/AaronAnima/Twinnet/backend/cpu"
)

func TestZerosAndFull(t *testing.T) {
	z, err := Zeros(backend.CPU0, 2, 4)
	if err != nil {
		t.Fatal(err)
	}
	if z.NumElements() != 8 || !z.Contiguous() {
		t.Fatalf("Zeros(2,4) = %v", z)
	}
	for _, v := range z.Float32() {
		if v != 0 {
			t.Fatalf("Zeros has non-zero element %v", v)
		}
	}
	f, err := Full(backend.CPU0, 1.5, 3)
	if err != nil {
		t.Fatal(err)
	}
	for _, v := range f.Float32() {
		if v != 1.5 {
			t.Fatalf("Full(1.5) element = %v", v)
		}
	}
}

func TestViewSharesStorage(t *testing.T) {
	x, err := FromFloat32([]float32{1, 2, 3, 4, 5, 6}, 2, 3)
	if err != nil {
		t.Fatal(err)
	}
	v, err := x.View(3, 2)
	if err != nil {
		t.Fatal(err)
	}
	v.Float32()[5] = 60
	if x.Float32()[5] != 60 {
		t.Fatalf("View does not share storage")
	}
	if _, err := x.View(4, 2); err == nil {
		t.Fatalf("View(4,2) of 6 elements should fail")
	}
}

func TestCloneIsIndependent(t *testing.T) {
	x, _ := FromFloat32([]float32{1, 2}, 2)
	c, err := x.Clone()
	if err != nil {
		t.Fatal(err)
	}
	c.Float32()[0] = 9
	if x.Float32()[0] != 1 {
		t.Fatalf("Clone shares storage with source")
	}
}

func TestToDevice(t *testing.T) {
	x, _ := FromFloat32([]float32{1, 2}, 2)
	same, err := x.ToDevice(backend.CPU0)
	if err != nil || same != x {
		t.Fatalf("ToDevice(cpu) on cpu tensor = %v, %v", same, err)
	}
	if _, err := x.ToDevice(backend.Device{Type: backend.CUDA}); err == nil {
		t.Fatalf("ToDevice(cuda) should fail without a cuda backend")
	}
}

func TestFromFloat32ShapeMismatch(t *testing.T) {
	if _, err := FromFloat32([]float32{1, 2, 3}, 2, 2); err == nil {
		t.Fatalf("FromFloat32 with wrong shape should fail")
	}
}
