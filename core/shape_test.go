package core

import (
	"testing"
)

func TestContiguousStrides(t *testing.T) {
	shape := Shape{2, 5, 3}
	strides := ContiguousStrides(shape, 4)
	if len(strides) != 3 || strides[0] != 60 || strides[1] != 12 || strides[2] != 4 {
		t.Fatalf("ContiguousStrides([2,5,3], 4) = %v, want [60, 12, 4]", strides)
	}
}

func TestBroadcastShapes(t *testing.T) {
	a, b := Shape{10, 8}, Shape{8}
	out, err := BroadcastShapes(a, b)
	if err != nil || !out.Equal(Shape{10, 8}) {
		t.Fatalf("BroadcastShapes([10,8], [8]) = %v, %v", out, err)
	}
	if _, err := BroadcastShapes(Shape{2, 3}, Shape{4}); err == nil {
		t.Fatalf("BroadcastShapes([2,3], [4]) should fail")
	}
}

func TestNumElements(t *testing.T) {
	if n := (Shape{2, 5, 4}).NumElements(); n != 40 {
		t.Fatalf("NumElements = %d, want 40", n)
	}
	if n := (Shape{2, 0, 4}).NumElements(); n != 0 {
		t.Fatalf("NumElements with zero dim = %d, want 0", n)
	}
}

func TestShapeEqualAndClone(t *testing.T) {
	s := Shape{2, 5, 2}
	c := s.Clone()
	c[0] = 7
	if s[0] != 2 {
		t.Fatalf("Clone aliases the original: %v", s)
	}
	if s.Equal(c) || !s.Equal(Shape{2, 5, 2}) || s.Equal(Shape{2, 5}) {
		t.Fatalf("Equal gave wrong answers for %v / %v", s, c)
	}
}
