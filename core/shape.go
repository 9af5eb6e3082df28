package core

import (
	"fmt"
)

// Shape is the dimension sizes of a tensor, e.g. [batch, time, features].
type Shape []int

// Strides are byte offsets per axis (row-major).
type Strides []int

// ContiguousStrides computes row-major strides for a shape.
// Last axis stride = elemSize; strides[i] = strides[i+1] * shape[i+1].
func ContiguousStrides(shape Shape, elemSize uintptr) Strides {
	if len(shape) == 0 {
		return nil
	}
	strides := make(Strides, len(shape))
	strides[len(shape)-1] = int(elemSize)
	for i := len(shape) - 2; i >= 0; i-- {
		strides[i] = strides[i+1] * shape[i+1]
	}
	return strides
}

// NumElements returns the total number of elements (product of dimensions).
func (s Shape) NumElements() int {
	if len(s) == 0 {
		return 0
	}
	n := 1
	for _, d := range s {
		if d <= 0 {
			return 0
		}
		n *= d
	}
	return n
}

// Equal reports whether s and o have the same rank and dimensions.
func (s Shape) Equal(o Shape) bool {
	if len(s) != len(o) {
		return false
	}
	for i := range s {
		if s[i] != o[i] {
			return false
		}
	}
	return true
}

// Clone returns a copy of s that does not alias it.
func (s Shape) Clone() Shape {
	out := make(Shape, len(s))
	copy(out, s)
	return out
}

// BroadcastShapes applies NumPy-style broadcasting: pad shorter with 1s on the left,
// then compare right-to-left; equal dims stay, one is 1 -> expand to other, else error.
func BroadcastShapes(a, b Shape) (Shape, error) {
	na, nb := len(a), len(b)
	maxLen := na
	if nb > maxLen {
		maxLen = nb
	}
	out := make(Shape, maxLen)
	for i := 0; i < maxLen; i++ {
		da, db := 1, 1
		if i >= maxLen-na {
			da = a[i-(maxLen-na)]
		}
		if i >= maxLen-nb {
			db = b[i-(maxLen-nb)]
		}
		switch {
		case da == db:
			out[i] = da
		case da == 1:
			out[i] = db
		case db == 1:
			out[i] = da
		default:
			return nil, fmt.Errorf("broadcast: incompatible shapes %v and %v", a, b)
		}
	}
	return out, nil
}
