// Package ops implements the tensor primitives the sequence models are built from.
// Every op allocates its output on the input's device through the registered backend.
package ops

import (
	"fmt"

	"github.com/AaronAnima/Twinnet/autograd"
	"github.com/AaronAnima/Twinnet/backend"
	"github.com/AaronAnima/Twinnet/core"
	"github.com/AaronAnima/Twinnet/tensor"
)

// sameDevice returns the shared device of ts, or an error naming op if they differ.
func sameDevice(op string, ts ...*tensor.Tensor) (backend.Device, error) {
	dev := ts[0].Device()
	for _, t := range ts[1:] {
		if t.Device() != dev {
			return backend.Device{}, fmt.Errorf("%s: device mismatch %s vs %s", op, dev, t.Device())
		}
	}
	return dev, nil
}

func binary(op string, a, b *tensor.Tensor, kernel func(be backend.Backend, dst backend.Storage, outShape core.Shape) error) (*tensor.Tensor, error) {
	dev, err := sameDevice(op, a, b)
	if err != nil {
		return nil, err
	}
	outShape, err := core.BroadcastShapes(a.Shape, b.Shape)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	out, err := tensor.Alloc(dev, outShape...)
	if err != nil {
		return nil, err
	}
	be, _ := backend.GetForDevice(dev)
	if err := kernel(be, out.Storage, outShape); err != nil {
		out.Storage.Free()
		return nil, err
	}
	return out, nil
}

// Add returns a + b with broadcasting.
func Add(a, b *tensor.Tensor) (*tensor.Tensor, error) {
	return binary("add", a, b, func(be backend.Backend, dst backend.Storage, outShape core.Shape) error {
		return be.Add(dst, a.Storage, b.Storage, a.Shape, b.Shape, a.Strides, b.Strides, outShape)
	})
}

// Mul returns a * b (element-wise with broadcast).
func Mul(a, b *tensor.Tensor) (*tensor.Tensor, error) {
	return binary("mul", a, b, func(be backend.Backend, dst backend.Storage, outShape core.Shape) error {
		return be.Mul(dst, a.Storage, b.Storage, a.Shape, b.Shape, a.Strides, b.Strides, outShape)
	})
}

func unary(x *tensor.Tensor, kernel func(be backend.Backend, dst, src backend.Storage, n int) error) (*tensor.Tensor, error) {
	out, err := tensor.Alloc(x.Device(), x.Shape...)
	if err != nil {
		return nil, err
	}
	be, _ := backend.GetForDevice(x.Device())
	if err := kernel(be, out.Storage, x.Storage, x.NumElements()); err != nil {
		out.Storage.Free()
		return nil, err
	}
	return out, nil
}

// Sigmoid returns 1 / (1 + exp(-x)).
func Sigmoid(x *tensor.Tensor) (*tensor.Tensor, error) {
	return unary(x, func(be backend.Backend, dst, src backend.Storage, n int) error { return be.Sigmoid(dst, src, n) })
}

// Tanh returns tanh(x).
func Tanh(x *tensor.Tensor) (*tensor.Tensor, error) {
	return unary(x, func(be backend.Backend, dst, src backend.Storage, n int) error { return be.Tanh(dst, src, n) })
}

// MatMul returns op(a) @ op(b) for 2D tensors, where op transposes when the flag is set.
func MatMul(a, b *tensor.Tensor, transA, transB bool) (*tensor.Tensor, error) {
	if len(a.Shape) != 2 || len(b.Shape) != 2 {
		return nil, fmt.Errorf("matmul: need 2D operands, got %v and %v", a.Shape, b.Shape)
	}
	dev, err := sameDevice("matmul", a, b)
	if err != nil {
		return nil, err
	}
	M, K := a.Shape[0], a.Shape[1]
	if transA {
		M, K = K, M
	}
	K2, N := b.Shape[0], b.Shape[1]
	if transB {
		K2, N = N, K2
	}
	if K != K2 {
		return nil, fmt.Errorf("matmul: inner dims differ: %v (trans=%v) @ %v (trans=%v)", a.Shape, transA, b.Shape, transB)
	}
	out, err := tensor.Alloc(dev, M, N)
	if err != nil {
		return nil, err
	}
	be, _ := backend.GetForDevice(dev)
	if err := be.MatMul(out.Storage, a.Storage, b.Storage, M, N, K, transA, transB); err != nil {
		out.Storage.Free()
		return nil, err
	}
	return out, nil
}

// SumRows reduces a [rows, cols] tensor over rows to [cols].
func SumRows(x *tensor.Tensor) (*tensor.Tensor, error) {
	if len(x.Shape) != 2 {
		return nil, fmt.Errorf("sumrows: need 2D tensor, got %v", x.Shape)
	}
	out, err := tensor.Alloc(x.Device(), x.Shape[1])
	if err != nil {
		return nil, err
	}
	be, _ := backend.GetForDevice(x.Device())
	if err := be.Sum(out.Storage, x.Storage, x.Shape, x.Strides, 0); err != nil {
		out.Storage.Free()
		return nil, err
	}
	return out, nil
}

// Reshape is View that takes part in autograd: the gradient of the result is
// reshaped back and accumulated into x.
func Reshape(x *tensor.Tensor, shape ...int) (*tensor.Tensor, error) {
	out, err := x.View(shape...)
	if err != nil {
		return nil, err
	}
	if !x.RequiresGrad {
		return out, nil
	}
	out.RequiresGrad = true
	out.Inputs = []*tensor.Tensor{x}
	out.Backward = func() error {
		g, err := out.Grad.View(x.Shape...)
		if err != nil {
			return err
		}
		return autograd.AccumulateGrad(x, g)
	}
	return out, nil
}
