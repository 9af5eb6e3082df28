package autograd

import (
	"fmt"

	"github.com/AaronAnima/Twinnet/backend"
	"github.com/AaronAnima/Twinnet/core"
	"github.com/AaronAnima/Twinnet/tensor"
)

// ZeroGrad allocates zero gradient storage for t if it requires grad and has none.
func ZeroGrad(t *tensor.Tensor) error {
	if !t.RequiresGrad || t.Grad != nil {
		return nil
	}
	if t.DType != core.Float32 {
		return fmt.Errorf("autograd: gradients need float32, got %s", t.DType)
	}
	g, err := tensor.Zeros(t.Device(), t.Shape...)
	if err != nil {
		return err
	}
	t.Grad = g
	return nil
}

// AccumulateGrad adds grad into t.Grad (creating t.Grad if nil).
// grad must have t's shape.
func AccumulateGrad(t *tensor.Tensor, grad *tensor.Tensor) error {
	if grad == nil {
		return nil
	}
	if !grad.Shape.Equal(t.Shape) {
		return fmt.Errorf("autograd: grad shape %v does not match tensor shape %v", grad.Shape, t.Shape)
	}
	if t.Grad == nil {
		if err := ZeroGrad(t); err != nil {
			return err
		}
	}
	if t.Grad == nil {
		return nil
	}
	be, err := backend.GetForDevice(t.Device())
	if err != nil {
		return err
	}
	return be.Add(t.Grad.Storage, t.Grad.Storage, grad.Storage, t.Shape, grad.Shape, t.Grad.Strides, grad.Strides, t.Shape)
}

// ClearGrads drops the gradients of params so the next backward starts from zero.
func ClearGrads(params []*tensor.Tensor) {
	for _, p := range params {
		p.Grad = nil
	}
}
