package nn

import (
	"fmt"

	"github.com/AaronAnima/Twinnet/autograd"
	"github.com/AaronAnima/Twinnet/backend"
	"github.com/AaronAnima/Twinnet/ops"
	"github.com/AaronAnima/Twinnet/tensor"
)

// Linear is y = x @ W^T + bias. InSize, OutSize; W is [OutSize, InSize], bias [OutSize].
type Linear struct {
	W       *tensor.Tensor // [OutSize, InSize]
	Bias    *tensor.Tensor // [OutSize]
	InSize  int
	OutSize int
}

// NewLinear creates a linear layer with W and bias (caller provides initialized tensors).
func NewLinear(inSize, outSize int, W, bias *tensor.Tensor) (*Linear, error) {
	if !W.Shape.Equal([]int{outSize, inSize}) || !bias.Shape.Equal([]int{outSize}) {
		return nil, fmt.Errorf("Linear: W must be [%d,%d], bias [%d]; got %v, %v", outSize, inSize, outSize, W.Shape, bias.Shape)
	}
	if W.Device() != bias.Device() {
		return nil, fmt.Errorf("Linear: W on %s, bias on %s", W.Device(), bias.Device())
	}
	return &Linear{W: W, Bias: bias, InSize: inSize, OutSize: outSize}, nil
}

// InitLinear allocates a Linear on dev with W and bias drawn from U(-1/sqrt(in), 1/sqrt(in)).
func InitLinear(dev backend.Device, inSize, outSize int, init *Initializer) (*Linear, error) {
	bound := fanBound(inSize)
	w, err := init.Uniform(dev, bound, outSize, inSize)
	if err != nil {
		return nil, err
	}
	b, err := init.Uniform(dev, bound, outSize)
	if err != nil {
		return nil, err
	}
	return NewLinear(inSize, outSize, w, b)
}

// Params returns "weight" and "bias".
func (l *Linear) Params() *Params {
	p := &Params{}
	p.Add("weight", l.W)
	p.Add("bias", l.Bias)
	return p
}

// Forward computes x @ W^T + bias. x: [..., InSize], out: [..., OutSize].
// When W or Bias require grad the output carries a backward hook that
// accumulates dW = gOut^T @ x and dBias = sum over rows of gOut (and dx when x
// requires grad).
func (l *Linear) Forward(x *tensor.Tensor) (*tensor.Tensor, error) {
	if len(x.Shape) == 0 || x.Shape[len(x.Shape)-1] != l.InSize {
		return nil, fmt.Errorf("Linear: input %v, want last dim %d", x.Shape, l.InSize)
	}
	rows := x.NumElements() / l.InSize
	x2, err := x.View(rows, l.InSize)
	if err != nil {
		return nil, err
	}
	y, err := ops.MatMul(x2, l.W, false, true)
	if err != nil {
		return nil, err
	}
	y, err = ops.Add(y, l.Bias)
	if err != nil {
		return nil, err
	}
	outShape := x.Shape.Clone()
	outShape[len(outShape)-1] = l.OutSize
	out, err := y.View(outShape...)
	if err != nil {
		return nil, err
	}
	if !l.W.RequiresGrad && !l.Bias.RequiresGrad && !x.RequiresGrad {
		return out, nil
	}
	out.RequiresGrad = true
	out.Inputs = []*tensor.Tensor{l.W, l.Bias, x}
	out.Backward = func() error {
		g, err := out.Grad.View(rows, l.OutSize)
		if err != nil {
			return err
		}
		if l.W.RequiresGrad {
			dW, err := ops.MatMul(g, x2, true, false)
			if err != nil {
				return err
			}
			if err := autograd.AccumulateGrad(l.W, dW); err != nil {
				return err
			}
		}
		if l.Bias.RequiresGrad {
			db, err := ops.SumRows(g)
			if err != nil {
				return err
			}
			if err := autograd.AccumulateGrad(l.Bias, db); err != nil {
				return err
			}
		}
		if x.RequiresGrad {
			dx, err := ops.MatMul(g, l.W, false, false)
			if err != nil {
				return err
			}
			dx, err = dx.View(x.Shape...)
			if err != nil {
				return err
			}
			return autograd.AccumulateGrad(x, dx)
		}
		return nil
	}
	return out, nil
}
