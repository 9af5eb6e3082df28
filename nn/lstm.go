package nn

import (
	"fmt"

	"github.com/AaronAnima/Twinnet/backend"
	"github.com/AaronAnima/Twinnet/ops"
	"github.com/AaronAnima/Twinnet/tensor"
)

// LSTMCell is a single LSTM step. The four gates are stacked along the first
// axis of the weights in the order input, forget, cell, output.
type LSTMCell struct {
	InputSize  int
	HiddenSize int

	WeightIH *tensor.Tensor // [4*HiddenSize, InputSize]
	WeightHH *tensor.Tensor // [4*HiddenSize, HiddenSize]
	BiasIH   *tensor.Tensor // [4*HiddenSize]
	BiasHH   *tensor.Tensor // [4*HiddenSize]
}

// NewLSTMCell wraps caller-provided weights after checking their shapes.
func NewLSTMCell(inputSize, hiddenSize int, wih, whh, bih, bhh *tensor.Tensor) (*LSTMCell, error) {
	g := 4 * hiddenSize
	switch {
	case !wih.Shape.Equal([]int{g, inputSize}):
		return nil, fmt.Errorf("LSTMCell: weight_ih %v, want [%d,%d]", wih.Shape, g, inputSize)
	case !whh.Shape.Equal([]int{g, hiddenSize}):
		return nil, fmt.Errorf("LSTMCell: weight_hh %v, want [%d,%d]", whh.Shape, g, hiddenSize)
	case !bih.Shape.Equal([]int{g}) || !bhh.Shape.Equal([]int{g}):
		return nil, fmt.Errorf("LSTMCell: biases %v, %v, want [%d]", bih.Shape, bhh.Shape, g)
	}
	dev := wih.Device()
	for _, t := range []*tensor.Tensor{whh, bih, bhh} {
		if t.Device() != dev {
			return nil, fmt.Errorf("LSTMCell: parameters split across %s and %s", dev, t.Device())
		}
	}
	return &LSTMCell{
		InputSize:  inputSize,
		HiddenSize: hiddenSize,
		WeightIH:   wih,
		WeightHH:   whh,
		BiasIH:     bih,
		BiasHH:     bhh,
	}, nil
}

// InitLSTMCell allocates a cell on dev with every parameter drawn from
// U(-1/sqrt(hidden), 1/sqrt(hidden)).
func InitLSTMCell(dev backend.Device, inputSize, hiddenSize int, init *Initializer) (*LSTMCell, error) {
	bound := fanBound(hiddenSize)
	g := 4 * hiddenSize
	wih, err := init.Uniform(dev, bound, g, inputSize)
	if err != nil {
		return nil, err
	}
	whh, err := init.Uniform(dev, bound, g, hiddenSize)
	if err != nil {
		return nil, err
	}
	bih, err := init.Uniform(dev, bound, g)
	if err != nil {
		return nil, err
	}
	bhh, err := init.Uniform(dev, bound, g)
	if err != nil {
		return nil, err
	}
	return NewLSTMCell(inputSize, hiddenSize, wih, whh, bih, bhh)
}

// Device returns the device the cell's parameters live on.
func (c *LSTMCell) Device() backend.Device {
	return c.WeightIH.Device()
}

// Params returns weight_ih, weight_hh, bias_ih, bias_hh.
func (c *LSTMCell) Params() *Params {
	p := &Params{}
	p.Add("weight_ih", c.WeightIH)
	p.Add("weight_hh", c.WeightHH)
	p.Add("bias_ih", c.BiasIH)
	p.Add("bias_hh", c.BiasHH)
	return p
}

// ZeroState returns zero (h, c) for a batch, on the cell's device.
func (c *LSTMCell) ZeroState(batch int) (h, cell *tensor.Tensor, err error) {
	h, err = tensor.Zeros(c.Device(), batch, c.HiddenSize)
	if err != nil {
		return nil, nil, err
	}
	cell, err = tensor.Zeros(c.Device(), batch, c.HiddenSize)
	if err != nil {
		return nil, nil, err
	}
	return h, cell, nil
}

// Forward computes one step:
//
//	i, f, g, o = σ, σ, tanh, σ of (x W_ih^T + b_ih + h W_hh^T + b_hh)
//	c' = f*c + i*g
//	h' = o*tanh(c')
//
// x is [batch, InputSize]; h and cell are [batch, HiddenSize].
func (c *LSTMCell) Forward(x, h, cell *tensor.Tensor) (hNext, cNext *tensor.Tensor, err error) {
	if len(x.Shape) != 2 || x.Shape[1] != c.InputSize {
		return nil, nil, fmt.Errorf("LSTMCell: input %v, want [batch, %d]", x.Shape, c.InputSize)
	}
	state := []int{x.Shape[0], c.HiddenSize}
	if !h.Shape.Equal(state) || !cell.Shape.Equal(state) {
		return nil, nil, fmt.Errorf("LSTMCell: state %v / %v, want %v", h.Shape, cell.Shape, state)
	}

	gx, err := ops.MatMul(x, c.WeightIH, false, true)
	if err != nil {
		return nil, nil, err
	}
	gh, err := ops.MatMul(h, c.WeightHH, false, true)
	if err != nil {
		return nil, nil, err
	}
	gates, err := ops.Add(gx, gh)
	if err != nil {
		return nil, nil, err
	}
	if gates, err = ops.Add(gates, c.BiasIH); err != nil {
		return nil, nil, err
	}
	if gates, err = ops.Add(gates, c.BiasHH); err != nil {
		return nil, nil, err
	}

	parts, err := ops.Split(gates, 4)
	if err != nil {
		return nil, nil, err
	}
	i, err := ops.Sigmoid(parts[0])
	if err != nil {
		return nil, nil, err
	}
	f, err := ops.Sigmoid(parts[1])
	if err != nil {
		return nil, nil, err
	}
	g, err := ops.Tanh(parts[2])
	if err != nil {
		return nil, nil, err
	}
	o, err := ops.Sigmoid(parts[3])
	if err != nil {
		return nil, nil, err
	}

	kept, err := ops.Mul(f, cell)
	if err != nil {
		return nil, nil, err
	}
	written, err := ops.Mul(i, g)
	if err != nil {
		return nil, nil, err
	}
	if cNext, err = ops.Add(kept, written); err != nil {
		return nil, nil, err
	}
	tc, err := ops.Tanh(cNext)
	if err != nil {
		return nil, nil, err
	}
	if hNext, err = ops.Mul(o, tc); err != nil {
		return nil, nil, err
	}
	return hNext, cNext, nil
}
