package model

import (
	"fmt"

	"github.com/pkg/errors"

	"github.com/AaronAnima/Twinnet/backend"
	"github.com/AaronAnima/Twinnet/nn"
	"github.com/AaronAnima/Twinnet/ops"
	"github.com/AaronAnima/Twinnet/tensor"
)

// checkInput validates x against the configured feature width and the
// parameters' device and returns its batch and time sizes.
func checkInput(cfg Config, dev backend.Device, x *tensor.Tensor) (batch, steps int, err error) {
	batch, steps, features, err := ops.SeqDims(x)
	if err != nil {
		return 0, 0, err
	}
	if features != cfg.InputSize {
		return 0, 0, fmt.Errorf("input has %d features, model expects %d", features, cfg.InputSize)
	}
	if batch == 0 || steps == 0 {
		return 0, 0, fmt.Errorf("empty input %v", x.Shape)
	}
	if x.Device() != dev {
		return 0, 0, fmt.Errorf("input on %s, parameters on %s", x.Device(), dev)
	}
	return batch, steps, nil
}

// forwardOrder and reverseOrder list time indices in processing order.
func forwardOrder(steps int) []int {
	order := make([]int, steps)
	for i := range order {
		order[i] = i
	}
	return order
}

func reverseOrder(steps int) []int {
	order := make([]int, steps)
	for i := range order {
		order[i] = steps - 1 - i
	}
	return order
}

// unroll runs cell over x from zero state and returns h_t for every step.
func unroll(cell *nn.LSTMCell, x *tensor.Tensor, batch int, order []int) ([]*tensor.Tensor, error) {
	h, c, err := cell.ZeroState(batch)
	if err != nil {
		return nil, err
	}
	hs := make([]*tensor.Tensor, 0, len(order))
	for _, t := range order {
		xt, err := ops.TimeStep(x, t)
		if err != nil {
			return nil, err
		}
		if h, c, err = cell.Forward(xt, h, c); err != nil {
			return nil, errors.Wrapf(err, "step %d", t)
		}
		hs = append(hs, h)
	}
	return hs, nil
}

// perStep flattens seq [batch, steps, width] to [batch*steps, width], applies
// lin to every row and reshapes back to [batch, steps, lin.OutSize].
func perStep(lin *nn.Linear, seq *tensor.Tensor, batch, steps int) (*tensor.Tensor, error) {
	flat, err := seq.View(batch*steps, seq.Shape[2])
	if err != nil {
		return nil, err
	}
	out, err := lin.Forward(flat)
	if err != nil {
		return nil, err
	}
	return ops.Reshape(out, batch, steps, lin.OutSize)
}
