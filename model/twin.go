package model

import (
	"github.com/pkg/errors"

	"github.com/AaronAnima/Twinnet/nn"
	"github.com/AaronAnima/Twinnet/ops"
	"github.com/AaronAnima/Twinnet/tensor"
)

// TwinParams holds the learnable state of a Twin. Affine is nil when the
// model is configured as the reverse half of a pair.
type TwinParams struct {
	Cell   *nn.LSTMCell // InputSize -> HiddenSize
	Head   *nn.Linear   // HiddenSize -> NumClasses
	Affine *nn.Linear   // HiddenSize -> HiddenSize, forward mode only
}

// NewTwinParams initialises Twin parameters on cfg's device.
func NewTwinParams(cfg Config) (*TwinParams, error) {
	dev, init, err := cfg.setup()
	if err != nil {
		return nil, err
	}
	cell, err := nn.InitLSTMCell(dev, cfg.InputSize, cfg.HiddenSize, init)
	if err != nil {
		return nil, err
	}
	head, err := nn.InitLinear(dev, cfg.HiddenSize, cfg.NumClasses, init)
	if err != nil {
		return nil, err
	}
	p := &TwinParams{Cell: cell, Head: head}
	if !cfg.Reverse {
		if p.Affine, err = nn.InitLinear(dev, cfg.HiddenSize, cfg.HiddenSize, init); err != nil {
			return nil, err
		}
	}
	return p, nil
}

// Params enumerates the parameters for optimizer registration.
func (p *TwinParams) Params() *nn.Params {
	out := &nn.Params{}
	out.Merge("cell", p.Cell.Params())
	out.Merge("head", p.Head.Params())
	if p.Affine != nil {
		out.Merge("affine", p.Affine.Params())
	}
	return out
}

// TwinForward returns class scores [batch, time, NumClasses] and the hidden
// state sequence [batch, time, HiddenSize]. Unless cfg.Reverse is set, every
// per-step state vector is passed through p.Affine first, so a forward model's
// states can be matched against a separately trained reverse model.
func TwinForward(cfg Config, p *TwinParams, x *tensor.Tensor) (scores, states *tensor.Tensor, err error) {
	if !cfg.Reverse && p.Affine == nil {
		return nil, nil, errors.New("twin: forward mode needs affine parameters")
	}
	batch, steps, err := checkInput(cfg, p.Cell.Device(), x)
	if err != nil {
		return nil, nil, errors.Wrap(err, "twin")
	}
	hs, err := unroll(p.Cell, x, batch, forwardOrder(steps))
	if err != nil {
		return nil, nil, errors.Wrap(err, "twin")
	}
	// outputs and states hold the same h_t values; they are stacked separately
	// so the two results never share storage.
	outputs := hs
	stateSteps := make([]*tensor.Tensor, len(hs))
	copy(stateSteps, hs)

	seq, err := ops.Stack(outputs)
	if err != nil {
		return nil, nil, errors.Wrap(err, "twin")
	}
	if scores, err = perStep(p.Head, seq, batch, steps); err != nil {
		return nil, nil, errors.Wrap(err, "twin: head")
	}
	if states, err = ops.Stack(stateSteps); err != nil {
		return nil, nil, errors.Wrap(err, "twin")
	}
	if !cfg.Reverse {
		if states, err = perStep(p.Affine, states, batch, steps); err != nil {
			return nil, nil, errors.Wrap(err, "twin: affine")
		}
	}
	return scores, states, nil
}

// Twin binds cfg and p into a forward function.
func Twin(cfg Config, p *TwinParams) func(x *tensor.Tensor) (*tensor.Tensor, *tensor.Tensor, error) {
	return func(x *tensor.Tensor) (*tensor.Tensor, *tensor.Tensor, error) {
		return TwinForward(cfg, p, x)
	}
}
