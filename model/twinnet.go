package model

import (
	"fmt"

	"github.com/pkg/errors"

	"github.com/AaronAnima/Twinnet/backend"
	"github.com/AaronAnima/Twinnet/nn"
	"github.com/AaronAnima/Twinnet/ops"
	"github.com/AaronAnima/Twinnet/tensor"
)

// Stack is a two-layer LSTM in which the upper cell reads the lower cell's
// cell state (not its hidden state) and emits its own cell state.
type Stack struct {
	Lower *nn.LSTMCell // InputSize -> HiddenSize
	Upper *nn.LSTMCell // HiddenSize -> HiddenSize
}

func initStack(dev backend.Device, cfg Config, init *nn.Initializer) (Stack, error) {
	lower, err := nn.InitLSTMCell(dev, cfg.InputSize, cfg.HiddenSize, init)
	if err != nil {
		return Stack{}, err
	}
	upper, err := nn.InitLSTMCell(dev, cfg.HiddenSize, cfg.HiddenSize, init)
	if err != nil {
		return Stack{}, err
	}
	return Stack{Lower: lower, Upper: upper}, nil
}

// Params returns "lower.*" and "upper.*".
func (s Stack) Params() *nn.Params {
	out := &nn.Params{}
	out.Merge("lower", s.Lower.Params())
	out.Merge("upper", s.Upper.Params())
	return out
}

// run feeds x through the stack in the given time order from zero state and
// returns the upper cell state of every step, in processing order.
func (s Stack) run(x *tensor.Tensor, batch int, order []int) ([]*tensor.Tensor, error) {
	h1, c1, err := s.Lower.ZeroState(batch)
	if err != nil {
		return nil, err
	}
	h2, c2, err := s.Upper.ZeroState(batch)
	if err != nil {
		return nil, err
	}
	out := make([]*tensor.Tensor, 0, len(order))
	for _, t := range order {
		xt, err := ops.TimeStep(x, t)
		if err != nil {
			return nil, err
		}
		if h1, c1, err = s.Lower.Forward(xt, h1, c1); err != nil {
			return nil, errors.Wrapf(err, "lower cell, step %d", t)
		}
		if h2, c2, err = s.Upper.Forward(c1, h2, c2); err != nil {
			return nil, errors.Wrapf(err, "upper cell, step %d", t)
		}
		out = append(out, c2)
	}
	return out, nil
}

// TwinNetParams holds two independent stacks and two independent heads.
type TwinNetParams struct {
	Forward  Stack
	Backward Stack
	Head     *nn.Linear // forward direction, HiddenSize -> NumClasses
	BackHead *nn.Linear // backward direction, HiddenSize -> NumClasses
}

// NewTwinNetParams initialises TwinNet parameters on cfg's device.
// TwinNet reads one scalar per step, so cfg.InputSize must be 1.
func NewTwinNetParams(cfg Config) (*TwinNetParams, error) {
	if cfg.InputSize != 1 {
		return nil, fmt.Errorf("twinnet: input_size must be 1, got %d", cfg.InputSize)
	}
	dev, init, err := cfg.setup()
	if err != nil {
		return nil, err
	}
	p := &TwinNetParams{}
	if p.Forward, err = initStack(dev, cfg, init); err != nil {
		return nil, err
	}
	if p.Backward, err = initStack(dev, cfg, init); err != nil {
		return nil, err
	}
	if p.Head, err = nn.InitLinear(dev, cfg.HiddenSize, cfg.NumClasses, init); err != nil {
		return nil, err
	}
	if p.BackHead, err = nn.InitLinear(dev, cfg.HiddenSize, cfg.NumClasses, init); err != nil {
		return nil, err
	}
	return p, nil
}

// Params enumerates the parameters for optimizer registration.
func (p *TwinNetParams) Params() *nn.Params {
	out := &nn.Params{}
	out.Merge("forward", p.Forward.Params())
	out.Merge("backward", p.Backward.Params())
	out.Merge("head", p.Head.Params())
	out.Merge("back_head", p.BackHead.Params())
	return out
}

// TwinNetForward reads x [batch, time] or [batch, time, 1] in both
// time directions and returns one score tensor [batch, time, NumClasses] per
// direction. Backward scores are in processing order: position 0 holds the
// step computed from the last input.
func TwinNetForward(cfg Config, p *TwinNetParams, x *tensor.Tensor) (fwd, back *tensor.Tensor, err error) {
	batch, steps, err := checkInput(cfg, p.Forward.Lower.Device(), x)
	if err != nil {
		return nil, nil, errors.Wrap(err, "twinnet")
	}
	fwdSteps, err := p.Forward.run(x, batch, forwardOrder(steps))
	if err != nil {
		return nil, nil, errors.Wrap(err, "twinnet: forward")
	}
	backSteps, err := p.Backward.run(x, batch, reverseOrder(steps))
	if err != nil {
		return nil, nil, errors.Wrap(err, "twinnet: backward")
	}

	fwdSeq, err := ops.Stack(fwdSteps)
	if err != nil {
		return nil, nil, errors.Wrap(err, "twinnet: forward")
	}
	if fwd, err = perStep(p.Head, fwdSeq, batch, steps); err != nil {
		return nil, nil, errors.Wrap(err, "twinnet: head")
	}
	backSeq, err := ops.Stack(backSteps)
	if err != nil {
		return nil, nil, errors.Wrap(err, "twinnet: backward")
	}
	if back, err = perStep(p.BackHead, backSeq, batch, steps); err != nil {
		return nil, nil, errors.Wrap(err, "twinnet: back head")
	}
	return fwd, back, nil
}

// TwinNet binds cfg and p into a forward function.
func TwinNet(cfg Config, p *TwinNetParams) func(x *tensor.Tensor) (*tensor.Tensor, *tensor.Tensor, error) {
	return func(x *tensor.Tensor) (*tensor.Tensor, *tensor.Tensor, error) {
		return TwinNetForward(cfg, p, x)
	}
}
