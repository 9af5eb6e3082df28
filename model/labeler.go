package model

import (
	"github.com/pkg/errors"

	"github.com/AaronAnima/Twinnet/nn"
	"github.com/AaronAnima/Twinnet/ops"
	"github.com/AaronAnima/Twinnet/tensor"
)

// LabelerParams holds the learnable state of a Labeler.
type LabelerParams struct {
	Cell *nn.LSTMCell // InputSize -> HiddenSize
	Head *nn.Linear   // HiddenSize -> NumClasses
}

// NewLabelerParams initialises Labeler parameters on cfg's device.
func NewLabelerParams(cfg Config) (*LabelerParams, error) {
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
	return &LabelerParams{Cell: cell, Head: head}, nil
}

// Params enumerates the parameters for optimizer registration.
func (p *LabelerParams) Params() *nn.Params {
	out := &nn.Params{}
	out.Merge("cell", p.Cell.Params())
	out.Merge("head", p.Head.Params())
	return out
}

// LabelerForward maps x [batch, time, InputSize] to class scores [batch, time, NumClasses].
func LabelerForward(cfg Config, p *LabelerParams, x *tensor.Tensor) (*tensor.Tensor, error) {
	batch, steps, err := checkInput(cfg, p.Cell.Device(), x)
	if err != nil {
		return nil, errors.Wrap(err, "labeler")
	}
	hs, err := unroll(p.Cell, x, batch, forwardOrder(steps))
	if err != nil {
		return nil, errors.Wrap(err, "labeler")
	}
	seq, err := ops.Stack(hs)
	if err != nil {
		return nil, errors.Wrap(err, "labeler")
	}
	out, err := perStep(p.Head, seq, batch, steps)
	if err != nil {
		return nil, errors.Wrap(err, "labeler: head")
	}
	return out, nil
}

// Labeler binds cfg and p into a forward function.
func Labeler(cfg Config, p *LabelerParams) func(x *tensor.Tensor) (*tensor.Tensor, error) {
	return func(x *tensor.Tensor) (*tensor.Tensor, error) {
		return LabelerForward(cfg, p, x)
	}
}
