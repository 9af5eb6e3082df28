// Package model defines three LSTM sequence labelers:
//
//   - Labeler: one LSTM cell unrolled over time, a linear head per step.
//   - Twin: Labeler that also returns the hidden-state sequence, passed through
//     a learned affine map unless configured as the reverse half of a pair.
//   - TwinNet: two independent two-layer LSTM stacks, one reading the sequence
//     forward and one backward, each with its own head.
//
// Each model is a Config record, a parameter container and a pure forward
// function. Forward functions never write parameter storage; updating
// parameters is left to the caller's training loop. Hidden and cell states
// start at zero on every call.
package model

import (
	// the CPU backend is always available as a fallback device
	_ "github.com/AaronAnima/Twinnet/backend/cpu"
)
