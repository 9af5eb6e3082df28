package ops

import (
	"fmt"

	"github.com/AaronAnima/Twinnet/backend"
	"github.com/AaronAnima/Twinnet/tensor"
)

// SeqDims returns (batch, time, features) of a sequence tensor.
// A rank-2 tensor [batch, time] is a sequence of scalars (features = 1).
func SeqDims(x *tensor.Tensor) (batch, steps, features int, err error) {
	switch len(x.Shape) {
	case 2:
		return x.Shape[0], x.Shape[1], 1, nil
	case 3:
		return x.Shape[0], x.Shape[1], x.Shape[2], nil
	default:
		return 0, 0, 0, fmt.Errorf("sequence input must be [batch, time, features] or [batch, time], got %v", x.Shape)
	}
}

// TimeStep copies the slice x[:, t, :] into a new [batch, features] tensor.
func TimeStep(x *tensor.Tensor, t int) (*tensor.Tensor, error) {
	batch, steps, features, err := SeqDims(x)
	if err != nil {
		return nil, err
	}
	if t < 0 || t >= steps {
		return nil, fmt.Errorf("timestep %d out of range [0, %d)", t, steps)
	}
	out, err := tensor.Alloc(x.Device(), batch, features)
	if err != nil {
		return nil, err
	}
	be, _ := backend.GetForDevice(x.Device())
	if err := be.CopyBlocks(out.Storage, x.Storage, batch, features, features, 0, steps*features, t*features); err != nil {
		out.Storage.Free()
		return nil, err
	}
	return out, nil
}

// Stack joins per-step [batch, width] tensors into [batch, len(steps), width].
func Stack(steps []*tensor.Tensor) (*tensor.Tensor, error) {
	if len(steps) == 0 {
		return nil, fmt.Errorf("stack: no tensors")
	}
	first := steps[0]
	if len(first.Shape) != 2 {
		return nil, fmt.Errorf("stack: need [batch, width] tensors, got %v", first.Shape)
	}
	dev, err := sameDevice("stack", steps...)
	if err != nil {
		return nil, err
	}
	batch, width := first.Shape[0], first.Shape[1]
	out, err := tensor.Alloc(dev, batch, len(steps), width)
	if err != nil {
		return nil, err
	}
	be, _ := backend.GetForDevice(dev)
	for t, s := range steps {
		if !s.Shape.Equal(first.Shape) {
			out.Storage.Free()
			return nil, fmt.Errorf("stack: step %d has shape %v, want %v", t, s.Shape, first.Shape)
		}
		if err := be.CopyBlocks(out.Storage, s.Storage, batch, width, len(steps)*width, t*width, width, 0); err != nil {
			out.Storage.Free()
			return nil, err
		}
	}
	return out, nil
}

// Split cuts a [rows, cols] tensor into parts equal [rows, cols/parts] column blocks.
func Split(x *tensor.Tensor, parts int) ([]*tensor.Tensor, error) {
	if len(x.Shape) != 2 || parts <= 0 || x.Shape[1]%parts != 0 {
		return nil, fmt.Errorf("split: cannot cut %v into %d column blocks", x.Shape, parts)
	}
	rows, cols := x.Shape[0], x.Shape[1]
	width := cols / parts
	be, err := backend.GetForDevice(x.Device())
	if err != nil {
		return nil, err
	}
	out := make([]*tensor.Tensor, parts)
	for p := range out {
		blk, err := tensor.Alloc(x.Device(), rows, width)
		if err != nil {
			return nil, err
		}
		if err := be.CopyBlocks(blk.Storage, x.Storage, rows, width, width, 0, cols, p*width); err != nil {
			return nil, err
		}
		out[p] = blk
	}
	return out, nil
}
