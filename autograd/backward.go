package autograd

import (
	"github.com/AaronAnima/Twinnet/tensor"
)

// Backward runs reverse-mode differentiation from out.
// If out.Grad is nil it is seeded with ones (d out / d out). Nodes reachable
// through Inputs are visited in reverse topological order so every node's
// Backward runs after all of its consumers have contributed to its Grad.
func Backward(out *tensor.Tensor) error {
	if !out.RequiresGrad {
		return nil
	}
	if out.Grad == nil {
		ones, err := tensor.Full(out.Device(), 1, out.Shape...)
		if err != nil {
			return err
		}
		out.Grad = ones
	}
	for _, t := range reverseTopo(out) {
		if t.Backward == nil || t.Grad == nil {
			continue
		}
		if err := t.Backward(); err != nil {
			return err
		}
	}
	return nil
}

// reverseTopo returns the grad-requiring nodes reachable from out, consumers first.
func reverseTopo(out *tensor.Tensor) []*tensor.Tensor {
	var order []*tensor.Tensor
	seen := make(map[*tensor.Tensor]bool)
	var visit func(t *tensor.Tensor)
	visit = func(t *tensor.Tensor) {
		if seen[t] || !t.RequiresGrad {
			return
		}
		seen[t] = true
		for _, in := range t.Inputs {
			visit(in)
		}
		order = append(order, t)
	}
	visit(out)
	for i, j := 0, len(order)-1; i < j; i, j = i+1, j-1 {
		order[i], order[j] = order[j], order[i]
	}
	return order
}
