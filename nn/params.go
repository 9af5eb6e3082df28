package nn

import (
	"github.com/AaronAnima/Twinnet/tensor"
)

// Param is a named learnable tensor.
type Param struct {
	Name   string
	Tensor *tensor.Tensor
}

// Params is an ordered collection of named parameters. The order is stable
// so optimizers can register Tensors() once and rely on it.
type Params struct {
	list []Param
}

// Add appends a parameter under name.
func (p *Params) Add(name string, t *tensor.Tensor) {
	p.list = append(p.list, Param{Name: name, Tensor: t})
}

// Merge appends every parameter of other, prefixing names with prefix + ".".
func (p *Params) Merge(prefix string, other *Params) {
	if other == nil {
		return
	}
	for _, q := range other.list {
		p.Add(prefix+"."+q.Name, q.Tensor)
	}
}

// Named returns the parameters in registration order.
func (p *Params) Named() []Param {
	out := make([]Param, len(p.list))
	copy(out, p.list)
	return out
}

// Tensors returns the parameter tensors in registration order.
func (p *Params) Tensors() []*tensor.Tensor {
	out := make([]*tensor.Tensor, len(p.list))
	for i, q := range p.list {
		out[i] = q.Tensor
	}
	return out
}

// Get returns the tensor registered under name, or nil.
func (p *Params) Get(name string) *tensor.Tensor {
	for _, q := range p.list {
		if q.Name == name {
			return q.Tensor
		}
	}
	return nil
}

// Len returns the number of parameter tensors.
func (p *Params) Len() int { return len(p.list) }

// NumElements returns the total number of scalar parameters.
func (p *Params) NumElements() int {
	n := 0
	for _, q := range p.list {
		n += q.Tensor.NumElements()
	}
	return n
}

// SetRequiresGrad marks every parameter as (not) requiring gradients.
func (p *Params) SetRequiresGrad(on bool) {
	for _, q := range p.list {
		q.Tensor.RequiresGrad = on
	}
}
