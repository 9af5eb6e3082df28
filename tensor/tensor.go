package tensor

import (
	"fmt"

	"github.com/AaronAnima/Twinnet/backend"
	"github.com/AaronAnima/Twinnet/core"
)

// Tensor is the core multi-dimensional array: storage + shape + strides + dtype.
// Grad is set during backward; Backward propagates Grad into Inputs.
type Tensor struct {
	Storage      backend.Storage
	Shape        core.Shape
	Strides      core.Strides
	DType        core.DType
	Grad         *Tensor      // accumulated gradient (optional)
	Backward     func() error // called during backward pass (optional)
	Inputs       []*Tensor    // tensors this one was computed from, for graph traversal
	RequiresGrad bool
}

// New creates a tensor from existing storage, shape, and strides.
// If strides is nil, contiguous row-major strides are computed.
func New(storage backend.Storage, shape core.Shape, strides core.Strides, dtype core.DType) *Tensor {
	if strides == nil {
		strides = core.ContiguousStrides(shape, dtype.Size())
	}
	return &Tensor{
		Storage: storage,
		Shape:   shape,
		Strides: strides,
		DType:   dtype,
	}
}

// Alloc allocates an uninitialised float32 tensor of the given shape on dev.
func Alloc(dev backend.Device, shape ...int) (*Tensor, error) {
	be, err := backend.GetForDevice(dev)
	if err != nil {
		return nil, err
	}
	s := core.Shape(shape).Clone()
	storage, err := be.Alloc(s.NumElements() * int(core.Float32.Size()))
	if err != nil {
		return nil, err
	}
	return New(storage, s, nil, core.Float32), nil
}

// Zeros allocates a float32 tensor of the given shape on dev, filled with 0.
func Zeros(dev backend.Device, shape ...int) (*Tensor, error) {
	return Full(dev, 0, shape...)
}

// Full allocates a float32 tensor of the given shape on dev, filled with value.
func Full(dev backend.Device, value float32, shape ...int) (*Tensor, error) {
	t, err := Alloc(dev, shape...)
	if err != nil {
		return nil, err
	}
	be, _ := backend.GetForDevice(dev)
	if err := be.Fill(t.Storage, t.NumElements(), value); err != nil {
		t.Storage.Free()
		return nil, err
	}
	return t, nil
}

// Device returns the device the tensor's storage lives on.
func (t *Tensor) Device() backend.Device {
	return t.Storage.Device()
}

// NumElements returns the total number of elements.
func (t *Tensor) NumElements() int {
	return t.Shape.NumElements()
}

// Contiguous returns true if the tensor is row-major contiguous.
func (t *Tensor) Contiguous() bool {
	expected := core.ContiguousStrides(t.Shape, t.DType.Size())
	if len(expected) != len(t.Strides) {
		return false
	}
	for i := range expected {
		if expected[i] != t.Strides[i] {
			return false
		}
	}
	return true
}

// View returns a new tensor sharing storage with t but with the given shape.
// The product of shape must equal t.NumElements(). Strides are recomputed as contiguous.
// The view does not take part in autograd; use ops.Reshape for that.
func (t *Tensor) View(shape ...int) (*Tensor, error) {
	s := core.Shape(shape).Clone()
	if s.NumElements() != t.NumElements() {
		return nil, fmt.Errorf("view shape %v has %d elements, tensor has %d", shape, s.NumElements(), t.NumElements())
	}
	if !t.Contiguous() {
		return nil, fmt.Errorf("view of non-contiguous tensor with shape %v", t.Shape)
	}
	return New(t.Storage, s, nil, t.DType), nil
}

// FromFloat32 creates a new CPU tensor from a float32 slice (copy; contiguous).
func FromFloat32(data []float32, shape ...int) (*Tensor, error) {
	s := core.Shape(shape).Clone()
	if s.NumElements() != len(data) {
		return nil, fmt.Errorf("shape %v has %d elements, data has %d", shape, s.NumElements(), len(data))
	}
	t, err := Alloc(backend.CPU0, shape...)
	if err != nil {
		return nil, err
	}
	copy(t.Storage.Bytes(), BytesFromFloat32(data))
	return t, nil
}

// Float32 returns the underlying float32 slice for CPU tensors (shared memory).
// Panics if not Float32 dtype; returns nil for storage without host memory.
func (t *Tensor) Float32() []float32 {
	if t.DType != core.Float32 {
		panic("Float32() only for Float32 tensors")
	}
	f := Float32FromBytes(t.Storage.Bytes())
	if f == nil {
		return nil
	}
	return f[:t.NumElements()]
}

// Clone allocates a new tensor with the same shape and copies data.
func (t *Tensor) Clone() (*Tensor, error) {
	be, err := backend.GetForDevice(t.Device())
	if err != nil {
		return nil, err
	}
	byteLen := t.NumElements() * int(t.DType.Size())
	newStorage, err := be.Alloc(byteLen)
	if err != nil {
		return nil, err
	}
	if err := be.Copy(newStorage, t.Storage, byteLen); err != nil {
		newStorage.Free()
		return nil, err
	}
	return New(newStorage, t.Shape.Clone(), nil, t.DType), nil
}

// ToDevice returns t moved to dev. If t already lives on dev it is returned unchanged.
func (t *Tensor) ToDevice(dev backend.Device) (*Tensor, error) {
	if t.Device() == dev {
		return t, nil
	}
	src, err := backend.GetForDevice(t.Device())
	if err != nil {
		return nil, err
	}
	// the backend owning the destination performs host <-> device transfers
	dst, err := backend.GetForDevice(dev)
	if err != nil {
		return nil, err
	}
	be := dst
	if dev.Type == backend.CPU {
		be = src
	}
	storage, err := be.ToDevice(dev, t.Storage)
	if err != nil {
		return nil, fmt.Errorf("move %v tensor from %s to %s: %w", t.Shape, t.Device(), dev, err)
	}
	return New(storage, t.Shape.Clone(), nil, t.DType), nil
}

func (t *Tensor) String() string {
	return fmt.Sprintf("Tensor(%v, %s, %s)", t.Shape, t.DType, t.Device())
}
