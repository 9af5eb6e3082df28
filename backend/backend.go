package backend

import (
	"errors"
	"fmt"
	"sync"

	"github.com/AaronAnima/Twinnet/core"
)

// DeviceType identifies the kind of hardware.
type DeviceType uint8

const (
	CPU DeviceType = iota
	CUDA
	ROCm
	Metal
	Vulkan
)

var deviceTypeNames = map[DeviceType]string{
	CPU:    "cpu",
	CUDA:   "cuda",
	ROCm:   "rocm",
	Metal:  "metal",
	Vulkan: "vulkan",
}

func (t DeviceType) String() string {
	if s, ok := deviceTypeNames[t]; ok {
		return s
	}
	return fmt.Sprintf("device(%d)", uint8(t))
}

// Device identifies a specific device (e.g. GPU 0).
type Device struct {
	Type  DeviceType
	Index int
}

// CPU0 is the default CPU device.
var CPU0 = Device{Type: CPU, Index: 0}

func (d Device) String() string {
	return fmt.Sprintf("%s:%d", d.Type, d.Index)
}

// Storage represents raw memory on a device.
// Ptr() is the bridge to raw hardware (RAM address for CPU, device pointer for GPU).
type Storage interface {
	Device() Device
	Ptr() uintptr
	Bytes() []byte // CPU only; nil for GPU
	ByteLen() int
	Free()
}

// Backend is the contract every hardware backend must implement.
// All element-wise and matrix kernels operate on contiguous float32 data.
type Backend interface {
	Name() string
	DeviceType() DeviceType

	Alloc(byteLen int) (Storage, error)
	Free(s Storage)
	Copy(dst, src Storage, byteLen int) error
	ToDevice(dst Device, src Storage) (Storage, error)

	// Unary (dst, src, nElems)
	Tanh(dst, src Storage, nElems int) error
	Sigmoid(dst, src Storage, nElems int) error

	// Binary with broadcasting: dst = a op b (shape = broadcast(aShape, bShape))
	Add(dst, a, b Storage, aShape, bShape core.Shape, aStrides, bStrides core.Strides, outShape core.Shape) error
	Mul(dst, a, b Storage, aShape, bShape core.Shape, aStrides, bStrides core.Strides, outShape core.Shape) error

	// Sum reduces along axis; axis -1 = all axes.
	Sum(dst, src Storage, srcShape core.Shape, srcStrides core.Strides, axis int) error

	// MatMul: C = op(A) @ op(B), C [M, N]. op(A) is [M, K], op(B) is [K, N].
	// With transA, A is stored as [K, M]; with transB, B is stored as [N, K].
	MatMul(dst, a, b Storage, M, N, K int, transA, transB bool) error

	// CopyBlocks copies outer blocks of n float32 elements:
	// dst[o*dstStride+dstOffset : +n] = src[o*srcStride+srcOffset : +n].
	// It backs time-step slicing, stacking and gate splitting.
	CopyBlocks(dst, src Storage, outer, n, dstStride, dstOffset, srcStride, srcOffset int) error

	Fill(dst Storage, nElems int, value float32) error
}

// Describer is implemented by backends that can report hardware details.
type Describer interface {
	Describe(d Device) string
}

var (
	mu       sync.RWMutex
	registry = make(map[DeviceType]Backend)
)

// Register adds a backend for its device type.
func Register(b Backend) {
	mu.Lock()
	defer mu.Unlock()
	registry[b.DeviceType()] = b
}

// Get returns the backend for a device type.
func Get(dt DeviceType) (Backend, error) {
	mu.RLock()
	b, ok := registry[dt]
	mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w for device type %v", ErrNoBackend, dt)
	}
	return b, nil
}

// GetForDevice returns the backend that handles the given device.
func GetForDevice(d Device) (Backend, error) {
	return Get(d.Type)
}

// Describe returns a human-readable description of d.
func Describe(d Device) string {
	b, err := GetForDevice(d)
	if err != nil {
		return d.String() + " (unavailable)"
	}
	if ds, ok := b.(Describer); ok {
		return ds.Describe(d)
	}
	return d.String() + " (" + b.Name() + ")"
}

var (
	// ErrUnsupported is returned when an operation is not supported.
	ErrUnsupported = errors.New("operation not supported")
	// ErrNoBackend is returned when no backend is registered for a device type.
	ErrNoBackend = errors.New("no backend registered")
)
