package cpu

import (
	"unsafe"

	"github.com/AaronAnima/Twinnet/backend"
)

// storage wraps a byte slice for CPU memory.
type storage struct {
	buf []byte
	dev backend.Device
}

// Alloc creates new zeroed CPU storage of the given byte length.
func Alloc(byteLen int) backend.Storage {
	return &storage{buf: make([]byte, byteLen), dev: backend.CPU0}
}

func (s *storage) Device() backend.Device { return s.dev }
func (s *storage) ByteLen() int           { return len(s.buf) }
func (s *storage) Bytes() []byte          { return s.buf }

func (s *storage) Ptr() uintptr {
	if len(s.buf) == 0 {
		return 0
	}
	return uintptr(unsafe.Pointer(&s.buf[0]))
}

func (s *storage) Free() {
	s.buf = nil
}

func asStorage(s backend.Storage) (*storage, error) {
	cs, ok := s.(*storage)
	if !ok {
		return nil, backend.ErrUnsupported
	}
	return cs, nil
}
