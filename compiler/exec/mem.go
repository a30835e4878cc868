package exec

import (
	"unsafe"

	"tlog.app/go/errors"
)

type (
	// Mem is an anonymous mapping holding machine code.
	// It is writable until sealed.
	Mem struct {
		b      []byte
		sealed bool
	}
)

var ErrUnsupported = errors.New("unsupported platform")

// Alloc maps at least size bytes of read-write memory.
func Alloc(size int) (*Mem, error) {
	if size <= 0 {
		return nil, errors.New("alloc %d bytes", size)
	}

	b, err := mmap(size)
	if err != nil {
		return nil, errors.Wrap(err, "alloc %d bytes", size)
	}

	return &Mem{b: b}, nil
}

func (m *Mem) Len() int { return len(m.b) }

// Addr is the address of the first byte, 0 if freed.
func (m *Mem) Addr() uintptr {
	if len(m.b) == 0 {
		return 0
	}

	return uintptr(unsafe.Pointer(&m.b[0]))
}

// Write copies code to the start of the mapping.
func (m *Mem) Write(code []byte) error {
	if m.sealed {
		return errors.New("write to sealed memory")
	}

	if len(code) > len(m.b) {
		return errors.New("write %d bytes to %d bytes mapping", len(code), len(m.b))
	}

	copy(m.b, code)

	return nil
}

// Seal makes the mapping read-execute.
func (m *Mem) Seal() error {
	return m.protect(false)
}

// Exec makes the mapping read-write-execute.
func (m *Mem) Exec() error {
	return m.protect(true)
}

func (m *Mem) protect(writable bool) error {
	if len(m.b) == 0 {
		return errors.New("protect freed memory")
	}

	err := protect(m.b, writable)
	if err != nil {
		return errors.Wrap(err, "protect")
	}

	m.sealed = !writable

	return nil
}

// Free releases the mapping. It is safe to call twice.
func (m *Mem) Free() error {
	if len(m.b) == 0 {
		return nil
	}

	err := unmap(m.b)
	if err != nil {
		return errors.Wrap(err, "free")
	}

	m.b = nil

	return nil
}
