package exec

import (
	"sync"

	"tlog.app/go/errors"
)

type (
	// stack is a native stack for jitted code.
	// Its lowest page is inaccessible so an overflow faults there.
	stack struct {
		m     *Mem
		guard int
	}
)

// StackSize is the usable size of a native call stack.
const StackSize = 1 << 20

var stacks struct {
	sync.Mutex
	free []*stack
}

func getStack() (*stack, error) {
	stacks.Lock()

	if n := len(stacks.free); n != 0 {
		s := stacks.free[n-1]
		stacks.free = stacks.free[:n-1]
		stacks.Unlock()

		return s, nil
	}

	stacks.Unlock()

	return newStack()
}

func putStack(s *stack) {
	stacks.Lock()
	stacks.free = append(stacks.free, s)
	stacks.Unlock()
}

func newStack() (*stack, error) {
	page := pageSize()

	m, err := Alloc(StackSize + page)
	if err != nil {
		return nil, errors.Wrap(err, "native stack")
	}

	err = guard(m.b[:page])
	if err != nil {
		_ = m.Free()
		return nil, errors.Wrap(err, "native stack guard")
	}

	return &stack{m: m, guard: page}, nil
}

// Top is the initial stack pointer, 16-byte aligned.
func (s *stack) Top() uintptr {
	return (s.m.Addr() + uintptr(s.m.Len())) &^ 15
}

// Bottom is the lowest usable address above the guard page.
func (s *stack) Bottom() uintptr {
	return s.m.Addr() + uintptr(s.guard)
}
