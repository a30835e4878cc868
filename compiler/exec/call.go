package exec

import "tlog.app/go/errors"

type (
	// Args are the register arguments of a native call.
	// Float holds IEEE bits.
	Args struct {
		Int   [6]uint64
		Float [8]uint64
	}
)

var ErrNilFunc = errors.New("call of nil func")

// Call runs code at fn with argument registers loaded from a
// and returns RAX and XMM0.
// On windows only the first four slots of each class are passed.
func Call(fn uintptr, a *Args) (r, x uint64, err error) {
	if fn == 0 {
		return 0, 0, ErrNilFunc
	}

	if a == nil {
		a = &Args{}
	}

	return call(fn, a)
}
