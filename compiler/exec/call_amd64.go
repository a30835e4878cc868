//go:build amd64

package exec

func call(fn uintptr, a *Args) (r, x uint64, err error) {
	s, err := getStack()
	if err != nil {
		return 0, 0, err
	}

	defer putStack(s)

	r, x = callNative(fn, a, s.Top())

	return r, x, nil
}

// callNative switches to stack, calls fn and switches back.
//
//go:noescape
func callNative(fn uintptr, a *Args, stack uintptr) (r, x uint64)
