//go:build !amd64

package exec

func call(fn uintptr, a *Args) (r, x uint64, err error) {
	return 0, 0, ErrUnsupported
}
