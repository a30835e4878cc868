//go:build !unix && !windows

package exec

func mmap(size int) ([]byte, error) { return nil, ErrUnsupported }

func protect(b []byte, writable bool) error { return ErrUnsupported }

func guard(b []byte) error { return ErrUnsupported }

func pageSize() int { return 4096 }

func unmap(b []byte) error { return ErrUnsupported }
