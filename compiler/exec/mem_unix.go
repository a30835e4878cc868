//go:build unix

package exec

import "golang.org/x/sys/unix"

func mmap(size int) ([]byte, error) {
	page := unix.Getpagesize()
	size = (size + page - 1) &^ (page - 1)

	return unix.Mmap(-1, 0, size, unix.PROT_READ|unix.PROT_WRITE, unix.MAP_PRIVATE|unix.MAP_ANON)
}

func protect(b []byte, writable bool) error {
	prot := unix.PROT_READ | unix.PROT_EXEC
	if writable {
		prot |= unix.PROT_WRITE
	}

	return unix.Mprotect(b, prot)
}

func guard(b []byte) error {
	return unix.Mprotect(b, unix.PROT_NONE)
}

func pageSize() int { return unix.Getpagesize() }

func unmap(b []byte) error {
	return unix.Munmap(b)
}
