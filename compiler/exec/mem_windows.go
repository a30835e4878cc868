//go:build windows

package exec

import (
	"os"
	"unsafe"

	"golang.org/x/sys/windows"
)

func mmap(size int) ([]byte, error) {
	addr, err := windows.VirtualAlloc(0, uintptr(size), windows.MEM_COMMIT|windows.MEM_RESERVE, windows.PAGE_READWRITE)
	if err != nil {
		return nil, err
	}

	return unsafe.Slice((*byte)(unsafe.Pointer(addr)), size), nil
}

func protect(b []byte, writable bool) error {
	prot := uint32(windows.PAGE_EXECUTE_READ)
	if writable {
		prot = windows.PAGE_EXECUTE_READWRITE
	}

	var old uint32

	return windows.VirtualProtect(uintptr(unsafe.Pointer(&b[0])), uintptr(len(b)), prot, &old)
}

func guard(b []byte) error {
	var old uint32

	return windows.VirtualProtect(uintptr(unsafe.Pointer(&b[0])), uintptr(len(b)), windows.PAGE_NOACCESS, &old)
}

func pageSize() int { return os.Getpagesize() }

func unmap(b []byte) error {
	return windows.VirtualFree(uintptr(unsafe.Pointer(&b[0])), 0, windows.MEM_RELEASE)
}
