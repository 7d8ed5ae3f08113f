//go:build unix

package hostmem

import (
	"errors"
	"fmt"
	"unsafe"

	"golang.org/x/sys/unix"
)

func errBadRequest(size, align uintptr) error {
	return fmt.Errorf("hostmem: bad request (size=%d align=%d)", size, align)
}

// allocRegion maps anonymous pages. Mappings are page-aligned, so only
// alignments above the page size need extra slack.
func allocRegion(size, align uintptr) (Region, error) {
	page := uintptr(unix.Getpagesize())

	mapLen := size
	if align > page {
		mapLen += align
	}
	mapLen = alignUp(mapLen, page)
	if mapLen < size || mapLen > uintptr(int(^uint(0)>>1)) {
		return Region{}, fmt.Errorf("hostmem: request too large to map (%d bytes)", size)
	}

	raw, err := unix.Mmap(-1, 0, int(mapLen),
		unix.PROT_READ|unix.PROT_WRITE, unix.MAP_ANON|unix.MAP_PRIVATE)
	if err != nil {
		return Region{}, fmt.Errorf("hostmem: mmap %d bytes: %w", mapLen, err)
	}

	var off uintptr
	if rem := uintptr(unsafe.Pointer(&raw[0])) & (align - 1); rem != 0 {
		off = align - rem
	}
	return Region{raw: raw, off: off, size: size}, nil
}

func releaseRaw(raw []byte) error {
	err := unix.Munmap(raw)
	if errors.Is(err, unix.EINVAL) {
		// Treat double-unmap as no-op for callers.
		return nil
	}
	return err
}
