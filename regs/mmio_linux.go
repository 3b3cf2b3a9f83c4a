//go:build linux

package regs

import (
	"fmt"
	"os"
	"sync/atomic"
	"unsafe"

	"golang.org/x/sys/unix"
)

// MMIO is a register window mapped from physical memory through /dev/mem.
type MMIO struct {
	mem []byte
}

// OpenMMIO maps size bytes of physical memory starting at base. The base must
// be page aligned.
func OpenMMIO(devMem string, base uint64, size uint32) (*MMIO, error) {
	fd, err := unix.Open(devMem, unix.O_RDWR|unix.O_SYNC, 0)
	if err != nil {
		return nil, fmt.Errorf("%w: open %s: %v", ErrIO, devMem, err)
	}
	defer unix.Close(fd)

	if base%uint64(os.Getpagesize()) != 0 {
		return nil, ioErrorf("base 0x%x is not page aligned", base)
	}

	mem, err := unix.Mmap(fd, int64(base), int(size),
		unix.PROT_READ|unix.PROT_WRITE, unix.MAP_SHARED)
	if err != nil {
		return nil, fmt.Errorf("%w: mmap 0x%x: %v", ErrIO, base, err)
	}

	return &MMIO{mem: mem}, nil
}

func (m *MMIO) word(offset uint32) (*uint32, error) {
	if offset%4 != 0 || uint64(offset)+4 > uint64(len(m.mem)) {
		return nil, ioErrorf("offset 0x%x outside the mapped window", offset)
	}

	return (*uint32)(unsafe.Pointer(&m.mem[offset])), nil
}

// Read32 loads the register at offset.
func (m *MMIO) Read32(offset uint32) (uint32, error) {
	p, err := m.word(offset)
	if err != nil {
		return 0, err
	}

	return atomic.LoadUint32(p), nil
}

// Write32 stores the register at offset.
func (m *MMIO) Write32(offset uint32, value uint32) error {
	p, err := m.word(offset)
	if err != nil {
		return err
	}

	atomic.StoreUint32(p, value)

	return nil
}

// Close unmaps the window.
func (m *MMIO) Close() error {
	if m.mem == nil {
		return nil
	}

	err := unix.Munmap(m.mem)
	m.mem = nil

	return err
}

var _ Space = (*MMIO)(nil)
