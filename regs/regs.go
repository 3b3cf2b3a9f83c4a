// Package regs describes the DW uMCTL2 DDR controller register window and
// provides the ways to reach it: an in-memory register file, YAML snapshots of
// one, and a memory-mapped window on real hardware.
package regs

import (
	"errors"
	"fmt"
)

// ErrIO is wrapped by every register access failure.
var ErrIO = errors.New("regs: register access failed")

// Space is a 32-bit register window addressed by byte offsets.
type Space interface {
	Read32(offset uint32) (uint32, error)
	Write32(offset uint32, value uint32) error
}

// Field is a contiguous bit range inside a 32-bit register.
type Field struct {
	Shift uint
	Width uint
}

// Bits returns the field covering bits hi down to lo, inclusive.
func Bits(hi, lo uint) Field {
	if hi < lo || hi > 31 {
		panic(fmt.Sprintf("regs: invalid bit range [%d:%d]", hi, lo))
	}

	return Field{Shift: lo, Width: hi - lo + 1}
}

// Max returns the largest value the field can hold.
func (f Field) Max() uint32 {
	if f.Width >= 32 {
		return ^uint32(0)
	}

	return 1<<f.Width - 1
}

// Mask returns the in-register mask of the field.
func (f Field) Mask() uint32 {
	return f.Max() << f.Shift
}

// Get extracts the field from a register value.
func (f Field) Get(v uint32) uint32 {
	return (v >> f.Shift) & f.Max()
}

// Prep places a value into the field position. Bits that do not fit are
// dropped.
func (f Field) Prep(v uint32) uint32 {
	return (v & f.Max()) << f.Shift
}

// Modify performs a read-modify-write of one register. It is not atomic;
// callers serialize it with the lock guarding that register.
func Modify(s Space, offset uint32, fn func(uint32) uint32) error {
	v, err := s.Read32(offset)
	if err != nil {
		return err
	}

	return s.Write32(offset, fn(v))
}

// ReadBlock reads n consecutive registers starting at offset.
func ReadBlock(s Space, offset uint32, n int) ([]uint32, error) {
	vals := make([]uint32, n)

	for i := range vals {
		v, err := s.Read32(offset + uint32(i)*4)
		if err != nil {
			return nil, err
		}

		vals[i] = v
	}

	return vals, nil
}

func ioErrorf(format string, args ...any) error {
	return fmt.Errorf("%w: "+format, append([]any{ErrIO}, args...)...)
}
