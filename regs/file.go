package regs

import (
	"sort"
	"sync"
)

// A File is an in-memory register window.
//
// Registers that have never been written read as zero, and no memory is kept
// for them. Registers can be marked read-only to model features the
// controller was synthesized without: writes to them are silently dropped, the
// way the hardware ignores writes to unimplemented CSRs. Offsets can also be
// marked faulty, in which case any access to them fails with ErrIO.
type File struct {
	lock     sync.Mutex
	size     uint32
	data     map[uint32]uint32
	readOnly map[uint32]bool
	faulty   map[uint32]bool
	onWrite  map[uint32]WriteHook
}

// NewFile creates a register file spanning size bytes.
func NewFile(size uint32) *File {
	return &File{
		size:     size,
		data:     make(map[uint32]uint32),
		readOnly: make(map[uint32]bool),
		faulty:   make(map[uint32]bool),
		onWrite:  make(map[uint32]WriteHook),
	}
}

func (f *File) checkOffset(offset uint32) error {
	if offset%4 != 0 {
		return ioErrorf("unaligned offset 0x%x", offset)
	}

	if offset >= f.size {
		return ioErrorf("offset 0x%x beyond window size 0x%x", offset, f.size)
	}

	if f.faulty[offset] {
		return ioErrorf("offset 0x%x does not respond", offset)
	}

	return nil
}

// Read32 returns the value of the register at offset.
func (f *File) Read32(offset uint32) (uint32, error) {
	f.lock.Lock()
	defer f.lock.Unlock()

	if err := f.checkOffset(offset); err != nil {
		return 0, err
	}

	return f.data[offset], nil
}

// Write32 updates the register at offset.
func (f *File) Write32(offset uint32, value uint32) error {
	f.lock.Lock()
	defer f.lock.Unlock()

	if err := f.checkOffset(offset); err != nil {
		return err
	}

	if f.readOnly[offset] {
		return nil
	}

	if fn, ok := f.onWrite[offset]; ok {
		value = fn(Window{f: f}, f.data[offset], value)
	}

	f.store(offset, value)

	return nil
}

func (f *File) store(offset, value uint32) {
	if value == 0 {
		delete(f.data, offset)
		return
	}

	f.data[offset] = value
}

// Set stores a value regardless of the read-only and write-hook settings. It
// is how a test bench or a snapshot loader plays the hardware side.
func (f *File) Set(offset uint32, value uint32) {
	f.lock.Lock()
	defer f.lock.Unlock()

	f.store(offset, value)
}

// Get returns the stored value without any access checks.
func (f *File) Get(offset uint32) uint32 {
	f.lock.Lock()
	defer f.lock.Unlock()

	return f.data[offset]
}

// MarkReadOnly makes writes to the given offsets no-ops.
func (f *File) MarkReadOnly(offsets ...uint32) {
	f.lock.Lock()
	defer f.lock.Unlock()

	for _, o := range offsets {
		f.readOnly[o] = true
	}
}

// MarkFaulty makes any access to the given offsets fail.
func (f *File) MarkFaulty(offsets ...uint32) {
	f.lock.Lock()
	defer f.lock.Unlock()

	for _, o := range offsets {
		f.faulty[o] = true
	}
}

// ClearFaulty undoes MarkFaulty.
func (f *File) ClearFaulty(offsets ...uint32) {
	f.lock.Lock()
	defer f.lock.Unlock()

	for _, o := range offsets {
		delete(f.faulty, o)
	}
}

// A WriteHook decides what a write actually stores, given the stored and
// the written value. It may update other registers through w, which models
// status bits that a control register clears.
type WriteHook func(w Window, old, new uint32) uint32

// Window gives a write hook access to the registers of its file. It is only
// valid while the hook runs, since the file lock is held then.
type Window struct {
	f *File
}

// Get returns a stored value.
func (w Window) Get(offset uint32) uint32 {
	return w.f.data[offset]
}

// Set stores a value, bypassing read-only marks and hooks.
func (w Window) Set(offset, value uint32) {
	w.f.store(offset, value)
}

// OnWrite installs a hook that decides what a write to offset actually
// stores. It models write-one-to-clear and self-clearing bits.
func (f *File) OnWrite(offset uint32, fn WriteHook) {
	f.lock.Lock()
	defer f.lock.Unlock()

	f.onWrite[offset] = fn
}

// Size returns the window size in bytes.
func (f *File) Size() uint32 {
	return f.size
}

// Offsets returns the offsets of all non-zero registers in ascending order.
func (f *File) Offsets() []uint32 {
	f.lock.Lock()
	defer f.lock.Unlock()

	offsets := make([]uint32, 0, len(f.data))
	for o := range f.data {
		offsets = append(offsets, o)
	}

	sort.Slice(offsets, func(i, j int) bool { return offsets[i] < offsets[j] })

	return offsets
}

// ReadOnlyOffsets returns the read-only offsets in ascending order.
func (f *File) ReadOnlyOffsets() []uint32 {
	f.lock.Lock()
	defer f.lock.Unlock()

	offsets := make([]uint32, 0, len(f.readOnly))
	for o := range f.readOnly {
		offsets = append(offsets, o)
	}

	sort.Slice(offsets, func(i, j int) bool { return offsets[i] < offsets[j] })

	return offsets
}

var _ Space = (*File)(nil)
