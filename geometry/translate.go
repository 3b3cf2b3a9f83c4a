package geometry

import (
	"errors"
	"fmt"
	"strings"
)

// ErrAddrSpace is returned for an address space the translator does not
// know.
var ErrAddrSpace = errors.New("geometry: unknown address space")

// AddrSpace names one of the address spaces a controller address passes
// through, ordered from the system bus down to the SDRAM pins.
type AddrSpace int

// Address spaces.
const (
	System AddrSpace = iota
	App
	HIF
	SDRAM
)

var addrSpaceNames = [...]string{
	System: "sys",
	App:    "app",
	HIF:    "hif",
	SDRAM:  "sdram",
}

func (s AddrSpace) String() string {
	if s < System || s > SDRAM {
		return fmt.Sprintf("AddrSpace(%d)", int(s))
	}

	return addrSpaceNames[s]
}

// ParseAddrSpace accepts the names String produces and a few long forms.
func ParseAddrSpace(name string) (AddrSpace, error) {
	switch strings.ToLower(name) {
	case "sys", "system":
		return System, nil
	case "app", "application":
		return App, nil
	case "hif":
		return HIF, nil
	case "sdram", "dram":
		return SDRAM, nil
	}

	return 0, fmt.Errorf("%w: %q", ErrAddrSpace, name)
}

// SDRAMAddress locates a SDRAM word.
type SDRAMAddress struct {
	Row       uint32
	Col       uint16
	Bank      uint8
	BankGroup uint8
	Rank      uint8
}

func (a SDRAMAddress) String() string {
	return fmt.Sprintf("Row %d Col %d Bank %d Bank Group %d Rank %d",
		a.Row, a.Col, a.Bank, a.BankGroup, a.Rank)
}

// An Address is a value in one address space. Linear is used by every space
// except SDRAM, which uses SDRAM.
type Address struct {
	Space  AddrSpace
	Linear uint64
	SDRAM  SDRAMAddress
}

func (a Address) String() string {
	if a.Space == SDRAM {
		return fmt.Sprintf("%s: %s", a.Space, a.SDRAM)
	}

	return fmt.Sprintf("%s: 0x%016x", a.Space, a.Linear)
}

// A Translator converts addresses between the address spaces. It only reads
// its tables and is safe for concurrent use.
type Translator struct {
	mapping MappingTable
	regions RegionTable
	dqWidth DQWidth
}

// NewTranslator creates a translator over the given tables.
func NewTranslator(m MappingTable, r RegionTable, w DQWidth) *Translator {
	return &Translator{mapping: m, regions: r, dqWidth: w}
}

// SystemToApp applies the offset of the last region starting at or below
// sys. The same offset applies up to the next region base regardless of the
// region size.
func (t *Translator) SystemToApp(sys uint64) uint64 {
	var offset uint64

	for _, r := range t.regions.Active() {
		if sys < r.Base {
			break
		}

		offset = r.Offset
	}

	return sys - offset
}

// AppToSystem finds the region the application address falls in and adds
// its offset. Addresses past the last region use the last offset.
func (t *Translator) AppToSystem(app uint64) uint64 {
	var offset, size uint64

	for _, r := range t.regions.Active() {
		offset = r.Offset
		size += r.Size

		if app < size {
			break
		}
	}

	return app + offset
}

// AppToHIF drops the SDRAM word bits.
func (t *Translator) AppToHIF(app uint64) uint64 {
	return app >> t.dqWidth
}

// HIFToApp restores the SDRAM word bits as zero.
func (t *Translator) HIFToApp(hif uint64) uint64 {
	return hif << t.dqWidth
}

func gather(hif uint64, slots []uint8) uint64 {
	var v uint64

	for i, s := range slots {
		if s != Unused && hif&(1<<s) != 0 {
			v |= 1 << i
		}
	}

	return v
}

func scatter(v uint64, slots []uint8) uint64 {
	var hif uint64

	for i, s := range slots {
		if s != Unused && v&(1<<i) != 0 {
			hif |= 1 << s
		}
	}

	return hif
}

// HIFToSDRAM splits a HIF address into SDRAM coordinates. HIF bits that no
// coordinate uses are ignored.
func (t *Translator) HIFToSDRAM(hif uint64) SDRAMAddress {
	m := &t.mapping

	return SDRAMAddress{
		Row:       uint32(gather(hif, m.Row[:])),
		Col:       uint16(gather(hif, m.Col[:])),
		Bank:      uint8(gather(hif, m.Bank[:])),
		BankGroup: uint8(gather(hif, m.BankGroup[:])),
		Rank:      uint8(gather(hif, m.Rank[:])),
	}
}

// SDRAMToHIF joins SDRAM coordinates into a HIF address. Coordinate bits
// without a HIF bit are dropped, so the coordinates must come from this
// table or from the controller's own registers.
func (t *Translator) SDRAMToHIF(a SDRAMAddress) uint64 {
	m := &t.mapping

	return scatter(uint64(a.Row), m.Row[:]) |
		scatter(uint64(a.Col), m.Col[:]) |
		scatter(uint64(a.Bank), m.Bank[:]) |
		scatter(uint64(a.BankGroup), m.BankGroup[:]) |
		scatter(uint64(a.Rank), m.Rank[:])
}

// SystemToSDRAM maps a system address all the way down to SDRAM.
func (t *Translator) SystemToSDRAM(sys uint64) SDRAMAddress {
	return t.HIFToSDRAM(t.AppToHIF(t.SystemToApp(sys)))
}

// SDRAMToSystem maps SDRAM coordinates all the way up to the system bus.
func (t *Translator) SDRAMToSystem(a SDRAMAddress) uint64 {
	return t.AppToSystem(t.HIFToApp(t.SDRAMToHIF(a)))
}

// Translate walks addr through the address spaces until it reaches the
// target space.
func (t *Translator) Translate(addr Address, to AddrSpace) (Address, error) {
	if addr.Space < System || addr.Space > SDRAM {
		return addr, fmt.Errorf("%w: %d", ErrAddrSpace, int(addr.Space))
	}

	if to < System || to > SDRAM {
		return addr, fmt.Errorf("%w: %d", ErrAddrSpace, int(to))
	}

	for addr.Space < to {
		addr = t.down(addr)
	}

	for addr.Space > to {
		addr = t.up(addr)
	}

	return addr, nil
}

func (t *Translator) down(a Address) Address {
	switch a.Space {
	case System:
		return Address{Space: App, Linear: t.SystemToApp(a.Linear)}
	case App:
		return Address{Space: HIF, Linear: t.AppToHIF(a.Linear)}
	default:
		return Address{Space: SDRAM, SDRAM: t.HIFToSDRAM(a.Linear)}
	}
}

func (t *Translator) up(a Address) Address {
	switch a.Space {
	case SDRAM:
		return Address{Space: HIF, Linear: t.SDRAMToHIF(a.SDRAM)}
	case HIF:
		return Address{Space: App, Linear: t.HIFToApp(a.Linear)}
	default:
		return Address{Space: System, Linear: t.AppToSystem(a.Linear)}
	}
}
