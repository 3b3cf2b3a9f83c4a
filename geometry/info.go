// Package geometry learns how a DW uMCTL2 controller lays SDRAM out behind
// its host interface and how the system address regions compact into the
// application address space. It also translates addresses through those
// mappings.
package geometry

import (
	"fmt"
	"math/bits"
	"strings"

	"github.com/sarchlab/edac/regs"
)

// MemType is the SDRAM technology the controller drives.
type MemType int

// A list of the memory types the MSTR register can select.
const (
	DDR2 MemType = iota
	DDR3
	LPDDR
	LPDDR2
	LPDDR3
	DDR4
	LPDDR4
	MemReserved
)

var memTypeNames = [...]string{
	DDR2:        "DDR2",
	DDR3:        "DDR3",
	LPDDR:       "LPDDR",
	LPDDR2:      "LPDDR2",
	LPDDR3:      "LPDDR3",
	DDR4:        "DDR4",
	LPDDR4:      "LPDDR4",
	MemReserved: "Reserved",
}

func (m MemType) String() string {
	if m < 0 || int(m) >= len(memTypeNames) {
		return "Reserved"
	}

	return memTypeNames[m]
}

// wideRow reports whether row bits 16 and 17 exist.
func (m MemType) wideRow() bool {
	return m == DDR4 || m == LPDDR4
}

// autoPrecharge reports whether column bit 10 carries the auto-precharge
// flag.
func (m MemType) autoPrecharge() bool {
	return m == LPDDR || m == DDR2 || m == DDR3 || m == DDR4
}

func memTypeFromMSTR(mstr uint32) MemType {
	switch regs.MSTRMemType.Get(mstr) {
	case 0:
		return DDR2
	case 1 << 0:
		return DDR3
	case 1 << 1:
		return LPDDR
	case 1 << 2:
		return LPDDR2
	case 1 << 3:
		return LPDDR3
	case 1 << 4:
		return DDR4
	case 1 << 5:
		return LPDDR4
	}

	return MemReserved
}

// DevType is the SDRAM device data width.
type DevType int

// Device widths. Only DDR4 controllers report one.
const (
	DevUnknown DevType = iota
	DevX4
	DevX8
	DevX16
	DevX32
)

func (d DevType) String() string {
	switch d {
	case DevX4:
		return "x4"
	case DevX8:
		return "x8"
	case DevX16:
		return "x16"
	case DevX32:
		return "x32"
	}

	return "unknown"
}

func devTypeFromMSTR(mstr uint32) DevType {
	if regs.MSTRMemType.Get(mstr)&(1<<4) == 0 {
		return DevUnknown
	}

	return DevX4 + DevType(regs.MSTRDevConfig.Get(mstr))
}

// DQWidth is the ECC-capable DQ bus width, stored as log2 of its width in
// bytes.
type DQWidth uint8

// Supported DQ bus widths.
const (
	DQ32 DQWidth = 2
	DQ64 DQWidth = 3
)

// Bits returns the bus width in bits.
func (w DQWidth) Bits() uint32 {
	return 8 << w
}

// DQMode is the share of the DQ bus used on each SDRAM clock edge.
type DQMode uint8

// DQ bus modes.
const (
	DQFull DQMode = iota
	DQHalf
	DQQuarter
)

func (m DQMode) String() string {
	switch m {
	case DQFull:
		return "Full"
	case DQHalf:
		return "Half"
	case DQQuarter:
		return "Quarter"
	}

	return "Unknown"
}

// BurstLength is a burst length in SDRAM words.
type BurstLength uint8

// Burst lengths.
const (
	BL2  BurstLength = 2
	BL4  BurstLength = 4
	BL8  BurstLength = 8
	BL16 BurstLength = 16
)

// FreqRatio is the HIF to SDRAM clock ratio.
type FreqRatio uint8

// Frequency ratios.
const (
	Ratio11 FreqRatio = 1
	Ratio12 FreqRatio = 2
)

// ECCMode is the ECC scheme configured in ECCCFG0.
type ECCMode uint8

// ECC modes.
const (
	ECCDisabled ECCMode = 0
	ECCSECDED   ECCMode = 4
	ECCAdvX4X8  ECCMode = 5
)

func (m ECCMode) String() string {
	switch m {
	case ECCDisabled:
		return "Disabled"
	case ECCSECDED:
		return "SEC/DED"
	case ECCAdvX4X8:
		return "Advanced X4/X8"
	}

	return "Unknown"
}

// Caps is a set of optional controller features.
type Caps uint32

// Capabilities.
const (
	// CapScrub means the ECC hardware scrub is not disabled.
	CapScrub Caps = 1 << 0
	// CapScrubber means the controller was synthesized with the
	// background scrubber.
	CapScrubber Caps = 1 << 1
	// CapZynqMP means ECC interrupts go through the ZynqMP QoS block.
	CapZynqMP Caps = 1 << 31
)

// Has reports whether every capability in c is present.
func (cs Caps) Has(c Caps) bool {
	return cs&c == c
}

func (cs Caps) String() string {
	if cs == 0 {
		return "-"
	}

	var sb strings.Builder

	if cs.Has(CapScrub) {
		sb.WriteString(" +Scrub")
	}

	if cs.Has(CapScrubber) {
		sb.WriteString(" +Scrubber")
	}

	if cs.Has(CapZynqMP) {
		sb.WriteString(" +ZynqMP")
	}

	return strings.TrimSpace(sb.String())
}

// Info describes the controller configuration. It is immutable once
// detected.
type Info struct {
	MemType    MemType
	DevType    DevType
	DQWidth    DQWidth
	DQMode     DQMode
	SDRAMBurst BurstLength
	HIFBurst   BurstLength
	FreqRatio  FreqRatio
	Ranks      int
	ECCMode    ECCMode
	Caps       Caps
}

// Detect reads the controller configuration through the register space.
//
// Scrubber presence and the DQ bus width cannot be read directly. They are
// probed by writing the inverted content of a register only present with
// the feature and checking whether it sticks; the original content is
// restored afterwards. Detection stops right after the ECC mode when ECC is
// not SEC/DED, since nothing else matters then.
func Detect(space regs.Space, p Platform) (Info, error) {
	info := Info{}

	cfg, err := space.Read32(regs.ECCCFG0)
	if err != nil {
		return info, fmt.Errorf("detect: ECCCFG0: %w", err)
	}

	info.ECCMode = ECCMode(regs.ECCCFG0Mode.Get(cfg))
	if info.ECCMode != ECCSECDED {
		return info, nil
	}

	if cfg&regs.ECCCFG0DisableScrub == 0 {
		info.Caps |= CapScrub
	}

	sticks, err := probe(space, regs.SBRWDATA0)
	if err != nil {
		return info, fmt.Errorf("detect: scrubber: %w", err)
	}

	if sticks {
		info.Caps |= CapScrubber
	}

	mstr, err := space.Read32(regs.MSTR)
	if err != nil {
		return info, fmt.Errorf("detect: MSTR: %w", err)
	}

	decodeMSTR(&info, mstr)

	info.DQWidth, err = probeDQWidth(space)
	if err != nil {
		return info, fmt.Errorf("detect: DQ width: %w", err)
	}

	p.apply(&info)

	return info, nil
}

func decodeMSTR(info *Info, mstr uint32) {
	info.MemType = memTypeFromMSTR(mstr)
	info.DevType = devTypeFromMSTR(mstr)
	info.DQMode = DQMode(regs.MSTRBusWidth.Get(mstr))

	// The HIF burst length is not detectable; assume it matches SDRAM.
	info.SDRAMBurst = BurstLength(regs.MSTRBurstRdWr.Get(mstr) << 1)
	info.HIFBurst = info.SDRAMBurst

	info.FreqRatio = Ratio12
	if mstr&regs.MSTRFreqRatio11 != 0 {
		info.FreqRatio = Ratio11
	}

	info.Ranks = bits.OnesCount32(regs.MSTRActiveRanks.Get(mstr))
}

// probeDQWidth checks whether the upper poison pattern word is writable,
// which only holds on 64-bit DQ buses. Quasi-dynamic registers need SWCTL
// cleared around the access.
func probeDQWidth(space regs.Space) (DQWidth, error) {
	if err := space.Write32(regs.SWCTL, 0); err != nil {
		return 0, err
	}

	sticks, err := probe(space, regs.POISONPAT1)
	if err != nil {
		return 0, err
	}

	if err := space.Write32(regs.SWCTL, 1); err != nil {
		return 0, err
	}

	if sticks {
		return DQ64, nil
	}

	return DQ32, nil
}

func probe(space regs.Space, offset uint32) (bool, error) {
	orig, err := space.Read32(offset)
	if err != nil {
		return false, err
	}

	if err = space.Write32(offset, ^orig); err != nil {
		return false, err
	}

	now, err := space.Read32(offset)
	if err != nil {
		return false, err
	}

	if now == orig {
		return false, nil
	}

	return true, space.Write32(offset, orig)
}
