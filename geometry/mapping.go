package geometry

import "github.com/sarchlab/edac/regs"

// Unused marks a coordinate bit no HIF bit maps to.
const Unused uint8 = 0xFF

// Coordinate widths, and the number of HIF address bits.
const (
	RowWidth       = 18
	ColWidth       = 14
	BankWidth      = 3
	BankGroupWidth = 2
	RankWidth      = 2
	HIFWidth       = 60
)

// MappingTable holds, for each SDRAM coordinate bit, the HIF address bit
// that carries it, or Unused. No two mapped slots may hold the same HIF bit;
// the hardware reference manual requires it and the table does not check.
type MappingTable struct {
	Row       [RowWidth]uint8
	Col       [ColWidth]uint8
	Bank      [BankWidth]uint8
	BankGroup [BankGroupWidth]uint8
	Rank      [RankWidth]uint8
}

// field returns the HIF bit a 4-bit ADDRMAP field selects, or Unused when
// the field holds its maximum.
func field(v uint32, f regs.Field, base uint8) uint8 {
	x := f.Get(v)
	if x == f.Max() {
		return Unused
	}

	return uint8(x) + base
}

// fixed returns the HIF bit of a field that has no "unused" encoding.
func fixed(v uint32, f regs.Field, base uint8) uint8 {
	return uint8(f.Get(v)) + base
}

// NewMappingTable decodes the ADDRMAP registers.
func NewMappingTable(addrmap [regs.NumAddrMap]uint32, info Info) MappingTable {
	m := MappingTable{}

	fill(m.Row[:])
	fill(m.Col[:])
	fill(m.Bank[:])
	fill(m.BankGroup[:])
	fill(m.Rank[:])

	m.decodeRow(addrmap, info)
	m.decodeCol(addrmap, info)
	m.decodeBank(addrmap)
	m.decodeBankGroup(addrmap, info)
	m.decodeRank(addrmap, info)

	return m
}

func fill(slots []uint8) {
	for i := range slots {
		slots[i] = Unused
	}
}

func (m *MappingTable) decodeRow(am [regs.NumAddrMap]uint32, info Info) {
	m.Row[0] = fixed(am[5], regs.AddrMapB0M15, 6)
	m.Row[1] = fixed(am[5], regs.AddrMapB8M15, 7)

	if b2to10 := regs.AddrMapB16M15.Get(am[5]); b2to10 != regs.AddrMapB16M15.Max() {
		for i := 2; i <= 10; i++ {
			m.Row[i] = uint8(b2to10) + uint8(i) + 6
		}
	} else {
		m.Row[2] = fixed(am[9], regs.AddrMapB0M15, 8)
		m.Row[3] = fixed(am[9], regs.AddrMapB8M15, 9)
		m.Row[4] = fixed(am[9], regs.AddrMapB16M15, 10)
		m.Row[5] = fixed(am[9], regs.AddrMapB24M15, 11)
		m.Row[6] = fixed(am[10], regs.AddrMapB0M15, 12)
		m.Row[7] = fixed(am[10], regs.AddrMapB8M15, 13)
		m.Row[8] = fixed(am[10], regs.AddrMapB16M15, 14)
		m.Row[9] = fixed(am[10], regs.AddrMapB24M15, 15)
		m.Row[10] = fixed(am[11], regs.AddrMapB0M15, 16)
	}

	m.Row[11] = field(am[5], regs.AddrMapB24M15, 17)
	m.Row[12] = field(am[6], regs.AddrMapB0M15, 18)
	m.Row[13] = field(am[6], regs.AddrMapB8M15, 19)
	m.Row[14] = field(am[6], regs.AddrMapB16M15, 20)
	m.Row[15] = field(am[6], regs.AddrMapB24M15, 21)

	if info.MemType.wideRow() {
		m.Row[16] = field(am[7], regs.AddrMapB0M15, 22)
		m.Row[17] = field(am[7], regs.AddrMapB8M15, 23)
	}
}

func (m *MappingTable) decodeCol(am [regs.NumAddrMap]uint32, info Info) {
	m.Col[0] = 0
	m.Col[1] = 1
	m.Col[2] = fixed(am[2], regs.AddrMapB0M15, 2)
	m.Col[3] = fixed(am[2], regs.AddrMapB8M15, 3)
	m.Col[4] = field(am[2], regs.AddrMapB16M15, 4)
	m.Col[5] = field(am[2], regs.AddrMapB24M15, 5)
	m.Col[6] = field(am[3], regs.AddrMapB0M15, 6)
	m.Col[7] = field(am[3], regs.AddrMapB8M15, 7)
	m.Col[8] = field(am[3], regs.AddrMapB16M15, 8)
	m.Col[9] = field(am[3], regs.AddrMapB24M15, 9)
	m.Col[10] = field(am[4], regs.AddrMapB0M15, 10)
	m.Col[11] = field(am[4], regs.AddrMapB8M15, 11)

	// In half and quarter bus modes the lowest columns select the bus
	// cycle within a full DQ word and carry no HIF bit.
	if q := int(info.DQMode); q > 0 {
		for i := min(11+q, ColWidth-1); i >= q; i-- {
			m.Col[i] = m.Col[i-q]
			m.Col[i-q] = Unused
		}
	}

	// Column bit 10 is the auto-precharge flag.
	if info.MemType.autoPrecharge() {
		for i := min(12+int(info.DQMode), ColWidth-1); i > 10; i-- {
			m.Col[i] = m.Col[i-1]
			m.Col[i-1] = Unused
		}
	}

	// Column bit 12 is the burst-chop flag.
	m.Col[13] = m.Col[12]
	m.Col[12] = Unused
}

func (m *MappingTable) decodeBank(am [regs.NumAddrMap]uint32) {
	m.Bank[0] = fixed(am[1], regs.AddrMapB0M31, 2)
	m.Bank[1] = fixed(am[1], regs.AddrMapB8M31, 3)
	m.Bank[2] = field(am[1], regs.AddrMapB16M31, 4)
}

func (m *MappingTable) decodeBankGroup(am [regs.NumAddrMap]uint32, info Info) {
	if info.MemType != DDR4 {
		return
	}

	m.BankGroup[0] = fixed(am[8], regs.AddrMapB0M31, 2)
	m.BankGroup[1] = field(am[8], regs.AddrMapB8M31, 3)
}

func (m *MappingTable) decodeRank(am [regs.NumAddrMap]uint32, info Info) {
	if info.Ranks > 1 {
		m.Rank[0] = field(am[0], regs.AddrMapB0M31, 6)
	}

	if info.Ranks > 2 {
		m.Rank[1] = field(am[0], regs.AddrMapB8M31, 7)
	}
}

// Dimension names a SDRAM coordinate.
type Dimension byte

// Dimensions, named by the letters the HIF map view uses.
const (
	DimRow       Dimension = 'r'
	DimCol       Dimension = 'c'
	DimBank      Dimension = 'b'
	DimBankGroup Dimension = 'g'
	DimRank      Dimension = 'a'
)

func (m *MappingTable) dimensions() []struct {
	dim   Dimension
	slots []uint8
} {
	return []struct {
		dim   Dimension
		slots []uint8
	}{
		{DimRow, m.Row[:]},
		{DimCol, m.Col[:]},
		{DimBank, m.Bank[:]},
		{DimBankGroup, m.BankGroup[:]},
		{DimRank, m.Rank[:]},
	}
}

// Find returns the coordinate bit carried by a HIF bit.
func (m MappingTable) Find(hif uint8) (Dimension, int, bool) {
	for _, d := range m.dimensions() {
		for i, s := range d.slots {
			if s == hif {
				return d.dim, i, true
			}
		}
	}

	return 0, 0, false
}

// MappedBits counts the mapped row, column, bank and bank group slots. Rank
// slots do not count.
func (m MappingTable) MappedBits() int {
	n := 0

	for _, d := range m.dimensions() {
		if d.dim == DimRank {
			continue
		}

		for _, s := range d.slots {
			if s != Unused {
				n++
			}
		}
	}

	return n
}

// HIFMask returns the HIF bits that carry any coordinate bit.
func (m MappingTable) HIFMask() uint64 {
	var mask uint64

	for _, d := range m.dimensions() {
		for _, s := range d.slots {
			if s != Unused && s < 64 {
				mask |= 1 << s
			}
		}
	}

	return mask
}
