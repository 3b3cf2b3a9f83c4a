package geometry

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

const U = Unused

var _ = Describe("MappingTable", func() {
	It("should decode a DDR3 address map", func() {
		m := NewMappingTable(ddr3AddrMap(), ddr3Info())

		Expect(m.Col).To(Equal([ColWidth]uint8{
			0, 1, 2, 3, 4, 5, 6, 7, 8, 9, U, U, U, U}))
		Expect(m.Bank).To(Equal([BankWidth]uint8{10, 11, 12}))
		Expect(m.Row).To(Equal([RowWidth]uint8{
			13, 14, 15, 16, 17, 18, 19, 20, 21, 22, 23, 24, 25, 26,
			U, U, U, U}))
		Expect(m.BankGroup).To(Equal([BankGroupWidth]uint8{U, U}))
		Expect(m.Rank).To(Equal([RankWidth]uint8{U, U}))
		Expect(m.MappedBits()).To(Equal(27))
	})

	It("should take row bits 2 to 10 from ADDRMAP9-11 when asked to", func() {
		am := ddr3AddrMap()
		am[5] = 0x070f0707
		am[9] = 0x01010101
		am[10] = 0x02020202
		am[11] = 0x00000003

		m := NewMappingTable(am, ddr3Info())

		Expect(m.Row[2:11]).To(Equal([]uint8{9, 10, 11, 12, 14, 15, 16, 17, 19}))
	})

	It("should map the widest rows and bank groups on DDR4 only", func() {
		am := ddr3AddrMap()
		am[7] = 0x00000f00
		am[8] = 0x00001f00

		info := ddr3Info()
		Expect(NewMappingTable(am, info).Row[16]).To(Equal(U))
		Expect(NewMappingTable(am, info).BankGroup[0]).To(Equal(U))

		info.MemType = DDR4
		m := NewMappingTable(am, info)

		Expect(m.Row[16]).To(Equal(uint8(22)))
		Expect(m.Row[17]).To(Equal(U))
		Expect(m.BankGroup).To(Equal([BankGroupWidth]uint8{2, U}))
	})

	It("should map ranks by the number of active ranks", func() {
		am := ddr3AddrMap()
		am[0] = 0x00001414

		info := ddr3Info()
		info.Ranks = 2
		Expect(NewMappingTable(am, info).Rank).To(Equal([RankWidth]uint8{26, U}))

		info.Ranks = 4
		Expect(NewMappingTable(am, info).Rank).To(Equal([RankWidth]uint8{26, 27}))

		am[0] = 0x00001f1f
		Expect(NewMappingTable(am, info).Rank).To(Equal([RankWidth]uint8{U, U}))
	})

	It("should not map bank 2 when its field holds the maximum", func() {
		am := ddr3AddrMap()
		am[1] = 0x001f0808

		Expect(NewMappingTable(am, ddr3Info()).Bank).To(Equal([BankWidth]uint8{10, 11, U}))
	})

	It("should shift columns in half bus mode", func() {
		am := ddr3AddrMap()
		am[4] = 0

		info := ddr3Info()
		info.MemType = DDR4
		info.DQMode = DQHalf

		m := NewMappingTable(am, info)

		Expect(m.Col).To(Equal([ColWidth]uint8{
			U, 0, 1, 2, 3, 4, 5, 6, 7, 8, U, 9, U, 10}))
	})

	It("should stay inside the column table in quarter bus mode", func() {
		am := ddr3AddrMap()
		am[4] = 0

		info := ddr3Info()
		info.DQMode = DQQuarter

		var m MappingTable
		Expect(func() { m = NewMappingTable(am, info) }).NotTo(Panic())
		Expect(m.Col).To(Equal([ColWidth]uint8{
			U, U, 0, 1, 2, 3, 4, 5, 6, 7, U, 8, U, 9}))
	})

	It("should keep column 10 on LPDDR2", func() {
		am := ddr3AddrMap()
		am[4] = 0x00000f00

		info := ddr3Info()
		info.MemType = LPDDR2

		m := NewMappingTable(am, info)

		Expect(m.Col[10]).To(Equal(uint8(10)))
		Expect(m.Col[12]).To(Equal(U))
		Expect(m.Col[13]).To(Equal(U))
	})

	It("should find the coordinate bit of a HIF bit", func() {
		m := NewMappingTable(ddr3AddrMap(), ddr3Info())

		dim, bit, ok := m.Find(12)
		Expect(ok).To(BeTrue())
		Expect(dim).To(Equal(DimBank))
		Expect(bit).To(Equal(2))

		_, _, ok = m.Find(40)
		Expect(ok).To(BeFalse())
	})

	It("should report the mapped HIF bits", func() {
		m := NewMappingTable(ddr3AddrMap(), ddr3Info())

		Expect(m.HIFMask()).To(Equal(uint64(1<<27 - 1)))
	})
})

var _ = Describe("Capacity", func() {
	It("should count mapped bits and the DQ width", func() {
		m := NewMappingTable(ddr3AddrMap(), ddr3Info())

		Expect(Capacity(m, DQ32)).To(Equal(uint64(512 << 20)))
		Expect(Capacity(m, DQ64)).To(Equal(uint64(1 << 30)))
	})

	It("should ignore rank bits", func() {
		am := ddr3AddrMap()
		am[0] = 0x00001414

		info := ddr3Info()
		info.Ranks = 4

		Expect(Capacity(NewMappingTable(am, info), DQ32)).To(Equal(uint64(512 << 20)))
	})
})
