package geometry

import (
	"github.com/sarchlab/edac/regs"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

// ddr4MSTR selects DDR4 x8 devices, two ranks, BL8, half bus width and 1:1
// clocks.
const ddr4MSTR uint32 = 0x43441010

var _ = Describe("Detect", func() {
	var file *regs.File

	BeforeEach(func() {
		file = regs.NewFile(regs.WindowSize)
		file.Set(regs.ECCCFG0, uint32(ECCSECDED))
		file.Set(regs.MSTR, ddr4MSTR)
		file.Set(regs.SBRWDATA0, 0x5a5a5a5a)
		file.Set(regs.POISONPAT1, 0x12345678)
	})

	It("should decode the controller configuration", func() {
		info, err := Detect(file, Generic)

		Expect(err).NotTo(HaveOccurred())
		Expect(info).To(Equal(Info{
			MemType:    DDR4,
			DevType:    DevX8,
			DQWidth:    DQ64,
			DQMode:     DQHalf,
			SDRAMBurst: BL8,
			HIFBurst:   BL8,
			FreqRatio:  Ratio11,
			Ranks:      2,
			ECCMode:    ECCSECDED,
			Caps:       CapScrub | CapScrubber,
		}))
	})

	It("should restore probed registers", func() {
		_, err := Detect(file, Generic)

		Expect(err).NotTo(HaveOccurred())
		Expect(file.Get(regs.SBRWDATA0)).To(Equal(uint32(0x5a5a5a5a)))
		Expect(file.Get(regs.POISONPAT1)).To(Equal(uint32(0x12345678)))
		Expect(file.Get(regs.SWCTL)).To(Equal(uint32(1)))
	})

	It("should notice a missing scrubber and a 32-bit bus", func() {
		file.MarkReadOnly(regs.SBRWDATA0, regs.POISONPAT1)
		file.Set(regs.ECCCFG0, uint32(ECCSECDED)|regs.ECCCFG0DisableScrub)

		info, err := Detect(file, Generic)

		Expect(err).NotTo(HaveOccurred())
		Expect(info.Caps).To(BeZero())
		Expect(info.DQWidth).To(Equal(DQ32))
	})

	It("should decode DDR3 with 1:2 clocks", func() {
		file.Set(regs.MSTR, 0x01080001)

		info, err := Detect(file, Generic)

		Expect(err).NotTo(HaveOccurred())
		Expect(info.MemType).To(Equal(DDR3))
		Expect(info.DevType).To(Equal(DevUnknown))
		Expect(info.FreqRatio).To(Equal(Ratio12))
		Expect(info.SDRAMBurst).To(Equal(BL16))
		Expect(info.Ranks).To(Equal(1))
	})

	It("should report unknown memory types as reserved", func() {
		file.Set(regs.MSTR, 0x3)

		info, err := Detect(file, Generic)

		Expect(err).NotTo(HaveOccurred())
		Expect(info.MemType).To(Equal(MemReserved))
	})

	It("should stop when ECC is not SEC/DED", func() {
		file.Set(regs.ECCCFG0, uint32(ECCAdvX4X8))

		info, err := Detect(file, Generic)

		Expect(err).NotTo(HaveOccurred())
		Expect(info).To(Equal(Info{ECCMode: ECCAdvX4X8}))
		Expect(file.Get(regs.SWCTL)).To(BeZero())
	})

	It("should apply the ZynqMP platform", func() {
		file.MarkReadOnly(regs.POISONPAT1)

		info, err := Detect(file, ZynqMP)

		Expect(err).NotTo(HaveOccurred())
		Expect(info.Caps.Has(CapZynqMP)).To(BeTrue())
		Expect(info.DQWidth).To(Equal(DQ64))
	})

	It("should apply the Baikal-T1 platform", func() {
		info, err := Detect(file, BT1)

		Expect(err).NotTo(HaveOccurred())
		Expect(info.DQWidth).To(Equal(DQ32))
		Expect(info.HIFBurst).To(Equal(BL8))
	})

	It("should propagate register failures", func() {
		file.MarkFaulty(regs.MSTR)

		_, err := Detect(file, Generic)

		Expect(err).To(MatchError(regs.ErrIO))
	})
})

var _ = Describe("Platform", func() {
	It("should be found by name or compatible string", func() {
		p, err := LookupPlatform("ZynqMP")
		Expect(err).NotTo(HaveOccurred())
		Expect(p.Name).To(Equal("zynqmp"))

		p, err = LookupPlatform("baikal,bt1-ddrc")
		Expect(err).NotTo(HaveOccurred())
		Expect(p.SARBlockSize).To(Equal(uint64(256 << 20)))

		p, err = LookupPlatform("")
		Expect(err).NotTo(HaveOccurred())
		Expect(p.Name).To(Equal("generic"))

		_, err = LookupPlatform("versal")
		Expect(err).To(MatchError(ErrUnknownPlatform))
	})
})

var _ = Describe("Caps", func() {
	It("should print the capability list", func() {
		Expect((CapScrub | CapZynqMP).String()).To(Equal("+Scrub +ZynqMP"))
		Expect(Caps(0).String()).To(Equal("-"))
	})
})
