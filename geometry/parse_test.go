package geometry

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("ParseAddress", func() {
	It("should parse linear addresses in any base", func() {
		a, err := ParseAddress(System, "0x1000")
		Expect(err).NotTo(HaveOccurred())
		Expect(a).To(Equal(Address{Space: System, Linear: 0x1000}))

		a, err = ParseAddress(HIF, "42")
		Expect(err).NotTo(HaveOccurred())
		Expect(a).To(Equal(Address{Space: HIF, Linear: 42}))
	})

	It("should parse SDRAM coordinates", func() {
		a, err := ParseAddress(SDRAM, "18:64:2")
		Expect(err).NotTo(HaveOccurred())
		Expect(a.SDRAM).To(Equal(SDRAMAddress{Row: 18, Col: 64, Bank: 2}))

		a, err = ParseAddress(SDRAM, "0x12:0x40:2:1:1")
		Expect(err).NotTo(HaveOccurred())
		Expect(a.SDRAM).To(Equal(SDRAMAddress{
			Row: 0x12, Col: 0x40, Bank: 2, BankGroup: 1, Rank: 1,
		}))
	})

	It("should accept 18-bit rows", func() {
		a, err := ParseAddress(SDRAM, "0x3ffff:0:0")
		Expect(err).NotTo(HaveOccurred())
		Expect(a.SDRAM.Row).To(Equal(uint32(0x3ffff)))

		_, err = ParseAddress(SDRAM, "0x40000:0:0")
		Expect(err).To(MatchError(ErrAddress))
	})

	It("should reject malformed input", func() {
		for _, s := range []string{"", "1:2", "1:2:3:4:5:6", "1:2:256", "x:1:1"} {
			_, err := ParseAddress(SDRAM, s)
			Expect(err).To(MatchError(ErrAddress), s)
		}

		_, err := ParseAddress(App, "zz")
		Expect(err).To(MatchError(ErrAddress))

		_, err = ParseAddress(AddrSpace(9), "1")
		Expect(err).To(MatchError(ErrAddrSpace))
	})
})
