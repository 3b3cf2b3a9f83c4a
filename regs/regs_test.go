package regs

import (
	"errors"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("Field", func() {
	It("should extract and place values", func() {
		f := Bits(20, 8)

		Expect(f.Max()).To(Equal(uint32(8191)))
		Expect(f.Mask()).To(Equal(uint32(0x001fff00)))
		Expect(f.Get(0xffffffff)).To(Equal(uint32(8191)))
		Expect(f.Prep(3)).To(Equal(uint32(0x300)))
	})

	It("should drop bits that do not fit", func() {
		f := Bits(3, 0)

		Expect(f.Prep(0x1f)).To(Equal(uint32(0xf)))
	})

	It("should cover the whole register", func() {
		f := Bits(31, 0)

		Expect(f.Max()).To(Equal(^uint32(0)))
		Expect(f.Get(0xdeadbeef)).To(Equal(uint32(0xdeadbeef)))
	})

	It("should panic on an inverted range", func() {
		Expect(func() { Bits(3, 4) }).To(Panic())
	})
})

var _ = Describe("File", func() {
	var f *File

	BeforeEach(func() {
		f = NewFile(0x1000)
	})

	It("should read zero from unwritten registers", func() {
		v, err := f.Read32(0x10)

		Expect(err).NotTo(HaveOccurred())
		Expect(v).To(BeZero())
	})

	It("should store written values", func() {
		Expect(f.Write32(0x10, 0x1234)).To(Succeed())

		v, err := f.Read32(0x10)

		Expect(err).NotTo(HaveOccurred())
		Expect(v).To(Equal(uint32(0x1234)))
		Expect(f.Offsets()).To(Equal([]uint32{0x10}))
	})

	It("should forget registers written back to zero", func() {
		Expect(f.Write32(0x10, 1)).To(Succeed())
		Expect(f.Write32(0x10, 0)).To(Succeed())

		Expect(f.Offsets()).To(BeEmpty())
	})

	It("should reject unaligned and out-of-window offsets", func() {
		_, err := f.Read32(0x11)
		Expect(errors.Is(err, ErrIO)).To(BeTrue())

		err = f.Write32(0x1000, 1)
		Expect(errors.Is(err, ErrIO)).To(BeTrue())
	})

	It("should drop writes to read-only registers", func() {
		f.Set(0x20, 7)
		f.MarkReadOnly(0x20)

		Expect(f.Write32(0x20, 9)).To(Succeed())
		Expect(f.Get(0x20)).To(Equal(uint32(7)))
		Expect(f.ReadOnlyOffsets()).To(Equal([]uint32{0x20}))
	})

	It("should fail accesses to faulty registers until cleared", func() {
		f.MarkFaulty(0x30)

		_, err := f.Read32(0x30)
		Expect(err).To(MatchError(ErrIO))

		f.ClearFaulty(0x30)

		_, err = f.Read32(0x30)
		Expect(err).NotTo(HaveOccurred())
	})

	It("should let a write hook decide what is stored", func() {
		f.Set(0x40, 0xf0)
		f.OnWrite(0x40, func(_ Window, old, new uint32) uint32 {
			return old &^ new
		})

		Expect(f.Write32(0x40, 0x30)).To(Succeed())
		Expect(f.Get(0x40)).To(Equal(uint32(0xc0)))
	})

	It("should read-modify-write through Modify", func() {
		f.Set(0x50, 0x0f)

		err := Modify(f, 0x50, func(v uint32) uint32 { return v | 0xf0 })

		Expect(err).NotTo(HaveOccurred())
		Expect(f.Get(0x50)).To(Equal(uint32(0xff)))
	})

	It("should read consecutive registers", func() {
		f.Set(0x200, 1)
		f.Set(0x204, 2)
		f.Set(0x208, 3)

		vals, err := ReadBlock(f, 0x200, 3)

		Expect(err).NotTo(HaveOccurred())
		Expect(vals).To(Equal([]uint32{1, 2, 3}))
	})

	It("should stop a block read at the first failure", func() {
		f.MarkFaulty(0x204)

		_, err := ReadBlock(f, 0x200, 3)

		Expect(err).To(MatchError(ErrIO))
	})
})
