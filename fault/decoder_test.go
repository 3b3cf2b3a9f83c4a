package fault

import (
	"errors"
	"sync"
	"time"

	"github.com/sarchlab/edac/geometry"
	"github.com/sarchlab/edac/regs"
	"go.uber.org/mock/gomock"

	"github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = ginkgo.Describe("Decoder", func() {
	var (
		file    *regs.File
		info    geometry.Info
		tr      *geometry.Translator
		decoder *Decoder
		now     time.Time
	)

	addr := geometry.SDRAMAddress{Row: 0x12, Col: 0x40, Bank: 2}

	ginkgo.BeforeEach(func() {
		file = regs.NewFile(regs.WindowSize)
		info = ddr3Info()
		tr = ddr3Translator(info)
		now = time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	})

	ginkgo.JustBeforeEach(func() {
		decoder = NewDecoder(file, new(sync.Mutex), info, tr)
		decoder.now = func() time.Time { return now }
	})

	logCorrected := func() {
		file.Set(regs.ECCSTAT,
			regs.ECCSTATCorrected.Prep(1)|regs.ECCSTATBitNum.Prep(7))
		file.Set(regs.ECCERRCNT, regs.ECCERRCNTCorrected.Prep(3))
		file.Set(regs.ECCCADDR0, regs.ECCADDR0Row.Prep(addr.Row))
		file.Set(regs.ECCCADDR1,
			regs.ECCADDR1Bank.Prep(uint32(addr.Bank))|
				regs.ECCADDR1Col.Prep(uint32(addr.Col)))
		file.Set(regs.ECCCSYN0, 0xdeadbeef)
		file.Set(regs.ECCCSYN1, 0xcafef00d)
		file.Set(regs.ECCCSYN2, 0x5a)
	}

	logUncorrected := func() {
		file.Set(regs.ECCSTAT, regs.ECCSTATUncorrected.Prep(1))
		file.Set(regs.ECCERRCNT, regs.ECCERRCNTUncorrected.Prep(1))
		file.Set(regs.ECCUADDR0, regs.ECCADDR0Row.Prep(addr.Row))
		file.Set(regs.ECCUADDR1,
			regs.ECCADDR1Bank.Prep(uint32(addr.Bank))|
				regs.ECCADDR1Col.Prep(uint32(addr.Col)))
		file.Set(regs.ECCUSYN0, 0x01020304)
		file.Set(regs.ECCUSYN2, 0x11)
	}

	ginkgo.It("should return nothing when no fault is pending", func() {
		r, err := decoder.Decode(Corrected)

		Expect(err).NotTo(HaveOccurred())
		Expect(r).To(BeNil())
		Expect(file.Get(regs.ECCCLR)).To(BeZero())
	})

	ginkgo.It("should decode and clear a corrected fault", func() {
		logCorrected()

		r, err := decoder.Decode(Corrected)

		Expect(err).NotTo(HaveOccurred())
		Expect(r).NotTo(BeNil())
		Expect(r.ID).NotTo(BeEmpty())
		Expect(r.Time).To(Equal(now))
		Expect(r.Kind).To(Equal(Corrected))
		Expect(r.Count).To(Equal(uint32(3)))
		Expect(r.Address).To(Equal(addr))
		Expect(r.SystemAddress).To(Equal(tr.SDRAMToSystem(addr)))
		Expect(r.Syndrome).To(Equal(uint32(7)))
		Expect(r.BitPosition).To(Equal(uint32(3)))
		Expect(r.Data).To(Equal(uint64(0xdeadbeef)))
		Expect(r.ECC).To(Equal(uint32(0x5a)))
		Expect(r.Partial).To(BeFalse())
		Expect(file.Get(regs.ECCCLR)).To(Equal(
			regs.ECCCLRCorrected | regs.ECCCLRCorrectedCount))
	})

	ginkgo.It("should keep the interrupt enables when clearing", func() {
		logCorrected()
		file.Set(regs.ECCCLR, regs.ECCCLREnCorrectedIRQ)

		_, err := decoder.Decode(Corrected)

		Expect(err).NotTo(HaveOccurred())
		Expect(file.Get(regs.ECCCLR) & regs.ECCCLREnCorrectedIRQ).
			NotTo(BeZero())
	})

	ginkgo.Context("on a 64-bit bus", func() {
		ginkgo.BeforeEach(func() {
			info.DQWidth = geometry.DQ64
			tr = ddr3Translator(info)
		})

		ginkgo.It("should read the upper data word", func() {
			logCorrected()

			r, err := decoder.Decode(Corrected)

			Expect(err).NotTo(HaveOccurred())
			Expect(r.Data).To(Equal(uint64(0xcafef00ddeadbeef)))
		})
	})

	ginkgo.It("should decode an uncorrected fault without a bit position", func() {
		logUncorrected()

		r, err := decoder.Decode(Uncorrected)

		Expect(err).NotTo(HaveOccurred())
		Expect(r.Kind).To(Equal(Uncorrected))
		Expect(r.Count).To(Equal(uint32(1)))
		Expect(r.Address).To(Equal(addr))
		Expect(r.Syndrome).To(BeZero())
		Expect(r.BitPosition).To(BeZero())
		Expect(r.Data).To(Equal(uint64(0x01020304)))
		Expect(r.ECC).To(Equal(uint32(0x11)))
		Expect(file.Get(regs.ECCCLR)).To(Equal(
			regs.ECCCLRUncorrected | regs.ECCCLRUncorrectedCount))
	})

	ginkgo.It("should not mistake a corrected fault for an uncorrected one", func() {
		logCorrected()

		r, err := decoder.Decode(Uncorrected)

		Expect(err).NotTo(HaveOccurred())
		Expect(r).To(BeNil())
	})

	ginkgo.It("should mark the report partial and still clear", func() {
		logCorrected()
		file.MarkFaulty(regs.ECCCADDR1)

		r, err := decoder.Decode(Corrected)

		Expect(err).To(MatchError(regs.ErrIO))
		Expect(r).NotTo(BeNil())
		Expect(r.Partial).To(BeTrue())
		Expect(r.Address.Row).To(Equal(addr.Row))
		Expect(r.Address.Col).To(BeZero())
		Expect(r.Data).To(BeZero())
		Expect(file.Get(regs.ECCCLR)).To(Equal(
			regs.ECCCLRCorrected | regs.ECCCLRCorrectedCount))
	})

	ginkgo.It("should not clear when the status cannot be read", func() {
		logCorrected()
		file.MarkFaulty(regs.ECCSTAT)

		r, err := decoder.Decode(Corrected)

		Expect(err).To(MatchError(regs.ErrIO))
		Expect(r).To(BeNil())
		Expect(file.Get(regs.ECCCLR)).To(BeZero())
	})

	ginkgo.It("should report a clear failure", func() {
		logCorrected()
		file.MarkFaulty(regs.ECCCLR)

		r, err := decoder.Decode(Corrected)

		Expect(err).To(MatchError(regs.ErrIO))
		Expect(r).NotTo(BeNil())
		Expect(r.Partial).To(BeFalse())
	})

	ginkgo.It("should decode and clear a DFI alert", func() {
		file.Set(regs.CRCPARSTAT,
			regs.CRCPARSTATAlert|regs.CRCPARSTATAlertCount.Prep(2))
		file.Set(regs.CRCPARCTL0, regs.CRCPARCTL0EnAlertIRQ)

		r, err := decoder.Decode(DFIAlert)

		Expect(err).NotTo(HaveOccurred())
		Expect(r.Kind).To(Equal(DFIAlert))
		Expect(r.Count).To(Equal(uint32(2)))
		Expect(file.Get(regs.CRCPARCTL0)).To(Equal(regs.CRCPARCTL0EnAlertIRQ |
			regs.CRCPARCTL0ClrAlert | regs.CRCPARCTL0ClrAlertCount))
	})

	ginkgo.It("should reject an unknown kind", func() {
		_, err := decoder.Decode(Kind(42))

		Expect(err).To(MatchError(ErrKind))
	})

	ginkgo.Context("on ZynqMP", func() {
		ginkgo.BeforeEach(func() {
			info.Caps |= geometry.CapZynqMP
			file.OnWrite(regs.QOSIRQSTAT, func(_ regs.Window, old, new uint32) uint32 {
				return old &^ new
			})
		})

		ginkgo.It("should ignore faults the QoS block did not signal", func() {
			logCorrected()

			r, err := decoder.Decode(Corrected)

			Expect(err).NotTo(HaveOccurred())
			Expect(r).To(BeNil())
			Expect(file.Get(regs.ECCCLR)).To(BeZero())
		})

		ginkgo.It("should acknowledge the QoS interrupt", func() {
			logCorrected()
			file.Set(regs.QOSIRQSTAT, regs.QOSCorrected|regs.QOSUncorrected)

			r, err := decoder.Decode(Corrected)

			Expect(err).NotTo(HaveOccurred())
			Expect(r).NotTo(BeNil())
			Expect(file.Get(regs.QOSIRQSTAT)).To(Equal(regs.QOSUncorrected))
		})

		ginkgo.It("should re-check the uncorrected flag", func() {
			logUncorrected()
			file.Set(regs.QOSIRQSTAT, regs.QOSCorrected)

			r, err := decoder.Decode(Uncorrected)

			Expect(err).NotTo(HaveOccurred())
			Expect(r).To(BeNil())
		})
	})

	ginkgo.Describe("Dispatch", func() {
		ginkgo.It("should return the reports in kind order", func() {
			logCorrected()
			file.Set(regs.CRCPARSTAT, regs.CRCPARSTATAlert)

			reports, err := decoder.Dispatch()

			Expect(err).NotTo(HaveOccurred())
			Expect(reports).To(HaveLen(2))
			Expect(reports[0].Kind).To(Equal(Corrected))
			Expect(reports[1].Kind).To(Equal(DFIAlert))
		})

		ginkgo.It("should keep going after a failed kind", func() {
			logCorrected()
			file.MarkFaulty(regs.CRCPARSTAT)

			reports, err := decoder.Dispatch()

			Expect(err).To(MatchError(regs.ErrIO))
			Expect(reports).To(HaveLen(1))
			Expect(reports[0].Kind).To(Equal(Corrected))
		})
	})

	ginkgo.Describe("register access order", func() {
		var (
			mockCtrl *gomock.Controller
			space    *MockSpace
		)

		ginkgo.BeforeEach(func() {
			mockCtrl = gomock.NewController(ginkgo.GinkgoT())
			space = NewMockSpace(mockCtrl)
		})

		ginkgo.AfterEach(func() {
			mockCtrl.Finish()
		})

		ginkgo.It("should stop reading after the first failure", func() {
			d := NewDecoder(space, new(sync.Mutex), info, tr)
			broken := errors.New("bus error")

			gomock.InOrder(
				space.EXPECT().Read32(regs.ECCSTAT).
					Return(regs.ECCSTATUncorrected.Prep(1), nil),
				space.EXPECT().Read32(regs.ECCERRCNT).Return(uint32(0), broken),
				space.EXPECT().Read32(regs.ECCCLR).Return(uint32(0), nil),
				space.EXPECT().Write32(regs.ECCCLR,
					regs.ECCCLRUncorrected|regs.ECCCLRUncorrectedCount).
					Return(nil),
			)

			r, err := d.Decode(Uncorrected)

			Expect(err).To(MatchError(broken))
			Expect(r.Partial).To(BeTrue())
			Expect(r.Count).To(BeZero())
		})
	})
})
