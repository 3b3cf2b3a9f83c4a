package monitoring

import (
	"encoding/json"
	"io"
	"log"
	"net/http"
	"net/http/httptest"

	"github.com/sarchlab/edac/edac"
	"github.com/sarchlab/edac/regs"
	"github.com/sarchlab/edac/timing"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

// newDDR3File sets up a SEC/DED DDR3 controller with a 32-bit DQ bus and a
// scrubber, with 27 mapped HIF bits.
func newDDR3File() *regs.File {
	file := regs.NewFile(regs.WindowSize)

	file.Set(regs.ECCCFG0, 4)
	file.Set(regs.MSTR, 0x01040001)
	file.MarkReadOnly(regs.POISONPAT1)

	am := [regs.NumAddrMap]uint32{}
	am[1] = 0x00080808
	am[4] = 0x00000f0f
	am[5] = 0x07070707
	am[6] = 0x0f0f0707
	am[7] = 0x00000f0f

	for i, v := range am {
		file.Set(regs.ADDRMAP0+uint32(i)*4, v)
	}

	return file
}

var _ = Describe("Monitor", func() {
	var (
		file   *regs.File
		recent *Recent
		server *httptest.Server
	)

	BeforeEach(func() {
		file = newDDR3File()
		recent = NewRecent(10)

		c, err := edac.MakeBuilder().
			WithRegisterSpace(file).
			WithClock(timing.FixedClock(500 * timing.MHz)).
			WithLogger(log.New(io.Discard, "", 0)).
			WithSink(recent).
			Build()
		Expect(err).NotTo(HaveOccurred())

		m := NewMonitor(c).WithRecentFaults(recent)
		server = httptest.NewServer(m.Handler())
	})

	AfterEach(func() {
		server.Close()
	})

	do := func(method, path string) (int, []byte) {
		req, err := http.NewRequest(method, server.URL+path, nil)
		Expect(err).NotTo(HaveOccurred())

		rsp, err := http.DefaultClient.Do(req)
		Expect(err).NotTo(HaveOccurred())
		defer rsp.Body.Close()

		body, err := io.ReadAll(rsp.Body)
		Expect(err).NotTo(HaveOccurred())

		return rsp.StatusCode, body
	}

	getJSON := func(path string, v any) {
		status, body := do(http.MethodGet, path)
		Expect(status).To(Equal(http.StatusOK), string(body))
		Expect(json.Unmarshal(body, v)).To(Succeed())
	}

	It("should report the controller configuration", func() {
		var info infoRsp
		getJSON("/api/info", &info)

		Expect(info.Platform).To(Equal("generic"))
		Expect(info.MemType).To(Equal("DDR3"))
		Expect(info.DQBits).To(Equal(uint32(32)))
		Expect(info.ECCMode).To(Equal("SEC/DED"))
		Expect(info.CoreClock).To(Equal(uint64(500e6)))
	})

	It("should report the capacity", func() {
		var rsp map[string]uint64
		getJSON("/api/capacity", &rsp)

		Expect(rsp["bytes"]).To(Equal(uint64(512 << 20)))
	})

	It("should report no regions", func() {
		var rsp []regionRsp
		getJSON("/api/regions", &rsp)

		Expect(rsp).To(BeEmpty())
	})

	It("should render the HIF map", func() {
		status, body := do(http.MethodGet, "/api/hifmap")

		Expect(status).To(Equal(http.StatusOK))
		Expect(string(body)).To(ContainSubstring("r13"))
	})

	It("should set and read the scrub rate", func() {
		status, body := do(http.MethodPut, "/api/scrub?bw=315644")
		Expect(status).To(Equal(http.StatusOK), string(body))

		var rsp scrubRsp
		getJSON("/api/scrub", &rsp)

		Expect(rsp).To(Equal(scrubRsp{
			Enabled: true, Interval: 99, Bandwidth: 315644,
		}))
	})

	It("should reject a malformed scrub rate", func() {
		status, _ := do(http.MethodPut, "/api/scrub?bw=fast")

		Expect(status).To(Equal(http.StatusBadRequest))
	})

	It("should translate addresses", func() {
		var rsp addressRsp
		getJSON("/api/translate/sys/hif/0x1000", &rsp)

		Expect(rsp.Space).To(Equal("hif"))
		Expect(*rsp.Linear).To(Equal(uint64(0x400)))

		getJSON("/api/translate/hif/sdram/0x400", &rsp)

		Expect(rsp.Space).To(Equal("sdram"))
		Expect(rsp.SDRAM).NotTo(BeNil())
	})

	It("should reject unknown address spaces", func() {
		status, _ := do(http.MethodGet, "/api/translate/virt/hif/0x1000")

		Expect(status).To(Equal(http.StatusBadRequest))
	})

	It("should service interrupts and list the faults", func() {
		file.Set(regs.ECCSTAT, regs.ECCSTATUncorrected.Prep(1))
		file.Set(regs.CRCPARSTAT, regs.CRCPARSTATAlert|1)

		status, body := do(http.MethodPost, "/api/irq")
		Expect(status).To(Equal(http.StatusOK), string(body))

		var handled []faultRsp
		Expect(json.Unmarshal(body, &handled)).To(Succeed())
		Expect(handled).To(HaveLen(2))

		var listed []faultRsp
		getJSON("/api/faults", &listed)
		Expect(listed).To(HaveLen(2))
		Expect(listed[0].Kind).To(Equal("DFI"))
		Expect(listed[1].Kind).To(Equal("UE"))

		getJSON("/api/faults?kind=ue", &listed)
		Expect(listed).To(HaveLen(1))
		Expect(listed[0].Kind).To(Equal("UE"))

		getJSON("/api/faults?limit=1", &listed)
		Expect(listed).To(HaveLen(1))
		Expect(listed[0].Kind).To(Equal("DFI"))
	})

	It("should reject unknown fault kinds", func() {
		status, _ := do(http.MethodGet, "/api/faults?kind=parity")

		Expect(status).To(Equal(http.StatusBadRequest))
	})

	It("should serve the web page", func() {
		status, body := do(http.MethodGet, "/")

		Expect(status).To(Equal(http.StatusOK))
		Expect(string(body)).To(HavePrefix("<!DOCTYPE html>"))
	})
})
