// Package monitoring serves a DDR controller over HTTP so that it can be
// watched and driven from a browser or scripts.
package monitoring

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net"
	"net/http"
	"os"
	"runtime/pprof"
	"strconv"
	"strings"
	"time"

	"github.com/google/pprof/profile"
	"github.com/gorilla/mux"
	"github.com/shirou/gopsutil/process"
	"github.com/syifan/goseth"

	"github.com/sarchlab/edac/edac"
	"github.com/sarchlab/edac/fault"
	"github.com/sarchlab/edac/faultlog"
	"github.com/sarchlab/edac/geometry"
	"github.com/sarchlab/edac/monitoring/web"
)

// Monitor turns a controller handle into a server.
type Monitor struct {
	controller *edac.Controller
	portNumber int
	recent     *Recent
	faultLog   *faultlog.Reader
}

// NewMonitor creates a new Monitor
func NewMonitor(c *edac.Controller) *Monitor {
	return &Monitor{controller: c}
}

// WithPortNumber sets the port number of the monitor.
func (m *Monitor) WithPortNumber(portNumber int) *Monitor {
	if portNumber < 1000 {
		fmt.Fprintf(os.Stderr,
			"Port number %d is assigned to the monitoring server, "+
				"which is not allowed. Using a random port instead.\n", portNumber)
		portNumber = 0
	}

	m.portNumber = portNumber

	return m
}

// WithRecentFaults sets the in-memory buffer faults are listed from when
// there is no fault log.
func (m *Monitor) WithRecentFaults(r *Recent) *Monitor {
	m.recent = r
	return m
}

// WithFaultLog sets the fault log faults are listed from.
func (m *Monitor) WithFaultLog(r *faultlog.Reader) *Monitor {
	m.faultLog = r
	return m
}

// Handler returns the router serving the API and the web pages.
func (m *Monitor) Handler() http.Handler {
	r := mux.NewRouter()

	fs := web.Assets()
	fServer := http.FileServer(fs)
	r.HandleFunc("/api/info", m.info).Methods(http.MethodGet)
	r.HandleFunc("/api/regions", m.regions).Methods(http.MethodGet)
	r.HandleFunc("/api/hifmap", m.hifMap).Methods(http.MethodGet)
	r.HandleFunc("/api/capacity", m.capacity).Methods(http.MethodGet)
	r.HandleFunc("/api/scrub", m.scrubSetting).Methods(http.MethodGet)
	r.HandleFunc("/api/scrub", m.setScrubRate).Methods(http.MethodPut)
	r.HandleFunc("/api/translate/{from}/{to}/{addr}", m.translate).
		Methods(http.MethodGet)
	r.HandleFunc("/api/faults", m.listFaults).Methods(http.MethodGet)
	r.HandleFunc("/api/irq", m.handleInterrupt).Methods(http.MethodPost)
	r.HandleFunc("/api/controller", m.controllerDetails)
	r.HandleFunc("/api/field/{path}", m.listFieldValue)
	r.HandleFunc("/api/resource", m.listResources)
	r.HandleFunc("/api/profile", m.collectProfile)
	r.PathPrefix("/").Handler(fServer)

	return r
}

// StartServer starts the monitor as a web server and returns its URL.
func (m *Monitor) StartServer() string {
	actualPort := ":0"
	if m.portNumber > 1000 {
		actualPort = ":" + strconv.Itoa(m.portNumber)
	}

	listener, err := net.Listen("tcp", actualPort)
	dieOnErr(err)

	url := fmt.Sprintf("http://localhost:%d",
		listener.Addr().(*net.TCPAddr).Port)
	fmt.Fprintf(os.Stderr, "Monitoring controller with %s\n", url)

	handler := m.Handler()

	go func() {
		err = http.Serve(listener, handler)
		dieOnErr(err)
	}()

	return url
}

type infoRsp struct {
	Platform   string `json:"platform"`
	MemType    string `json:"mem_type"`
	DevType    string `json:"dev_type"`
	DQBits     uint32 `json:"dq_bits"`
	DQMode     string `json:"dq_mode"`
	SDRAMBurst int    `json:"sdram_burst"`
	HIFBurst   int    `json:"hif_burst"`
	FreqRatio  int    `json:"freq_ratio"`
	Ranks      int    `json:"ranks"`
	ECCMode    string `json:"ecc_mode"`
	Caps       string `json:"caps"`
	CoreClock  uint64 `json:"core_clock_hz,omitempty"`
}

func (m *Monitor) info(w http.ResponseWriter, _ *http.Request) {
	g := m.controller.Geometry()
	info := g.Info

	rsp := infoRsp{
		Platform:   g.Platform.Name,
		MemType:    info.MemType.String(),
		DevType:    info.DevType.String(),
		DQBits:     info.DQWidth.Bits(),
		DQMode:     info.DQMode.String(),
		SDRAMBurst: int(info.SDRAMBurst),
		HIFBurst:   int(info.HIFBurst),
		FreqRatio:  int(info.FreqRatio),
		Ranks:      info.Ranks,
		ECCMode:    info.ECCMode.String(),
		Caps:       info.Caps.String(),
	}

	if core, ok := m.controller.Clock().CoreClock(); ok {
		rsp.CoreClock = uint64(core)
	}

	writeJSON(w, rsp)
}

type regionRsp struct {
	Base   uint64 `json:"base"`
	Size   uint64 `json:"size"`
	Offset uint64 `json:"offset"`
}

func (m *Monitor) regions(w http.ResponseWriter, _ *http.Request) {
	rsp := []regionRsp{}

	for _, r := range m.controller.Geometry().Regions.Active() {
		rsp = append(rsp, regionRsp{Base: r.Base, Size: r.Size, Offset: r.Offset})
	}

	writeJSON(w, rsp)
}

func (m *Monitor) hifMap(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")

	err := geometry.WriteHIFMap(w, m.controller.Geometry().Mapping)
	dieOnErr(err)
}

func (m *Monitor) capacity(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, map[string]uint64{"bytes": m.controller.CapacityBytes()})
}

type scrubRsp struct {
	Enabled   bool   `json:"enabled"`
	Interval  uint32 `json:"interval"`
	Bandwidth uint64 `json:"bandwidth"`
}

func (m *Monitor) scrubSetting(w http.ResponseWriter, _ *http.Request) {
	s, err := m.controller.ScrubSetting()
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, scrubRsp{
		Enabled:   s.Enabled,
		Interval:  s.Interval,
		Bandwidth: s.Bandwidth,
	})
}

func (m *Monitor) setScrubRate(w http.ResponseWriter, r *http.Request) {
	bw, err := strconv.ParseUint(r.URL.Query().Get("bw"), 0, 64)
	if err != nil {
		w.WriteHeader(http.StatusBadRequest)
		fmt.Fprintf(w, "Error: invalid bandwidth %q", r.URL.Query().Get("bw"))

		return
	}

	if _, err = m.controller.SetScrubRate(bw); err != nil {
		writeError(w, err)
		return
	}

	m.scrubSetting(w, r)
}

type sdramRsp struct {
	Row       uint32 `json:"row"`
	Col       uint16 `json:"col"`
	Bank      uint8  `json:"bank"`
	BankGroup uint8  `json:"bank_group"`
	Rank      uint8  `json:"rank"`
}

func makeSDRAMRsp(a geometry.SDRAMAddress) sdramRsp {
	return sdramRsp{
		Row:       a.Row,
		Col:       a.Col,
		Bank:      a.Bank,
		BankGroup: a.BankGroup,
		Rank:      a.Rank,
	}
}

type addressRsp struct {
	Space  string    `json:"space"`
	Linear *uint64   `json:"linear,omitempty"`
	SDRAM  *sdramRsp `json:"sdram,omitempty"`
	Text   string    `json:"text"`
}

func (m *Monitor) translate(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)

	from, err := geometry.ParseAddrSpace(vars["from"])
	if err != nil {
		writeError(w, err)
		return
	}

	to, err := geometry.ParseAddrSpace(vars["to"])
	if err != nil {
		writeError(w, err)
		return
	}

	addr, err := geometry.ParseAddress(from, vars["addr"])
	if err != nil {
		writeError(w, err)
		return
	}

	out, err := m.controller.Translate(addr, to)
	if err != nil {
		writeError(w, err)
		return
	}

	rsp := addressRsp{Space: out.Space.String(), Text: out.String()}
	if out.Space == geometry.SDRAM {
		s := makeSDRAMRsp(out.SDRAM)
		rsp.SDRAM = &s
	} else {
		rsp.Linear = &out.Linear
	}

	writeJSON(w, rsp)
}

type faultRsp struct {
	ID            string    `json:"id"`
	Time          time.Time `json:"time"`
	Kind          string    `json:"kind"`
	Count         uint32    `json:"count"`
	Address       sdramRsp  `json:"address"`
	SystemAddress uint64    `json:"system_address"`
	Syndrome      uint32    `json:"syndrome"`
	BitPosition   uint32    `json:"bit_position"`
	Data          uint64    `json:"data"`
	ECC           uint32    `json:"ecc"`
	Partial       bool      `json:"partial"`
	Text          string    `json:"text"`
}

func makeFaultRsps(reports []*fault.Report) []faultRsp {
	rsp := make([]faultRsp, 0, len(reports))

	for _, r := range reports {
		rsp = append(rsp, faultRsp{
			ID:            r.ID,
			Time:          r.Time,
			Kind:          r.Kind.String(),
			Count:         r.Count,
			Address:       makeSDRAMRsp(r.Address),
			SystemAddress: r.SystemAddress,
			Syndrome:      r.Syndrome,
			BitPosition:   r.BitPosition,
			Data:          r.Data,
			ECC:           r.ECC,
			Partial:       r.Partial,
			Text:          r.String(),
		})
	}

	return rsp
}

func (m *Monitor) listFaults(w http.ResponseWriter, r *http.Request) {
	q, err := faultsParseParams(r)
	if err != nil {
		w.WriteHeader(http.StatusBadRequest)
		fmt.Fprintf(w, "Error: %s", err)

		return
	}

	var reports []*fault.Report

	switch {
	case m.faultLog != nil:
		reports, err = m.faultLog.List(r.Context(), q)
		if err != nil {
			writeError(w, err)
			return
		}
	case m.recent != nil:
		reports = filterKinds(m.recent.List(0), q.Kinds)
		if q.Limit > 0 && len(reports) > q.Limit {
			reports = reports[:q.Limit]
		}
	}

	writeJSON(w, makeFaultRsps(reports))
}

func faultsParseParams(r *http.Request) (faultlog.Query, error) {
	q := faultlog.Query{}

	if kinds := r.URL.Query().Get("kind"); kinds != "" {
		for _, name := range strings.Split(kinds, ",") {
			k, err := fault.ParseKind(name)
			if err != nil {
				return q, err
			}

			q.Kinds = append(q.Kinds, k)
		}
	}

	if limit := r.URL.Query().Get("limit"); limit != "" {
		n, err := strconv.Atoi(limit)
		if err != nil {
			return q, err
		}

		q.Limit = n
	}

	return q, nil
}

func filterKinds(reports []*fault.Report, kinds []fault.Kind) []*fault.Report {
	if len(kinds) == 0 {
		return reports
	}

	out := reports[:0:0]

	for _, r := range reports {
		for _, k := range kinds {
			if r.Kind == k {
				out = append(out, r)
				break
			}
		}
	}

	return out
}

func (m *Monitor) handleInterrupt(w http.ResponseWriter, _ *http.Request) {
	reports, err := m.controller.HandleInterrupt()
	if err != nil && len(reports) == 0 {
		writeError(w, err)
		return
	}

	writeJSON(w, makeFaultRsps(reports))
}

func (m *Monitor) controllerDetails(w http.ResponseWriter, _ *http.Request) {
	serializer := goseth.NewSerializer()
	serializer.SetRoot(m.controller)
	serializer.SetMaxDepth(1)
	err := serializer.Serialize(w)

	dieOnErr(err)
}

func (m *Monitor) listFieldValue(w http.ResponseWriter, r *http.Request) {
	fields := strings.Split(mux.Vars(r)["path"], ".")

	serializer := goseth.NewSerializer()
	serializer.SetRoot(m.controller)
	serializer.SetMaxDepth(1)

	if err := serializer.SetEntryPoint(fields); err != nil {
		w.WriteHeader(http.StatusNotFound)
		fmt.Fprintf(w, "Error: %s", err)

		return
	}

	err := serializer.Serialize(w)
	dieOnErr(err)
}

type resourceRsp struct {
	CPUPercent float64 `json:"cpu_percent"`
	MemorySize uint64  `json:"memory_size"`
}

func (m *Monitor) listResources(w http.ResponseWriter, _ *http.Request) {
	pid := os.Getpid()
	process, err := process.NewProcess(int32(pid))
	dieOnErr(err)

	cpuPercent, err := process.CPUPercent()
	dieOnErr(err)

	memorySize, err := process.MemoryInfo()
	dieOnErr(err)

	rsp := resourceRsp{
		CPUPercent: cpuPercent,
		MemorySize: memorySize.RSS,
	}

	writeJSON(w, rsp)
}

func (m *Monitor) collectProfile(w http.ResponseWriter, _ *http.Request) {
	buf := bytes.NewBuffer(nil)

	err := pprof.StartCPUProfile(buf)
	dieOnErr(err)

	time.Sleep(time.Second)

	pprof.StopCPUProfile()

	prof, err := profile.ParseData(buf.Bytes())
	dieOnErr(err)

	writeJSON(w, prof)
}

func writeJSON(w http.ResponseWriter, v any) {
	bytes, err := json.Marshal(v)
	dieOnErr(err)

	w.Header().Set("Content-Type", "application/json")

	_, err = w.Write(bytes)
	dieOnErr(err)
}

func statusOf(err error) int {
	switch {
	case errors.Is(err, edac.ErrNoScrubber):
		return http.StatusNotImplemented
	case errors.Is(err, geometry.ErrAddrSpace),
		errors.Is(err, geometry.ErrAddress),
		errors.Is(err, fault.ErrKind):
		return http.StatusBadRequest
	case errors.Is(err, context.Canceled):
		return http.StatusServiceUnavailable
	}

	return http.StatusInternalServerError
}

func writeError(w http.ResponseWriter, err error) {
	w.WriteHeader(statusOf(err))
	fmt.Fprintf(w, "Error: %s", err)
}

func dieOnErr(err error) {
	if err != nil {
		log.Panic(err)
	}
}
