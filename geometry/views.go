package geometry

import (
	"fmt"
	"io"

	"github.com/sarchlab/edac/timing"
)

// WriteInfo prints the controller configuration.
func WriteInfo(w io.Writer, info Info, clock timing.ClockSource) error {
	ew := &errWriter{w: w}

	ew.printf("SDRAM: %s\n", info.MemType)

	if clock != nil {
		if rate, ok := clock.CoreClock(); ok {
			mhz := uint64(rate / timing.MHz)
			ew.printf("Clock: Core %dMHz SDRAM %dMHz\n",
				mhz, uint64(info.FreqRatio)*mhz)
		}
	}

	ew.printf("DQ bus: %d/%s\n", info.DQWidth.Bits(), info.DQMode)
	ew.printf("Burst: SDRAM %d HIF %d\n", info.SDRAMBurst, info.HIFBurst)
	ew.printf("Ranks: %d\n", info.Ranks)

	if info.DevType != DevUnknown {
		ew.printf("Device: %s\n", info.DevType)
	}

	ew.printf("ECC: %s\n", info.ECCMode)
	ew.printf("Caps: %s\n", info.Caps)

	return ew.err
}

// WriteRegions prints the system to application address map.
func WriteRegions(w io.Writer, t RegionTable) error {
	ew := &errWriter{w: w}

	if t.NumRegions == 0 {
		ew.printf("No SARs detected\n")
		return ew.err
	}

	ew.printf("%9s %-37s %-18s %-37s\n",
		"", "System address", "Offset", "App address")

	var app uint64

	for i, r := range t.Active() {
		ew.printf("Region %d: 0x%016x-0x%016x 0x%016x 0x%016x-0x%016x\n",
			i, r.Base, r.Base+r.Size-1, r.Offset, app, app+r.Size-1)
		app += r.Size
	}

	return ew.err
}

// WriteHIFMap prints which coordinate bit each HIF bit carries, ten HIF
// bits per line.
func WriteHIFMap(w io.Writer, m MappingTable) error {
	const lineLen = 10

	ew := &errWriter{w: w}

	ew.printf("%3s", "")

	for i := 0; i < lineLen; i++ {
		ew.printf(" %02d ", i)
	}

	for i := 0; i < HIFWidth; i++ {
		if i%lineLen == 0 {
			ew.printf("\n%02d ", i)
		}

		cell := "--"
		if dim, bit, ok := m.Find(uint8(i)); ok {
			cell = fmt.Sprintf("%c%d", dim, bit)
		}

		ew.printf("%3s ", cell)
	}

	ew.printf("\nr - row, c - column, b - bank, g - bank group, a - rank\n")

	return ew.err
}

type errWriter struct {
	w   io.Writer
	err error
}

func (ew *errWriter) printf(format string, args ...any) {
	if ew.err != nil {
		return
	}

	_, ew.err = fmt.Fprintf(ew.w, format, args...)
}
