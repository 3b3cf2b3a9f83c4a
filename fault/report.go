// Package fault decodes the ECC and DFI fault records of a DW uMCTL2
// controller into reports.
package fault

import (
	"errors"
	"fmt"
	"math/bits"
	"strings"
	"time"

	"github.com/sarchlab/edac/geometry"
)

// ErrKind is returned for an unknown fault kind.
var ErrKind = errors.New("fault: unknown kind")

// Kind classifies a fault.
type Kind int

// Fault kinds.
const (
	Corrected Kind = iota
	Uncorrected
	DFIAlert
)

func (k Kind) String() string {
	switch k {
	case Corrected:
		return "CE"
	case Uncorrected:
		return "UE"
	case DFIAlert:
		return "DFI"
	}

	return fmt.Sprintf("Kind(%d)", int(k))
}

// ParseKind accepts the names String returns, in any case.
func ParseKind(s string) (Kind, error) {
	switch strings.ToUpper(s) {
	case "CE":
		return Corrected, nil
	case "UE":
		return Uncorrected, nil
	case "DFI":
		return DFIAlert, nil
	}

	return 0, fmt.Errorf("%w: %q", ErrKind, s)
}

// A Report describes one fault record read from the controller.
//
// DFI alerts only carry a count. Uncorrected faults have no bit position.
// Partial is set when some of the record could not be read; the fields that
// were not read are zero.
type Report struct {
	ID            string
	Time          time.Time
	Kind          Kind
	Count         uint32
	Address       geometry.SDRAMAddress
	SystemAddress uint64
	Syndrome      uint32
	BitPosition   uint32
	Data          uint64
	ECC           uint32
	Partial       bool
}

func (r *Report) String() string {
	var sb strings.Builder

	fmt.Fprintf(&sb, "%s x%d", r.Kind, r.Count)

	switch r.Kind {
	case DFIAlert:
		sb.WriteString(": DFI CRC/Parity error detected on dfi_alert_n")
	case Corrected:
		fmt.Fprintf(&sb, " at 0x%x: %s Bit %d Data 0x%08x:0x%02x",
			r.SystemAddress, r.Address, r.BitPosition, r.Data, r.ECC)
	default:
		fmt.Fprintf(&sb, " at 0x%x: %s Data 0x%08x:0x%02x",
			r.SystemAddress, r.Address, r.Data, r.ECC)
	}

	if r.Partial {
		sb.WriteString(" (partial)")
	}

	return sb.String()
}

// BitPosition returns the DQ bus bit a corrected-error syndrome points at,
// counting data bits first and then the ECC check bits.
func BitPosition(syndrome uint32, w geometry.DQWidth) uint32 {
	dataBits := w.Bits()

	switch {
	case syndrome == 0:
		// ecc[0]
		return dataBits
	case syndrome&(syndrome-1) == 0:
		// ecc[1:x]
		return dataBits + log2(syndrome) + 1
	default:
		// data[0:y]
		return syndrome - log2(syndrome) - 2
	}
}

func log2(v uint32) uint32 {
	return uint32(bits.Len32(v) - 1)
}
