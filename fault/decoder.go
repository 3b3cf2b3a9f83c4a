package fault

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/xid"

	"github.com/sarchlab/edac/geometry"
	"github.com/sarchlab/edac/regs"
)

// eccRegs are the registers one ECC fault kind is logged in.
type eccRegs struct {
	addr0, addr1      uint32
	syn0, syn1, syn2  uint32
	stat              regs.Field
	count             regs.Field
	clear             uint32
	qos               uint32
	decodeBitPosition bool
}

var (
	correctedRegs = eccRegs{
		addr0: regs.ECCCADDR0, addr1: regs.ECCCADDR1,
		syn0: regs.ECCCSYN0, syn1: regs.ECCCSYN1, syn2: regs.ECCCSYN2,
		stat:  regs.ECCSTATCorrected,
		count: regs.ECCERRCNTCorrected,
		clear: regs.ECCCLRCorrected | regs.ECCCLRCorrectedCount,
		qos:   regs.QOSCorrected,

		decodeBitPosition: true,
	}

	uncorrectedRegs = eccRegs{
		addr0: regs.ECCUADDR0, addr1: regs.ECCUADDR1,
		syn0: regs.ECCUSYN0, syn1: regs.ECCUSYN1, syn2: regs.ECCUSYN2,
		stat:  regs.ECCSTATUncorrected,
		count: regs.ECCERRCNTUncorrected,
		clear: regs.ECCCLRUncorrected | regs.ECCCLRUncorrectedCount,
		qos:   regs.QOSUncorrected,
	}
)

// A Decoder reads pending fault records, builds reports and clears the
// records. Status bits are always cleared once a fault is seen, even if the
// record could only be read in part, so that a fault that cannot be
// explained does not fire forever.
type Decoder struct {
	space      regs.Space
	lock       sync.Locker
	info       geometry.Info
	translator *geometry.Translator
	now        func() time.Time
}

// NewDecoder creates a decoder. The lock must be the one guarding the
// other read-modify-write sequences on the register window.
func NewDecoder(
	space regs.Space,
	lock sync.Locker,
	info geometry.Info,
	translator *geometry.Translator,
) *Decoder {
	return &Decoder{
		space:      space,
		lock:       lock,
		info:       info,
		translator: translator,
		now:        time.Now,
	}
}

// Decode checks for a pending fault of the given kind. It returns a nil
// report when there is none. When reading the record fails, the report
// comes back marked Partial together with the error.
func (d *Decoder) Decode(kind Kind) (*Report, error) {
	switch kind {
	case Corrected:
		return d.decodeECC(Corrected, correctedRegs)
	case Uncorrected:
		return d.decodeECC(Uncorrected, uncorrectedRegs)
	case DFIAlert:
		return d.decodeDFI()
	}

	return nil, fmt.Errorf("%w: %d", ErrKind, int(kind))
}

// Dispatch probes every fault kind in turn, corrected first, and returns all
// the reports found. Finding nothing is not an error.
func (d *Decoder) Dispatch() ([]*Report, error) {
	var (
		reports []*Report
		errs    []error
	)

	for _, k := range []Kind{Corrected, Uncorrected, DFIAlert} {
		r, err := d.Decode(k)
		if err != nil {
			errs = append(errs, err)
		}

		if r != nil {
			reports = append(reports, r)
		}
	}

	return reports, errors.Join(errs...)
}

func (d *Decoder) newReport(kind Kind) *Report {
	return &Report{
		ID:   xid.New().String(),
		Time: d.now(),
		Kind: kind,
	}
}

// pendingQoS reads the ZynqMP QoS interrupt status and returns the bit to
// acknowledge, or zero if the interrupt is not for this kind.
func (d *Decoder) pendingQoS(mask uint32) (uint32, error) {
	if !d.info.Caps.Has(geometry.CapZynqMP) {
		return 0, nil
	}

	v, err := d.space.Read32(regs.QOSIRQSTAT)
	if err != nil {
		return 0, err
	}

	return v & mask, nil
}

func (d *Decoder) decodeECC(kind Kind, r eccRegs) (*Report, error) {
	qos, err := d.pendingQoS(r.qos)
	if err != nil {
		return nil, fmt.Errorf("fault: %s: QoS status: %w", kind, err)
	}

	if d.info.Caps.Has(geometry.CapZynqMP) && qos == 0 {
		return nil, nil
	}

	stat, err := d.space.Read32(regs.ECCSTAT)
	if err != nil {
		return nil, fmt.Errorf("fault: %s: status: %w", kind, err)
	}

	if r.stat.Get(stat) == 0 {
		return nil, nil
	}

	rep := d.newReport(kind)
	rd := reader{space: d.space}

	if r.decodeBitPosition {
		rep.Syndrome = regs.ECCSTATBitNum.Get(stat)
		rep.BitPosition = BitPosition(rep.Syndrome, d.info.DQWidth)
	}

	rep.Count = r.count.Get(rd.read(regs.ECCERRCNT))

	a0 := rd.read(r.addr0)
	a1 := rd.read(r.addr1)
	rep.Address = geometry.SDRAMAddress{
		Rank:      uint8(regs.ECCADDR0Rank.Get(a0)),
		Row:       regs.ECCADDR0Row.Get(a0),
		BankGroup: uint8(regs.ECCADDR1BankGroup.Get(a1)),
		Bank:      uint8(regs.ECCADDR1Bank.Get(a1)),
		Col:       uint16(regs.ECCADDR1Col.Get(a1)),
	}

	rep.Data = uint64(rd.read(r.syn0))
	if d.info.DQWidth == geometry.DQ64 {
		rep.Data |= uint64(rd.read(r.syn1)) << 32
	}

	rep.ECC = rd.read(r.syn2)
	rep.SystemAddress = d.translator.SDRAMToSystem(rep.Address)
	rep.Partial = rd.err != nil

	clearErr := d.clear(regs.ECCCLR, r.clear)

	if qos != 0 {
		if err := d.space.Write32(regs.QOSIRQSTAT, qos); err != nil {
			clearErr = errors.Join(clearErr,
				fmt.Errorf("QoS acknowledge: %w", err))
		}
	}

	return rep, wrap(kind, rd.err, clearErr)
}

func (d *Decoder) decodeDFI() (*Report, error) {
	stat, err := d.space.Read32(regs.CRCPARSTAT)
	if err != nil {
		return nil, fmt.Errorf("fault: %s: status: %w", DFIAlert, err)
	}

	if stat&regs.CRCPARSTATAlert == 0 {
		return nil, nil
	}

	rep := d.newReport(DFIAlert)
	rep.Count = regs.CRCPARSTATAlertCount.Get(stat)

	clearErr := d.clear(regs.CRCPARCTL0,
		regs.CRCPARCTL0ClrAlert|regs.CRCPARCTL0ClrAlertCount)

	return rep, wrap(DFIAlert, nil, clearErr)
}

func (d *Decoder) clear(offset, bits uint32) error {
	d.lock.Lock()
	defer d.lock.Unlock()

	err := regs.Modify(d.space, offset, func(v uint32) uint32 {
		return v | bits
	})
	if err != nil {
		return fmt.Errorf("clear: %w", err)
	}

	return nil
}

func wrap(kind Kind, decodeErr, clearErr error) error {
	var errs []error

	if decodeErr != nil {
		errs = append(errs, fmt.Errorf("decode: %w", decodeErr))
	}

	if clearErr != nil {
		errs = append(errs, clearErr)
	}

	if len(errs) == 0 {
		return nil
	}

	return fmt.Errorf("fault: %s: %w", kind, errors.Join(errs...))
}

// reader reads registers until the first failure, after which every read
// returns zero.
type reader struct {
	space regs.Space
	err   error
}

func (r *reader) read(offset uint32) uint32 {
	if r.err != nil {
		return 0
	}

	v, err := r.space.Read32(offset)
	if err != nil {
		r.err = err
		return 0
	}

	return v
}
