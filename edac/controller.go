// Package edac assembles a DW uMCTL2 ECC controller handle out of the
// geometry, scrub and fault packages.
package edac

import (
	"errors"
	"fmt"
	"log"
	"sync"

	"github.com/sarchlab/edac/fault"
	"github.com/sarchlab/edac/geometry"
	"github.com/sarchlab/edac/hooking"
	"github.com/sarchlab/edac/regs"
	"github.com/sarchlab/edac/scrub"
	"github.com/sarchlab/edac/timing"
)

var (
	// ErrConfig is returned when the controller cannot be handled.
	ErrConfig = errors.New("edac: unsupported controller configuration")

	// ErrNoScrubber is returned by scrub operations on controllers
	// synthesized without the background scrubber.
	ErrNoScrubber = errors.New("edac: no scrubber")
)

// HookPosFaultReported fires for every fault report. The item is the
// *fault.Report.
var HookPosFaultReported = &hooking.HookPos{Name: "Fault Reported"}

// A Controller is the handle over one DDR controller.
//
// The mutex guards every read-modify-write sequence on the register window:
// scrub rate updates, the scrub-done handler, fault status clearing and the
// poison configuration.
type Controller struct {
	*hooking.HookableBase

	lock     sync.Mutex
	irqLock  sync.Mutex // one fault servicing at a time
	space    regs.Space
	clock    timing.ClockSource
	geometry *geometry.Geometry
	scrubber *scrub.Controller
	decoder  *fault.Decoder
	sink     fault.Sink
	logger   *log.Logger
}

// AcceptHook registers a hook with the controller and its scrubber.
func (c *Controller) AcceptHook(hook hooking.Hook) {
	c.HookableBase.AcceptHook(hook)
	c.scrubber.AcceptHook(hook)
}

// Geometry returns the decoded address geometry.
func (c *Controller) Geometry() *geometry.Geometry {
	return c.geometry
}

// Info returns the detected controller configuration.
func (c *Controller) Info() geometry.Info {
	return c.geometry.Info
}

// Clock returns the core clock source.
func (c *Controller) Clock() timing.ClockSource {
	return c.clock
}

// Space returns the register window.
func (c *Controller) Space() regs.Space {
	return c.space
}

// Translate converts an address to another address space.
func (c *Controller) Translate(
	addr geometry.Address,
	to geometry.AddrSpace,
) (geometry.Address, error) {
	return c.geometry.Translator().Translate(addr, to)
}

// CapacityBytes returns the addressable memory size.
func (c *Controller) CapacityBytes() uint64 {
	return c.geometry.Capacity()
}

// SetScrubRate programs the scrub bandwidth in bytes per second and returns
// the bandwidth achieved. Zero turns the scrubber off.
func (c *Controller) SetScrubRate(bw uint64) (uint64, error) {
	if !c.hasScrubber() {
		return 0, ErrNoScrubber
	}

	return c.scrubber.SetRate(bw)
}

// ScrubRate returns the current scrub bandwidth.
func (c *Controller) ScrubRate() (uint64, error) {
	if !c.hasScrubber() {
		return 0, ErrNoScrubber
	}

	return c.scrubber.Rate()
}

// ScrubSetting returns the live scrubber state.
func (c *Controller) ScrubSetting() (scrub.Setting, error) {
	if !c.hasScrubber() {
		return scrub.Setting{}, ErrNoScrubber
	}

	return c.scrubber.Setting()
}

func (c *Controller) hasScrubber() bool {
	return c.geometry.Info.Caps.Has(geometry.CapScrubber)
}

// DecodeFault checks for one kind of fault and delivers the report, if any,
// to the sinks and hooks.
func (c *Controller) DecodeFault(kind fault.Kind) (*fault.Report, error) {
	c.irqLock.Lock()
	defer c.irqLock.Unlock()

	r, err := c.decoder.Decode(kind)
	if r != nil {
		c.deliver(r)
	}

	return r, err
}

// HandleInterrupt services the shared controller interrupt: every pending
// fault kind in turn and then, with a scrubber, the scrub-done event. All the
// reports found are delivered and returned. Concurrent calls are serialized
// so that a pending fault is reported once.
func (c *Controller) HandleInterrupt() ([]*fault.Report, error) {
	c.irqLock.Lock()
	defer c.irqLock.Unlock()

	reports, err := c.decoder.Dispatch()
	for _, r := range reports {
		c.deliver(r)
	}

	if c.hasScrubber() {
		if _, serr := c.scrubber.HandleDone(); serr != nil {
			err = errors.Join(err, serr)
		}
	}

	return reports, err
}

func (c *Controller) deliver(r *fault.Report) {
	c.sink.Report(r)

	c.InvokeHook(hooking.HookCtx{
		Domain: c,
		Pos:    HookPosFaultReported,
		Item:   r,
	})
}

// EnableInterrupts unmasks the ECC and DFI alert interrupts. On ZynqMP only
// the ECC interrupts of the QoS block are unmasked.
func (c *Controller) EnableInterrupts() error {
	if c.geometry.Info.Caps.Has(geometry.CapZynqMP) {
		return c.writeQoS(regs.QOSIRQEN)
	}

	return c.writeIRQControl(
		regs.ECCCLREnCorrectedIRQ|regs.ECCCLREnUncorrectedIRQ,
		regs.CRCPARCTL0EnAlertIRQ,
	)
}

// DisableInterrupts masks what EnableInterrupts unmasked.
func (c *Controller) DisableInterrupts() error {
	if c.geometry.Info.Caps.Has(geometry.CapZynqMP) {
		return c.writeQoS(regs.QOSIRQDB)
	}

	return c.writeIRQControl(0, 0)
}

func (c *Controller) writeQoS(offset uint32) error {
	err := c.space.Write32(offset, regs.QOSCorrected|regs.QOSUncorrected)
	if err != nil {
		return fmt.Errorf("edac: QoS interrupt control: %w", err)
	}

	return nil
}

func (c *Controller) writeIRQControl(ecc, dfi uint32) error {
	c.lock.Lock()
	defer c.lock.Unlock()

	if err := c.space.Write32(regs.ECCCLR, ecc); err != nil {
		return fmt.Errorf("edac: ECC interrupt control: %w", err)
	}

	if err := c.space.Write32(regs.CRCPARCTL0, dfi); err != nil {
		return fmt.Errorf("edac: DFI interrupt control: %w", err)
	}

	return nil
}
