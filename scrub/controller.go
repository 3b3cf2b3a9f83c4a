package scrub

import (
	"fmt"
	"log"
	"sync"

	"github.com/sarchlab/edac/hooking"
	"github.com/sarchlab/edac/regs"
	"github.com/sarchlab/edac/timing"
)

// HookPosWarning marks scrubber settings that hurt the system. The hook item
// is the Setting and the detail a message.
var HookPosWarning = &hooking.HookPos{Name: "Scrub Warning"}

// A Controller sets and reads the scrub rate.
//
// SBRCTL.scrub_en must be written on its own, apart from the other SBRCTL
// fields, so every update is a sequence of writes. The lock passed in
// serializes those sequences with the scrub-done handler and with anything
// else sharing the register window.
type Controller struct {
	*hooking.HookableBase

	space  regs.Space
	lock   sync.Locker
	params Params
	clock  timing.ClockSource
	logger *log.Logger
}

// NewController creates a scrub rate controller.
func NewController(
	space regs.Space,
	lock sync.Locker,
	params Params,
	clock timing.ClockSource,
	logger *log.Logger,
) *Controller {
	if clock == nil {
		clock = timing.NoClock{}
	}

	return &Controller{
		HookableBase: hooking.NewHookableBase(),
		space:        space,
		lock:         lock,
		params:       params,
		clock:        clock,
		logger:       logger,
	}
}

// Params returns the parameters the rate is computed from.
func (c *Controller) Params() Params {
	return c.params
}

func (c *Controller) coreClock() (timing.FreqInHz, bool) {
	core, ok := c.clock.CoreClock()
	if !ok || c.params.RAMBandwidth(core) == 0 {
		return 0, false
	}

	return core, true
}

// SetRate programs the scrubber for a bandwidth in bytes per second and
// returns the bandwidth actually achieved, which the coarse interval makes
// differ from the request. Zero disables the scrubber.
//
// Without a core clock the request is a pseudo bandwidth: the interval is
// set to IntervalMax minus the request, and the request is returned, or
// BandwidthUnknown if the interval ends up zero.
func (c *Controller) SetRate(bw uint64) (uint64, error) {
	if bw == 0 {
		return 0, c.disable()
	}

	core, known := c.coreClock()

	var interval uint32

	if known {
		hi := c.params.Bandwidth(core, IntervalMin)
		lo := c.params.Bandwidth(core, IntervalMax)
		bw = min(max(bw, lo), hi)
		interval = c.params.Interval(core, bw)
	} else {
		bw = min(bw, uint64(IntervalMax))
		interval = IntervalMax - uint32(bw)
	}

	if err := c.program(interval); err != nil {
		return 0, err
	}

	if interval == 0 {
		c.warn(Setting{Enabled: true}, "back-to-back scrubbing enabled")
	}

	return c.bandwidth(core, known, interval), nil
}

func (c *Controller) bandwidth(
	core timing.FreqInHz,
	known bool,
	interval uint32,
) uint64 {
	if known {
		return c.params.Bandwidth(core, interval)
	}

	if interval == 0 {
		return BandwidthUnknown
	}

	return uint64(IntervalMax - interval)
}

func (c *Controller) disable() error {
	c.lock.Lock()
	defer c.lock.Unlock()

	err := regs.Modify(c.space, regs.SBRCTL, func(v uint32) uint32 {
		return v &^ regs.SBRCTLEnable
	})
	if err != nil {
		return fmt.Errorf("scrub: disable: %w", err)
	}

	return nil
}

func (c *Controller) program(interval uint32) error {
	c.lock.Lock()
	defer c.lock.Unlock()

	v := regs.SBRCTLInterval.Prep(interval)

	if err := c.space.Write32(regs.SBRCTL, v); err != nil {
		return fmt.Errorf("scrub: set interval: %w", err)
	}

	if err := c.space.Write32(regs.SBRCTL, v|regs.SBRCTLEnable); err != nil {
		return fmt.Errorf("scrub: enable: %w", err)
	}

	return nil
}

// Setting reads the live scrubber state.
func (c *Controller) Setting() (Setting, error) {
	v, err := c.space.Read32(regs.SBRCTL)
	if err != nil {
		return Setting{}, fmt.Errorf("scrub: read: %w", err)
	}

	s := Setting{
		Interval: regs.SBRCTLInterval.Get(v),
		Enabled:  v&regs.SBRCTLEnable != 0,
	}

	if s.Enabled {
		core, known := c.coreClock()
		s.Bandwidth = c.bandwidth(core, known, s.Interval)
	}

	return s, nil
}

// Rate returns the current scrub bandwidth, zero if the scrubber is off.
func (c *Controller) Rate() (uint64, error) {
	s, err := c.Setting()
	if err != nil {
		return 0, err
	}

	return s.Bandwidth, nil
}

// HandleDone services the scrub-done interrupt. A finished pass means a
// one-shot back-to-back scrub is over, so the interval goes back to
// IntervalSafe and the enable bit is restored as it was. It reports whether
// the interrupt was the scrubber's.
func (c *Controller) HandleDone() (bool, error) {
	stat, err := c.space.Read32(regs.SBRSTAT)
	if err != nil {
		return false, fmt.Errorf("scrub: status: %w", err)
	}

	if stat&regs.SBRSTATDone == 0 {
		return false, nil
	}

	en, err := c.resetInterval()
	if err != nil {
		return true, err
	}

	c.warn(Setting{Interval: IntervalSafe, Enabled: en},
		"back-to-back scrubbing disabled")

	return true, nil
}

func (c *Controller) resetInterval() (bool, error) {
	c.lock.Lock()
	defer c.lock.Unlock()

	v, err := c.space.Read32(regs.SBRCTL)
	if err != nil {
		return false, fmt.Errorf("scrub: read: %w", err)
	}

	en := v & regs.SBRCTLEnable

	if err = c.space.Write32(regs.SBRCTL, v&^en); err != nil {
		return false, fmt.Errorf("scrub: disable: %w", err)
	}

	safe := regs.SBRCTLInterval.Prep(IntervalSafe)

	if err = c.space.Write32(regs.SBRCTL, safe); err != nil {
		return false, fmt.Errorf("scrub: set interval: %w", err)
	}

	if err = c.space.Write32(regs.SBRCTL, safe|en); err != nil {
		return false, fmt.Errorf("scrub: enable: %w", err)
	}

	return en != 0, nil
}

func (c *Controller) warn(s Setting, msg string) {
	c.logger.Printf("warning: %s", msg)

	c.InvokeHook(hooking.HookCtx{
		Domain: c,
		Pos:    HookPosWarning,
		Item:   s,
		Detail: msg,
	})
}
