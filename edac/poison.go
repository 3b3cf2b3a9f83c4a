package edac

import (
	"errors"
	"fmt"
	"strings"

	"github.com/sarchlab/edac/geometry"
	"github.com/sarchlab/edac/regs"
)

// ErrPoisonMode is returned for an unknown poison mode name.
var ErrPoisonMode = errors.New("edac: unknown poison mode")

// PoisonMode selects what kind of fault the controller plants at the
// injection address on the next write there.
type PoisonMode int

// Poison modes.
const (
	PoisonOff PoisonMode = iota
	PoisonCE
	PoisonUE
)

func (m PoisonMode) String() string {
	switch m {
	case PoisonCE:
		return "CE"
	case PoisonUE:
		return "UE"
	}

	return "Off"
}

// ParsePoisonMode accepts "CE", "UE" and "Off" in any case.
func ParsePoisonMode(s string) (PoisonMode, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "CE":
		return PoisonCE, nil
	case "UE":
		return PoisonUE, nil
	case "OFF":
		return PoisonOff, nil
	}

	return PoisonOff, fmt.Errorf("%w: %q", ErrPoisonMode, s)
}

// InjectFaultAddress sets the system address data poisoning applies to.
func (c *Controller) InjectFaultAddress(sys uint64) error {
	a := c.geometry.Translator().SystemToSDRAM(sys)

	p0 := regs.ECCPOISON0Rank.Prep(uint32(a.Rank)) |
		regs.ECCPOISON0Col.Prep(uint32(a.Col))
	p1 := regs.ECCPOISON1BankGroup.Prep(uint32(a.BankGroup)) |
		regs.ECCPOISON1Bank.Prep(uint32(a.Bank)) |
		regs.ECCPOISON1Row.Prep(a.Row)

	c.lock.Lock()
	defer c.lock.Unlock()

	if err := c.space.Write32(regs.ECCPOISON0, p0); err != nil {
		return fmt.Errorf("edac: poison address: %w", err)
	}

	if err := c.space.Write32(regs.ECCPOISON1, p1); err != nil {
		return fmt.Errorf("edac: poison address: %w", err)
	}

	return nil
}

// InjectedFaultAddress returns the poison address, both as the SDRAM
// coordinates held in the registers and as a system address.
func (c *Controller) InjectedFaultAddress() (uint64, geometry.SDRAMAddress, error) {
	p, err := regs.ReadBlock(c.space, regs.ECCPOISON0, 2)
	if err != nil {
		return 0, geometry.SDRAMAddress{}, fmt.Errorf("edac: poison address: %w", err)
	}

	a := geometry.SDRAMAddress{
		Rank:      uint8(regs.ECCPOISON0Rank.Get(p[0])),
		Col:       uint16(regs.ECCPOISON0Col.Get(p[0])),
		BankGroup: uint8(regs.ECCPOISON1BankGroup.Get(p[1])),
		Bank:      uint8(regs.ECCPOISON1Bank.Get(p[1])),
		Row:       regs.ECCPOISON1Row.Get(p[1]),
	}

	return c.geometry.Translator().SDRAMToSystem(a), a, nil
}

// SetPoisonMode arms or disarms data poisoning. ECCCFG1 is quasi-dynamic,
// so it is written with SWCTL cleared, and SWCTL is set again even when the
// update fails.
func (c *Controller) SetPoisonMode(m PoisonMode) error {
	c.lock.Lock()
	defer c.lock.Unlock()

	if err := c.space.Write32(regs.SWCTL, 0); err != nil {
		return fmt.Errorf("edac: poison mode: %w", err)
	}

	err := regs.Modify(c.space, regs.ECCCFG1, func(v uint32) uint32 {
		switch m {
		case PoisonCE:
			return v | regs.ECCCFG1PoisonBit | regs.ECCCFG1PoisonEnable
		case PoisonUE:
			return v&^regs.ECCCFG1PoisonBit | regs.ECCCFG1PoisonEnable
		}

		return v &^ regs.ECCCFG1PoisonEnable
	})

	if serr := c.space.Write32(regs.SWCTL, 1); serr != nil {
		err = errors.Join(err, serr)
	}

	if err != nil {
		return fmt.Errorf("edac: poison mode: %w", err)
	}

	return nil
}

// PoisonMode returns the armed poison mode.
func (c *Controller) PoisonMode() (PoisonMode, error) {
	v, err := c.space.Read32(regs.ECCCFG1)
	if err != nil {
		return PoisonOff, fmt.Errorf("edac: poison mode: %w", err)
	}

	switch {
	case v&regs.ECCCFG1PoisonEnable == 0:
		return PoisonOff, nil
	case v&regs.ECCCFG1PoisonBit != 0:
		return PoisonCE, nil
	}

	return PoisonUE, nil
}
