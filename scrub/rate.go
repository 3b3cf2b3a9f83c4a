// Package scrub programs the DW uMCTL2 background scrubber.
//
// The scrubber issues one HIF burst read, then waits SBRCTL.scrub_interval
// steps of 512 core clocks, and so on:
//
//	|-HIF-burst-read-|-------delay-------|-HIF-burst-read-|------- etc
//
// which gives the scrub bandwidth
//
//	Bw[Sbr] = Bw[RAM] / (1 + F * interval)
//
// with F = 2 * 512 * Fr / (Bl * 2^mode), Fr the HIF/SDRAM clock ratio, Bl
// the HIF burst length and mode the DQ bus mode.
package scrub

import (
	"math"

	"github.com/sarchlab/edac/geometry"
	"github.com/sarchlab/edac/regs"
	"github.com/sarchlab/edac/timing"
)

// Interval bounds, in units of IntervalStep core clocks.
const (
	IntervalStep = 512
	IntervalMin  = 0
	IntervalSafe = 1
)

// IntervalMax is the largest interval SBRCTL can hold.
var IntervalMax = regs.SBRCTLInterval.Max()

// BandwidthUnknown is reported when the scrubber runs back to back and no
// clock rate is available to tell how fast that is.
const BandwidthUnknown uint64 = math.MaxInt32

// Params are the controller parameters the scrub rate depends on.
type Params struct {
	DQWidth   geometry.DQWidth
	DQMode    geometry.DQMode
	HIFBurst  geometry.BurstLength
	FreqRatio geometry.FreqRatio
}

// ParamsFrom takes the scrub parameters from the controller info.
func ParamsFrom(info geometry.Info) Params {
	return Params{
		DQWidth:   info.DQWidth,
		DQMode:    info.DQMode,
		HIFBurst:  info.HIFBurst,
		FreqRatio: info.FreqRatio,
	}
}

// RAMBandwidth returns the theoretical SDRAM bandwidth in bytes per second
// for the given core clock.
func (p Params) RAMBandwidth(core timing.FreqInHz) uint64 {
	shift := uint(0)
	if p.DQMode <= geometry.DQMode(p.DQWidth) {
		shift = uint(p.DQWidth) - uint(p.DQMode)
	}

	return (2 << shift) * uint64(core) * uint64(p.FreqRatio)
}

func (p Params) factor() uint64 {
	den := uint64(p.HIFBurst) << p.DQMode
	if den == 0 {
		den = 1
	}

	f := 2 * IntervalStep * uint64(p.FreqRatio) / den
	if f == 0 {
		return 1
	}

	return f
}

// Bandwidth returns the scrub bandwidth an interval gives.
func (p Params) Bandwidth(core timing.FreqInHz, interval uint32) uint64 {
	return p.RAMBandwidth(core) / (1 + p.factor()*uint64(interval))
}

// Interval returns the interval that gives at least the requested
// bandwidth, clamped to IntervalMax. The bandwidth must not be zero.
func (p Params) Interval(core timing.FreqInHz, bw uint64) uint32 {
	ram := p.RAMBandwidth(core)
	if bw >= ram {
		return IntervalMin
	}

	// Two divisions keep factor*bw from overflowing.
	i := (ram - bw) / bw / p.factor()
	if i > uint64(IntervalMax) {
		return IntervalMax
	}

	return uint32(i)
}

// Setting is the scrubber state as programmed in SBRCTL.
type Setting struct {
	Interval  uint32
	Bandwidth uint64
	Enabled   bool
}
