package geometry

import (
	"fmt"
	"log"

	"github.com/sarchlab/edac/regs"
)

// Geometry is everything learned about the controller address layout. It
// is immutable after Build and safe for concurrent reads.
type Geometry struct {
	Info     Info
	Platform Platform
	Mapping  MappingTable
	Regions  RegionTable

	translator *Translator
}

// Build reads the address map and system address region registers and
// decodes them for a controller described by info. A region table that
// cannot be trusted is logged and replaced by the identity mapping.
func Build(
	space regs.Space,
	info Info,
	p Platform,
	logger *log.Logger,
) (*Geometry, error) {
	g := &Geometry{Info: info, Platform: p}

	sar, err := regs.ReadBlock(space, regs.SARBASE0, 2*regs.NumSAR)
	if err != nil {
		return nil, fmt.Errorf("geometry: SAR: %w", err)
	}

	g.Regions, err = NewRegionTable([2 * regs.NumSAR]uint32(sar), p.SARBlockSize)
	if err != nil {
		logger.Printf("warning: %v", err)
	}

	addrmap, err := regs.ReadBlock(space, regs.ADDRMAP0, regs.NumAddrMap)
	if err != nil {
		return nil, fmt.Errorf("geometry: ADDRMAP: %w", err)
	}

	g.Mapping = NewMappingTable([regs.NumAddrMap]uint32(addrmap), info)
	g.translator = NewTranslator(g.Mapping, g.Regions, info.DQWidth)

	return g, nil
}

// Translator returns the address translator over the geometry tables.
func (g *Geometry) Translator() *Translator {
	return g.translator
}

// Capacity returns the addressable memory size in bytes.
func (g *Geometry) Capacity() uint64 {
	return Capacity(g.Mapping, g.Info.DQWidth)
}

// Grain returns the width in bytes of the SDRAM word ECC is computed over.
func (g *Geometry) Grain() uint32 {
	if g.Info.DQMode > DQMode(g.Info.DQWidth) {
		return 1
	}

	return 1 << (uint8(g.Info.DQWidth) - uint8(g.Info.DQMode))
}
