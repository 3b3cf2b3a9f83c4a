package geometry

import (
	"errors"
	"fmt"

	"github.com/sarchlab/edac/regs"
)

// ErrGeometry reports an address geometry that cannot be trusted. Builds
// that hit it continue with a safe fallback.
var ErrGeometry = errors.New("geometry: unusable address geometry")

// A Region is one system address window. Offset is what the window is
// shifted down by to land in the contiguous application space.
type Region struct {
	Base   uint64
	Size   uint64
	Offset uint64
}

// A RegionTable lists the active system address regions in ascending base
// order. With no regions, system and application addresses are the same.
type RegionTable struct {
	Regions    [regs.NumSAR]Region
	NumRegions int
	MinSize    uint64
}

// NewRegionTable decodes the SARBASEn/SARSIZEn register pairs, given as
// base0, size0, base1, size1 and so on. Region bases must strictly increase;
// the first region breaking that rule and every region after it are
// ignored. A zero base is only meaningful for the first region, and only when
// another region follows it.
//
// When minSize is zero but the registers describe regions, the mapping is
// discarded and ErrGeometry is returned along with the identity table.
func NewRegionTable(sar [2 * regs.NumSAR]uint32, minSize uint64) (RegionTable, error) {
	t := RegionTable{MinSize: minSize}

	if minSize == 0 {
		for i := 0; i < regs.NumSAR; i++ {
			if sar[2*i] != 0 {
				return t, fmt.Errorf(
					"%w: no block size specified, discarding SAR mapping",
					ErrGeometry)
			}
		}

		return t, nil
	}

	var compacted uint64

	for i := 0; i < regs.NumSAR; i++ {
		base := uint64(sar[2*i]) * minSize
		if i > 0 && base <= t.Regions[i-1].Base {
			break
		}

		size := (uint64(sar[2*i+1]) + 1) * minSize
		t.Regions[i] = Region{Base: base, Size: size, Offset: base - compacted}
		compacted += size

		if base != 0 {
			t.NumRegions = i + 1
		}
	}

	for i := t.NumRegions; i < regs.NumSAR; i++ {
		t.Regions[i] = Region{}
	}

	return t, nil
}

// Active returns the active regions.
func (t RegionTable) Active() []Region {
	return t.Regions[:t.NumRegions]
}

// AppSize returns the size of the application space the regions cover.
func (t RegionTable) AppSize() uint64 {
	var size uint64
	for _, r := range t.Active() {
		size += r.Size
	}

	return size
}
