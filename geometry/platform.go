package geometry

import (
	"errors"
	"fmt"
	"strings"
)

// ErrUnknownPlatform is returned when a platform name is not recognized.
var ErrUnknownPlatform = errors.New("geometry: unknown platform")

// A Platform carries the integration facts the controller registers do not
// expose.
type Platform struct {
	Name       string
	Compatible string

	// SARBlockSize is the system address region granularity. Zero means
	// the platform does not specify one.
	SARBlockSize uint64

	setup func(*Info)
}

func (p Platform) apply(info *Info) {
	if p.setup != nil {
		p.setup(info)
	}
}

// Known platforms.
var (
	Generic = Platform{
		Name:       "generic",
		Compatible: "snps,ddrc-3.80a",
	}

	ZynqMP = Platform{
		Name:       "zynqmp",
		Compatible: "xlnx,zynqmp-ddrc-2.40a",
		setup: func(info *Info) {
			info.Caps |= CapZynqMP
			info.DQWidth = DQ64
		},
	}

	BT1 = Platform{
		Name:         "bt1",
		Compatible:   "baikal,bt1-ddrc",
		SARBlockSize: 256 << 20,
		setup: func(info *Info) {
			info.DQWidth = DQ32
			info.HIFBurst = BL8
		},
	}
)

// Platforms lists the known platforms.
func Platforms() []Platform {
	return []Platform{Generic, ZynqMP, BT1}
}

// LookupPlatform finds a platform by name or compatible string. An empty
// name selects the generic platform.
func LookupPlatform(name string) (Platform, error) {
	if name == "" {
		return Generic, nil
	}

	for _, p := range Platforms() {
		if strings.EqualFold(p.Name, name) || p.Compatible == name {
			return p, nil
		}
	}

	return Platform{}, fmt.Errorf("%w: %q", ErrUnknownPlatform, name)
}
