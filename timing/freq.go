// Package timing describes the controller core clock.
package timing

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// FreqInHz is a clock frequency in hertz.
type FreqInHz uint64

// Frequency units.
const (
	Hz  FreqInHz = 1
	KHz FreqInHz = 1e3
	MHz FreqInHz = 1e6
	GHz FreqInHz = 1e9
)

// ErrZeroFrequency is returned where a frequency of zero makes no sense.
var ErrZeroFrequency = errors.New("timing: frequency must be non-zero")

// ErrBadFrequency is returned when a frequency string cannot be parsed.
var ErrBadFrequency = errors.New("timing: malformed frequency")

func (f FreqInHz) String() string {
	switch {
	case f != 0 && f%GHz == 0:
		return fmt.Sprintf("%dGHz", f/GHz)
	case f != 0 && f%MHz == 0:
		return fmt.Sprintf("%dMHz", f/MHz)
	case f != 0 && f%KHz == 0:
		return fmt.Sprintf("%dKHz", f/KHz)
	default:
		return fmt.Sprintf("%dHz", uint64(f))
	}
}

var units = []struct {
	suffix string
	unit   FreqInHz
}{
	{"ghz", GHz},
	{"mhz", MHz},
	{"khz", KHz},
	{"hz", Hz},
}

// ParseFreq reads frequencies such as "533MHz", "1GHz" or "400000000".
// Suffixes are case-insensitive.
func ParseFreq(s string) (FreqInHz, error) {
	str := strings.ToLower(strings.TrimSpace(s))
	unit := Hz

	for _, u := range units {
		if strings.HasSuffix(str, u.suffix) {
			str = strings.TrimSpace(strings.TrimSuffix(str, u.suffix))
			unit = u.unit

			break
		}
	}

	v, err := strconv.ParseUint(str, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrBadFrequency, s)
	}

	if v == 0 {
		return 0, ErrZeroFrequency
	}

	if v > math.MaxUint64/uint64(unit) {
		return 0, fmt.Errorf("%w: %q overflows", ErrBadFrequency, s)
	}

	return FreqInHz(v) * unit, nil
}
