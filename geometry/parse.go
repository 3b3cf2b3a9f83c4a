package geometry

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// ErrAddress is returned for an address that cannot be parsed.
var ErrAddress = errors.New("geometry: malformed address")

// ParseAddress reads an address in the given space. SDRAM addresses are
// written row:col:bank with optional :bankgroup and :rank suffixes. Linear
// addresses take any base strconv recognizes by prefix.
func ParseAddress(space AddrSpace, s string) (Address, error) {
	if space < System || space > SDRAM {
		return Address{}, fmt.Errorf("%w: %d", ErrAddrSpace, int(space))
	}

	if space != SDRAM {
		v, err := strconv.ParseUint(strings.TrimSpace(s), 0, 64)
		if err != nil {
			return Address{}, fmt.Errorf("%w: %q", ErrAddress, s)
		}

		return Address{Space: space, Linear: v}, nil
	}

	parts := strings.Split(s, ":")
	if len(parts) < 3 || len(parts) > 5 {
		return Address{}, fmt.Errorf(
			"%w: %q, want row:col:bank[:bankgroup[:rank]]", ErrAddress, s)
	}

	sizes := []int{RowWidth, 16, 8, 8, 8}
	vals := make([]uint64, 5)

	for i, p := range parts {
		v, err := strconv.ParseUint(strings.TrimSpace(p), 0, sizes[i])
		if err != nil {
			return Address{}, fmt.Errorf("%w: %q", ErrAddress, s)
		}

		vals[i] = v
	}

	return Address{
		Space: SDRAM,
		SDRAM: SDRAMAddress{
			Row:       uint32(vals[0]),
			Col:       uint16(vals[1]),
			Bank:      uint8(vals[2]),
			BankGroup: uint8(vals[3]),
			Rank:      uint8(vals[4]),
		},
	}, nil
}
