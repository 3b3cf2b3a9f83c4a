package main

import (
	"io"

	"github.com/sarchlab/edac/regs"
)

type mmioSpace interface {
	regs.Space
	io.Closer
}

func openMMIO(devMem string, base uint64) (mmioSpace, error) {
	m, err := regs.OpenMMIO(devMem, base, regs.WindowSize)
	if err != nil {
		return nil, err
	}

	return m, nil
}
