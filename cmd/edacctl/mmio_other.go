//go:build !linux

package main

import (
	"errors"
	"io"

	"github.com/sarchlab/edac/regs"
)

type mmioSpace interface {
	regs.Space
	io.Closer
}

func openMMIO(string, uint64) (mmioSpace, error) {
	return nil, errors.New("register access through /dev/mem needs Linux")
}
