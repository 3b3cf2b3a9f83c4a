// Package faultlog keeps a persistent log of fault reports in a SQLite
// database.
package faultlog

import (
	"time"

	"github.com/sarchlab/edac/fault"
	"github.com/sarchlab/edac/geometry"
)

// TableName is the table fault entries are stored in.
const TableName = "faults"

// An Entry is the flat form of a fault report as stored in the database.
// SQLite integers are signed 64-bit, so the unsigned report fields are
// stored as their bit patterns.
type Entry struct {
	ID            string
	Time          int64
	Kind          string
	Count         int64
	Rank          int64
	BankGroup     int64
	Bank          int64
	Row           int64
	Col           int64
	SystemAddress int64
	Syndrome      int64
	BitPosition   int64
	Data          int64
	ECC           int64
	Partial       bool
}

// EntryFromReport flattens a report.
func EntryFromReport(r *fault.Report) Entry {
	return Entry{
		ID:            r.ID,
		Time:          r.Time.UnixNano(),
		Kind:          r.Kind.String(),
		Count:         int64(r.Count),
		Rank:          int64(r.Address.Rank),
		BankGroup:     int64(r.Address.BankGroup),
		Bank:          int64(r.Address.Bank),
		Row:           int64(r.Address.Row),
		Col:           int64(r.Address.Col),
		SystemAddress: int64(r.SystemAddress),
		Syndrome:      int64(r.Syndrome),
		BitPosition:   int64(r.BitPosition),
		Data:          int64(r.Data),
		ECC:           int64(r.ECC),
		Partial:       r.Partial,
	}
}

// Report rebuilds the fault report.
func (e Entry) Report() (*fault.Report, error) {
	kind, err := fault.ParseKind(e.Kind)
	if err != nil {
		return nil, err
	}

	return &fault.Report{
		ID:    e.ID,
		Time:  time.Unix(0, e.Time),
		Kind:  kind,
		Count: uint32(e.Count),
		Address: geometry.SDRAMAddress{
			Rank:      uint8(e.Rank),
			BankGroup: uint8(e.BankGroup),
			Bank:      uint8(e.Bank),
			Row:       uint32(e.Row),
			Col:       uint16(e.Col),
		},
		SystemAddress: uint64(e.SystemAddress),
		Syndrome:      uint32(e.Syndrome),
		BitPosition:   uint32(e.BitPosition),
		Data:          uint64(e.Data),
		ECC:           uint32(e.ECC),
		Partial:       e.Partial,
	}, nil
}

func (e *Entry) scanTargets() []any {
	return []any{
		&e.ID, &e.Time, &e.Kind, &e.Count,
		&e.Rank, &e.BankGroup, &e.Bank, &e.Row, &e.Col,
		&e.SystemAddress, &e.Syndrome, &e.BitPosition,
		&e.Data, &e.ECC, &e.Partial,
	}
}
