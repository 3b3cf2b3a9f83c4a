package main

import (
	"errors"
	"fmt"
	"io"
	"log"
	"os"

	"github.com/sarchlab/edac/edac"
	"github.com/sarchlab/edac/fault"
	"github.com/sarchlab/edac/faultlog"
	"github.com/sarchlab/edac/geometry"
	"github.com/sarchlab/edac/hooking"
	"github.com/sarchlab/edac/regs"
	"github.com/sarchlab/edac/timing"
)

var errNoRegisters = errors.New(
	"no registers: set --regs or --devmem-base")

// A session is one open controller and whatever backs it.
type session struct {
	cfg        *config
	snapshot   *regs.Snapshot
	file       *regs.File
	mmio       io.Closer
	controller *edac.Controller
	recorder   *faultlog.Recorder
}

func openSpace(cfg *config, s *session) (regs.Space, error) {
	switch {
	case cfg.regsPath != "":
		snap, err := regs.LoadSnapshot(cfg.regsPath)
		if err != nil {
			return nil, err
		}

		s.snapshot = snap
		s.file = snap.File()

		return s.file, nil
	case cfg.devMemBase != 0:
		m, err := openMMIO(cfg.devMem, cfg.devMemBase)
		if err != nil {
			return nil, err
		}

		s.mmio = m

		return m, nil
	}

	return nil, errNoRegisters
}

func (cfg *config) clock(snap *regs.Snapshot) (timing.ClockSource, error) {
	if cfg.coreClock != "" {
		f, err := timing.ParseFreq(cfg.coreClock)
		if err != nil {
			return nil, err
		}

		return timing.FixedClock(f), nil
	}

	if snap != nil && snap.CoreClockHz != 0 {
		return timing.FixedClock(snap.CoreClockHz), nil
	}

	return timing.NoClock{}, nil
}

func (cfg *config) lookupPlatform(snap *regs.Snapshot) (geometry.Platform, error) {
	name := cfg.platform
	if name == "" && snap != nil {
		name = snap.Platform
	}

	return geometry.LookupPlatform(name)
}

// openSession builds the controller. Extra sinks get every fault report.
func openSession(cfg *config, sinks ...fault.Sink) (*session, error) {
	s := &session{cfg: cfg}

	space, err := openSpace(cfg, s)
	if err != nil {
		return nil, err
	}

	clock, err := cfg.clock(s.snapshot)
	if err != nil {
		s.close()
		return nil, err
	}

	platform, err := cfg.lookupPlatform(s.snapshot)
	if err != nil {
		s.close()
		return nil, err
	}

	logger := log.New(os.Stderr, "edac: ", log.LstdFlags)

	b := edac.MakeBuilder().
		WithRegisterSpace(space).
		WithClock(clock).
		WithPlatform(platform).
		WithLogger(logger)

	if cfg.faultDB != "" {
		s.recorder, err = faultlog.New(cfg.faultDB)
		if err != nil {
			s.close()
			return nil, err
		}

		b = b.WithSink(s.recorder)
	}

	for _, sink := range sinks {
		b = b.WithSink(sink)
	}

	if cfg.verbose {
		b = b.WithHook(hooking.NewLogHook(logger))
	}

	s.controller, err = b.Build()
	if err != nil {
		s.close()
		return nil, err
	}

	return s, nil
}

// save writes the register file back to the snapshot it came from.
func (s *session) save() error {
	if s.snapshot == nil {
		return nil
	}

	s.snapshot.Capture(s.file)

	if err := s.snapshot.Save(s.cfg.regsPath); err != nil {
		return fmt.Errorf("saving %s: %w", s.cfg.regsPath, err)
	}

	return nil
}

func (s *session) close() error {
	var errs []error

	if s.recorder != nil {
		errs = append(errs, s.recorder.Close())
	}

	if s.mmio != nil {
		errs = append(errs, s.mmio.Close())
	}

	return errors.Join(errs...)
}

// withSession runs fn on an open session and closes it afterwards. With
// write set, the snapshot is saved when fn succeeds.
func withSession(cfg *config, write bool, fn func(s *session) error) error {
	s, err := openSession(cfg)
	if err != nil {
		return err
	}

	err = fn(s)
	if err == nil && write {
		err = s.save()
	}

	return errors.Join(err, s.close())
}
