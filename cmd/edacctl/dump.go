package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/sarchlab/edac/geometry"
	"github.com/sarchlab/edac/regs"
)

func newDumpCmd(cfg *config) *cobra.Command {
	var out string

	dumpCmd := &cobra.Command{
		Use:   "dump",
		Short: "Save the controller registers as a snapshot",
		Long: `Save the controller registers as a snapshot that --regs can ` +
			`work on later. Features found missing are recorded as ` +
			`read-only registers so that detection gives the same answer ` +
			`on the snapshot.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if out == "" {
				return errors.New("no output: set --out")
			}

			s := &session{cfg: cfg}

			space, err := openSpace(cfg, s)
			if err != nil {
				return err
			}
			defer s.close()

			platform, err := cfg.lookupPlatform(s.snapshot)
			if err != nil {
				return err
			}

			info, err := geometry.Detect(space, platform)
			if err != nil {
				return err
			}

			snap, err := regs.Dump(space, regs.ConfigOffsets())
			if err != nil {
				return err
			}

			snap.Platform = platform.Name

			clock, err := cfg.clock(s.snapshot)
			if err != nil {
				return err
			}

			if core, ok := clock.CoreClock(); ok {
				snap.CoreClockHz = uint64(core)
			}

			if info.DQWidth != geometry.DQ64 {
				snap.ReadOnly = append(snap.ReadOnly, regs.Hex32(regs.POISONPAT1))
			}

			if !info.Caps.Has(geometry.CapScrubber) {
				snap.ReadOnly = append(snap.ReadOnly, regs.Hex32(regs.SBRWDATA0))
			}

			if err := snap.Save(out); err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Saved %d registers to %s\n",
				len(snap.Registers), out)

			return nil
		},
	}

	dumpCmd.Flags().StringVarP(&out, "out", "o", "", "snapshot file to write")

	return dumpCmd
}
