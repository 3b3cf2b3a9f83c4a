package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/sarchlab/edac/geometry"
)

func newInfoCmd(cfg *config) *cobra.Command {
	return &cobra.Command{
		Use:   "info",
		Short: "Print the detected controller configuration",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withSession(cfg, false, func(s *session) error {
				g := s.controller.Geometry()
				fmt.Fprintf(cmd.OutOrStdout(), "Platform: %s\n", g.Platform.Name)

				return geometry.WriteInfo(cmd.OutOrStdout(), g.Info,
					s.controller.Clock())
			})
		},
	}
}

func newRegionsCmd(cfg *config) *cobra.Command {
	return &cobra.Command{
		Use:   "regions",
		Short: "Print the system address regions",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withSession(cfg, false, func(s *session) error {
				return geometry.WriteRegions(cmd.OutOrStdout(),
					s.controller.Geometry().Regions)
			})
		},
	}
}

func newHIFMapCmd(cfg *config) *cobra.Command {
	return &cobra.Command{
		Use:   "hifmap",
		Short: "Print which SDRAM coordinate bit every HIF bit carries",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withSession(cfg, false, func(s *session) error {
				return geometry.WriteHIFMap(cmd.OutOrStdout(),
					s.controller.Geometry().Mapping)
			})
		},
	}
}

func newCapacityCmd(cfg *config) *cobra.Command {
	return &cobra.Command{
		Use:   "capacity",
		Short: "Print the addressable memory size",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withSession(cfg, false, func(s *session) error {
				n := s.controller.CapacityBytes()
				fmt.Fprintf(cmd.OutOrStdout(), "%d bytes (%d MiB)\n", n, n>>20)

				return nil
			})
		},
	}
}

func newTranslateCmd(cfg *config) *cobra.Command {
	return &cobra.Command{
		Use:   "translate <from> <to> <addr>",
		Short: "Convert an address between the sys, app, hif and sdram spaces",
		Long: `Convert an address between address spaces. Linear addresses ` +
			`accept 0x and 0b prefixes; SDRAM addresses are written ` +
			`row:col:bank[:bankgroup[:rank]].`,
		Args: cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			from, err := geometry.ParseAddrSpace(args[0])
			if err != nil {
				return err
			}

			to, err := geometry.ParseAddrSpace(args[1])
			if err != nil {
				return err
			}

			addr, err := geometry.ParseAddress(from, args[2])
			if err != nil {
				return err
			}

			return withSession(cfg, false, func(s *session) error {
				out, err := s.controller.Translate(addr, to)
				if err != nil {
					return err
				}

				fmt.Fprintf(cmd.OutOrStdout(), "%s -> %s\n", addr, out)

				return nil
			})
		},
	}
}
