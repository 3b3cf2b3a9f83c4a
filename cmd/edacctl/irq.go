package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newIRQCmd(cfg *config) *cobra.Command {
	irqCmd := &cobra.Command{
		Use:   "irq",
		Short: "Service the controller interrupt and print the faults found",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withSession(cfg, true, func(s *session) error {
				reports, err := s.controller.HandleInterrupt()
				for _, r := range reports {
					fmt.Fprintln(cmd.OutOrStdout(), r)
				}

				return err
			})
		},
	}

	irqCmd.AddCommand(
		&cobra.Command{
			Use:   "enable",
			Short: "Unmask the ECC and DFI alert interrupts",
			Args:  cobra.NoArgs,
			RunE: func(_ *cobra.Command, _ []string) error {
				return withSession(cfg, true, func(s *session) error {
					return s.controller.EnableInterrupts()
				})
			},
		},
		&cobra.Command{
			Use:   "disable",
			Short: "Mask the ECC and DFI alert interrupts",
			Args:  cobra.NoArgs,
			RunE: func(_ *cobra.Command, _ []string) error {
				return withSession(cfg, true, func(s *session) error {
					return s.controller.DisableInterrupts()
				})
			},
		},
	)

	return irqCmd
}
