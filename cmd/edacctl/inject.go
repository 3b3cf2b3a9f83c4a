package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/sarchlab/edac/edac"
)

func newInjectCmd(cfg *config) *cobra.Command {
	injectCmd := &cobra.Command{
		Use:   "inject",
		Short: "Read or set the data poisoning address",
	}

	injectCmd.AddCommand(
		&cobra.Command{
			Use:   "get",
			Short: "Print the poisoning address",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				return withSession(cfg, false, func(s *session) error {
					sys, a, err := s.controller.InjectedFaultAddress()
					if err != nil {
						return err
					}

					fmt.Fprintf(cmd.OutOrStdout(), "0x%016x: %s\n", sys, a)

					return nil
				})
			},
		},
		&cobra.Command{
			Use:   "set <system-address>",
			Short: "Set the system address to poison",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				sys, err := strconv.ParseUint(args[0], 0, 64)
				if err != nil {
					return fmt.Errorf("address %q: %w", args[0], err)
				}

				return withSession(cfg, true, func(s *session) error {
					return s.controller.InjectFaultAddress(sys)
				})
			},
		},
	)

	return injectCmd
}

func newPoisonCmd(cfg *config) *cobra.Command {
	poisonCmd := &cobra.Command{
		Use:   "poison",
		Short: "Read or set the data poisoning mode",
	}

	poisonCmd.AddCommand(
		&cobra.Command{
			Use:   "get",
			Short: "Print the poisoning mode",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				return withSession(cfg, false, func(s *session) error {
					m, err := s.controller.PoisonMode()
					if err != nil {
						return err
					}

					fmt.Fprintln(cmd.OutOrStdout(), m)

					return nil
				})
			},
		},
		&cobra.Command{
			Use:   "set <CE|UE|Off>",
			Short: "Arm or disarm data poisoning",
			Args:  cobra.ExactArgs(1),
			RunE: func(_ *cobra.Command, args []string) error {
				m, err := edac.ParsePoisonMode(args[0])
				if err != nil {
					return err
				}

				return withSession(cfg, true, func(s *session) error {
					return s.controller.SetPoisonMode(m)
				})
			},
		},
	)

	return poisonCmd
}
