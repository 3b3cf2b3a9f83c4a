package main

import (
	"fmt"
	"io"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/sarchlab/edac/scrub"
)

func newScrubCmd(cfg *config) *cobra.Command {
	scrubCmd := &cobra.Command{
		Use:   "scrub",
		Short: "Read or set the background scrub rate",
	}

	scrubCmd.AddCommand(
		&cobra.Command{
			Use:   "get",
			Short: "Print the scrubber state",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				return withSession(cfg, false, func(s *session) error {
					st, err := s.controller.ScrubSetting()
					if err != nil {
						return err
					}

					printSetting(cmd.OutOrStdout(), st)

					return nil
				})
			},
		},
		&cobra.Command{
			Use:   "set <bytes-per-second>",
			Short: "Set the scrub bandwidth; 0 turns the scrubber off",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				bw, err := strconv.ParseUint(args[0], 0, 64)
				if err != nil {
					return fmt.Errorf("bandwidth %q: %w", args[0], err)
				}

				return withSession(cfg, true, func(s *session) error {
					got, err := s.controller.SetScrubRate(bw)
					if err != nil {
						return err
					}

					if got == scrub.BandwidthUnknown {
						fmt.Fprintln(cmd.OutOrStdout(),
							"Scrub rate: back-to-back")
						return nil
					}

					fmt.Fprintf(cmd.OutOrStdout(), "Scrub rate: %d B/s\n", got)

					return nil
				})
			},
		},
	)

	return scrubCmd
}

func printSetting(w io.Writer, st scrub.Setting) {
	if !st.Enabled {
		fmt.Fprintf(w, "Scrubber: off (interval %d)\n", st.Interval)
		return
	}

	fmt.Fprintf(w, "Scrubber: on, interval %d, %d B/s\n",
		st.Interval, st.Bandwidth)
}
