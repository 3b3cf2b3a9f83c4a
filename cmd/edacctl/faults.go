package main

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/sarchlab/edac/fault"
	"github.com/sarchlab/edac/faultlog"
)

func newFaultsCmd(cfg *config) *cobra.Command {
	var (
		kinds string
		since time.Duration
		limit int
	)

	faultsCmd := &cobra.Command{
		Use:   "faults",
		Short: "List the faults in the fault log",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if cfg.faultDB == "" {
				return errors.New("no fault log: set --fault-db")
			}

			q := faultlog.Query{Limit: limit}

			if kinds != "" {
				for _, name := range strings.Split(kinds, ",") {
					k, err := fault.ParseKind(name)
					if err != nil {
						return err
					}

					q.Kinds = append(q.Kinds, k)
				}
			}

			if since > 0 {
				q.Since = time.Now().Add(-since)
			}

			reader, err := faultlog.NewReader(cfg.faultDB)
			if err != nil {
				return err
			}
			defer reader.Close()

			reports, err := reader.List(cmd.Context(), q)
			if err != nil {
				return err
			}

			for _, r := range reports {
				fmt.Fprintf(cmd.OutOrStdout(), "%s %s\n",
					r.Time.Format(time.RFC3339), r)
			}

			return nil
		},
	}

	faultsCmd.Flags().StringVar(&kinds, "kind", "",
		"comma separated fault kinds to list (CE, UE, DFI)")
	faultsCmd.Flags().DurationVar(&since, "since", 0,
		"only list faults logged within this duration")
	faultsCmd.Flags().IntVar(&limit, "limit", 0,
		"maximum number of faults to list")

	return faultsCmd
}
