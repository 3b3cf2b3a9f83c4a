package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strconv"
	"time"

	"github.com/pkg/browser"
	"github.com/spf13/cobra"

	"github.com/sarchlab/edac/faultlog"
	"github.com/sarchlab/edac/monitoring"
)

func newServeCmd(cfg *config) *cobra.Command {
	var (
		port      int
		open      bool
		poll      time.Duration
		keepFault int
	)

	serveCmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the controller over HTTP until interrupted",
		Long: `Serve the controller over HTTP until interrupted. With --poll, ` +
			`the controller interrupt is serviced periodically, which is how ` +
			`faults are picked up without an interrupt line.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if v, ok := os.LookupEnv(envMonitorPort); ok &&
				!cmd.Flags().Changed("port") {
				p, err := strconv.Atoi(v)
				if err != nil {
					return fmt.Errorf("%s: %w", envMonitorPort, err)
				}

				port = p
			}

			recent := monitoring.NewRecent(keepFault)

			s, err := openSession(cfg, recent)
			if err != nil {
				return err
			}
			defer s.close()

			m := monitoring.NewMonitor(s.controller).
				WithPortNumber(port).
				WithRecentFaults(recent)

			if s.recorder != nil {
				s.recorder.SetBatchSize(1)
				m.WithFaultLog(faultlog.NewReaderWithDB(s.recorder.DB()))
			}

			url := m.StartServer()

			if open {
				if err := browser.OpenURL(url); err != nil {
					log.Printf("cannot open browser: %v", err)
				}
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
			defer stop()

			pollInterrupts(ctx, s, poll)

			return s.save()
		},
	}

	serveCmd.Flags().IntVar(&port, "port", 0,
		"port to listen on, random if unset ($"+envMonitorPort+")")
	serveCmd.Flags().BoolVar(&open, "open", false,
		"open the monitor in a browser")
	serveCmd.Flags().DurationVar(&poll, "poll", 0,
		"service the controller interrupt at this period")
	serveCmd.Flags().IntVar(&keepFault, "keep", 256,
		"number of recent faults kept in memory")

	return serveCmd
}

// pollInterrupts services the controller interrupt every period until ctx
// is done. A zero period only waits.
func pollInterrupts(ctx context.Context, s *session, period time.Duration) {
	if period <= 0 {
		<-ctx.Done()
		return
	}

	ticker := time.NewTicker(period)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := s.controller.HandleInterrupt(); err != nil {
				log.Printf("interrupt: %v", err)
			}
		}
	}
}
