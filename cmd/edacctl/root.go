package main

import (
	"fmt"
	"os"
	"strconv"

	"github.com/spf13/cobra"
)

// Environment variables the persistent flags default to.
const (
	envRegs        = "EDAC_REGS"
	envDevMem      = "EDAC_DEVMEM"
	envDevMemBase  = "EDAC_DEVMEM_BASE"
	envCoreClock   = "EDAC_CORE_CLOCK"
	envPlatform    = "EDAC_PLATFORM"
	envFaultDB     = "EDAC_FAULT_DB"
	envMonitorPort = "EDAC_MONITOR_PORT"
)

type config struct {
	regsPath   string
	devMem     string
	devMemBase uint64
	coreClock  string
	platform   string
	faultDB    string
	verbose    bool
}

// fromEnv fills every flag the user did not set from the environment.
func (c *config) fromEnv(cmd *cobra.Command) error {
	flags := cmd.Flags()

	str := func(flag, env string, dst *string) {
		if v, ok := os.LookupEnv(env); ok && !flags.Changed(flag) {
			*dst = v
		}
	}

	str("regs", envRegs, &c.regsPath)
	str("devmem", envDevMem, &c.devMem)
	str("clock", envCoreClock, &c.coreClock)
	str("platform", envPlatform, &c.platform)
	str("fault-db", envFaultDB, &c.faultDB)

	if v, ok := os.LookupEnv(envDevMemBase); ok && !flags.Changed("devmem-base") {
		base, err := strconv.ParseUint(v, 0, 64)
		if err != nil {
			return fmt.Errorf("%s: %w", envDevMemBase, err)
		}

		c.devMemBase = base
	}

	return nil
}

func newRootCmd() *cobra.Command {
	cfg := &config{devMem: "/dev/mem"}

	rootCmd := &cobra.Command{
		Use:   "edacctl",
		Short: "edacctl inspects and drives the ECC engine of a DW uMCTL2 DDR controller.",
		Long: `edacctl inspects and drives the ECC engine of a DW uMCTL2 DDR ` +
			`controller. It works on the live controller through /dev/mem or ` +
			`on a YAML register snapshot, which is saved back after every ` +
			`command that writes registers.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return cfg.fromEnv(cmd)
		},
	}

	pf := rootCmd.PersistentFlags()
	pf.StringVar(&cfg.regsPath, "regs", "",
		"register snapshot to work on ($"+envRegs+")")
	pf.StringVar(&cfg.devMem, "devmem", cfg.devMem,
		"physical memory device ($"+envDevMem+")")
	pf.Uint64Var(&cfg.devMemBase, "devmem-base", 0,
		"physical base address of the controller registers ($"+envDevMemBase+")")
	pf.StringVar(&cfg.coreClock, "clock", "",
		"controller core clock, such as 533MHz ($"+envCoreClock+")")
	pf.StringVar(&cfg.platform, "platform", "",
		"platform name or compatible string ($"+envPlatform+")")
	pf.StringVar(&cfg.faultDB, "fault-db", "",
		"SQLite fault log ($"+envFaultDB+")")
	pf.BoolVarP(&cfg.verbose, "verbose", "v", false,
		"log fault reports and scrub warnings")

	rootCmd.AddCommand(
		newInfoCmd(cfg),
		newRegionsCmd(cfg),
		newHIFMapCmd(cfg),
		newCapacityCmd(cfg),
		newTranslateCmd(cfg),
		newScrubCmd(cfg),
		newInjectCmd(cfg),
		newPoisonCmd(cfg),
		newIRQCmd(cfg),
		newFaultsCmd(cfg),
		newServeCmd(cfg),
		newDumpCmd(cfg),
	)

	return rootCmd
}
