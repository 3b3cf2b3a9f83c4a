// Command edacctl inspects and drives a DW uMCTL2 DDR controller, either on
// real hardware through /dev/mem or through a YAML register snapshot.
package main

import (
	"github.com/joho/godotenv"
	"github.com/tebeka/atexit"
)

func main() {
	// A missing .env file is fine; the environment alone configures us then.
	_ = godotenv.Load()

	if err := newRootCmd().Execute(); err != nil {
		atexit.Exit(1)
	}

	atexit.Exit(0)
}
