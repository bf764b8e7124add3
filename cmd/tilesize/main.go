// Command tilesize sizes the transistors of an FPGA tile and reports the
// resulting area and delay.
package main

import (
	"github.com/tebeka/atexit"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		atexit.Exit(1)
	}

	atexit.Exit(0)
}
