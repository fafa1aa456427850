package main

import (
	"os"

	"github.com/junzhu/rotor/cmd/rotor/commands"
)

// main is the entry point for the rotor CLI
func main() {
	if err := commands.Execute(); err != nil {
		os.Exit(1)
	}
}
