// Package main is the entry point of the echomemo appliance.
//
// Usage:
//
//	echomemo [flags] <command> [subcommand] [args]
//
// Commands:
//
//	run        - Run the appliance (GPIO, display, microphone, assistant)
//	check      - Hardware check: pin levels and decoded knob/button events
//	devices    - List audio devices
//	memory     - Browse and edit stored memories
//	config     - Show, create and validate the configuration file
//	voice      - Voice-clone helpers (upload a reference recording)
//	version    - Show version information
package main

import (
	"fmt"
	"os"

	"github.com/haivivi/echomemo/cmd/echomemo/commands"
)

func main() {
	if err := commands.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
