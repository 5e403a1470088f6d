// SPDX-License-Identifier: EPL-2.0

// Command audvox plays, renders and inspects audio through the audvox engine.
//
// Usage:
//
//	audvox [flags] <command> [args]
//
// Commands:
//
//	play    - play files on the default audio device
//	render  - mix a file offline into a WAV file
//	info    - decode a file and print its format
//	config  - print the effective configuration
package main

import (
	"fmt"
	"os"

	"github.com/ik5/audvox/cmd/audvox/commands"
)

func main() {
	if err := commands.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
