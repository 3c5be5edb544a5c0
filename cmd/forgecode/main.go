// Package main provides the entry point for the forgecode CLI.
package main

import (
	"fmt"
	"os"

	"github.com/forgecode-ai/agent/cmd/forgecode/commands"
)

func main() {
	if err := commands.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
