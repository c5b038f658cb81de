// Package main provides the entry point for the biff CLI.
package main

import (
	"fmt"
	"os"

	"github.com/biffhq/biff/cmd/biff/commands"
)

func main() {
	if err := commands.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
