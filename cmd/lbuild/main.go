// Package main is the entry point for the lbuild CLI.
package main

import (
	"fmt"
	"os"

	"github.com/modm-io/lbuild/internal/cmd"
)

func main() {
	rootCmd := cmd.NewRootCmd()

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(cmd.ExitCodeFromError(err))
	}
}
