// Package main is the entry point for the iniref CLI tool.
package main

import (
	"os"

	"github.com/aidanlsb/iniref/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(cli.ExitCode(err))
	}
}
