// Package main is the entry point for the aaradio application.
package main

import (
	"os"

	"github.com/jmylchreest/aaradio/cmd/aaradio/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
