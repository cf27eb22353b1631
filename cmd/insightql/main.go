// Package main provides the entry point for the insightql CLI.
package main

import (
	"os"

	"github.com/insightql/insightql/cmd/insightql/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
