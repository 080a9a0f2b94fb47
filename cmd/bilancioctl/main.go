// Package main is the entry point for the bilancioctl CLI.
package main

import (
	"os"

	"bilancio/cmd/bilancioctl/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
