// Package main provides the offily CLI for inspecting and editing a
// persistent two-tier cache from the shell.
package main

import (
	"os"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
