// ABOUTME: Entry point for the minutes client CLI
// ABOUTME: Hands off to the cobra command tree in internal/cli
package main

import (
	"fmt"
	"os"

	"github.com/oli8788/stek-meeting-minutes/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
