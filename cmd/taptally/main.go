// Package main is the entry point for the taptally CLI.
package main

import (
	"os"

	"github.com/AndreyAkinshin/taptally/internal/cli"
)

func main() {
	os.Exit(cli.Run(os.Args[1:]))
}
