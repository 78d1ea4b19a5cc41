// Package main is the entry point for the messctl binary.
package main

import (
	"os"

	"github.com/gdg-garage/mess-billing/internal/cli"
)

func main() {
	os.Exit(cli.Execute())
}
