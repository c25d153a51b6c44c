// Package main is the entry point for the i18nsync CLI tool.
package main

import (
	"github.com/hargabyte/i18nsync/internal/cmd"
)

func main() {
	cmd.Execute()
}
