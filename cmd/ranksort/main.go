package main

import (
	"os"

	"github.com/openfluke/ranksort/cmd/ranksort/commands"
)

func main() {
	if err := commands.Execute(); err != nil {
		os.Exit(1)
	}
}
