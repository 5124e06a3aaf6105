package main

import (
	"os"

	"github.com/linkypi/PostSharp-1.5-sub005/internal/cli/commands"
)

func main() {
	if err := commands.Execute(); err != nil {
		os.Exit(1)
	}
}
