package main

import (
	"fmt"
	"os"

	"github.com/joelkoen/picolimbo/cmd/picolimbo/commands"
)

func main() {
	if err := commands.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(commands.ExitCode(err))
	}
}
