package main

import (
	"fmt"
	"os"

	"sales-dashboard/internal/commands"
)

func main() {
	rootCmd := commands.NewRootCommand(os.Stdin, os.Stdout, os.Stderr)
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
