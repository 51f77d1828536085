package main

import (
	"fmt"
	"os"

	"github.com/felipeah-dev/echo-app/cmd/configure/commands"
	"github.com/spf13/cobra"
)

func main() {
	var rootCmd = &cobra.Command{
		Use:   "echo-configure",
		Short: "Configuration tool for the Echo API",
		Long:  "CLI tool for managing automation rules and smoke-testing a running API",
	}

	rootCmd.AddCommand(commands.NewRulesCmd())
	rootCmd.AddCommand(commands.NewTestCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
