// Package main provides the CLI entry point for the execution backend:
// the Container Manager, Tool & Prompt Server, Agent Bridge, and their
// supporting components all start from one binary.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var version = "dev"

func main() {
	if err := buildRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func buildRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "nexus",
		Short:   "Multi-tenant code-execution backend for AI agents",
		Version: version,
	}

	cmd.AddCommand(buildServeCmd())
	cmd.AddCommand(buildConfigCmd())
	return cmd
}
