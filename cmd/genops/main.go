// Command genops runs the generation orchestration layer: a diagnostics
// server exposing provider health, spend and metrics, and a one-shot
// generate command for local runs.
package main

import (
	"os"

	"github.com/spf13/cobra"
)

var cfgFile string

func main() {
	rootCmd := &cobra.Command{
		Use:          "genops",
		Short:        "Generation orchestration with circuit breaking, retries and budgets",
		SilenceUsage: true,
	}

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: ./genops.yaml)")

	rootCmd.AddCommand(
		serveCmd(),
		generateCmd(),
		configCmd(),
	)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
