package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// version is set at build time via -ldflags.
var version = "dev"

var rootCmd = &cobra.Command{
	Use:   "hydrocal",
	Short: "Calibrate hydrologic model parameters against observed streamflow",
	Long: "Hydrocal searches the parameter space of an external hydrologic\n" +
		"simulation engine, scoring each candidate against observed streamflow\n" +
		"and checkpointing progress so interrupted runs can resume.",
	CompletionOptions: cobra.CompletionOptions{
		HiddenDefaultCmd: true,
	},
}

func init() {
	rootCmd.AddCommand(calibrateCmd)
	rootCmd.AddCommand(checkCmd)
	rootCmd.Version = version
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
