// Package main provides the entry point for the peakform CLI.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/mattsre/peakform/pkg/logger"
)

var rootCmd = &cobra.Command{
	Use:   "peakform",
	Short: "Training-load forecasting for endurance athletes",
	Long: "Peakform calibrates a fitness/fatigue impulse-response model from an " +
		"athlete's training history, plans the build toward a race, and predicts " +
		"the race time.",
}

func main() {
	if err := logger.Init(); err != nil {
		fmt.Fprintf(os.Stderr, "failed to initialize logging: %v\n", err)
		os.Exit(1)
	}

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
