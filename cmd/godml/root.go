// Package main provides the entry point for the godml CLI.
package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/YuminosukeSato/godml/pkg/log"
)

// NewRootCmd creates the root command for godml.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "godml",
		Short: "Double machine learning for treatment effects",
		Long: `godml estimates causal treatment effects from observational data by
double/debiased machine learning. Nuisance functions are fitted by
cross-fitted machine learners, and a Neyman-orthogonal score turns their
out-of-fold residuals into an estimate with valid standard errors.

The fit command reads a headed CSV file (or a YAML study file naming one)
and prints an estimation summary. The simulate command generates synthetic
datasets with a known true effect to experiment against.`,
		Version:       getVersion(),
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	// Global flags that apply to all commands
	cmd.PersistentFlags().BoolP("verbose", "v", false, "Enable verbose logging")

	// Add subcommands
	cmd.AddCommand(NewFitCmd())
	cmd.AddCommand(NewSimulateCmd())
	cmd.AddCommand(NewVersionCmd())

	return cmd
}

// Execute runs the root command.
func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// getVerboseFlag retrieves the verbose flag from the command or its parent.
func getVerboseFlag(cmd *cobra.Command) bool {
	verbose, err := cmd.Flags().GetBool("verbose")
	if err != nil {
		verbose, err = cmd.Root().PersistentFlags().GetBool("verbose")
		if err != nil {
			return false
		}
	}
	return verbose
}

// setupLogging routes diagnostics to stderr so results stay alone on stdout.
// Verbose mode lowers the threshold to debug; otherwise only warnings and
// errors get through.
func setupLogging(verbose bool) {
	level := slog.LevelWarn
	minLevel := log.LevelWarn
	if verbose {
		level = slog.LevelDebug
		minLevel = log.LevelDebug
	}

	handler := log.WrapByErrFmtHandler(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	}))
	slog.SetDefault(slog.New(handler))
	log.SetLevel(minLevel)
}
