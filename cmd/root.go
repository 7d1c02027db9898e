// =============================================================================
// Monthly Order Report - Root Command
// =============================================================================
//
// This file defines the root command for the Cobra CLI. The root command
// is the base command that all other commands (like 'process',
// 'validate') are attached to.
//
// COBRA CLI STRUCTURE:
//   rootCmd (report)
//   ├── processCmd (report process)
//   ├── validateCmd (report validate)
//   └── versionCmd (report version)
//
// =============================================================================

package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// =============================================================================
// GLOBAL VARIABLES
// =============================================================================

// cfgFile holds the path to the main configuration file.
// This can be overridden using the --config flag.
var cfgFile string

// verbose enables verbose logging when set to true.
var verbose bool

// =============================================================================
// ROOT COMMAND DEFINITION
// =============================================================================

// rootCmd represents the base command when called without any subcommands.
var rootCmd = &cobra.Command{
	Use: "report",

	Short: "Monthly Order Report - Consolidate multi-channel order exports into one financial report",

	Long: `Monthly Order Report is a CLI tool that ingests per-channel e-commerce
order exports (Shopify, Pinkoi, ...) as spreadsheets, normalizes their schemas,
enriches line items with cost and profit data, proportionally allocates
order-level totals and discounts down to line-item granularity, and produces a
consolidated monthly financial report with summary statistics.

Key Features:
  - Declarative per-channel column mappings via YAML configuration
  - Cost/profit enrichment through a product-name join with match-rate reporting
  - Proportional allocation of order totals and discounts with per-order
    reconciliation against the original figures
  - A single multi-sheet report: summary, channel comparison, per-channel
    detail, and reconciliation

Example Usage:
  report process                       # Process all configured channels
  report process --month 202601        # Label the report with a specific month
  report process --channel Shopify     # Restrict the run to one channel
  report validate                      # Check configuration and input schemas`,

	// If no subcommand is provided, print the help message.
	Run: func(cmd *cobra.Command, args []string) {
		cmd.Help()
	},
}

// =============================================================================
// EXECUTE FUNCTION
// =============================================================================

// Execute adds all child commands to the root command and sets flags
// appropriately. This is called by main.main().
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// =============================================================================
// INITIALIZATION
// =============================================================================

// init sets up the global flags.
func init() {
	// ==========================================================================
	// PERSISTENT FLAGS
	// ==========================================================================
	// Persistent flags are available to this command and all subcommands.

	rootCmd.PersistentFlags().StringVar(
		&cfgFile,
		"config",
		"config.yaml",
		"Path to the main configuration file (default is config.yaml)",
	)

	rootCmd.PersistentFlags().BoolVarP(
		&verbose,
		"verbose",
		"v",
		false,
		"Enable verbose output for debugging",
	)
}
