// =============================================================================
// Monthly Order Report - Main Entry Point
// =============================================================================
//
// This is the main entry point for the monthly order report CLI application.
// It initializes the Cobra CLI framework and delegates command execution to
// the cmd package.
//
// USAGE:
//   report process        - Run the full monthly pipeline for all channels
//   report validate       - Check configuration and input schemas only
//   report version        - Display the application version
//
// ARCHITECTURE:
//   This application follows a modular design where:
//   - cmd/           : Contains all CLI command definitions (Cobra)
//   - internal/      : Contains core business logic (not for external import)
//   - pkg/           : Contains shared utilities
//   - configs/       : Contains channel-specific YAML configurations
//
// =============================================================================

package main

import (
	"github.com/mistudio/order-report/cmd"
)

// main is the entry point of the application.
// It simply calls the Execute function from the cmd package, which
// initializes and runs the Cobra CLI.
func main() {
	cmd.Execute()
}
