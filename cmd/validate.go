// =============================================================================
// Monthly Order Report - Validate Command
// =============================================================================
//
// This file defines the 'validate' command, which checks the
// configuration and the input schemas without producing any output.
//
// COMMAND USAGE:
//   report validate
//
// CHECKS PERFORMED:
//   1. Main and channel configurations load and validate
//   2. Each channel's export exists in the input directory
//   3. Each export's header row resolves every required canonical field
//   4. The cost reference table (when needed) has its required columns
//
// The full alias resolution table is printed per channel so operators
// can see exactly which source column feeds each canonical field.
//
// =============================================================================

package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mistudio/order-report/internal/config"
	"github.com/mistudio/order-report/internal/costjoin"
	"github.com/mistudio/order-report/internal/normalizer"
	"github.com/mistudio/order-report/internal/xlsxreader"
	"github.com/mistudio/order-report/pkg/utils"
)

// validateCmd represents the 'validate' command.
var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate configuration and input schemas without processing",
	Long: `The validate command loads all configuration files, locates each channel's
export, and checks that every required canonical field resolves to a source
column. Nothing is written; the exit status reports whether a subsequent
'report process' run would pass the structural checks.`,

	RunE: func(cmd *cobra.Command, args []string) error {
		return runValidate()
	},
}

// init registers the validate command with the root command.
func init() {
	rootCmd.AddCommand(validateCmd)
}

// runValidate performs the validation run.
func runValidate() error {
	fmt.Println("=== Monthly Order Report - Validation ===")

	mainConfig, err := config.LoadMainConfig(cfgFile)
	if err != nil {
		return fmt.Errorf("failed to load main config: %w", err)
	}

	channelConfigs, err := config.LoadChannelConfigs(mainConfig.ConfigsDir)
	if err != nil {
		return fmt.Errorf("failed to load channel configs: %w", err)
	}

	fmt.Printf("Loaded %d channel configuration(s)\n", len(channelConfigs))

	fileManager := utils.NewFileManager(mainConfig.InputDir, mainConfig.OutputDir, mainConfig.InputArchiveDir)

	problems := 0
	costNeeded := false

	for _, name := range channelNames(channelConfigs) {
		channel := channelConfigs[name]
		if channel.HasCostData {
			costNeeded = true
		}

		fmt.Printf("\nChannel: %s\n", channel.ChannelName)

		files, err := fileManager.DiscoverInputFiles(channel.FilePattern)
		if err != nil {
			return err
		}
		if len(files) == 0 {
			fmt.Printf("  ✗ no export matching %q in %s\n", channel.FilePattern, mainConfig.InputDir)
			problems++
			continue
		}
		fmt.Printf("  export: %s\n", files[0])

		table, err := xlsxreader.Read(files[0], channel.SheetName)
		if err != nil {
			fmt.Printf("  ✗ %v\n", err)
			problems++
			continue
		}
		fmt.Printf("  sheet: %q (%d rows)\n", table.Sheet, len(table.Rows))

		resolution := normalizer.Resolve(table, channel)
		for _, match := range resolution.Matches {
			if match.Source != "" {
				fmt.Printf("  ✓ %-14s <- %q\n", match.Canonical, match.Source)
			} else if isRequired(channel, match.Canonical) {
				fmt.Printf("  ✗ %-14s missing (required; tried %v)\n", match.Canonical, channel.Columns[match.Canonical])
				problems++
			} else {
				fmt.Printf("  - %-14s unmapped (defaults to zero value)\n", match.Canonical)
			}
		}
	}

	if costNeeded {
		fmt.Println("\nCost reference table:")
		if mainConfig.CostFile == "" {
			fmt.Println("  ✗ cost_file is not configured but a channel declares has_cost_data")
			problems++
		} else if table, err := xlsxreader.Read(mainConfig.CostFile, mainConfig.CostSheet); err != nil {
			fmt.Printf("  ✗ %v\n", err)
			problems++
		} else if _, err := costjoin.ParseRecords(table); err != nil {
			fmt.Printf("  ✗ %v\n", err)
			problems++
		} else {
			fmt.Printf("  ✓ %s (%d rows)\n", mainConfig.CostFile, len(table.Rows))
		}
	}

	if problems > 0 {
		return fmt.Errorf("validation found %d problem(s)", problems)
	}

	fmt.Println("\nValidation passed.")
	return nil
}

// isRequired reports whether a canonical field is in the channel's
// required list.
func isRequired(channel *config.ChannelConfig, field string) bool {
	for _, f := range channel.RequiredFields {
		if f == field {
			return true
		}
	}
	return false
}
