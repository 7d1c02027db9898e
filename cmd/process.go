// =============================================================================
// Monthly Order Report - Process Command
// =============================================================================
//
// This file defines the 'process' command, which runs the full monthly
// pipeline. It orchestrates every stage from configuration loading to
// the written report.
//
// COMMAND USAGE:
//   report process [flags]
//
// FLAGS:
//   --dry-run   : Run the full pipeline without writing the report or
//                 archiving inputs
//   --channel   : Process only the named channel
//   --month     : Month label for the report file name (default: current)
//
// PROCESSING PIPELINE:
//   1. Load configuration files
//   2. Load the cost reference table (when any channel uses it)
//   3. Locate each channel's export in the input directory
//   4. For each channel (concurrently):
//      a. Read the export worksheet
//      b. Normalize onto the canonical schema
//      c. Join cost data, derive profit
//      d. Allocate order-level totals/discounts, verify per order
//   5. Aggregate channels into one report dataset
//   6. Write the multi-sheet report
//   7. Archive processed exports
//   8. Print the run summary
//
// Any channel failure aborts the run before the report is written; a
// failed run leaves no partial output behind.
//
// =============================================================================

package cmd

import (
	"fmt"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/spf13/cobra"

	"github.com/mistudio/order-report/internal/aggregator"
	"github.com/mistudio/order-report/internal/config"
	"github.com/mistudio/order-report/internal/costjoin"
	"github.com/mistudio/order-report/internal/pipeline"
	"github.com/mistudio/order-report/internal/reportwriter"
	"github.com/mistudio/order-report/internal/types"
	"github.com/mistudio/order-report/internal/xlsxreader"
	"github.com/mistudio/order-report/pkg/utils"
)

// =============================================================================
// COMMAND FLAGS
// =============================================================================

// dryRun runs the pipeline without writing the report or archiving inputs.
var dryRun bool

// channelFilter restricts processing to a single channel.
var channelFilter string

// monthLabel is the month label used in the report file name.
var monthLabel string

// =============================================================================
// PROCESS COMMAND DEFINITION
// =============================================================================

// processCmd represents the 'process' command.
var processCmd = &cobra.Command{
	Use:   "process",
	Short: "Process channel exports and produce the monthly report",
	Long: `The process command locates each configured channel's order export in the
input directory, runs the normalization, cost-join, profit and allocation
stages, and writes one consolidated report workbook.

Channels are processed concurrently; their results are combined in the
configured channel order so that output is reproducible run-to-run.

On success:
  - The report workbook is placed in the output directory
  - The processed exports are moved to the input archive

On any failure:
  - No report file is written
  - The exports remain in the input directory`,

	RunE: func(cmd *cobra.Command, args []string) error {
		return runProcess()
	},
}

// =============================================================================
// INITIALIZATION
// =============================================================================

// init registers the process command with the root command and sets up flags.
func init() {
	rootCmd.AddCommand(processCmd)

	processCmd.Flags().BoolVar(
		&dryRun,
		"dry-run",
		false,
		"Run the pipeline without writing the report or archiving inputs",
	)

	processCmd.Flags().StringVar(
		&channelFilter,
		"channel",
		"",
		"Process only the named channel",
	)

	processCmd.Flags().StringVar(
		&monthLabel,
		"month",
		"",
		"Month label for the report file name, YYYYMM (default: current month)",
	)
}

// =============================================================================
// MAIN PROCESSING FUNCTION
// =============================================================================

// runProcess is the main function that orchestrates the monthly pipeline.
func runProcess() error {
	startTime := time.Now()

	// =========================================================================
	// STEP 1: LOAD CONFIGURATION
	// =========================================================================

	fmt.Println("=== Monthly Order Report ===")
	fmt.Println("Loading configuration...")

	mainConfig, err := config.LoadMainConfig(cfgFile)
	if err != nil {
		return fmt.Errorf("failed to load main config: %w", err)
	}

	channelConfigs, err := config.LoadChannelConfigs(mainConfig.ConfigsDir)
	if err != nil {
		return fmt.Errorf("failed to load channel configs: %w", err)
	}

	channels, err := selectChannels(channelConfigs)
	if err != nil {
		return err
	}

	fmt.Printf("Loaded %d channel configuration(s)\n", len(channels))

	fileManager := utils.NewFileManager(mainConfig.InputDir, mainConfig.OutputDir, mainConfig.InputArchiveDir)
	if err := fileManager.EnsureDirectories(); err != nil {
		return err
	}

	if monthLabel == "" {
		monthLabel = time.Now().Format("200601")
	}

	// =========================================================================
	// STEP 2: LOAD COST REFERENCE TABLE
	// =========================================================================
	// The cost index is built once and shared read-only by every channel
	// pipeline that declares cost data.

	costIndex, err := loadCostIndex(mainConfig, channels)
	if err != nil {
		return err
	}

	// =========================================================================
	// STEP 3: LOCATE CHANNEL EXPORTS
	// =========================================================================

	fmt.Println("Discovering channel exports...")

	inputs := make(map[string]string, len(channels))
	for _, channel := range channels {
		files, err := fileManager.DiscoverInputFiles(channel.FilePattern)
		if err != nil {
			return err
		}
		if len(files) == 0 {
			return fmt.Errorf("no export matching %q found for channel %s in %s",
				channel.FilePattern, channel.ChannelName, mainConfig.InputDir)
		}
		if len(files) > 1 {
			fmt.Printf("  ! %d files match %q for %s; using %s\n",
				len(files), channel.FilePattern, channel.ChannelName, filepath.Base(files[0]))
		}
		inputs[channel.ChannelName] = files[0]
		fmt.Printf("  %s: %s\n", channel.ChannelName, filepath.Base(files[0]))
	}

	// =========================================================================
	// STEP 4: PROCESS CHANNELS CONCURRENTLY
	// =========================================================================
	// Each channel runs in its own goroutine. Results are collected over
	// a channel and re-ordered afterwards, so concurrency never affects
	// the report layout.

	fmt.Println("Processing channels...")

	var wg sync.WaitGroup
	results := make(chan pipeline.Result, len(channels))
	semaphore := make(chan struct{}, mainConfig.MaxConcurrency)

	for _, channel := range channels {
		wg.Add(1)

		go func(channelConfig *config.ChannelConfig, inputPath string) {
			defer wg.Done()
			semaphore <- struct{}{}
			defer func() { <-semaphore }()

			p := pipeline.New(inputPath, channelConfig, mainConfig)
			p.SetLogger(pipeline.NewConsoleLogger(verbose))
			results <- p.Run(costIndex)
		}(channel, inputs[channel.ChannelName])
	}

	go func() {
		wg.Wait()
		close(results)
	}()

	byChannel := make(map[string]pipeline.Result, len(channels))
	for result := range results {
		byChannel[result.Channel] = result
	}

	// Any channel failure aborts the run: a partial report would be
	// worse than none.
	channelResults := make([]aggregator.ChannelResult, 0, len(channels))
	for _, channel := range channels {
		result := byChannel[channel.ChannelName]
		if !result.Success {
			return fmt.Errorf("channel %s failed: %w", channel.ChannelName, result.Error)
		}

		fmt.Printf("  ✓ %s: %d rows, %d orders (%s)\n",
			result.Channel, result.Stats.RowsProcessed, result.Stats.OrdersProcessed,
			result.Stats.ProcessingTime.Round(time.Millisecond))

		channelResults = append(channelResults, aggregator.ChannelResult{
			Channel:         result.Channel,
			HasCostData:     channel.HasCostData,
			Items:           result.Items,
			Reconciliations: result.Reconciliations,
			JoinStats:       result.JoinStats,
			Resolution:      result.Resolution,
		})
	}

	// =========================================================================
	// STEP 5: AGGREGATE AND WRITE REPORT
	// =========================================================================

	fmt.Println("Aggregating channels...")
	report := aggregator.Aggregate(channelResults)

	outputPath := ""
	if dryRun {
		fmt.Println("Dry run: skipping report write and archival")
	} else {
		fileName := utils.GenerateReportFileName(mainConfig.ReportNameFormat, monthLabel)
		outputPath = filepath.Join(mainConfig.OutputDir, fileName)

		fmt.Printf("Writing report: %s\n", outputPath)
		if err := reportwriter.Write(report, outputPath); err != nil {
			return err
		}

		// =====================================================================
		// STEP 6: ARCHIVE PROCESSED EXPORTS
		// =====================================================================

		if mainConfig.ArchiveOnSuccess {
			for _, channel := range channels {
				if _, err := fileManager.ArchiveInputFile(inputs[channel.ChannelName]); err != nil {
					// The report is already written; archival problems
					// should not fail the run.
					fmt.Printf("  ! failed to archive %s: %v\n", inputs[channel.ChannelName], err)
				}
			}
		}
	}

	// =========================================================================
	// STEP 7: PRINT SUMMARY
	// =========================================================================

	printRunSummary(report, byChannel, channels, outputPath, time.Since(startTime))

	return nil
}

// =============================================================================
// HELPER FUNCTIONS
// =============================================================================

// selectChannels applies the --channel filter and returns the channels
// in deterministic (name) order.
func selectChannels(configs map[string]*config.ChannelConfig) ([]*config.ChannelConfig, error) {
	if channelFilter != "" {
		channel, ok := configs[channelFilter]
		if !ok {
			return nil, fmt.Errorf("unknown channel %q (configured: %v)", channelFilter, channelNames(configs))
		}
		return []*config.ChannelConfig{channel}, nil
	}

	names := channelNames(configs)
	channels := make([]*config.ChannelConfig, 0, len(names))
	for _, name := range names {
		channels = append(channels, configs[name])
	}
	return channels, nil
}

// channelNames returns the configured channel names, sorted.
func channelNames(configs map[string]*config.ChannelConfig) []string {
	names := make([]string, 0, len(configs))
	for name := range configs {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// loadCostIndex reads the cost reference workbook and builds the
// deduplicated product index. Channels without cost data do not require
// a cost file; when one is needed and missing, the run fails before any
// processing starts.
func loadCostIndex(mainConfig *config.MainConfig, channels []*config.ChannelConfig) (costjoin.Index, error) {
	needed := false
	for _, channel := range channels {
		if channel.HasCostData {
			needed = true
			break
		}
	}
	if !needed {
		return nil, nil
	}

	if mainConfig.CostFile == "" {
		return nil, fmt.Errorf("cost_file is not configured but at least one channel declares has_cost_data")
	}

	fmt.Printf("Loading cost table: %s\n", mainConfig.CostFile)

	table, err := xlsxreader.Read(mainConfig.CostFile, mainConfig.CostSheet)
	if err != nil {
		return nil, fmt.Errorf("failed to read cost table: %w", err)
	}

	records, err := costjoin.ParseRecords(table)
	if err != nil {
		return nil, err
	}

	index := costjoin.BuildIndex(records)
	fmt.Printf("Cost table: %d record(s), %d distinct product(s)\n", len(records), len(index))

	return index, nil
}

// printRunSummary prints the end-of-run summary block.
func printRunSummary(report *aggregator.Report, byChannel map[string]pipeline.Result,
	channels []*config.ChannelConfig, outputPath string, elapsed time.Duration) {

	fmt.Println("\n=== Processing Complete ===")
	fmt.Printf("Total orders:     %d\n", report.Overall.OrderCount)
	fmt.Printf("Total line items: %d\n", report.Overall.ItemCount)
	fmt.Printf("Total revenue:    $%s\n", report.Overall.Revenue.Round(2).StringFixed(2))
	fmt.Printf("Total discount:   $%s\n", report.Overall.Discount.Round(2).StringFixed(2))
	fmt.Printf("Total profit:     $%s\n", report.Overall.Profit.Round(2).StringFixed(2))
	fmt.Printf("Average margin:   %s%%\n", report.Overall.MarginPct.Round(1).StringFixed(1))

	fmt.Println("\nChannels:")
	for _, summary := range report.Summaries {
		fmt.Printf("  %s: %d orders, $%s revenue (%s%% share)\n",
			summary.Channel, summary.OrderCount,
			summary.Revenue.Round(2).StringFixed(2),
			summary.SharePct.Round(1).StringFixed(1))

		if stats, ok := report.JoinStats[summary.Channel]; ok {
			fmt.Printf("    cost match rate: %.1f%% (%d/%d)\n",
				stats.MatchRate()*100, stats.Matched, stats.Total)
			printUnmatched(stats.UnmatchedProducts)
		}
	}

	mismatches := 0
	flagged := 0
	for _, channel := range channels {
		flagged += byChannel[channel.ChannelName].Stats.FlaggedOrders
	}
	for _, record := range report.Reconciliations {
		if record.HasFlag(types.FlagReconciliationMismatch) {
			mismatches++
		}
	}

	fmt.Println("\nReconciliation:")
	fmt.Printf("  Orders verified:  %d\n", len(report.Reconciliations))
	fmt.Printf("  Flagged orders:   %d\n", flagged)
	fmt.Printf("  Mismatches:       %d\n", mismatches)

	if outputPath != "" {
		fmt.Printf("\nReport: %s\n", outputPath)
	}
	fmt.Printf("Time elapsed: %s\n", elapsed.Round(time.Millisecond))
}

// printUnmatched lists unmatched product names, capped at 20.
func printUnmatched(products []string) {
	for i, name := range products {
		if i == 20 {
			fmt.Printf("    ... and %d more unmatched product(s)\n", len(products)-20)
			return
		}
		fmt.Printf("    no cost record for: %s\n", name)
	}
}
