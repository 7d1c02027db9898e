// =============================================================================
// Monthly Order Report - Channel Pipeline
// =============================================================================
//
// This module runs the full processing pipeline for a single channel's
// export file, from worksheet reading to allocation.
//
// PIPELINE STAGES:
//   1. Read the export worksheet
//   2. Normalize rows onto the canonical schema
//   3. Join unit cost and SKU from the cost index (channels with cost data)
//   4. Derive per-line profit figures
//   5. Allocate order-level totals and discounts, verify per order
//
// Every stage returns new data rather than mutating its input, so a
// Result always reflects one clean downstream flow.
//
// CONCURRENCY:
//   Each channel is processed in its own goroutine. The pipeline holds
//   no shared mutable state and is safe to run concurrently with other
//   pipelines.
//
// =============================================================================

package pipeline

import (
	"fmt"
	"time"

	"github.com/mistudio/order-report/internal/allocation"
	"github.com/mistudio/order-report/internal/config"
	"github.com/mistudio/order-report/internal/costjoin"
	"github.com/mistudio/order-report/internal/normalizer"
	"github.com/mistudio/order-report/internal/profit"
	"github.com/mistudio/order-report/internal/types"
	"github.com/mistudio/order-report/internal/xlsxreader"
)

// =============================================================================
// RESULT STRUCTURE
// =============================================================================

// Result represents the outcome of processing one channel.
type Result struct {
	// Channel is the channel name.
	Channel string

	// InputFile is the export file that was processed.
	InputFile string

	// Success indicates whether processing completed.
	Success bool

	// Error contains the failure when Success is false.
	Error error

	// Items are the fully processed line items.
	Items []types.LineItem

	// Reconciliations are the allocation engine's per-order verification
	// records.
	Reconciliations []types.Reconciliation

	// JoinStats are the cost-join statistics; nil for channels without
	// cost data.
	JoinStats *types.JoinStats

	// Resolution is the schema normalizer's alias resolution outcome.
	Resolution *normalizer.Resolution

	// Stats contains processing statistics.
	Stats ProcessingStats
}

// ProcessingStats contains statistics about the processing.
type ProcessingStats struct {
	// RowsProcessed is the number of worksheet rows processed.
	RowsProcessed int

	// OrdersProcessed is the number of distinct orders.
	OrdersProcessed int

	// FlaggedOrders is the number of orders whose reconciliation did not
	// pass.
	FlaggedOrders int

	// ProcessingTime is the time taken to process the channel.
	ProcessingTime time.Duration
}

// =============================================================================
// PIPELINE STRUCTURE
// =============================================================================

// Pipeline processes one channel's export file.
type Pipeline struct {
	// inputPath is the path to the channel's export file.
	inputPath string

	// channelConfig is the channel-specific configuration.
	channelConfig *config.ChannelConfig

	// mainConfig is the main application configuration.
	mainConfig *config.MainConfig

	// logger is used for progress logging.
	logger Logger
}

// Logger is an interface for leveled progress logging.
type Logger interface {
	Debug(msg string, args ...interface{})
	Info(msg string, args ...interface{})
	Warn(msg string, args ...interface{})
	Error(msg string, args ...interface{})
}

// New creates a new Pipeline for one channel export.
func New(inputPath string, channelConfig *config.ChannelConfig, mainConfig *config.MainConfig) *Pipeline {
	return &Pipeline{
		inputPath:     inputPath,
		channelConfig: channelConfig,
		mainConfig:    mainConfig,
		logger:        &defaultLogger{},
	}
}

// SetLogger replaces the pipeline's logger.
func (p *Pipeline) SetLogger(logger Logger) {
	p.logger = logger
}

// =============================================================================
// MAIN PROCESSING FUNCTION
// =============================================================================

// Run executes the pipeline for the channel. costIndex may be nil for
// channels without cost data.
func (p *Pipeline) Run(costIndex costjoin.Index) Result {
	startTime := time.Now()
	result := Result{
		Channel:   p.channelConfig.ChannelName,
		InputFile: p.inputPath,
	}

	p.logger.Info("Processing channel %s: %s", p.channelConfig.ChannelName, p.inputPath)

	// =========================================================================
	// STEP 1: READ WORKSHEET
	// =========================================================================

	table, err := xlsxreader.Read(p.inputPath, p.channelConfig.SheetName)
	if err != nil {
		result.Error = fmt.Errorf("failed to read export: %w", err)
		return result
	}

	result.Stats.RowsProcessed = len(table.Rows)
	p.logger.Debug("Read %d rows from sheet %q", len(table.Rows), table.Sheet)

	// =========================================================================
	// STEP 2: NORMALIZE TO CANONICAL SCHEMA
	// =========================================================================

	items, resolution, err := normalizer.Normalize(table, p.channelConfig)
	result.Resolution = resolution
	if err != nil {
		result.Error = err
		return result
	}

	for _, match := range resolution.Matches {
		if match.Source == "" {
			p.logger.Debug("Field %s: no source column", match.Canonical)
		} else {
			p.logger.Debug("Field %s: column %q", match.Canonical, match.Source)
		}
	}

	// =========================================================================
	// STEP 3: COST JOIN
	// =========================================================================

	if p.channelConfig.HasCostData {
		joined, stats := costjoin.Join(items, costIndex)
		items = joined
		result.JoinStats = &stats

		p.logger.Debug("Cost join matched %d/%d items (%.1f%%)",
			stats.Matched, stats.Total, stats.MatchRate()*100)
		for i, name := range stats.UnmatchedProducts {
			if i == 20 {
				p.logger.Debug("  ... and %d more unmatched products", len(stats.UnmatchedProducts)-20)
				break
			}
			p.logger.Debug("  no cost record for: %s", name)
		}
	}

	// =========================================================================
	// STEP 4: PROFIT DERIVATION
	// =========================================================================

	items = profit.Annotate(items)

	// =========================================================================
	// STEP 5: ALLOCATION AND VERIFICATION
	// =========================================================================

	items, reconciliations := allocation.Allocate(items)
	result.Items = items
	result.Reconciliations = reconciliations
	result.Stats.OrdersProcessed = len(reconciliations)

	for _, record := range reconciliations {
		if !record.Passed {
			result.Stats.FlaggedOrders++
			p.logger.Warn("Order %s flagged: total delta %s, discount delta %s, flags %v",
				record.OrderID, record.TotalDelta, record.DiscountDelta, record.Flags)
		}
	}

	// =========================================================================
	// COMPLETE
	// =========================================================================

	result.Success = true
	result.Stats.ProcessingTime = time.Since(startTime)

	return result
}

// =============================================================================
// DEFAULT LOGGER
// =============================================================================

// defaultLogger is a simple logger that prints to stdout. Debug output
// is suppressed unless enabled.
type defaultLogger struct {
	verbose bool
}

// NewConsoleLogger returns the standard console logger. Debug lines are
// only printed when verbose is true.
func NewConsoleLogger(verbose bool) Logger {
	return &defaultLogger{verbose: verbose}
}

func (l *defaultLogger) Debug(msg string, args ...interface{}) {
	if l.verbose {
		fmt.Printf("[DEBUG] "+msg+"\n", args...)
	}
}

func (l *defaultLogger) Info(msg string, args ...interface{}) {
	fmt.Printf("[INFO] "+msg+"\n", args...)
}

func (l *defaultLogger) Warn(msg string, args ...interface{}) {
	fmt.Printf("[WARN] "+msg+"\n", args...)
}

func (l *defaultLogger) Error(msg string, args ...interface{}) {
	fmt.Printf("[ERROR] "+msg+"\n", args...)
}
