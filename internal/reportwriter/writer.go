// =============================================================================
// Monthly Order Report - Report Writer
// =============================================================================
//
// This module serializes the aggregated report into a single XLSX
// workbook. The workbook is assembled fully in memory and written to
// disk exactly once, so a failed run never leaves a partial report
// behind.
//
// WORKBOOK LAYOUT:
//   1. Summary            - labeled statistic rows (overview, then one
//                           block per channel)
//   2. Channel Comparison - one row per channel with the key figures
//   3. <Channel> Orders   - full line-item detail per channel, sorted by
//                           order date then order id
//   4. Reconciliation     - one row per order: original vs allocated
//                           figures, deltas, pass/fail, flags
//
// Monetary cells are written as numbers rounded to 2 decimal places;
// margins and shares to 1. Rounding happens only here, at the output
// boundary.
//
// =============================================================================

package reportwriter

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"

	"github.com/mistudio/order-report/internal/aggregator"
)

// =============================================================================
// OPTIONS
// =============================================================================

// Options controls workbook generation.
type Options struct {
	// SummarySheet, ComparisonSheet and ReconciliationSheet name the
	// fixed sheets.
	SummarySheet        string
	ComparisonSheet     string
	ReconciliationSheet string

	// DetailSheetFormat names the per-channel detail sheets; %s is the
	// channel name.
	DetailSheetFormat string

	// DateFormat is the layout used for order date cells.
	DateFormat string
}

// DefaultOptions returns the standard sheet naming.
func DefaultOptions() Options {
	return Options{
		SummarySheet:        "Summary",
		ComparisonSheet:     "Channel Comparison",
		ReconciliationSheet: "Reconciliation",
		DetailSheetFormat:   "%s Orders",
		DateFormat:          "2006-01-02",
	}
}

// =============================================================================
// WRITING
// =============================================================================

// Write assembles the report workbook and saves it to outputPath.
func Write(report *aggregator.Report, outputPath string) error {
	return WriteWithOptions(report, outputPath, DefaultOptions())
}

// WriteWithOptions assembles the report workbook with custom options and
// saves it to outputPath.
func WriteWithOptions(report *aggregator.Report, outputPath string, options Options) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := writeSummarySheet(f, report, options); err != nil {
		return fmt.Errorf("failed to build summary sheet: %w", err)
	}
	if err := writeComparisonSheet(f, report, options); err != nil {
		return fmt.Errorf("failed to build comparison sheet: %w", err)
	}
	for _, channel := range report.Channels {
		if err := writeDetailSheet(f, channel, options); err != nil {
			return fmt.Errorf("failed to build detail sheet for %s: %w", channel.Channel, err)
		}
	}
	if err := writeReconciliationSheet(f, report, options); err != nil {
		return fmt.Errorf("failed to build reconciliation sheet: %w", err)
	}

	// Drop the workbook's default sheet and land the reader on the
	// summary.
	if err := f.DeleteSheet("Sheet1"); err != nil {
		return fmt.Errorf("failed to remove default sheet: %w", err)
	}
	index, err := f.GetSheetIndex(options.SummarySheet)
	if err != nil {
		return fmt.Errorf("failed to locate summary sheet: %w", err)
	}
	f.SetActiveSheet(index)

	if err := f.SaveAs(outputPath); err != nil {
		return fmt.Errorf("failed to write report file: %w", err)
	}

	return nil
}

// =============================================================================
// SUMMARY SHEET
// =============================================================================

// writeSummarySheet writes the labeled statistic rows.
func writeSummarySheet(f *excelize.File, report *aggregator.Report, options Options) error {
	if _, err := f.NewSheet(options.SummarySheet); err != nil {
		return err
	}

	rows := [][]interface{}{
		{"Statistic", "Value"},
		{"Overview", ""},
		{"Total Orders", report.Overall.OrderCount},
		{"Total Line Items", report.Overall.ItemCount},
		{"Total Revenue", money(report.Overall.Revenue)},
		{"Total Discount", money(report.Overall.Discount)},
		{"Total Profit", money(report.Overall.Profit)},
		{"Average Margin", percent(report.Overall.MarginPct)},
		{"Average Order Value", money(report.Overall.AvgOrderValue)},
	}

	for _, summary := range report.Summaries {
		rows = append(rows,
			[]interface{}{"", ""},
			[]interface{}{summary.Channel, ""},
			[]interface{}{summary.Channel + " Orders", summary.OrderCount},
			[]interface{}{summary.Channel + " Revenue", money(summary.Revenue)},
			[]interface{}{summary.Channel + " Revenue Share", percent(summary.SharePct)},
			[]interface{}{summary.Channel + " Discount", money(summary.Discount)},
			[]interface{}{summary.Channel + " Profit", money(summary.Profit)},
			[]interface{}{summary.Channel + " Margin", percent(summary.MarginPct)},
		)
		if stats, ok := report.JoinStats[summary.Channel]; ok {
			rows = append(rows,
				[]interface{}{summary.Channel + " Cost Match Rate", fmt.Sprintf("%.1f%%", stats.MatchRate()*100)},
			)
		}
	}

	return writeRows(f, options.SummarySheet, rows)
}

// =============================================================================
// CHANNEL COMPARISON SHEET
// =============================================================================

// writeComparisonSheet writes one row per channel with the key figures.
func writeComparisonSheet(f *excelize.File, report *aggregator.Report, options Options) error {
	if _, err := f.NewSheet(options.ComparisonSheet); err != nil {
		return err
	}

	rows := [][]interface{}{
		{"Channel", "Orders", "Line Items", "Revenue", "Discount", "Profit", "Margin %", "Revenue Share %", "Avg Order Value"},
	}
	for _, summary := range report.Summaries {
		rows = append(rows, []interface{}{
			summary.Channel,
			summary.OrderCount,
			summary.ItemCount,
			moneyCell(summary.Revenue),
			moneyCell(summary.Discount),
			moneyCell(summary.Profit),
			percentCell(summary.MarginPct),
			percentCell(summary.SharePct),
			moneyCell(summary.AvgOrderValue),
		})
	}

	return writeRows(f, options.ComparisonSheet, rows)
}

// =============================================================================
// DETAIL SHEETS
// =============================================================================

// detailHeaders is the column order of every per-channel detail sheet.
var detailHeaders = []interface{}{
	"Channel", "Order ID", "Order Date", "Customer Name", "Product Name",
	"SKU", "Phone", "Quantity", "Unit Price", "Gross Value",
	"Order Total", "Order Discount", "Allocated Amount", "Allocated Discount",
	"Actual Amount", "Unit Cost", "Line Cost", "Line Profit", "Margin %",
}

// writeDetailSheet writes one channel's full line-item rows.
func writeDetailSheet(f *excelize.File, channel aggregator.ChannelDetail, options Options) error {
	sheetName := fmt.Sprintf(options.DetailSheetFormat, channel.Channel)
	if _, err := f.NewSheet(sheetName); err != nil {
		return err
	}

	rows := [][]interface{}{detailHeaders}
	for _, item := range channel.Items {
		rows = append(rows, []interface{}{
			item.Channel,
			item.OrderID,
			formatDate(item.OrderDate, options.DateFormat),
			item.CustomerName,
			item.ProductName,
			item.SKU,
			item.Phone,
			item.Quantity.InexactFloat64(),
			moneyCell(item.UnitPrice),
			moneyCell(item.GrossValue()),
			moneyCell(item.OrderTotal),
			moneyCell(item.OrderDiscount),
			moneyCell(item.AllocatedAmount),
			moneyCell(item.AllocatedDiscount),
			moneyCell(item.ActualAmount()),
			moneyCell(item.UnitCost),
			moneyCell(item.LineCost),
			moneyCell(item.LineProfit),
			percentCell(item.MarginPct),
		})
	}

	return writeRows(f, sheetName, rows)
}

// =============================================================================
// RECONCILIATION SHEET
// =============================================================================

// writeReconciliationSheet writes one row per order with the
// verification outcome.
func writeReconciliationSheet(f *excelize.File, report *aggregator.Report, options Options) error {
	if _, err := f.NewSheet(options.ReconciliationSheet); err != nil {
		return err
	}

	rows := [][]interface{}{
		{"Channel", "Order ID", "Original Total", "Allocated Total", "Total Delta",
			"Original Discount", "Allocated Discount", "Discount Delta", "Result", "Flags"},
	}
	for _, record := range report.Reconciliations {
		result := "PASS"
		if !record.Passed {
			result = "FAIL"
		}
		rows = append(rows, []interface{}{
			record.Channel,
			record.OrderID,
			moneyCell(record.OriginalTotal),
			moneyCell(record.AllocatedTotal),
			moneyCell(record.TotalDelta),
			moneyCell(record.OriginalDiscount),
			moneyCell(record.AllocatedDiscount),
			moneyCell(record.DiscountDelta),
			result,
			strings.Join(record.Flags, ", "),
		})
	}

	return writeRows(f, options.ReconciliationSheet, rows)
}

// =============================================================================
// HELPERS
// =============================================================================

// writeRows writes rows starting at A1, one SetSheetRow call per row.
func writeRows(f *excelize.File, sheetName string, rows [][]interface{}) error {
	for i := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(sheetName, cell, &rows[i]); err != nil {
			return err
		}
	}
	return nil
}

// moneyCell rounds a monetary value to 2 decimal places as a number.
func moneyCell(d decimal.Decimal) float64 {
	return d.Round(2).InexactFloat64()
}

// percentCell rounds a percentage to 1 decimal place as a number.
func percentCell(d decimal.Decimal) float64 {
	return d.Round(1).InexactFloat64()
}

// money formats a monetary value for the summary sheet.
func money(d decimal.Decimal) string {
	return "$" + d.Round(2).StringFixed(2)
}

// percent formats a percentage for the summary sheet.
func percent(d decimal.Decimal) string {
	return d.Round(1).StringFixed(1) + "%"
}

// formatDate renders an order date, empty for the zero time.
func formatDate(t time.Time, layout string) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(layout)
}
