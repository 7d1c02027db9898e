// =============================================================================
// Monthly Order Report - Multi-Channel Aggregator
// =============================================================================
//
// This module unions the normalized, allocated line items of every
// channel into one report dataset and computes the per-channel and
// overall summary statistics.
//
// ORDERING:
//   Each channel's detail rows are stable-sorted by order date then
//   order id before the report is written, so that identical input
//   produces byte-identical output run-to-run.
//
// CHANNELS WITHOUT COST DATA:
//   A channel whose config declares has_cost_data: false reports profit
//   equal to revenue and a 100% margin. That is a documented
//   approximation reflecting the absence of cost data, not a claim of
//   zero cost.
//
// =============================================================================

package aggregator

import (
	"sort"

	"github.com/shopspring/decimal"

	"github.com/mistudio/order-report/internal/normalizer"
	"github.com/mistudio/order-report/internal/profit"
	"github.com/mistudio/order-report/internal/types"
)

var hundred = decimal.NewFromInt(100)

// =============================================================================
// INPUT / OUTPUT STRUCTURES
// =============================================================================

// ChannelResult is one channel's fully processed output, as produced by
// the pipeline.
type ChannelResult struct {
	// Channel is the channel name.
	Channel string

	// HasCostData declares whether the channel's items went through the
	// cost join.
	HasCostData bool

	// Items are the channel's allocated, profit-annotated line items.
	Items []types.LineItem

	// Reconciliations are the allocation engine's verification records.
	Reconciliations []types.Reconciliation

	// JoinStats are the cost-join match statistics. Nil for channels
	// without cost data.
	JoinStats *types.JoinStats

	// Resolution is the schema normalizer's alias resolution outcome.
	Resolution *normalizer.Resolution
}

// Report is the consolidated dataset handed to the report writer.
type Report struct {
	// Channels holds each channel's sorted detail rows, in the order the
	// channel results were supplied.
	Channels []ChannelDetail

	// Summaries holds one summary per channel, same order as Channels.
	Summaries []types.ChannelSummary

	// Overall holds the cross-channel totals.
	Overall types.OverallSummary

	// Reconciliations holds every channel's verification records,
	// channels in supplied order, orders in first-appearance order.
	Reconciliations []types.Reconciliation

	// JoinStats holds the cost-join statistics per channel name, for the
	// channels that went through the cost join.
	JoinStats map[string]types.JoinStats
}

// ChannelDetail is one channel's sorted line items.
type ChannelDetail struct {
	Channel string
	Items   []types.LineItem
}

// =============================================================================
// AGGREGATION
// =============================================================================

// Aggregate unions the channel results into one report dataset.
func Aggregate(results []ChannelResult) *Report {
	report := &Report{JoinStats: make(map[string]types.JoinStats)}

	var overallRevenue decimal.Decimal

	for _, result := range results {
		if result.JoinStats != nil {
			report.JoinStats[result.Channel] = *result.JoinStats
		}
		items := applyCostlessApproximation(result)
		sortItems(items)

		report.Channels = append(report.Channels, ChannelDetail{
			Channel: result.Channel,
			Items:   items,
		})
		report.Reconciliations = append(report.Reconciliations, result.Reconciliations...)

		summary := summarizeChannel(result.Channel, items)
		report.Summaries = append(report.Summaries, summary)

		overallRevenue = overallRevenue.Add(summary.Revenue)

		report.Overall.OrderCount += summary.OrderCount
		report.Overall.ItemCount += summary.ItemCount
		report.Overall.Revenue = report.Overall.Revenue.Add(summary.Revenue)
		report.Overall.Discount = report.Overall.Discount.Add(summary.Discount)
		report.Overall.Profit = report.Overall.Profit.Add(summary.Profit)
	}

	// Revenue shares need the overall revenue, so they are filled in a
	// second pass.
	for i := range report.Summaries {
		if overallRevenue.IsPositive() {
			report.Summaries[i].SharePct = report.Summaries[i].Revenue.Mul(hundred).Div(overallRevenue)
		}
	}

	report.Overall.MarginPct = profit.Margin(report.Overall.Profit, report.Overall.Revenue)
	if report.Overall.OrderCount > 0 {
		report.Overall.AvgOrderValue = report.Overall.Revenue.Div(decimal.NewFromInt(int64(report.Overall.OrderCount)))
	}

	return report
}

// applyCostlessApproximation returns the channel's items, with profit
// set to the actual amount and margin to 100 when the channel has no
// cost data. Items of channels with cost data are returned as-is.
func applyCostlessApproximation(result ChannelResult) []types.LineItem {
	if result.HasCostData {
		return result.Items
	}

	items := make([]types.LineItem, len(result.Items))
	for i, item := range result.Items {
		items[i] = item
		items[i].LineProfit = item.ActualAmount()
		items[i].MarginPct = hundred
	}
	return items
}

// sortItems stable-sorts detail rows by order date then order id.
func sortItems(items []types.LineItem) {
	sort.SliceStable(items, func(i, j int) bool {
		if !items[i].OrderDate.Equal(items[j].OrderDate) {
			return items[i].OrderDate.Before(items[j].OrderDate)
		}
		return items[i].OrderID < items[j].OrderID
	})
}

// summarizeChannel computes one channel's aggregate statistics.
func summarizeChannel(channel string, items []types.LineItem) types.ChannelSummary {
	summary := types.ChannelSummary{
		Channel:   channel,
		ItemCount: len(items),
	}

	orderIDs := make(map[string]bool)

	for _, item := range items {
		orderIDs[item.OrderID] = true
		summary.Revenue = summary.Revenue.Add(item.ActualAmount())
		summary.Discount = summary.Discount.Add(item.OrderDiscount)
		summary.Profit = summary.Profit.Add(item.LineProfit)
	}

	summary.OrderCount = len(orderIDs)
	summary.MarginPct = profit.Margin(summary.Profit, summary.Revenue)
	if summary.OrderCount > 0 {
		summary.AvgOrderValue = summary.Revenue.Div(decimal.NewFromInt(int64(summary.OrderCount)))
	}

	return summary
}
