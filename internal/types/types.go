// =============================================================================
// Monthly Order Report - Shared Types
// =============================================================================
//
// This package contains shared types used across multiple modules to avoid
// import cycles. Types defined here are used by:
//   - normalizer
//   - costjoin
//   - profit
//   - allocation
//   - aggregator
//   - reportwriter
//
// All monetary values use decimal.Decimal. The allocation engine measures
// cent-level drift between order-level and line-level figures, so the
// arithmetic itself must not introduce binary floating point noise.
//
// =============================================================================

package types

import (
	"time"

	"github.com/shopspring/decimal"
)

// =============================================================================
// LINE ITEM TYPES
// =============================================================================

// LineItem represents one product row within one order, in the canonical
// schema shared by all channels. A single order usually spans several
// line items; order-level fields (OrderTotal, OrderDiscount) appear
// non-zero on at most one of them in the source export.
type LineItem struct {
	// Channel is the sales channel this row came from (e.g. "Shopify").
	Channel string

	// OrderID identifies the order. It is shared by all line items of the
	// same order and is not unique per row.
	OrderID string

	// OrderDate is the order creation date. Zero when the source value
	// could not be parsed.
	OrderDate time.Time

	// CustomerName is the buyer's name as exported by the channel.
	CustomerName string

	// ProductName is the join key against the cost reference table.
	// Not guaranteed unique or non-empty.
	ProductName string

	// SKU is the product variant SKU. Filled by the cost join; empty when
	// the product name found no match.
	SKU string

	// Phone is the buyer's phone number after coalescing the channel's
	// phone columns.
	Phone string

	// Quantity is the purchased quantity. Defaults to 0 on parse failure.
	// Negative quantities (returns) are valid and flow through allocation
	// unchanged.
	Quantity decimal.Decimal

	// UnitPrice is the selling price per unit.
	UnitPrice decimal.Decimal

	// UnitCost is the purchase cost per unit. 0 when no cost-table match
	// was found or the channel has no cost data.
	UnitCost decimal.Decimal

	// OrderTotal and OrderDiscount are order-level values carried by the
	// source on (at most) one line item per order. They apply to the whole
	// order, never to this row alone.
	OrderTotal    decimal.Decimal
	OrderDiscount decimal.Decimal

	// AllocatedAmount and AllocatedDiscount are this line item's
	// proportional share of OrderTotal / OrderDiscount, as computed by the
	// allocation engine. Zero until allocation has run, and zero forever
	// for orders flagged ZeroGrossValue.
	AllocatedAmount   decimal.Decimal
	AllocatedDiscount decimal.Decimal

	// LineRevenue, LineCost, LineProfit and MarginPct are the profit
	// calculator's per-line derivations.
	LineRevenue decimal.Decimal
	LineCost    decimal.Decimal
	LineProfit  decimal.Decimal
	MarginPct   decimal.Decimal

	// SourceRow is the 1-based row number in the source worksheet.
	// Useful for operator messages.
	SourceRow int
}

// GrossValue returns quantity * unit price. It is always recomputed from
// its inputs rather than stored, so it can never drift from them.
func (li LineItem) GrossValue() decimal.Decimal {
	return li.Quantity.Mul(li.UnitPrice)
}

// ActualAmount returns the line item's effective revenue: the allocated
// amount when allocation produced one, otherwise the gross value.
func (li LineItem) ActualAmount() decimal.Decimal {
	if li.AllocatedAmount.IsPositive() {
		return li.AllocatedAmount
	}
	return li.GrossValue()
}

// =============================================================================
// COST REFERENCE TYPES
// =============================================================================

// CostRecord is one row of the cost reference table.
type CostRecord struct {
	// ProductName is the join key. Records with an empty name are dropped
	// when the cost index is built.
	ProductName string

	// SKU is the product variant SKU.
	SKU string

	// UnitCost is the purchase cost per unit.
	UnitCost decimal.Decimal
}

// JoinStats reports how well the cost join matched line items against the
// cost reference table. The join never fails on unmatched rows; this is
// the operator-facing outcome instead.
type JoinStats struct {
	// Total is the number of line items that went through the join.
	Total int

	// Matched is the number of line items whose product name found a
	// cost record.
	Matched int

	// UnmatchedProducts lists distinct product names that found no cost
	// record, in input order.
	UnmatchedProducts []string
}

// MatchRate returns Matched/Total as a fraction between 0 and 1.
// Returns 0 for an empty join.
func (s JoinStats) MatchRate() float64 {
	if s.Total == 0 {
		return 0
	}
	return float64(s.Matched) / float64(s.Total)
}

// =============================================================================
// RECONCILIATION TYPES
// =============================================================================

// Flags recorded on reconciliation records. These are data-quality
// signals, not errors: the run carries on and the report makes them
// visible.
const (
	// FlagNoTotalFound marks an order where no line item carried a
	// non-zero order total.
	FlagNoTotalFound = "NoTotalFound"

	// FlagZeroGrossValue marks an order whose line items sum to zero
	// gross value. A proportional split of a non-zero total across
	// zero-weight items has no canonical answer, so allocation is skipped
	// and all allocated fields stay at zero.
	FlagZeroGrossValue = "ZeroGrossValue"

	// FlagMultipleTotalRows marks an order where more than one line item
	// carried a non-zero order total. The first encountered wins; the flag
	// surfaces the upstream data-quality problem.
	FlagMultipleTotalRows = "MultipleTotalRows"

	// FlagReconciliationMismatch marks an order whose allocated sums
	// differ from the order-level figures beyond tolerance.
	FlagReconciliationMismatch = "ReconciliationMismatch"
)

// Reconciliation is the allocation engine's verification record for one
// order: the original order-level figures against the sums of the
// allocated line-item figures. This is a first-class output of the
// engine and becomes one row of the report's reconciliation sheet.
type Reconciliation struct {
	Channel string
	OrderID string

	OriginalTotal  decimal.Decimal
	AllocatedTotal decimal.Decimal
	TotalDelta     decimal.Decimal

	OriginalDiscount  decimal.Decimal
	AllocatedDiscount decimal.Decimal
	DiscountDelta     decimal.Decimal

	// Passed is true when both absolute deltas are below tolerance.
	// An order with a zero original total always passes; there is nothing
	// to reconcile.
	Passed bool

	// Flags carries any of the Flag* constants raised for this order.
	Flags []string
}

// HasFlag reports whether the record carries the given flag.
func (r Reconciliation) HasFlag(flag string) bool {
	for _, f := range r.Flags {
		if f == flag {
			return true
		}
	}
	return false
}

// =============================================================================
// SUMMARY TYPES
// =============================================================================

// ChannelSummary holds the aggregate statistics for one channel.
type ChannelSummary struct {
	Channel string

	// OrderCount is the number of unique order ids.
	OrderCount int

	// ItemCount is the number of line-item rows.
	ItemCount int

	// Revenue is the sum of each line item's actual amount.
	Revenue decimal.Decimal

	// Discount is the sum of the order-level discounts.
	Discount decimal.Decimal

	// Profit is the sum of line profits. For channels without cost data
	// this equals Revenue, a documented approximation.
	Profit decimal.Decimal

	// MarginPct is Profit/Revenue*100, 0 when Revenue is 0.
	MarginPct decimal.Decimal

	// SharePct is this channel's revenue share of the overall revenue,
	// 0 when overall revenue is 0.
	SharePct decimal.Decimal

	// AvgOrderValue is Revenue/OrderCount, 0 when OrderCount is 0.
	AvgOrderValue decimal.Decimal
}

// OverallSummary holds the aggregate statistics across all channels.
type OverallSummary struct {
	OrderCount    int
	ItemCount     int
	Revenue       decimal.Decimal
	Discount      decimal.Decimal
	Profit        decimal.Decimal
	MarginPct     decimal.Decimal
	AvgOrderValue decimal.Decimal
}
