package aggregator

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mistudio/order-report/internal/types"
)

func d(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func date(day int) time.Time {
	return time.Date(2025, 6, day, 0, 0, 0, 0, time.UTC)
}

func TestAggregateSummaries(t *testing.T) {
	shopify := ChannelResult{
		Channel:     "Shopify",
		HasCostData: true,
		Items: []types.LineItem{
			{Channel: "Shopify", OrderID: "#1", OrderDate: date(1),
				AllocatedAmount: d("300"), LineProfit: d("100"), OrderDiscount: d("20")},
			{Channel: "Shopify", OrderID: "#1", OrderDate: date(1),
				AllocatedAmount: d("100"), LineProfit: d("50")},
			{Channel: "Shopify", OrderID: "#2", OrderDate: date(2),
				AllocatedAmount: d("600"), LineProfit: d("150")},
		},
		Reconciliations: []types.Reconciliation{
			{Channel: "Shopify", OrderID: "#1", Passed: true},
			{Channel: "Shopify", OrderID: "#2", Passed: true},
		},
		JoinStats: &types.JoinStats{Total: 3, Matched: 2, UnmatchedProducts: []string{"Poster"}},
	}
	pinkoi := ChannelResult{
		Channel:     "Pinkoi",
		HasCostData: false,
		Items: []types.LineItem{
			{Channel: "Pinkoi", OrderID: "P-1", OrderDate: date(3), AllocatedAmount: d("1000")},
		},
		Reconciliations: []types.Reconciliation{
			{Channel: "Pinkoi", OrderID: "P-1", Passed: true},
		},
	}

	report := Aggregate([]ChannelResult{shopify, pinkoi})

	require.Len(t, report.Summaries, 2)

	s := report.Summaries[0]
	assert.Equal(t, "Shopify", s.Channel)
	assert.Equal(t, 2, s.OrderCount)
	assert.Equal(t, 3, s.ItemCount)
	assert.True(t, s.Revenue.Equal(d("1000")))
	assert.True(t, s.Discount.Equal(d("20")))
	assert.True(t, s.Profit.Equal(d("300")))
	assert.True(t, s.MarginPct.Equal(d("30")))
	assert.True(t, s.SharePct.Equal(d("50")))
	assert.True(t, s.AvgOrderValue.Equal(d("500")))

	// Channel without cost data: profit approximated by revenue.
	p := report.Summaries[1]
	assert.True(t, p.Profit.Equal(d("1000")))
	assert.True(t, p.MarginPct.Equal(d("100")))
	assert.True(t, p.SharePct.Equal(d("50")))

	o := report.Overall
	assert.Equal(t, 3, o.OrderCount)
	assert.Equal(t, 4, o.ItemCount)
	assert.True(t, o.Revenue.Equal(d("2000")))
	assert.True(t, o.Profit.Equal(d("1300")))
	assert.True(t, o.MarginPct.Equal(d("65")))

	require.Len(t, report.Reconciliations, 3)
	assert.Equal(t, "Shopify", report.Reconciliations[0].Channel)
	assert.Equal(t, "Pinkoi", report.Reconciliations[2].Channel)

	require.Contains(t, report.JoinStats, "Shopify")
	assert.NotContains(t, report.JoinStats, "Pinkoi")
}

func TestAggregateCostlessMarginPerItem(t *testing.T) {
	result := ChannelResult{
		Channel: "Pinkoi",
		Items: []types.LineItem{
			// No allocation ran: actual amount falls back to gross value.
			{OrderID: "P-1", Quantity: d("2"), UnitPrice: d("150")},
		},
	}

	report := Aggregate([]ChannelResult{result})

	item := report.Channels[0].Items[0]
	assert.True(t, item.LineProfit.Equal(d("300")))
	assert.True(t, item.MarginPct.Equal(d("100")))
}

func TestAggregateSortsDetailRows(t *testing.T) {
	result := ChannelResult{
		Channel:     "Shopify",
		HasCostData: true,
		Items: []types.LineItem{
			{OrderID: "#9", OrderDate: date(5)},
			{OrderID: "#2", OrderDate: date(1)},
			{OrderID: "#1", OrderDate: date(1)},
			{OrderID: "#2", OrderDate: date(1), ProductName: "second row"},
		},
	}

	report := Aggregate([]ChannelResult{result})

	items := report.Channels[0].Items
	require.Len(t, items, 4)
	assert.Equal(t, "#1", items[0].OrderID)
	assert.Equal(t, "#2", items[1].OrderID)
	// Stable sort: rows of the same order keep their input order.
	assert.Equal(t, "", items[1].ProductName)
	assert.Equal(t, "second row", items[2].ProductName)
	assert.Equal(t, "#9", items[3].OrderID)
}

func TestAggregateEmpty(t *testing.T) {
	report := Aggregate(nil)

	assert.Empty(t, report.Channels)
	assert.True(t, report.Overall.Revenue.IsZero())
	assert.True(t, report.Overall.MarginPct.IsZero())
	assert.True(t, report.Overall.AvgOrderValue.IsZero())
}
