package profit

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mistudio/order-report/internal/types"
)

func d(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func TestAnnotate(t *testing.T) {
	items := []types.LineItem{
		{OrderID: "#1", Quantity: d("2"), UnitPrice: d("450"), UnitCost: d("120")},
		{OrderID: "#1", Quantity: d("1"), UnitPrice: d("85"), UnitCost: d("0")},
	}

	annotated := Annotate(items)
	require.Len(t, annotated, 2)

	assert.True(t, annotated[0].LineRevenue.Equal(d("900")))
	assert.True(t, annotated[0].LineCost.Equal(d("240")))
	assert.True(t, annotated[0].LineProfit.Equal(d("660")))
	assert.True(t, annotated[0].MarginPct.Round(2).Equal(d("73.33")),
		"margin %s", annotated[0].MarginPct)

	// No cost record: full margin.
	assert.True(t, annotated[1].LineProfit.Equal(d("85")))
	assert.True(t, annotated[1].MarginPct.Equal(d("100")))

	// Input untouched.
	assert.True(t, items[0].LineRevenue.IsZero())
}

func TestAnnotateReturnLine(t *testing.T) {
	// Negative quantity flips revenue and cost; the loss flows through.
	annotated := Annotate([]types.LineItem{
		{Quantity: d("-1"), UnitPrice: d("450"), UnitCost: d("120")},
	})

	assert.True(t, annotated[0].LineRevenue.Equal(d("-450")))
	assert.True(t, annotated[0].LineCost.Equal(d("-120")))
	assert.True(t, annotated[0].LineProfit.Equal(d("-330")))
	// Non-positive revenue yields no margin.
	assert.True(t, annotated[0].MarginPct.IsZero())
}

func TestMargin(t *testing.T) {
	assert.True(t, Margin(d("50"), d("200")).Equal(d("25")))
	assert.True(t, Margin(d("10"), d("0")).IsZero())
	assert.True(t, Margin(d("10"), d("-5")).IsZero())
}
