// =============================================================================
// Monthly Order Report - Profit Calculator
// =============================================================================
//
// Pure per-line profit derivation from quantity, selling price and unit
// cost. No rounding happens here; formatting is the report writer's job.
//
// =============================================================================

package profit

import (
	"github.com/shopspring/decimal"

	"github.com/mistudio/order-report/internal/types"
)

var hundred = decimal.NewFromInt(100)

// Annotate returns a new slice of line items with LineRevenue, LineCost,
// LineProfit and MarginPct filled in. Inputs are not modified.
//
//	line_revenue = quantity * unit_price
//	line_cost    = quantity * unit_cost
//	line_profit  = line_revenue - line_cost
//	margin_pct   = 100 * line_profit / line_revenue   (0 when revenue <= 0)
func Annotate(items []types.LineItem) []types.LineItem {
	annotated := make([]types.LineItem, len(items))

	for i, item := range items {
		annotated[i] = item
		annotated[i].LineRevenue = item.Quantity.Mul(item.UnitPrice)
		annotated[i].LineCost = item.Quantity.Mul(item.UnitCost)
		annotated[i].LineProfit = annotated[i].LineRevenue.Sub(annotated[i].LineCost)
		annotated[i].MarginPct = Margin(annotated[i].LineProfit, annotated[i].LineRevenue)
	}

	return annotated
}

// Margin returns 100*profit/revenue, or zero when revenue is not
// positive. Shared by the aggregator for channel-level margins.
func Margin(profit, revenue decimal.Decimal) decimal.Decimal {
	if !revenue.IsPositive() {
		return decimal.Zero
	}
	return profit.Mul(hundred).Div(revenue)
}
