package pipeline

import (
	"path/filepath"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/mistudio/order-report/internal/config"
	"github.com/mistudio/order-report/internal/costjoin"
	"github.com/mistudio/order-report/internal/normalizer"
	"github.com/mistudio/order-report/internal/types"
)

func d(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func writeExport(t *testing.T, rows [][]interface{}) string {
	t.Helper()

	f := excelize.NewFile()
	defer f.Close()

	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		require.NoError(t, err)
		require.NoError(t, f.SetSheetRow("Sheet1", cell, &row))
	}

	path := filepath.Join(t.TempDir(), "Shopify_Orders.xlsx")
	require.NoError(t, f.SaveAs(path))
	return path
}

func shopifyConfig() *config.ChannelConfig {
	return &config.ChannelConfig{
		ChannelName: "Shopify",
		HasCostData: true,
		Columns: map[string][]string{
			config.FieldOrderID:       {"Name"},
			config.FieldProductName:   {"Lineitem name"},
			config.FieldQuantity:      {"Lineitem quantity"},
			config.FieldUnitPrice:     {"Lineitem price"},
			config.FieldOrderTotal:    {"Total"},
			config.FieldOrderDiscount: {"Discount Amount"},
		},
		RequiredFields: []string{config.FieldOrderID},
		DateFormats:    []string{"2006-01-02"},
	}
}

func TestRunFullPipeline(t *testing.T) {
	// One two-line order: gross 20 + 30, total 45, discount 5 on the
	// first row.
	path := writeExport(t, [][]interface{}{
		{"Name", "Lineitem name", "Lineitem quantity", "Lineitem price", "Total", "Discount Amount"},
		{"#1001", "Mug", "2", "10", "45", "5"},
		{"#1001", "Poster", "1", "30", "", ""},
	})
	costIndex := costjoin.Index{
		"Mug": {ProductName: "Mug", SKU: "MUG-01", UnitCost: d("4")},
	}

	p := New(path, shopifyConfig(), &config.MainConfig{})
	p.SetLogger(NewConsoleLogger(false))
	result := p.Run(costIndex)

	require.True(t, result.Success, "error: %v", result.Error)
	assert.Equal(t, "Shopify", result.Channel)
	assert.Equal(t, path, result.InputFile)
	assert.Equal(t, 2, result.Stats.RowsProcessed)
	assert.Equal(t, 1, result.Stats.OrdersProcessed)
	assert.Equal(t, 0, result.Stats.FlaggedOrders)

	require.Len(t, result.Items, 2)
	mug := result.Items[0]
	assert.Equal(t, "MUG-01", mug.SKU)
	assert.True(t, mug.UnitCost.Equal(d("4")))
	assert.True(t, mug.LineProfit.Equal(d("12")))
	assert.True(t, mug.AllocatedAmount.Equal(d("18")))
	assert.True(t, mug.AllocatedDiscount.Equal(d("2")))

	poster := result.Items[1]
	assert.True(t, poster.UnitCost.IsZero())
	assert.True(t, poster.AllocatedAmount.Equal(d("27")))

	require.NotNil(t, result.JoinStats)
	assert.Equal(t, 1, result.JoinStats.Matched)
	assert.Equal(t, []string{"Poster"}, result.JoinStats.UnmatchedProducts)

	require.NotNil(t, result.Resolution)
	assert.Equal(t, "Name", result.Resolution.SourceFor(config.FieldOrderID))

	require.Len(t, result.Reconciliations, 1)
	assert.True(t, result.Reconciliations[0].Passed)
}

func TestRunWithoutCostData(t *testing.T) {
	path := writeExport(t, [][]interface{}{
		{"Name", "Lineitem name", "Lineitem quantity", "Lineitem price", "Total"},
		{"P-1", "Pin", "3", "100", "300"},
	})

	cfg := shopifyConfig()
	cfg.ChannelName = "Pinkoi"
	cfg.HasCostData = false

	result := New(path, cfg, &config.MainConfig{}).Run(nil)

	require.True(t, result.Success, "error: %v", result.Error)
	assert.Nil(t, result.JoinStats)
	assert.True(t, result.Items[0].UnitCost.IsZero())
	assert.True(t, result.Items[0].AllocatedAmount.Equal(d("300")))
}

func TestRunFlagsZeroGrossOrder(t *testing.T) {
	path := writeExport(t, [][]interface{}{
		{"Name", "Lineitem name", "Lineitem quantity", "Lineitem price", "Total"},
		{"#1", "Mug", "0", "0", "50"},
	})

	result := New(path, shopifyConfig(), &config.MainConfig{}).Run(costjoin.Index{})

	require.True(t, result.Success, "error: %v", result.Error)
	assert.Equal(t, 1, result.Stats.FlaggedOrders)
	require.Len(t, result.Reconciliations, 1)
	assert.True(t, result.Reconciliations[0].HasFlag(types.FlagZeroGrossValue))
}

func TestRunMissingRequiredColumn(t *testing.T) {
	path := writeExport(t, [][]interface{}{
		{"Lineitem name", "Total"},
		{"Mug", "50"},
	})

	result := New(path, shopifyConfig(), &config.MainConfig{}).Run(costjoin.Index{})

	assert.False(t, result.Success)
	var missing *normalizer.MissingColumnError
	require.ErrorAs(t, result.Error, &missing)
	assert.Equal(t, config.FieldOrderID, missing.Field)
	assert.Empty(t, result.Items)
}

func TestRunMissingFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "absent.xlsx")

	result := New(path, shopifyConfig(), &config.MainConfig{}).Run(costjoin.Index{})

	assert.False(t, result.Success)
	assert.Error(t, result.Error)
}
