package normalizer

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mistudio/order-report/internal/config"
	"github.com/mistudio/order-report/internal/xlsxreader"
)

func testConfig() *config.ChannelConfig {
	return &config.ChannelConfig{
		ChannelName: "Shopify",
		Columns: map[string][]string{
			config.FieldOrderID:       {"Name", "Order No"},
			config.FieldOrderDate:     {"Created at"},
			config.FieldCustomerName:  {"Billing Name"},
			config.FieldProductName:   {"Lineitem name"},
			config.FieldQuantity:      {"Lineitem quantity"},
			config.FieldUnitPrice:     {"Lineitem price"},
			config.FieldOrderTotal:    {"Total"},
			config.FieldOrderDiscount: {"Discount Amount"},
			config.FieldSKU:           {"Lineitem sku"},
			config.FieldPhone:         {"Billing Phone", "Phone"},
		},
		RequiredFields: []string{config.FieldOrderID, config.FieldProductName},
		DateFormats:    []string{"2006-01-02 15:04:05 -0700", "2006-01-02"},
	}
}

func testTable(headers []string, rows ...map[string]string) *xlsxreader.Table {
	t := &xlsxreader.Table{
		File:    "test.xlsx",
		Sheet:   "Sheet1",
		Headers: headers,
		Rows:    rows,
	}
	for i := range rows {
		t.RowNumbers = append(t.RowNumbers, i+2)
	}
	return t
}

func TestResolveFirstAliasWins(t *testing.T) {
	// Both order id aliases are present; the earlier one is preferred.
	table := testTable([]string{"Order No", "Name", "Lineitem name"})

	res := Resolve(table, testConfig())

	assert.Equal(t, "Name", res.SourceFor(config.FieldOrderID))
	assert.Equal(t, "Lineitem name", res.SourceFor(config.FieldProductName))
	assert.Equal(t, "", res.SourceFor(config.FieldSKU))
}

func TestResolveCoversCanonicalSchema(t *testing.T) {
	table := testTable([]string{"Name"})

	res := Resolve(table, testConfig())

	require.Len(t, res.Matches, len(config.CanonicalFields))
	for i, field := range config.CanonicalFields {
		assert.Equal(t, field, res.Matches[i].Canonical)
	}
}

func TestNormalizeMissingRequiredColumn(t *testing.T) {
	table := testTable([]string{"Name"},
		map[string]string{"Name": "#1001"})

	items, _, err := Normalize(table, testConfig())

	assert.Nil(t, items)
	var missing *MissingColumnError
	require.ErrorAs(t, err, &missing)
	assert.Equal(t, config.FieldProductName, missing.Field)
	assert.Equal(t, "Shopify", missing.Channel)
	assert.Contains(t, missing.Candidates, "Lineitem name")
}

func TestNormalizeRow(t *testing.T) {
	table := testTable(
		[]string{"Name", "Created at", "Lineitem name", "Lineitem quantity", "Lineitem price", "Total", "Billing Phone"},
		map[string]string{
			"Name":              "#1001",
			"Created at":        "2025-06-03",
			"Lineitem name":     "Ceramic Mug",
			"Lineitem quantity": "2",
			"Lineitem price":    "NT$450",
			"Total":             "1,350.00",
			"Billing Phone":     "0912-345-678",
		},
	)

	items, res, err := Normalize(table, testConfig())
	require.NoError(t, err)
	require.Len(t, items, 1)

	li := items[0]
	assert.Equal(t, "Shopify", li.Channel)
	assert.Equal(t, "#1001", li.OrderID)
	assert.Equal(t, "Ceramic Mug", li.ProductName)
	assert.Equal(t, "0912-345-678", li.Phone)
	assert.Equal(t, time.Date(2025, 6, 3, 0, 0, 0, 0, time.UTC), li.OrderDate)
	assert.True(t, li.Quantity.Equal(decimal.NewFromInt(2)))
	assert.True(t, li.UnitPrice.Equal(decimal.NewFromInt(450)))
	assert.True(t, li.OrderTotal.Equal(decimal.RequireFromString("1350")))
	assert.True(t, li.GrossValue().Equal(decimal.NewFromInt(900)))
	assert.Equal(t, 2, li.SourceRow)

	assert.Equal(t, "Billing Phone", res.SourceFor(config.FieldPhone))
}

func TestNormalizePhoneCoalescing(t *testing.T) {
	table := testTable(
		[]string{"Name", "Lineitem name", "Billing Phone", "Phone"},
		map[string]string{"Name": "#1", "Lineitem name": "A", "Billing Phone": "111", "Phone": "222"},
		map[string]string{"Name": "#2", "Lineitem name": "B", "Billing Phone": "  ", "Phone": "222"},
		map[string]string{"Name": "#3", "Lineitem name": "C", "Billing Phone": "", "Phone": ""},
	)

	items, _, err := Normalize(table, testConfig())
	require.NoError(t, err)
	require.Len(t, items, 3)

	assert.Equal(t, "111", items[0].Phone)
	assert.Equal(t, "222", items[1].Phone)
	assert.Equal(t, "", items[2].Phone)
}

func TestNormalizeUnparsableValuesBecomeZero(t *testing.T) {
	table := testTable(
		[]string{"Name", "Created at", "Lineitem name", "Lineitem quantity", "Lineitem price"},
		map[string]string{
			"Name":              "#1001",
			"Created at":        "yesterday",
			"Lineitem name":     "Mug",
			"Lineitem quantity": "a few",
			"Lineitem price":    "???",
		},
	)

	items, _, err := Normalize(table, testConfig())
	require.NoError(t, err)

	assert.True(t, items[0].Quantity.IsZero())
	assert.True(t, items[0].UnitPrice.IsZero())
	assert.True(t, items[0].OrderDate.IsZero())
}

func TestParseAmount(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"", "0"},
		{"  ", "0"},
		{"42", "42"},
		{"-3.5", "-3.5"},
		{"1,234.50", "1234.5"},
		{"$19.99", "19.99"},
		{"NT$1,200", "1200"},
		{"abc", "0"},
		{"12three", "0"},
	}

	for _, tt := range tests {
		got := ParseAmount(tt.in)
		assert.True(t, got.Equal(decimal.RequireFromString(tt.want)),
			"ParseAmount(%q) = %s, want %s", tt.in, got, tt.want)
	}
}
