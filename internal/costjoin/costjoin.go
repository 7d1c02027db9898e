// =============================================================================
// Monthly Order Report - Cost Join
// =============================================================================
//
// This module enriches canonical line items with unit cost and SKU by
// looking up the product name against the cost reference table.
//
// JOIN RULES:
//   - The cost index is built as a pure function: rows with an empty
//     product name are dropped, and on duplicate names the first record
//     wins. The input table is never mutated.
//   - Unmatched line items receive unit_cost = 0 and sku = "". The join
//     never fails on unmatched rows; it reports a match-rate statistic
//     and the distinct unmatched product names instead.
//
// =============================================================================

package costjoin

import (
	"fmt"

	"github.com/mistudio/order-report/internal/normalizer"
	"github.com/mistudio/order-report/internal/types"
	"github.com/mistudio/order-report/internal/xlsxreader"
)

// Index is the deduplicated product-name lookup built from the cost
// reference table.
type Index map[string]types.CostRecord

// =============================================================================
// COST TABLE LOADING
// =============================================================================

// Source column candidates for the cost reference workbook, in
// preference order. The cost table is maintained by hand and its column
// names drift between exports.
var (
	productNameCandidates = []string{"Product Name", "Product_Name", "產品名稱", "商品名稱"}
	skuCandidates         = []string{"Variant SKU", "SKU", "Sku"}
	unitCostCandidates    = []string{"Cost", "Unit Cost", "單位成本", "成本"}
)

// ParseRecords converts a cost reference table into cost records.
// The product name and unit cost columns are required; the SKU column is
// optional and defaults to empty.
func ParseRecords(table *xlsxreader.Table) ([]types.CostRecord, error) {
	nameCol := firstPresent(table, productNameCandidates)
	if nameCol == "" {
		return nil, fmt.Errorf("cost table %s has no product name column (tried: %v)", table.File, productNameCandidates)
	}

	costCol := firstPresent(table, unitCostCandidates)
	if costCol == "" {
		return nil, fmt.Errorf("cost table %s has no unit cost column (tried: %v)", table.File, unitCostCandidates)
	}

	skuCol := firstPresent(table, skuCandidates)

	records := make([]types.CostRecord, 0, len(table.Rows))
	for _, row := range table.Rows {
		records = append(records, types.CostRecord{
			ProductName: row[nameCol],
			SKU:         row[skuCol],
			UnitCost:    normalizer.ParseAmount(row[costCol]),
		})
	}

	return records, nil
}

// firstPresent returns the first candidate present in the table's
// headers, or "".
func firstPresent(table *xlsxreader.Table, candidates []string) string {
	for _, c := range candidates {
		if table.HasHeader(c) {
			return c
		}
	}
	return ""
}

// =============================================================================
// INDEX BUILDING
// =============================================================================

// BuildIndex builds the deduplicated product-name index from cost
// records. Records with an empty product name are dropped; on duplicate
// names the first record wins.
func BuildIndex(records []types.CostRecord) Index {
	index := make(Index, len(records))

	for _, record := range records {
		if record.ProductName == "" {
			continue
		}
		if _, exists := index[record.ProductName]; exists {
			continue
		}
		index[record.ProductName] = record
	}

	return index
}

// =============================================================================
// JOIN
// =============================================================================

// Join attaches unit cost and SKU to each line item by product name.
// Input items are not modified; a new slice is returned together with
// the match statistics. Unmatched items keep unit_cost = 0 and sku = "".
func Join(items []types.LineItem, index Index) ([]types.LineItem, types.JoinStats) {
	joined := make([]types.LineItem, len(items))
	stats := types.JoinStats{Total: len(items)}
	seenUnmatched := make(map[string]bool)

	for i, item := range items {
		joined[i] = item

		record, ok := index[item.ProductName]
		if !ok {
			if !seenUnmatched[item.ProductName] {
				seenUnmatched[item.ProductName] = true
				stats.UnmatchedProducts = append(stats.UnmatchedProducts, item.ProductName)
			}
			continue
		}

		joined[i].UnitCost = record.UnitCost
		joined[i].SKU = record.SKU
		stats.Matched++
	}

	return joined, stats
}
