// =============================================================================
// Monthly Order Report - Schema Normalizer
// =============================================================================
//
// This module maps a channel export's rows onto the canonical line-item
// schema. Channel configs declare, per canonical field, an ordered list
// of acceptable source column names; resolution happens once per table
// and the outcome is returned as structured data rather than printed ad
// hoc.
//
// COERCION RULES:
//   - A canonical field with no matching source column is left unset:
//     numeric fields default to 0, string fields to "". Not an error.
//   - Unparsable numeric values become 0. Never an error.
//   - Unparsable dates become the zero time. Never an error.
//   - A required field (at minimum order_id) with no matching source
//     column fails the run with a MissingColumnError before any output
//     is produced.
//
// =============================================================================

package normalizer

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/mistudio/order-report/internal/config"
	"github.com/mistudio/order-report/internal/types"
	"github.com/mistudio/order-report/internal/xlsxreader"
)

// =============================================================================
// ERROR TYPES
// =============================================================================

// MissingColumnError reports that a required canonical field found no
// source column among its configured aliases. This is the only fatal
// outcome of normalization.
type MissingColumnError struct {
	// Channel is the channel whose export is missing the column.
	Channel string

	// Field is the canonical field that could not be resolved.
	Field string

	// Candidates are the alias names that were tried, in order.
	Candidates []string
}

// Error implements the error interface.
func (e *MissingColumnError) Error() string {
	return fmt.Sprintf("channel %s: required field %q has no source column (tried: %s)",
		e.Channel, e.Field, strings.Join(e.Candidates, ", "))
}

// =============================================================================
// RESOLUTION STRUCTURE
// =============================================================================

// FieldMatch records the resolution outcome for one canonical field.
type FieldMatch struct {
	// Canonical is the canonical field name.
	Canonical string

	// Source is the source column that won, or "" when no alias matched.
	Source string
}

// Resolution is the per-table outcome of alias resolution, in canonical
// schema order. It is printed under --verbose and drives the validate
// command.
type Resolution struct {
	Channel string
	Matches []FieldMatch
}

// SourceFor returns the resolved source column for a canonical field,
// or "" when the field is unresolved.
func (r *Resolution) SourceFor(canonical string) string {
	for _, m := range r.Matches {
		if m.Canonical == canonical {
			return m.Source
		}
	}
	return ""
}

// =============================================================================
// NORMALIZATION
// =============================================================================

// Normalize maps a channel export table onto canonical line items.
// It resolves column aliases once, checks required fields, then converts
// every row. The returned items carry the channel tag and the 1-based
// source row number; order-level fields are carried through as found
// (sparse, to be interpreted by the allocation engine).
func Normalize(table *xlsxreader.Table, cfg *config.ChannelConfig) ([]types.LineItem, *Resolution, error) {
	resolution := Resolve(table, cfg)

	if err := checkRequired(resolution, cfg); err != nil {
		return nil, resolution, err
	}

	items := make([]types.LineItem, 0, len(table.Rows))

	for i, row := range table.Rows {
		item := types.LineItem{
			Channel:       cfg.ChannelName,
			OrderID:       row[resolution.SourceFor(config.FieldOrderID)],
			OrderDate:     parseDate(row[resolution.SourceFor(config.FieldOrderDate)], cfg.DateFormats),
			CustomerName:  row[resolution.SourceFor(config.FieldCustomerName)],
			ProductName:   row[resolution.SourceFor(config.FieldProductName)],
			SKU:           row[resolution.SourceFor(config.FieldSKU)],
			Phone:         coalescePhone(row, table, cfg),
			Quantity:      ParseAmount(row[resolution.SourceFor(config.FieldQuantity)]),
			UnitPrice:     ParseAmount(row[resolution.SourceFor(config.FieldUnitPrice)]),
			OrderTotal:    ParseAmount(row[resolution.SourceFor(config.FieldOrderTotal)]),
			OrderDiscount: ParseAmount(row[resolution.SourceFor(config.FieldOrderDiscount)]),
			SourceRow:     table.RowNumbers[i],
		}
		items = append(items, item)
	}

	return items, resolution, nil
}

// Resolve matches each canonical field's alias list against the table's
// header row. The first alias present wins. The result is deterministic:
// fields are visited in canonical schema order and aliases in configured
// order.
func Resolve(table *xlsxreader.Table, cfg *config.ChannelConfig) *Resolution {
	resolution := &Resolution{Channel: cfg.ChannelName}

	for _, field := range config.CanonicalFields {
		source := ""
		for _, alias := range cfg.Columns[field] {
			if table.HasHeader(alias) {
				source = alias
				break
			}
		}
		resolution.Matches = append(resolution.Matches, FieldMatch{
			Canonical: field,
			Source:    source,
		})
	}

	return resolution
}

// checkRequired verifies that every required field resolved to a source
// column.
func checkRequired(resolution *Resolution, cfg *config.ChannelConfig) error {
	for _, field := range cfg.RequiredFields {
		if resolution.SourceFor(field) == "" {
			return &MissingColumnError{
				Channel:    cfg.ChannelName,
				Field:      field,
				Candidates: cfg.Columns[field],
			}
		}
	}
	return nil
}

// coalescePhone reads every configured phone alias present in the table
// and returns the first non-empty value. Channel exports split phone
// numbers across columns; the alias order expresses the preference.
func coalescePhone(row map[string]string, table *xlsxreader.Table, cfg *config.ChannelConfig) string {
	for _, alias := range cfg.Columns[config.FieldPhone] {
		if !table.HasHeader(alias) {
			continue
		}
		if value := strings.TrimSpace(row[alias]); value != "" {
			return value
		}
	}
	return ""
}

// =============================================================================
// VALUE COERCION
// =============================================================================

// ParseAmount converts a source cell to a decimal, recovering to zero on
// any parse failure. Thousands separators and leading currency markers
// are stripped first; exports are not consistent about them. Shared with
// the cost join, which faces the same hand-maintained cell formats.
func ParseAmount(value string) decimal.Decimal {
	value = strings.TrimSpace(value)
	if value == "" {
		return decimal.Zero
	}

	value = strings.ReplaceAll(value, ",", "")
	value = strings.TrimPrefix(value, "NT$")
	value = strings.TrimPrefix(value, "$")

	d, err := decimal.NewFromString(value)
	if err != nil {
		return decimal.Zero
	}
	return d
}

// parseDate tries each configured layout in order and returns the zero
// time when none matches.
func parseDate(value string, layouts []string) time.Time {
	value = strings.TrimSpace(value)
	if value == "" {
		return time.Time{}
	}

	for _, layout := range layouts {
		if t, err := time.Parse(layout, value); err == nil {
			return t
		}
	}
	return time.Time{}
}
