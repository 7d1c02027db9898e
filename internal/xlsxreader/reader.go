// =============================================================================
// Monthly Order Report - XLSX Reader
// =============================================================================
//
// This module reads one worksheet of an XLSX workbook into a generic
// tabular structure: a header row plus one map per data row. It is the
// interface boundary for all spreadsheet input; everything downstream
// works on the returned Table and never touches excelize directly.
//
// READING RULES:
//   - The first non-empty row is the header row.
//   - Headers are trimmed; empty headers get a positional placeholder
//     name; duplicate headers get a numeric suffix.
//   - Fully empty rows are skipped.
//   - Rows shorter than the header are padded with empty strings.
//   - When the requested sheet does not exist, the reader falls back to
//     the workbook's first sheet (channel exports are not consistent
//     about sheet naming).
//
// =============================================================================

package xlsxreader

import (
	"fmt"
	"strings"

	"github.com/xuri/excelize/v2"
)

// =============================================================================
// TABLE STRUCTURE
// =============================================================================

// Table is one worksheet read into memory.
type Table struct {
	// File is the path of the source workbook.
	File string

	// Sheet is the name of the worksheet that was actually read.
	Sheet string

	// Headers are the cleaned header values, in column order.
	Headers []string

	// Rows holds one map per data row, keyed by header.
	Rows []map[string]string

	// RowNumbers holds the 1-based worksheet row number of each entry in
	// Rows, for operator messages.
	RowNumbers []int
}

// HasHeader reports whether the table's header row contains the given
// column name.
func (t *Table) HasHeader(name string) bool {
	for _, h := range t.Headers {
		if h == name {
			return true
		}
	}
	return false
}

// =============================================================================
// READING FUNCTIONS
// =============================================================================

// Read opens an XLSX workbook and reads the named worksheet into a Table.
// An empty sheet name selects the first sheet. A missing file or an
// unreadable workbook is a fatal error; a missing sheet falls back to the
// first sheet.
func Read(filePath, sheetName string) (*Table, error) {
	f, err := excelize.OpenFile(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open workbook %s: %w", filePath, err)
	}
	defer f.Close()

	resolved := resolveSheet(f, sheetName)
	if resolved == "" {
		return nil, fmt.Errorf("workbook %s has no sheets", filePath)
	}

	rows, err := f.GetRows(resolved)
	if err != nil {
		return nil, fmt.Errorf("failed to read sheet %q: %w", resolved, err)
	}

	table := &Table{
		File:  filePath,
		Sheet: resolved,
	}

	// Locate the header row: the first non-empty row.
	headerIndex := -1
	for i, row := range rows {
		if !isRowEmpty(row) {
			headerIndex = i
			break
		}
	}
	if headerIndex == -1 {
		return nil, fmt.Errorf("sheet %q in %s contains no data", resolved, filePath)
	}

	table.Headers = cleanHeaders(rows[headerIndex])

	// Extract data rows into maps keyed by header.
	for i := headerIndex + 1; i < len(rows); i++ {
		row := rows[i]
		if isRowEmpty(row) {
			continue
		}

		rowMap := make(map[string]string, len(table.Headers))
		for col, header := range table.Headers {
			if col < len(row) {
				rowMap[header] = strings.TrimSpace(row[col])
			} else {
				rowMap[header] = ""
			}
		}

		table.Rows = append(table.Rows, rowMap)
		table.RowNumbers = append(table.RowNumbers, i+1)
	}

	return table, nil
}

// resolveSheet returns the worksheet to read: the requested sheet when it
// exists, otherwise the workbook's first sheet.
func resolveSheet(f *excelize.File, sheetName string) string {
	if sheetName != "" {
		for _, name := range f.GetSheetList() {
			if name == sheetName {
				return name
			}
		}
	}
	return f.GetSheetName(0)
}

// =============================================================================
// HEADER HANDLING
// =============================================================================

// cleanHeaders trims header values, names empty headers by position and
// disambiguates duplicates with a numeric suffix.
func cleanHeaders(headers []string) []string {
	cleaned := make([]string, len(headers))
	seen := make(map[string]int, len(headers))

	for i, header := range headers {
		header = strings.TrimSpace(header)

		if header == "" {
			header = fmt.Sprintf("Column_%d", i+1)
		}

		if n, dup := seen[header]; dup {
			seen[header] = n + 1
			header = fmt.Sprintf("%s_%d", header, n+1)
		} else {
			seen[header] = 1
		}

		cleaned[i] = header
	}

	return cleaned
}

// isRowEmpty checks if a row contains only empty values.
func isRowEmpty(row []string) bool {
	for _, cell := range row {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}
