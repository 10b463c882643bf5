package mincolor

import (
	"fmt"
	"strings"

	"github.com/xuri/excelize/v2"
)

// Spreadsheet layout. Column indices are 0-based (A=0, B=1).
const (
	nameColumn  = 0
	valueColumn = 1
)

// ReadSpreadsheet reads a theme from the first sheet of an .xlsx workbook:
//
//	| Column A        | Column B |
//	|-----------------|----------|
//	| name            | value    |  <- optional header row
//	| --color-fg      | #24292f  |
//	| --color-canvas  | #ffffff  |
//
// Rows with an empty name cell are skipped. A row with a name but no value is
// a parse error, reported with its 1-based row number.
func ReadSpreadsheet(path string) (*Theme, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open theme spreadsheet: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, fmt.Errorf("theme spreadsheet %s has no sheets", path)
	}

	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("failed to read sheet %q of %s: %w", sheets[0], path, err)
	}

	theme := NewTheme(path)
	for i, row := range rows {
		name := cell(row, nameColumn)
		value := cell(row, valueColumn)

		if name == "" {
			continue
		}
		if i == 0 && isHeaderRow(name, value) {
			continue
		}
		if value == "" {
			return nil, &ParseError{Path: path, Line: i + 1, Text: name, Err: ErrMissingValue}
		}

		theme.Set(name, value)
	}

	return theme, nil
}

// cell returns the trimmed cell at column col, or "" past the row's end.
func cell(row []string, col int) string {
	if col >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[col])
}

func isHeaderRow(name, value string) bool {
	return strings.EqualFold(name, "name") && strings.EqualFold(value, "value")
}
