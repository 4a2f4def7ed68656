package dataset

import (
	"fmt"
	"log/slog"

	"github.com/xuri/excelize/v2"
)

// ReadExcel loads a table from an Excel workbook. When sheetName is empty
// the first sheet that yields a header row plus at least one data row is
// used, which tolerates workbooks with cover or notes sheets in front.
// Cell coercion follows the same rules as ReadCSV.
func ReadExcel(filePath, sheetName string) (*Table, error) {
	f, err := excelize.OpenFile(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open file: %w", err)
	}
	defer f.Close()

	var rows [][]string
	if sheetName != "" {
		rows, err = f.GetRows(sheetName)
		if err != nil {
			return nil, fmt.Errorf("failed to read sheet %q: %w", sheetName, err)
		}
	} else {
		for _, name := range f.GetSheetList() {
			candidate, rerr := f.GetRows(name)
			if rerr == nil && len(candidate) > 1 {
				rows = candidate
				sheetName = name
				break
			}
		}
		if sheetName == "" {
			return nil, fmt.Errorf("no sheet with data found in %s", filePath)
		}
	}

	if len(rows) == 0 {
		return nil, fmt.Errorf("sheet %q is empty", sheetName)
	}

	slog.Debug("read excel sheet",
		slog.String("file_path", filePath),
		slog.String("sheet_name", sheetName),
		slog.Int("total_rows", len(rows)))

	header := rows[0]
	dataRows := rows[1:]

	table := New()
	for col, name := range header {
		cells := make([]string, len(dataRows))
		for i, rec := range dataRows {
			// excelize trims trailing empty cells per row
			if col < len(rec) {
				cells[i] = rec[col]
			}
		}
		if err := addCoerced(table, name, cells); err != nil {
			return nil, err
		}
	}
	return table, nil
}
