package dataset

import (
	"encoding/csv"
	"fmt"
	"log/slog"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

// WriteOptions configures CSV writing behavior
type WriteOptions struct {
	// BOMPrefix adds a UTF-8 BOM so Excel recognizes the encoding
	BOMPrefix bool
}

// ReadCSV loads a table from a CSV file. The first record is the header.
// Columns where every non-empty cell parses as a float become numeric;
// empty cells and the literals "nan"/"null" become numeric nulls. Anything
// else is kept as a string column.
func ReadCSV(filePath string) (*Table, error) {
	file, err := os.Open(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open file: %w", err)
	}
	defer file.Close()

	reader := csv.NewReader(file)
	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to read csv: %w", err)
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("csv file %s is empty", filePath)
	}

	header := records[0]
	// Strip a UTF-8 BOM left by Excel exports
	if len(header) > 0 {
		header[0] = strings.TrimPrefix(header[0], "\uFEFF")
	}
	rows := records[1:]

	slog.Debug("read csv file",
		slog.String("file_path", filePath),
		slog.Int("columns", len(header)),
		slog.Int("rows", len(rows)))

	table := New()
	for col, name := range header {
		cells := make([]string, len(rows))
		for i, rec := range rows {
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

// addCoerced adds cells as a numeric column when every non-null cell parses
// as a float, otherwise as a string column.
func addCoerced(table *Table, name string, cells []string) error {
	floats := make([]float64, len(cells))
	numeric := true
	for i, cell := range cells {
		v, ok := parseCell(cell)
		if !ok {
			numeric = false
			break
		}
		floats[i] = v
	}
	if numeric {
		return table.AddNumeric(name, floats)
	}
	return table.AddString(name, cells)
}

// parseCell parses a single cell as a float, treating empty and the usual
// null spellings as numeric null.
func parseCell(cell string) (float64, bool) {
	trimmed := strings.TrimSpace(cell)
	if trimmed == "" {
		return Null(), true
	}
	switch strings.ToLower(trimmed) {
	case "nan", "null", "na":
		return Null(), true
	}
	v, err := strconv.ParseFloat(trimmed, 64)
	if err != nil {
		return 0, false
	}
	return v, true
}

// WriteCSV writes the table to a CSV file, creating parent directories as
// needed. Numeric nulls are written as empty cells.
func WriteCSV(table *Table, filePath string, options WriteOptions) error {
	dir := filepath.Dir(filePath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}

	file, err := os.Create(filePath)
	if err != nil {
		return fmt.Errorf("failed to create file: %w", err)
	}
	defer file.Close()

	if options.BOMPrefix {
		if _, err := file.Write([]byte{0xEF, 0xBB, 0xBF}); err != nil {
			return fmt.Errorf("failed to write BOM: %w", err)
		}
	}

	writer := csv.NewWriter(file)
	defer writer.Flush()

	if err := writer.Write(table.ColumnNames()); err != nil {
		return fmt.Errorf("failed to write headers: %w", err)
	}

	cols := table.Columns()
	record := make([]string, len(cols))
	for i := 0; i < table.NumRows(); i++ {
		for j, c := range cols {
			record[j] = formatCell(c, i)
		}
		if err := writer.Write(record); err != nil {
			return fmt.Errorf("failed to write record %d: %w", i, err)
		}
	}

	slog.Info("wrote csv file",
		slog.String("file_path", filePath),
		slog.Int("rows", table.NumRows()),
		slog.Int("columns", table.NumColumns()))

	return writer.Error()
}

func formatCell(c *Column, i int) string {
	if c.Kind == String {
		return c.Strings[i]
	}
	v := c.Floats[i]
	if IsNull(v) {
		return ""
	}
	if math.IsInf(v, 0) {
		if v > 0 {
			return "+Inf"
		}
		return "-Inf"
	}
	return strconv.FormatFloat(v, 'g', -1, 64)
}
