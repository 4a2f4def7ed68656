// Package dataset provides the in-memory tabular dataset consumed and
// produced by the standardization engine.
//
// A Table is a set of named columns of equal length. Numeric cells are
// float64 with NaN as the null marker (infinities are preserved on load and
// left to the engine's missing-value handling). String columns carry
// grouping fields such as dates or instrument identifiers and pass through
// the engine untouched. Row order is stable: the engine relies on it for
// row identity.
package dataset

import (
	"fmt"
	"math"
)

// Kind identifies the cell type of a column
type Kind int

const (
	// Numeric columns hold float64 cells with NaN as null
	Numeric Kind = iota
	// String columns hold text cells with "" as null
	String
)

// String returns the string representation of the kind
func (k Kind) String() string {
	switch k {
	case Numeric:
		return "numeric"
	case String:
		return "string"
	default:
		return "unknown"
	}
}

// IsNull reports whether a numeric cell is null
func IsNull(v float64) bool {
	return math.IsNaN(v)
}

// Null returns the null marker for numeric cells
func Null() float64 {
	return math.NaN()
}

// Column is a single named column of a table
type Column struct {
	Name    string
	Kind    Kind
	Floats  []float64
	Strings []string
}

// Len returns the number of cells in the column
func (c *Column) Len() int {
	if c.Kind == Numeric {
		return len(c.Floats)
	}
	return len(c.Strings)
}

// CellString returns the cell at index i rendered as a string, with a
// distinct marker for numeric nulls so group keys keep null patterns apart
func (c *Column) CellString(i int) string {
	if c.Kind == String {
		return c.Strings[i]
	}
	v := c.Floats[i]
	if IsNull(v) {
		return "<null>"
	}
	return fmt.Sprintf("%g", v)
}

// Table is an ordered collection of equal-length columns
type Table struct {
	columns []*Column
	index   map[string]int
}

// New creates an empty table
func New() *Table {
	return &Table{index: make(map[string]int)}
}

// NumRows returns the number of rows in the table
func (t *Table) NumRows() int {
	if len(t.columns) == 0 {
		return 0
	}
	return t.columns[0].Len()
}

// NumColumns returns the number of columns in the table
func (t *Table) NumColumns() int {
	return len(t.columns)
}

// Columns returns the columns in insertion order
func (t *Table) Columns() []*Column {
	return t.columns
}

// ColumnNames returns the column names in insertion order
func (t *Table) ColumnNames() []string {
	names := make([]string, len(t.columns))
	for i, c := range t.columns {
		names[i] = c.Name
	}
	return names
}

// Column returns the named column, or false if it does not exist
func (t *Table) Column(name string) (*Column, bool) {
	i, ok := t.index[name]
	if !ok {
		return nil, false
	}
	return t.columns[i], true
}

// HasColumn reports whether the named column exists
func (t *Table) HasColumn(name string) bool {
	_, ok := t.index[name]
	return ok
}

func (t *Table) add(c *Column) error {
	if c.Name == "" {
		return fmt.Errorf("column name must not be empty")
	}
	if _, exists := t.index[c.Name]; exists {
		return fmt.Errorf("duplicate column %q", c.Name)
	}
	if len(t.columns) > 0 && c.Len() != t.NumRows() {
		return fmt.Errorf("column %q has %d rows, table has %d", c.Name, c.Len(), t.NumRows())
	}
	t.index[c.Name] = len(t.columns)
	t.columns = append(t.columns, c)
	return nil
}

// AddNumeric appends a numeric column to the table
func (t *Table) AddNumeric(name string, values []float64) error {
	return t.add(&Column{Name: name, Kind: Numeric, Floats: values})
}

// AddString appends a string column to the table
func (t *Table) AddString(name string, values []string) error {
	return t.add(&Column{Name: name, Kind: String, Strings: values})
}

// SetNumeric adds the column, or replaces its cells in place when a column
// with that name already exists. A replaced column keeps its position but
// always becomes numeric.
func (t *Table) SetNumeric(name string, values []float64) error {
	i, exists := t.index[name]
	if !exists {
		return t.AddNumeric(name, values)
	}
	if len(t.columns) > 0 && len(values) != t.NumRows() {
		return fmt.Errorf("column %q has %d rows, table has %d", name, len(values), t.NumRows())
	}
	t.columns[i] = &Column{Name: name, Kind: Numeric, Floats: values}
	return nil
}

// Clone returns a deep copy of the table
func (t *Table) Clone() *Table {
	out := New()
	for _, c := range t.columns {
		nc := &Column{Name: c.Name, Kind: c.Kind}
		if c.Kind == Numeric {
			nc.Floats = append([]float64(nil), c.Floats...)
		} else {
			nc.Strings = append([]string(nil), c.Strings...)
		}
		// add cannot fail: names and lengths come from a valid table
		_ = out.add(nc)
	}
	return out
}
