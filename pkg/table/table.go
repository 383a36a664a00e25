package table

import (
	"fmt"
	"strconv"
	"time"
)

// Table is a small in-memory column-addressed table. Cells hold one of:
// nil, string, float64 or time.Time. Tables are treated as immutable once
// built; every transforming operation returns a new Table.
type Table struct {
	cols   []string
	colIdx map[string]int
	rows   [][]any
}

// New returns an empty table with the given column order.
func New(cols ...string) *Table {
	t := &Table{
		cols:   append([]string(nil), cols...),
		colIdx: make(map[string]int, len(cols)),
	}
	for i, c := range cols {
		t.colIdx[c] = i
	}
	return t
}

// Columns returns the column names in order.
func (t *Table) Columns() []string {
	return append([]string(nil), t.cols...)
}

// HasColumn reports whether the named column exists.
func (t *Table) HasColumn(name string) bool {
	_, ok := t.colIdx[name]
	return ok
}

// HasColumns reports whether every named column exists.
func (t *Table) HasColumns(names ...string) bool {
	for _, n := range names {
		if !t.HasColumn(n) {
			return false
		}
	}
	return true
}

// NumRows returns the row count.
func (t *Table) NumRows() int {
	return len(t.rows)
}

// AppendRow appends one row. The cell count must match the column count.
func (t *Table) AppendRow(cells ...any) error {
	if len(cells) != len(t.cols) {
		return fmt.Errorf("table: row has %d cells, want %d", len(cells), len(t.cols))
	}
	t.rows = append(t.rows, append([]any(nil), cells...))
	return nil
}

// Row is a cursor over one table row.
type Row struct {
	t *Table
	i int
}

// Row returns a cursor for the i-th row.
func (t *Table) Row(i int) Row {
	return Row{t: t, i: i}
}

// Value returns the raw cell for the named column, nil when the column is
// absent.
func (r Row) Value(col string) any {
	idx, ok := r.t.colIdx[col]
	if !ok {
		return nil
	}
	return r.t.rows[r.i][idx]
}

// String returns the cell as a string. The second return is false for nil
// cells and absent columns.
func (r Row) String(col string) (string, bool) {
	return AsString(r.Value(col))
}

// Float returns the cell as a float64, 0 for nil cells, absent columns and
// non-numeric values.
func (r Row) Float(col string) float64 {
	f, _ := AsFloat(r.Value(col))
	return f
}

// Time returns the cell as a time.Time. The second return is false for nil
// cells, absent columns and non-time values.
func (r Row) Time(col string) (time.Time, bool) {
	return AsTime(r.Value(col))
}

// Select returns a table holding only the named columns, in the given
// order. Names missing from the table are ignored.
func (t *Table) Select(cols ...string) *Table {
	kept := make([]string, 0, len(cols))
	idxs := make([]int, 0, len(cols))
	for _, c := range cols {
		if i, ok := t.colIdx[c]; ok {
			kept = append(kept, c)
			idxs = append(idxs, i)
		}
	}
	out := New(kept...)
	for _, row := range t.rows {
		cells := make([]any, len(idxs))
		for j, i := range idxs {
			cells[j] = row[i]
		}
		out.rows = append(out.rows, cells)
	}
	return out
}

// Filter returns a table holding only the rows for which keep returns true.
func (t *Table) Filter(keep func(Row) bool) *Table {
	out := New(t.cols...)
	for i := range t.rows {
		if keep(t.Row(i)) {
			out.rows = append(out.rows, append([]any(nil), t.rows[i]...))
		}
	}
	return out
}

// WithColumn returns a table extended with a derived column computed per
// row. An existing column of the same name is overwritten in place.
func (t *Table) WithColumn(name string, derive func(Row) any) *Table {
	if i, ok := t.colIdx[name]; ok {
		out := New(t.cols...)
		for r := range t.rows {
			cells := append([]any(nil), t.rows[r]...)
			cells[i] = derive(t.Row(r))
			out.rows = append(out.rows, cells)
		}
		return out
	}
	out := New(append(t.Columns(), name)...)
	for r := range t.rows {
		cells := append([]any(nil), t.rows[r]...)
		cells = append(cells, derive(t.Row(r)))
		out.rows = append(out.rows, cells)
	}
	return out
}

// AsString normalizes a cell to a string. Floats and times stringify so
// that join keys of mixed source types still line up.
func AsString(v any) (string, bool) {
	switch x := v.(type) {
	case nil:
		return "", false
	case string:
		return x, true
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64), true
	case time.Time:
		if x.IsZero() {
			return "", false
		}
		return x.Format(time.RFC3339Nano), true
	default:
		return fmt.Sprintf("%v", v), true
	}
}

// AsFloat normalizes a cell to a float64.
func AsFloat(v any) (float64, bool) {
	switch x := v.(type) {
	case float64:
		return x, true
	case string:
		f, err := strconv.ParseFloat(x, 64)
		if err != nil {
			return 0, false
		}
		return f, true
	default:
		return 0, false
	}
}

// AsTime normalizes a cell to a time.Time. Zero times count as null.
func AsTime(v any) (time.Time, bool) {
	if x, ok := v.(time.Time); ok && !x.IsZero() {
		return x, true
	}
	return time.Time{}, false
}
