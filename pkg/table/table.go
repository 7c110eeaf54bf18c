package table

import (
	"fmt"
	"slices"
	"strconv"
	"time"
)

const (
	// ValueColumn holds the numeric observation of a long table.
	ValueColumn = "value"
	// StatisticColumn is the canonical name of the statistic dimension.
	StatisticColumn = "Statistic"
	// IDSuffix names the companion column holding a dimension's codes.
	IDSuffix = " ID"
)

// IDColumn returns the companion ID column name for dimension dim.
func IDColumn(dim string) string { return dim + IDSuffix }

// Table is an ordered, column-labelled collection of rows. Cells are nil,
// string, float64, int, time.Time or, in spatial tables, orb.Geometry.
type Table struct {
	Columns []string
	Rows    [][]any
}

// New returns an empty table with the given columns.
func New(columns ...string) *Table {
	return &Table{Columns: slices.Clone(columns)}
}

// Len returns the number of rows.
func (t *Table) Len() int { return len(t.Rows) }

// Index returns the position of column name, or -1.
func (t *Table) Index(name string) int {
	return slices.Index(t.Columns, name)
}

// Has reports whether the table has column name.
func (t *Table) Has(name string) bool { return t.Index(name) >= 0 }

// Append adds a row. It panics if the row width does not match the columns.
func (t *Table) Append(values ...any) {
	if len(values) != len(t.Columns) {
		panic(fmt.Sprintf("table: row has %d values, want %d", len(values), len(t.Columns)))
	}
	t.Rows = append(t.Rows, values)
}

// Value returns the cell at row i in column name, or nil when the column is
// absent.
func (t *Table) Value(i int, name string) any {
	idx := t.Index(name)
	if idx < 0 {
		return nil
	}
	return t.Rows[i][idx]
}

// Clone returns a copy with fresh column and row slices. Cell values are
// shared.
func (t *Table) Clone() *Table {
	out := &Table{Columns: slices.Clone(t.Columns), Rows: make([][]any, len(t.Rows))}
	for i, row := range t.Rows {
		out.Rows[i] = slices.Clone(row)
	}
	return out
}

// Filter returns a new table holding the rows keep accepts.
func (t *Table) Filter(keep func(row []any) bool) *Table {
	out := &Table{Columns: slices.Clone(t.Columns)}
	for _, row := range t.Rows {
		if keep(row) {
			out.Rows = append(out.Rows, slices.Clone(row))
		}
	}
	return out
}

// Drop returns a new table without the named columns. Unknown names are
// ignored.
func (t *Table) Drop(names ...string) *Table {
	var keep []int
	for i, c := range t.Columns {
		if !slices.Contains(names, c) {
			keep = append(keep, i)
		}
	}
	return t.project(keep)
}

// MoveLast returns a new table with column name moved to the end.
func (t *Table) MoveLast(name string) *Table {
	idx := t.Index(name)
	if idx < 0 {
		return t.Clone()
	}
	order := make([]int, 0, len(t.Columns))
	for i := range t.Columns {
		if i != idx {
			order = append(order, i)
		}
	}
	return t.project(append(order, idx))
}

// Rename renames columns in place according to fn.
func (t *Table) Rename(fn func(string) string) {
	for i, c := range t.Columns {
		t.Columns[i] = fn(c)
	}
}

// InsertAfter inserts column name right after column after, filling it
// with fn applied to each row's value of after. It is a no-op when after is
// absent or name already exists.
func (t *Table) InsertAfter(after, name string, fn func(any) any) {
	idx := t.Index(after)
	if idx < 0 || t.Has(name) {
		return
	}
	t.Columns = slices.Insert(t.Columns, idx+1, name)
	for i, row := range t.Rows {
		t.Rows[i] = slices.Insert(row, idx+1, fn(row[idx]))
	}
}

func (t *Table) project(order []int) *Table {
	out := &Table{Columns: make([]string, len(order)), Rows: make([][]any, len(t.Rows))}
	for j, i := range order {
		out.Columns[j] = t.Columns[i]
	}
	for r, row := range t.Rows {
		nr := make([]any, len(order))
		for j, i := range order {
			nr[j] = row[i]
		}
		out.Rows[r] = nr
	}
	return out
}

// FormatCell renders a cell as text: nil is empty, floats use the shortest
// representation and times render as dates.
func FormatCell(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	case int:
		return strconv.Itoa(x)
	case time.Time:
		if x.Hour() == 0 && x.Minute() == 0 && x.Second() == 0 && x.Nanosecond() == 0 {
			return x.Format(time.DateOnly)
		}
		return x.Format(time.RFC3339)
	case fmt.Stringer:
		return x.String()
	default:
		return fmt.Sprint(x)
	}
}
