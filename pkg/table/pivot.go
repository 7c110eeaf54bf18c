package table

import (
	"errors"
	"fmt"
	"slices"
	"sort"
	"strings"
)

// Format selects the shape of an observation table.
type Format int

const (
	// Long has one row per observation.
	Long Format = iota
	// Wide has one column per time period.
	Wide
	// Tidy has one column per statistic.
	Tidy
)

func (f Format) String() string {
	switch f {
	case Wide:
		return "wide"
	case Tidy:
		return "tidy"
	default:
		return "long"
	}
}

// ParseFormat converts a format name (case-insensitive) to a Format.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "long":
		return Long, nil
	case "wide":
		return Wide, nil
	case "tidy":
		return Tidy, nil
	default:
		return Long, fmt.Errorf("table: unknown format %q (want long, wide or tidy)", s)
	}
}

var (
	// ErrMissingColumn reports that a column required for pivoting is absent.
	ErrMissingColumn = errors.New("table: missing column")
	// ErrDuplicateEntries reports that an index/pivot combination occurs more
	// than once, so pivoting would lose data.
	ErrDuplicateEntries = errors.New("table: duplicate entries")
	// ErrColumnCollision reports a pivot value whose column name is already
	// taken by an index column or by a different pivot value.
	ErrColumnCollision = errors.New("table: column name collision")
)

// PivotError describes why a table could not be reshaped.
type PivotError struct {
	Format Format
	Column string
	// Combination is the first duplicated index/pivot combination, as
	// column=value pairs.
	Combination []string
	Err         error
}

func (e *PivotError) Error() string {
	if len(e.Combination) > 0 {
		return fmt.Sprintf("table: cannot pivot to %s format on %q: %v for [%s]",
			e.Format, e.Column, e.Err, strings.Join(e.Combination, ", "))
	}
	return fmt.Sprintf("table: cannot pivot to %s format on %q: %v", e.Format, e.Column, e.Err)
}

func (e *PivotError) Unwrap() error { return e.Err }

// PivotWide reshapes a long table so that each distinct value of
// timeVariable becomes a column holding the observation value. Rows appear in
// the order their index combination first occurs in t.
func PivotWide(t *Table, timeVariable string) (*Table, error) {
	return pivot(t, timeVariable, Wide)
}

// PivotTidy reshapes a long table so that each statistic becomes a column.
// Statistic columns follow all other columns.
func PivotTidy(t *Table) (*Table, error) {
	return pivot(t, StatisticColumn, Tidy)
}

type group struct {
	key    []any
	first  int
	values map[string]any
}

// pivot tags each row with its position, groups rows on every column other
// than the pivot column, its ID companion and the value, then orders groups by
// the earliest position they contain. Rows with no pivot value are skipped.
func pivot(t *Table, column string, format Format) (*Table, error) {
	pivotIdx := t.Index(column)
	if pivotIdx < 0 {
		return nil, &PivotError{Format: format, Column: column, Err: ErrMissingColumn}
	}
	valueIdx := t.Index(ValueColumn)
	if valueIdx < 0 {
		return nil, &PivotError{Format: format, Column: ValueColumn, Err: ErrMissingColumn}
	}

	idIdx := t.Index(IDColumn(column))
	var indexCols []int
	for i := range t.Columns {
		if i != pivotIdx && i != valueIdx && i != idIdx {
			indexCols = append(indexCols, i)
		}
	}

	taken := map[string]bool{}
	for _, i := range indexCols {
		taken[t.Columns[i]] = true
	}

	var (
		groups     []*group
		byKey      = map[string]*group{}
		pivotNames []string
		// pivot column name -> cellKey of the value that claimed it
		seenPivot = map[string]string{}
	)
	for pos, row := range t.Rows {
		if row[pivotIdx] == nil {
			continue
		}
		name := FormatCell(row[pivotIdx])
		vk := cellKey(row[pivotIdx : pivotIdx+1])
		claimed, seen := seenPivot[name]
		if (seen && claimed != vk) || (!seen && taken[name]) {
			return nil, &PivotError{
				Format:      format,
				Column:      column,
				Combination: []string{fmt.Sprintf("%s=%s", column, name)},
				Err:         ErrColumnCollision,
			}
		}

		key := make([]any, len(indexCols))
		for j, i := range indexCols {
			key[j] = row[i]
		}
		k := cellKey(key)

		g, ok := byKey[k]
		if !ok {
			g = &group{key: key, first: pos, values: map[string]any{}}
			byKey[k] = g
			groups = append(groups, g)
		}
		if _, dup := g.values[name]; dup {
			return nil, &PivotError{
				Format:      format,
				Column:      column,
				Combination: describe(t, indexCols, key, column, name),
				Err:         ErrDuplicateEntries,
			}
		}
		g.values[name] = row[valueIdx]

		if !seen {
			seenPivot[name] = vk
			pivotNames = append(pivotNames, name)
		}
	}

	sort.SliceStable(groups, func(a, b int) bool { return groups[a].first < groups[b].first })

	out := &Table{}
	for _, i := range indexCols {
		out.Columns = append(out.Columns, t.Columns[i])
	}
	out.Columns = append(out.Columns, pivotNames...)
	for _, g := range groups {
		row := slices.Clone(g.key)
		for _, name := range pivotNames {
			row = append(row, g.values[name])
		}
		out.Rows = append(out.Rows, row)
	}
	return out, nil
}

func cellKey(cells []any) string {
	var b strings.Builder
	for i, c := range cells {
		if i > 0 {
			b.WriteByte('\x1f')
		}
		if c == nil {
			b.WriteString("\x00")
			continue
		}
		fmt.Fprintf(&b, "%T:%s", c, FormatCell(c))
	}
	return b.String()
}

func describe(t *Table, indexCols []int, key []any, column, pivotValue string) []string {
	out := make([]string, 0, len(key)+1)
	for j, i := range indexCols {
		out = append(out, fmt.Sprintf("%s=%s", t.Columns[i], FormatCell(key[j])))
	}
	return append(out, fmt.Sprintf("%s=%s", column, pivotValue))
}
