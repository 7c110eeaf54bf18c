package export

import (
	"fmt"
	"io"
	"sort"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/encoding/wkb"
	"github.com/segmentio/parquet-go"

	"github.com/robert-malhotra/go-csodata/pkg/table"
)

type columnKind int

const (
	textColumn columnKind = iota
	numberColumn
	geometryColumn
)

// WriteParquet writes t as a Parquet file with one optional column per table
// column: numbers as DOUBLE, geometries as WKB and everything else as
// UTF-8 text.
func WriteParquet(w io.Writer, t *table.Table) error {
	kinds := make([]columnKind, len(t.Columns))
	group := parquet.Group{}
	for i, name := range t.Columns {
		if _, dup := group[name]; dup {
			return fmt.Errorf("export: duplicate column %q", name)
		}
		kinds[i] = kindOf(t, i)
		switch kinds[i] {
		case numberColumn:
			group[name] = parquet.Optional(parquet.Leaf(parquet.DoubleType))
		case geometryColumn:
			group[name] = parquet.Optional(parquet.Leaf(parquet.ByteArrayType))
		default:
			group[name] = parquet.Optional(parquet.String())
		}
	}
	schema := parquet.NewSchema("observations", group)

	// parquet orders group fields by name
	order := make([]int, len(t.Columns))
	for i := range order {
		order[i] = i
	}
	sort.Slice(order, func(a, b int) bool { return t.Columns[order[a]] < t.Columns[order[b]] })

	pw := parquet.NewWriter(w, schema)
	rows := make([]parquet.Row, 0, len(t.Rows))
	for _, row := range t.Rows {
		out := make(parquet.Row, len(order))
		for leaf, i := range order {
			v, err := parquetValue(row[i], kinds[i])
			if err != nil {
				return fmt.Errorf("export: column %q: %w", t.Columns[i], err)
			}
			if v.IsNull() {
				out[leaf] = v.Level(0, 0, leaf)
			} else {
				out[leaf] = v.Level(0, 1, leaf)
			}
		}
		rows = append(rows, out)
	}
	if _, err := pw.WriteRows(rows); err != nil {
		return fmt.Errorf("export: %w", err)
	}
	return pw.Close()
}

func kindOf(t *table.Table, col int) columnKind {
	kind, seen := textColumn, false
	for _, row := range t.Rows {
		var k columnKind
		switch row[col].(type) {
		case nil:
			continue
		case float64, int:
			k = numberColumn
		case orb.Geometry:
			k = geometryColumn
		default:
			return textColumn
		}
		if seen && k != kind {
			return textColumn
		}
		kind, seen = k, true
	}
	return kind
}

func parquetValue(v any, kind columnKind) (parquet.Value, error) {
	if v == nil {
		return parquet.Value{}, nil
	}
	switch kind {
	case numberColumn:
		switch x := v.(type) {
		case float64:
			return parquet.DoubleValue(x), nil
		case int:
			return parquet.DoubleValue(float64(x)), nil
		}
	case geometryColumn:
		if g, ok := v.(orb.Geometry); ok {
			b, err := wkb.Marshal(g)
			if err != nil {
				return parquet.Value{}, err
			}
			return parquet.ByteArrayValue(b), nil
		}
	}
	return parquet.ByteArrayValue([]byte(table.FormatCell(v))), nil
}
