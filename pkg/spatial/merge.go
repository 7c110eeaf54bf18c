package spatial

import (
	"fmt"

	"github.com/paulmach/orb"

	"github.com/robert-malhotra/go-csodata/pkg/table"
)

// Merge left-joins boundary geometry onto t. The "<key> ID" column is joined
// to the feature "code" property when both exist; otherwise the key column
// is joined to the feature property of the same name. Each table row keeps
// exactly one output row; rows without a match get a nil geometry.
func Merge(t *table.Table, key string, b *Boundaries) (*GeoTable, error) {
	column, property, ok := joinColumns(t, key, b)
	if !ok {
		return nil, &Error{Err: fmt.Errorf("%w: neither %q nor %q matches a boundary property",
			ErrNoJoinColumn, table.IDColumn(key), key)}
	}

	lookup, err := geometryIndex(b, property)
	if err != nil {
		return nil, &Error{Err: err}
	}

	base := t.Drop(GeometryColumn)
	idx := base.Index(column)
	out := &GeoTable{
		Table: &table.Table{Columns: append(base.Columns, GeometryColumn)},
		CRS:   b.CRS,
	}
	out.Rows = make([][]any, len(base.Rows))
	for i, row := range base.Rows {
		var geom any
		if k := table.FormatCell(row[idx]); k != "" {
			if g, ok := lookup[k]; ok {
				geom = g
			}
		}
		out.Rows[i] = append(row, geom)
	}
	return out, nil
}

func joinColumns(t *table.Table, key string, b *Boundaries) (column, property string, ok bool) {
	if id := table.IDColumn(key); t.Has(id) && hasProperty(b, CodeProperty) {
		return id, CodeProperty, true
	}
	if t.Has(key) && hasProperty(b, key) {
		return key, key, true
	}
	return "", "", false
}

func hasProperty(b *Boundaries, name string) bool {
	for _, f := range b.Features.Features {
		if _, ok := f.Properties[name]; ok {
			return true
		}
	}
	return false
}

// geometryIndex maps each feature's property value to its geometry. A value
// shared by two features would make the join one-to-many and is rejected.
func geometryIndex(b *Boundaries, property string) (map[string]orb.Geometry, error) {
	idx := make(map[string]orb.Geometry, len(b.Features.Features))
	for _, f := range b.Features.Features {
		v, ok := f.Properties[property]
		if !ok || v == nil {
			continue
		}
		k := table.FormatCell(v)
		if _, dup := idx[k]; dup {
			return nil, fmt.Errorf("%w: %s=%q", ErrAmbiguousJoin, property, k)
		}
		idx[k] = f.Geometry
	}
	return idx, nil
}
