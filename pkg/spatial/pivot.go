package spatial

import (
	"fmt"

	"github.com/robert-malhotra/go-csodata/pkg/table"
)

// PivotWide pivots a geo table on timeVariable, keeping one geometry per
// area. key is the spatial dimension label.
func PivotWide(g *GeoTable, timeVariable, key string) (*GeoTable, error) {
	return pivotGeo(g, key, func(t *table.Table) (*table.Table, error) {
		return table.PivotWide(t, timeVariable)
	})
}

// PivotTidy pivots a geo table on the statistic dimension, keeping one
// geometry per area.
func PivotTidy(g *GeoTable, key string) (*GeoTable, error) {
	return pivotGeo(g, key, table.PivotTidy)
}

// pivotGeo removes the geometry column, pivots, and re-attaches geometry
// through the area key, so geometry values never take part in grouping.
func pivotGeo(g *GeoTable, key string, pivot func(*table.Table) (*table.Table, error)) (*GeoTable, error) {
	join := table.IDColumn(key)
	if !g.Has(join) {
		join = key
	}
	if !g.Has(join) {
		return nil, &Error{Err: fmt.Errorf("%w: pivot needs %q or %q", ErrNoJoinColumn, table.IDColumn(key), key)}
	}

	geoms := map[string]any{}
	ji, gi := g.Index(join), g.Index(GeometryColumn)
	for _, row := range g.Rows {
		k := table.FormatCell(row[ji])
		if _, seen := geoms[k]; !seen && gi >= 0 {
			geoms[k] = row[gi]
		}
	}

	pivoted, err := pivot(g.Drop(GeometryColumn))
	if err != nil {
		return nil, err
	}

	pj := pivoted.Index(join)
	if pj < 0 {
		return nil, &Error{Err: fmt.Errorf("%w: %q was consumed by the pivot", ErrNoJoinColumn, join)}
	}
	out := &GeoTable{
		Table: &table.Table{Columns: append(pivoted.Columns, GeometryColumn)},
		CRS:   g.CRS,
	}
	for _, row := range pivoted.Rows {
		out.Rows = append(out.Rows, append(row, geoms[table.FormatCell(row[pj])]))
	}
	return out, nil
}
