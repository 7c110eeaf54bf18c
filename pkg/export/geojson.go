package export

import (
	"io"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"

	"github.com/robert-malhotra/go-csodata/pkg/spatial"
	"github.com/robert-malhotra/go-csodata/pkg/table"
)

// WriteGeoJSON writes g as a feature collection with one feature per row.
// Non-geometry cells become properties; rows without a boundary get a null
// geometry.
func WriteGeoJSON(w io.Writer, g *spatial.GeoTable) error {
	fc := geojson.NewFeatureCollection()
	if g.CRS != "" && g.CRS != spatial.DefaultCRS {
		fc.ExtraMembers = geojson.Properties{
			"crs": map[string]any{"type": "name", "properties": map[string]any{"name": g.CRS}},
		}
	}

	gi := g.Index(spatial.GeometryColumn)
	for _, row := range g.Rows {
		var geom orb.Geometry
		if gi >= 0 {
			geom, _ = row[gi].(orb.Geometry)
		}
		f := geojson.NewFeature(geom)
		for i, v := range row {
			if i == gi {
				continue
			}
			f.Properties[g.Columns[i]] = propertyValue(v)
		}
		fc.Append(f)
	}

	data, err := fc.MarshalJSON()
	if err != nil {
		return err
	}
	_, err = w.Write(append(data, '\n'))
	return err
}

func propertyValue(v any) any {
	switch v.(type) {
	case nil, float64, int, bool, string:
		return v
	default:
		return table.FormatCell(v)
	}
}
