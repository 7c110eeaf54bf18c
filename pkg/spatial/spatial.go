package spatial

import (
	"context"
	"errors"
	"fmt"
	"net/url"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"

	"github.com/robert-malhotra/go-csodata/pkg/table"
)

const (
	// GeometryColumn holds each row's orb.Geometry.
	GeometryColumn = "geometry"
	// DefaultCRS is assumed when the boundary file declares none.
	DefaultCRS = "EPSG:4326"
	// CodeProperty is the boundary feature property carrying area codes.
	CodeProperty = "code"
)

var (
	ErrUnavailable   = errors.New("no spatial data is linked to this dataset")
	ErrNoFeatures    = errors.New("boundary data contains no features")
	ErrNoGeometry    = errors.New("no rows matched a boundary geometry")
	ErrNoJoinColumn  = errors.New("no column can be joined to the boundary data")
	ErrAmbiguousJoin = errors.New("boundary data has duplicate join keys")
)

// Error is returned for every failure to attach geometry to a table.
type Error struct {
	TableCode string
	Err       error
}

func (e *Error) Error() string {
	if e.TableCode == "" {
		return fmt.Sprintf("spatial: %v", e.Err)
	}
	return fmt.Sprintf("spatial: %s: %v", e.TableCode, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// Fetcher retrieves JSON documents.
type Fetcher interface {
	FetchJSON(ctx context.Context, rawURL string, params url.Values) ([]byte, error)
}

// Boundaries is a decoded boundary file.
type Boundaries struct {
	Features *geojson.FeatureCollection
	CRS      string
}

// ParseBoundaries decodes a GeoJSON feature collection.
func ParseBoundaries(data []byte) (*Boundaries, error) {
	fc, err := geojson.UnmarshalFeatureCollection(data)
	if err != nil {
		return nil, fmt.Errorf("decode boundaries: %w", err)
	}
	if len(fc.Features) == 0 {
		return nil, ErrNoFeatures
	}
	return &Boundaries{Features: fc, CRS: detectCRS(fc)}, nil
}

// detectCRS reads the legacy GeoJSON "crs" member: crs.properties.name, then
// crs.name, else DefaultCRS.
func detectCRS(fc *geojson.FeatureCollection) string {
	crs, ok := fc.ExtraMembers["crs"].(map[string]any)
	if !ok {
		return DefaultCRS
	}
	if props, ok := crs["properties"].(map[string]any); ok {
		if name, ok := props["name"].(string); ok && name != "" {
			return name
		}
	}
	if name, ok := crs["name"].(string); ok && name != "" {
		return name
	}
	return DefaultCRS
}

// GeoTable is a table whose last column, GeometryColumn, holds geometries.
type GeoTable struct {
	*table.Table
	CRS string
}

// Clone returns an independent copy of the table structure.
func (g *GeoTable) Clone() *GeoTable {
	return &GeoTable{Table: g.Table.Clone(), CRS: g.CRS}
}

// Geometry returns the geometry of row i, or nil.
func (g *GeoTable) Geometry(i int) orb.Geometry {
	geom, _ := g.Value(i, GeometryColumn).(orb.Geometry)
	return geom
}

// Load fetches and decodes the boundary file at rawURL.
func Load(ctx context.Context, f Fetcher, rawURL string) (*Boundaries, error) {
	data, err := f.FetchJSON(ctx, rawURL, nil)
	if err != nil {
		return nil, err
	}
	return ParseBoundaries(data)
}

// Create attaches boundary geometry to t. key is the label of the dimension
// the boundaries describe. Every failure is reported as *Error.
func Create(ctx context.Context, f Fetcher, tableCode string, t *table.Table, rawURL, key string) (*GeoTable, error) {
	if rawURL == "" || key == "" {
		return nil, &Error{TableCode: tableCode, Err: ErrUnavailable}
	}
	b, err := Load(ctx, f, rawURL)
	if err != nil {
		return nil, &Error{TableCode: tableCode, Err: err}
	}
	g, err := Merge(t, key, b)
	if err != nil {
		var se *Error
		if errors.As(err, &se) {
			se.TableCode = tableCode
			return nil, se
		}
		return nil, &Error{TableCode: tableCode, Err: err}
	}
	if !hasGeometry(g) {
		return nil, &Error{TableCode: tableCode, Err: ErrNoGeometry}
	}
	return g, nil
}

func hasGeometry(g *GeoTable) bool {
	for i := range g.Rows {
		if !isEmpty(g.Geometry(i)) {
			return true
		}
	}
	return false
}

func isEmpty(geom orb.Geometry) bool {
	switch g := geom.(type) {
	case nil:
		return true
	case orb.Point:
		return false
	case orb.MultiPoint:
		return len(g) == 0
	case orb.LineString:
		return len(g) == 0
	case orb.MultiLineString:
		return len(g) == 0
	case orb.Ring:
		return len(g) == 0
	case orb.Polygon:
		return len(g) == 0
	case orb.MultiPolygon:
		return len(g) == 0
	case orb.Collection:
		for _, c := range g {
			if !isEmpty(c) {
				return false
			}
		}
		return true
	default:
		return false
	}
}
