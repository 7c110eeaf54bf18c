// Package dataset assembles CSO tables into filtered, reshaped observation
// tables, optionally joined to boundary geometry.
//
// A Dataset loads its metadata when opened and its observations on first use;
// the assembled long table is built once per handle and every accessor hands
// out a fresh copy.
package dataset

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/robert-malhotra/go-csodata/pkg/jsonstat"
	"github.com/robert-malhotra/go-csodata/pkg/sanitise"
	"github.com/robert-malhotra/go-csodata/pkg/spatial"
	"github.com/robert-malhotra/go-csodata/pkg/table"
)

// NationalAreaCode is the area code of national aggregate rows.
const NationalAreaCode = "IE0"

// NationalAreaLabels are the labels of national aggregate rows.
var NationalAreaLabels = []string{"Ireland", "State"}

// Source fetches the documents a Dataset is built from.
type Source interface {
	ReadMetadata(ctx context.Context, code string) ([]byte, error)
	ReadDataset(ctx context.Context, code string) ([]byte, error)
	spatial.Fetcher
}

// Dataset is a handle on one CSO table.
type Dataset struct {
	code    string
	src     Source
	opts    options
	doc     *jsonstat.Dataset
	spatial jsonstat.SpatialInfo

	mu   sync.Mutex
	base *table.Table
	long *table.Table
	geo  *spatial.GeoTable
}

// Open loads the metadata of table code (case-insensitive). Observations are
// fetched on the first call to Table or GeoTable.
func Open(ctx context.Context, src Source, code string, opts ...Option) (*Dataset, error) {
	code = strings.ToUpper(strings.TrimSpace(code))
	if code == "" {
		return nil, &ValidationError{Parameter: "table code", Value: `""`, Msg: "must not be empty"}
	}

	d := &Dataset{code: code, src: src}
	for _, o := range opts {
		o(&d.opts)
	}

	data, err := src.ReadMetadata(ctx, code)
	if err != nil {
		return nil, err
	}
	doc, err := jsonstat.Decode(data)
	if err != nil {
		return nil, fmt.Errorf("dataset %s: metadata: %w", code, err)
	}
	d.doc = doc
	d.spatial = doc.Spatial()
	if d.opts.sanitise && d.spatial.Key != "" {
		d.spatial.Key = sanitise.String(d.spatial.Key)
	}
	d.debugf("dataset %s: metadata loaded (%d dimensions, spatial=%t)", code, len(doc.Dimensions), d.spatial.Available())
	return d, nil
}

// Code returns the upper-cased table code.
func (d *Dataset) Code() string { return d.code }

// Metadata describes the table. With sanitisation enabled the variable,
// statistic, time variable and spatial key labels are sanitised.
func (d *Dataset) Metadata() jsonstat.Metadata {
	m := d.doc.Metadata()
	if d.opts.sanitise {
		m.Variables = sanitise.List(m.Variables)
		m.Statistics = sanitise.List(m.Statistics)
		if m.TimeVariable != "" {
			m.TimeVariable = sanitise.String(m.TimeVariable)
		}
		m.Spatial = d.spatial
	}
	return m
}

// SpatialInfo locates the table's boundary data.
func (d *Dataset) SpatialInfo() jsonstat.SpatialInfo { return d.spatial }

// HasSpatialData reports whether boundary data is linked to the table.
func (d *Dataset) HasSpatialData() bool { return d.spatial.Available() }

func (d *Dataset) String() string {
	geo := "no"
	if d.HasSpatialData() {
		geo = "yes"
	}
	return fmt.Sprintf("Dataset(%s, spatial=%s)", d.code, geo)
}

// Table returns the observations in the requested shape.
func (d *Dataset) Table(ctx context.Context, format table.Format) (*table.Table, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.long == nil {
		base, err := d.loadBase(ctx)
		if err != nil {
			return nil, err
		}
		t := base.Clone()
		if d.opts.dropFiltered && len(d.opts.filters) > 0 {
			t = d.dropFilterColumns(t, false)
		}
		if t, err = d.filterIDColumns(t); err != nil {
			return nil, err
		}
		d.long = t
	}

	switch format {
	case table.Wide:
		tv, err := d.requireTimeVariable(d.long)
		if err != nil {
			return nil, err
		}
		return table.PivotWide(d.long, tv)
	case table.Tidy:
		if err := requireStatistic(d.long); err != nil {
			return nil, err
		}
		return table.PivotTidy(d.long)
	default:
		return d.long.Clone(), nil
	}
}

// GeoTable returns the observations joined to boundary geometry, in the
// requested shape. Rows without a boundary, such as national aggregates,
// keep a nil geometry.
func (d *Dataset) GeoTable(ctx context.Context, format table.Format) (*spatial.GeoTable, error) {
	if !d.spatial.Available() {
		return nil, &spatial.Error{TableCode: d.code, Err: spatial.ErrUnavailable}
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	if d.geo == nil {
		base, err := d.loadBase(ctx)
		if err != nil {
			return nil, err
		}
		// merge before any column is dropped so both join columns are present
		g, err := spatial.Create(ctx, d.src, d.code, base, d.spatial.URL, d.spatial.Key)
		if err != nil {
			return nil, err
		}
		t := g.Table
		if d.opts.dropFiltered && len(d.opts.filters) > 0 {
			t = d.dropFilterColumns(t, true)
		}
		if t, err = d.filterIDColumns(t); err != nil {
			return nil, err
		}
		d.geo = &spatial.GeoTable{Table: t, CRS: g.CRS}
		d.debugf("dataset %s: geometry attached (%d rows, crs %s)", d.code, t.Len(), g.CRS)
	}

	switch format {
	case table.Wide:
		tv, err := d.requireTimeVariable(d.geo.Table)
		if err != nil {
			return nil, err
		}
		return spatial.PivotWide(d.geo, tv, d.spatial.Key)
	case table.Tidy:
		if err := requireStatistic(d.geo.Table); err != nil {
			return nil, err
		}
		return spatial.PivotTidy(d.geo, d.spatial.Key)
	default:
		return d.geo.Clone(), nil
	}
}

func (d *Dataset) timeVariable() string {
	td, ok := d.doc.TimeDimension()
	if !ok {
		return ""
	}
	if d.opts.sanitise {
		return sanitise.String(td.Label)
	}
	return td.Label
}

func (d *Dataset) requireTimeVariable(t *table.Table) (string, error) {
	tv := d.timeVariable()
	if tv == "" || !t.Has(tv) {
		return "", &ValidationError{
			Parameter: "format",
			Value:     table.Wide,
			Msg:       "time variable is not defined or not present in the data",
		}
	}
	return tv, nil
}

func requireStatistic(t *table.Table) error {
	if !t.Has(table.StatisticColumn) {
		return &ValidationError{
			Parameter: "format",
			Value:     table.Tidy,
			Msg:       fmt.Sprintf("column %q is not present in the data", table.StatisticColumn),
		}
	}
	return nil
}

func (d *Dataset) debugf(format string, args ...any) {
	if d.opts.logger != nil {
		d.opts.logger.Debugf(format, args...)
	}
}

func (d *Dataset) warnf(format string, args ...any) {
	if d.opts.logger != nil {
		d.opts.logger.Warnf(format, args...)
	}
}
