// Package export writes observation tables as CSV, JSON lines, text tables,
// Parquet or GeoJSON.
package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"math"
	"strings"

	"github.com/olekukonko/tablewriter"
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/encoding/wkt"
	"github.com/valyala/fastjson"

	"github.com/robert-malhotra/go-csodata/pkg/table"
)

// Format is an output encoding.
type Format int

const (
	Table Format = iota
	CSV
	JSON
	Parquet
	GeoJSON
)

var formatNames = map[Format]string{
	Table:   "table",
	CSV:     "csv",
	JSON:    "json",
	Parquet: "parquet",
	GeoJSON: "geojson",
}

func (f Format) String() string { return formatNames[f] }

// ParseFormat converts a format name (case-insensitive) to a Format.
func ParseFormat(s string) (Format, error) {
	name := strings.ToLower(strings.TrimSpace(s))
	for f, n := range formatNames {
		if n == name {
			return f, nil
		}
	}
	return Table, fmt.Errorf("export: unknown format %q (want table, csv, json, parquet or geojson)", s)
}

// cell renders a cell for text outputs; geometries become WKT.
func cell(v any) string {
	if g, ok := v.(orb.Geometry); ok && g != nil {
		return wkt.MarshalString(g)
	}
	return table.FormatCell(v)
}

// WriteCSV writes a header row followed by one record per row.
func WriteCSV(w io.Writer, t *table.Table) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(t.Columns); err != nil {
		return err
	}
	record := make([]string, len(t.Columns))
	for _, row := range t.Rows {
		for i, v := range row {
			record[i] = cell(v)
		}
		if err := cw.Write(record); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteJSON writes one JSON object per row, keys in column order.
func WriteJSON(w io.Writer, t *table.Table) error {
	var (
		arena fastjson.Arena
		buf   = make([]byte, 0, 1024)
	)
	for _, row := range t.Rows {
		obj := arena.NewObject()
		for i, v := range row {
			obj.Set(t.Columns[i], jsonValue(&arena, v))
		}
		buf = obj.MarshalTo(buf)
		buf = append(buf, '\n')
		if _, err := w.Write(buf); err != nil {
			return err
		}
		buf = buf[:0]
		arena.Reset()
	}
	return nil
}

func jsonValue(arena *fastjson.Arena, v any) *fastjson.Value {
	switch x := v.(type) {
	case nil:
		return arena.NewNull()
	case float64:
		if math.IsNaN(x) || math.IsInf(x, 0) {
			return arena.NewNull()
		}
		return arena.NewNumberString(table.FormatCell(x))
	case int:
		return arena.NewNumberInt(x)
	case bool:
		if x {
			return arena.NewTrue()
		}
		return arena.NewFalse()
	default:
		return arena.NewString(cell(v))
	}
}

// WriteTable renders t as an aligned text table.
func WriteTable(w io.Writer, t *table.Table) error {
	tw := tablewriter.NewWriter(w)
	tw.SetColWidth(40)
	tw.SetRowLine(false)
	tw.SetHeader(t.Columns)
	tw.SetAutoFormatHeaders(false)
	for _, row := range t.Rows {
		record := make([]string, len(row))
		for i, v := range row {
			record[i] = cell(v)
		}
		tw.Append(record)
	}
	tw.Render()
	return nil
}

// Write encodes t in the given format. GeoJSON needs a *spatial.GeoTable; use
// WriteGeoJSON.
func Write(w io.Writer, f Format, t *table.Table) error {
	switch f {
	case CSV:
		return WriteCSV(w, t)
	case JSON:
		return WriteJSON(w, t)
	case Parquet:
		return WriteParquet(w, t)
	case Table:
		return WriteTable(w, t)
	default:
		return fmt.Errorf("export: %s output needs geometry", f)
	}
}
