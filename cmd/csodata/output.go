package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/urfave/cli/v3"

	"github.com/robert-malhotra/go-csodata/pkg/dataset"
	"github.com/robert-malhotra/go-csodata/pkg/export"
	"github.com/robert-malhotra/go-csodata/pkg/jsonstat"
	"github.com/robert-malhotra/go-csodata/pkg/spatial"
	"github.com/robert-malhotra/go-csodata/pkg/table"
)

func outputFlag() cli.Flag {
	return &cli.StringFlag{
		Name:    "output",
		Aliases: []string{"o"},
		Usage:   "table, csv, json, parquet or geojson",
		Value:   "table",
	}
}

func outFileFlag() cli.Flag {
	return &cli.StringFlag{
		Name:  "out",
		Usage: "write to this file instead of stdout",
	}
}

// withOutput calls write with stdout, or with the --out file when given.
func withOutput(cmd *cli.Command, write func(io.Writer) error) (err error) {
	path := cmd.String("out")
	if path == "" {
		return write(cmd.Root().Writer)
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := f.Close(); err == nil {
			err = cerr
		}
	}()
	return write(f)
}

func outputFormat(cmd *cli.Command) (export.Format, error) {
	return export.ParseFormat(cmd.String("output"))
}

func writeTable(cmd *cli.Command, t *table.Table) error {
	f, err := outputFormat(cmd)
	if err != nil {
		return err
	}
	if f == export.GeoJSON {
		return errors.New("geojson output needs --geo")
	}
	return withOutput(cmd, func(w io.Writer) error {
		return export.Write(w, f, t)
	})
}

func writeGeoTable(cmd *cli.Command, g *spatial.GeoTable) error {
	f, err := outputFormat(cmd)
	if err != nil {
		return err
	}
	return withOutput(cmd, func(w io.Writer) error {
		if f == export.GeoJSON {
			return export.WriteGeoJSON(w, g)
		}
		return export.Write(w, f, g.Table)
	})
}

// parseFilters turns repeated "dimension=v1,v2" flags into Filters. Values
// split off by the flag parser's comma handling are folded back into the
// preceding dimension.
func parseFilters(args []string) (dataset.Filters, error) {
	filters := dataset.Filters{}
	var last string
	for _, arg := range args {
		key, values, ok := strings.Cut(arg, "=")
		if !ok {
			if last == "" {
				return nil, fmt.Errorf("filter %q: want dimension=value[,value...]", arg)
			}
			filters[last] = append(filters[last], strings.TrimSpace(arg))
			continue
		}
		key = strings.TrimSpace(key)
		if key == "" {
			return nil, fmt.Errorf("filter %q: empty dimension", arg)
		}
		for _, v := range strings.Split(values, ",") {
			filters[key] = append(filters[key], strings.TrimSpace(v))
		}
		last = key
	}
	return filters, nil
}

// parseIncludeIDs accepts a keyword or a comma-separated list of dimensions.
func parseIncludeIDs(s string) dataset.IncludeIDs {
	if ids, err := dataset.ParseIncludeIDs(s); err == nil {
		return ids
	}
	var dims []string
	for _, d := range strings.Split(s, ",") {
		if d = strings.TrimSpace(d); d != "" {
			dims = append(dims, d)
		}
	}
	return dataset.IDColumns(dims...)
}

// metadataTable lists the descriptive fields of a table as field/value rows.
func metadataTable(m jsonstat.Metadata) *table.Table {
	t := table.New("Field", "Value")
	add := func(field string, value any) {
		switch v := value.(type) {
		case string:
			if v == "" {
				return
			}
		case []string:
			if len(v) == 0 {
				return
			}
			value = strings.Join(v, "; ")
		}
		t.Append(field, value)
	}
	add("Code", m.TableCode)
	add("Title", m.Title)
	add("Variables", m.Variables)
	add("Time variable", m.TimeVariable)
	add("Statistics", m.Statistics)
	add("Units", m.Units)
	add("Tags", m.Tags)
	if !m.LastUpdated.IsZero() {
		add("Last updated", m.LastUpdated.UTC().Format(time.RFC3339))
	}
	add("Reasons", m.Reasons)
	add("Notes", m.Notes)
	add("Copyright", strings.TrimSpace(m.CopyrightName+" "+m.CopyrightHref))
	add("Contact", strings.TrimSpace(strings.Join([]string{m.ContactName, m.ContactEmail, m.ContactPhone}, " ")))
	if m.Spatial.Available() {
		add("Spatial key", m.Spatial.Key)
		add("Spatial URL", m.Spatial.URL)
	}
	return t
}
