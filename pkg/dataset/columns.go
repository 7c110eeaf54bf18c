package dataset

import (
	"fmt"
	"slices"
	"strings"

	"github.com/robert-malhotra/go-csodata/pkg/table"
)

// dropFilterColumns removes each filtered column together with its label or
// ID companion. With preserveSpatial the spatial key and its ID survive, as
// geometry pivots join on them.
func (d *Dataset) dropFilterColumns(t *table.Table, preserveSpatial bool) *table.Table {
	var spatialKey, spatialID string
	if preserveSpatial && d.spatial.Key != "" {
		spatialKey, spatialID = d.spatial.Key, table.IDColumn(d.spatial.Key)
	}
	protected := func(c string) bool { return c != "" && (c == spatialKey || c == spatialID) }

	var drop []string
	for key := range d.normalisedFilters() {
		if protected(key) {
			continue
		}
		drop = append(drop, key)
		companion := table.IDColumn(key)
		if label, ok := strings.CutSuffix(key, table.IDSuffix); ok {
			companion = label
		}
		if !protected(companion) {
			drop = append(drop, companion)
		}
	}
	return t.Drop(drop...)
}

// filterIDColumns keeps the ID columns selected by the IncludeIDs option.
func (d *Dataset) filterIDColumns(t *table.Table) (*table.Table, error) {
	var ids []string
	for _, c := range t.Columns {
		if strings.HasSuffix(c, table.IDSuffix) {
			ids = append(ids, c)
		}
	}

	sel := d.opts.includeIDs
	keep := func(string) bool { return false }
	switch sel.Mode {
	case IDsAll:
		return t, nil
	case IDsSpatialOnly:
		if d.spatial.Key != "" {
			spatialID := table.IDColumn(d.spatial.Key)
			keep = func(c string) bool { return c == spatialID }
		}
	case IDsColumns:
		var valid []string
		for _, c := range ids {
			valid = append(valid, strings.TrimSuffix(c, table.IDSuffix))
		}
		var invalid []string
		for _, c := range sel.Columns {
			if !slices.Contains(valid, c) {
				invalid = append(invalid, c)
			}
		}
		if len(invalid) > 0 {
			slices.Sort(valid)
			return nil, &ValidationError{
				Parameter: "include_ids",
				Value:     sel.Columns,
				Msg: fmt.Sprintf("%s are not dimensions of dataset %s (valid: %s)",
					strings.Join(invalid, ", "), d.code, strings.Join(valid, ", ")),
			}
		}
		keep = func(c string) bool { return slices.Contains(sel.Columns, strings.TrimSuffix(c, table.IDSuffix)) }
	}

	var drop []string
	for _, c := range ids {
		if !keep(c) {
			drop = append(drop, c)
		}
	}
	return t.Drop(drop...), nil
}
