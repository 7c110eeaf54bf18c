package dataset

import (
	"context"
	"fmt"
	"maps"
	"regexp"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/robert-malhotra/go-csodata/pkg/jsonstat"
	"github.com/robert-malhotra/go-csodata/pkg/sanitise"
	"github.com/robert-malhotra/go-csodata/pkg/search"
	"github.com/robert-malhotra/go-csodata/pkg/table"
)

// loadBase fetches the observations and applies the row-level options. The
// result is shared by Table and GeoTable and is never handed out.
func (d *Dataset) loadBase(ctx context.Context) (*table.Table, error) {
	if d.base != nil {
		return d.base, nil
	}

	data, err := d.src.ReadDataset(ctx, d.code)
	if err != nil {
		return nil, err
	}
	doc, err := jsonstat.Decode(data)
	if err != nil {
		return nil, fmt.Errorf("dataset %s: %w", d.code, err)
	}

	t := doc.Table()
	if d.opts.sanitise {
		sanitiseTable(t)
	}
	d.addIDColumns(t)
	if t, err = d.applyFilters(t); err != nil {
		return nil, err
	}
	if d.opts.dropNational {
		t = d.removeNationalRows(t)
	}
	if d.opts.convertDates {
		d.convertDates(t)
	}

	d.debugf("dataset %s: %d rows, columns %v", d.code, t.Len(), t.Columns)
	d.base = t
	return t, nil
}

func sanitiseTable(t *table.Table) {
	t.Rename(sanitise.String)
	valueIdx := t.Index(table.ValueColumn)
	for _, row := range t.Rows {
		for i, cell := range row {
			if s, ok := cell.(string); ok && i != valueIdx {
				row[i] = sanitise.String(s)
			}
		}
	}
}

// addIDColumns inserts "<dimension> ID" after every dimension column, mapping
// category labels to their codes.
func (d *Dataset) addIDColumns(t *table.Table) {
	mappings := map[string]map[string]string{}
	for _, dim := range d.doc.Dimensions {
		label, ids := dim.Label, dim.IDMapping()
		if d.opts.sanitise {
			label = sanitise.String(label)
			sanitised := make(map[string]string, len(ids))
			for l, code := range ids {
				sanitised[sanitise.String(l)] = code
			}
			ids = sanitised
		}
		mappings[label] = ids
	}

	for _, col := range slices.Clone(t.Columns) {
		ids, ok := mappings[col]
		if !ok {
			continue
		}
		t.InsertAfter(col, table.IDColumn(col), func(v any) any {
			if s, ok := v.(string); ok {
				if code, ok := ids[s]; ok {
					return code
				}
			}
			return nil
		})
	}
}

// normalisedFilters maps "STATISTIC" spellings onto the canonical column and,
// with sanitisation enabled, sanitises keys and values the way the table was.
func (d *Dataset) normalisedFilters() Filters {
	out := make(Filters, len(d.opts.filters))
	for key, values := range d.opts.filters {
		switch strings.ToUpper(strings.TrimSpace(key)) {
		case strings.ToUpper(table.StatisticColumn):
			key = table.StatisticColumn
		case strings.ToUpper(table.IDColumn(table.StatisticColumn)):
			key = table.IDColumn(table.StatisticColumn)
		}
		if d.opts.sanitise {
			key = sanitise.String(key)
			values = sanitise.List(values)
		}
		out[key] = values
	}
	return out
}

func (d *Dataset) applyFilters(t *table.Table) (*table.Table, error) {
	filters := d.normalisedFilters()
	for _, key := range slices.Sorted(maps.Keys(filters)) {
		values := filters[key]
		idx := t.Index(key)
		if idx < 0 {
			return nil, &ValidationError{
				Parameter: "filters",
				Value:     key,
				Msg:       fmt.Sprintf("column not found in dataset %s", d.code),
			}
		}
		want := make(map[string]bool, 2*len(values))
		for _, v := range values {
			want[v] = true
			want[strings.TrimSpace(v)] = true
		}
		t = t.Filter(func(row []any) bool { return want[table.FormatCell(row[idx])] })
		if t.Len() == 0 {
			return nil, &ValidationError{
				Parameter: "filters",
				Value:     fmt.Sprintf("%s=%v", key, values),
				Msg:       fmt.Sprintf("no matching values in dataset %s", d.code),
			}
		}
	}
	return t, nil
}

// removeNationalRows drops rows whose spatial code is NationalAreaCode or
// whose spatial label is one of NationalAreaLabels.
func (d *Dataset) removeNationalRows(t *table.Table) *table.Table {
	key := d.spatial.Key
	if key == "" {
		return t
	}
	idIdx, labelIdx := t.Index(table.IDColumn(key)), t.Index(key)
	out := t.Filter(func(row []any) bool {
		if idIdx >= 0 && row[idIdx] == NationalAreaCode {
			return false
		}
		if labelIdx >= 0 {
			if s, ok := row[labelIdx].(string); ok && slices.Contains(NationalAreaLabels, s) {
				return false
			}
		}
		return true
	})
	d.debugf("dataset %s: dropped %d national rows", d.code, t.Len()-out.Len())
	return out
}

var (
	yearLabel  = regexp.MustCompile(`^\d{4}$`)
	monthLabel = regexp.MustCompile(`^(\d{4})M(\d{2})$`)
)

// convertDates replaces time labels with an int year when every label is a
// year, otherwise with the first day of each period. Nothing changes unless
// every label converts.
func (d *Dataset) convertDates(t *table.Table) {
	tv := d.timeVariable()
	idx := t.Index(tv)
	if idx < 0 || t.Len() == 0 {
		return
	}

	labels := make([]string, len(t.Rows))
	years := true
	for i, row := range t.Rows {
		s, ok := row[idx].(string)
		if !ok {
			d.warnf("dataset %s: %q holds non-text values; dates left unconverted", d.code, tv)
			return
		}
		labels[i] = strings.TrimSpace(s)
		years = years && yearLabel.MatchString(labels[i])
	}

	converted := make([]any, len(labels))
	for i, s := range labels {
		if years {
			y, _ := strconv.Atoi(s)
			converted[i] = y
			continue
		}
		p, ok := parsePeriod(s)
		if !ok {
			d.warnf("dataset %s: cannot parse %q in %q; dates left unconverted", d.code, s, tv)
			return
		}
		converted[i] = p
	}
	for i, row := range t.Rows {
		row[idx] = converted[i]
	}
}

func parsePeriod(s string) (time.Time, bool) {
	if m := monthLabel.FindStringSubmatch(s); m != nil {
		y, _ := strconv.Atoi(m[1])
		mo, _ := strconv.Atoi(m[2])
		if mo >= 1 && mo <= 12 {
			return time.Date(y, time.Month(mo), 1, 0, 0, 0, 0, time.UTC), true
		}
	}
	t, g := search.ParseDate(s)
	return t, g.Valid()
}
