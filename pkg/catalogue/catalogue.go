package catalogue

import (
	"context"
	"fmt"
	"slices"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/robert-malhotra/go-csodata/pkg/jsonstat"
	"github.com/robert-malhotra/go-csodata/pkg/sanitise"
	"github.com/robert-malhotra/go-csodata/pkg/table"
)

// DefaultFromDate is used when no release date bound is given.
const DefaultFromDate = "2000-01-01"

// Source returns the raw ReadCollection document for a from date.
type Source interface {
	ReadCollection(ctx context.Context, fromDate string) ([]byte, error)
}

// Logger receives diagnostics about malformed catalogue items.
type Logger interface {
	Debugf(format string, args ...any)
	Warnf(format string, args ...any)
}

// Entry is one table of contents record.
type Entry struct {
	Code         string
	Title        string
	Variables    []string
	TimeVariable string
	DateRange    string
	// Updated is zero when the release date is unknown.
	Updated      time.Time
	Organisation string
	Exceptional  bool
}

// Option configures a Catalogue.
type Option func(*Catalogue)

// WithSanitise normalises variable and time variable labels.
func WithSanitise(on bool) Option {
	return func(c *Catalogue) { c.sanitise = on }
}

// WithCache memoises the table of contents per from date.
func WithCache(on bool) Option {
	return func(c *Catalogue) { c.cache = on }
}

// WithLogger registers a logger.
func WithLogger(l Logger) Option {
	return func(c *Catalogue) { c.logger = l }
}

// Catalogue lists and searches CSO tables.
type Catalogue struct {
	src      Source
	sanitise bool
	cache    bool
	logger   Logger

	mu      sync.Mutex
	tocs    map[string][]Entry
	skipped int
}

// New returns a Catalogue backed by src. The table of contents is cached by
// default.
func New(src Source, opts ...Option) *Catalogue {
	c := &Catalogue{src: src, cache: true, tocs: map[string][]Entry{}}
	for _, o := range opts {
		o(c)
	}
	return c
}

// TOC returns every table released on or after fromDate (YYYY-MM-DD,
// DefaultFromDate when empty), most recently updated first. Malformed items
// are skipped and logged; see Skipped.
func (c *Catalogue) TOC(ctx context.Context, fromDate string) ([]Entry, error) {
	if fromDate == "" {
		fromDate = DefaultFromDate
	}
	c.mu.Lock()
	cached, ok := c.tocs[fromDate]
	c.mu.Unlock()
	if ok && c.cache {
		return cloneEntries(cached), nil
	}

	data, err := c.src.ReadCollection(ctx, fromDate)
	if err != nil {
		return nil, fmt.Errorf("catalogue: %w", err)
	}
	items, err := jsonstat.DecodeCollection(data)
	if err != nil {
		return nil, fmt.Errorf("catalogue: %w", err)
	}

	entries := make([]Entry, 0, len(items))
	skipped := 0
	for _, it := range items {
		e, err := c.entry(it)
		if err != nil {
			skipped++
			c.warnf("catalogue: skipping item %d: %v", it.Index, err)
			continue
		}
		entries = append(entries, e)
	}
	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].Updated.After(entries[j].Updated)
	})
	c.debugf("catalogue: %d tables from %s (%d skipped)", len(entries), fromDate, skipped)

	c.mu.Lock()
	c.skipped = skipped
	if c.cache {
		c.tocs[fromDate] = entries
	}
	c.mu.Unlock()
	return cloneEntries(entries), nil
}

// Skipped reports how many items the most recent fetch could not parse.
func (c *Catalogue) Skipped() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.skipped
}

// Flush drops memoised tables of contents.
func (c *Catalogue) Flush() {
	c.mu.Lock()
	clear(c.tocs)
	c.mu.Unlock()
}

func (c *Catalogue) entry(it jsonstat.Item) (Entry, error) {
	if it.Err != nil {
		return Entry{}, it.Err
	}
	ds := it.Dataset
	if ds.Extension.Matrix == "" {
		return Entry{}, fmt.Errorf("missing table code")
	}

	e := Entry{
		Code:         ds.Extension.Matrix,
		Title:        ds.Label,
		Organisation: ds.Extension.CopyrightName,
		Exceptional:  ds.Extension.Exceptional,
	}
	for _, d := range ds.Dimensions {
		if d.Label != table.StatisticColumn {
			e.Variables = append(e.Variables, d.Label)
		}
	}
	if td, ok := ds.TimeDimension(); ok {
		e.TimeVariable = td.Label
		switch n := len(td.Labels); {
		case n == 1:
			e.DateRange = td.Labels[0]
		case n > 1:
			e.DateRange = td.Labels[0] + " - " + td.Labels[n-1]
		}
	}
	if t, ok := jsonstat.ParseUpdated(ds.Updated); ok {
		e.Updated = t
	}
	if c.sanitise {
		e.Variables = sanitise.List(e.Variables)
		if e.TimeVariable != "" {
			e.TimeVariable = sanitise.String(e.TimeVariable)
		}
	}
	return e, nil
}

func (c *Catalogue) debugf(format string, args ...any) {
	if c.logger != nil {
		c.logger.Debugf(format, args...)
	}
}

func (c *Catalogue) warnf(format string, args ...any) {
	if c.logger != nil {
		c.logger.Warnf(format, args...)
	}
}

func cloneEntries(in []Entry) []Entry {
	out := make([]Entry, len(in))
	for i, e := range in {
		e.Variables = slices.Clone(e.Variables)
		out[i] = e
	}
	return out
}

// Table renders entries for display or export.
func Table(entries []Entry) *table.Table {
	t := table.New("Code", "Title", "Variables", "Time Variable", "Date Range", "Updated", "Organisation", "Exceptional")
	for _, e := range entries {
		var updated any
		if !e.Updated.IsZero() {
			updated = e.Updated.UTC().Format(time.RFC3339)
		}
		t.Append(e.Code, e.Title, strings.Join(e.Variables, ", "), e.TimeVariable, e.DateRange, updated, e.Organisation, fmt.Sprint(e.Exceptional))
	}
	return t
}
