package dataset

import (
	"slices"
	"strings"
)

// Filters restricts rows by column value. Keys are column names (a dimension
// label or its "<label> ID" companion); a row is kept when its cell matches
// any listed value.
type Filters map[string][]string

// IDMode selects which "<dimension> ID" columns appear in output tables.
type IDMode int

const (
	// IDsNone drops every ID column.
	IDsNone IDMode = iota
	// IDsAll keeps every ID column.
	IDsAll
	// IDsSpatialOnly keeps only the spatial dimension's ID column.
	IDsSpatialOnly
	// IDsColumns keeps the ID columns of the dimensions in IncludeIDs.Columns.
	IDsColumns
)

func (m IDMode) String() string {
	switch m {
	case IDsAll:
		return "all"
	case IDsSpatialOnly:
		return "spatial_only"
	case IDsColumns:
		return "columns"
	default:
		return "none"
	}
}

// IncludeIDs chooses the ID columns kept in output tables.
type IncludeIDs struct {
	Mode IDMode
	// Columns lists dimension labels, for IDsColumns.
	Columns []string
}

// IDColumns keeps the ID columns of the named dimensions.
func IDColumns(dimensions ...string) IncludeIDs {
	return IncludeIDs{Mode: IDsColumns, Columns: slices.Clone(dimensions)}
}

// ParseIncludeIDs converts "none", "all" or "spatial_only" (case-insensitive,
// empty meaning none) to an IncludeIDs.
func ParseIncludeIDs(s string) (IncludeIDs, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "none":
		return IncludeIDs{Mode: IDsNone}, nil
	case "all":
		return IncludeIDs{Mode: IDsAll}, nil
	case "spatial_only":
		return IncludeIDs{Mode: IDsSpatialOnly}, nil
	default:
		return IncludeIDs{}, &ValidationError{
			Parameter: "include_ids",
			Value:     s,
			Msg:       `want "all", "spatial_only", "none" or a list of dimension names`,
		}
	}
}

// Logger receives build diagnostics.
type Logger interface {
	Debugf(format string, args ...any)
	Warnf(format string, args ...any)
}

type options struct {
	filters      Filters
	includeIDs   IncludeIDs
	dropFiltered bool
	dropNational bool
	convertDates bool
	sanitise     bool
	logger       Logger
}

// Option configures a Dataset.
type Option func(*options)

// WithFilters keeps only rows matching every filter.
func WithFilters(f Filters) Option {
	return func(o *options) {
		o.filters = make(Filters, len(f))
		for k, v := range f {
			o.filters[k] = slices.Clone(v)
		}
	}
}

// WithIncludeIDs selects the ID columns of output tables.
func WithIncludeIDs(ids IncludeIDs) Option {
	return func(o *options) { o.includeIDs = ids }
}

// WithDropFilteredColumns removes filtered columns, and their label or ID
// companions, from output tables.
func WithDropFilteredColumns(on bool) Option {
	return func(o *options) { o.dropFiltered = on }
}

// WithDropNationalData removes national aggregate rows of the spatial
// dimension.
func WithDropNationalData(on bool) Option {
	return func(o *options) { o.dropNational = on }
}

// WithConvertDates converts time dimension labels to years or dates.
func WithConvertDates(on bool) Option {
	return func(o *options) { o.convertDates = on }
}

// WithSanitise normalises column names, labels and metadata fields.
func WithSanitise(on bool) Option {
	return func(o *options) { o.sanitise = on }
}

// WithLogger registers a logger.
func WithLogger(l Logger) Option {
	return func(o *options) { o.logger = l }
}
