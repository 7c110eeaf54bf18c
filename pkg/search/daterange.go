package search

import (
	"strings"
	"time"
)

// Range is an inclusive span of days.
type Range struct {
	Start time.Time
	End   time.Time
}

// NewRange builds a range from two parsed dates, extending end to the close
// of its period.
func NewRange(start time.Time, end time.Time, endGranularity Granularity) Range {
	return Range{Start: start, End: PeriodEnd(end, endGranularity)}
}

// Overlaps reports whether r and other share at least one day.
func (r Range) Overlaps(other Range) bool {
	return !r.Start.After(other.End) && !other.Start.After(r.End)
}

// ParseDateRange parses a catalogue date-range field such as
// "2011 - 2022" or "2023Q1". A single value is both start and end. The end is
// extended to the close of its period.
func ParseDateRange(field string) (Range, bool) {
	field = strings.TrimSpace(field)
	if field == "" {
		return Range{}, false
	}
	parts := strings.Split(field, " - ")
	if len(parts) > 2 {
		return Range{}, false
	}
	startText, endText := parts[0], parts[0]
	if len(parts) == 2 {
		endText = parts[1]
	}

	start, g := ParseDate(startText)
	if !g.Valid() {
		return Range{}, false
	}
	end, eg := ParseDate(endText)
	if !eg.Valid() {
		return Range{}, false
	}
	return NewRange(start, end, eg), true
}

// ParseRangeTuple splits a query of the form "(start, end)" into its two
// trimmed parts.
func ParseRangeTuple(query string) (start, end string, ok bool) {
	query = strings.TrimSpace(query)
	if !strings.HasPrefix(query, "(") || !strings.HasSuffix(query, ")") || len(query) < 2 {
		return "", "", false
	}
	parts := strings.Split(query[1:len(query)-1], ",")
	if len(parts) != 2 {
		return "", "", false
	}
	return strings.TrimSpace(parts[0]), strings.TrimSpace(parts[1]), true
}

// DateInRange reports whether the period starting at t (with granularity g)
// overlaps the date-range field.
func DateInRange(t time.Time, g Granularity, field string) bool {
	fr, ok := ParseDateRange(field)
	if !ok {
		return false
	}
	return NewRange(t, t, g).Overlaps(fr)
}

// RangeOverlaps reports whether the query span [start, end] overlaps the
// date-range field. end is extended to the close of its period.
func RangeOverlaps(start, end time.Time, endGranularity Granularity, field string) bool {
	fr, ok := ParseDateRange(field)
	if !ok {
		return false
	}
	return NewRange(start, end, endGranularity).Overlaps(fr)
}
