package search

import (
	"regexp"
	"strconv"
	"strings"
	"time"
)

// Granularity is the precision of a parsed date.
type Granularity int

const (
	GranularityNone Granularity = iota
	GranularityYear
	GranularityQuarter
	GranularityMonth
	GranularityDay
)

func (g Granularity) String() string {
	switch g {
	case GranularityYear:
		return "year"
	case GranularityQuarter:
		return "quarter"
	case GranularityMonth:
		return "month"
	case GranularityDay:
		return "day"
	default:
		return ""
	}
}

// Valid reports whether g denotes a successful parse.
func (g Granularity) Valid() bool { return g != GranularityNone }

var (
	yearPattern       = regexp.MustCompile(`^\d{4}$`)
	quarterPattern    = regexp.MustCompile(`(?i)^(?:(\d{4})\s*Q([1-4])|Q([1-4])\s*(\d{4}))$`)
	monthYearPattern  = regexp.MustCompile(`^([a-zA-Z]+)\s+(\d{4})$`)
	yearMonthPattern  = regexp.MustCompile(`^(\d{4})\s+([a-zA-Z]+)$`)
	numericMonthMatch = regexp.MustCompile(`^(\d{4})[-/](\d{1,2})$|^(\d{1,2})[-/](\d{4})$`)
	isoDatePattern    = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)
)

var monthNames = map[string]time.Month{
	"january": time.January, "jan": time.January,
	"february": time.February, "feb": time.February,
	"march": time.March, "mar": time.March,
	"april": time.April, "apr": time.April,
	"may": time.May,
	"june": time.June, "jun": time.June,
	"july": time.July, "jul": time.July,
	"august": time.August, "aug": time.August,
	"september": time.September, "sep": time.September, "sept": time.September,
	"october": time.October, "oct": time.October,
	"november": time.November, "nov": time.November,
	"december": time.December, "dec": time.December,
}

// Day-first layouts tried when no structured pattern matches.
var fallbackLayouts = []string{
	"02/01/2006",
	"2/1/2006",
	"02-01-2006",
	"2-1-2006",
	"02.01.2006",
	"2 January 2006",
	"2 Jan 2006",
	"January 2, 2006",
	"Jan 2, 2006",
	"January 2 2006",
	"2006/01/02",
	"2006/1/2",
	"2006-1-2",
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
}

// ParseDate parses a user- or catalogue-supplied date string and reports its
// granularity. The returned time is the first instant of the period. On
// failure it returns the zero time and GranularityNone.
func ParseDate(s string) (time.Time, Granularity) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, GranularityNone
	}

	if yearPattern.MatchString(s) {
		y, _ := strconv.Atoi(s)
		return date(y, time.January, 1), GranularityYear
	}

	if m := quarterPattern.FindStringSubmatch(s); m != nil {
		year, quarter := m[1], m[2]
		if year == "" {
			year, quarter = m[4], m[3]
		}
		y, _ := strconv.Atoi(year)
		q, _ := strconv.Atoi(quarter)
		return date(y, time.Month((q-1)*3+1), 1), GranularityQuarter
	}

	if m := monthYearPattern.FindStringSubmatch(s); m != nil {
		if month, ok := monthNames[strings.ToLower(m[1])]; ok {
			y, _ := strconv.Atoi(m[2])
			return date(y, month, 1), GranularityMonth
		}
	}
	if m := yearMonthPattern.FindStringSubmatch(s); m != nil {
		if month, ok := monthNames[strings.ToLower(m[2])]; ok {
			y, _ := strconv.Atoi(m[1])
			return date(y, month, 1), GranularityMonth
		}
	}

	if m := numericMonthMatch.FindStringSubmatch(s); m != nil {
		year, month := m[1], m[2]
		if year == "" {
			year, month = m[4], m[3]
		}
		y, _ := strconv.Atoi(year)
		mo, _ := strconv.Atoi(month)
		if mo >= 1 && mo <= 12 {
			return date(y, time.Month(mo), 1), GranularityMonth
		}
	}

	if isoDatePattern.MatchString(s) {
		if t, err := time.Parse(time.DateOnly, s); err == nil {
			return t, GranularityDay
		}
	}

	for _, layout := range fallbackLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return date(t.Year(), t.Month(), t.Day()), GranularityDay
		}
	}
	return time.Time{}, GranularityNone
}

// PeriodEnd returns the last day of the period t belongs to at granularity g.
// Day granularity (and GranularityNone) leaves t unchanged.
func PeriodEnd(t time.Time, g Granularity) time.Time {
	switch g {
	case GranularityYear:
		return date(t.Year(), time.December, 31)
	case GranularityQuarter:
		switch m := t.Month(); {
		case m <= time.March:
			return date(t.Year(), time.March, 31)
		case m <= time.June:
			return date(t.Year(), time.June, 30)
		case m <= time.September:
			return date(t.Year(), time.September, 30)
		default:
			return date(t.Year(), time.December, 31)
		}
	case GranularityMonth:
		// day 0 of the next month normalises to the last day of this one
		return date(t.Year(), t.Month()+1, 0)
	default:
		return t
	}
}

func date(year int, month time.Month, day int) time.Time {
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}
