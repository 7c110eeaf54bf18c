package catalogue

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/robert-malhotra/go-csodata/pkg/search"
)

// Query holds search criteria. Empty fields are ignored; all set fields must
// match.
type Query struct {
	// Code matches a case-insensitive substring of the table code.
	Code string
	// Title is a boolean expression over the table title.
	Title string
	// Variables is a boolean expression over the dimension labels; a term
	// matches when any label contains it.
	Variables string
	// TimeVariable is a boolean expression over the time dimension label.
	TimeVariable string
	// TimeRange is a single date ("2020", "2023Q1", "March 2022", ...) or a
	// tuple "(start, end)". Unparseable input falls back to a substring
	// match on the date range text.
	TimeRange string
	// FromDate (YYYY-MM-DD) keeps tables updated on or after the date.
	FromDate string
	// Organisation matches a case-insensitive substring of the publisher.
	Organisation string
	// Exceptional, when non-nil, must equal the exceptional flag.
	Exceptional *bool
}

type criterion func(Entry) bool

// Search returns the entries matching q, ordered by relevance to the title
// and variables expressions, then by most recent update.
func (c *Catalogue) Search(ctx context.Context, q Query) ([]Entry, error) {
	fromDate := DefaultFromDate
	var since time.Time
	if q.FromDate != "" {
		t, err := time.Parse(time.DateOnly, strings.TrimSpace(q.FromDate))
		if err != nil {
			return nil, fmt.Errorf("catalogue: from date %q is not YYYY-MM-DD: %w", q.FromDate, err)
		}
		fromDate, since = t.Format(time.DateOnly), t
	}

	toc, err := c.TOC(ctx, fromDate)
	if err != nil {
		return nil, err
	}

	criteria := q.criteria(since)
	var (
		results   []Entry
		relevance []int
	)
	titleTerms := search.ExtractTerms(q.Title)
	varTerms := search.ExtractTerms(q.Variables)
	for _, e := range toc {
		if !matchesAll(e, criteria) {
			continue
		}
		results = append(results, e)
		relevance = append(relevance,
			search.CountMatchingTerms(e.Title, titleTerms)+
				search.CountMatchingTerms(strings.Join(e.Variables, " "), varTerms))
	}

	order := make([]int, len(results))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		ra, rb := relevance[order[a]], relevance[order[b]]
		if ra != rb {
			return ra > rb
		}
		return results[order[a]].Updated.After(results[order[b]].Updated)
	})
	sorted := make([]Entry, len(results))
	for i, idx := range order {
		sorted[i] = results[idx]
	}
	return sorted, nil
}

func matchesAll(e Entry, criteria []criterion) bool {
	for _, match := range criteria {
		if !match(e) {
			return false
		}
	}
	return true
}

func (q Query) criteria(since time.Time) []criterion {
	var cs []criterion
	if q.Code != "" {
		code := strings.ToLower(q.Code)
		cs = append(cs, func(e Entry) bool { return strings.Contains(strings.ToLower(e.Code), code) })
	}
	if q.Title != "" {
		match := search.ParseText(q.Title)
		cs = append(cs, func(e Entry) bool { return match(e.Title) })
	}
	if q.Variables != "" {
		match := search.ParseList(q.Variables)
		cs = append(cs, func(e Entry) bool { return len(e.Variables) > 0 && match(e.Variables) })
	}
	if q.TimeVariable != "" {
		match := search.ParseText(q.TimeVariable)
		cs = append(cs, func(e Entry) bool { return e.TimeVariable != "" && match(e.TimeVariable) })
	}
	if q.TimeRange != "" {
		cs = append(cs, timeRangeCriterion(q.TimeRange))
	}
	if !since.IsZero() {
		cs = append(cs, func(e Entry) bool { return !e.Updated.IsZero() && !updatedOn(e.Updated).Before(since) })
	}
	if q.Organisation != "" {
		org := strings.ToLower(q.Organisation)
		cs = append(cs, func(e Entry) bool { return strings.Contains(strings.ToLower(e.Organisation), org) })
	}
	if q.Exceptional != nil {
		want := *q.Exceptional
		cs = append(cs, func(e Entry) bool { return e.Exceptional == want })
	}
	return cs
}

// updatedOn is the calendar date of t in its own location, as midnight UTC.
func updatedOn(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func timeRangeCriterion(query string) criterion {
	substring := func(e Entry) bool {
		return e.DateRange != "" && strings.Contains(strings.ToLower(e.DateRange), strings.ToLower(query))
	}

	if startText, endText, ok := search.ParseRangeTuple(query); ok {
		start, sg := search.ParseDate(startText)
		end, eg := search.ParseDate(endText)
		if !sg.Valid() || !eg.Valid() {
			return substring
		}
		return func(e Entry) bool { return search.RangeOverlaps(start, end, eg, e.DateRange) }
	}

	t, g := search.ParseDate(query)
	if !g.Valid() {
		return substring
	}
	return func(e Entry) bool { return search.DateInRange(t, g, e.DateRange) }
}
