package catalogue

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSource struct {
	mu    sync.Mutex
	body  []byte
	err   error
	calls []string
}

func (f *fakeSource) ReadCollection(_ context.Context, fromDate string) ([]byte, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, fromDate)
	return f.body, f.err
}

type recordingLogger struct {
	warnings []string
}

func (l *recordingLogger) Debugf(string, ...any) {}

func (l *recordingLogger) Warnf(format string, _ ...any) {
	l.warnings = append(l.warnings, format)
}

func newSource(t *testing.T) *fakeSource {
	t.Helper()
	data, err := os.ReadFile(filepath.Join("testdata", "collection.json"))
	require.NoError(t, err)
	return &fakeSource{body: data}
}

func codes(entries []Entry) []string {
	out := make([]string, len(entries))
	for i, e := range entries {
		out[i] = e.Code
	}
	return out
}

func TestTOC(t *testing.T) {
	src := newSource(t)
	logger := &recordingLogger{}
	c := New(src, WithLogger(logger))

	toc, err := c.TOC(context.Background(), "")
	require.NoError(t, err)
	assert.Equal(t, []string{"LRM01", "VSA01", "FY003A", "HPM09"}, codes(toc))
	assert.Equal(t, []string{DefaultFromDate}, src.calls)
	assert.Equal(t, 2, c.Skipped())
	assert.Len(t, logger.warnings, 2)

	fy := toc[2]
	assert.Equal(t, "Population at Each Census", fy.Title)
	assert.Equal(t, []string{"CensusYear", "Counties"}, fy.Variables)
	assert.Equal(t, "CensusYear", fy.TimeVariable)
	assert.Equal(t, "2016 - 2022", fy.DateRange)
	assert.Equal(t, time.Date(2023, 5, 30, 11, 0, 0, 0, time.UTC), fy.Updated)
	assert.Equal(t, "Central Statistics Office, Ireland", fy.Organisation)

	vsa := toc[1]
	assert.Equal(t, []string{"Quarter", "Sex"}, vsa.Variables, "upper-case statistic dimension is excluded")
	assert.True(t, vsa.Exceptional)

	hpm := toc[3]
	assert.True(t, hpm.Updated.IsZero())
	assert.Empty(t, hpm.TimeVariable)
	assert.Empty(t, hpm.DateRange)
}

func TestTOCSanitise(t *testing.T) {
	c := New(newSource(t), WithSanitise(true))
	toc, err := c.TOC(context.Background(), "")
	require.NoError(t, err)
	assert.Equal(t, []string{"Census Year", "County"}, toc[2].Variables)
	assert.Equal(t, "Census Year", toc[2].TimeVariable)
}

func TestTOCCache(t *testing.T) {
	ctx := context.Background()

	src := newSource(t)
	c := New(src)
	first, err := c.TOC(ctx, "")
	require.NoError(t, err)
	first[0].Variables[0] = "mutated"

	second, err := c.TOC(ctx, "")
	require.NoError(t, err)
	assert.Len(t, src.calls, 1)
	assert.NotEqual(t, "mutated", second[0].Variables[0], "callers receive copies")

	_, err = c.TOC(ctx, "2024-01-01")
	require.NoError(t, err)
	assert.Len(t, src.calls, 2, "from dates are cached separately")

	c.Flush()
	_, err = c.TOC(ctx, "")
	require.NoError(t, err)
	assert.Len(t, src.calls, 3)

	uncached := newSource(t)
	nc := New(uncached, WithCache(false))
	for range 2 {
		_, err = nc.TOC(ctx, "")
		require.NoError(t, err)
	}
	assert.Len(t, uncached.calls, 2)
}

func TestTOCErrors(t *testing.T) {
	_, err := New(&fakeSource{err: errors.New("offline")}).TOC(context.Background(), "")
	assert.ErrorContains(t, err, "offline")

	_, err = New(&fakeSource{body: []byte("{")}).TOC(context.Background(), "")
	assert.Error(t, err)
}

func TestSearch(t *testing.T) {
	yes, no := true, false
	tests := []struct {
		name  string
		query Query
		want  []string
	}{
		{"no criteria", Query{}, []string{"LRM01", "VSA01", "FY003A", "HPM09"}},
		{"code substring", Query{Code: "vsa"}, []string{"VSA01"}},
		{"title term", Query{Title: "population"}, []string{"LRM01", "FY003A"}},
		{"title and", Query{Title: "population AND census"}, []string{"FY003A"}},
		{"title relevance", Query{Title: "population OR census"}, []string{"FY003A", "LRM01"}},
		{"title ties by update", Query{Title: "population OR births"}, []string{"LRM01", "VSA01", "FY003A"}},
		{"variables with not", Query{Variables: "sex AND NOT age"}, []string{"VSA01"}},
		{"variables quoted", Query{Variables: `"residential property"`}, []string{"HPM09"}},
		{"time variable", Query{TimeVariable: "quarter OR month"}, []string{"LRM01", "VSA01"}},
		{"single date", Query{TimeRange: "2023Q2"}, []string{"LRM01", "VSA01"}},
		{"month date", Query{TimeRange: "May 2024"}, []string{"LRM01"}},
		{"date tuple", Query{TimeRange: "(2017, 2019)"}, []string{"FY003A"}},
		{"unparseable range falls back to text", Query{TimeRange: "2016 -"}, []string{"FY003A"}},
		{"from date", Query{FromDate: "2024-01-01"}, []string{"LRM01", "VSA01"}},
		{"organisation", Query{Organisation: "social"}, []string{"LRM01"}},
		{"exceptional", Query{Exceptional: &yes}, []string{"VSA01"}},
		{"not exceptional", Query{Exceptional: &no, Title: "index"}, []string{"HPM09"}},
		{"combined", Query{Title: "population", Organisation: "central"}, []string{"FY003A"}},
		{"nothing matches", Query{Code: "ZZZ"}, []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := New(newSource(t))
			got, err := c.Search(context.Background(), tt.query)
			require.NoError(t, err)
			assert.Equal(t, tt.want, codes(got))
		})
	}
}

func TestSearchFromDate(t *testing.T) {
	src := newSource(t)
	c := New(src)

	_, err := c.Search(context.Background(), Query{FromDate: "2024-01-01"})
	require.NoError(t, err)
	assert.Equal(t, []string{"2024-01-01"}, src.calls)

	_, err = c.Search(context.Background(), Query{FromDate: "last week"})
	assert.ErrorContains(t, err, "YYYY-MM-DD")
}

func TestSearchFromDateUsesLocalCalendarDay(t *testing.T) {
	item := func(code, updated string) string {
		return `{"label":"` + code + `","updated":"` + updated + `",` +
			`"dimension":{"STATISTIC":{"label":"Statistic","category":{"index":["x"]}}},` +
			`"extension":{"matrix":"` + code + `"}}`
	}
	src := &fakeSource{body: []byte(`{"link":{"item":[` +
		item("EARLY1", "2024-01-15T00:30:00+01:00") + "," +
		item("LATE01", "2024-01-14T23:30:00-01:00") + "," +
		item("PRIOR1", "2024-01-14T23:59:00Z") + `]}}`)}
	c := New(src)

	got, err := c.Search(context.Background(), Query{FromDate: "2024-01-15"})
	require.NoError(t, err)
	assert.Equal(t, []string{"EARLY1"}, codes(got))
}

func TestTable(t *testing.T) {
	c := New(newSource(t))
	toc, err := c.TOC(context.Background(), "")
	require.NoError(t, err)

	tbl := Table(toc)
	assert.Equal(t, []string{"Code", "Title", "Variables", "Time Variable", "Date Range", "Updated", "Organisation", "Exceptional"}, tbl.Columns)
	require.Equal(t, 4, tbl.Len())
	assert.Equal(t, "CensusYear, Counties", tbl.Value(2, "Variables"))
	assert.Equal(t, "2023-05-30T11:00:00Z", tbl.Value(2, "Updated"))
	assert.Nil(t, tbl.Value(3, "Updated"))
	assert.Equal(t, "true", tbl.Value(1, "Exceptional"))
}
