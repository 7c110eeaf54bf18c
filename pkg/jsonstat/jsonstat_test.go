package jsonstat

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func loadTestData(t *testing.T, name string) []byte {
	t.Helper()
	data, err := os.ReadFile(filepath.Join("testdata", name))
	require.NoError(t, err, "Failed to read test data file")
	return data
}

func TestDecodeDataset(t *testing.T) {
	ds, err := Decode(loadTestData(t, "dataset.json"))
	require.NoError(t, err)

	require.Len(t, ds.Dimensions, 3)
	assert.Equal(t, "Statistic", ds.Dimensions[0].Label, "statistic label is canonicalised")
	assert.Equal(t, []string{"IE0", "IE061", "IE062"}, ds.Dimensions[2].Codes)
	assert.Equal(t, []string{"State", "Dublin", "Cork"}, ds.Dimensions[2].Labels)
	assert.Equal(t, []int{1, 2, 3}, ds.Sizes)
	assert.Equal(t, "FY003A", ds.Extension.Matrix)

	tbl := ds.Table()
	assert.Equal(t, []string{"Statistic", "Census Year", "County", "value"}, tbl.Columns)
	require.Equal(t, 6, tbl.Len())
	assert.Equal(t, []any{"Population", "2016", "State", 4761865.0}, tbl.Rows[0])
	assert.Equal(t, []any{"Population", "2022", "Dublin", 1458154.0}, tbl.Rows[4])
	assert.Equal(t, []any{"Population", "2022", "Cork", nil}, tbl.Rows[5])
}

func TestDecodeSparseValues(t *testing.T) {
	doc := `{
		"id": ["A", "B"],
		"size": [2, 2],
		"dimension": {
			"A": {"label": "A", "category": {"index": ["a1", "a2"]}},
			"B": {"label": "B", "category": {"label": {"b1": "Bee 1", "b2": "Bee 2"}}}
		},
		"value": {"0": 1, "3": "4.5", "2": "n/a"}
	}`
	ds, err := Decode([]byte(doc))
	require.NoError(t, err)

	tbl := ds.Table()
	require.Equal(t, 4, tbl.Len())
	assert.Equal(t, []any{"a1", "Bee 1", 1.0}, tbl.Rows[0])
	assert.Equal(t, []any{"a1", "Bee 2", nil}, tbl.Rows[1])
	assert.Equal(t, []any{"a2", "Bee 1", nil}, tbl.Rows[2])
	assert.Equal(t, []any{"a2", "Bee 2", 4.5}, tbl.Rows[3])
}

func TestDecodeErrors(t *testing.T) {
	_, err := Decode([]byte(`{not json`))
	assert.Error(t, err)

	_, err = Decode([]byte(`{"label": "x"}`))
	assert.ErrorIs(t, err, ErrNoDimensions)

	_, err = Decode([]byte(`{"id":["A"],"size":[2],"dimension":{"A":{"category":{"index":["x","y"]}}},"value":[1]}`))
	assert.Error(t, err)
}

// cube builds a document with one dimension per entry of counts, each with
// that many categories, and the given size array.
func cube(counts []int, size string) string {
	var ids, dims []string
	for i, n := range counts {
		codes := make([]string, n)
		for j := range codes {
			codes[j] = fmt.Sprintf("%q", fmt.Sprintf("c%d", j))
		}
		id := fmt.Sprintf("D%d", i)
		ids = append(ids, fmt.Sprintf("%q", id))
		dims = append(dims, fmt.Sprintf("%q:{\"category\":{\"index\":[%s]}}", id, strings.Join(codes, ",")))
	}
	return fmt.Sprintf(`{"id":[%s],"size":%s,"dimension":{%s}}`,
		strings.Join(ids, ","), size, strings.Join(dims, ","))
}

func TestDecodeRejectsBadSizes(t *testing.T) {
	tests := []struct {
		name   string
		counts []int
		size   string
		msg    string
	}{
		{"negative", []int{1}, "[-1]", "negative"},
		{"larger than categories", []int{2}, "[1000000000]", "has 2 categories"},
		{"smaller than categories", []int{3}, "[2]", "has 3 categories"},
		{"wrong length", []int{2, 2}, "[2]", "1 entries for 2 dimensions"},
		{"not a number", []int{2}, `["2"]`, "size of"},
		{"too many cells", []int{600, 600, 600}, "[600,600,600]", "more than"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var ds *Dataset
			require.NotPanics(t, func() {
				var err error
				ds, err = Decode([]byte(cube(tt.counts, tt.size)))
				assert.ErrorContains(t, err, tt.msg)
			})
			assert.Nil(t, ds)
		})
	}
}

func TestDecodeCollectionSkipsBadSize(t *testing.T) {
	doc := fmt.Sprintf(`{"link":{"item":[%s,%s]}}`, cube([]int{2}, "[2]"), cube([]int{1}, "[-1]"))

	var items []Item
	require.NotPanics(t, func() {
		var err error
		items, err = DecodeCollection([]byte(doc))
		require.NoError(t, err)
	})
	require.Len(t, items, 2)
	require.NoError(t, items[0].Err)
	assert.Equal(t, []int{2}, items[0].Dataset.Sizes)
	assert.ErrorContains(t, items[1].Err, "negative")
}

func TestDecodeDerivesMissingSizes(t *testing.T) {
	ds, err := Decode([]byte(`{"dimension":{"A":{"category":{"index":["x","y"]}}},"value":[1,2]}`))
	require.NoError(t, err)
	assert.Equal(t, []int{2}, ds.Sizes)
	assert.Equal(t, 2, ds.Table().Len())
}

func TestMetadata(t *testing.T) {
	ds, err := Decode(loadTestData(t, "dataset.json"))
	require.NoError(t, err)

	m := ds.Metadata()
	assert.Equal(t, "FY003A", m.TableCode)
	assert.Equal(t, "Population at Each Census", m.Title)
	assert.Equal(t, []string{"Number"}, m.Units)
	assert.Equal(t, "Census Year", m.TimeVariable)
	assert.Equal(t, []string{"Population"}, m.Statistics)
	assert.Equal(t, []string{"Statistic", "Census Year", "County"}, m.Variables)
	assert.Equal(t, []string{"Census release"}, m.Reasons)
	assert.True(t, m.Official)
	assert.True(t, m.Geographic)
	assert.Equal(t, []string{"Official Statistics", "Geographic Data"}, m.Tags)
	assert.Equal(t, time.Date(2023, 5, 30, 11, 0, 0, 0, time.UTC), m.LastUpdated)
	assert.Equal(t, "Central Statistics Office, Ireland", m.CopyrightName)
	assert.Equal(t, "census@cso.ie", m.ContactEmail)
	assert.Equal(t, SpatialInfo{URL: "https://example.com/boundaries/counties.geojson", Key: "County"}, m.Spatial)
	assert.Equal(t, []string{
		"Note: Figures are provisional. See the census pages (https://www.cso.ie/en/census/) for more.",
	}, m.Notes)
}

func TestIDMapping(t *testing.T) {
	ds, err := Decode(loadTestData(t, "dataset.json"))
	require.NoError(t, err)

	county, ok := ds.Dimension("C03789V04537")
	require.True(t, ok)
	assert.Equal(t, map[string]string{"State": "IE0", "Dublin": "IE061", "Cork": "IE062"}, county.IDMapping())
}

func TestDecodeCollection(t *testing.T) {
	items, err := DecodeCollection(loadTestData(t, "collection.json"))
	require.NoError(t, err)
	require.Len(t, items, 3)

	require.NoError(t, items[0].Err)
	assert.Equal(t, "FY003A", items[0].Dataset.Extension.Matrix)

	assert.Error(t, items[1].Err)
	assert.Nil(t, items[1].Dataset)

	require.NoError(t, items[2].Err)
	births := items[2].Dataset
	assert.True(t, births.Extension.Exceptional)
	td, ok := births.TimeDimension()
	require.True(t, ok)
	assert.Equal(t, "Quarter", td.Label)
	assert.Equal(t, []string{"Statistic", "Quarter", "Sex"}, births.Metadata().Variables)
}

func TestParseUpdated(t *testing.T) {
	got, ok := ParseUpdated("2024-02-01T09:30:00")
	require.True(t, ok)
	assert.Equal(t, time.Date(2024, 2, 1, 9, 30, 0, 0, time.UTC), got)

	_, ok = ParseUpdated("yesterday")
	assert.False(t, ok)
}
