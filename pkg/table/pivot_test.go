package table

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func censusTable() *Table {
	t := New("Statistic", "Census Year", "Census Year ID", "County", "County ID", "value")
	t.Append("Population", "2016", "2016", "Dublin", "IE061", 1347359.0)
	t.Append("Population", "2016", "2016", "Cork", "IE062", 542868.0)
	t.Append("Population", "2022", "2022", "Dublin", "IE061", 1458154.0)
	t.Append("Population", "2022", "2022", "Cork", "IE062", 584156.0)
	return t
}

func TestPivotWide(t *testing.T) {
	wide, err := PivotWide(censusTable(), "Census Year")
	require.NoError(t, err)

	assert.Equal(t, []string{"Statistic", "County", "County ID", "2016", "2022"}, wide.Columns)
	require.Equal(t, 2, wide.Len())
	assert.Equal(t, []any{"Population", "Dublin", "IE061", 1347359.0, 1458154.0}, wide.Rows[0])
	assert.Equal(t, []any{"Population", "Cork", "IE062", 542868.0, 584156.0}, wide.Rows[1])
}

func TestPivotWidePreservesFirstOccurrenceOrder(t *testing.T) {
	long := New("County", "Year", "value")
	long.Append("Wexford", "2022", 1.0)
	long.Append("Carlow", "2022", 2.0)
	long.Append("Wexford", "2016", 3.0)
	long.Append("Athlone", "2016", 4.0)

	wide, err := PivotWide(long, "Year")
	require.NoError(t, err)

	var counties []any
	for i := range wide.Len() {
		counties = append(counties, wide.Value(i, "County"))
	}
	assert.Equal(t, []any{"Wexford", "Carlow", "Athlone"}, counties)
	assert.Equal(t, []string{"County", "2022", "2016"}, wide.Columns)
	assert.Equal(t, []any{"Athlone", nil, 4.0}, wide.Rows[2])
}

func TestPivotWideDuplicates(t *testing.T) {
	long := censusTable()
	long.Append("Population", "2016", "2016", "Dublin", "IE061", 1.0)

	_, err := PivotWide(long, "Census Year")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrDuplicateEntries))

	var pe *PivotError
	require.True(t, errors.As(err, &pe))
	assert.Equal(t, Wide, pe.Format)
	assert.Contains(t, pe.Combination, "County=Dublin")
	assert.Contains(t, pe.Combination, "Census Year=2016")
	assert.Contains(t, err.Error(), "County=Dublin")
}

func TestPivotSkipsMissingPivotValues(t *testing.T) {
	long := New("County", "Year", "value")
	long.Append("Cork", "", 1.0)
	long.Append("Cork", nil, 2.0)
	long.Append("Cork", "2022", 3.0)

	wide, err := PivotWide(long, "Year")
	require.NoError(t, err)
	assert.Equal(t, []string{"County", "", "2022"}, wide.Columns)
	assert.Equal(t, [][]any{{"Cork", 1.0, 3.0}}, wide.Rows)
}

func TestPivotColumnCollisions(t *testing.T) {
	tests := []struct {
		name  string
		build func() *Table
		pivot func(*Table) (*Table, error)
	}{
		{
			name: "statistic named like an index column",
			build: func() *Table {
				long := New("Statistic", "County", "value")
				long.Append("County", "Cork", 1.0)
				long.Append("Pop", "Cork", 2.0)
				return long
			},
			pivot: PivotTidy,
		},
		{
			name: "distinct values with the same text",
			build: func() *Table {
				long := New("County", "Year", "value")
				long.Append("Cork", "2016", 1.0)
				long.Append("Kerry", 2016, 2.0)
				return long
			},
			pivot: func(t *Table) (*Table, error) { return PivotWide(t, "Year") },
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := tt.pivot(tt.build())
			assert.ErrorIs(t, err, ErrColumnCollision)
		})
	}
}

func TestPivotMissingColumn(t *testing.T) {
	_, err := PivotWide(censusTable(), "Month")
	assert.ErrorIs(t, err, ErrMissingColumn)

	noStat := New("County", "value")
	_, err = PivotTidy(noStat)
	assert.ErrorIs(t, err, ErrMissingColumn)
}

func TestPivotTidy(t *testing.T) {
	long := New("Statistic", "Statistic ID", "Year", "County", "value")
	long.Append("Population", "FY003A", "2022", "Dublin", 10.0)
	long.Append("Births", "FY003B", "2022", "Dublin", 2.0)
	long.Append("Population", "FY003A", "2022", "Cork", 5.0)
	long.Append("Births", "FY003B", "2022", "Cork", 1.0)
	long.Append("Deaths", "FY003C", "2022", "Cork", nil)

	tidy, err := PivotTidy(long)
	require.NoError(t, err)

	assert.Equal(t, []string{"Year", "County", "Population", "Births", "Deaths"}, tidy.Columns)
	assert.Equal(t, []any{"2022", "Dublin", 10.0, 2.0, nil}, tidy.Rows[0])
	assert.Equal(t, []any{"2022", "Cork", 5.0, 1.0, nil}, tidy.Rows[1])
}

func TestParseFormat(t *testing.T) {
	f, err := ParseFormat("WIDE")
	require.NoError(t, err)
	assert.Equal(t, Wide, f)

	f, err = ParseFormat("")
	require.NoError(t, err)
	assert.Equal(t, Long, f)

	_, err = ParseFormat("square")
	assert.Error(t, err)
}
