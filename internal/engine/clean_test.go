package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCleanFillMethods(t *testing.T) {
	wide := wideTable([]string{"2000", "2001", "2002", "2003"},
		[]string{"Japan", "Asia", "GDP", "NY.GDP", "JPN", "", "10", "", "-5"},
	)
	cases := map[string][]string{
		FillNone:     {"", "10", "", ""},
		FillZero:     {"0", "10", "0", ""},
		FillForward:  {"", "10", "10", ""},
		FillBackward: {"10", "10", "", ""},
	}
	for method, want := range cases {
		t.Run(method, func(t *testing.T) {
			got, err := New(nil).Clean(wide, CleanOptions{FillMethod: method})
			require.NoError(t, err)
			require.Equal(t, 1, got.Len())
			assert.Equal(t, want, []string(got.Records[0][5:]))
		})
	}
}

func TestCleanDropsDuplicates(t *testing.T) {
	wide := wideTable([]string{"2000"},
		[]string{"Japan", "Asia", "GDP", "NY.GDP", "JPN", "1"},
		[]string{"Japan", "Asia", "GDP", "NY.GDP", "JPN", "2"},
		[]string{"Japan", "Asia", "GNI", "NY.GNI", "JPN", "3"},
	)
	got, err := New(nil).Clean(wide, CleanOptions{})
	require.NoError(t, err)
	require.Equal(t, 2, got.Len())
	assert.Equal(t, "1", got.Records[0][5])
	assert.Equal(t, "3", got.Records[1][5])

	// Input untouched.
	assert.Equal(t, 3, wide.Len())
}

func TestCleanUnknownMethod(t *testing.T) {
	_, err := New(nil).Clean(wideTable(nil), CleanOptions{FillMethod: "interpolate"})
	assert.Error(t, err)
}

func TestCleanFillsInYearOrder(t *testing.T) {
	wide := wideTable([]string{"2002", "2000", "2001"},
		[]string{"Japan", "Asia", "GDP", "NY.GDP", "JPN", "", "10", ""},
	)
	ffill, err := New(nil).Clean(wide, CleanOptions{FillMethod: FillForward})
	require.NoError(t, err)
	// 2000 carries forward into 2001 and 2002, not back into the leading 2002 column.
	assert.Equal(t, []string{"10", "10", "10"}, []string(ffill.Records[0][5:]))

	wide = wideTable([]string{"2002", "2000", "2001"},
		[]string{"Japan", "Asia", "GDP", "NY.GDP", "JPN", "30", "", ""},
	)
	bfill, err := New(nil).Clean(wide, CleanOptions{FillMethod: FillBackward})
	require.NoError(t, err)
	assert.Equal(t, []string{"30", "30", "30"}, []string(bfill.Records[0][5:]))
}
