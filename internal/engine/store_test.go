package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gdpengine/internal/models"
)

func TestNewDataset(t *testing.T) {
	ds, err := New(nil).NewDataset("gdp.csv", gdpWide())
	require.NoError(t, err)

	assert.Equal(t, "gdp.csv", ds.Source)
	assert.Len(t, ds.Long, 9)
	assert.Equal(t, []string{"Asia", "Europe"}, ds.Bounds.Regions)
	assert.Equal(t, []string{"France", "India", "Japan"}, ds.Bounds.Countries)
	assert.Equal(t, 2000, ds.Bounds.MinYear)
	assert.Equal(t, 2002, ds.Bounds.MaxYear)
	assert.NotEmpty(t, ds.Fingerprint)
	assert.False(t, ds.LoadedAt.IsZero())
}

func TestNewDatasetSchemaError(t *testing.T) {
	wide := models.WideTable{Columns: []string{"Country Name", "2000"}, Records: []models.WideRecord{{"Japan", "1"}}}
	_, err := New(nil).NewDataset("bad.csv", wide)
	assert.ErrorIs(t, err, ErrSchema)
}

func TestFingerprint(t *testing.T) {
	a := gdpWide()
	b := gdpWide()
	assert.Equal(t, Fingerprint(a), Fingerprint(b))

	b.Records[0][5] = "101"
	assert.NotEqual(t, Fingerprint(a), Fingerprint(b))
}
