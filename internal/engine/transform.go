package engine

import (
	"math"
	"strconv"
	"strings"

	"gdpengine/internal/models"
)

// Transform reshapes a wide table into one LongRecord per (row, year column).
// Year columns are the ones whose header is all digits; any other
// non-identifier column is ignored. Unparsable or empty cells become nil.
func (e *Engine) Transform(wide models.WideTable) (models.LongTable, error) {
	idx := make([]int, len(models.IdentifierColumns))
	var missing []string
	for i, name := range models.IdentifierColumns {
		idx[i] = wide.Index(name)
		if idx[i] < 0 {
			missing = append(missing, name)
		}
	}
	if len(missing) > 0 {
		return nil, &SchemaError{Missing: missing}
	}

	type yearCol struct {
		pos  int
		year int
	}
	var years []yearCol
	for pos, name := range wide.Columns {
		if !models.IsYearColumn(name) {
			continue
		}
		y, err := strconv.Atoi(name)
		if err != nil {
			continue
		}
		years = append(years, yearCol{pos: pos, year: y})
	}

	out := make(models.LongTable, 0, wide.Len()*len(years))
	for row := range wide.Records {
		base := models.LongRecord{
			CountryName:   wide.Cell(row, idx[0]),
			Continent:     wide.Cell(row, idx[1]),
			IndicatorName: wide.Cell(row, idx[2]),
			IndicatorCode: wide.Cell(row, idx[3]),
			CountryCode:   wide.Cell(row, idx[4]),
		}
		for _, yc := range years {
			rec := base
			rec.Year = yc.year
			rec.Value = ParseValue(wide.Cell(row, yc.pos))
			out = append(out, rec)
		}
	}
	e.log.Debugf("transform: %d wide rows x %d year columns -> %d long rows", wide.Len(), len(years), len(out))
	return out, nil
}

// ParseValue reads a numeric cell. Empty, non-numeric and non-finite cells
// yield nil.
func ParseValue(cell string) *float64 {
	s := strings.TrimSpace(cell)
	if s == "" {
		return nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return nil
	}
	return &f
}
