package engine

import (
	"math"
	"sort"
	"strconv"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"gdpengine/internal/models"
)

// Year range reported when a dataset carries no usable years.
const (
	DefaultMinYear = 1960
	DefaultMaxYear = 2024
)

// Regions returns the distinct Continent values, title-cased and sorted.
func Regions(src models.ColumnSource) []string {
	return distinctTitled(src, models.ColContinent)
}

// Countries returns the distinct Country Name values, title-cased and sorted.
func Countries(src models.ColumnSource) []string {
	return distinctTitled(src, models.ColCountryName)
}

func distinctTitled(src models.ColumnSource, column string) []string {
	values, ok := src.Column(column)
	if !ok {
		return []string{}
	}
	title := cases.Title(language.Und)
	seen := make(map[string]struct{}, len(values))
	out := make([]string, 0)
	for _, v := range values {
		if strings.TrimSpace(v) == "" {
			continue
		}
		t := title.String(v)
		if _, dup := seen[t]; dup {
			continue
		}
		seen[t] = struct{}{}
		out = append(out, t)
	}
	sort.Strings(out)
	return out
}

// YearRange returns the min and max of the Year column. Cells that are not
// numbers are ignored; a missing, empty or fully unparsable column yields
// DefaultMinYear..DefaultMaxYear.
func YearRange(src models.ColumnSource) (int, int) {
	values, ok := src.Column(models.ColYear)
	if !ok || len(values) == 0 {
		return DefaultMinYear, DefaultMaxYear
	}
	lo, hi := math.Inf(1), math.Inf(-1)
	for _, v := range values {
		f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
			continue
		}
		lo = math.Min(lo, f)
		hi = math.Max(hi, f)
	}
	if math.IsInf(lo, 1) {
		return DefaultMinYear, DefaultMaxYear
	}
	return int(lo), int(hi)
}

// Bounds collects regions, countries and the year range of a dataset.
func Bounds(src models.ColumnSource) models.DatasetBounds {
	lo, hi := YearRange(src)
	return models.DatasetBounds{
		Regions:   Regions(src),
		Countries: Countries(src),
		MinYear:   lo,
		MaxYear:   hi,
	}
}
