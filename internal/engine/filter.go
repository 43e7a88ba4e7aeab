package engine

import (
	"golang.org/x/text/cases"

	"gdpengine/internal/models"
)

// FilterRegion keeps rows whose Continent equals region, ignoring case.
// A nil region returns a copy of the input.
func (e *Engine) FilterRegion(long models.LongTable, region *string) models.LongTable {
	if region == nil {
		e.log.Debugf("filter: no region, skipping")
		return clone(long)
	}
	fold := cases.Fold()
	want := fold.String(*region)
	out := keep(long, func(r *models.LongRecord) bool { return fold.String(r.Continent) == want })
	e.log.Debugf("filter: region=%q %d -> %d rows", *region, len(long), len(out))
	return out
}

// FilterCountry keeps rows whose Country Name equals country, ignoring case.
func (e *Engine) FilterCountry(long models.LongTable, country *string) models.LongTable {
	if country == nil {
		e.log.Debugf("filter: no country, skipping")
		return clone(long)
	}
	fold := cases.Fold()
	want := fold.String(*country)
	out := keep(long, func(r *models.LongRecord) bool { return fold.String(r.CountryName) == want })
	e.log.Debugf("filter: country=%q %d -> %d rows", *country, len(long), len(out))
	return out
}

// FilterYears applies the year predicate:
//
//	start and end: start <= Year <= end
//	start only:    Year == start
//	end only:      Year == end
//	neither:       no-op
func (e *Engine) FilterYears(long models.LongTable, start, end *int) models.LongTable {
	var pred func(r *models.LongRecord) bool
	switch {
	case start == nil && end == nil:
		e.log.Debugf("filter: no year bounds, skipping")
		return clone(long)
	case end == nil:
		y := *start
		pred = func(r *models.LongRecord) bool { return r.Year == y }
	case start == nil:
		y := *end
		pred = func(r *models.LongRecord) bool { return r.Year == y }
	default:
		lo, hi := *start, *end
		pred = func(r *models.LongRecord) bool { return r.Year >= lo && r.Year <= hi }
	}
	out := keep(long, pred)
	e.log.Debugf("filter: years %s..%s %d -> %d rows", fmtInt(start), fmtInt(end), len(long), len(out))
	return out
}

// DropMissing removes rows without a value.
func (e *Engine) DropMissing(long models.LongTable) models.LongTable {
	return keep(long, func(r *models.LongRecord) bool { return r.Value != nil })
}

// Filter runs region, country and year predicates in that order and then
// drops rows without a value. The input is never modified.
func (e *Engine) Filter(long models.LongTable, region, country *string, start, end *int) models.LongTable {
	e.log.Infof("applying filters: region=%s country=%s years=%s-%s",
		fmtStr(region), fmtStr(country), fmtInt(start), fmtInt(end))
	out := e.FilterRegion(long, region)
	out = e.FilterCountry(out, country)
	out = e.FilterYears(out, start, end)
	return e.DropMissing(out)
}

func keep(long models.LongTable, pred func(r *models.LongRecord) bool) models.LongTable {
	out := make(models.LongTable, 0, len(long))
	for i := range long {
		if pred(&long[i]) {
			out = append(out, long[i])
		}
	}
	return out
}

func clone(long models.LongTable) models.LongTable {
	out := make(models.LongTable, len(long))
	copy(out, long)
	return out
}
