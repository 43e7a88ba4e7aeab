package engine

import (
	"sort"
	"strings"

	"gdpengine/internal/models"
)

// Dimension is a single grouping column.
type Dimension int

const (
	ByRegion Dimension = iota
	ByCountry
	ByCountryCode
)

// Column returns the source column name the dimension groups on.
func (d Dimension) Column() string {
	switch d {
	case ByCountry:
		return models.ColCountryName
	case ByCountryCode:
		return models.ColCountryCode
	default:
		return models.ColContinent
	}
}

func (d Dimension) String() string {
	switch d {
	case ByCountry:
		return "country"
	case ByCountryCode:
		return "country-code"
	default:
		return "region"
	}
}

func (d Dimension) key(r *models.LongRecord) string {
	switch d {
	case ByCountry:
		return r.CountryName
	case ByCountryCode:
		return r.CountryCode
	default:
		return r.Continent
	}
}

// ParseDimension maps "region", "country" and "country-code" to a Dimension.
func ParseDimension(s string) (Dimension, bool) {
	switch strings.ToLower(s) {
	case "region", "continent":
		return ByRegion, true
	case "country":
		return ByCountry, true
	case "country-code", "country_code", "code":
		return ByCountryCode, true
	}
	return ByRegion, false
}

// Operation is a reduction over a group's values.
type Operation int

const (
	OpUnknown Operation = iota
	OpSum
	OpMean
)

// Label is the value written to the Operation column.
func (o Operation) Label() string {
	switch o {
	case OpSum:
		return "Sum"
	case OpMean:
		return "Average"
	}
	return ""
}

// ParseOperation recognizes "sum", "avg" and "average" in any case.
func ParseOperation(s string) Operation {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "sum":
		return OpSum
	case "avg", "average":
		return OpMean
	}
	return OpUnknown
}

type aggStats struct {
	Sum   float64
	Count int
}

func (s aggStats) reduce(op Operation) float64 {
	if op == OpSum {
		return s.Sum
	}
	return s.Sum / float64(s.Count)
}

// AggregateBy groups by one dimension and reduces Value. "sum" sums; every
// other operation, including empty, averages. Rows without a value are
// skipped. Groups come back sorted by key.
func (e *Engine) AggregateBy(long models.LongTable, dim Dimension, operation string) []models.GroupRow {
	op := ParseOperation(operation)
	if op != OpSum {
		op = OpMean
	}

	// 1. Accumulate
	stats := make(map[string]*aggStats)
	for i := range long {
		r := &long[i]
		if r.Value == nil {
			continue
		}
		k := dim.key(r)
		s, ok := stats[k]
		if !ok {
			s = &aggStats{}
			stats[k] = s
		}
		s.Sum += *r.Value
		s.Count++
	}

	// 2. Sort keys
	keys := make([]string, 0, len(stats))
	for k := range stats {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	// 3. Build result
	col := dim.Column()
	out := make([]models.GroupRow, 0, len(keys))
	for _, k := range keys {
		out = append(out, models.GroupRow{Column: col, Key: k, Value: stats[k].reduce(op)})
	}
	e.log.Debugf("aggregate by %s (%s): %d rows -> %d groups", col, op.Label(), len(long), len(out))
	return out
}

// AggregateByRegion groups by Continent.
func (e *Engine) AggregateByRegion(long models.LongTable, operation string) []models.GroupRow {
	return e.AggregateBy(long, ByRegion, operation)
}

// AggregateByCountry groups by Country Name.
func (e *Engine) AggregateByCountry(long models.LongTable, operation string) []models.GroupRow {
	return e.AggregateBy(long, ByCountry, operation)
}

// AggregateByCountryCode groups by Country Code.
func (e *Engine) AggregateByCountryCode(long models.LongTable, operation string) []models.GroupRow {
	return e.AggregateBy(long, ByCountryCode, operation)
}

type groupKey struct {
	CountryName   string
	CountryCode   string
	IndicatorName string
	IndicatorCode string
	Continent     string
}

func (k groupKey) less(o groupKey) bool {
	switch {
	case k.CountryName != o.CountryName:
		return k.CountryName < o.CountryName
	case k.CountryCode != o.CountryCode:
		return k.CountryCode < o.CountryCode
	case k.IndicatorName != o.IndicatorName:
		return k.IndicatorName < o.IndicatorName
	case k.IndicatorCode != o.IndicatorCode:
		return k.IndicatorCode < o.IndicatorCode
	}
	return k.Continent < o.Continent
}

// AggregateAll groups by the full identifier tuple. An operation other than
// sum/avg/average, the empty string included, leaves the input ungrouped:
// the result carries the long rows and no Operation column. Callers holding
// an unset operation pass "avg", see QueryLong.
func (e *Engine) AggregateAll(long models.LongTable, operation string) models.Result {
	op := ParseOperation(operation)
	if op == OpUnknown {
		e.log.Debugf("aggregate all: unknown operation %q, returning rows ungrouped", operation)
		return models.Result{Long: clone(long)}
	}

	stats := make(map[groupKey]*aggStats)
	for i := range long {
		r := &long[i]
		if r.Value == nil {
			continue
		}
		k := groupKey{r.CountryName, r.CountryCode, r.IndicatorName, r.IndicatorCode, r.Continent}
		s, ok := stats[k]
		if !ok {
			s = &aggStats{}
			stats[k] = s
		}
		s.Sum += *r.Value
		s.Count++
	}

	keys := make([]groupKey, 0, len(stats))
	for k := range stats {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i].less(keys[j]) })

	out := make([]models.AggregateRow, 0, len(keys))
	for _, k := range keys {
		out = append(out, models.AggregateRow{
			CountryName:   k.CountryName,
			CountryCode:   k.CountryCode,
			IndicatorName: k.IndicatorName,
			IndicatorCode: k.IndicatorCode,
			Continent:     k.Continent,
			Value:         stats[k].reduce(op),
			Operation:     op.Label(),
		})
	}
	e.log.Debugf("aggregate all (%s): %d rows -> %d groups", op.Label(), len(long), len(out))
	return models.Result{Aggregated: out}
}
