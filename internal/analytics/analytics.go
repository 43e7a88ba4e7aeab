// Package analytics derives ranking and trend views from row-level query
// output: the long rows RunQuery returns with skipAggregation set. Rows
// without a value are ignored throughout.
package analytics

import (
	"errors"
	"sort"

	"gdpengine/internal/models"
)

// ErrYearNotFound is returned when a requested boundary year has no rows.
var ErrYearNotFound = errors.New("startYear or endYear not found in data")

// CountryValue is a country's summed value.
type CountryValue struct {
	Country string  `json:"country"`
	GDP     float64 `json:"gdp"`
}

// GrowthRate is a country's change against its previous available year.
type GrowthRate struct {
	Country       string  `json:"country"`
	Year          int     `json:"year"`
	GrowthRatePct float64 `json:"growth_rate_pct"`
}

// ContinentAverage is the mean value over a continent's rows.
type ContinentAverage struct {
	Continent string  `json:"continent"`
	AvgGDP    float64 `json:"avg_gdp"`
}

// YearTotal is the sum over every row of one year.
type YearTotal struct {
	Year     int     `json:"year"`
	TotalGDP float64 `json:"total_gdp"`
}

// ContinentGrowth is a continent's change between two boundary years.
type ContinentGrowth struct {
	Continent string  `json:"continent"`
	GrowthPct float64 `json:"growth_pct"`
}

// Decline is a country whose value fell every year of a window.
type Decline struct {
	Country       string  `json:"country"`
	AvgDeclinePct float64 `json:"avg_decline_pct"`
}

// ContinentShare is a continent's percentage of the global total.
type ContinentShare struct {
	Continent string  `json:"continent"`
	SharePct  float64 `json:"share_pct"`
}

func sumBy(long models.LongTable, key func(r *models.LongRecord) string) map[string]float64 {
	out := make(map[string]float64)
	for i := range long {
		r := &long[i]
		if r.Value == nil {
			continue
		}
		out[key(r)] += *r.Value
	}
	return out
}

func country(r *models.LongRecord) string   { return r.CountryName }
func continent(r *models.LongRecord) string { return r.Continent }

func countryTotals(long models.LongTable) []CountryValue {
	sums := sumBy(long, country)
	out := make([]CountryValue, 0, len(sums))
	for c, v := range sums {
		out = append(out, CountryValue{Country: c, GDP: v})
	}
	return out
}

// TopCountries returns the n countries with the largest summed value,
// largest first. Ties keep name order.
func TopCountries(long models.LongTable, n int) []CountryValue {
	out := countryTotals(long)
	sort.Slice(out, func(i, j int) bool {
		if out[i].GDP != out[j].GDP {
			return out[i].GDP > out[j].GDP
		}
		return out[i].Country < out[j].Country
	})
	return head(out, n)
}

// BottomCountries returns the n countries with the smallest summed value,
// smallest first.
func BottomCountries(long models.LongTable, n int) []CountryValue {
	out := countryTotals(long)
	sort.Slice(out, func(i, j int) bool {
		if out[i].GDP != out[j].GDP {
			return out[i].GDP < out[j].GDP
		}
		return out[i].Country < out[j].Country
	})
	return head(out, n)
}

func head[T any](s []T, n int) []T {
	if n < 0 {
		n = 0
	}
	if n < len(s) {
		return s[:n]
	}
	return s
}

// yearly sums values per (country, year).
func yearly(long models.LongTable) map[string]map[int]float64 {
	out := make(map[string]map[int]float64)
	for i := range long {
		r := &long[i]
		if r.Value == nil {
			continue
		}
		m, ok := out[r.CountryName]
		if !ok {
			m = make(map[int]float64)
			out[r.CountryName] = m
		}
		m[r.Year] += *r.Value
	}
	return out
}

func sortedYears(m map[int]float64) []int {
	ys := make([]int, 0, len(m))
	for y := range m {
		ys = append(ys, y)
	}
	sort.Ints(ys)
	return ys
}

// GrowthRates returns, for every country and every year after its first,
// the percentage change against the previous year the country has a value
// for. Changes from zero are undefined and left out. Rows are ordered by
// year, then country.
func GrowthRates(long models.LongTable) []GrowthRate {
	var out []GrowthRate
	for c, byYear := range yearly(long) {
		ys := sortedYears(byYear)
		for i := 1; i < len(ys); i++ {
			prev := byYear[ys[i-1]]
			if prev == 0 {
				continue
			}
			out = append(out, GrowthRate{
				Country:       c,
				Year:          ys[i],
				GrowthRatePct: (byYear[ys[i]] - prev) / prev * 100,
			})
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Year != out[j].Year {
			return out[i].Year < out[j].Year
		}
		return out[i].Country < out[j].Country
	})
	if out == nil {
		out = []GrowthRate{}
	}
	return out
}

// AvgByContinent returns the mean row value per continent, by continent name.
func AvgByContinent(long models.LongTable) []ContinentAverage {
	sums := make(map[string]float64)
	counts := make(map[string]int)
	for i := range long {
		r := &long[i]
		if r.Value == nil {
			continue
		}
		sums[r.Continent] += *r.Value
		counts[r.Continent]++
	}
	out := make([]ContinentAverage, 0, len(sums))
	for c, s := range sums {
		out = append(out, ContinentAverage{Continent: c, AvgGDP: s / float64(counts[c])})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Continent < out[j].Continent })
	return out
}

// GlobalTrend returns the total value per year, oldest first.
func GlobalTrend(long models.LongTable) []YearTotal {
	sums := make(map[int]float64)
	for i := range long {
		if v := long[i].Value; v != nil {
			sums[long[i].Year] += *v
		}
	}
	out := make([]YearTotal, 0, len(sums))
	for _, y := range sortedYears(sums) {
		out = append(out, YearTotal{Year: y, TotalGDP: sums[y]})
	}
	return out
}

// FastestGrowingContinent compares each continent's total in startYear with
// its total in endYear, fastest growth first. It fails with ErrYearNotFound
// when either year has no rows at all. Continents missing either year, or
// with a zero start total, are left out.
func FastestGrowingContinent(long models.LongTable, startYear, endYear int) ([]ContinentGrowth, error) {
	start := make(map[string]float64)
	end := make(map[string]float64)
	for i := range long {
		r := &long[i]
		if r.Value == nil {
			continue
		}
		if r.Year == startYear {
			start[r.Continent] += *r.Value
		}
		if r.Year == endYear {
			end[r.Continent] += *r.Value
		}
	}
	if len(start) == 0 || len(end) == 0 {
		return nil, ErrYearNotFound
	}

	out := make([]ContinentGrowth, 0, len(start))
	for c, s := range start {
		e, ok := end[c]
		if !ok || s == 0 {
			continue
		}
		out = append(out, ContinentGrowth{Continent: c, GrowthPct: (e - s) / s * 100})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].GrowthPct != out[j].GrowthPct {
			return out[i].GrowthPct > out[j].GrowthPct
		}
		return out[i].Continent < out[j].Continent
	})
	return out, nil
}

// DeclineWindow is the year range ConsistentDecline reads: lastX
// transitions ending at referenceYear.
func DeclineWindow(lastX, referenceYear int) (start, end int) {
	return referenceYear - lastX, referenceYear
}

// ConsistentDecline finds the countries whose value fell strictly in each of
// the lastX year-over-year transitions ending at referenceYear. A country
// needs a value for every year of the window. The result carries the mean
// percentage change over those transitions, steepest decline first.
func ConsistentDecline(long models.LongTable, lastX, referenceYear int) []Decline {
	out := []Decline{}
	if lastX <= 0 {
		return out
	}
	from, to := DeclineWindow(lastX, referenceYear)

	for c, byYear := range yearly(long) {
		var total float64
		declining := true
		for y := from; y < to; y++ {
			prev, ok1 := byYear[y]
			next, ok2 := byYear[y+1]
			if !ok1 || !ok2 || !(next < prev) || prev == 0 {
				declining = false
				break
			}
			total += (next - prev) / prev * 100
		}
		if declining {
			out = append(out, Decline{Country: c, AvgDeclinePct: total / float64(lastX)})
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].AvgDeclinePct != out[j].AvgDeclinePct {
			return out[i].AvgDeclinePct < out[j].AvgDeclinePct
		}
		return out[i].Country < out[j].Country
	})
	return out
}

// ContinentShares returns each continent's percentage of the total over all
// rows, largest share first. An all-zero total yields no rows.
func ContinentShares(long models.LongTable) []ContinentShare {
	sums := sumBy(long, continent)
	var global float64
	for _, v := range sums {
		global += v
	}
	out := make([]ContinentShare, 0, len(sums))
	if global == 0 {
		return out
	}
	for c, v := range sums {
		out = append(out, ContinentShare{Continent: c, SharePct: v / global * 100})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].SharePct != out[j].SharePct {
			return out[i].SharePct > out[j].SharePct
		}
		return out[i].Continent < out[j].Continent
	})
	return out
}
