package models

import (
	"strconv"

	"github.com/goccy/go-json"
)

// Identifier column names as they appear in the source workbook.
const (
	ColCountryName   = "Country Name"
	ColContinent     = "Continent"
	ColIndicatorName = "Indicator Name"
	ColIndicatorCode = "Indicator Code"
	ColCountryCode   = "Country Code"
	ColYear          = "Year"
	ColValue         = "Value"
)

// IdentifierColumns are the non-year columns every wide table must carry.
var IdentifierColumns = []string{
	ColCountryName,
	ColContinent,
	ColIndicatorName,
	ColIndicatorCode,
	ColCountryCode,
}

// ColumnSource is anything that can hand out a column as strings.
// Both table shapes implement it so metadata can be read from either.
type ColumnSource interface {
	Column(name string) ([]string, bool)
}

// WideRecord is one row of a wide table, cells aligned with WideTable.Columns.
type WideRecord []string

// WideTable is the dataset as the loaders read it: one column per year.
type WideTable struct {
	Columns []string
	Records []WideRecord
}

// Len returns the number of rows.
func (w WideTable) Len() int { return len(w.Records) }

// Index returns the position of a column, or -1.
func (w WideTable) Index(name string) int {
	for i, c := range w.Columns {
		if c == name {
			return i
		}
	}
	return -1
}

// Cell returns the cell at (row, col); short rows read as empty.
func (w WideTable) Cell(row, col int) string {
	r := w.Records[row]
	if col < 0 || col >= len(r) {
		return ""
	}
	return r[col]
}

func (w WideTable) Column(name string) ([]string, bool) {
	idx := w.Index(name)
	if idx < 0 {
		return nil, false
	}
	out := make([]string, len(w.Records))
	for i := range w.Records {
		out[i] = w.Cell(i, idx)
	}
	return out, true
}

// Objects renders rows [offset, offset+limit) as JSON-ready objects.
// Numeric cells become numbers, empty cells null.
func (w WideTable) Objects(offset, limit int) []map[string]any {
	if offset < 0 {
		offset = 0
	}
	if offset >= len(w.Records) {
		return []map[string]any{}
	}
	end := len(w.Records)
	if limit >= 0 && limit < end-offset {
		end = offset + limit
	}
	out := make([]map[string]any, 0, end-offset)
	for i := offset; i < end; i++ {
		obj := make(map[string]any, len(w.Columns))
		for j, col := range w.Columns {
			cell := w.Cell(i, j)
			switch {
			case cell == "":
				obj[col] = nil
			default:
				if f, err := strconv.ParseFloat(cell, 64); err == nil && IsYearColumn(col) {
					obj[col] = f
				} else {
					obj[col] = cell
				}
			}
		}
		out = append(out, obj)
	}
	return out
}

// IsYearColumn reports whether a header names a year: non-empty, all ASCII digits.
func IsYearColumn(name string) bool {
	if name == "" {
		return false
	}
	for i := 0; i < len(name); i++ {
		if name[i] < '0' || name[i] > '9' {
			return false
		}
	}
	return true
}

// LongRecord is one (entity, year) observation.
type LongRecord struct {
	CountryName   string   `json:"Country Name"`
	Continent     string   `json:"Continent"`
	IndicatorName string   `json:"Indicator Name"`
	IndicatorCode string   `json:"Indicator Code"`
	CountryCode   string   `json:"Country Code"`
	Year          int      `json:"Year"`
	Value         *float64 `json:"Value"`
}

// LongTable is the reshaped dataset.
type LongTable []LongRecord

func (l LongTable) Column(name string) ([]string, bool) {
	var get func(r *LongRecord) string
	switch name {
	case ColCountryName:
		get = func(r *LongRecord) string { return r.CountryName }
	case ColContinent:
		get = func(r *LongRecord) string { return r.Continent }
	case ColIndicatorName:
		get = func(r *LongRecord) string { return r.IndicatorName }
	case ColIndicatorCode:
		get = func(r *LongRecord) string { return r.IndicatorCode }
	case ColCountryCode:
		get = func(r *LongRecord) string { return r.CountryCode }
	case ColYear:
		get = func(r *LongRecord) string { return strconv.Itoa(r.Year) }
	case ColValue:
		get = func(r *LongRecord) string {
			if r.Value == nil {
				return ""
			}
			return strconv.FormatFloat(*r.Value, 'f', -1, 64)
		}
	default:
		return nil, false
	}
	out := make([]string, len(l))
	for i := range l {
		out[i] = get(&l[i])
	}
	return out, true
}

// QueryFilters is a query's parameter set. A nil field imposes no constraint.
// Values are never mutated in place; sanitizing produces a new value.
type QueryFilters struct {
	Region    *string `json:"region" yaml:"region"`
	Country   *string `json:"country" yaml:"country"`
	StartYear *int    `json:"startYear" yaml:"startYear"`
	EndYear   *int    `json:"endYear" yaml:"endYear"`
	Operation *string `json:"operation" yaml:"operation"`
}

// OperationOr returns the operation or def when unset.
func (f QueryFilters) OperationOr(def string) string {
	if f.Operation == nil {
		return def
	}
	return *f.Operation
}

// DatasetBounds are the valid values observed in a loaded dataset.
type DatasetBounds struct {
	Regions   []string `json:"regions"`
	Countries []string `json:"countries"`
	MinYear   int      `json:"minYear"`
	MaxYear   int      `json:"maxYear"`
}

// GroupRow is one group of a single-dimension aggregation. It serializes
// with the grouping column as key, e.g. {"Continent":"Asia","Value":300}.
type GroupRow struct {
	Column string
	Key    string
	Value  float64
}

func (g GroupRow) MarshalJSON() ([]byte, error) {
	return json.Marshal(map[string]any{g.Column: g.Key, ColValue: g.Value})
}

// AggregateRow is one group of the all-dimension aggregation.
type AggregateRow struct {
	CountryName   string  `json:"Country Name"`
	CountryCode   string  `json:"Country Code"`
	IndicatorName string  `json:"Indicator Name"`
	IndicatorCode string  `json:"Indicator Code"`
	Continent     string  `json:"Continent"`
	Value         float64 `json:"Value"`
	Operation     string  `json:"Operation"`
}

// Result is what a query hands to a presenter: either aggregated groups or
// row-level long records, never both.
type Result struct {
	Aggregated []AggregateRow
	Long       LongTable
}

// IsAggregated reports whether the result holds grouped rows.
func (r Result) IsAggregated() bool { return r.Aggregated != nil }

// Len returns the row count of whichever shape the result holds.
func (r Result) Len() int {
	if r.IsAggregated() {
		return len(r.Aggregated)
	}
	return len(r.Long)
}

// MarshalJSON emits a bare array of row objects.
func (r Result) MarshalJSON() ([]byte, error) {
	if r.IsAggregated() {
		return json.Marshal(r.Aggregated)
	}
	if r.Long == nil {
		return []byte("[]"), nil
	}
	return json.Marshal([]LongRecord(r.Long))
}
