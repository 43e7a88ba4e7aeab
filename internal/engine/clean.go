package engine

import (
	"fmt"
	"sort"
	"strconv"

	"gdpengine/internal/models"
)

// Fill methods for CleanOptions.FillMethod.
const (
	FillForward  = "ffill"
	FillBackward = "bfill"
	FillZero     = "zero"
	FillNone     = "none"
)

// CleanOptions controls Clean.
type CleanOptions struct {
	FillMethod string
}

// ValidFillMethod reports whether m is one of the Fill* constants.
func ValidFillMethod(m string) bool {
	switch m {
	case FillForward, FillBackward, FillZero, FillNone:
		return true
	}
	return false
}

// Clean prepares a freshly loaded wide table before it is queried:
//
//  1. year cells are coerced to numbers, anything else becomes empty
//  2. gaps in each row are filled across years by opts.FillMethod
//  3. negative values are emptied
//  4. rows repeating a (Country Name, Indicator Code) pair are dropped,
//     keeping the first
//
// The input table is not modified.
func (e *Engine) Clean(wide models.WideTable, opts CleanOptions) (models.WideTable, error) {
	if opts.FillMethod == "" {
		opts.FillMethod = FillNone
	}
	if !ValidFillMethod(opts.FillMethod) {
		return models.WideTable{}, fmt.Errorf("clean: unknown fill method %q", opts.FillMethod)
	}

	// Column positions of the year columns, oldest year first so fills
	// run chronologically whatever the header order.
	var years []int
	for i, c := range wide.Columns {
		if models.IsYearColumn(c) {
			years = append(years, i)
		}
	}
	sort.SliceStable(years, func(a, b int) bool {
		ya, _ := strconv.Atoi(wide.Columns[years[a]])
		yb, _ := strconv.Atoi(wide.Columns[years[b]])
		return ya < yb
	})
	nameIdx := wide.Index(models.ColCountryName)
	codeIdx := wide.Index(models.ColIndicatorCode)

	out := models.WideTable{
		Columns: append([]string(nil), wide.Columns...),
		Records: make([]models.WideRecord, 0, wide.Len()),
	}
	seen := make(map[[2]string]struct{}, wide.Len())
	dropped := 0
	for row := range wide.Records {
		if nameIdx >= 0 && codeIdx >= 0 {
			k := [2]string{wide.Cell(row, nameIdx), wide.Cell(row, codeIdx)}
			if _, dup := seen[k]; dup {
				dropped++
				continue
			}
			seen[k] = struct{}{}
		}

		rec := make(models.WideRecord, len(wide.Columns))
		for j := range rec {
			rec[j] = wide.Cell(row, j)
		}
		vals := make([]*float64, len(years))
		for k, col := range years {
			vals[k] = ParseValue(rec[col])
		}
		fillRow(vals, opts.FillMethod)
		for k, col := range years {
			v := vals[k]
			if v == nil || *v < 0 {
				rec[col] = ""
				continue
			}
			rec[col] = strconv.FormatFloat(*v, 'f', -1, 64)
		}
		out.Records = append(out.Records, rec)
	}
	e.log.Infof("clean: fill=%s rows %d -> %d (%d duplicates)", opts.FillMethod, wide.Len(), out.Len(), dropped)
	return out, nil
}

func fillRow(vals []*float64, method string) {
	switch method {
	case FillZero:
		for i, v := range vals {
			if v == nil {
				vals[i] = ptr(0.0)
			}
		}
	case FillForward:
		var last *float64
		for i, v := range vals {
			if v == nil {
				vals[i] = last
			} else {
				last = v
			}
		}
	case FillBackward:
		var next *float64
		for i := len(vals) - 1; i >= 0; i-- {
			if vals[i] == nil {
				vals[i] = next
			} else {
				next = vals[i]
			}
		}
	}
}
