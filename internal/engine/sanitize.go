package engine

import (
	"golang.org/x/text/cases"

	"gdpengine/internal/models"
)

// Sanitize reconciles raw query parameters with the bounds of a dataset.
// Each field is checked on its own and reset to nil when it cannot be
// honoured; Sanitize never fails and sanitizing twice changes nothing.
//
//	region, country  kept when they match a known value, ignoring case
//	startYear        dropped below MinYear
//	endYear          dropped above MaxYear
//	both years       dropped together when end < start
//	operation        kept when it is sum, avg or average, ignoring case
func (e *Engine) Sanitize(f models.QueryFilters, b models.DatasetBounds) models.QueryFilters {
	fold := cases.Fold()
	var out models.QueryFilters

	if f.Region != nil && containsFold(fold, b.Regions, *f.Region) {
		out.Region = ptr(*f.Region)
	}
	if f.Country != nil && containsFold(fold, b.Countries, *f.Country) {
		out.Country = ptr(*f.Country)
	}
	if f.StartYear != nil && *f.StartYear >= b.MinYear {
		out.StartYear = ptr(*f.StartYear)
	}
	if f.EndYear != nil && *f.EndYear <= b.MaxYear {
		out.EndYear = ptr(*f.EndYear)
	}
	// Only a pair of surviving bounds can be out of order; a single bound
	// means an exact-year match and is left alone.
	if out.StartYear != nil && out.EndYear != nil && *out.EndYear < *out.StartYear {
		out.StartYear, out.EndYear = nil, nil
	}
	if f.Operation != nil && ParseOperation(*f.Operation) != OpUnknown {
		out.Operation = ptr(*f.Operation)
	}

	e.log.Debugf("sanitize: region=%s->%s country=%s->%s years=%s..%s->%s..%s operation=%s->%s",
		fmtStr(f.Region), fmtStr(out.Region), fmtStr(f.Country), fmtStr(out.Country),
		fmtInt(f.StartYear), fmtInt(f.EndYear), fmtInt(out.StartYear), fmtInt(out.EndYear),
		fmtStr(f.Operation), fmtStr(out.Operation))
	return out
}

func containsFold(fold cases.Caser, known []string, v string) bool {
	want := fold.String(v)
	for _, k := range known {
		if fold.String(k) == want {
			return true
		}
	}
	return false
}

func ptr[T any](v T) *T { return &v }
