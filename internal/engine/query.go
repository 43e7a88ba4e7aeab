package engine

import (
	"gdpengine/internal/models"
)

// RunQuery reshapes wide, applies the region, country and year filters, drops
// rows without a value and, unless skipAggregation is set, aggregates over
// all identifier columns with the filters' operation.
//
// The filters are used as given; callers holding untrusted input should pass
// them through Sanitize first.
func (e *Engine) RunQuery(wide models.WideTable, f models.QueryFilters, skipAggregation bool) (models.Result, error) {
	long, err := e.Transform(wide)
	if err != nil {
		return models.Result{}, err
	}
	return e.QueryLong(long, f, skipAggregation), nil
}

// QueryLong is RunQuery for a table that is already in long form.
func (e *Engine) QueryLong(long models.LongTable, f models.QueryFilters, skipAggregation bool) models.Result {
	filtered := e.Filter(long, f.Region, f.Country, f.StartYear, f.EndYear)
	if skipAggregation {
		return models.Result{Long: filtered}
	}
	return e.AggregateAll(filtered, f.OperationOr("avg"))
}

// RunGrouped filters like RunQuery and then aggregates on a single
// dimension. An unset operation averages.
func (e *Engine) RunGrouped(wide models.WideTable, f models.QueryFilters, dim Dimension) ([]models.GroupRow, error) {
	long, err := e.Transform(wide)
	if err != nil {
		return nil, err
	}
	return e.GroupLong(long, f, dim), nil
}

// GroupLong is RunGrouped for a table that is already in long form.
func (e *Engine) GroupLong(long models.LongTable, f models.QueryFilters, dim Dimension) []models.GroupRow {
	filtered := e.Filter(long, f.Region, f.Country, f.StartYear, f.EndYear)
	return e.AggregateBy(filtered, dim, f.OperationOr("avg"))
}
