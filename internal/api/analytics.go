package api

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"gdpengine/internal/analytics"
	"gdpengine/internal/engine"
	"gdpengine/internal/models"
)

// Analytics routes read query parameters rather than a body, and use them
// as given: a year outside the dataset yields empty output, not the whole
// range.

func intParam(c echo.Context, name string) (int, error) {
	raw := c.QueryParam(name)
	if raw == "" {
		return 0, echo.NewHTTPError(http.StatusBadRequest, fmt.Sprintf("missing query parameter %q", name))
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, echo.NewHTTPError(http.StatusBadRequest, fmt.Sprintf("query parameter %q must be an integer", name))
	}
	return v, nil
}

func intParamOr(c echo.Context, name string, def int) (int, error) {
	if c.QueryParam(name) == "" {
		return def, nil
	}
	return intParam(c, name)
}

func yearRange(c echo.Context) (int, int, error) {
	start, err := intParam(c, "startYear")
	if err != nil {
		return 0, 0, err
	}
	end, err := intParam(c, "endYear")
	if err != nil {
		return 0, 0, err
	}
	return start, end, nil
}

// continentParam returns nil for AllRegions.
func continentParam(c echo.Context) (*string, error) {
	v := c.QueryParam("continent")
	if v == "" {
		return nil, echo.NewHTTPError(http.StatusBadRequest, `missing query parameter "continent"`)
	}
	if v == AllRegions {
		return nil, nil
	}
	return &v, nil
}

// rows runs the row-level query the analytics are computed from.
func (h *Handler) rows(ds *engine.Dataset, region *string, start, end int) models.LongTable {
	f := models.QueryFilters{Region: region, StartYear: &start, EndYear: &end}
	return h.eng.QueryLong(ds.Long, f, true).Long
}

func (h *Handler) rankCountries(c echo.Context, kind string, rank func(models.LongTable, int) []analytics.CountryValue) error {
	ds, err := h.dataset()
	if err != nil {
		return err
	}
	region, err := continentParam(c)
	if err != nil {
		return err
	}
	year, err := intParam(c, "year")
	if err != nil {
		return err
	}
	n, err := intParamOr(c, "n", 10)
	if err != nil {
		return err
	}
	out := rank(h.rows(ds, region, year, year), n)
	h.observe(kind, len(out))
	return c.JSON(http.StatusOK, out)
}

func (h *Handler) TopCountries(c echo.Context) error {
	return h.rankCountries(c, "top_countries", analytics.TopCountries)
}

func (h *Handler) BottomCountries(c echo.Context) error {
	return h.rankCountries(c, "bottom_countries", analytics.BottomCountries)
}

func (h *Handler) GrowthRate(c echo.Context) error {
	ds, err := h.dataset()
	if err != nil {
		return err
	}
	region, err := continentParam(c)
	if err != nil {
		return err
	}
	start, end, err := yearRange(c)
	if err != nil {
		return err
	}
	out := analytics.GrowthRates(h.rows(ds, region, start, end))
	h.observe("growth_rate", len(out))
	return c.JSON(http.StatusOK, out)
}

// globalView serves the analytics computed over every region for a year range.
func globalView[T any](h *Handler, kind string, view func(models.LongTable) []T) echo.HandlerFunc {
	return func(c echo.Context) error {
		ds, err := h.dataset()
		if err != nil {
			return err
		}
		start, end, err := yearRange(c)
		if err != nil {
			return err
		}
		out := view(h.rows(ds, nil, start, end))
		h.observe(kind, len(out))
		return c.JSON(http.StatusOK, out)
	}
}

func (h *Handler) AvgByContinent(c echo.Context) error {
	return globalView(h, "avg_by_continent", analytics.AvgByContinent)(c)
}

func (h *Handler) GlobalTrend(c echo.Context) error {
	return globalView(h, "global_trend", analytics.GlobalTrend)(c)
}

func (h *Handler) ContinentShare(c echo.Context) error {
	return globalView(h, "continent_share", analytics.ContinentShares)(c)
}

func (h *Handler) FastestGrowingContinent(c echo.Context) error {
	ds, err := h.dataset()
	if err != nil {
		return err
	}
	start, end, err := yearRange(c)
	if err != nil {
		return err
	}
	out, err := analytics.FastestGrowingContinent(h.rows(ds, nil, start, end), start, end)
	if errors.Is(err, analytics.ErrYearNotFound) {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if err != nil {
		return err
	}
	h.observe("fastest_growing_continent", len(out))
	return c.JSON(http.StatusOK, out)
}

func (h *Handler) ConsistentDecline(c echo.Context) error {
	ds, err := h.dataset()
	if err != nil {
		return err
	}
	lastX, err := intParam(c, "lastXYears")
	if err != nil {
		return err
	}
	if lastX <= 0 {
		return echo.NewHTTPError(http.StatusBadRequest, `query parameter "lastXYears" must be positive`)
	}
	ref, err := intParam(c, "referenceYear")
	if err != nil {
		return err
	}
	start, end := analytics.DeclineWindow(lastX, ref)
	out := analytics.ConsistentDecline(h.rows(ds, nil, start, end), lastX, ref)
	h.observe("consistent_decline", len(out))
	return c.JSON(http.StatusOK, out)
}
