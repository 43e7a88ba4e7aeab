package api

import (
	"bytes"
	"io"
	"net/http"

	"github.com/labstack/echo/v4"

	"gdpengine/internal/models"
)

// AllRegions in a request body clears any default region.
const AllRegions = "__ALL__"

// readFilters decodes an optional filter body. An empty body yields nil.
func readFilters(c echo.Context) (*models.QueryFilters, error) {
	req := c.Request()
	if req.Body == nil {
		return nil, nil
	}
	raw, err := io.ReadAll(req.Body)
	if err != nil {
		return nil, echo.NewHTTPError(http.StatusBadRequest, "cannot read body").SetInternal(err)
	}
	if len(bytes.TrimSpace(raw)) == 0 {
		return nil, nil
	}
	req.Body = io.NopCloser(bytes.NewReader(raw))

	var f models.QueryFilters
	if err := c.Echo().JSONSerializer.Deserialize(c, &f); err != nil {
		if _, ok := err.(*echo.HTTPError); ok {
			return nil, err
		}
		return nil, echo.NewHTTPError(http.StatusBadRequest, "invalid JSON body").SetInternal(err)
	}
	return &f, nil
}

// resolve overlays body on defaults field by field.
func resolve(body *models.QueryFilters, defaults models.QueryFilters) models.QueryFilters {
	if body == nil {
		return defaults
	}
	out := defaults
	if body.Region != nil {
		out.Region = body.Region
		if *body.Region == AllRegions {
			out.Region = nil
		}
	}
	if body.Country != nil {
		out.Country = body.Country
	}
	if body.StartYear != nil {
		out.StartYear = body.StartYear
	}
	if body.EndYear != nil {
		out.EndYear = body.EndYear
	}
	if body.Operation != nil {
		out.Operation = body.Operation
	}
	return out
}
