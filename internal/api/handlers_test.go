package api

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/goccy/go-json"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gdpengine/internal/engine"
	"gdpengine/internal/metrics"
	"gdpengine/internal/models"
)

func testWide() models.WideTable {
	return models.WideTable{
		Columns: []string{"Country Name", "Continent", "Indicator Name", "Indicator Code", "Country Code", "2000", "2001"},
		Records: []models.WideRecord{
			{"Japan", "Asia", "GDP", "NY.GDP", "JPN", "100", "110"},
			{"India", "Asia", "GDP", "NY.GDP", "IND", "50", ""},
			{"France", "Europe", "GDP", "NY.GDP", "FRA", "80", "90"},
		},
	}
}

func testDataset(t *testing.T) *engine.Dataset {
	t.Helper()
	ds, err := engine.New(nil).NewDataset("test.csv", testWide())
	require.NoError(t, err)
	return ds
}

func newServer(t *testing.T, o Options, loaded bool) (*echo.Echo, *Handler) {
	t.Helper()
	e := echo.New()
	e.JSONSerializer = Serializer{}
	h := NewHandler(o)
	h.RegisterRoutes(e)
	if loaded {
		h.SetDataset(testDataset(t))
	}
	return e, h
}

func do(e *echo.Echo, method, target, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, target, nil)
	} else {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

func sp(s string) *string { return &s }

func TestLoadingReturns503(t *testing.T) {
	e, _ := newServer(t, Options{}, false)

	for _, r := range []struct{ method, path string }{
		{http.MethodPost, "/api/run"},
		{http.MethodGet, "/api/metadata"},
		{http.MethodPost, "/api/aggregate/all"},
		{http.MethodGet, "/api/analytics/global-trend?startYear=2000&endYear=2001"},
	} {
		rec := do(e, r.method, r.path, "")
		assert.Equal(t, http.StatusServiceUnavailable, rec.Code, r.path)
	}

	rec := do(e, http.MethodGet, "/healthz", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok","loaded":false}`, rec.Body.String())
}

func TestMetadataETag(t *testing.T) {
	e, h := newServer(t, Options{}, true)

	rec := do(e, http.MethodGet, "/api/metadata", "")
	require.Equal(t, http.StatusOK, rec.Code)
	meta := decode[map[string]interface{}](t, rec)
	assert.Equal(t, []interface{}{"Asia", "Europe"}, meta["regions"])
	assert.Equal(t, []interface{}{"France", "India", "Japan"}, meta["countries"])
	assert.Equal(t, []interface{}{2000.0, 2001.0}, meta["year_range"])

	etag := rec.Header().Get("ETag")
	assert.Equal(t, `"`+h.Dataset().Fingerprint+`"`, etag)

	req := httptest.NewRequest(http.MethodGet, "/api/metadata", nil)
	req.Header.Set("If-None-Match", etag)
	rec = httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusNotModified, rec.Code)
}

func TestRunUsesDefaultsAndBodyOverrides(t *testing.T) {
	e, _ := newServer(t, Options{Defaults: models.QueryFilters{Region: sp("asia")}}, true)

	// 1. No body: default region applies, India's empty 2001 is dropped
	rows := decode[[]models.LongRecord](t, do(e, http.MethodPost, "/api/run", ""))
	assert.Len(t, rows, 3)
	for _, r := range rows {
		assert.Equal(t, "Asia", r.Continent)
	}

	// 2. __ALL__ clears the default region
	rows = decode[[]models.LongRecord](t, do(e, http.MethodPost, "/api/run", `{"region":"__ALL__","startYear":2001}`))
	assert.Len(t, rows, 2)

	// 3. Unknown country is sanitized away rather than matching nothing
	rows = decode[[]models.LongRecord](t, do(e, http.MethodPost, "/api/run", `{"country":"Atlantis","startYear":2000}`))
	assert.Len(t, rows, 2)
}

func TestRunRejectsMalformedBody(t *testing.T) {
	e, _ := newServer(t, Options{}, true)

	rec := do(e, http.MethodPost, "/api/run", `{"startYear": "soon"`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(e, http.MethodPost, "/api/run", `{"startYear": "2000"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestAggregateByDimension(t *testing.T) {
	e, _ := newServer(t, Options{}, true)

	rec := do(e, http.MethodPost, "/api/aggregate/region", `{"operation":"sum","startYear":2000,"endYear":2001}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `[{"Continent":"Asia","Value":260},{"Continent":"Europe","Value":170}]`, rec.Body.String())

	rec = do(e, http.MethodPost, "/api/aggregate/country-code", `{"region":"Europe"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `[{"Country Code":"FRA","Value":85}]`, rec.Body.String())
}

func TestAggregateAllDefaultsToAverage(t *testing.T) {
	e, _ := newServer(t, Options{}, true)

	rows := decode[[]models.AggregateRow](t, do(e, http.MethodPost, "/api/aggregate/all", `{"country":"japan"}`))
	require.Len(t, rows, 1)
	assert.Equal(t, "Japan", rows[0].CountryName)
	assert.Equal(t, 105.0, rows[0].Value)
	assert.Equal(t, "Average", rows[0].Operation)
}

func TestGetOriginalPaginates(t *testing.T) {
	e, _ := newServer(t, Options{}, true)

	rec := do(e, http.MethodGet, "/api/original?limit=1&offset=1", "")
	require.Equal(t, http.StatusOK, rec.Code)
	page := decode[struct {
		Data   []map[string]interface{} `json:"data"`
		Total  int                      `json:"total"`
		Limit  int                      `json:"limit"`
		Offset int                      `json:"offset"`
	}](t, rec)
	assert.Equal(t, 3, page.Total)
	assert.Equal(t, 1, page.Limit)
	require.Len(t, page.Data, 1)
	assert.Equal(t, "India", page.Data[0]["Country Name"])
	assert.Equal(t, 50.0, page.Data[0]["2000"])
	assert.Nil(t, page.Data[0]["2001"])

	rec = do(e, http.MethodGet, "/api/original?offset=10", "")
	assert.JSONEq(t, `{"data":[],"total":3,"limit":3,"offset":10}`, rec.Body.String())

	// A limit near MaxInt must not overflow the page window.
	rec = do(e, http.MethodGet, "/api/original?offset=1&limit=9223372036854775807", "")
	require.Equal(t, http.StatusOK, rec.Code)
	page = decode[struct {
		Data   []map[string]interface{} `json:"data"`
		Total  int                      `json:"total"`
		Limit  int                      `json:"limit"`
		Offset int                      `json:"offset"`
	}](t, rec)
	assert.Len(t, page.Data, 2)
	assert.Equal(t, "France", page.Data[1]["Country Name"])
}

func TestConfigRoutes(t *testing.T) {
	e, _ := newServer(t, Options{Defaults: models.QueryFilters{Operation: sp("sum")}}, true)
	assert.Equal(t, http.StatusNotImplemented, do(e, http.MethodPost, "/api/config/reload", "").Code)
	assert.JSONEq(t, `{"region":null,"country":null,"startYear":null,"endYear":null,"operation":"sum"}`,
		do(e, http.MethodGet, "/api/config", "").Body.String())

	e, h := newServer(t, Options{LoadConfig: func() (models.QueryFilters, error) {
		return models.QueryFilters{Region: sp("Europe")}, nil
	}}, true)
	rec := do(e, http.MethodPost, "/api/config/reload", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Europe", *h.Defaults().Region)

	rows := decode[[]models.LongRecord](t, do(e, http.MethodPost, "/api/run", ""))
	assert.Len(t, rows, 2)
}

func TestDatasetReload(t *testing.T) {
	var calls atomic.Int32
	m, err := metrics.New()
	require.NoError(t, err)

	e, h := newServer(t, Options{
		Metrics: m,
		LoadDataset: func(context.Context) (*engine.Dataset, error) {
			calls.Add(1)
			return engine.New(nil).NewDataset("reloaded.csv", testWide())
		},
	}, false)

	rec := do(e, http.MethodPost, "/api/dataset/reload", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "reloaded.csv", h.Dataset().Source)
	assert.EqualValues(t, 1, calls.Load())

	metricsBody := do(e, http.MethodGet, "/metrics", "").Body.String()
	assert.Contains(t, metricsBody, `gdp_dataset_reloads_total{status="ok"} 1`)
	assert.Contains(t, metricsBody, "gdp_dataset_rows 6")
}

func TestDatasetReloadSchemaError(t *testing.T) {
	e, h := newServer(t, Options{
		LoadDataset: func(context.Context) (*engine.Dataset, error) {
			return engine.New(nil).NewDataset("bad.csv", models.WideTable{Columns: []string{"Country Name", "2000"}})
		},
	}, true)

	rec := do(e, http.MethodPost, "/api/dataset/reload", "")
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Equal(t, "test.csv", h.Dataset().Source, "failed reload keeps the old dataset")

	_, err := NewHandler(Options{}).ReloadDataset(context.Background())
	assert.Error(t, err)
	assert.False(t, errors.Is(err, engine.ErrSchema))
}

func TestDatasetReloadStopsWithRequest(t *testing.T) {
	e, h := newServer(t, Options{
		LoadDataset: func(ctx context.Context) (*engine.Dataset, error) {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
			return engine.New(nil).NewDataset("reloaded.csv", testWide())
		},
	}, true)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	req := httptest.NewRequest(http.MethodPost, "/api/dataset/reload", nil).WithContext(ctx)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, "test.csv", h.Dataset().Source)

	_, err := h.ReloadDataset(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestAnalyticsRoutes(t *testing.T) {
	e, _ := newServer(t, Options{}, true)

	rec := do(e, http.MethodGet, "/api/analytics/top-countries?continent=__ALL__&year=2000&n=2", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `[{"country":"Japan","gdp":100},{"country":"France","gdp":80}]`, rec.Body.String())

	rec = do(e, http.MethodGet, "/api/analytics/bottom-countries?continent=Asia&year=2000", "")
	assert.JSONEq(t, `[{"country":"India","gdp":50},{"country":"Japan","gdp":100}]`, rec.Body.String())

	rec = do(e, http.MethodGet, "/api/analytics/global-trend?startYear=2000&endYear=2001", "")
	assert.JSONEq(t, `[{"year":2000,"total_gdp":230},{"year":2001,"total_gdp":200}]`, rec.Body.String())

	rec = do(e, http.MethodGet, "/api/analytics/fastest-growing-continent?startYear=2000&endYear=2001", "")
	require.Equal(t, http.StatusOK, rec.Code)
	growth := decode[[]map[string]interface{}](t, rec)
	require.Len(t, growth, 2)
	assert.Equal(t, "Europe", growth[0]["continent"])

	rec = do(e, http.MethodGet, "/api/analytics/fastest-growing-continent?startYear=1990&endYear=2001", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(e, http.MethodGet, "/api/analytics/top-countries?year=2000", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(e, http.MethodGet, "/api/analytics/consistent-decline?lastXYears=0&referenceYear=2001", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(e, http.MethodGet, "/api/analytics/consistent-decline?lastXYears=1&referenceYear=2001", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `[]`, rec.Body.String())
}
