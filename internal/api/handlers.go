package api

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/labstack/echo/v4"
	"golang.org/x/sync/singleflight"

	"gdpengine/internal/engine"
	"gdpengine/internal/metrics"
	"gdpengine/internal/models"
)

// Options wires a Handler to its collaborators. LoadConfig and LoadDataset
// are optional; without them the matching reload route answers 501.
// LoadDataset should give up once its ctx is done.
type Options struct {
	Engine      *engine.Engine
	Metrics     *metrics.Metrics
	Defaults    models.QueryFilters
	LoadConfig  func() (models.QueryFilters, error)
	LoadDataset func(ctx context.Context) (*engine.Dataset, error)
}

type Handler struct {
	eng     *engine.Engine
	metrics *metrics.Metrics

	loadConfig  func() (models.QueryFilters, error)
	loadDataset func(ctx context.Context) (*engine.Dataset, error)
	reloads     singleflight.Group

	mu       sync.RWMutex
	data     *engine.Dataset
	defaults models.QueryFilters
}

// NewHandler starts with no dataset. Query routes answer 503 until
// SetDataset or ReloadDataset installs one.
func NewHandler(o Options) *Handler {
	eng := o.Engine
	if eng == nil {
		eng = engine.New(nil)
	}
	return &Handler{
		eng:         eng,
		metrics:     o.Metrics,
		loadConfig:  o.LoadConfig,
		loadDataset: o.LoadDataset,
		defaults:    o.Defaults,
	}
}

func (h *Handler) RegisterRoutes(e *echo.Echo) {
	e.GET("/healthz", h.Health)
	if h.metrics != nil {
		e.GET("/metrics", echo.WrapHandler(h.metrics.Handler()))
	}

	api := e.Group("/api")
	api.GET("/metadata", h.GetMetadata)
	api.GET("/config", h.GetConfig)
	api.POST("/config/reload", h.ReloadConfig)
	api.POST("/dataset/reload", h.PostDatasetReload)
	api.GET("/original", h.GetOriginal)
	api.POST("/run", h.Run)
	api.POST("/aggregate/region", h.aggregateBy(engine.ByRegion))
	api.POST("/aggregate/country", h.aggregateBy(engine.ByCountry))
	api.POST("/aggregate/country-code", h.aggregateBy(engine.ByCountryCode))
	api.POST("/aggregate/all", h.AggregateAll)

	an := api.Group("/analytics")
	an.GET("/top-countries", h.TopCountries)
	an.GET("/bottom-countries", h.BottomCountries)
	an.GET("/growth-rate", h.GrowthRate)
	an.GET("/avg-by-continent", h.AvgByContinent)
	an.GET("/global-trend", h.GlobalTrend)
	an.GET("/fastest-growing-continent", h.FastestGrowingContinent)
	an.GET("/consistent-decline", h.ConsistentDecline)
	an.GET("/continent-share", h.ContinentShare)
}

// SetDataset swaps in a freshly loaded dataset.
func (h *Handler) SetDataset(ds *engine.Dataset) {
	h.mu.Lock()
	h.data = ds
	h.mu.Unlock()
	if h.metrics != nil && ds != nil {
		h.metrics.SetDatasetRows(len(ds.Long))
	}
}

// Dataset returns the dataset being served, or nil while loading.
func (h *Handler) Dataset() *engine.Dataset {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.data
}

// Defaults returns the default query filters.
func (h *Handler) Defaults() models.QueryFilters {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.defaults
}

// ReloadDataset runs the dataset loader and installs its result. Concurrent
// calls share a single load, which runs under the ctx of the call that
// started it.
func (h *Handler) ReloadDataset(ctx context.Context) (*engine.Dataset, error) {
	if h.loadDataset == nil {
		return nil, errors.New("no dataset loader configured")
	}
	v, err, _ := h.reloads.Do("dataset", func() (interface{}, error) {
		ds, err := h.loadDataset(ctx)
		if h.metrics != nil {
			h.metrics.Reload(err)
		}
		if err != nil {
			return nil, err
		}
		h.SetDataset(ds)
		return ds, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*engine.Dataset), nil
}

// --- HELPERS ---
func getPaginationParams(c echo.Context, defaultLimit int) (int, int) {
	limit, err := strconv.Atoi(c.QueryParam("limit"))
	if err != nil || limit <= 0 {
		limit = defaultLimit
	}
	offset, err := strconv.Atoi(c.QueryParam("offset"))
	if err != nil || offset < 0 {
		offset = 0
	}
	return limit, offset
}

func (h *Handler) dataset() (*engine.Dataset, error) {
	ds := h.Dataset()
	if ds == nil {
		return nil, echo.NewHTTPError(http.StatusServiceUnavailable, "dataset is loading")
	}
	return ds, nil
}

// filters resolves the request body against the defaults and sanitizes the
// result against what ds contains.
func (h *Handler) filters(c echo.Context, ds *engine.Dataset) (models.QueryFilters, error) {
	body, err := readFilters(c)
	if err != nil {
		return models.QueryFilters{}, err
	}
	return h.eng.Sanitize(resolve(body, h.Defaults()), ds.Bounds), nil
}

func (h *Handler) observe(kind string, rows int) {
	if h.metrics != nil {
		h.metrics.ObserveQuery(kind, rows)
	}
}

// --- HANDLERS ---

func (h *Handler) Health(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]interface{}{
		"status": "ok",
		"loaded": h.Dataset() != nil,
	})
}

type metadataResponse struct {
	Regions     []string  `json:"regions"`
	Countries   []string  `json:"countries"`
	YearRange   [2]int    `json:"year_range"`
	Source      string    `json:"source"`
	Fingerprint string    `json:"fingerprint"`
	Rows        int       `json:"rows"`
	LoadedAt    time.Time `json:"loaded_at"`
}

func newMetadata(ds *engine.Dataset) metadataResponse {
	return metadataResponse{
		Regions:     ds.Bounds.Regions,
		Countries:   ds.Bounds.Countries,
		YearRange:   [2]int{ds.Bounds.MinYear, ds.Bounds.MaxYear},
		Source:      ds.Source,
		Fingerprint: ds.Fingerprint,
		Rows:        len(ds.Long),
		LoadedAt:    ds.LoadedAt,
	}
}

// GetMetadata returns the dataset's regions, countries and year range. The
// fingerprint doubles as ETag.
func (h *Handler) GetMetadata(c echo.Context) error {
	ds, err := h.dataset()
	if err != nil {
		return err
	}
	etag := `"` + ds.Fingerprint + `"`
	c.Response().Header().Set("ETag", etag)
	if c.Request().Header.Get("If-None-Match") == etag {
		return c.NoContent(http.StatusNotModified)
	}
	return c.JSON(http.StatusOK, newMetadata(ds))
}

// GetConfig returns the default filters as loaded, before sanitizing.
func (h *Handler) GetConfig(c echo.Context) error {
	return c.JSON(http.StatusOK, h.Defaults())
}

func (h *Handler) ReloadConfig(c echo.Context) error {
	if h.loadConfig == nil {
		return echo.NewHTTPError(http.StatusNotImplemented, "no config loader registered")
	}
	v, err, _ := h.reloads.Do("config", func() (interface{}, error) {
		f, err := h.loadConfig()
		if err != nil {
			return nil, err
		}
		h.mu.Lock()
		h.defaults = f
		h.mu.Unlock()
		return f, nil
	})
	if err != nil {
		c.Logger().Errorf("config reload: %v", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "config reload failed").SetInternal(err)
	}
	return c.JSON(http.StatusOK, v)
}

func (h *Handler) PostDatasetReload(c echo.Context) error {
	if h.loadDataset == nil {
		return echo.NewHTTPError(http.StatusNotImplemented, "no dataset loader registered")
	}
	ds, err := h.ReloadDataset(c.Request().Context())
	if err != nil {
		c.Logger().Errorf("dataset reload: %v", err)
		if errors.Is(err, engine.ErrSchema) {
			return echo.NewHTTPError(http.StatusUnprocessableEntity, err.Error()).SetInternal(err)
		}
		return echo.NewHTTPError(http.StatusInternalServerError, "dataset reload failed").SetInternal(err)
	}
	return c.JSON(http.StatusOK, newMetadata(ds))
}

// GetOriginal pages through the wide table as loaded.
func (h *Handler) GetOriginal(c echo.Context) error {
	ds, err := h.dataset()
	if err != nil {
		return err
	}
	total := ds.Wide.Len()
	limit, offset := getPaginationParams(c, total)

	return c.JSON(http.StatusOK, map[string]interface{}{
		"data":   ds.Wide.Objects(offset, limit),
		"total":  total,
		"limit":  limit,
		"offset": offset,
	})
}

// Run returns the filtered long rows.
func (h *Handler) Run(c echo.Context) error {
	ds, err := h.dataset()
	if err != nil {
		return err
	}
	f, err := h.filters(c, ds)
	if err != nil {
		return err
	}
	res := h.eng.QueryLong(ds.Long, f, true)
	h.observe("run", res.Len())
	return c.JSON(http.StatusOK, res)
}

func (h *Handler) aggregateBy(dim engine.Dimension) echo.HandlerFunc {
	kind := "aggregate_" + dim.String()
	return func(c echo.Context) error {
		ds, err := h.dataset()
		if err != nil {
			return err
		}
		f, err := h.filters(c, ds)
		if err != nil {
			return err
		}
		rows := h.eng.GroupLong(ds.Long, f, dim)
		h.observe(kind, len(rows))
		return c.JSON(http.StatusOK, rows)
	}
}

// AggregateAll groups on every identifier column. An unset operation
// averages.
func (h *Handler) AggregateAll(c echo.Context) error {
	ds, err := h.dataset()
	if err != nil {
		return err
	}
	f, err := h.filters(c, ds)
	if err != nil {
		return err
	}
	res := h.eng.AggregateAll(h.eng.Filter(ds.Long, f.Region, f.Country, f.StartYear, f.EndYear), f.OperationOr("avg"))
	h.observe("aggregate_all", res.Len())
	return c.JSON(http.StatusOK, res)
}
