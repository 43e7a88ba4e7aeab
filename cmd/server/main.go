package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"gdpengine/internal/api"
	"gdpengine/internal/config"
	"gdpengine/internal/engine"
	"gdpengine/internal/loader"
	"gdpengine/internal/logging"
	"gdpengine/internal/metrics"
	"gdpengine/internal/models"
)

var (
	configDir string
	dataFile  string
	addr      string
	debug     bool

	rootCmd = &cobra.Command{
		Use:   "gdp-server",
		Short: "Serve GDP indicator queries over HTTP",
		Long: `gdp-server loads a wide GDP indicator table (csv, xlsx, xls, json or
parquet) and answers filter, aggregation and analytics queries over it.

The HTTP API is up immediately; query routes answer 503 until the dataset
has finished loading in the background.`,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd.Context())
		},
	}
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.CompletionOptions.DisableDefaultCmd = true

	rootCmd.Flags().StringVar(&configDir, "config-dir", ".", "directory holding "+config.BaseFile+" and "+config.QueryFile)
	rootCmd.Flags().StringVar(&dataFile, "file", "", "dataset file, overrides the configured one")
	rootCmd.Flags().StringVar(&addr, "addr", "", "listen address, overrides the configured one")
	rootCmd.Flags().BoolVar(&debug, "debug", false, "log at DEBUG to debug.log")
}

// settings loads the config directory and applies the command-line
// overrides. The returned error covers the config files and the dataset
// path; the Set and path are always usable.
func settings(dir, file, listen string) (config.Set, string, error) {
	set, err := config.Load(dir)
	dataPath := set.Base.DataPath()
	if file != "" {
		dataPath = file
	}
	if listen != "" {
		set.Base.Addr = listen
	}
	return set, dataPath, errors.Join(err, config.CheckData(dataPath))
}

func run(ctx context.Context) error {
	set, dataPath, cfgErr := settings(configDir, dataFile, addr)
	cfg := set.Base

	logger, closeLog := logging.New(logging.Options{
		Prefix:    "gdp-server",
		Dir:       cfg.LogDir,
		MaxSizeMB: cfg.MaxLogSizeMB,
		Backups:   cfg.LogBackups,
		Debug:     debug,
		Stderr:    true,
	})
	defer closeLog()
	if cfgErr != nil {
		logger.Errorf("config: %v", cfgErr)
	}

	eng := engine.New(logger)
	m, err := metrics.New()
	if err != nil {
		return err
	}
	var clean *engine.CleanOptions
	if cfg.Clean.Enabled {
		clean = &engine.CleanOptions{FillMethod: cfg.Clean.FillMethod}
	}

	// 1. Initialize Echo (starts instantly)
	e := echo.New()
	e.HideBanner = true
	e.Logger = logger
	e.JSONSerializer = api.Serializer{}
	e.Use(middleware.CORS())
	e.Use(middleware.Recover())
	e.Use(middleware.Logger())
	e.Use(m.Middleware())
	if cfg.RateLimit > 0 {
		e.Use(middleware.RateLimiter(middleware.NewRateLimiterMemoryStore(rate.Limit(cfg.RateLimit))))
	}

	// 2. Initialize Handler with no data.
	// The API is live but query routes return 503 until the load finishes.
	h := api.NewHandler(api.Options{
		Engine:   eng,
		Metrics:  m,
		Defaults: set.Query,
		LoadConfig: func() (models.QueryFilters, error) {
			return config.LoadQuery(filepath.Join(configDir, config.QueryFile))
		},
		LoadDataset: func(ctx context.Context) (*engine.Dataset, error) {
			return loader.Dataset(ctx, eng, dataPath, clean)
		},
	})
	h.RegisterRoutes(e)

	g, ctx := errgroup.WithContext(ctx)

	// 3. Load the dataset in the background
	g.Go(func() error {
		logger.Infof("loading %s in background", dataPath)
		t0 := time.Now()
		done := make(chan error, 1)
		go func() {
			_, err := h.ReloadDataset(ctx)
			done <- err
		}()
		select {
		case <-ctx.Done():
			logger.Warnf("shutting down before %s finished loading", dataPath)
			return nil
		case err := <-done:
			if err != nil {
				// Stay up: POST /api/dataset/reload can retry once the file is fixed.
				logger.Errorf("load %s: %v", dataPath, err)
				return nil
			}
		}
		logger.Infof("dataset ready in %v", time.Since(t0))
		return nil
	})

	// 4. Start server
	g.Go(func() error {
		logger.Infof("listening on %s", cfg.Addr)
		if err := e.Start(cfg.Addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return e.Shutdown(shutdownCtx)
	})

	return g.Wait()
}
