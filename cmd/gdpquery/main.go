package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"github.com/spf13/cobra"

	"gdpengine/internal/config"
	"gdpengine/internal/engine"
	"gdpengine/internal/loader"
	"gdpengine/internal/logging"
	"gdpengine/internal/models"
)

type options struct {
	configDir string
	file      string
	region    string
	country   string
	start     int
	end       int
	op        string
	long      bool
	by        string
	json      bool
	debug     bool
}

var (
	opts    options
	rootCmd = &cobra.Command{
		Use:   "gdpquery",
		Short: "Run one GDP indicator query and print the result",
		Long: `gdpquery loads the configured dataset, applies the default query from
query_config.yaml with any flags layered on top, and prints the result as
an aligned table or JSON.

Filters that do not match the dataset (unknown region or country, years
outside the data) are dropped rather than producing an empty result.`,
		Example: `  gdpquery --region Asia --start 2000 --end 2010 --op sum
  gdpquery --by region --op avg --json
  gdpquery --country Japan --long`,
		Args:         cobra.NoArgs,
		SilenceUsage: true,
		RunE:         runQuery,
	}
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.CompletionOptions.DisableDefaultCmd = true

	f := rootCmd.Flags()
	f.StringVar(&opts.configDir, "config-dir", ".", "directory holding "+config.BaseFile+" and "+config.QueryFile)
	f.StringVar(&opts.file, "file", "", "dataset file, overrides the configured one")
	f.StringVar(&opts.region, "region", "", "continent to keep")
	f.StringVar(&opts.country, "country", "", "country to keep")
	f.IntVar(&opts.start, "start", 0, "first year; alone it selects that year only")
	f.IntVar(&opts.end, "end", 0, "last year; alone it selects that year only")
	f.StringVar(&opts.op, "op", "", "aggregation: sum, avg or average")
	f.BoolVar(&opts.long, "long", false, "print filtered rows without aggregating")
	f.StringVar(&opts.by, "by", "all", "group by: all, region, country or country-code")
	f.BoolVar(&opts.json, "json", false, "print JSON instead of a table")
	f.BoolVar(&opts.debug, "debug", false, "log at DEBUG to debug.log")
}

// mergeFlags layers the flags the user set over the configured filters.
func mergeFlags(cmd *cobra.Command, o options, f models.QueryFilters) models.QueryFilters {
	changed := cmd.Flags().Changed
	if changed("region") {
		f.Region = &o.region
	}
	if changed("country") {
		f.Country = &o.country
	}
	if changed("start") {
		f.StartYear = &o.start
	}
	if changed("end") {
		f.EndYear = &o.end
	}
	if changed("op") {
		f.Operation = &o.op
	}
	return f
}

func runQuery(cmd *cobra.Command, _ []string) error {
	dim := engine.ByRegion
	if opts.by != "all" {
		d, ok := engine.ParseDimension(opts.by)
		if !ok {
			return fmt.Errorf("--by: unknown grouping %q", opts.by)
		}
		dim = d
	}

	set, cfgErr := config.Load(opts.configDir)
	cfg := set.Base
	path := cfg.DataPath()
	if opts.file != "" {
		path = opts.file
	}

	logger, closeLog := logging.New(logging.Options{
		Prefix:    "gdpquery",
		Dir:       cfg.LogDir,
		MaxSizeMB: cfg.MaxLogSizeMB,
		Backups:   cfg.LogBackups,
		Debug:     opts.debug,
	})
	defer closeLog()
	if cfgErr != nil {
		logger.Errorf("config: %v", cfgErr)
	}
	if err := config.CheckData(path); err != nil {
		return err
	}

	eng := engine.New(logger)
	var clean *engine.CleanOptions
	if cfg.Clean.Enabled {
		clean = &engine.CleanOptions{FillMethod: cfg.Clean.FillMethod}
	}
	ds, err := loader.Dataset(cmd.Context(), eng, path, clean)
	if err != nil {
		return err
	}

	filters := eng.Sanitize(mergeFlags(cmd, opts, set.Query), ds.Bounds)
	out := cmd.OutOrStdout()

	switch {
	case opts.long || opts.by == "all":
		res := eng.QueryLong(ds.Long, filters, opts.long)
		if opts.json {
			return writeJSON(out, res)
		}
		return writeResult(out, res)
	default:
		rows := eng.GroupLong(ds.Long, filters, dim)
		if opts.json {
			return writeJSON(out, rows)
		}
		return writeGroups(out, dim, rows)
	}
}
