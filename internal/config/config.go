// Package config reads the two configuration files the binaries start from:
//
//   - base_config.yaml: where the dataset and the logs live, server knobs
//   - query_config.yaml: the default query filters
//
// Both files are YAML; since YAML is a superset of JSON, JSON files decode too.
// A base config that fails to load or validate is replaced by Default and the
// failure is returned alongside it, so callers can log it and carry on. The
// dataset file is checked separately by CheckData once any command-line
// override has been applied.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"gdpengine/internal/engine"
	"gdpengine/internal/models"
)

// File names looked up inside the config directory.
const (
	BaseFile  = "base_config.yaml"
	QueryFile = "query_config.yaml"
)

// ErrInvalid is wrapped by every validation failure.
var ErrInvalid = errors.New("invalid config")

// Clean controls the optional cleaning pass applied after a load.
type Clean struct {
	Enabled    bool   `yaml:"enabled" json:"enabled"`
	FillMethod string `yaml:"fill_method" json:"fillMethod"`
}

// BaseConfig is the system configuration.
type BaseConfig struct {
	DataDir      string  `yaml:"data_directory" json:"dataDirectory"`
	DataFilename string  `yaml:"default_file" json:"defaultFile"`
	LogDir       string  `yaml:"log_directory" json:"logDirectory"`
	MaxLogSizeMB int     `yaml:"max_log_size_mb" json:"maxLogSizeMB"`
	LogBackups   int     `yaml:"log_backups" json:"logBackups"`
	Addr         string  `yaml:"addr" json:"addr"`
	RateLimit    float64 `yaml:"rate_limit" json:"rateLimit"`
	Clean        Clean   `yaml:"clean" json:"clean"`
}

// Default is the configuration used when base_config.yaml is absent or bad.
func Default() BaseConfig {
	return BaseConfig{
		DataDir:      "data",
		DataFilename: "gdp_with_continent_filled.csv",
		LogDir:       "logs",
		MaxLogSizeMB: 1,
		LogBackups:   3,
		Addr:         ":8080",
		RateLimit:    20,
		Clean:        Clean{FillMethod: engine.FillNone},
	}
}

// DataPath is the dataset file the config points at.
func (c BaseConfig) DataPath() string {
	return filepath.Join(c.DataDir, c.DataFilename)
}

// Validate checks the constraints a usable config must meet. Whether the
// data file exists is left to CheckData, since callers may point elsewhere.
func (c BaseConfig) Validate() error {
	if c.MaxLogSizeMB <= 0 {
		return fmt.Errorf("%w: max_log_size_mb must be positive, got %d", ErrInvalid, c.MaxLogSizeMB)
	}
	if c.LogBackups < 0 {
		return fmt.Errorf("%w: log_backups must not be negative, got %d", ErrInvalid, c.LogBackups)
	}
	if strings.TrimSpace(c.DataFilename) == "" {
		return fmt.Errorf("%w: default_file cannot be empty", ErrInvalid)
	}
	if c.RateLimit < 0 {
		return fmt.Errorf("%w: rate_limit must not be negative", ErrInvalid)
	}
	if c.Clean.FillMethod != "" && !engine.ValidFillMethod(c.Clean.FillMethod) {
		return fmt.Errorf("%w: unknown fill_method %q", ErrInvalid, c.Clean.FillMethod)
	}
	if c.LogDir != "" {
		if st, err := os.Stat(c.LogDir); err == nil && !st.IsDir() {
			return fmt.Errorf("%w: log_directory is not a directory: %s", ErrInvalid, c.LogDir)
		}
	}
	return nil
}

// CheckData reports whether path names a readable dataset file: its directory
// must exist and the path itself must be a regular file.
func CheckData(path string) error {
	dir := filepath.Dir(path)
	st, err := os.Stat(dir)
	if err != nil {
		return fmt.Errorf("%w: data_directory: %v", ErrInvalid, err)
	}
	if !st.IsDir() {
		return fmt.Errorf("%w: data_directory is not a directory: %s", ErrInvalid, dir)
	}
	st, err = os.Stat(path)
	if err != nil {
		return fmt.Errorf("%w: default_file: %v", ErrInvalid, err)
	}
	if st.IsDir() {
		return fmt.Errorf("%w: default_file is a directory: %s", ErrInvalid, path)
	}
	return nil
}

// LoadBase reads and validates the base config at path. Fields the file
// omits keep their Default values. On any failure it returns Default()
// together with the error. A data file that does not exist is not a
// failure here; see CheckData.
func LoadBase(path string) (BaseConfig, error) {
	cfg := Default()
	raw, err := os.ReadFile(path)
	if err != nil {
		return Default(), fmt.Errorf("read base config: %w", err)
	}
	if err := yaml.Unmarshal(raw, &cfg); err != nil {
		return Default(), fmt.Errorf("parse base config %s: %w", path, err)
	}
	// Relative data and log directories are resolved against the file.
	dir := filepath.Dir(path)
	if cfg.DataDir != "" && !filepath.IsAbs(cfg.DataDir) {
		cfg.DataDir = filepath.Join(dir, cfg.DataDir)
	}
	if cfg.LogDir != "" && !filepath.IsAbs(cfg.LogDir) {
		cfg.LogDir = filepath.Join(dir, cfg.LogDir)
	}
	if err := cfg.Validate(); err != nil {
		return Default(), err
	}
	return cfg, nil
}

// LoadQuery reads the default query filters at path. A missing file yields
// empty filters. The result is raw and must be sanitized before use.
func LoadQuery(path string) (models.QueryFilters, error) {
	var f models.QueryFilters
	raw, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return f, nil
	}
	if err != nil {
		return f, fmt.Errorf("read query config: %w", err)
	}
	if err := yaml.Unmarshal(raw, &f); err != nil {
		return models.QueryFilters{}, fmt.Errorf("parse query config %s: %w", path, err)
	}
	return f, nil
}

// Set is everything loaded from one config directory.
type Set struct {
	Base  BaseConfig
	Query models.QueryFilters
}

// Load reads both files from dir. The returned error reports a problem with
// either file; the Set is always usable.
func Load(dir string) (Set, error) {
	base, baseErr := LoadBase(filepath.Join(dir, BaseFile))
	query, queryErr := LoadQuery(filepath.Join(dir, QueryFile))
	return Set{Base: base, Query: query}, errors.Join(baseErr, queryErr)
}
