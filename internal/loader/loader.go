// Package loader reads indicator tables from disk. The file extension picks
// the implementation from a fixed registry; there is no runtime discovery.
package loader

import (
	"errors"
	"fmt"
	"path/filepath"
	"sort"
	"strings"

	"gdpengine/internal/models"
)

// ErrUnsupportedFormat is returned for an extension with no registered loader.
var ErrUnsupportedFormat = errors.New("unsupported file format")

// Loader reads one file into a wide table. Every cell is returned as text;
// numeric interpretation is left to the engine.
type Loader interface {
	Load(path string) (models.WideTable, error)
}

var registry = map[string]Loader{
	".csv":     CSV{},
	".xlsx":    Excel{},
	".xls":     LegacyExcel{},
	".json":    JSON{},
	".parquet": Parquet{},
}

// For returns the loader registered for path's extension.
func For(path string) (Loader, error) {
	ext := strings.ToLower(filepath.Ext(path))
	l, ok := registry[ext]
	if !ok {
		return nil, fmt.Errorf("%w: %q (supported: %s)", ErrUnsupportedFormat, ext, strings.Join(Extensions(), ", "))
	}
	return l, nil
}

// Load resolves a loader for path and runs it.
func Load(path string) (models.WideTable, error) {
	l, err := For(path)
	if err != nil {
		return models.WideTable{}, err
	}
	t, err := l.Load(path)
	if err != nil {
		return models.WideTable{}, fmt.Errorf("load %s: %w", path, err)
	}
	return t, nil
}

// Extensions lists the registered extensions, sorted.
func Extensions() []string {
	out := make([]string, 0, len(registry))
	for ext := range registry {
		out = append(out, ext)
	}
	sort.Strings(out)
	return out
}

// fromRows turns a header row plus data rows into a table, padding short
// rows and skipping blank ones.
func fromRows(rows [][]string) models.WideTable {
	if len(rows) == 0 {
		return models.WideTable{}
	}
	header := make([]string, len(rows[0]))
	for i, h := range rows[0] {
		header[i] = strings.TrimSpace(h)
	}
	t := models.WideTable{Columns: header, Records: make([]models.WideRecord, 0, len(rows)-1)}
	for _, r := range rows[1:] {
		if blank(r) {
			continue
		}
		rec := make(models.WideRecord, len(header))
		copy(rec, r)
		t.Records = append(t.Records, rec)
	}
	return t
}

func blank(r []string) bool {
	for _, c := range r {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}
