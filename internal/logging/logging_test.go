package logging

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gdpengine/internal/engine"
)

func TestSatisfiesLoggerInterfaces(t *testing.T) {
	l, _ := New(Options{})
	var _ echo.Logger = l
	var _ engine.Logger = l
}

func TestDebugWritesDebugFile(t *testing.T) {
	dir := t.TempDir()
	l, closeLog := New(Options{Prefix: "gdp", Dir: dir, MaxSizeMB: 1, Backups: 3, Debug: true})
	l.Debugf("loaded %d rows", 42)
	require.NoError(t, closeLog())

	raw, err := os.ReadFile(filepath.Join(dir, "debug.log"))
	require.NoError(t, err)
	line := string(raw)
	assert.Contains(t, line, `"level":"DEBUG"`)
	assert.Contains(t, line, `"prefix":"gdp"`)
	assert.Contains(t, line, "loaded 42 rows")
}

func TestProdFiltersBelowError(t *testing.T) {
	dir := t.TempDir()
	l, closeLog := New(Options{Dir: dir, MaxSizeMB: 1})
	l.Infof("not written")
	l.Errorf("written")
	require.NoError(t, closeLog())

	raw, err := os.ReadFile(filepath.Join(dir, "prod.log"))
	require.NoError(t, err)
	assert.False(t, strings.Contains(string(raw), "not written"))
	assert.Contains(t, string(raw), "written")
}

func TestNoSinks(t *testing.T) {
	l, closeLog := New(Options{Debug: true})
	l.Debugf("discarded")
	assert.NoError(t, closeLog())
}
