package engine

import (
	"strconv"
	"time"

	"github.com/zeebo/xxh3"

	"gdpengine/internal/models"
)

// Dataset is one loaded file and everything derived from it. It is built
// once and never modified; a reload builds a new Dataset.
type Dataset struct {
	Source      string
	Wide        models.WideTable
	Long        models.LongTable
	Bounds      models.DatasetBounds
	Fingerprint string
	LoadedAt    time.Time
}

// NewDataset reshapes wide and derives its bounds. It fails only when the
// table is missing identifier columns.
func (e *Engine) NewDataset(source string, wide models.WideTable) (*Dataset, error) {
	long, err := e.Transform(wide)
	if err != nil {
		return nil, err
	}
	ds := &Dataset{
		Source:      source,
		Wide:        wide,
		Long:        long,
		Bounds:      Bounds(long),
		Fingerprint: Fingerprint(wide),
		LoadedAt:    time.Now(),
	}
	e.log.Infof("dataset %s: %d wide rows, %d long rows, years %d-%d, %d regions, %d countries, fingerprint %s",
		source, wide.Len(), len(long), ds.Bounds.MinYear, ds.Bounds.MaxYear,
		len(ds.Bounds.Regions), len(ds.Bounds.Countries), ds.Fingerprint)
	return ds, nil
}

// Fingerprint hashes headers and cells so identical tables hash alike.
func Fingerprint(wide models.WideTable) string {
	h := xxh3.New()
	sep := []byte{0}
	for _, c := range wide.Columns {
		_, _ = h.WriteString(c)
		_, _ = h.Write(sep)
	}
	for _, rec := range wide.Records {
		_, _ = h.Write([]byte{'\n'})
		for _, cell := range rec {
			_, _ = h.WriteString(cell)
			_, _ = h.Write(sep)
		}
	}
	return strconv.FormatUint(h.Sum64(), 16)
}
