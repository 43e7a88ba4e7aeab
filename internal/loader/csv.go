package loader

import (
	"encoding/csv"
	"fmt"
	"os"
	"strings"

	"gdpengine/internal/models"
)

const utf8BOM = "\uFEFF"

// CSV reads comma-separated files with a header row.
type CSV struct{}

func (CSV) Load(path string) (models.WideTable, error) {
	f, err := os.Open(path)
	if err != nil {
		return models.WideTable{}, err
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1
	r.LazyQuotes = true
	rows, err := r.ReadAll()
	if err != nil {
		return models.WideTable{}, fmt.Errorf("csv: %w", err)
	}
	if len(rows) > 0 && len(rows[0]) > 0 {
		rows[0][0] = strings.TrimPrefix(rows[0][0], utf8BOM)
	}
	return fromRows(rows), nil
}
