package loader

import (
	"fmt"
	"os"
	"sort"

	"github.com/goccy/go-json"

	"gdpengine/internal/models"
)

// JSON reads an array of row objects keyed by column name. Identifier
// columns come first, the rest sorted.
type JSON struct{}

func (JSON) Load(path string) (models.WideTable, error) {
	f, err := os.Open(path)
	if err != nil {
		return models.WideTable{}, err
	}
	defer f.Close()

	var objs []map[string]any
	dec := json.NewDecoder(f)
	dec.UseNumber()
	if err := dec.Decode(&objs); err != nil {
		return models.WideTable{}, fmt.Errorf("json: %w", err)
	}

	seen := make(map[string]struct{})
	var extra []string
	for _, o := range objs {
		for k := range o {
			if _, ok := seen[k]; ok {
				continue
			}
			seen[k] = struct{}{}
			if !isIdentifier(k) {
				extra = append(extra, k)
			}
		}
	}
	sort.Strings(extra)

	var cols []string
	for _, id := range models.IdentifierColumns {
		if _, ok := seen[id]; ok {
			cols = append(cols, id)
		}
	}
	cols = append(cols, extra...)

	t := models.WideTable{Columns: cols, Records: make([]models.WideRecord, 0, len(objs))}
	for _, o := range objs {
		rec := make(models.WideRecord, len(cols))
		for i, c := range cols {
			rec[i] = cellText(o[c])
		}
		t.Records = append(t.Records, rec)
	}
	return t, nil
}

func isIdentifier(col string) bool {
	for _, id := range models.IdentifierColumns {
		if id == col {
			return true
		}
	}
	return false
}

func cellText(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case json.Number:
		return x.String()
	default:
		return fmt.Sprint(x)
	}
}
