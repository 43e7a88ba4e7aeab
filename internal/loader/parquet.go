package loader

import (
	"context"
	"fmt"

	"github.com/apache/arrow-go/v18/arrow/memory"
	"github.com/apache/arrow-go/v18/parquet/file"
	"github.com/apache/arrow-go/v18/parquet/pqarrow"

	"gdpengine/internal/models"
)

// Parquet reads a parquet file through Arrow. Cells are rendered with the
// column's own string form; nulls are empty.
type Parquet struct{}

func (Parquet) Load(path string) (models.WideTable, error) {
	rdr, err := file.OpenParquetFile(path, false)
	if err != nil {
		return models.WideTable{}, err
	}
	defer rdr.Close()

	fr, err := pqarrow.NewFileReader(rdr, pqarrow.ArrowReadProperties{}, memory.DefaultAllocator)
	if err != nil {
		return models.WideTable{}, fmt.Errorf("parquet: %w", err)
	}
	tbl, err := fr.ReadTable(context.Background())
	if err != nil {
		return models.WideTable{}, fmt.Errorf("parquet: read table: %w", err)
	}
	defer tbl.Release()

	ncols := int(tbl.NumCols())
	nrows := int(tbl.NumRows())
	t := models.WideTable{
		Columns: make([]string, ncols),
		Records: make([]models.WideRecord, nrows),
	}
	for i := range t.Records {
		t.Records[i] = make(models.WideRecord, ncols)
	}
	for c := 0; c < ncols; c++ {
		t.Columns[c] = tbl.Schema().Field(c).Name
		row := 0
		for _, chunk := range tbl.Column(c).Data().Chunks() {
			for j := 0; j < chunk.Len(); j++ {
				if !chunk.IsNull(j) {
					t.Records[row][c] = chunk.ValueStr(j)
				}
				row++
			}
		}
	}
	return t, nil
}
