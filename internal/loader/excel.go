package loader

import (
	"fmt"

	"github.com/extrame/xls"
	"github.com/xuri/excelize/v2"

	"gdpengine/internal/models"
)

// Excel reads the first sheet of an .xlsx workbook.
type Excel struct{}

func (Excel) Load(path string) (models.WideTable, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return models.WideTable{}, err
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return models.WideTable{}, fmt.Errorf("xlsx: workbook has no sheets")
	}
	rows, err := f.GetRows(sheets[0], excelize.Options{RawCellValue: true})
	if err != nil {
		return models.WideTable{}, fmt.Errorf("xlsx: sheet %q: %w", sheets[0], err)
	}
	return fromRows(rows), nil
}

// LegacyExcel reads the first sheet of a BIFF .xls workbook.
type LegacyExcel struct{}

func (LegacyExcel) Load(path string) (models.WideTable, error) {
	wb, err := xls.Open(path, "utf-8")
	if err != nil {
		return models.WideTable{}, err
	}
	sheet := wb.GetSheet(0)
	if sheet == nil {
		return models.WideTable{}, fmt.Errorf("xls: workbook has no sheets")
	}
	var rows [][]string
	for i := 0; i <= int(sheet.MaxRow); i++ {
		row := sheet.Row(i)
		if row == nil {
			rows = append(rows, nil)
			continue
		}
		cells := make([]string, row.LastCol())
		for j := row.FirstCol(); j < row.LastCol(); j++ {
			cells[j] = row.Col(j)
		}
		rows = append(rows, cells)
	}
	return fromRows(rows), nil
}
