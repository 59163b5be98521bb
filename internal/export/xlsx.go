package export

import (
	"context"
	"fmt"

	"github.com/xuri/excelize/v2"
)

// DefaultSheetName is the worksheet used when none is configured.
const DefaultSheetName = "annotations"

// XLSXExporter writes a single-sheet workbook. Numeric fields are stored as
// numeric cells.
type XLSXExporter struct {
	SheetName string
}

func (e *XLSXExporter) Format() Format { return XLSX }

func (e *XLSXExporter) sheet() string {
	if e.SheetName == "" {
		return DefaultSheetName
	}
	return e.SheetName
}

func (e *XLSXExporter) Export(_ context.Context, t Table, path string) error {
	f := excelize.NewFile()
	defer f.Close()

	sheet := e.sheet()
	if err := f.SetSheetName(f.GetSheetName(0), sheet); err != nil {
		return writeErr(path, err)
	}

	header := make([]any, 0, t.Schema.Len()+1)
	for _, col := range t.Columns() {
		header = append(header, col)
	}
	if err := f.SetSheetRow(sheet, "A1", &header); err != nil {
		return writeErr(path, err)
	}

	for i, rec := range t.Records {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return writeErr(path, err)
		}
		row := t.Values(rec)
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return writeErr(path, err)
		}
	}

	if err := f.SaveAs(path); err != nil {
		return writeErr(path, err)
	}
	return nil
}

// ReadXLSX reads the first worksheet of a workbook back as text. Short rows
// are padded to the header width.
func ReadXLSX(path string) (header []string, rows [][]string, err error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, nil, err
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, nil, fmt.Errorf("read xlsx %s: no sheets", path)
	}

	all, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, nil, fmt.Errorf("read xlsx %s: %w", path, err)
	}
	if len(all) == 0 {
		return nil, nil, fmt.Errorf("read xlsx %s: empty sheet", path)
	}

	header = all[0]
	for _, r := range all[1:] {
		for len(r) < len(header) {
			r = append(r, "")
		}
		rows = append(rows, r)
	}
	return header, rows, nil
}
