package xlsx

import (
	"fmt"

	"github.com/xuri/excelize/v2"

	"github.com/vsinha/reconcile/pkg/infrastructure/repositories/tabular"
)

// Loader reads input tables from one named worksheet of .xlsx workbooks
type Loader struct {
	sheet string
}

// NewLoader creates a loader for the given worksheet name
func NewLoader(sheet string) *Loader {
	return &Loader{sheet: sheet}
}

// ReadTable reads the configured sheet. Cell values are read raw, so dates
// arrive as serial day numbers and quantities without display formatting.
func (l *Loader) ReadTable(dataset, filename string) (tabular.Table, error) {
	f, err := excelize.OpenFile(filename)
	if err != nil {
		return tabular.Table{}, fmt.Errorf("failed to open %s workbook %s: %w", dataset, filename, err)
	}
	defer f.Close()

	if idx, err := f.GetSheetIndex(l.sheet); err != nil || idx < 0 {
		return tabular.Table{}, fmt.Errorf("%s workbook %s has no sheet %q (found %v)", dataset, filename, l.sheet, f.GetSheetList())
	}

	rows, err := f.GetRows(l.sheet, excelize.Options{RawCellValue: true})
	if err != nil {
		return tabular.Table{}, fmt.Errorf("failed to read %s sheet %q: %w", dataset, l.sheet, err)
	}

	if len(rows) < 1 {
		return tabular.Table{}, fmt.Errorf("%s sheet %q must have a header row", dataset, l.sheet)
	}

	return tabular.FromRecords(dataset, rows), nil
}
