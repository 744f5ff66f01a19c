package csv

import (
	"encoding/csv"
	"fmt"
	"os"
	"strings"

	"github.com/vsinha/reconcile/pkg/infrastructure/repositories/tabular"
)

const byteOrderMark = "\ufeff"

// Loader reads input tables from CSV files
type Loader struct{}

// NewLoader creates a new CSV loader
func NewLoader() *Loader {
	return &Loader{}
}

// ReadTable reads a header row and its data rows. Rows may have fewer or more
// cells than the header; columns are matched by name later.
func (l *Loader) ReadTable(dataset, filename string) (tabular.Table, error) {
	file, err := os.Open(filename)
	if err != nil {
		return tabular.Table{}, fmt.Errorf("failed to open %s file %s: %w", dataset, filename, err)
	}
	defer file.Close()

	reader := csv.NewReader(file)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	records, err := reader.ReadAll()
	if err != nil {
		return tabular.Table{}, fmt.Errorf("failed to read %s CSV: %w", dataset, err)
	}

	if len(records) < 1 {
		return tabular.Table{}, fmt.Errorf("%s CSV must have a header row", dataset)
	}
	if len(records[0]) > 0 {
		records[0][0] = strings.TrimPrefix(records[0][0], byteOrderMark)
	}

	return tabular.FromRecords(dataset, records), nil
}
