package testing

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"

	"github.com/xuri/excelize/v2"

	"github.com/vsinha/reconcile/pkg/infrastructure/repositories/tabular"
)

// ReconcileScenarioTables returns the reconciliation scenario as SAP exports would carry it.
//
// Base availability: PN-A 8, PN-B -3, PN-C 2.
// Evaluation order: SO-100 PASS, SO-200 FAIL, SO-300 FAIL, SO-400 FAIL (unmapped), SO-500 FAIL.
// Reconciled against 2024-06-01.
func ReconcileScenarioTables() map[string][][]string {
	return map[string][][]string{
		tabular.DatasetSupply: {
			{"Material description", "Open Quantity", "Storage Location"},
			{"PN-A", "10", "0001"},
			{"PN-B", "5", "0001"},
			{"PN-C", "2", "0002"},
			{"PN-A", "2", "0002"},
		},
		tabular.DatasetFirmDemand: {
			{"Sales Order", "Material description", "Order quantity (GMEIN)", "Est. Ship Date"},
			{"SO-F1", "F-1", "4", "2024-05-20"},
			{"SO-F2", "F-2", "8", "2024-07-01"},
			{"SO-F3", "F-9", "1", "2024-05-01"},
		},
		tabular.DatasetNewDemand: {
			{"Sales Order", "Material description", "Pln.Or Qty", "Estimated Ship Date"},
			{"SO-200", "C-1", "4", "2024-06-05"},
			{"SO-100", "C-1", "5", "2024-05-15"},
			{"SO-100", "C-3", "2", "2024-06-10"},
			{"SO-300", "C-2", "1", "2024-06-20"},
			{"SO-400", "C-X", "3", "2024-06-25"},
			{"SO-500", "C-3", "1", ""},
		},
		tabular.DatasetCrossReference: {
			{"Custom", "Non Custom"},
			{"C-1", "PN-A"},
			{"C-2", "PN-B"},
			{"C-3", "PN-C"},
			{"F-1", "PN-A"},
			{"F-2", "PN-B"},
		},
	}
}

// MatchScenarioTables returns balance records and requests covering every match class.
//
// PN-A records in priority order: R2 (3), R1 (5), R4 (10, no date).
// D1 matched on R1, D2 matched on R4, D3 split on R3 then short 2,
// D4 no-match, D5 split across R2 and R4 then short 1.
func MatchScenarioTables() map[string][][]string {
	return map[string][][]string{
		tabular.DatasetBalances: {
			{"lot", "part_number", "receipt_date", "quantity", "warehouse"},
			{"R1", "PN-A", "2024-01-10", "5", "WH-R1"},
			{"R2", "PN-A", "2024-01-05", "3", "WH-R2"},
			{"R3", "PN-B", "2024-02-01", "4", "WH-R3"},
			{"R4", "PN-A", "", "10", "WH-R4"},
		},
		tabular.DatasetRequests: {
			{"reference", "part_number", "quantity", "customer"},
			{"D1", "PN-A", "5", "ACME"},
			{"D2", "PN-A", "4", "ACME"},
			{"D3", "PN-B", "6", "Globex"},
			{"D4", "PN-Z", "1", "Initech"},
			{"D5", "PN-A", "10", "Globex"},
		},
	}
}

// WriteCSV writes rows to <dir>/<dataset>.csv and returns the path
func WriteCSV(dir, dataset string, rows [][]string) (string, error) {
	path := filepath.Join(dir, dataset+".csv")
	file, err := os.Create(path)
	if err != nil {
		return "", err
	}
	defer file.Close()

	writer := csv.NewWriter(file)
	if err := writer.WriteAll(rows); err != nil {
		return "", fmt.Errorf("failed to write %s: %w", path, err)
	}
	return path, file.Close()
}

// WriteWorkbook writes rows to the named sheet of <dir>/<dataset>.xlsx and returns the path
func WriteWorkbook(dir, dataset, sheet string, rows [][]string) (string, error) {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", sheet); err != nil {
		return "", err
	}
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return "", err
		}
		values := make([]interface{}, len(row))
		for j, v := range row {
			values[j] = v
		}
		if err := f.SetSheetRow(sheet, cell, &values); err != nil {
			return "", err
		}
	}

	path := filepath.Join(dir, dataset+".xlsx")
	if err := f.SaveAs(path); err != nil {
		return "", fmt.Errorf("failed to write %s: %w", path, err)
	}
	return path, nil
}

// WriteScenario writes every table of a scenario into dir as CSV files
func WriteScenario(dir string, tables map[string][][]string) error {
	for dataset, rows := range tables {
		if _, err := WriteCSV(dir, dataset, rows); err != nil {
			return err
		}
	}
	return nil
}
