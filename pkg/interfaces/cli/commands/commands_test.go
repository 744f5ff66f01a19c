package commands

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/vsinha/reconcile/pkg/domain/services"
	"github.com/vsinha/reconcile/pkg/infrastructure/events"
	"github.com/vsinha/reconcile/pkg/infrastructure/repositories/tabular"
	fixtures "github.com/vsinha/reconcile/pkg/infrastructure/testing"
)

func writeScenario(t *testing.T, tables map[string][][]string) string {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, fixtures.WriteScenario(dir, tables))
	return dir
}

func decodeJSON(t *testing.T, data []byte) map[string]any {
	t.Helper()
	var decoded map[string]any
	require.NoError(t, json.Unmarshal(data, &decoded))
	return decoded
}

func TestReconcileCommand_TextOutput(t *testing.T) {
	var stdout bytes.Buffer
	cmd := NewReconcileCommand(Config{
		ScenarioDir: writeScenario(t, fixtures.ReconcileScenarioTables()),
		Today:       "2024-06-01",
		Format:      "text",
		LogLevel:    "error",
		Stdout:      &stdout,
	})

	require.NoError(t, cmd.Execute(context.Background()))

	out := stdout.String()
	assert.Contains(t, out, "Today: 2024-06-01")
	assert.Contains(t, out, "Orders: 5 (1 pass, 4 fail)")
	assert.Contains(t, out, "Parts short: 3")
	assert.Contains(t, out, "Past due: 1 new, 2 firm")
	assert.Contains(t, out, "Unmapped identifiers: 1 new, 1 firm")
	assert.Contains(t, out, "insufficient; short 1")
}

func TestReconcileCommand_JSONOutput(t *testing.T) {
	var stdout bytes.Buffer
	cmd := NewReconcileCommand(Config{
		ScenarioDir: writeScenario(t, fixtures.ReconcileScenarioTables()),
		Today:       "2024-06-01",
		Format:      "json",
		LogLevel:    "error",
		Stdout:      &stdout,
	})

	require.NoError(t, cmd.Execute(context.Background()))

	result := decodeJSON(t, stdout.Bytes())
	groups := result["groups"].([]any)
	require.Len(t, groups, 5)
	first := groups[0].(map[string]any)
	assert.Equal(t, "SO-100", first["group_id"])
	assert.Equal(t, "PASS", first["status"])

	shortages := result["shortages"].([]any)
	require.Len(t, shortages, 3)
	top := shortages[0].(map[string]any)
	assert.Equal(t, "PN-B", top["part_number"])
	assert.Equal(t, "7", top["needed_qty"])
}

func TestReconcileCommand_WorkbookInputsAndOutput(t *testing.T) {
	dir := t.TempDir()
	for dataset, rows := range fixtures.ReconcileScenarioTables() {
		_, err := fixtures.WriteWorkbook(dir, dataset, "Export", rows)
		require.NoError(t, err)
	}
	outputDir := filepath.Join(t.TempDir(), "results")

	cmd := NewReconcileCommand(Config{
		ScenarioDir: dir,
		Sheet:       "Export",
		Today:       "2024-06-01",
		Format:      "xlsx",
		OutputDir:   outputDir,
		LogLevel:    "error",
		Stdout:      &bytes.Buffer{},
	})
	require.NoError(t, cmd.Execute(context.Background()))

	f, err := excelize.OpenFile(filepath.Join(outputDir, "reconciliation.xlsx"))
	require.NoError(t, err)
	defer f.Close()

	sheets := f.GetSheetList()
	assert.Contains(t, sheets, "Order Summary")
	assert.Contains(t, sheets, "Inventory Needed")

	value, err := f.GetCellValue("Inventory Needed", "A2")
	require.NoError(t, err)
	assert.Equal(t, "PN-B", value)
}

func TestReconcileCommand_WrongSheet(t *testing.T) {
	dir := t.TempDir()
	for dataset, rows := range fixtures.ReconcileScenarioTables() {
		_, err := fixtures.WriteWorkbook(dir, dataset, "Export", rows)
		require.NoError(t, err)
	}

	cmd := NewReconcileCommand(Config{
		ScenarioDir: dir,
		Format:      "text",
		LogLevel:    "error",
		Stdout:      &bytes.Buffer{},
	})
	err := cmd.Execute(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Sheet1")
}

func TestReconcileCommand_MissingColumns(t *testing.T) {
	tables := fixtures.ReconcileScenarioTables()
	tables[tabular.DatasetSupply] = [][]string{
		{"Material description", "Storage Location"},
		{"PN-A", "0001"},
	}
	tables[tabular.DatasetCrossReference] = [][]string{
		{"Custom"},
		{"C-1"},
	}

	var stdout bytes.Buffer
	cmd := NewReconcileCommand(Config{
		ScenarioDir: writeScenario(t, tables),
		Format:      "text",
		LogLevel:    "error",
		Stdout:      &stdout,
	})
	err := cmd.Execute(context.Background())
	require.Error(t, err)

	var schemaErr *services.SchemaError
	require.True(t, errors.As(err, &schemaErr))
	assert.Equal(t, tabular.DatasetSupply, schemaErr.Dataset)
	assert.Equal(t, []string{"quantity / Open Quantity"}, schemaErr.Missing)

	assert.Contains(t, err.Error(), "cross_reference")
	assert.Empty(t, stdout.String(), "no report may be produced when validation fails")
}

func TestReconcileCommand_MissingFile(t *testing.T) {
	tables := fixtures.ReconcileScenarioTables()
	delete(tables, tabular.DatasetFirmDemand)

	cmd := NewReconcileCommand(Config{
		ScenarioDir: writeScenario(t, tables),
		LogLevel:    "error",
		Stdout:      &bytes.Buffer{},
	})
	err := cmd.Execute(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "-firm-demand")
}

func TestReconcileCommand_ConfigFileAliases(t *testing.T) {
	tables := fixtures.ReconcileScenarioTables()
	tables[tabular.DatasetSupply][0] = []string{"Material", "Unrestricted", "Storage Location"}
	dir := writeScenario(t, tables)

	configFile := filepath.Join(t.TempDir(), "settings.yaml")
	require.NoError(t, os.WriteFile(configFile, []byte(`
columns:
  supply:
    part_number: [Material]
    quantity: [Unrestricted]
today: "2024-06-01"
log:
  level: error
`), 0644))

	var stdout bytes.Buffer
	cmd := NewReconcileCommand(Config{
		ConfigFile:  configFile,
		ScenarioDir: dir,
		Format:      "json",
		Stdout:      &stdout,
	})
	require.NoError(t, cmd.Execute(context.Background()))

	result := decodeJSON(t, stdout.Bytes())
	assert.Equal(t, "2024-06-01T00:00:00Z", result["today"])
	assert.Len(t, result["shortages"], 3)
}

func TestReconcileCommand_Help(t *testing.T) {
	var stdout bytes.Buffer
	cmd := NewReconcileCommand(Config{Help: true, Stdout: &stdout})
	require.NoError(t, cmd.Execute(context.Background()))
	assert.Contains(t, stdout.String(), "USAGE:")
}

func TestMatchCommand_JSONOutput(t *testing.T) {
	var stdout bytes.Buffer
	cmd := NewMatchCommand(Config{
		ScenarioDir: writeScenario(t, fixtures.MatchScenarioTables()),
		Format:      "json",
		LogLevel:    "error",
		Stdout:      &stdout,
	})
	require.NoError(t, cmd.Execute(context.Background()))

	result := decodeJSON(t, stdout.Bytes())
	summary := result["summary"].(map[string]any)
	assert.Equal(t, float64(5), summary["requests"])
	assert.Equal(t, float64(2), summary["matched"])
	assert.Equal(t, float64(4), summary["split"])
	assert.Equal(t, float64(2), summary["unmatched_partial"])
	assert.Equal(t, float64(1), summary["no_match"])

	allocations := result["allocations"].([]any)
	require.Len(t, allocations, 8)
	first := allocations[0].(map[string]any)
	assert.Equal(t, "D1", first["request_ref"])
	assert.Equal(t, "R1", first["record_id"])
	assert.Equal(t, "matched", first["class"])
	assert.Equal(t, map[string]any{"customer": "ACME"}, first["request_payload"])
	assert.Equal(t, map[string]any{"warehouse": "WH-R1"}, first["record_payload"])
}

func TestMatchCommand_VerboseReportsRunEvents(t *testing.T) {
	var stdout bytes.Buffer
	cmd := NewMatchCommand(Config{
		ScenarioDir: writeScenario(t, fixtures.MatchScenarioTables()),
		Format:      "text",
		LogLevel:    "error",
		Verbose:     true,
		Stdout:      &stdout,
	})
	require.NoError(t, cmd.Execute(context.Background()))

	out := stdout.String()
	assert.Contains(t, out, "Events recorded for run ")
	assert.Contains(t, out, fmt.Sprintf("  %s: 8\n", events.AllocationRecordedEvent))
	assert.Contains(t, out, fmt.Sprintf("  %s: 1\n", events.RunStartedEvent))
	assert.Contains(t, out, fmt.Sprintf("  %s: 1\n", events.RunCompletedEvent))
}

func TestRuntime_ReadTablesKeepsEachDataset(t *testing.T) {
	dir := writeScenario(t, fixtures.ReconcileScenarioTables())
	rt, err := newRuntime(Config{LogLevel: "error", Stdout: &bytes.Buffer{}})
	require.NoError(t, err)

	files := []inputFile{
		{dataset: tabular.DatasetSupply, path: scenarioFile(dir, tabular.DatasetSupply)},
		{dataset: tabular.DatasetFirmDemand, path: scenarioFile(dir, tabular.DatasetFirmDemand)},
		{dataset: tabular.DatasetNewDemand, path: scenarioFile(dir, tabular.DatasetNewDemand)},
		{dataset: tabular.DatasetCrossReference, path: scenarioFile(dir, tabular.DatasetCrossReference)},
		{dataset: tabular.DatasetRequests, optional: true},
	}

	tables, err := rt.readTables(context.Background(), files)
	require.NoError(t, err)

	require.Len(t, tables, 4)
	for dataset, rows := range fixtures.ReconcileScenarioTables() {
		table, ok := tables[dataset]
		require.True(t, ok, "missing %s", dataset)
		assert.Equal(t, dataset, table.Dataset)
		assert.Equal(t, rows[0], table.Header, "header of %s", dataset)
		assert.Len(t, table.Rows, len(rows)-1, "rows of %s", dataset)
	}
}

func TestMatchCommand_CSVOutput(t *testing.T) {
	outputDir := t.TempDir()
	cmd := NewMatchCommand(Config{
		ScenarioDir: writeScenario(t, fixtures.MatchScenarioTables()),
		Format:      "csv",
		OutputDir:   outputDir,
		LogLevel:    "error",
		Stdout:      &bytes.Buffer{},
	})
	require.NoError(t, cmd.Execute(context.Background()))

	entries, err := os.ReadDir(outputDir)
	require.NoError(t, err)
	assert.NotEmpty(t, entries)
}

func TestGenerateThenRun(t *testing.T) {
	dir := t.TempDir()
	generate := NewGenerateCommand(GenerateConfig{
		Parts:      10,
		Orders:     20,
		FirmOrders: 10,
		MaxLines:   3,
		Inventory:  0.5,
		Unmapped:   0.1,
		Records:    2,
		Requests:   15,
		OutputDir:  dir,
		Seed:       42,
		Stdout:     &bytes.Buffer{},
	})
	require.NoError(t, generate.Execute(context.Background()))

	for _, dataset := range tabular.Datasets() {
		assert.FileExists(t, filepath.Join(dir, dataset+".csv"))
	}

	var reconcileOut bytes.Buffer
	reconcile := NewReconcileCommand(Config{
		ScenarioDir: dir,
		Format:      "json",
		LogLevel:    "error",
		Stdout:      &reconcileOut,
	})
	require.NoError(t, reconcile.Execute(context.Background()))
	assert.NotEmpty(t, decodeJSON(t, reconcileOut.Bytes())["groups"])

	var matchOut bytes.Buffer
	match := NewMatchCommand(Config{
		ScenarioDir: dir,
		Format:      "json",
		LogLevel:    "error",
		Stdout:      &matchOut,
	})
	require.NoError(t, match.Execute(context.Background()))

	summary := decodeJSON(t, matchOut.Bytes())["summary"].(map[string]any)
	assert.Equal(t, float64(15), summary["requests"])
}

func TestGenerateCommand_Validation(t *testing.T) {
	cmd := NewGenerateCommand(GenerateConfig{Parts: 5, MaxLines: 2, Stdout: &bytes.Buffer{}})
	err := cmd.Execute(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "output directory is required")
}
