package tabular

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"

	"github.com/vsinha/reconcile/pkg/domain/entities"
	"github.com/vsinha/reconcile/pkg/domain/services"
)

var (
	errMissingValue = errors.New("value is missing")
	errBadDate      = errors.New("unrecognised date")
)

// Table is one raw input sheet: a header row followed by data rows
type Table struct {
	Dataset string
	Header  []string
	Rows    [][]string
}

// Reader resolves headers through configured column aliases and coerces cells
type Reader struct {
	aliases   map[string]map[string][]string
	layouts   []string
	validator *services.SchemaValidator
}

// NewReader creates a reader. aliases maps dataset to field to accepted header names;
// a field always accepts its own name as a header too.
func NewReader(aliases map[string]map[string][]string, layouts []string) *Reader {
	return &Reader{
		aliases:   aliases,
		layouts:   layouts,
		validator: services.NewSchemaValidator(),
	}
}

// Validate checks every table against its dataset schema and reports all missing columns at once
func (r *Reader) Validate(tables ...Table) error {
	schemas := make([]services.DatasetSchema, 0, len(tables))
	headers := make(map[string][]string, len(tables))
	for _, table := range tables {
		schemas = append(schemas, Schema(table.Dataset))
		headers[table.Dataset] = r.CanonicalHeader(table)
	}

	result := r.validator.ValidateAll(schemas, headers)
	for _, failure := range result.Failures {
		r.describeMissing(failure)
	}
	return result.Err()
}

// CanonicalHeader returns the field names a table header provides
func (r *Reader) CanonicalHeader(table Table) []string {
	columns := r.resolve(table.Dataset, table.Header)
	header := make([]string, 0, len(columns))
	for _, field := range datasetFields[table.Dataset] {
		if _, ok := columns[field.Name]; ok {
			header = append(header, field.Name)
		}
	}
	return header
}

func (r *Reader) check(table Table) error {
	schema := Schema(table.Dataset)
	if failure := r.validator.ValidateColumns(schema, r.CanonicalHeader(table)); failure != nil {
		r.describeMissing(failure)
		return failure
	}
	return nil
}

// describeMissing replaces field names with the header names a user can add
func (r *Reader) describeMissing(failure *services.SchemaError) {
	for i, field := range failure.Missing {
		names := r.headerNames(failure.Dataset, field)
		failure.Missing[i] = strings.Join(names, " / ")
	}
}

func (r *Reader) headerNames(dataset, field string) []string {
	names := []string{field}
	for _, alias := range r.aliases[dataset][field] {
		if normalizeHeader(alias) != normalizeHeader(field) {
			names = append(names, alias)
		}
	}
	return names
}

// resolve maps each field to the first header column that names it
func (r *Reader) resolve(dataset string, header []string) map[string]int {
	columns := make(map[string]int)
	for _, field := range datasetFields[dataset] {
		accepted := make(map[string]bool)
		for _, name := range r.headerNames(dataset, field.Name) {
			accepted[normalizeHeader(name)] = true
		}
		for i, col := range header {
			if accepted[normalizeHeader(col)] {
				columns[field.Name] = i
				break
			}
		}
	}
	return columns
}

func normalizeHeader(col string) string {
	return strings.ToLower(strings.TrimSpace(col))
}

// row is one data row bound to its resolved columns
type row struct {
	dataset string
	seq     int
	cells   []string
	header  []string
	columns map[string]int
}

// number is the one-based spreadsheet row, counting the header
func (r row) number() int {
	return r.seq + 2
}

func (r row) get(field string) string {
	idx, ok := r.columns[field]
	if !ok || idx >= len(r.cells) {
		return ""
	}
	return strings.TrimSpace(r.cells[idx])
}

func (r row) column(field string) string {
	if idx, ok := r.columns[field]; ok && idx < len(r.header) {
		return strings.TrimSpace(r.header[idx])
	}
	return field
}

func (r row) blank() bool {
	for _, cell := range r.cells {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}

// payload carries the columns that no field claimed
func (r row) payload() map[string]string {
	claimed := make(map[int]bool, len(r.columns))
	for _, idx := range r.columns {
		claimed[idx] = true
	}

	payload := make(map[string]string)
	for i, name := range r.header {
		name = strings.TrimSpace(name)
		if claimed[i] || name == "" {
			continue
		}
		value := ""
		if i < len(r.cells) {
			value = r.cells[i]
		}
		payload[name] = value
	}
	if len(payload) == 0 {
		return nil
	}
	return payload
}

func (r *Reader) rows(table Table) []row {
	columns := r.resolve(table.Dataset, table.Header)
	rows := make([]row, 0, len(table.Rows))
	for i, cells := range table.Rows {
		rows = append(rows, row{
			dataset: table.Dataset,
			seq:     i,
			cells:   cells,
			header:  table.Header,
			columns: columns,
		})
	}
	return rows
}

// quantity coerces a cell to a decimal, falling back to zero with a diagnostic
func (r *Reader) quantity(rw row, field string, diagnostics *[]entities.Diagnostic) decimal.Decimal {
	raw := rw.get(field)
	qty, err := ParseQuantity(raw)
	if err != nil {
		*diagnostics = append(*diagnostics, entities.Diagnostic{
			Kind:    entities.DiagMalformedQuantity,
			Dataset: rw.dataset,
			Row:     rw.number(),
			Column:  rw.column(field),
			Value:   raw,
			Message: fmt.Sprintf("quantity treated as 0: %v", err),
		})
		return decimal.Zero
	}
	return qty
}

// date coerces a cell to a calendar day, falling back to absent with a diagnostic
func (r *Reader) date(rw row, field string, diagnostics *[]entities.Diagnostic) time.Time {
	raw := rw.get(field)
	date, err := ParseDate(raw, r.layouts)
	if err != nil {
		*diagnostics = append(*diagnostics, entities.Diagnostic{
			Kind:    entities.DiagMalformedDate,
			Dataset: rw.dataset,
			Row:     rw.number(),
			Column:  rw.column(field),
			Value:   raw,
			Message: fmt.Sprintf("date treated as absent: %v", err),
		})
		return time.Time{}
	}
	return date
}

func blankIdentifier(rw row, field string, message string) entities.Diagnostic {
	return entities.Diagnostic{
		Kind:    entities.DiagBlankIdentifier,
		Dataset: rw.dataset,
		Row:     rw.number(),
		Column:  rw.column(field),
		Message: message,
	}
}

const (
	msgRowSkipped = "row skipped, identifier is blank"
	msgKeptBlank  = "identifier is blank, line kept unmapped"
)

// ParseQuantity parses a numeric cell. Blank cells are reported as missing.
func ParseQuantity(raw string) (decimal.Decimal, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return decimal.Zero, errMissingValue
	}
	qty, err := decimal.NewFromString(raw)
	if err != nil {
		return decimal.Zero, fmt.Errorf("not a number %q", raw)
	}
	return qty, nil
}

// ParseDate parses a date cell with the given layouts, then as a spreadsheet serial day number.
// A blank cell is an absent date, not an error.
func ParseDate(raw string, layouts []string) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}, nil
	}

	for _, layout := range layouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return entities.DateOnly(t), nil
		}
	}

	if serial, err := strconv.ParseFloat(raw, 64); err == nil && serial > 0 {
		if t, err := excelize.ExcelDateToTime(serial, false); err == nil {
			return entities.DateOnly(t), nil
		}
	}

	return time.Time{}, fmt.Errorf("%w %q", errBadDate, raw)
}
