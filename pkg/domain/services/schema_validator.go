package services

import (
	"errors"
	"fmt"
	"strings"
)

// SchemaError reports required columns that are absent from an input table.
// It is a hard precondition failure: the core must not run when it occurs.
type SchemaError struct {
	Dataset string
	Missing []string
}

func (e *SchemaError) Error() string {
	return fmt.Sprintf("%s is incomplete, missing columns: %s", e.Dataset, strings.Join(e.Missing, ", "))
}

// DatasetSchema names the columns an input table must carry
type DatasetSchema struct {
	Name     string
	Required []string
}

// SchemaValidator checks table headers against required columns before processing
type SchemaValidator struct{}

// NewSchemaValidator creates a new schema validator
func NewSchemaValidator() *SchemaValidator {
	return &SchemaValidator{}
}

// ValidationResult contains the results of validating every dataset of a run
type ValidationResult struct {
	Failures []*SchemaError
	Errors   []string
}

// Valid reports whether every dataset carried its required columns
func (r *ValidationResult) Valid() bool {
	return len(r.Failures) == 0
}

// Err joins every failure into one error, or returns nil when valid
func (r *ValidationResult) Err() error {
	if r.Valid() {
		return nil
	}
	errs := make([]error, len(r.Failures))
	for i, failure := range r.Failures {
		errs[i] = failure
	}
	return errors.Join(errs...)
}

// ValidateColumns checks one header row. Column names are compared trimmed and case-insensitively.
func (v *SchemaValidator) ValidateColumns(schema DatasetSchema, header []string) *SchemaError {
	present := make(map[string]bool, len(header))
	for _, col := range header {
		present[normalizeColumn(col)] = true
	}

	var missing []string
	for _, col := range schema.Required {
		if !present[normalizeColumn(col)] {
			missing = append(missing, col)
		}
	}

	if len(missing) == 0 {
		return nil
	}
	return &SchemaError{Dataset: schema.Name, Missing: missing}
}

// ValidateAll checks every dataset and reports all missing columns at once
func (v *SchemaValidator) ValidateAll(schemas []DatasetSchema, headers map[string][]string) *ValidationResult {
	result := &ValidationResult{
		Failures: make([]*SchemaError, 0),
		Errors:   make([]string, 0),
	}

	for _, schema := range schemas {
		header, ok := headers[schema.Name]
		if !ok {
			failure := &SchemaError{Dataset: schema.Name, Missing: append([]string(nil), schema.Required...)}
			result.Failures = append(result.Failures, failure)
			result.Errors = append(result.Errors, fmt.Sprintf("%s: table not provided", schema.Name))
			continue
		}
		if failure := v.ValidateColumns(schema, header); failure != nil {
			result.Failures = append(result.Failures, failure)
			result.Errors = append(result.Errors, failure.Error())
		}
	}

	return result
}

func normalizeColumn(col string) string {
	return strings.ToLower(strings.TrimSpace(col))
}
