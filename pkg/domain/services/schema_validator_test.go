package services

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSchemaValidator_ValidateAll(t *testing.T) {
	schemas := []DatasetSchema{
		{Name: "supply", Required: []string{"Open Quantity", "Material description"}},
		{Name: "xref", Required: []string{"Custom", "Non Custom"}},
		{Name: "firm demand", Required: []string{"Sales Order"}},
	}
	headers := map[string][]string{
		"supply": {" open quantity ", "Material description", "Plant"},
		"xref":   {"Custom"},
	}

	result := NewSchemaValidator().ValidateAll(schemas, headers)

	require.False(t, result.Valid())
	require.Len(t, result.Failures, 2)
	assert.Equal(t, "xref", result.Failures[0].Dataset)
	assert.Equal(t, []string{"Non Custom"}, result.Failures[0].Missing)
	assert.Equal(t, "firm demand", result.Failures[1].Dataset)
	assert.Len(t, result.Errors, 2)

	var schemaErr *SchemaError
	require.True(t, errors.As(result.Err(), &schemaErr))
	assert.Equal(t, "xref", schemaErr.Dataset)
	assert.Contains(t, result.Err().Error(), "xref is incomplete, missing columns: Non Custom")
}

func TestSchemaValidator_Valid(t *testing.T) {
	result := NewSchemaValidator().ValidateAll(
		[]DatasetSchema{{Name: "xref", Required: []string{"Custom", "Non Custom"}}},
		map[string][]string{"xref": {"Non Custom", "Custom"}},
	)

	assert.True(t, result.Valid())
	assert.NoError(t, result.Err())
}
