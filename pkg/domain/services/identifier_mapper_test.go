package services

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vsinha/reconcile/pkg/domain/entities"
)

func TestIdentifierMap_Resolve(t *testing.T) {
	m := NewIdentifierMap([]entities.CrossReference{
		{Custom: " CUST-A ", Canonical: " PN-A "},
		{Custom: "CUST-B", Canonical: "PN-B"},
		{Custom: "CUST-B", Canonical: "PN-B2"},
		{Custom: "   ", Canonical: "PN-X"},
		{Custom: "CUST-EMPTY", Canonical: ""},
	})

	tests := []struct {
		name      string
		input     string
		expected  entities.PartNumber
		shouldMap bool
	}{
		{"trimmed key and value", "CUST-A", "PN-A", true},
		{"input is trimmed", "  CUST-A\t", "PN-A", true},
		{"last duplicate wins", "CUST-B", "PN-B2", true},
		{"case sensitive", "cust-a", "", false},
		{"unknown", "CUST-Z", "", false},
		{"blank canonical is unmapped", "CUST-EMPTY", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := m.Resolve(tt.input)
			assert.Equal(t, tt.shouldMap, ok)
			assert.Equal(t, tt.expected, got)
		})
	}

	assert.Equal(t, 2, m.Size())
}

func TestIdentifierMap_MapLinesCollectsUnmappedOnce(t *testing.T) {
	m := NewIdentifierMap([]entities.CrossReference{{Custom: "CUST-A", Canonical: "PN-A"}})
	lines := []entities.DemandLine{
		{Seq: 0, GroupID: "SO1", CustomID: "CUST-Z", Quantity: decimal.NewFromInt(1)},
		{Seq: 1, GroupID: "SO1", CustomID: "CUST-A", Quantity: decimal.NewFromInt(1)},
		{Seq: 2, GroupID: "SO2", CustomID: "CUST-Z", Quantity: decimal.NewFromInt(1)},
		{Seq: 3, GroupID: "SO3", CustomID: "CUST-Y", Quantity: decimal.NewFromInt(1)},
	}
	collector := NewUnmappedCollector()

	diagnostics := m.MapLines("new demand", lines, collector)

	require.Len(t, diagnostics, 3)
	assert.Equal(t, entities.DiagMissingMapping, diagnostics[0].Kind)
	assert.Equal(t, 2, diagnostics[0].Row)
	assert.Equal(t, []string{"CUST-Y", "CUST-Z"}, collector.List())

	assert.True(t, lines[1].Mapped)
	assert.Equal(t, entities.PartNumber("PN-A"), lines[1].PartNumber)
	assert.False(t, lines[0].Mapped)
	assert.Empty(t, lines[0].PartNumber)
}

func TestIdentifierMap_MapLinesBlankIdentifier(t *testing.T) {
	m := NewIdentifierMap([]entities.CrossReference{{Custom: "   ", Canonical: "PN-X"}})
	lines := []entities.DemandLine{
		{Seq: 0, GroupID: "SO1", CustomID: "", Quantity: decimal.NewFromInt(3)},
		{Seq: 1, GroupID: "SO2", CustomID: "", Quantity: decimal.NewFromInt(1)},
	}
	collector := NewUnmappedCollector()

	diagnostics := m.MapLines("new demand", lines, collector)

	require.Len(t, diagnostics, 2)
	assert.Contains(t, diagnostics[0].Message, BlankIdentifier)
	assert.False(t, lines[0].Mapped)
	assert.False(t, lines[1].Mapped)
	assert.Equal(t, []string{BlankIdentifier}, collector.List())
	assert.Equal(t, 1, collector.Len())
}

func TestAssumeCanonical(t *testing.T) {
	lines := []entities.DemandLine{{CustomID: " PN-A "}, {CustomID: ""}}
	AssumeCanonical(lines)

	assert.True(t, lines[0].Mapped)
	assert.Equal(t, entities.PartNumber("PN-A"), lines[0].PartNumber)
	assert.False(t, lines[1].Mapped)
}
