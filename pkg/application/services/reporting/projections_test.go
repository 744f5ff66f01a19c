package reporting

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vsinha/reconcile/pkg/application/services/shared"
	"github.com/vsinha/reconcile/pkg/domain/entities"
)

func qty(v int64) decimal.Decimal { return decimal.NewFromInt(v) }

func TestBuildShortages(t *testing.T) {
	groups := []entities.GroupResult{
		{GroupID: "SO1", Status: entities.GroupFail},
		{GroupID: "SO2", Status: entities.GroupPass},
		{GroupID: "SO3", Status: entities.GroupFail},
	}
	lines := []entities.LineResult{
		{GroupID: "SO1", PartNumber: "PN-A", Mapped: true, Shortfall: qty(4)},
		{GroupID: "SO1", PartNumber: "PN-B", Mapped: true, Shortfall: qty(0)},
		{GroupID: "SO1", CustomID: "C-X", Mapped: false, Shortfall: qty(50)},
		{GroupID: "SO2", PartNumber: "PN-C", Mapped: true, Shortfall: qty(9)},
		{GroupID: "SO3", PartNumber: "PN-A", Mapped: true, Shortfall: qty(1)},
	}
	base := []entities.Availability{
		{PartNumber: "PN-A", Available: qty(5)},
		{PartNumber: "PN-D", Available: qty(-5)},
		{PartNumber: "PN-E", Available: qty(-12)},
	}

	shortages := BuildShortages(groups, lines, base)

	require.Len(t, shortages, 3)
	assert.Equal(t, entities.PartNumber("PN-E"), shortages[0].PartNumber)
	assert.True(t, shortages[0].NeededQty.Equal(qty(12)))
	// PN-A and PN-D tie at 5; part number breaks the tie
	assert.Equal(t, entities.PartNumber("PN-A"), shortages[1].PartNumber)
	assert.True(t, shortages[1].NeededQty.Equal(qty(5)))
	assert.Equal(t, entities.PartNumber("PN-D"), shortages[2].PartNumber)
}

func TestIsPastDue_Boundary(t *testing.T) {
	today := time.Date(2025, 6, 15, 9, 30, 0, 0, time.UTC)

	tests := []struct {
		name     string
		shipDate time.Time
		expected bool
	}{
		{"same day is not past due", time.Date(2025, 6, 15, 0, 0, 0, 0, time.UTC), false},
		{"one day earlier is past due", time.Date(2025, 6, 14, 0, 0, 0, 0, time.UTC), true},
		{"future", time.Date(2025, 6, 16, 0, 0, 0, 0, time.UTC), false},
		{"absent date never past due", time.Time{}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, IsPastDue(tt.shipDate, today))
		})
	}
}

func TestPastDueNewDemand(t *testing.T) {
	today := time.Date(2025, 6, 15, 0, 0, 0, 0, time.UTC)
	lines := []entities.LineResult{
		{GroupID: "SO2", CustomID: "C-B", ShipDate: time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC), Status: entities.LineOK},
		{GroupID: "SO1", CustomID: "C-A", ShipDate: time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC), Status: entities.LineInsufficient},
		{GroupID: "SO3", CustomID: "C-C", ShipDate: today},
		{GroupID: "SO4", CustomID: "C-D"},
	}

	past := PastDueNewDemand(lines, today)

	require.Len(t, past, 2)
	assert.Equal(t, "SO1", past[0].GroupID)
	assert.Equal(t, entities.LineInsufficient, past[0].Status)
	assert.Equal(t, "SO2", past[1].GroupID)
}

func TestPastDueFirmDemand(t *testing.T) {
	today := time.Date(2025, 6, 15, 0, 0, 0, 0, time.UTC)
	past := time.Date(2025, 5, 1, 0, 0, 0, 0, time.UTC)

	firm := []entities.DemandLine{
		{GroupID: "F1", CustomID: "C-A", PartNumber: "PN-A", Mapped: true, Quantity: qty(5), ShipDate: past},
		{GroupID: "F2", CustomID: "C-B", PartNumber: "PN-B", Mapped: true, Quantity: qty(9), ShipDate: past},
		{GroupID: "F3", CustomID: "C-X", Mapped: false, Quantity: qty(1), ShipDate: past},
		{GroupID: "F4", CustomID: "C-Z", PartNumber: "PN-Z", Mapped: true, Quantity: qty(1), ShipDate: past},
		{GroupID: "F5", CustomID: "C-A", PartNumber: "PN-A", Mapped: true, Quantity: qty(1), ShipDate: today},
	}
	base := shared.BuildAvailability([]entities.SupplyRow{
		{PartNumber: "PN-A", Quantity: qty(10)},
		{PartNumber: "PN-B", Quantity: qty(2)},
	}, firm)

	rows := PastDueFirmDemand(firm, base, today)

	require.Len(t, rows, 4)
	byGroup := make(map[string]entities.PastDueLine)
	for _, r := range rows {
		byGroup[r.GroupID] = r
	}

	assert.Equal(t, entities.LineOK, byGroup["F1"].Status)
	assert.Equal(t, entities.LineInsufficient, byGroup["F2"].Status)
	assert.True(t, byGroup["F2"].Shortfall.Equal(qty(7)))
	assert.Equal(t, "insufficient; short 7", byGroup["F2"].Note)
	// Unmapped and unknown parts read as zero availability, which is not negative
	assert.Equal(t, entities.LineOK, byGroup["F3"].Status)
	assert.Equal(t, entities.LineOK, byGroup["F4"].Status)
}

func TestSummarize(t *testing.T) {
	allocations := []entities.Allocation{
		{RequestSeq: 0, Requested: qty(5), Consumed: qty(5), Class: entities.Matched},
		{RequestSeq: 1, Requested: qty(5), Consumed: qty(3), Class: entities.Split},
		{RequestSeq: 1, Requested: qty(5), Consumed: qty(1), Class: entities.Split},
		{RequestSeq: 1, Requested: qty(5), Shortfall: qty(1), Class: entities.UnmatchedPartial},
		{RequestSeq: 2, Requested: qty(2), Shortfall: qty(2), Class: entities.NoMatch},
	}

	summary := Summarize(allocations)

	assert.Equal(t, 3, summary.Requests)
	assert.Equal(t, 1, summary.Matched)
	assert.Equal(t, 2, summary.Split)
	assert.Equal(t, 1, summary.UnmatchedParts)
	assert.Equal(t, 1, summary.NoMatch)
	assert.True(t, summary.TotalRequested.Equal(qty(12)))
	assert.True(t, summary.TotalConsumed.Equal(qty(9)))
	assert.True(t, summary.TotalShortfall.Equal(qty(3)))
}

func TestSummarize_RepeatedRequestSeq(t *testing.T) {
	// two requests from the same source row, each matched whole
	allocations := []entities.Allocation{
		{RequestSeq: 0, Requested: qty(5), Consumed: qty(5), Class: entities.Matched, RecordID: "R1"},
		{RequestSeq: 0, Requested: qty(5), Consumed: qty(5), Class: entities.Matched, RecordID: "R1"},
		{RequestSeq: 0, Requested: qty(4), Consumed: qty(3), Class: entities.Split, RecordID: "R2"},
		{RequestSeq: 0, Requested: qty(4), Shortfall: qty(1), Class: entities.UnmatchedPartial},
	}

	summary := Summarize(allocations)

	assert.Equal(t, 3, summary.Requests)
	assert.Equal(t, 2, summary.Matched)
	assert.True(t, summary.TotalRequested.Equal(qty(14)))
	assert.True(t, summary.TotalRequested.Equal(summary.TotalConsumed.Add(summary.TotalShortfall)))
}
