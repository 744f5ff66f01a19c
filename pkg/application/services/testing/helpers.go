package testing

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/vsinha/reconcile/pkg/application/dto"
	"github.com/vsinha/reconcile/pkg/domain/entities"
)

// ScenarioToday is the reference day of the reconciliation scenario
var ScenarioToday = time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)

func day(year int, month time.Month, d int) time.Time {
	return time.Date(year, month, d, 0, 0, 0, 0, time.UTC)
}

// mustCreateDemandLine is a helper for tests - panics on validation error
func mustCreateDemandLine(seq int, groupID, customID string, qty int64, shipDate time.Time) entities.DemandLine {
	line, err := entities.NewDemandLine(seq, groupID, customID, decimal.NewFromInt(qty), shipDate)
	if err != nil {
		panic(err)
	}
	return *line
}

// mustCreateBalanceRecord is a helper for tests - panics on validation error
func mustCreateBalanceRecord(id string, seq int, pn string, date time.Time, qty int64) *entities.BalanceRecord {
	record, err := entities.NewBalanceRecord(id, seq, entities.PartNumber(pn), date, decimal.NewFromInt(qty),
		map[string]string{"warehouse": "WH-" + id})
	if err != nil {
		panic(err)
	}
	return record
}

// BuildReconcileScenario builds a small order book with one passing order, rejected
// orders for each failure cause, an oversold part and past-due lines on both sides.
//
// Base availability: PN-A 8, PN-B -3, PN-C 2.
// Evaluation order: SO-100 PASS, SO-200 FAIL, SO-300 FAIL, SO-400 FAIL (unmapped), SO-500 FAIL.
func BuildReconcileScenario() dto.ReconcileInput {
	return dto.ReconcileInput{
		Supply: []entities.SupplyRow{
			{PartNumber: "PN-A", Quantity: decimal.NewFromInt(10)},
			{PartNumber: "PN-B", Quantity: decimal.NewFromInt(5)},
			{PartNumber: "PN-C", Quantity: decimal.NewFromInt(2)},
			{PartNumber: "PN-A", Quantity: decimal.NewFromInt(2)},
		},
		FirmDemand: []entities.DemandLine{
			mustCreateDemandLine(0, "SO-F1", "F-1", 4, day(2024, 5, 20)),
			mustCreateDemandLine(1, "SO-F2", "F-2", 8, day(2024, 7, 1)),
			mustCreateDemandLine(2, "SO-F3", "F-9", 1, day(2024, 5, 1)),
		},
		NewDemand: []entities.DemandLine{
			mustCreateDemandLine(0, "SO-200", "C-1", 4, day(2024, 6, 5)),
			mustCreateDemandLine(1, "SO-100", "C-1", 5, day(2024, 5, 15)),
			mustCreateDemandLine(2, "SO-100", "C-3", 2, day(2024, 6, 10)),
			mustCreateDemandLine(3, "SO-300", "C-2", 1, day(2024, 6, 20)),
			mustCreateDemandLine(4, "SO-400", "C-X", 3, day(2024, 6, 25)),
			mustCreateDemandLine(5, "SO-500", "C-3", 1, time.Time{}),
		},
		CrossReferences: []entities.CrossReference{
			{Custom: "C-1", Canonical: "PN-A"},
			{Custom: "C-2", Canonical: "PN-B"},
			{Custom: "C-3", Canonical: "PN-C"},
			{Custom: "F-1", Canonical: "PN-A"},
			{Custom: "F-2", Canonical: "PN-B"},
		},
		Today: ScenarioToday,
	}
}

// BuildMatchScenario builds balance records and requests covering every match class.
//
// PN-A records in priority order: R2 (3), R1 (5), R4 (10, no date).
// D1 matched on R1, D2 matched on R4, D3 split on R3 then short 2,
// D4 no-match, D5 split across R2 and R4 then short 1.
func BuildMatchScenario() dto.MatchInput {
	return dto.MatchInput{
		Balances: []*entities.BalanceRecord{
			mustCreateBalanceRecord("R1", 0, "PN-A", day(2024, 1, 10), 5),
			mustCreateBalanceRecord("R2", 1, "PN-A", day(2024, 1, 5), 3),
			mustCreateBalanceRecord("R3", 2, "PN-B", day(2024, 2, 1), 4),
			mustCreateBalanceRecord("R4", 3, "PN-A", time.Time{}, 10),
		},
		Requests: []entities.DemandLine{
			mustCreateDemandLine(0, "D1", "PN-A", 5, time.Time{}),
			mustCreateDemandLine(1, "D2", "PN-A", 4, time.Time{}),
			mustCreateDemandLine(2, "D3", "PN-B", 6, time.Time{}),
			mustCreateDemandLine(3, "D4", "PN-Z", 1, time.Time{}),
			mustCreateDemandLine(4, "D5", "PN-A", 10, time.Time{}),
		},
	}
}
