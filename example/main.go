package main

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/vsinha/reconcile/pkg/application/dto"
	"github.com/vsinha/reconcile/pkg/application/services/matching"
	"github.com/vsinha/reconcile/pkg/application/services/orchestration"
	"github.com/vsinha/reconcile/pkg/application/services/reconciliation"
	"github.com/vsinha/reconcile/pkg/domain/entities"
	"github.com/vsinha/reconcile/pkg/domain/repositories"
	"github.com/vsinha/reconcile/pkg/infrastructure/events"
	"github.com/vsinha/reconcile/pkg/infrastructure/logging"
	"github.com/vsinha/reconcile/pkg/infrastructure/repositories/memory"
)

func main() {
	ctx := context.Background()

	logger, err := logging.New(logging.Config{Level: "warn", Format: "console"})
	if err != nil {
		fmt.Printf("❌ Logger setup failed: %v\n", err)
		return
	}
	defer logger.Sync()

	orchestrator := orchestration.NewOrchestrator(
		reconciliation.NewEvaluator(reconciliation.Limits{}),
		matching.Limits{},
		func(expected int) repositories.BalanceRepository { return memory.NewBalanceRepository(expected) },
		events.NewInMemoryEventStore(logger),
		logger,
	)

	today := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)

	fmt.Println("🚀 Reconciling the order book for a valve line...")
	fmt.Printf("Today: %s\n\n", today.Format("2006-01-02"))

	result, err := orchestrator.Reconcile(ctx, dto.ReconcileInput{
		Supply: []entities.SupplyRow{
			{PartNumber: "VALVE-100", Quantity: decimal.NewFromInt(40)},
			{PartNumber: "SEAL-7", Quantity: decimal.NewFromInt(25)},
			{PartNumber: "BODY-2", Quantity: decimal.NewFromInt(6)},
		},
		FirmDemand: []entities.DemandLine{
			mustLine(0, "SO-9001", "CV-100", 30, time.Date(2025, 2, 20, 0, 0, 0, 0, time.UTC)),
			mustLine(1, "SO-9002", "CS-7", 10, time.Date(2025, 3, 15, 0, 0, 0, 0, time.UTC)),
		},
		NewDemand: []entities.DemandLine{
			mustLine(0, "SO-9100", "CV-100", 8, time.Date(2025, 3, 5, 0, 0, 0, 0, time.UTC)),
			mustLine(1, "SO-9100", "CS-7", 8, time.Date(2025, 3, 5, 0, 0, 0, 0, time.UTC)),
			mustLine(2, "SO-9101", "CV-100", 4, time.Date(2025, 2, 25, 0, 0, 0, 0, time.UTC)),
			mustLine(3, "SO-9101", "CB-2", 10, time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC)),
			mustLine(4, "SO-9102", "CX-404", 1, time.Date(2025, 4, 1, 0, 0, 0, 0, time.UTC)),
		},
		CrossReferences: []entities.CrossReference{
			{Custom: "CV-100", Canonical: "VALVE-100"},
			{Custom: "CS-7", Canonical: "SEAL-7"},
			{Custom: "CB-2", Canonical: "BODY-2"},
		},
		Today: today,
	})
	if err != nil {
		fmt.Printf("❌ Reconciliation failed: %v\n", err)
		return
	}

	fmt.Println("📊 Order Decisions:")
	for _, group := range result.Groups {
		fmt.Printf("  %s: %s (%d lines)\n", group.GroupID, group.Status, group.LineCount)
	}
	fmt.Println()

	fmt.Println("🔎 Line Detail:")
	for _, line := range result.Lines {
		fmt.Printf("  %s %s %s x%s: %s\n",
			line.GroupID, line.CustomID, line.PartNumber, line.Quantity, line.Note)
	}
	fmt.Println()

	if len(result.Shortages) > 0 {
		fmt.Println("⚠️  Inventory Needed:")
		for _, shortage := range result.Shortages {
			fmt.Printf("  %s: %s units\n", shortage.PartNumber, shortage.NeededQty)
		}
		fmt.Println()
	}

	fmt.Printf("⏰ Past due: %d new, %d firm\n", len(result.PastDueNewDemand), len(result.PastDueFirmDemand))
	fmt.Printf("🔗 Unmapped: %v\n\n", result.Unmapped.NewDemand)

	fmt.Println("📦 Matching deliveries against lots...")
	matched, err := orchestrator.Match(ctx, dto.MatchInput{
		Balances: []*entities.BalanceRecord{
			mustRecord("LOT-1", 0, "VALVE-100", time.Date(2024, 11, 2, 0, 0, 0, 0, time.UTC), 12),
			mustRecord("LOT-2", 1, "VALVE-100", time.Date(2024, 10, 15, 0, 0, 0, 0, time.UTC), 5),
		},
		Requests: []entities.DemandLine{
			mustLine(0, "DN-1", "VALVE-100", 10, time.Time{}),
			mustLine(1, "DN-2", "VALVE-100", 9, time.Time{}),
		},
	})
	if err != nil {
		fmt.Printf("❌ Matching failed: %v\n", err)
		return
	}

	for _, allocation := range matched.Allocations {
		fmt.Printf("  %s: %s from %q (%s)\n",
			allocation.RequestRef, allocation.Consumed, allocation.RecordID, allocation.Class)
	}
	fmt.Printf("\n✅ %s requested, %s consumed, %s short\n",
		matched.Summary.TotalRequested, matched.Summary.TotalConsumed, matched.Summary.TotalShortfall)
}

func mustLine(seq int, group, id string, qty int64, shipDate time.Time) entities.DemandLine {
	line, err := entities.NewDemandLine(seq, group, id, decimal.NewFromInt(qty), shipDate)
	if err != nil {
		panic(err)
	}
	return *line
}

func mustRecord(id string, seq int, pn string, date time.Time, qty int64) *entities.BalanceRecord {
	record, err := entities.NewBalanceRecord(id, seq, entities.PartNumber(pn), date, decimal.NewFromInt(qty), nil)
	if err != nil {
		panic(err)
	}
	return record
}
