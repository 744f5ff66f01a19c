package shared

import (
	"strings"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/vsinha/reconcile/pkg/domain/entities"
)

func qty(v int64) decimal.Decimal { return decimal.NewFromInt(v) }

func TestAvailabilityPool_BasicOperations(t *testing.T) {
	pool := NewAvailabilityPool()
	if pool.Size() != 0 {
		t.Errorf("Expected empty pool, got size %d", pool.Size())
	}

	if !pool.Availability("MISSING").IsZero() {
		t.Error("Expected zero availability for an absent part")
	}

	pool.Consume("PART", qty(3))
	if !pool.Availability("PART").Equal(qty(-3)) {
		t.Errorf("Expected availability -3 after consuming from empty, got %s", pool.Availability("PART"))
	}
	if !pool.Has("PART") {
		t.Error("Expected Has to return true after consume")
	}
}

func TestBuildAvailability(t *testing.T) {
	supply := []entities.SupplyRow{
		{PartNumber: "PN-A", Quantity: qty(10)},
		{PartNumber: " PN-A ", Quantity: qty(5)},
		{PartNumber: "PN-B", Quantity: qty(2)},
	}
	firm := []entities.DemandLine{
		{CustomID: "C-A", PartNumber: "PN-A", Mapped: true, Quantity: qty(4)},
		{CustomID: "C-B", PartNumber: "PN-B", Mapped: true, Quantity: qty(7)},
		{CustomID: "C-X", Mapped: false, Quantity: qty(100)},
		{CustomID: "C-Z", PartNumber: "PN-Z", Mapped: true, Quantity: qty(9)},
	}

	pool := BuildAvailability(supply, firm)

	tests := []struct {
		part     entities.PartNumber
		expected decimal.Decimal
	}{
		{"PN-A", qty(11)},
		{"PN-B", qty(-5)},
		{"PN-Z", qty(0)},
	}
	for _, tt := range tests {
		if got := pool.Availability(tt.part); !got.Equal(tt.expected) {
			t.Errorf("%s: expected %s, got %s", tt.part, tt.expected, got)
		}
	}

	if pool.Has("PN-Z") {
		t.Error("Expected parts only present in firm demand to stay out of the pool")
	}

	negative := pool.Negative()
	if len(negative) != 1 || negative[0].PartNumber != "PN-B" {
		t.Fatalf("Expected PN-B as the only negative part, got %+v", negative)
	}
	if !negative[0].Committed.Equal(qty(7)) || !negative[0].Supply.Equal(qty(2)) {
		t.Errorf("Unexpected negative row: %+v", negative[0])
	}

	if !pool.TotalAvailable().Equal(qty(6)) {
		t.Errorf("Expected total available 6, got %s", pool.TotalAvailable())
	}
}

func TestAvailabilityPool_CloneIsIndependent(t *testing.T) {
	base := BuildAvailability([]entities.SupplyRow{{PartNumber: "PN-A", Quantity: qty(10)}}, nil)
	pass := base.Clone()

	pass.Consume("PN-A", qty(4))

	if !base.Availability("PN-A").Equal(qty(10)) {
		t.Errorf("Expected base pool unchanged, got %s", base.Availability("PN-A"))
	}
	if !pass.Availability("PN-A").Equal(qty(6)) {
		t.Errorf("Expected cloned pool at 6, got %s", pass.Availability("PN-A"))
	}
}

func TestAvailabilityPool_SnapshotSorted(t *testing.T) {
	pool := BuildAvailability([]entities.SupplyRow{
		{PartNumber: "PN-C", Quantity: qty(1)},
		{PartNumber: "PN-A", Quantity: qty(1)},
		{PartNumber: "PN-B", Quantity: qty(1)},
	}, nil)

	snapshot := pool.Snapshot()
	for i, expected := range []entities.PartNumber{"PN-A", "PN-B", "PN-C"} {
		if snapshot[i].PartNumber != expected {
			t.Errorf("Position %d: expected %s, got %s", i, expected, snapshot[i].PartNumber)
		}
	}

	if !strings.Contains(pool.String(), "PN-A: supply=1, committed=0, available=1") {
		t.Errorf("Unexpected debug string: %s", pool.String())
	}
}
