package matching

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vsinha/reconcile/pkg/domain/entities"
	"github.com/vsinha/reconcile/pkg/infrastructure/repositories/memory"
)

func qty(v int64) decimal.Decimal { return decimal.NewFromInt(v) }

func balances(t *testing.T, pn entities.PartNumber, remaining ...int64) *memory.BalanceRepository {
	t.Helper()
	repo := memory.NewBalanceRepository(len(remaining))
	var records []*entities.BalanceRecord
	for i, r := range remaining {
		date := time.Date(2025, 1, i+1, 0, 0, 0, 0, time.UTC)
		record, err := entities.NewBalanceRecord(fmt.Sprintf("%s-%c", pn, 'A'+i), i, pn, date, qty(r),
			map[string]string{"lot": fmt.Sprintf("LOT-%d", i)})
		require.NoError(t, err)
		records = append(records, record)
	}
	require.NoError(t, repo.LoadBalanceRecords(records))
	return repo
}

func request(seq int, ref string, pn entities.PartNumber, q int64) entities.DemandLine {
	return entities.DemandLine{
		Seq:        seq,
		GroupID:    ref,
		CustomID:   entities.CustomID(pn),
		PartNumber: pn,
		Mapped:     pn != "",
		Quantity:   qty(q),
		Payload:    map[string]string{"delivery": ref},
	}
}

func remaining(t *testing.T, repo *memory.BalanceRepository) []int64 {
	t.Helper()
	var out []int64
	for _, record := range repo.Snapshot() {
		out = append(out, record.Remaining.IntPart())
	}
	return out
}

func TestAllocator_FirstFitPreference(t *testing.T) {
	repo := balances(t, "PN", 5, 100)

	allocations, err := NewAllocator(repo, Limits{}).Allocate(context.Background(),
		[]entities.DemandLine{request(0, "D1", "PN", 5)})
	require.NoError(t, err)

	require.Len(t, allocations, 1)
	assert.Equal(t, entities.Matched, allocations[0].Class)
	assert.Equal(t, "PN-A", allocations[0].RecordID)
	assert.True(t, allocations[0].Consumed.Equal(qty(5)))
	assert.Equal(t, []int64{0, 100}, remaining(t, repo))
}

func TestAllocator_PrefersSingleRecordOverEarlierSplit(t *testing.T) {
	repo := balances(t, "PN", 3, 10)

	allocations, err := NewAllocator(repo, Limits{}).Allocate(context.Background(),
		[]entities.DemandLine{request(0, "D1", "PN", 5)})
	require.NoError(t, err)

	require.Len(t, allocations, 1)
	assert.Equal(t, entities.Matched, allocations[0].Class)
	assert.Equal(t, "PN-B", allocations[0].RecordID)
	assert.Equal(t, []int64{3, 5}, remaining(t, repo))
}

func TestAllocator_Splitting(t *testing.T) {
	repo := balances(t, "PN", 3, 4)

	allocations, err := NewAllocator(repo, Limits{}).Allocate(context.Background(),
		[]entities.DemandLine{request(0, "D1", "PN", 5)})
	require.NoError(t, err)

	require.Len(t, allocations, 2)
	assert.Equal(t, entities.Split, allocations[0].Class)
	assert.Equal(t, "PN-A", allocations[0].RecordID)
	assert.True(t, allocations[0].Consumed.Equal(qty(3)))
	assert.Equal(t, entities.Split, allocations[1].Class)
	assert.Equal(t, "PN-B", allocations[1].RecordID)
	assert.True(t, allocations[1].Consumed.Equal(qty(2)))
	for _, a := range allocations {
		assert.True(t, a.Shortfall.IsZero())
	}
	assert.Equal(t, []int64{0, 2}, remaining(t, repo))
}

func TestAllocator_UnmatchedPartial(t *testing.T) {
	repo := balances(t, "PN", 2, 1)

	allocations, err := NewAllocator(repo, Limits{}).Allocate(context.Background(),
		[]entities.DemandLine{request(0, "D1", "PN", 10)})
	require.NoError(t, err)

	require.Len(t, allocations, 3)
	assert.Equal(t, entities.Split, allocations[0].Class)
	assert.Equal(t, entities.Split, allocations[1].Class)
	last := allocations[2]
	assert.Equal(t, entities.UnmatchedPartial, last.Class)
	assert.True(t, last.Shortfall.Equal(qty(7)))
	assert.True(t, last.Consumed.IsZero())
	assert.Empty(t, last.RecordID)
}

func TestAllocator_NoMatch(t *testing.T) {
	repo := balances(t, "PN", 10)

	allocations, err := NewAllocator(repo, Limits{}).Allocate(context.Background(), []entities.DemandLine{
		request(0, "D1", "OTHER", 4),
		request(1, "D2", "", 6),
	})
	require.NoError(t, err)

	require.Len(t, allocations, 2)
	for i, expected := range []int64{4, 6} {
		assert.Equal(t, entities.NoMatch, allocations[i].Class)
		assert.True(t, allocations[i].Consumed.IsZero())
		assert.True(t, allocations[i].Shortfall.Equal(qty(expected)))
	}
	assert.Equal(t, []int64{10}, remaining(t, repo))
}

func TestAllocator_StateCarriesAcrossRequests(t *testing.T) {
	repo := balances(t, "PN", 4, 4)

	allocations, err := NewAllocator(repo, Limits{}).Allocate(context.Background(), []entities.DemandLine{
		request(0, "D1", "PN", 3),
		request(1, "D2", "PN", 3),
		request(2, "D3", "PN", 3),
	})
	require.NoError(t, err)

	// D1 from A, D2 from B (A has only 1 left), D3 splits A's 1 and B's 1 then falls short
	require.Len(t, allocations, 5)
	assert.Equal(t, "PN-A", allocations[0].RecordID)
	assert.Equal(t, "PN-B", allocations[1].RecordID)
	assert.Equal(t, entities.Split, allocations[2].Class)
	assert.Equal(t, entities.Split, allocations[3].Class)
	assert.Equal(t, entities.UnmatchedPartial, allocations[4].Class)
	assert.True(t, allocations[4].Shortfall.Equal(qty(1)))
	assert.Equal(t, []int64{0, 0}, remaining(t, repo))
}

func TestAllocator_FIFOConservation(t *testing.T) {
	repo := balances(t, "PN", 7, 2, 9, 1, 5)
	requests := []entities.DemandLine{
		request(0, "D1", "PN", 8),
		request(1, "D2", "PN", 2),
		request(2, "D3", "PN", 11),
		request(3, "D4", "PN", 0),
		request(4, "D5", "MISSING", 3),
		request(5, "D6", "PN", 9),
	}

	allocations, err := NewAllocator(repo, Limits{}).Allocate(context.Background(), requests)
	require.NoError(t, err)

	totals := make(map[int]decimal.Decimal)
	for _, a := range allocations {
		totals[a.RequestSeq] = totals[a.RequestSeq].Add(a.Consumed).Add(a.Shortfall)
	}
	for _, r := range requests {
		assert.True(t, totals[r.Seq].Equal(r.Quantity), "request %s: got %s want %s", r.GroupID, totals[r.Seq], r.Quantity)
	}

	consumed := decimal.Zero
	for _, a := range allocations {
		consumed = consumed.Add(a.Consumed)
	}
	left := decimal.Zero
	for _, record := range repo.Snapshot() {
		left = left.Add(record.Remaining)
		assert.False(t, record.Remaining.IsNegative())
	}
	assert.True(t, consumed.Add(left).Equal(qty(24)))
}

func TestAllocator_RequestSeqIsStreamPosition(t *testing.T) {
	repo := balances(t, "PN", 100)

	// both requests carry the same source position
	allocations, err := NewAllocator(repo, Limits{}).Allocate(context.Background(), []entities.DemandLine{
		request(0, "D1", "PN", 5),
		request(0, "D1", "PN", 5),
	})
	require.NoError(t, err)

	require.Len(t, allocations, 2)
	assert.Equal(t, 0, allocations[0].RequestSeq)
	assert.Equal(t, 1, allocations[1].RequestSeq)
	assert.Equal(t, []int64{90}, remaining(t, repo))
}

func TestAllocator_NonPositiveRequest(t *testing.T) {
	tests := []struct {
		name      string
		remaining []int64
		quantity  int64
		class     entities.MatchClass
		record    string
	}{
		{"zero skips a negative first record", []int64{-2, 5}, 0, entities.Matched, "PN-B"},
		{"zero fits an empty record", []int64{0, 5}, 0, entities.Matched, "PN-A"},
		{"negative fits the first record above it", []int64{-5, -1}, -3, entities.Matched, "PN-B"},
		{"no record fits", []int64{-4}, 0, entities.UnmatchedPartial, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := balances(t, "PN", tt.remaining...)

			allocations, err := NewAllocator(repo, Limits{}).Allocate(context.Background(),
				[]entities.DemandLine{request(0, "D1", "PN", tt.quantity)})
			require.NoError(t, err)

			require.Len(t, allocations, 1)
			got := allocations[0]
			assert.Equal(t, tt.class, got.Class)
			assert.Equal(t, tt.record, got.RecordID)
			assert.True(t, got.Consumed.Add(got.Shortfall).Equal(qty(tt.quantity)))
			assert.Equal(t, tt.remaining, remaining(t, repo))
		})
	}
}

func TestAllocator_PayloadCarriedThrough(t *testing.T) {
	repo := balances(t, "PN", 10)

	allocations, err := NewAllocator(repo, Limits{}).Allocate(context.Background(),
		[]entities.DemandLine{request(0, "D1", "PN", 1)})
	require.NoError(t, err)

	assert.Equal(t, "LOT-0", allocations[0].RecordPayload["lot"])
	assert.Equal(t, "D1", allocations[0].RequestPayload["delivery"])
	assert.Equal(t, time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC), allocations[0].RecordDate)
}

func TestAllocator_Limits(t *testing.T) {
	repo := balances(t, "PN", 10)

	_, err := NewAllocator(repo, Limits{MaxRequests: 1}).Allocate(context.Background(), []entities.DemandLine{
		request(0, "D1", "PN", 1),
		request(1, "D2", "PN", 1),
	})
	assert.ErrorIs(t, err, ErrInputTooLarge)
	assert.Equal(t, []int64{10}, remaining(t, repo))
}

func TestAllocator_RecordLimit(t *testing.T) {
	repo := balances(t, "PN", 10, 10, 10)

	_, err := NewAllocator(repo, Limits{MaxRecords: 2}).Allocate(context.Background(), []entities.DemandLine{
		request(0, "D1", "PN", 1),
	})
	assert.ErrorIs(t, err, ErrInputTooLarge)
	assert.Equal(t, []int64{10, 10, 10}, remaining(t, repo))
}
