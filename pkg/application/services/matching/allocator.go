package matching

import (
	"context"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/vsinha/reconcile/pkg/domain/entities"
	"github.com/vsinha/reconcile/pkg/domain/repositories"
)

// ErrInputTooLarge is returned before allocation when the input exceeds the configured limits
var ErrInputTooLarge = errors.New("input exceeds configured limits")

// Limits bounds the size of one allocation pass. Zero means unlimited.
type Limits struct {
	MaxRequests int
	MaxRecords  int
}

// Allocator satisfies delivery requests from balance records in priority order.
//
// For each request it prefers a single record that covers the full quantity
// (the first such record in priority order) and only splits across records
// when no single record suffices. Records are decremented immediately, so the
// state left by one request is visible to the next.
type Allocator struct {
	balances repositories.BalanceRepository
	limits   Limits
}

// NewAllocator creates a new FIFO allocator over the given balance records
func NewAllocator(balances repositories.BalanceRepository, limits Limits) *Allocator {
	return &Allocator{
		balances: balances,
		limits:   limits,
	}
}

// Allocate processes requests in the given order and returns one or more allocations per request
func (a *Allocator) Allocate(ctx context.Context, requests []entities.DemandLine) ([]entities.Allocation, error) {
	if a.limits.MaxRequests > 0 && len(requests) > a.limits.MaxRequests {
		return nil, fmt.Errorf("%w: %d requests, limit %d", ErrInputTooLarge, len(requests), a.limits.MaxRequests)
	}
	if a.limits.MaxRecords > 0 {
		records, err := a.balances.GetAllBalanceRecords()
		if err != nil {
			return nil, err
		}
		if len(records) > a.limits.MaxRecords {
			return nil, fmt.Errorf("%w: %d balance records, limit %d", ErrInputTooLarge, len(records), a.limits.MaxRecords)
		}
	}

	allocations := make([]entities.Allocation, 0, len(requests))
	for i, request := range requests {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		rows, err := a.AllocateRequest(request)
		if err != nil {
			return nil, fmt.Errorf("failed to allocate request %s (%s): %w", request.GroupID, request.CustomID, err)
		}
		for j := range rows {
			rows[j].RequestSeq = i
		}
		allocations = append(allocations, rows...)
	}
	return allocations, nil
}

// AllocateRequest allocates a single request against the current balance state
func (a *Allocator) AllocateRequest(request entities.DemandLine) ([]entities.Allocation, error) {
	pn, mapped := request.Canonical()
	if !mapped || !a.balances.HasPart(pn) {
		return []entities.Allocation{a.newAllocation(request, nil, decimal.Zero, request.Quantity, entities.NoMatch)}, nil
	}

	records, err := a.balances.GetBalanceRecords(pn)
	if err != nil {
		return nil, err
	}

	// Prefer the first record that covers the whole request.
	// Non-positive requests take nothing from it.
	for _, record := range records {
		if record.Remaining.GreaterThanOrEqual(request.Quantity) {
			if request.Quantity.IsPositive() {
				if err := a.balances.Decrement(record.ID, request.Quantity); err != nil {
					return nil, err
				}
			}
			return []entities.Allocation{a.newAllocation(request, record, request.Quantity, decimal.Zero, entities.Matched)}, nil
		}
	}

	// Otherwise split across records in priority order
	var allocations []entities.Allocation
	outstanding := request.Quantity
	for _, record := range records {
		if !outstanding.IsPositive() {
			break
		}
		if !record.Remaining.IsPositive() {
			continue
		}

		take := decimal.Min(record.Remaining, outstanding)
		if err := a.balances.Decrement(record.ID, take); err != nil {
			return nil, err
		}
		outstanding = outstanding.Sub(take)
		allocations = append(allocations, a.newAllocation(request, record, take, decimal.Zero, entities.Split))
	}

	if outstanding.IsPositive() || len(allocations) == 0 {
		allocations = append(allocations, a.newAllocation(request, nil, decimal.Zero, outstanding, entities.UnmatchedPartial))
	}
	return allocations, nil
}

func (a *Allocator) newAllocation(request entities.DemandLine, record *entities.BalanceRecord, consumed, shortfall decimal.Decimal, class entities.MatchClass) entities.Allocation {
	allocation := entities.Allocation{
		RequestRef:     request.GroupID,
		RequestSeq:     request.Seq,
		CustomID:       request.CustomID,
		PartNumber:     request.PartNumber,
		Requested:      request.Quantity,
		Consumed:       consumed,
		Shortfall:      shortfall,
		Class:          class,
		RequestPayload: request.Payload,
	}
	if record != nil {
		allocation.RecordID = record.ID
		allocation.RecordDate = record.PriorityDate
		allocation.RecordPayload = record.Payload
	}
	return allocation
}
