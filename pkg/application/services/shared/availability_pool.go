package shared

import (
	"fmt"
	"sort"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/vsinha/reconcile/pkg/domain/entities"
)

// AvailabilityContext holds the net position of one part
type AvailabilityContext struct {
	Supply    decimal.Decimal
	Committed decimal.Decimal
	Available decimal.Decimal
}

// AvailabilityPool is the flat balance pool: one scalar availability per canonical part.
// It is owned by a single evaluation pass and mutated only through Consume.
type AvailabilityPool map[entities.PartNumber]*AvailabilityContext

// NewAvailabilityPool creates a new empty pool
func NewAvailabilityPool() AvailabilityPool {
	return make(AvailabilityPool)
}

// BuildAvailability nets supply against committed (firm) demand.
// Supply is summed per part; committed quantities of mapped firm lines are subtracted.
// Parts that appear only in firm demand are not added to the pool and read as zero.
func BuildAvailability(supply []entities.SupplyRow, firm []entities.DemandLine) AvailabilityPool {
	pool := NewAvailabilityPool()
	for _, row := range supply {
		pn := entities.PartNumber(entities.NormalizeID(string(row.PartNumber)))
		ctx, ok := pool[pn]
		if !ok {
			ctx = &AvailabilityContext{Supply: decimal.Zero, Committed: decimal.Zero}
			pool[pn] = ctx
		}
		ctx.Supply = ctx.Supply.Add(row.Quantity)
	}

	for _, line := range firm {
		pn, mapped := line.Canonical()
		if !mapped {
			continue
		}
		if ctx, ok := pool[pn]; ok {
			ctx.Committed = ctx.Committed.Add(line.Quantity)
		}
	}

	for _, ctx := range pool {
		ctx.Available = ctx.Supply.Sub(ctx.Committed)
	}
	return pool
}

// Clone returns a deep copy so a pass can mutate without touching the base position
func (p AvailabilityPool) Clone() AvailabilityPool {
	out := make(AvailabilityPool, len(p))
	for pn, ctx := range p {
		copied := *ctx
		out[pn] = &copied
	}
	return out
}

// Availability returns the current availability of a part, zero when absent
func (p AvailabilityPool) Availability(partNumber entities.PartNumber) decimal.Decimal {
	if ctx, ok := p[partNumber]; ok {
		return ctx.Available
	}
	return decimal.Zero
}

// Consume decrements availability in place. The result may go negative.
func (p AvailabilityPool) Consume(partNumber entities.PartNumber, qty decimal.Decimal) {
	ctx, ok := p[partNumber]
	if !ok {
		ctx = &AvailabilityContext{Supply: decimal.Zero, Committed: decimal.Zero, Available: decimal.Zero}
		p[partNumber] = ctx
	}
	ctx.Available = ctx.Available.Sub(qty)
}

// Has checks whether the part has an entry in the pool
func (p AvailabilityPool) Has(partNumber entities.PartNumber) bool {
	_, exists := p[partNumber]
	return exists
}

// Size returns the number of parts in the pool
func (p AvailabilityPool) Size() int {
	return len(p)
}

// GetAllParts returns every part number in ascending order
func (p AvailabilityPool) GetAllParts() []entities.PartNumber {
	parts := make([]entities.PartNumber, 0, len(p))
	for pn := range p {
		parts = append(parts, pn)
	}
	sort.Slice(parts, func(i, j int) bool { return parts[i] < parts[j] })
	return parts
}

// TotalAvailable sums availability across all parts
func (p AvailabilityPool) TotalAvailable() decimal.Decimal {
	total := decimal.Zero
	for _, ctx := range p {
		total = total.Add(ctx.Available)
	}
	return total
}

// Snapshot returns the pool as rows sorted by part number
func (p AvailabilityPool) Snapshot() []entities.Availability {
	rows := make([]entities.Availability, 0, len(p))
	for _, pn := range p.GetAllParts() {
		ctx := p[pn]
		rows = append(rows, entities.Availability{
			PartNumber: pn,
			Supply:     ctx.Supply,
			Committed:  ctx.Committed,
			Available:  ctx.Available,
		})
	}
	return rows
}

// Negative returns the parts whose availability is below zero, sorted by part number
func (p AvailabilityPool) Negative() []entities.Availability {
	var rows []entities.Availability
	for _, row := range p.Snapshot() {
		if row.Available.IsNegative() {
			rows = append(rows, row)
		}
	}
	return rows
}

// String returns a string representation of the pool for debugging
func (p AvailabilityPool) String() string {
	if len(p) == 0 {
		return "AvailabilityPool{empty}"
	}

	var b strings.Builder
	fmt.Fprintf(&b, "AvailabilityPool{%d entries:\n", len(p))
	for _, row := range p.Snapshot() {
		fmt.Fprintf(&b, "  %s: supply=%s, committed=%s, available=%s\n",
			row.PartNumber, row.Supply, row.Committed, row.Available)
	}
	b.WriteString("}")
	return b.String()
}
