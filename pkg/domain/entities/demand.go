package entities

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// DemandLine represents one requested quantity against one part.
// It is used both for order lines (grouped by sales order) and for delivery
// requests (grouped by request reference).
type DemandLine struct {
	Seq        int // position in the source table, used as the final tie-break
	GroupID    string
	CustomID   CustomID
	PartNumber PartNumber // canonical identifier, empty until mapped
	Mapped     bool
	Quantity   decimal.Decimal
	ShipDate   time.Time // zero value means the date is absent
	Payload    map[string]string
}

// NewDemandLine creates a DemandLine with trimmed identifiers.
// A blank custom identifier is kept; such a line can never be mapped.
func NewDemandLine(seq int, groupID string, customID string, quantity decimal.Decimal, shipDate time.Time) (*DemandLine, error) {
	group := strings.TrimSpace(groupID)
	if group == "" {
		return nil, fmt.Errorf("group id cannot be empty")
	}

	return &DemandLine{
		Seq:      seq,
		GroupID:  group,
		CustomID: CustomID(NormalizeID(customID)),
		Quantity: quantity,
		ShipDate: DateOnly(shipDate),
	}, nil
}

// HasShipDate reports whether the line carries a usable ship date
func (l DemandLine) HasShipDate() bool {
	return !l.ShipDate.IsZero()
}

// Canonical returns the canonical identifier and whether the line was mapped
func (l DemandLine) Canonical() (PartNumber, bool) {
	return l.PartNumber, l.Mapped
}

// DemandGroup is an ordered set of lines sharing one group id, evaluated atomically
type DemandGroup struct {
	GroupID string
	Lines   []DemandLine
}

// EarliestShipDate returns the minimum present ship date of the group, or zero when none is present
func (g DemandGroup) EarliestShipDate() time.Time {
	var earliest time.Time
	for _, line := range g.Lines {
		if !line.HasShipDate() {
			continue
		}
		if earliest.IsZero() || line.ShipDate.Before(earliest) {
			earliest = line.ShipDate
		}
	}
	return earliest
}

// TotalQuantity sums the requested quantity of every line in the group
func (g DemandGroup) TotalQuantity() decimal.Decimal {
	total := decimal.Zero
	for _, line := range g.Lines {
		total = total.Add(line.Quantity)
	}
	return total
}

// Shortage represents unfulfilled demand aggregated per part
type Shortage struct {
	PartNumber PartNumber      `json:"part_number"`
	NeededQty  decimal.Decimal `json:"needed_qty"`
}

// PastDueLine is a demand line whose ship date precedes the evaluation date
type PastDueLine struct {
	GroupID    string          `json:"group_id"`
	ShipDate   time.Time       `json:"ship_date"`
	CustomID   CustomID        `json:"custom_id"`
	PartNumber PartNumber      `json:"part_number,omitempty"`
	Quantity   decimal.Decimal `json:"quantity"`
	Note       string          `json:"note"`
	Status     LineStatus      `json:"status"`
	Shortfall  decimal.Decimal `json:"shortfall"`
}
