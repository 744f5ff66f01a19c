package entities

import (
	"time"

	"github.com/shopspring/decimal"
)

// GroupStatus represents the admission decision for a whole order
type GroupStatus int

const (
	GroupPass GroupStatus = iota
	GroupFail
)

// String method for GroupStatus enum
func (s GroupStatus) String() string {
	switch s {
	case GroupPass:
		return "PASS"
	case GroupFail:
		return "FAIL"
	default:
		return "Unknown"
	}
}

// MarshalText renders the status by name in JSON output
func (s GroupStatus) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// LineStatus represents the availability check outcome for one order line
type LineStatus int

const (
	LineOK LineStatus = iota
	LineInsufficient
)

// String method for LineStatus enum
func (s LineStatus) String() string {
	switch s {
	case LineOK:
		return "OK"
	case LineInsufficient:
		return "Insufficient"
	default:
		return "Unknown"
	}
}

// MarshalText renders the status by name in JSON output
func (s LineStatus) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// Notes attached to evaluated lines
const (
	NoteSufficient = "sufficient inventory, release"
	NoteUnmapped   = "no canonical mapping"
)

// GroupResult summarises the evaluation of one order
type GroupResult struct {
	GroupID          string      `json:"group_id"`
	EarliestShipDate time.Time   `json:"earliest_ship_date"`
	LineCount        int         `json:"line_count"`
	Status           GroupStatus `json:"status"`
}

// LineResult is the per-line detail of an order evaluation
type LineResult struct {
	GroupID    string          `json:"group_id"`
	ShipDate   time.Time       `json:"ship_date"`
	CustomID   CustomID        `json:"custom_id"`
	PartNumber PartNumber      `json:"part_number,omitempty"`
	Mapped     bool            `json:"mapped"`
	Quantity   decimal.Decimal `json:"quantity"`
	Note       string          `json:"note"`
	Shortfall  decimal.Decimal `json:"shortfall"`
	Status     LineStatus      `json:"status"`
	Seq        int             `json:"-"`
}

// InsufficientNote formats the diagnostic note for a line that cannot be covered
func InsufficientNote(shortfall decimal.Decimal) string {
	return "insufficient; short " + shortfall.String()
}
