package entities

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// SupplyRow is one row of on-hand inventory keyed by canonical identifier
type SupplyRow struct {
	PartNumber PartNumber
	Quantity   decimal.Decimal
}

// Availability is the net position of one part: supply minus committed demand.
// Available may be negative when the part is oversold before any new evaluation.
type Availability struct {
	PartNumber PartNumber      `json:"part_number"`
	Supply     decimal.Decimal `json:"supply"`
	Committed  decimal.Decimal `json:"committed"`
	Available  decimal.Decimal `json:"available"`
}

// BalanceRecord represents one unit of available supply for FIFO matching
type BalanceRecord struct {
	ID           string            `json:"id"`
	Seq          int               `json:"-"`
	PartNumber   PartNumber        `json:"part_number"`
	PriorityDate time.Time         `json:"priority_date"`
	Original     decimal.Decimal   `json:"original"`
	Remaining    decimal.Decimal   `json:"remaining"`
	Payload      map[string]string `json:"payload,omitempty"`
}

// NewBalanceRecord creates a validated BalanceRecord
func NewBalanceRecord(id string, seq int, partNumber PartNumber, priorityDate time.Time, quantity decimal.Decimal, payload map[string]string) (*BalanceRecord, error) {
	if string(partNumber) == "" {
		return nil, fmt.Errorf("part number cannot be empty")
	}
	if id == "" {
		return nil, fmt.Errorf("record id cannot be empty")
	}

	return &BalanceRecord{
		ID:           id,
		Seq:          seq,
		PartNumber:   partNumber,
		PriorityDate: DateOnly(priorityDate),
		Original:     quantity,
		Remaining:    quantity,
		Payload:      payload,
	}, nil
}

// Consume decrements the remaining quantity in place
func (b *BalanceRecord) Consume(qty decimal.Decimal) error {
	if qty.IsNegative() {
		return fmt.Errorf("consumed quantity cannot be negative, got %s", qty)
	}
	if qty.GreaterThan(b.Remaining) {
		return fmt.Errorf("record %s has %s remaining, cannot consume %s", b.ID, b.Remaining, qty)
	}
	b.Remaining = b.Remaining.Sub(qty)
	return nil
}

// Consumed returns how much of the record has been allocated so far
func (b *BalanceRecord) Consumed() decimal.Decimal {
	return b.Original.Sub(b.Remaining)
}

// MatchClass classifies how a request fragment was satisfied
type MatchClass int

const (
	Matched MatchClass = iota
	Split
	UnmatchedPartial
	NoMatch
)

// String method for MatchClass enum
func (c MatchClass) String() string {
	switch c {
	case Matched:
		return "matched"
	case Split:
		return "split"
	case UnmatchedPartial:
		return "unmatched-partial"
	case NoMatch:
		return "no-match"
	default:
		return "unknown"
	}
}

// MarshalText renders the class by name in JSON output
func (c MatchClass) MarshalText() ([]byte, error) {
	return []byte(c.String()), nil
}

// Allocation is one output row of FIFO matching; a request produces one or more
type Allocation struct {
	RequestRef     string            `json:"request_ref"`
	RequestSeq     int               `json:"request_seq"` // position of the request in the allocated stream
	CustomID       CustomID          `json:"custom_id"`
	PartNumber     PartNumber        `json:"part_number,omitempty"`
	Requested      decimal.Decimal   `json:"requested"`
	Consumed       decimal.Decimal   `json:"consumed"`
	Shortfall      decimal.Decimal   `json:"shortfall"`
	Class          MatchClass        `json:"class"`
	RecordID       string            `json:"record_id,omitempty"`
	RecordDate     time.Time         `json:"record_date,omitempty"`
	RecordPayload  map[string]string `json:"record_payload,omitempty"`
	RequestPayload map[string]string `json:"request_payload,omitempty"`
}
