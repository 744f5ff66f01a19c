package events

import (
	"github.com/shopspring/decimal"

	"github.com/vsinha/reconcile/pkg/domain/entities"
)

const (
	RunStartedEvent   = "run.started"
	RunCompletedEvent = "run.completed"
	RunFailedEvent    = "run.failed"

	OrderEvaluatedEvent = "order.evaluated"

	AllocationRecordedEvent = "allocation.recorded"

	ShortageIdentifiedEvent = "shortage.identified"

	MappingMissingEvent = "mapping.missing"
)

type RunStarted struct {
	Engine string `json:"engine"`
	Lines  int    `json:"lines"`
}

type RunCompleted struct {
	Engine    string `json:"engine"`
	Accepted  int    `json:"accepted,omitempty"`
	Rejected  int    `json:"rejected,omitempty"`
	Rows      int    `json:"rows"`
	Shortages int    `json:"shortages,omitempty"`
}

type RunFailed struct {
	Engine string `json:"engine"`
	Reason string `json:"reason"`
}

type OrderEvaluated struct {
	Group entities.GroupResult `json:"group"`
}

type AllocationRecorded struct {
	Allocation entities.Allocation `json:"allocation"`
}

type ShortageIdentified struct {
	PartNumber entities.PartNumber `json:"part_number"`
	NeededQty  decimal.Decimal     `json:"needed_qty"`
}

type MappingMissing struct {
	Dataset  string   `json:"dataset"`
	CustomID []string `json:"custom_ids"`
}
