package dto

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/vsinha/reconcile/pkg/domain/entities"
)

// ReconcileInput carries the validated tables of one reconciliation run
type ReconcileInput struct {
	Supply          []entities.SupplyRow
	FirmDemand      []entities.DemandLine
	NewDemand       []entities.DemandLine
	CrossReferences []entities.CrossReference
	Today           time.Time
	Diagnostics     []entities.Diagnostic // soft errors raised while loading
}

// EvaluationResult is the output of one pass of the order evaluator
type EvaluationResult struct {
	Groups    []entities.GroupResult
	Lines     []entities.LineResult
	FinalPool []entities.Availability
	Accepted  int
	Rejected  int
}

// UnmappedAlerts lists custom identifiers without a canonical mapping, per dataset
type UnmappedAlerts struct {
	NewDemand  []string `json:"new_demand"`
	FirmDemand []string `json:"firm_demand"`
}

// ReconciliationResult contains the complete output of a reconciliation run
type ReconciliationResult struct {
	RunID             string                  `json:"run_id"`
	Today             time.Time               `json:"today"`
	Groups            []entities.GroupResult  `json:"groups"`
	Lines             []entities.LineResult   `json:"lines"`
	BaseAvailability  []entities.Availability `json:"base_availability"`
	FinalAvailability []entities.Availability `json:"final_availability"`
	Shortages         []entities.Shortage     `json:"shortages"`
	PastDueNewDemand  []entities.PastDueLine  `json:"past_due_new_demand"`
	PastDueFirmDemand []entities.PastDueLine  `json:"past_due_firm_demand"`
	Unmapped          UnmappedAlerts          `json:"unmapped"`
	Diagnostics       []entities.Diagnostic   `json:"diagnostics"`
}

// MatchInput carries the validated tables of one FIFO matching run.
// CrossReferences is optional; without it request identifiers are taken as canonical.
type MatchInput struct {
	Balances        []*entities.BalanceRecord
	Requests        []entities.DemandLine
	CrossReferences []entities.CrossReference
	Diagnostics     []entities.Diagnostic
}

// MatchSummary aggregates allocation rows by classification
type MatchSummary struct {
	Requests       int             `json:"requests"`
	Matched        int             `json:"matched"`
	Split          int             `json:"split"`
	UnmatchedParts int             `json:"unmatched_partial"`
	NoMatch        int             `json:"no_match"`
	TotalRequested decimal.Decimal `json:"total_requested"`
	TotalConsumed  decimal.Decimal `json:"total_consumed"`
	TotalShortfall decimal.Decimal `json:"total_shortfall"`
}

// MatchingResult contains the complete output of a FIFO matching run
type MatchingResult struct {
	RunID       string                   `json:"run_id"`
	Allocations []entities.Allocation    `json:"allocations"`
	Balances    []entities.BalanceRecord `json:"balances"`
	Summary     MatchSummary             `json:"summary"`
	Unmapped    []string                 `json:"unmapped"`
	Diagnostics []entities.Diagnostic    `json:"diagnostics"`
}
