package entities

import "fmt"

// DiagnosticKind names a soft error that was handled with a fallback
type DiagnosticKind string

const (
	DiagMissingMapping    DiagnosticKind = "missing-mapping"
	DiagMalformedQuantity DiagnosticKind = "malformed-quantity"
	DiagMalformedDate     DiagnosticKind = "malformed-date"
	DiagBlankIdentifier   DiagnosticKind = "blank-identifier"
)

// Diagnostic records a soft error. It never aborts processing.
type Diagnostic struct {
	Kind    DiagnosticKind `json:"kind"`
	Dataset string         `json:"dataset"`
	Row     int            `json:"row"`
	Column  string         `json:"column,omitempty"`
	Value   string         `json:"value,omitempty"`
	Message string         `json:"message"`
}

func (d Diagnostic) String() string {
	if d.Column == "" {
		return fmt.Sprintf("%s row %d: %s", d.Dataset, d.Row, d.Message)
	}
	return fmt.Sprintf("%s row %d column %q: %s (%q)", d.Dataset, d.Row, d.Column, d.Message, d.Value)
}

// Dataset names used in diagnostics and reports
const (
	DatasetSupply         = "supply"
	DatasetFirmDemand     = "firm_demand"
	DatasetNewDemand      = "new_demand"
	DatasetCrossReference = "cross_reference"
	DatasetBalances       = "balances"
	DatasetRequests       = "requests"
)
