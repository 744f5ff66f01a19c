package tabular

import (
	"fmt"

	"github.com/vsinha/reconcile/pkg/domain/entities"
)

// Supply reads on-hand inventory rows. Rows without a part number are skipped.
func (r *Reader) Supply(table Table) ([]entities.SupplyRow, []entities.Diagnostic, error) {
	table.Dataset = DatasetSupply
	if err := r.check(table); err != nil {
		return nil, nil, err
	}

	var diagnostics []entities.Diagnostic
	supply := make([]entities.SupplyRow, 0, len(table.Rows))
	for _, rw := range r.rows(table) {
		if rw.blank() {
			continue
		}
		pn := entities.NormalizeID(rw.get(FieldPartNumber))
		if pn == "" {
			diagnostics = append(diagnostics, blankIdentifier(rw, FieldPartNumber, msgRowSkipped))
			continue
		}
		supply = append(supply, entities.SupplyRow{
			PartNumber: entities.PartNumber(pn),
			Quantity:   r.quantity(rw, FieldQuantity, &diagnostics),
		})
	}
	return supply, diagnostics, nil
}

// DemandLines reads order lines of the firm or new demand table.
// Rows without a group id are skipped. A line without an identifier is kept
// so that it stays in its group and fails it as unmapped.
func (r *Reader) DemandLines(table Table) ([]entities.DemandLine, []entities.Diagnostic, error) {
	if table.Dataset != DatasetFirmDemand && table.Dataset != DatasetNewDemand {
		return nil, nil, fmt.Errorf("dataset %q does not hold order lines", table.Dataset)
	}
	if err := r.check(table); err != nil {
		return nil, nil, err
	}

	var diagnostics []entities.Diagnostic
	lines := make([]entities.DemandLine, 0, len(table.Rows))
	for _, rw := range r.rows(table) {
		if rw.blank() {
			continue
		}
		groupID := rw.get(FieldGroupID)
		if groupID == "" {
			diagnostics = append(diagnostics, blankIdentifier(rw, FieldGroupID, msgRowSkipped))
			continue
		}
		qty := r.quantity(rw, FieldQuantity, &diagnostics)
		shipDate := r.date(rw, FieldShipDate, &diagnostics)
		customID := rw.get(FieldCustomID)
		if entities.NormalizeID(customID) == "" {
			diagnostics = append(diagnostics, blankIdentifier(rw, FieldCustomID, msgKeptBlank))
		}

		line, err := entities.NewDemandLine(rw.seq, groupID, customID, qty, shipDate)
		if err != nil {
			return nil, nil, fmt.Errorf("%s row %d: %w", table.Dataset, rw.number(), err)
		}
		lines = append(lines, *line)
	}
	return lines, diagnostics, nil
}

// CrossReferences reads the custom to canonical identifier table as is
func (r *Reader) CrossReferences(table Table) ([]entities.CrossReference, error) {
	table.Dataset = DatasetCrossReference
	if err := r.check(table); err != nil {
		return nil, err
	}

	xrefs := make([]entities.CrossReference, 0, len(table.Rows))
	for _, rw := range r.rows(table) {
		if rw.blank() {
			continue
		}
		xrefs = append(xrefs, entities.CrossReference{
			Custom:    entities.CustomID(rw.get(FieldCustomID)),
			Canonical: entities.PartNumber(rw.get(FieldPartNumber)),
		})
	}
	return xrefs, nil
}

// Balances reads balance records for FIFO matching. Unclaimed columns are kept as payload.
// A record without an id is named after its spreadsheet row.
func (r *Reader) Balances(table Table) ([]*entities.BalanceRecord, []entities.Diagnostic, error) {
	table.Dataset = DatasetBalances
	if err := r.check(table); err != nil {
		return nil, nil, err
	}

	var diagnostics []entities.Diagnostic
	records := make([]*entities.BalanceRecord, 0, len(table.Rows))
	for _, rw := range r.rows(table) {
		if rw.blank() {
			continue
		}
		pn := entities.NormalizeID(rw.get(FieldPartNumber))
		if pn == "" {
			diagnostics = append(diagnostics, blankIdentifier(rw, FieldPartNumber, msgRowSkipped))
			continue
		}
		id := rw.get(FieldRecordID)
		if id == "" {
			id = fmt.Sprintf("row-%d", rw.number())
		}
		qty := r.quantity(rw, FieldQuantity, &diagnostics)
		date := r.date(rw, FieldPriorityDate, &diagnostics)

		record, err := entities.NewBalanceRecord(id, rw.seq, entities.PartNumber(pn), date, qty, rw.payload())
		if err != nil {
			return nil, nil, fmt.Errorf("%s row %d: %w", table.Dataset, rw.number(), err)
		}
		records = append(records, record)
	}
	return records, diagnostics, nil
}

// Requests reads delivery requests for FIFO matching, in table order.
// Unclaimed columns are kept as payload. A request without an identifier is kept
// and ends up unmatched. A request without a reference is named after its row.
func (r *Reader) Requests(table Table) ([]entities.DemandLine, []entities.Diagnostic, error) {
	table.Dataset = DatasetRequests
	if err := r.check(table); err != nil {
		return nil, nil, err
	}

	var diagnostics []entities.Diagnostic
	requests := make([]entities.DemandLine, 0, len(table.Rows))
	for _, rw := range r.rows(table) {
		if rw.blank() {
			continue
		}
		ref := rw.get(FieldRequestRef)
		if ref == "" {
			ref = fmt.Sprintf("row-%d", rw.number())
		}
		qty := r.quantity(rw, FieldQuantity, &diagnostics)
		shipDate := r.date(rw, FieldShipDate, &diagnostics)
		customID := rw.get(FieldCustomID)
		if entities.NormalizeID(customID) == "" {
			diagnostics = append(diagnostics, blankIdentifier(rw, FieldCustomID, msgKeptBlank))
		}

		request, err := entities.NewDemandLine(rw.seq, ref, customID, qty, shipDate)
		if err != nil {
			return nil, nil, fmt.Errorf("%s row %d: %w", table.Dataset, rw.number(), err)
		}
		request.Payload = rw.payload()
		requests = append(requests, *request)
	}
	return requests, diagnostics, nil
}
