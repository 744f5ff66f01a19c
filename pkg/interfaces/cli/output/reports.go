package output

import (
	"sort"
	"strconv"
	"time"

	"github.com/shopspring/decimal"

	"github.com/vsinha/reconcile/pkg/application/dto"
	"github.com/vsinha/reconcile/pkg/domain/entities"
)

const dateLayout = "2006-01-02"

// Report is one rendered table: a workbook sheet, a CSV file or a text section
type Report struct {
	Name    string
	File    string
	Header  []string
	Numeric []bool // per column, written as numbers where the format allows
	Rows    [][]string
}

func newReport(name, file string, columns ...column) Report {
	report := Report{Name: name, File: file}
	for _, c := range columns {
		report.Header = append(report.Header, c.name)
		report.Numeric = append(report.Numeric, c.numeric)
	}
	return report
}

type column struct {
	name    string
	numeric bool
}

func text(name string) column { return column{name: name} }

func number(name string) column { return column{name: name, numeric: true} }

func formatDate(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(dateLayout)
}

// ReconciliationReports renders every table of a reconciliation run in export order
func ReconciliationReports(result *dto.ReconciliationResult) []Report {
	orders := newReport("Order Summary", "order_summary.csv",
		text("Sales Order"), text("Est. Ship min"), number("Lines"), text("Status"))
	for _, g := range result.Groups {
		orders.Rows = append(orders.Rows, []string{
			g.GroupID, formatDate(g.EarliestShipDate), strconv.Itoa(g.LineCount), g.Status.String(),
		})
	}

	lines := newReport("Line Detail", "line_detail.csv",
		text("Sales Order"), text("Est. Ship"), text("Custom"), text("Non Custom"),
		number("Qty"), text("Note"), text("Line Result"), number("Shortage"))
	for _, l := range result.Lines {
		lines.Rows = append(lines.Rows, []string{
			l.GroupID, formatDate(l.ShipDate), string(l.CustomID), string(l.PartNumber),
			l.Quantity.String(), l.Note, l.Status.String(), l.Shortfall.String(),
		})
	}

	needed := newReport("Inventory Needed", "inventory_needed.csv",
		text("Non Custom"), number("Needed Qty"))
	for _, s := range result.Shortages {
		needed.Rows = append(needed.Rows, []string{string(s.PartNumber), s.NeededQty.String()})
	}

	availability := newReport("Availability", "availability.csv",
		text("Non Custom"), number("Supply"), number("Committed"), number("Available"), number("Available After Approvals"))
	final := make(map[entities.PartNumber]decimal.Decimal, len(result.FinalAvailability))
	for _, a := range result.FinalAvailability {
		final[a.PartNumber] = a.Available
	}
	for _, a := range result.BaseAvailability {
		availability.Rows = append(availability.Rows, []string{
			string(a.PartNumber), a.Supply.String(), a.Committed.String(), a.Available.String(), final[a.PartNumber].String(),
		})
	}

	return []Report{
		orders,
		lines,
		needed,
		pastDueReport("Past Due New Demand", "past_due_new_demand.csv", result.PastDueNewDemand),
		pastDueReport("Past Due Firm Demand", "past_due_firm_demand.csv", result.PastDueFirmDemand),
		availability,
		mappingAlerts(map[string][]string{
			entities.DatasetNewDemand:  result.Unmapped.NewDemand,
			entities.DatasetFirmDemand: result.Unmapped.FirmDemand,
		}),
		diagnosticsReport(result.Diagnostics),
	}
}

// MatchingReports renders every table of a FIFO matching run in export order
func MatchingReports(result *dto.MatchingResult) []Report {
	return []Report{
		allocationsReport(result.Allocations),
		balancesReport(result.Balances),
		mappingAlerts(map[string][]string{entities.DatasetRequests: result.Unmapped}),
		diagnosticsReport(result.Diagnostics),
	}
}

func pastDueReport(name, file string, rows []entities.PastDueLine) Report {
	report := newReport(name, file,
		text("Sales Order"), text("Est. Ship"), text("Custom"), text("Non Custom"),
		number("Qty"), text("Note"), text("Line Result"), number("Shortage"))
	for _, r := range rows {
		report.Rows = append(report.Rows, []string{
			r.GroupID, formatDate(r.ShipDate), string(r.CustomID), string(r.PartNumber),
			r.Quantity.String(), r.Note, r.Status.String(), r.Shortfall.String(),
		})
	}
	return report
}

func mappingAlerts(unmapped map[string][]string) Report {
	report := newReport("Mapping Alerts", "mapping_alerts.csv", text("Dataset"), text("Custom"))
	datasets := make([]string, 0, len(unmapped))
	for dataset := range unmapped {
		datasets = append(datasets, dataset)
	}
	sort.Strings(datasets)
	for _, dataset := range datasets {
		for _, id := range unmapped[dataset] {
			report.Rows = append(report.Rows, []string{dataset, id})
		}
	}
	return report
}

func diagnosticsReport(diagnostics []entities.Diagnostic) Report {
	report := newReport("Diagnostics", "diagnostics.csv",
		text("Kind"), text("Dataset"), number("Row"), text("Column"), text("Value"), text("Message"))
	for _, d := range diagnostics {
		report.Rows = append(report.Rows, []string{
			string(d.Kind), d.Dataset, strconv.Itoa(d.Row), d.Column, d.Value, d.Message,
		})
	}
	return report
}

func allocationsReport(allocations []entities.Allocation) Report {
	requestKeys := payloadKeys(len(allocations), func(i int) map[string]string { return allocations[i].RequestPayload })
	recordKeys := payloadKeys(len(allocations), func(i int) map[string]string { return allocations[i].RecordPayload })

	columns := []column{
		text("Request"), text("Custom"), text("Non Custom"), number("Requested"),
		number("Consumed"), number("Shortfall"), text("Match"), text("Record"), text("Record Date"),
	}
	taken := make(map[string]bool)
	for _, c := range columns {
		taken[c.name] = true
	}
	columns = append(columns, payloadColumns(requestKeys, "", taken)...)
	columns = append(columns, payloadColumns(recordKeys, "Record ", taken)...)

	report := newReport("Allocations", "allocations.csv", columns...)
	for _, a := range allocations {
		row := []string{
			a.RequestRef, string(a.CustomID), string(a.PartNumber), a.Requested.String(),
			a.Consumed.String(), a.Shortfall.String(), a.Class.String(), a.RecordID, formatDate(a.RecordDate),
		}
		for _, key := range requestKeys {
			row = append(row, a.RequestPayload[key])
		}
		for _, key := range recordKeys {
			row = append(row, a.RecordPayload[key])
		}
		report.Rows = append(report.Rows, row)
	}
	return report
}

func balancesReport(records []entities.BalanceRecord) Report {
	keys := payloadKeys(len(records), func(i int) map[string]string { return records[i].Payload })

	columns := []column{
		text("Record"), text("Non Custom"), text("Priority Date"),
		number("Original"), number("Consumed"), number("Remaining"),
	}
	taken := make(map[string]bool)
	for _, c := range columns {
		taken[c.name] = true
	}
	columns = append(columns, payloadColumns(keys, "", taken)...)

	report := newReport("Balances", "balances.csv", columns...)
	for _, r := range records {
		row := []string{
			r.ID, string(r.PartNumber), formatDate(r.PriorityDate),
			r.Original.String(), r.Consumed().String(), r.Remaining.String(),
		}
		for _, key := range keys {
			row = append(row, r.Payload[key])
		}
		report.Rows = append(report.Rows, row)
	}
	return report
}

// payloadKeys collects the sorted union of payload keys
func payloadKeys(n int, payload func(i int) map[string]string) []string {
	seen := make(map[string]bool)
	var keys []string
	for i := 0; i < n; i++ {
		for key := range payload(i) {
			if !seen[key] {
				seen[key] = true
				keys = append(keys, key)
			}
		}
	}
	sort.Strings(keys)
	return keys
}

// payloadColumns names passthrough columns, prefixing any that clash with an existing column
func payloadColumns(keys []string, prefix string, taken map[string]bool) []column {
	columns := make([]column, 0, len(keys))
	for _, key := range keys {
		name := prefix + key
		if prefix == "" && taken[name] {
			name = "Payload " + key
		}
		for taken[name] {
			name += "_"
		}
		taken[name] = true
		columns = append(columns, text(name))
	}
	return columns
}
