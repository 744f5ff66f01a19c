package reporting

import (
	"sort"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/vsinha/reconcile/pkg/application/dto"
	"github.com/vsinha/reconcile/pkg/application/services/shared"
	"github.com/vsinha/reconcile/pkg/domain/entities"
	"github.com/vsinha/reconcile/pkg/domain/services"
)

// BuildShortages merges the shortfall of lines in rejected orders with parts
// whose base availability was already negative. Quantities are summed per part,
// zero and negative totals dropped, largest first.
func BuildShortages(groups []entities.GroupResult, lines []entities.LineResult, base []entities.Availability) []entities.Shortage {
	failed := make(map[string]bool)
	for _, g := range groups {
		if g.Status == entities.GroupFail {
			failed[g.GroupID] = true
		}
	}

	needed := make(map[entities.PartNumber]decimal.Decimal)
	for _, l := range lines {
		if !failed[l.GroupID] || !l.Mapped || !l.Shortfall.IsPositive() {
			continue
		}
		needed[l.PartNumber] = needed[l.PartNumber].Add(l.Shortfall)
	}
	for _, row := range base {
		if row.Available.IsNegative() {
			needed[row.PartNumber] = needed[row.PartNumber].Add(row.Available.Abs())
		}
	}

	shortages := make([]entities.Shortage, 0, len(needed))
	for pn, q := range needed {
		if q.IsPositive() {
			shortages = append(shortages, entities.Shortage{PartNumber: pn, NeededQty: q})
		}
	}
	sort.Slice(shortages, func(i, j int) bool {
		if c := shortages[i].NeededQty.Cmp(shortages[j].NeededQty); c != 0 {
			return c > 0
		}
		return shortages[i].PartNumber < shortages[j].PartNumber
	})
	return shortages
}

// IsPastDue reports whether a ship date is present and strictly before today's calendar day
func IsPastDue(shipDate, today time.Time) bool {
	if shipDate.IsZero() {
		return false
	}
	return entities.DateOnly(shipDate).Before(entities.DateOnly(today))
}

// PastDueNewDemand filters evaluated lines shipping before today
func PastDueNewDemand(lines []entities.LineResult, today time.Time) []entities.PastDueLine {
	var out []entities.PastDueLine
	for _, l := range lines {
		if !IsPastDue(l.ShipDate, today) {
			continue
		}
		out = append(out, entities.PastDueLine{
			GroupID:    l.GroupID,
			ShipDate:   l.ShipDate,
			CustomID:   l.CustomID,
			PartNumber: l.PartNumber,
			Quantity:   l.Quantity,
			Note:       l.Note,
			Status:     l.Status,
			Shortfall:  l.Shortfall,
		})
	}
	sortPastDue(out)
	return out
}

// PastDueFirmDemand filters firm demand shipping before today and re-derives its
// status from the base availability of its part (absent parts read as zero).
func PastDueFirmDemand(firm []entities.DemandLine, base shared.AvailabilityPool, today time.Time) []entities.PastDueLine {
	var out []entities.PastDueLine
	for _, l := range firm {
		if !IsPastDue(l.ShipDate, today) {
			continue
		}

		available := decimal.Zero
		if pn, mapped := l.Canonical(); mapped {
			available = base.Availability(pn)
		}

		row := entities.PastDueLine{
			GroupID:    l.GroupID,
			ShipDate:   l.ShipDate,
			CustomID:   l.CustomID,
			PartNumber: l.PartNumber,
			Quantity:   l.Quantity,
			Note:       entities.NoteSufficient,
			Status:     entities.LineOK,
			Shortfall:  decimal.Zero,
		}
		if available.IsNegative() {
			row.Shortfall = available.Abs()
			row.Note = entities.InsufficientNote(row.Shortfall)
			row.Status = entities.LineInsufficient
		}
		out = append(out, row)
	}
	sortPastDue(out)
	return out
}

// Summarize aggregates allocations by classification.
// Rows of one request are contiguous; a request ends on a change of RequestSeq
// or after a matched, no-match or unmatched-partial row.
func Summarize(allocations []entities.Allocation) dto.MatchSummary {
	summary := dto.MatchSummary{
		TotalRequested: decimal.Zero,
		TotalConsumed:  decimal.Zero,
		TotalShortfall: decimal.Zero,
	}

	for i, a := range allocations {
		if i == 0 || startsRequest(allocations[i-1], a) {
			summary.Requests++
			summary.TotalRequested = summary.TotalRequested.Add(a.Requested)
		}
		summary.TotalConsumed = summary.TotalConsumed.Add(a.Consumed)
		summary.TotalShortfall = summary.TotalShortfall.Add(a.Shortfall)

		switch a.Class {
		case entities.Matched:
			summary.Matched++
		case entities.Split:
			summary.Split++
		case entities.UnmatchedPartial:
			summary.UnmatchedParts++
		case entities.NoMatch:
			summary.NoMatch++
		}
	}
	return summary
}

func startsRequest(prev, a entities.Allocation) bool {
	return prev.RequestSeq != a.RequestSeq || prev.Class != entities.Split
}

var referenceComparator = services.NewReferenceComparator()

func sortPastDue(rows []entities.PastDueLine) {
	sort.SliceStable(rows, func(i, j int) bool {
		if c := entities.CompareDates(rows[i].ShipDate, rows[j].ShipDate); c != 0 {
			return c < 0
		}
		if c := referenceComparator.Compare(rows[i].GroupID, rows[j].GroupID); c != 0 {
			return c < 0
		}
		return strings.Compare(string(rows[i].CustomID), string(rows[j].CustomID)) < 0
	})
}
