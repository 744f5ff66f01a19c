package reconciliation

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/vsinha/reconcile/pkg/application/dto"
	"github.com/vsinha/reconcile/pkg/application/services/shared"
	"github.com/vsinha/reconcile/pkg/domain/entities"
	"github.com/vsinha/reconcile/pkg/domain/services"
)

// ErrInputTooLarge is returned before evaluation when the input exceeds the configured limits
var ErrInputTooLarge = errors.New("input exceeds configured limits")

// Limits bounds the size of one evaluation pass. Zero means unlimited.
type Limits struct {
	MaxGroups int
	MaxLines  int
}

// Evaluator admits multi-line orders against a flat availability pool.
// An order passes only if every line can be covered; the pool is decremented
// only for passing orders, after all of their lines have been checked.
type Evaluator struct {
	comparator *services.ReferenceComparator
	limits     Limits
}

// NewEvaluator creates a new order evaluator
func NewEvaluator(limits Limits) *Evaluator {
	return &Evaluator{
		comparator: services.NewReferenceComparator(),
		limits:     limits,
	}
}

// lineCheck is the phase-one verdict for one line
type lineCheck struct {
	line      entities.DemandLine
	ok        bool
	shortfall decimal.Decimal
	note      string
}

// Evaluate runs one full pass over the lines, mutating pool in place.
// The pool must be exclusively owned by this call for its duration.
func (e *Evaluator) Evaluate(ctx context.Context, lines []entities.DemandLine, pool shared.AvailabilityPool) (*dto.EvaluationResult, error) {
	if e.limits.MaxLines > 0 && len(lines) > e.limits.MaxLines {
		return nil, fmt.Errorf("%w: %d lines, limit %d", ErrInputTooLarge, len(lines), e.limits.MaxLines)
	}

	groups := e.GroupLines(lines)
	if e.limits.MaxGroups > 0 && len(groups) > e.limits.MaxGroups {
		return nil, fmt.Errorf("%w: %d groups, limit %d", ErrInputTooLarge, len(groups), e.limits.MaxGroups)
	}

	result := &dto.EvaluationResult{
		Groups: make([]entities.GroupResult, 0, len(groups)),
		Lines:  make([]entities.LineResult, 0, len(lines)),
	}

	for _, group := range groups {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		checks, groupOK := e.checkGroup(group, pool)

		if groupOK {
			for _, check := range checks {
				pool.Consume(check.line.PartNumber, check.line.Quantity)
			}
			result.Accepted++
		} else {
			result.Rejected++
		}

		status := entities.GroupFail
		if groupOK {
			status = entities.GroupPass
		}
		result.Groups = append(result.Groups, entities.GroupResult{
			GroupID:          group.GroupID,
			EarliestShipDate: group.EarliestShipDate(),
			LineCount:        len(group.Lines),
			Status:           status,
		})

		for _, check := range checks {
			lineStatus := entities.LineInsufficient
			if check.ok {
				lineStatus = entities.LineOK
			}
			result.Lines = append(result.Lines, entities.LineResult{
				GroupID:    check.line.GroupID,
				ShipDate:   check.line.ShipDate,
				CustomID:   check.line.CustomID,
				PartNumber: check.line.PartNumber,
				Mapped:     check.line.Mapped,
				Quantity:   check.line.Quantity,
				Note:       check.note,
				Shortfall:  check.shortfall,
				Status:     lineStatus,
				Seq:        check.line.Seq,
			})
		}
	}

	// Line detail is reported in (ship date, group, identifier) order across groups
	sort.SliceStable(result.Lines, func(i, j int) bool {
		a, b := result.Lines[i], result.Lines[j]
		return e.lineKeyLess(a.ShipDate, a.GroupID, a.CustomID, b.ShipDate, b.GroupID, b.CustomID)
	})

	result.FinalPool = pool.Snapshot()
	return result, nil
}

// checkGroup evaluates every line of the group against the pool without mutating it
func (e *Evaluator) checkGroup(group entities.DemandGroup, pool shared.AvailabilityPool) ([]lineCheck, bool) {
	checks := make([]lineCheck, 0, len(group.Lines))
	groupOK := true

	for _, line := range group.Lines {
		pn, mapped := line.Canonical()
		if !mapped {
			checks = append(checks, lineCheck{
				line:      line,
				ok:        false,
				shortfall: decimal.Max(decimal.Zero, line.Quantity),
				note:      entities.NoteUnmapped,
			})
			groupOK = false
			continue
		}

		available := pool.Availability(pn)
		if available.GreaterThanOrEqual(line.Quantity) {
			checks = append(checks, lineCheck{
				line:      line,
				ok:        true,
				shortfall: decimal.Zero,
				note:      entities.NoteSufficient,
			})
			continue
		}

		shortfall := decimal.Max(decimal.Zero, line.Quantity.Sub(available))
		checks = append(checks, lineCheck{
			line:      line,
			ok:        false,
			shortfall: shortfall,
			note:      entities.InsufficientNote(shortfall),
		})
		groupOK = false
	}

	return checks, groupOK
}

// GroupLines builds groups in evaluation order. Lines are stable sorted by
// (ship date, group id, identifier); groups by (earliest ship date, group id).
// Absent dates sort last; remaining ties keep input order.
func (e *Evaluator) GroupLines(lines []entities.DemandLine) []entities.DemandGroup {
	sorted := make([]entities.DemandLine, len(lines))
	copy(sorted, lines)
	sort.SliceStable(sorted, func(i, j int) bool {
		a, b := sorted[i], sorted[j]
		return e.lineKeyLess(a.ShipDate, a.GroupID, a.CustomID, b.ShipDate, b.GroupID, b.CustomID)
	})

	index := make(map[string]int)
	var groups []entities.DemandGroup
	for _, line := range sorted {
		pos, ok := index[line.GroupID]
		if !ok {
			pos = len(groups)
			index[line.GroupID] = pos
			groups = append(groups, entities.DemandGroup{GroupID: line.GroupID})
		}
		groups[pos].Lines = append(groups[pos].Lines, line)
	}

	sort.SliceStable(groups, func(i, j int) bool {
		if c := entities.CompareDates(groups[i].EarliestShipDate(), groups[j].EarliestShipDate()); c != 0 {
			return c < 0
		}
		return e.comparator.Compare(groups[i].GroupID, groups[j].GroupID) < 0
	})

	return groups
}

func (e *Evaluator) lineKeyLess(dateA time.Time, groupA string, idA entities.CustomID, dateB time.Time, groupB string, idB entities.CustomID) bool {
	if c := entities.CompareDates(dateA, dateB); c != 0 {
		return c < 0
	}
	if c := e.comparator.Compare(groupA, groupB); c != 0 {
		return c < 0
	}
	return strings.Compare(string(idA), string(idB)) < 0
}
