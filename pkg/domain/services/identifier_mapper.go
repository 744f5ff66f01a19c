package services

import (
	"errors"
	"fmt"
	"sort"

	"github.com/vsinha/reconcile/pkg/domain/entities"
)

// ErrMissingMapping marks an identifier that has no canonical resolution.
// It is only ever attached to diagnostics, never returned from the mapper.
var ErrMissingMapping = errors.New("identifier has no canonical mapping")

// BlankIdentifier is how an empty custom identifier is listed among the unmapped
const BlankIdentifier = "(blank)"

// IdentifierMap resolves custom identifiers to canonical part numbers.
// It is built once from the cross-reference table and never modified afterwards.
type IdentifierMap struct {
	lookup map[entities.CustomID]entities.PartNumber
}

// NewIdentifierMap builds the lookup from cross-reference rows.
// Keys and values are trimmed; a repeated custom key keeps its last canonical value.
func NewIdentifierMap(rows []entities.CrossReference) *IdentifierMap {
	lookup := make(map[entities.CustomID]entities.PartNumber, len(rows))
	for _, row := range rows {
		custom := entities.NormalizeID(string(row.Custom))
		canonical := entities.NormalizeID(string(row.Canonical))
		if custom == "" || canonical == "" {
			continue
		}
		lookup[entities.CustomID(custom)] = entities.PartNumber(canonical)
	}
	return &IdentifierMap{lookup: lookup}
}

// Resolve returns the canonical identifier for a custom identifier.
// Matching is case-sensitive after trimming whitespace.
func (m *IdentifierMap) Resolve(custom string) (entities.PartNumber, bool) {
	canonical, ok := m.lookup[entities.CustomID(entities.NormalizeID(custom))]
	return canonical, ok
}

// Size returns the number of distinct custom identifiers
func (m *IdentifierMap) Size() int {
	return len(m.lookup)
}

// MapLines resolves every line in place. Unresolved lines are left unmapped,
// recorded in the collector and reported as missing-mapping diagnostics.
func (m *IdentifierMap) MapLines(dataset string, lines []entities.DemandLine, collector *UnmappedCollector) []entities.Diagnostic {
	var diagnostics []entities.Diagnostic
	for i := range lines {
		line := &lines[i]
		canonical, ok := m.Resolve(string(line.CustomID))
		if !ok {
			line.PartNumber = ""
			line.Mapped = false
			collector.Record(line.CustomID)
			diagnostics = append(diagnostics, entities.Diagnostic{
				Kind:    entities.DiagMissingMapping,
				Dataset: dataset,
				Row:     line.Seq + 2, // header row plus one-based numbering
				Value:   string(line.CustomID),
				Message: fmt.Sprintf("%v: %s", ErrMissingMapping, label(line.CustomID)),
			})
			continue
		}
		line.PartNumber = canonical
		line.Mapped = true
	}
	return diagnostics
}

// AssumeCanonical marks lines whose identifiers are already canonical as mapped
func AssumeCanonical(lines []entities.DemandLine) {
	for i := range lines {
		lines[i].PartNumber = entities.PartNumber(entities.NormalizeID(string(lines[i].CustomID)))
		lines[i].Mapped = lines[i].PartNumber != ""
	}
}

// UnmappedCollector gathers unresolved custom identifiers of one dataset
type UnmappedCollector struct {
	seen map[entities.CustomID]struct{}
}

// NewUnmappedCollector creates an empty collector
func NewUnmappedCollector() *UnmappedCollector {
	return &UnmappedCollector{seen: make(map[entities.CustomID]struct{})}
}

// Record notes an unresolved identifier; repeats are ignored
func (c *UnmappedCollector) Record(custom entities.CustomID) {
	c.seen[entities.CustomID(label(custom))] = struct{}{}
}

func label(custom entities.CustomID) string {
	if custom == "" {
		return BlankIdentifier
	}
	return string(custom)
}

// List returns the deduplicated identifiers sorted ascending
func (c *UnmappedCollector) List() []string {
	list := make([]string, 0, len(c.seen))
	for custom := range c.seen {
		list = append(list, string(custom))
	}
	sort.Strings(list)
	return list
}

// Len returns the number of distinct unresolved identifiers
func (c *UnmappedCollector) Len() int {
	return len(c.seen)
}
