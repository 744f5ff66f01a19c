package entities

import (
	"strings"
	"time"
)

// PartNumber represents a canonical (non-custom) part identifier used for inventory bookkeeping
type PartNumber string

// CustomID represents a source-system specific part identifier that must be cross-referenced
type CustomID string

// NormalizeID trims surrounding whitespace from a raw identifier cell
func NormalizeID(raw string) string {
	return strings.TrimSpace(raw)
}

// CrossReference is one row of the custom to canonical identifier table
type CrossReference struct {
	Custom    CustomID
	Canonical PartNumber
}

// DateOnly truncates a timestamp to its calendar day in UTC.
// The zero time stays zero so absent dates remain absent.
func DateOnly(t time.Time) time.Time {
	if t.IsZero() {
		return t
	}
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// CompareDates orders two optional dates by calendar day with absent dates last
func CompareDates(a, b time.Time) int {
	switch {
	case a.IsZero() && b.IsZero():
		return 0
	case a.IsZero():
		return 1
	case b.IsZero():
		return -1
	}
	a, b = DateOnly(a), DateOnly(b)
	switch {
	case a.Before(b):
		return -1
	case a.After(b):
		return 1
	default:
		return 0
	}
}
