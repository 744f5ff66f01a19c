package services

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// ReferenceComparator orders order and request references with numeric awareness,
// so that "SO9" sorts before "SO10" and "4500000099" before "4500000100".
type ReferenceComparator struct {
	referencePattern *regexp.Regexp
}

// NewReferenceComparator creates a new reference comparator with the default pattern
func NewReferenceComparator() *ReferenceComparator {
	// Optional alphabetic prefix followed by digits: 4500012345, SO001, PO-77
	pattern := regexp.MustCompile(`^([A-Za-z_\-]*)(\d+)$`)
	return &ReferenceComparator{
		referencePattern: pattern,
	}
}

// Compare compares two references.
// Returns: -1 if ref1 < ref2, 0 if equal, 1 if ref1 > ref2
func (rc *ReferenceComparator) Compare(ref1, ref2 string) int {
	if ref1 == ref2 {
		return 0
	}

	prefix1, num1, err1 := rc.parseReference(ref1)
	prefix2, num2, err2 := rc.parseReference(ref2)

	// If either parsing fails, fall back to string comparison
	if err1 != nil || err2 != nil {
		return strings.Compare(ref1, ref2)
	}

	if prefix1 != prefix2 {
		return strings.Compare(prefix1, prefix2)
	}

	if num1 < num2 {
		return -1
	} else if num1 > num2 {
		return 1
	}
	// Same value with different zero padding
	return strings.Compare(ref1, ref2)
}

// parseReference extracts the prefix and numeric portion from a reference
func (rc *ReferenceComparator) parseReference(ref string) (string, uint64, error) {
	matches := rc.referencePattern.FindStringSubmatch(ref)
	if len(matches) != 3 {
		return "", 0, fmt.Errorf("invalid reference format: %s", ref)
	}

	num, err := strconv.ParseUint(matches[2], 10, 64)
	if err != nil {
		return "", 0, fmt.Errorf("invalid numeric portion in reference %s: %v", ref, err)
	}

	return matches[1], num, nil
}
