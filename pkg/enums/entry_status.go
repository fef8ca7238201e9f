package enums

import (
	"fmt"
	"strings"
)

// EntryStatus is the review state of an entry. APPROVED and REJECTED are terminal.
type EntryStatus string

const (
	EntryStatusPending  EntryStatus = "PENDING"
	EntryStatusApproved EntryStatus = "APPROVED"
	EntryStatusRejected EntryStatus = "REJECTED"
)

var validEntryStatuses = []EntryStatus{
	EntryStatusPending,
	EntryStatusApproved,
	EntryStatusRejected,
}

// String implements fmt.Stringer.
func (s EntryStatus) String() string {
	return string(s)
}

// IsValid reports whether the value is a known EntryStatus.
func (s EntryStatus) IsValid() bool {
	for _, candidate := range validEntryStatuses {
		if candidate == s {
			return true
		}
	}
	return false
}

// IsTerminal reports whether no further transition is allowed.
func (s EntryStatus) IsTerminal() bool {
	return s == EntryStatusApproved || s == EntryStatusRejected
}

// ParseEntryStatus converts raw input into an EntryStatus. Matching ignores case.
func ParseEntryStatus(value string) (EntryStatus, error) {
	normalized := strings.ToUpper(strings.TrimSpace(value))
	for _, candidate := range validEntryStatuses {
		if string(candidate) == normalized {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid entry status %q", value)
}
