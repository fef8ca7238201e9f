package db

import (
	"errors"
	"strings"

	"gorm.io/gorm"
)

// IsUniqueViolation reports whether err is a unique constraint failure from
// Postgres or sqlite. When markers are provided at least one of them must appear
// in the error text: Postgres names the constraint, sqlite lists the columns
// ("entries.owner_id, entries.entry_date").
func IsUniqueViolation(err error, markers ...string) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	unique := strings.Contains(msg, "duplicate key value") ||
		strings.Contains(msg, "SQLSTATE 23505") ||
		strings.Contains(msg, "UNIQUE constraint failed")
	if !unique {
		return false
	}
	matched, checked := false, false
	for _, marker := range markers {
		if marker == "" {
			continue
		}
		checked = true
		if strings.Contains(msg, marker) {
			matched = true
		}
	}
	return !checked || matched
}

// IsNotFound reports whether err is gorm's record-not-found sentinel.
func IsNotFound(err error) bool {
	return errors.Is(err, gorm.ErrRecordNotFound)
}
