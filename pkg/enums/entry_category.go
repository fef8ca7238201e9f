package enums

import (
	"fmt"
	"strings"
)

type EntryCategory string

const (
	EntryCategoryPersonal  EntryCategory = "PERSONAL"
	EntryCategoryWork      EntryCategory = "WORK"
	EntryCategoryEducation EntryCategory = "EDUCATION"
)

// DefaultEntryCategory applies when a submission omits the category.
const DefaultEntryCategory = EntryCategoryPersonal

var validEntryCategories = []EntryCategory{
	EntryCategoryPersonal,
	EntryCategoryWork,
	EntryCategoryEducation,
}

func (c EntryCategory) String() string {
	return string(c)
}

func (c EntryCategory) IsValid() bool {
	for _, candidate := range validEntryCategories {
		if candidate == c {
			return true
		}
	}
	return false
}

// ParseEntryCategory converts raw input into an EntryCategory. Matching ignores case.
func ParseEntryCategory(value string) (EntryCategory, error) {
	normalized := strings.ToUpper(strings.TrimSpace(value))
	for _, candidate := range validEntryCategories {
		if string(candidate) == normalized {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid entry category %q", value)
}
