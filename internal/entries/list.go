package entries

import (
	"strings"

	"github.com/google/uuid"

	"github.com/angelmondragon/entrydesk-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/entrydesk-backend/pkg/errors"
	"github.com/angelmondragon/entrydesk-backend/pkg/pagination"
)

// Ordering is the sort applied to entry lists.
type Ordering string

const (
	OrderNewestFirst Ordering = "-created_at"
	OrderOldestFirst Ordering = "created_at"
)

// ParseOrdering accepts "created_at" or "-created_at"; empty means newest first.
func ParseOrdering(value string) (Ordering, error) {
	switch Ordering(strings.TrimSpace(value)) {
	case "", OrderNewestFirst:
		return OrderNewestFirst, nil
	case OrderOldestFirst:
		return OrderOldestFirst, nil
	default:
		return "", pkgerrors.New(pkgerrors.CodeValidation, "ordering must be created_at or -created_at")
	}
}

// ListFilters narrow a scoped entry list. They never widen the caller's scope.
type ListFilters struct {
	Status   *enums.EntryStatus
	Category *enums.EntryCategory
	Search   string
	OwnerID  *uuid.UUID
	Ordering Ordering
}

// ListEntriesInput bundles filters and cursor pagination.
type ListEntriesInput struct {
	Filters    ListFilters
	Pagination pagination.Params
}

// escapeLike makes user search text literal inside a LIKE pattern.
func escapeLike(value string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return r.Replace(value)
}
