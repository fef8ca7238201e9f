package visibility

import (
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/entrydesk-backend/pkg/db/models"
	"github.com/angelmondragon/entrydesk-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/entrydesk-backend/pkg/errors"
)

// EntryScope is the set of entries a principal may read. A nil OwnerID means all entries.
type EntryScope struct {
	OwnerID *uuid.UUID
}

// ScopeFor derives the read scope from the caller's identity.
// Administrators see everything; everyone else only what they own.
func ScopeFor(principalID uuid.UUID, role enums.UserRole) EntryScope {
	if role.IsAdmin() {
		return EntryScope{}
	}
	id := principalID
	return EntryScope{OwnerID: &id}
}

// Unrestricted reports whether the scope covers every entry.
func (s EntryScope) Unrestricted() bool {
	return s.OwnerID == nil
}

// Contains reports whether the entry falls inside the scope.
func (s EntryScope) Contains(entry *models.Entry) bool {
	if entry == nil {
		return false
	}
	return s.Unrestricted() || entry.OwnerID == *s.OwnerID
}

// Apply narrows a query on the entries table to the scope. It must run before any filter.
func (s EntryScope) Apply(q *gorm.DB) *gorm.DB {
	if s.Unrestricted() {
		return q
	}
	return q.Where("entries.owner_id = ?", *s.OwnerID)
}

// EnsureEntryVisible hides out-of-scope entries behind NotFound so their existence never leaks.
func EnsureEntryVisible(scope EntryScope, entry *models.Entry) error {
	if !scope.Contains(entry) {
		return pkgerrors.New(pkgerrors.CodeNotFound, "entry not found")
	}
	return nil
}
