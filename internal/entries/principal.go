package entries

import (
	"github.com/google/uuid"

	"github.com/angelmondragon/entrydesk-backend/pkg/enums"
	"github.com/angelmondragon/entrydesk-backend/pkg/visibility"
)

// Principal is the authenticated caller. Its role is taken verbatim from the access token.
type Principal struct {
	ID   uuid.UUID
	Role enums.UserRole
}

func (p Principal) IsAdmin() bool {
	return p.Role.IsAdmin()
}

// Scope returns the set of entries the principal may see.
func (p Principal) Scope() visibility.EntryScope {
	return visibility.ScopeFor(p.ID, p.Role)
}
