package auth

import (
	"github.com/angelmondragon/entrydesk-backend/pkg/enums"
)

// NewAdminRegisterService builds the non-production signup flow that creates ADMIN accounts.
// Routing only mounts it outside production or behind the admin signup feature flag.
func NewAdminRegisterService(params RegisterServiceParams) (RegisterService, error) {
	return newRegisterService(params, enums.UserRoleAdmin)
}
