package controllers

import (
	"net/http"

	"github.com/google/uuid"

	"github.com/angelmondragon/entrydesk-backend/api/middleware"
	"github.com/angelmondragon/entrydesk-backend/internal/entries"
	"github.com/angelmondragon/entrydesk-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/entrydesk-backend/pkg/errors"
)

// principalFromRequest rebuilds the caller from the identity the Auth middleware stored.
func principalFromRequest(r *http.Request) (entries.Principal, error) {
	userID, err := callerID(r)
	if err != nil {
		return entries.Principal{}, err
	}
	role, err := enums.ParseUserRole(middleware.RoleFromContext(r.Context()))
	if err != nil {
		return entries.Principal{}, pkgerrors.New(pkgerrors.CodeUnauthorized, "invalid role")
	}
	return entries.Principal{ID: userID, Role: role}, nil
}

func callerID(r *http.Request) (uuid.UUID, error) {
	raw := middleware.UserIDFromContext(r.Context())
	if raw == "" {
		return uuid.Nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user context missing")
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, pkgerrors.Wrap(pkgerrors.CodeUnauthorized, err, "invalid user id")
	}
	return id, nil
}
