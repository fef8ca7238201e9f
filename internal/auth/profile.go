package auth

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/angelmondragon/entrydesk-backend/internal/users"
	"github.com/angelmondragon/entrydesk-backend/pkg/config"
	"github.com/angelmondragon/entrydesk-backend/pkg/db"
	"github.com/angelmondragon/entrydesk-backend/pkg/db/models"
	pkgerrors "github.com/angelmondragon/entrydesk-backend/pkg/errors"
	"github.com/angelmondragon/entrydesk-backend/pkg/security"
)

// ProfileService serves the authenticated user's own account.
type ProfileService interface {
	Profile(ctx context.Context, userID uuid.UUID) (*users.UserDTO, error)
	UpdateProfile(ctx context.Context, userID uuid.UUID, req UpdateProfileRequest) (*users.UserDTO, error)
	ChangePassword(ctx context.Context, userID uuid.UUID, req ChangePasswordRequest) error
}

type profileRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.User, error)
	UpdateProfile(ctx context.Context, id uuid.UUID, update users.ProfileUpdate) (*models.User, error)
	UpdatePassword(ctx context.Context, id uuid.UUID, passwordHash string) error
}

type profileService struct {
	users       profileRepository
	passwordCfg config.PasswordConfig
}

func NewProfileService(repo profileRepository, cfg config.PasswordConfig) (ProfileService, error) {
	if repo == nil {
		return nil, fmt.Errorf("user repository is required")
	}
	return &profileService{users: repo, passwordCfg: cfg}, nil
}

func (s *profileService) Profile(ctx context.Context, userID uuid.UUID) (*users.UserDTO, error) {
	user, err := s.load(ctx, userID)
	if err != nil {
		return nil, err
	}
	return users.FromModel(user), nil
}

func (s *profileService) UpdateProfile(ctx context.Context, userID uuid.UUID, req UpdateProfileRequest) (*users.UserDTO, error) {
	if req.Age != nil && *req.Age < 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "age cannot be negative")
	}
	user, err := s.users.UpdateProfile(ctx, userID, users.ProfileUpdate{
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Age:       req.Age,
	})
	if err != nil {
		if db.IsNotFound(err) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "user not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update profile")
	}
	return users.FromModel(user), nil
}

func (s *profileService) ChangePassword(ctx context.Context, userID uuid.UUID, req ChangePasswordRequest) error {
	user, err := s.load(ctx, userID)
	if err != nil {
		return err
	}

	ok, err := security.VerifyPassword(req.OldPassword, user.PasswordHash)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "verify password")
	}
	if !ok {
		return pkgerrors.New(pkgerrors.CodeValidation, "old password is incorrect").
			WithDetails(map[string]string{"old_password": "old password is incorrect"})
	}
	if req.NewPassword != req.NewPassword2 {
		return pkgerrors.New(pkgerrors.CodeValidation, "new passwords do not match").
			WithDetails(map[string]string{"new_password2": "new passwords do not match"})
	}
	if reason := security.CheckPasswordStrength(req.NewPassword, user.Username, emailLocalPart(user.Email)); reason != "" {
		return pkgerrors.New(pkgerrors.CodeValidation, reason).
			WithDetails(map[string]string{"new_password": reason})
	}

	hash, err := security.HashPassword(req.NewPassword, s.passwordCfg)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "hash password")
	}
	if err := s.users.UpdatePassword(ctx, userID, hash); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update password")
	}
	return nil
}

func (s *profileService) load(ctx context.Context, userID uuid.UUID) (*models.User, error) {
	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		if db.IsNotFound(err) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "user not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load user")
	}
	return user, nil
}
