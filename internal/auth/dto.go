package auth

import (
	"github.com/angelmondragon/entrydesk-backend/internal/users"
)

// LoginRequest captures the user credentials sent to the login endpoint.
// Login accepts either the username or the email address.
type LoginRequest struct {
	Login    string `json:"login" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// LoginResponse contains the tokens and user produced by a successful login.
type LoginResponse struct {
	AccessToken  string         `json:"access_token"`
	RefreshToken string         `json:"refresh_token"`
	User         *users.UserDTO `json:"user"`
}

// RegisterRequest is the self-service signup payload.
type RegisterRequest struct {
	Username  string `json:"username" validate:"required,min=3,max=150"`
	Email     string `json:"email" validate:"required,email"`
	FirstName string `json:"first_name" validate:"required,max=150"`
	LastName  string `json:"last_name" validate:"required,max=150"`
	Age       *int   `json:"age,omitempty" validate:"omitempty,min=0,max=150"`
	Password  string `json:"password" validate:"required"`
	Password2 string `json:"password2" validate:"required"`
}

// UpdateProfileRequest lists the profile fields a user may edit.
type UpdateProfileRequest struct {
	FirstName *string `json:"first_name,omitempty" validate:"omitempty,min=1,max=150"`
	LastName  *string `json:"last_name,omitempty" validate:"omitempty,min=1,max=150"`
	Age       *int    `json:"age,omitempty" validate:"omitempty,min=0,max=150"`
}

// ChangePasswordRequest carries the current password and its replacement twice.
type ChangePasswordRequest struct {
	OldPassword  string `json:"old_password" validate:"required"`
	NewPassword  string `json:"new_password" validate:"required"`
	NewPassword2 string `json:"new_password2" validate:"required"`
}
