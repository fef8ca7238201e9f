package auth

import (
	"context"
	"strings"

	"gorm.io/gorm"

	"github.com/angelmondragon/entrydesk-backend/internal/users"
	"github.com/angelmondragon/entrydesk-backend/pkg/config"
	"github.com/angelmondragon/entrydesk-backend/pkg/db"
	"github.com/angelmondragon/entrydesk-backend/pkg/db/models"
	"github.com/angelmondragon/entrydesk-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/entrydesk-backend/pkg/errors"
	"github.com/angelmondragon/entrydesk-backend/pkg/security"
)

// RegisterService creates accounts. The role of created accounts is fixed by the constructor.
type RegisterService interface {
	Register(ctx context.Context, req RegisterRequest) (*users.UserDTO, error)
}

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type registerUserRepository interface {
	EmailTaken(ctx context.Context, email string) (bool, error)
	UsernameTaken(ctx context.Context, username string) (bool, error)
	Create(ctx context.Context, dto users.CreateUserDTO) (*models.User, error)
}

// RegisterServiceParams packages the dependencies for the registration flow.
type RegisterServiceParams struct {
	TxRunner        txRunner
	UserRepoFactory func(tx *gorm.DB) registerUserRepository
	PasswordConfig  config.PasswordConfig
}

type registerService struct {
	tx          txRunner
	userRepo    func(tx *gorm.DB) registerUserRepository
	passwordCfg config.PasswordConfig
	role        enums.UserRole
}

// NewRegisterService builds the public signup flow. Accounts it creates always have the USER role.
func NewRegisterService(params RegisterServiceParams) (RegisterService, error) {
	return newRegisterService(params, enums.UserRoleUser)
}

// DefaultRegisterParams wires the register flow to the users repository over client.
func DefaultRegisterParams(client *db.Client, cfg config.PasswordConfig) RegisterServiceParams {
	return RegisterServiceParams{
		TxRunner: client,
		UserRepoFactory: func(tx *gorm.DB) registerUserRepository {
			return users.NewRepository(tx)
		},
		PasswordConfig: cfg,
	}
}

func newRegisterService(params RegisterServiceParams, role enums.UserRole) (*registerService, error) {
	if params.TxRunner == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "transaction runner required")
	}
	if params.UserRepoFactory == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "user repository factory required")
	}
	return &registerService{
		tx:          params.TxRunner,
		userRepo:    params.UserRepoFactory,
		passwordCfg: params.PasswordConfig,
		role:        role,
	}, nil
}

func (s *registerService) Register(ctx context.Context, req RegisterRequest) (*users.UserDTO, error) {
	username := strings.TrimSpace(req.Username)
	email := users.NormalizeEmail(req.Email)
	firstName := strings.TrimSpace(req.FirstName)
	lastName := strings.TrimSpace(req.LastName)

	fields := map[string]string{}
	if username == "" {
		fields["username"] = "username is required"
	}
	if email == "" {
		fields["email"] = "email is required"
	}
	if firstName == "" {
		fields["first_name"] = "first name is required"
	}
	if lastName == "" {
		fields["last_name"] = "last name is required"
	}
	if req.Age != nil && *req.Age < 0 {
		fields["age"] = "age cannot be negative"
	}
	if req.Password != req.Password2 {
		fields["password"] = "passwords do not match"
	} else if reason := security.CheckPasswordStrength(req.Password, username, emailLocalPart(email)); reason != "" {
		fields["password"] = reason
	}
	if len(fields) > 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid registration").WithDetails(fields)
	}

	passwordHash, err := security.HashPassword(req.Password, s.passwordCfg)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "hash password")
	}

	var created *users.UserDTO
	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.userRepo(tx)

		taken, err := repo.EmailTaken(ctx, email)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "check user email")
		}
		if taken {
			return pkgerrors.New(pkgerrors.CodeValidation, "this email is already registered").
				WithDetails(map[string]string{"email": "this email is already registered"})
		}
		taken, err = repo.UsernameTaken(ctx, username)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "check username")
		}
		if taken {
			return pkgerrors.New(pkgerrors.CodeValidation, "this username is already taken").
				WithDetails(map[string]string{"username": "this username is already taken"})
		}

		user, err := repo.Create(ctx, users.CreateUserDTO{
			Username:     username,
			Email:        email,
			PasswordHash: passwordHash,
			FirstName:    firstName,
			LastName:     lastName,
			Age:          req.Age,
			Role:         s.role,
		})
		if err != nil {
			if db.IsUniqueViolation(err) {
				return pkgerrors.Wrap(pkgerrors.CodeValidation, err, "this email or username is already registered")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create user")
		}
		created = users.FromModel(user)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return created, nil
}

func emailLocalPart(email string) string {
	if i := strings.IndexByte(email, '@'); i > 0 {
		return email[:i]
	}
	return email
}
