package users

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/farhanmajid/bazario-backend/pkg/config"
	dbpkg "github.com/farhanmajid/bazario-backend/pkg/db"
	"github.com/farhanmajid/bazario-backend/pkg/db/models"
	"github.com/farhanmajid/bazario-backend/pkg/enums"
	pkgerrors "github.com/farhanmajid/bazario-backend/pkg/errors"
	"github.com/farhanmajid/bazario-backend/pkg/security"
)

// UpdateMeInput carries a partial self-profile edit; nil fields are left
// untouched.
type UpdateMeInput struct {
	UserID    uuid.UUID
	Email     *string
	FirstName *string
	LastName  *string
	Password  *string
}

// UserView is the self-profile read model. The password hash never leaves
// the service.
type UserView struct {
	ID        uuid.UUID      `json:"id"`
	Email     string         `json:"email"`
	FirstName string         `json:"first_name"`
	LastName  string         `json:"last_name"`
	Role      enums.UserRole `json:"role"`
	CompanyID *uuid.UUID     `json:"company_id,omitempty"`
	IsActive  bool           `json:"is_active"`
	CreatedAt time.Time      `json:"created_at"`
}

// Service defines self-service user operations.
type Service interface {
	Me(ctx context.Context, userID uuid.UUID) (*UserView, error)
	UpdateMe(ctx context.Context, input UpdateMeInput) (*UserView, error)
	DeleteMe(ctx context.Context, userID uuid.UUID) error
}

type service struct {
	repo        Repository
	passwordCfg config.PasswordConfig
}

// NewService builds a user service with the required dependencies.
func NewService(repo Repository, passwordCfg config.PasswordConfig) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("user repository required")
	}
	return &service{repo: repo, passwordCfg: passwordCfg}, nil
}

func (s *service) Me(ctx context.Context, userID uuid.UUID) (*UserView, error) {
	if userID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}
	user, err := s.repo.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "user not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load user")
	}
	return BuildUserView(user), nil
}

func (s *service) UpdateMe(ctx context.Context, input UpdateMeInput) (*UserView, error) {
	if input.UserID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}

	updates := map[string]any{}
	if input.Email != nil {
		email := strings.ToLower(strings.TrimSpace(*input.Email))
		if email == "" {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "email required")
		}
		updates["email"] = email
	}
	if input.FirstName != nil {
		updates["first_name"] = *input.FirstName
	}
	if input.LastName != nil {
		updates["last_name"] = *input.LastName
	}
	if input.Password != nil {
		if len(*input.Password) < s.passwordCfg.MinLength {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("password must be at least %d characters", s.passwordCfg.MinLength))
		}
		hash, err := security.HashPassword(*input.Password, s.passwordCfg)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "hash password")
		}
		updates["password_hash"] = hash
	}

	if len(updates) > 0 {
		if err := s.repo.Update(ctx, input.UserID, updates); err != nil {
			if dbpkg.IsUniqueViolation(err, "") {
				return nil, pkgerrors.New(pkgerrors.CodeValidation, "email already in use")
			}
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update user")
		}
	}
	return s.Me(ctx, input.UserID)
}

func (s *service) DeleteMe(ctx context.Context, userID uuid.UUID) error {
	if userID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}
	if _, err := s.repo.FindByID(ctx, userID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return pkgerrors.New(pkgerrors.CodeNotFound, "user not found")
		}
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load user")
	}
	if err := s.repo.Delete(ctx, userID); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete user")
	}
	return nil
}

// BuildUserView converts the persistence model into the read model shared by
// the user and auth surfaces.
func BuildUserView(user *models.User) *UserView {
	return &UserView{
		ID:        user.ID,
		Email:     user.Email,
		FirstName: user.FirstName,
		LastName:  user.LastName,
		Role:      user.Role,
		CompanyID: user.CompanyID,
		IsActive:  user.IsActive,
		CreatedAt: user.CreatedAt,
	}
}
