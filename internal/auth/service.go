package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/farhanmajid/bazario-backend/internal/companies"
	"github.com/farhanmajid/bazario-backend/internal/users"
	pkgauth "github.com/farhanmajid/bazario-backend/pkg/auth"
	"github.com/farhanmajid/bazario-backend/pkg/auth/session"
	"github.com/farhanmajid/bazario-backend/pkg/config"
	dbpkg "github.com/farhanmajid/bazario-backend/pkg/db"
	"github.com/farhanmajid/bazario-backend/pkg/db/models"
	"github.com/farhanmajid/bazario-backend/pkg/enums"
	pkgerrors "github.com/farhanmajid/bazario-backend/pkg/errors"
	"github.com/farhanmajid/bazario-backend/pkg/logger"
	"github.com/farhanmajid/bazario-backend/pkg/security"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type sessionManager interface {
	Generate(ctx context.Context, accessID string) (string, error)
	Rotate(ctx context.Context, oldAccessID, provided string) (string, string, error)
	Revoke(ctx context.Context, accessID string) error
}

// Service defines signup, login, and session lifecycle operations.
type Service interface {
	Signup(ctx context.Context, input SignupInput) (*AuthResult, error)
	Login(ctx context.Context, input LoginInput) (*AuthResult, error)
	Refresh(ctx context.Context, input RefreshInput) (*TokenPair, error)
	Logout(ctx context.Context, accessID string) error
}

type service struct {
	userRepo    users.Repository
	companyRepo companies.Repository
	tx          txRunner
	sessions    sessionManager
	jwtCfg      config.JWTConfig
	passwordCfg config.PasswordConfig
	logg        *logger.Logger
	now         func() time.Time
}

// NewService builds an auth service with the required dependencies.
func NewService(
	userRepo users.Repository,
	companyRepo companies.Repository,
	tx txRunner,
	sessions sessionManager,
	jwtCfg config.JWTConfig,
	passwordCfg config.PasswordConfig,
	logg *logger.Logger,
) (Service, error) {
	if userRepo == nil {
		return nil, fmt.Errorf("user repository required")
	}
	if companyRepo == nil {
		return nil, fmt.Errorf("company repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if sessions == nil {
		return nil, fmt.Errorf("session manager required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &service{
		userRepo:    userRepo,
		companyRepo: companyRepo,
		tx:          tx,
		sessions:    sessions,
		jwtCfg:      jwtCfg,
		passwordCfg: passwordCfg,
		logg:        logg,
		now:         time.Now,
	}, nil
}

func (s *service) Signup(ctx context.Context, input SignupInput) (*AuthResult, error) {
	email := strings.ToLower(strings.TrimSpace(input.Email))
	if email == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "email required")
	}
	if len(input.Password) < s.passwordCfg.MinLength {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("password must be at least %d characters", s.passwordCfg.MinLength))
	}
	if input.Password != input.PasswordConfirmation {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "password confirmation does not match")
	}
	if input.CompanyName != nil && strings.TrimSpace(*input.CompanyName) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "company name required")
	}

	hash, err := security.HashPassword(input.Password, s.passwordCfg)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "hash password")
	}

	var user *models.User
	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		userRepo := s.userRepo.WithTx(tx)

		user = &models.User{
			Email:        email,
			PasswordHash: hash,
			FirstName:    input.FirstName,
			LastName:     input.LastName,
			Role:         enums.UserRoleCustomer,
			IsActive:     true,
		}
		if _, err := userRepo.Create(ctx, user); err != nil {
			if dbpkg.IsUniqueViolation(err, "") {
				return pkgerrors.New(pkgerrors.CodeValidation, "email already registered")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create user")
		}

		if input.CompanyName != nil {
			companyRepo := s.companyRepo.WithTx(tx)
			company := &models.Company{
				Name:        strings.TrimSpace(*input.CompanyName),
				OwnerUserID: user.ID,
			}
			if _, err := companyRepo.Create(ctx, company); err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create company")
			}
			if err := companyRepo.BindMember(ctx, user.ID, company.ID, enums.UserRoleAdmin); err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "bind company owner")
			}
			user.CompanyID = &company.ID
			user.Role = enums.UserRoleAdmin
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	ctx = s.logg.WithUserID(ctx, user.ID.String())
	s.logg.Info(ctx, "user signed up")

	tokens, err := s.issueTokens(ctx, user)
	if err != nil {
		return nil, err
	}
	return &AuthResult{Tokens: *tokens, User: users.BuildUserView(user)}, nil
}

func (s *service) Login(ctx context.Context, input LoginInput) (*AuthResult, error) {
	email := strings.ToLower(strings.TrimSpace(input.Email))
	if email == "" || input.Password == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "email and password required")
	}

	user, err := s.userRepo.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "invalid credentials")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load user")
	}
	if !user.IsActive {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "account is not active")
	}

	ok, err := security.VerifyPassword(input.Password, user.PasswordHash)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "verify password")
	}
	if !ok {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "invalid credentials")
	}

	now := s.now().UTC()
	if err := s.userRepo.Update(ctx, user.ID, map[string]any{"last_login_at": now}); err != nil {
		s.logg.Warn(ctx, "record last login failed")
	}

	tokens, err := s.issueTokens(ctx, user)
	if err != nil {
		return nil, err
	}
	return &AuthResult{Tokens: *tokens, User: users.BuildUserView(user)}, nil
}

// Refresh rotates the session keyed by the expired access token's jti. The
// reissued access token carries the user's current role and company, so a
// promotion or invite acceptance takes effect on the next refresh.
func (s *service) Refresh(ctx context.Context, input RefreshInput) (*TokenPair, error) {
	claims, err := pkgauth.ParseAccessTokenAllowExpired(s.jwtCfg, input.AccessToken)
	if err != nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "invalid access token")
	}

	newAccessID, newRefresh, err := s.sessions.Rotate(ctx, claims.ID, input.RefreshToken)
	if err != nil {
		if errors.Is(err, session.ErrInvalidRefreshToken) {
			return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "invalid refresh token")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "rotate session")
	}

	user, err := s.userRepo.FindByID(ctx, claims.UserID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user no longer exists")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load user")
	}
	if !user.IsActive {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "account is not active")
	}

	access, err := pkgauth.MintAccessToken(s.jwtCfg, s.now().UTC(), pkgauth.AccessTokenPayload{
		UserID:    user.ID,
		CompanyID: user.CompanyID,
		Role:      user.Role,
		JTI:       newAccessID,
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "mint access token")
	}
	return &TokenPair{AccessToken: access, RefreshToken: newRefresh}, nil
}

func (s *service) Logout(ctx context.Context, accessID string) error {
	if strings.TrimSpace(accessID) == "" {
		return pkgerrors.New(pkgerrors.CodeUnauthorized, "session identity missing")
	}
	if err := s.sessions.Revoke(ctx, accessID); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "revoke session")
	}
	return nil
}

func (s *service) issueTokens(ctx context.Context, user *models.User) (*TokenPair, error) {
	accessID := session.NewAccessID()
	refresh, err := s.sessions.Generate(ctx, accessID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create session")
	}
	access, err := pkgauth.MintAccessToken(s.jwtCfg, s.now().UTC(), pkgauth.AccessTokenPayload{
		UserID:    user.ID,
		CompanyID: user.CompanyID,
		Role:      user.Role,
		JTI:       accessID,
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "mint access token")
	}
	return &TokenPair{AccessToken: access, RefreshToken: refresh}, nil
}
