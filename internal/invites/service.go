package invites

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/farhanmajid/bazario-backend/internal/users"
	"github.com/farhanmajid/bazario-backend/pkg/config"
	dbpkg "github.com/farhanmajid/bazario-backend/pkg/db"
	"github.com/farhanmajid/bazario-backend/pkg/db/models"
	"github.com/farhanmajid/bazario-backend/pkg/enums"
	pkgerrors "github.com/farhanmajid/bazario-backend/pkg/errors"
	"github.com/farhanmajid/bazario-backend/pkg/logger"
	"github.com/farhanmajid/bazario-backend/pkg/outbox"
	"github.com/farhanmajid/bazario-backend/pkg/outbox/payloads"
	"github.com/farhanmajid/bazario-backend/pkg/security"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type outboxPublisher interface {
	Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error
}

type tokenIssuer interface {
	Issue(ctx context.Context, record TokenRecord) (string, time.Time, error)
	Lookup(ctx context.Context, token string) (*TokenRecord, error)
	Consume(ctx context.Context, token string) error
}

// Actor identifies who is issuing the invite.
type Actor struct {
	UserID    uuid.UUID
	CompanyID *uuid.UUID
	Role      enums.UserRole
}

// CreateInput carries a new invitation.
type CreateInput struct {
	Actor Actor
	Email string
	Role  enums.UserRole
}

// AcceptInput redeems a token. Password is optional; when present it replaces
// the placeholder hash minted at invite time.
type AcceptInput struct {
	Token                string
	Password             *string
	PasswordConfirmation *string
}

// InviteView is returned to the inviting admin. The raw token is only echoed
// through the accept URL.
type InviteView struct {
	Email     string         `json:"email"`
	Role      enums.UserRole `json:"role"`
	AcceptURL string         `json:"accept_url"`
	ExpiresAt time.Time      `json:"expires_at"`
}

// AcceptView reports the activated membership.
type AcceptView struct {
	UserID    uuid.UUID      `json:"user_id"`
	CompanyID uuid.UUID      `json:"company_id"`
	Role      enums.UserRole `json:"role"`
}

// Service defines the invitation lifecycle.
type Service interface {
	Create(ctx context.Context, input CreateInput) (*InviteView, error)
	Accept(ctx context.Context, input AcceptInput) (*AcceptView, error)
}

type service struct {
	userRepo    users.Repository
	tokens      tokenIssuer
	tx          txRunner
	outbox      outboxPublisher
	mailer      Mailer
	inviteCfg   config.InviteConfig
	passwordCfg config.PasswordConfig
	logg        *logger.Logger
	now         func() time.Time
}

// NewService builds an invite service with the required dependencies.
func NewService(
	userRepo users.Repository,
	tokens tokenIssuer,
	tx txRunner,
	outboxSvc outboxPublisher,
	mailer Mailer,
	inviteCfg config.InviteConfig,
	passwordCfg config.PasswordConfig,
	logg *logger.Logger,
) (Service, error) {
	if userRepo == nil {
		return nil, fmt.Errorf("user repository required")
	}
	if tokens == nil {
		return nil, fmt.Errorf("token store required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if outboxSvc == nil {
		return nil, fmt.Errorf("outbox publisher required")
	}
	if mailer == nil {
		return nil, fmt.Errorf("mailer required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &service{
		userRepo:    userRepo,
		tokens:      tokens,
		tx:          tx,
		outbox:      outboxSvc,
		mailer:      mailer,
		inviteCfg:   inviteCfg,
		passwordCfg: passwordCfg,
		logg:        logg,
		now:         time.Now,
	}, nil
}

// Create mints an inactive user and a single-use token. The token rides in
// redis with the configured TTL, so an unredeemed invite simply ages out.
func (s *service) Create(ctx context.Context, input CreateInput) (*InviteView, error) {
	if input.Actor.UserID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}
	if input.Actor.Role != enums.UserRoleAdmin || input.Actor.CompanyID == nil {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "company admin required")
	}
	email := strings.ToLower(strings.TrimSpace(input.Email))
	if email == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "email required")
	}
	if !input.Role.IsCompanyRole() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invite role must be admin or staff")
	}

	if _, err := s.userRepo.FindByEmail(ctx, email); err == nil {
		return nil, pkgerrors.New(pkgerrors.CodeConflict, "email already registered")
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "look up email")
	}

	placeholder, err := security.GenerateTempPassword(24)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "generate placeholder password")
	}
	hash, err := security.HashPassword(placeholder, s.passwordCfg)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "hash placeholder password")
	}

	user := &models.User{
		ID:           uuid.New(),
		Email:        email,
		PasswordHash: hash,
		Role:         enums.UserRoleCustomer,
		IsActive:     false,
	}

	token, expiresAt, err := s.tokens.Issue(ctx, TokenRecord{
		UserID:    user.ID,
		CompanyID: *input.Actor.CompanyID,
		Email:     email,
		Role:      input.Role.String(),
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "issue invite token")
	}
	acceptURL := fmt.Sprintf("%s/%s", strings.TrimRight(s.inviteCfg.AcceptBase, "/"), token)

	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		if _, err := s.userRepo.WithTx(tx).Create(ctx, user); err != nil {
			if dbpkg.IsUniqueViolation(err, "") {
				return pkgerrors.New(pkgerrors.CodeConflict, "email already registered")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create invited user")
		}
		event := outbox.DomainEvent{
			EventType:     enums.EventUserInvited,
			AggregateType: enums.AggregateUser,
			AggregateID:   user.ID,
			Actor: &outbox.ActorRef{
				UserID:    input.Actor.UserID,
				CompanyID: input.Actor.CompanyID,
				Role:      input.Actor.Role.String(),
			},
			Data: payloads.UserInvitedEvent{
				CompanyID: *input.Actor.CompanyID,
				Email:     email,
				Role:      input.Role,
				AcceptURL: acceptURL,
				ExpiresAt: expiresAt,
			},
			OccurredAt: s.now().UTC(),
		}
		return s.outbox.Emit(ctx, tx, event)
	})
	if err != nil {
		// The orphaned token ages out with its TTL.
		return nil, err
	}

	if err := s.mailer.SendInvite(ctx, email, acceptURL, expiresAt); err != nil {
		s.logg.Error(ctx, "invite mail delivery failed", err)
	}

	return &InviteView{
		Email:     email,
		Role:      input.Role,
		AcceptURL: acceptURL,
		ExpiresAt: expiresAt,
	}, nil
}

// Accept activates the invited user, binds the company membership, and burns
// the token.
func (s *service) Accept(ctx context.Context, input AcceptInput) (*AcceptView, error) {
	token := strings.TrimSpace(input.Token)
	if token == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invite token required")
	}

	record, err := s.tokens.Lookup(ctx, token)
	if err != nil {
		if errors.Is(err, ErrTokenNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "invite not found or expired")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "look up invite token")
	}

	role, err := enums.ParseUserRole(record.Role)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "decode invite role")
	}

	updates := map[string]any{
		"is_active":  true,
		"company_id": record.CompanyID,
		"role":       role,
	}
	if input.Password != nil {
		if len(*input.Password) < s.passwordCfg.MinLength {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("password must be at least %d characters", s.passwordCfg.MinLength))
		}
		if input.PasswordConfirmation == nil || *input.Password != *input.PasswordConfirmation {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "password confirmation does not match")
		}
		hash, err := security.HashPassword(*input.Password, s.passwordCfg)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "hash password")
		}
		updates["password_hash"] = hash
	}

	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		userRepo := s.userRepo.WithTx(tx)

		if _, err := userRepo.FindByID(ctx, record.UserID); err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeNotFound, "invited user no longer exists")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load invited user")
		}
		if err := userRepo.Update(ctx, record.UserID, updates); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "activate invited user")
		}

		event := outbox.DomainEvent{
			EventType:     enums.EventInvitationAccepted,
			AggregateType: enums.AggregateUser,
			AggregateID:   record.UserID,
			Actor: &outbox.ActorRef{
				UserID:    record.UserID,
				CompanyID: &record.CompanyID,
				Role:      role.String(),
			},
			Data: payloads.InvitationAcceptedEvent{
				CompanyID:  record.CompanyID,
				UserID:     record.UserID,
				Role:       role,
				AcceptedAt: s.now().UTC(),
			},
			OccurredAt: s.now().UTC(),
		}
		return s.outbox.Emit(ctx, tx, event)
	})
	if err != nil {
		return nil, err
	}

	if err := s.tokens.Consume(ctx, token); err != nil {
		s.logg.Error(ctx, "consume invite token failed", err)
	}

	return &AcceptView{
		UserID:    record.UserID,
		CompanyID: record.CompanyID,
		Role:      role,
	}, nil
}
