package auth

import (
	"context"
	"errors"
	"io"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/farhanmajid/bazario-backend/internal/companies"
	"github.com/farhanmajid/bazario-backend/internal/users"
	pkgauth "github.com/farhanmajid/bazario-backend/pkg/auth"
	"github.com/farhanmajid/bazario-backend/pkg/auth/session"
	"github.com/farhanmajid/bazario-backend/pkg/config"
	"github.com/farhanmajid/bazario-backend/pkg/db/models"
	"github.com/farhanmajid/bazario-backend/pkg/enums"
	pkgerrors "github.com/farhanmajid/bazario-backend/pkg/errors"
	"github.com/farhanmajid/bazario-backend/pkg/logger"
	"github.com/farhanmajid/bazario-backend/pkg/pagination"
)

var errDuplicateEmail = errors.New(`duplicate key value violates unique constraint "ux_users_email"`)

type stubUserRepo struct {
	users map[uuid.UUID]*models.User
}

func newStubUserRepo() *stubUserRepo {
	return &stubUserRepo{users: map[uuid.UUID]*models.User{}}
}

func (s *stubUserRepo) WithTx(tx *gorm.DB) users.Repository { return s }

func (s *stubUserRepo) Create(_ context.Context, user *models.User) (*models.User, error) {
	for _, existing := range s.users {
		if existing.Email == user.Email {
			return nil, errDuplicateEmail
		}
	}
	if user.ID == uuid.Nil {
		user.ID = uuid.New()
	}
	stored := *user
	s.users[user.ID] = &stored
	return user, nil
}

func (s *stubUserRepo) FindByID(_ context.Context, userID uuid.UUID) (*models.User, error) {
	user, ok := s.users[userID]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	found := *user
	return &found, nil
}

func (s *stubUserRepo) FindByEmail(_ context.Context, email string) (*models.User, error) {
	for _, user := range s.users {
		if user.Email == email {
			found := *user
			return &found, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (s *stubUserRepo) Update(_ context.Context, userID uuid.UUID, updates map[string]any) error {
	user, ok := s.users[userID]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	if companyID, ok := updates["company_id"].(uuid.UUID); ok {
		user.CompanyID = &companyID
	}
	if role, ok := updates["role"].(enums.UserRole); ok {
		user.Role = role
	}
	return nil
}

func (s *stubUserRepo) Delete(_ context.Context, userID uuid.UUID) error {
	delete(s.users, userID)
	return nil
}

type stubCompanyRepo struct {
	users     *stubUserRepo
	companies map[uuid.UUID]*models.Company
}

func (s *stubCompanyRepo) WithTx(tx *gorm.DB) companies.Repository { return s }

func (s *stubCompanyRepo) Create(_ context.Context, company *models.Company) (*models.Company, error) {
	if company.ID == uuid.Nil {
		company.ID = uuid.New()
	}
	stored := *company
	s.companies[company.ID] = &stored
	return company, nil
}

func (s *stubCompanyRepo) FindByID(_ context.Context, companyID uuid.UUID) (*models.Company, error) {
	company, ok := s.companies[companyID]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	found := *company
	return &found, nil
}

func (s *stubCompanyRepo) FindByOwner(_ context.Context, ownerUserID uuid.UUID) (*models.Company, error) {
	for _, company := range s.companies {
		if company.OwnerUserID == ownerUserID {
			found := *company
			return &found, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (s *stubCompanyRepo) List(_ context.Context, params pagination.Params) ([]models.Company, *pagination.Cursor, error) {
	return nil, nil, nil
}

func (s *stubCompanyRepo) BindMember(_ context.Context, userID, companyID uuid.UUID, role enums.UserRole) error {
	user, ok := s.users.users[userID]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	user.CompanyID = &companyID
	user.Role = role
	return nil
}

type stubSessions struct {
	tokens  map[string]string
	revoked []string
}

func newStubSessions() *stubSessions {
	return &stubSessions{tokens: map[string]string{}}
}

func (s *stubSessions) Generate(_ context.Context, accessID string) (string, error) {
	token := "refresh-" + accessID
	s.tokens[accessID] = token
	return token, nil
}

func (s *stubSessions) Rotate(_ context.Context, oldAccessID, provided string) (string, string, error) {
	stored, ok := s.tokens[oldAccessID]
	if !ok || stored != provided {
		return "", "", session.ErrInvalidRefreshToken
	}
	delete(s.tokens, oldAccessID)
	newAccessID := session.NewAccessID()
	token := "refresh-" + newAccessID
	s.tokens[newAccessID] = token
	return newAccessID, token, nil
}

func (s *stubSessions) Revoke(_ context.Context, accessID string) error {
	delete(s.tokens, accessID)
	s.revoked = append(s.revoked, accessID)
	return nil
}

type stubTxRunner struct{}

func (stubTxRunner) WithTx(_ context.Context, fn func(tx *gorm.DB) error) error {
	return fn(nil)
}

func testJWTConfig() config.JWTConfig {
	return config.JWTConfig{
		Secret:            "test-secret",
		Issuer:            "bazario",
		ExpirationMinutes: 15,
		RefreshTTLHours:   720,
	}
}

func testPasswordConfig() config.PasswordConfig {
	return config.PasswordConfig{
		ArgonMemoryKB:    8 * 1024,
		ArgonTime:        1,
		ArgonParallelism: 1,
		ArgonSaltLen:     16,
		ArgonKeyLen:      32,
		MinLength:        8,
	}
}

func newTestService(t *testing.T) (Service, *stubUserRepo, *stubSessions) {
	t.Helper()

	userRepo := newStubUserRepo()
	companyRepo := &stubCompanyRepo{users: userRepo, companies: map[uuid.UUID]*models.Company{}}
	sessions := newStubSessions()
	logg := logger.New(logger.Options{ServiceName: "test", Output: io.Discard})

	svc, err := NewService(userRepo, companyRepo, stubTxRunner{}, sessions, testJWTConfig(), testPasswordConfig(), logg)
	require.NoError(t, err)
	return svc, userRepo, sessions
}

func TestSignupIssuesCustomerTokens(t *testing.T) {
	svc, repo, _ := newTestService(t)

	result, err := svc.Signup(context.Background(), SignupInput{
		Email:                "Amira@Example.com",
		Password:             "long-enough-1",
		PasswordConfirmation: "long-enough-1",
		FirstName:            "Amira",
	})
	require.NoError(t, err)
	assert.Equal(t, "amira@example.com", result.User.Email)
	assert.Equal(t, enums.UserRoleCustomer, result.User.Role)
	assert.Nil(t, result.User.CompanyID)
	require.Len(t, repo.users, 1)

	claims, err := pkgauth.ParseAccessToken(testJWTConfig(), result.Tokens.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, result.User.ID, claims.UserID)
	assert.Equal(t, enums.UserRoleCustomer, claims.Role)
}

func TestSignupWithCompanyPromotesOwner(t *testing.T) {
	svc, _, _ := newTestService(t)

	companyName := "North Mercantile"
	result, err := svc.Signup(context.Background(), SignupInput{
		Email:                "owner@example.com",
		Password:             "long-enough-1",
		PasswordConfirmation: "long-enough-1",
		CompanyName:          &companyName,
	})
	require.NoError(t, err)
	assert.Equal(t, enums.UserRoleAdmin, result.User.Role)
	require.NotNil(t, result.User.CompanyID)

	claims, err := pkgauth.ParseAccessToken(testJWTConfig(), result.Tokens.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, enums.UserRoleAdmin, claims.Role)
	require.NotNil(t, claims.CompanyID)
	assert.Equal(t, *result.User.CompanyID, *claims.CompanyID)
}

func TestSignupRejectsMismatchedConfirmation(t *testing.T) {
	svc, _, _ := newTestService(t)

	_, err := svc.Signup(context.Background(), SignupInput{
		Email:                "amira@example.com",
		Password:             "long-enough-1",
		PasswordConfirmation: "different-one",
	})
	appErr := pkgerrors.As(err)
	require.NotNil(t, appErr)
	assert.Equal(t, pkgerrors.CodeValidation, appErr.Code())
}

func TestLoginRejectsBadPassword(t *testing.T) {
	svc, _, _ := newTestService(t)

	_, err := svc.Signup(context.Background(), SignupInput{
		Email:                "amira@example.com",
		Password:             "long-enough-1",
		PasswordConfirmation: "long-enough-1",
	})
	require.NoError(t, err)

	_, err = svc.Login(context.Background(), LoginInput{
		Email:    "amira@example.com",
		Password: "wrong-password",
	})
	appErr := pkgerrors.As(err)
	require.NotNil(t, appErr)
	assert.Equal(t, pkgerrors.CodeUnauthorized, appErr.Code())
}

func TestLoginRejectsInactiveUser(t *testing.T) {
	svc, repo, _ := newTestService(t)

	result, err := svc.Signup(context.Background(), SignupInput{
		Email:                "amira@example.com",
		Password:             "long-enough-1",
		PasswordConfirmation: "long-enough-1",
	})
	require.NoError(t, err)
	repo.users[result.User.ID].IsActive = false

	_, err = svc.Login(context.Background(), LoginInput{
		Email:    "amira@example.com",
		Password: "long-enough-1",
	})
	appErr := pkgerrors.As(err)
	require.NotNil(t, appErr)
	assert.Equal(t, pkgerrors.CodeUnauthorized, appErr.Code())
}

func TestRefreshRotatesSessionAndRejectsReplay(t *testing.T) {
	svc, _, _ := newTestService(t)

	result, err := svc.Signup(context.Background(), SignupInput{
		Email:                "amira@example.com",
		Password:             "long-enough-1",
		PasswordConfirmation: "long-enough-1",
	})
	require.NoError(t, err)

	rotated, err := svc.Refresh(context.Background(), RefreshInput{
		AccessToken:  result.Tokens.AccessToken,
		RefreshToken: result.Tokens.RefreshToken,
	})
	require.NoError(t, err)
	assert.NotEqual(t, result.Tokens.RefreshToken, rotated.RefreshToken)

	// The old pair is dead after rotation.
	_, err = svc.Refresh(context.Background(), RefreshInput{
		AccessToken:  result.Tokens.AccessToken,
		RefreshToken: result.Tokens.RefreshToken,
	})
	appErr := pkgerrors.As(err)
	require.NotNil(t, appErr)
	assert.Equal(t, pkgerrors.CodeUnauthorized, appErr.Code())
}

func TestLogoutRevokesSession(t *testing.T) {
	svc, _, sessions := newTestService(t)

	result, err := svc.Signup(context.Background(), SignupInput{
		Email:                "amira@example.com",
		Password:             "long-enough-1",
		PasswordConfirmation: "long-enough-1",
	})
	require.NoError(t, err)

	claims, err := pkgauth.ParseAccessToken(testJWTConfig(), result.Tokens.AccessToken)
	require.NoError(t, err)

	require.NoError(t, svc.Logout(context.Background(), claims.ID))
	assert.Empty(t, sessions.tokens)
}
