package users

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/farhanmajid/bazario-backend/pkg/config"
	"github.com/farhanmajid/bazario-backend/pkg/db/models"
	"github.com/farhanmajid/bazario-backend/pkg/enums"
	pkgerrors "github.com/farhanmajid/bazario-backend/pkg/errors"
	"github.com/farhanmajid/bazario-backend/pkg/security"
)

type stubUserRepo struct {
	users map[uuid.UUID]*models.User
}

func newStubUserRepo() *stubUserRepo {
	return &stubUserRepo{users: map[uuid.UUID]*models.User{}}
}

func (s *stubUserRepo) WithTx(tx *gorm.DB) Repository { return s }

func (s *stubUserRepo) Create(_ context.Context, user *models.User) (*models.User, error) {
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
	if email, ok := updates["email"].(string); ok {
		user.Email = email
	}
	if first, ok := updates["first_name"].(string); ok {
		user.FirstName = first
	}
	if last, ok := updates["last_name"].(string); ok {
		user.LastName = last
	}
	if hash, ok := updates["password_hash"].(string); ok {
		user.PasswordHash = hash
	}
	return nil
}

func (s *stubUserRepo) Delete(_ context.Context, userID uuid.UUID) error {
	delete(s.users, userID)
	return nil
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

func newTestService(t *testing.T) (Service, *stubUserRepo) {
	t.Helper()

	repo := newStubUserRepo()
	svc, err := NewService(repo, testPasswordConfig())
	require.NoError(t, err)
	return svc, repo
}

func seedUser(repo *stubUserRepo, email string) *models.User {
	user := &models.User{
		ID:       uuid.New(),
		Email:    email,
		Role:     enums.UserRoleCustomer,
		IsActive: true,
	}
	repo.users[user.ID] = user
	return user
}

func TestMeHidesPasswordHash(t *testing.T) {
	svc, repo := newTestService(t)
	user := seedUser(repo, "amira@example.com")
	user.PasswordHash = "secret-hash"

	view, err := svc.Me(context.Background(), user.ID)
	require.NoError(t, err)
	assert.Equal(t, "amira@example.com", view.Email)
	assert.Equal(t, enums.UserRoleCustomer, view.Role)
}

func TestMeNotFound(t *testing.T) {
	svc, _ := newTestService(t)

	_, err := svc.Me(context.Background(), uuid.New())
	appErr := pkgerrors.As(err)
	require.NotNil(t, appErr)
	assert.Equal(t, pkgerrors.CodeNotFound, appErr.Code())
}

func TestUpdateMeNormalizesEmail(t *testing.T) {
	svc, repo := newTestService(t)
	user := seedUser(repo, "amira@example.com")

	email := "  Amira@Example.COM "
	view, err := svc.UpdateMe(context.Background(), UpdateMeInput{
		UserID: user.ID,
		Email:  &email,
	})
	require.NoError(t, err)
	assert.Equal(t, "amira@example.com", view.Email)
}

func TestUpdateMeRehashesPassword(t *testing.T) {
	svc, repo := newTestService(t)
	user := seedUser(repo, "amira@example.com")

	password := "fresh-password-1"
	_, err := svc.UpdateMe(context.Background(), UpdateMeInput{
		UserID:   user.ID,
		Password: &password,
	})
	require.NoError(t, err)

	ok, err := security.VerifyPassword(password, repo.users[user.ID].PasswordHash)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestUpdateMeRejectsShortPassword(t *testing.T) {
	svc, repo := newTestService(t)
	user := seedUser(repo, "amira@example.com")

	password := "short"
	_, err := svc.UpdateMe(context.Background(), UpdateMeInput{
		UserID:   user.ID,
		Password: &password,
	})
	appErr := pkgerrors.As(err)
	require.NotNil(t, appErr)
	assert.Equal(t, pkgerrors.CodeValidation, appErr.Code())
}

func TestDeleteMeRemovesUser(t *testing.T) {
	svc, repo := newTestService(t)
	user := seedUser(repo, "amira@example.com")

	require.NoError(t, svc.DeleteMe(context.Background(), user.ID))
	assert.Empty(t, repo.users)

	err := svc.DeleteMe(context.Background(), user.ID)
	appErr := pkgerrors.As(err)
	require.NotNil(t, appErr)
	assert.Equal(t, pkgerrors.CodeNotFound, appErr.Code())
}
