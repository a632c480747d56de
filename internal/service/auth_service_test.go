package service

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/vetcare/clinic-api/internal/models"
	appErrors "github.com/vetcare/clinic-api/pkg/errors"
)

type mockUserRepo struct {
	users      map[string]*models.User
	lastLogins map[string]time.Time
}

func newMockUserRepo(users ...*models.User) *mockUserRepo {
	repo := &mockUserRepo{users: map[string]*models.User{}, lastLogins: map[string]time.Time{}}
	for _, u := range users {
		repo.users[u.ID] = u
	}
	return repo
}

func (m *mockUserRepo) FindByEmail(_ context.Context, email string) (*models.User, error) {
	for _, u := range m.users {
		if u.Email == email {
			return u, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (m *mockUserRepo) FindByID(_ context.Context, id string) (*models.User, error) {
	u, ok := m.users[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return u, nil
}

func (m *mockUserRepo) UpdateLastLogin(_ context.Context, id string, ts time.Time) error {
	m.lastLogins[id] = ts
	return nil
}

func testAuthUser(t *testing.T) *models.User {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte("secret123"), bcrypt.MinCost)
	require.NoError(t, err)
	vetID := int64(7)
	return &models.User{
		ID:           "u-1",
		Email:        "vet@clinic.test",
		PasswordHash: string(hash),
		FullName:     "Dra. Morales",
		Role:         models.RoleVet,
		VetID:        &vetID,
		Active:       true,
	}
}

func newAuthTestService(repo *mockUserRepo) *AuthService {
	return NewAuthService(repo, validator.New(), zap.NewNop(), AuthConfig{
		Secret: "test-secret", Expiry: time.Hour, Issuer: "clinic-api-test",
	})
}

func TestAuthLogin(t *testing.T) {
	repo := newMockUserRepo(testAuthUser(t))
	svc := newAuthTestService(repo)

	resp, err := svc.Login(context.Background(), models.LoginRequest{
		Email: "vet@clinic.test", Password: "secret123",
	})
	require.NoError(t, err)
	assert.NotEmpty(t, resp.AccessToken)
	assert.Equal(t, int64(3600), resp.ExpiresIn)
	assert.Equal(t, models.RoleVet, resp.User.Role)
	require.NotNil(t, resp.User.VetID)
	assert.Equal(t, int64(7), *resp.User.VetID)
	assert.Contains(t, repo.lastLogins, "u-1")
}

func TestAuthLoginWrongPassword(t *testing.T) {
	svc := newAuthTestService(newMockUserRepo(testAuthUser(t)))

	_, err := svc.Login(context.Background(), models.LoginRequest{
		Email: "vet@clinic.test", Password: "wrong",
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrInvalidCredentials.Code, appErrors.FromError(err).Code)
}

func TestAuthLoginUnknownEmail(t *testing.T) {
	svc := newAuthTestService(newMockUserRepo())

	_, err := svc.Login(context.Background(), models.LoginRequest{
		Email: "nobody@clinic.test", Password: "secret123",
	})
	require.Error(t, err)
	// unknown email and wrong password are indistinguishable to the caller
	assert.Equal(t, appErrors.ErrInvalidCredentials.Code, appErrors.FromError(err).Code)
}

func TestAuthLoginInactiveAccount(t *testing.T) {
	user := testAuthUser(t)
	user.Active = false
	svc := newAuthTestService(newMockUserRepo(user))

	_, err := svc.Login(context.Background(), models.LoginRequest{
		Email: "vet@clinic.test", Password: "secret123",
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrInactiveAccount.Code, appErrors.FromError(err).Code)
}

func TestAuthLoginValidatesPayload(t *testing.T) {
	svc := newAuthTestService(newMockUserRepo())

	_, err := svc.Login(context.Background(), models.LoginRequest{Email: "not-an-email", Password: "x"})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestAuthValidateTokenRoundTrip(t *testing.T) {
	svc := newAuthTestService(newMockUserRepo(testAuthUser(t)))

	resp, err := svc.Login(context.Background(), models.LoginRequest{
		Email: "vet@clinic.test", Password: "secret123",
	})
	require.NoError(t, err)

	claims, err := svc.ValidateToken(resp.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, "u-1", claims.UserID)
	assert.Equal(t, models.RoleVet, claims.Role)
	require.NotNil(t, claims.VetID)
	assert.Equal(t, int64(7), *claims.VetID)
}

func TestAuthValidateTokenRejectsGarbage(t *testing.T) {
	svc := newAuthTestService(newMockUserRepo())

	_, err := svc.ValidateToken("not-a-token")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrUnauthorized.Code, appErrors.FromError(err).Code)
}

func TestAuthValidateTokenRejectsWrongSecret(t *testing.T) {
	user := testAuthUser(t)
	issuer := newAuthTestService(newMockUserRepo(user))
	verifier := NewAuthService(newMockUserRepo(user), validator.New(), zap.NewNop(), AuthConfig{
		Secret: "different-secret", Expiry: time.Hour, Issuer: "clinic-api-test",
	})

	resp, err := issuer.Login(context.Background(), models.LoginRequest{
		Email: "vet@clinic.test", Password: "secret123",
	})
	require.NoError(t, err)

	_, err = verifier.ValidateToken(resp.AccessToken)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrUnauthorized.Code, appErrors.FromError(err).Code)
}

func TestAuthMe(t *testing.T) {
	svc := newAuthTestService(newMockUserRepo(testAuthUser(t)))

	info, err := svc.Me(context.Background(), "u-1")
	require.NoError(t, err)
	assert.Equal(t, "vet@clinic.test", info.Email)

	_, err = svc.Me(context.Background(), "u-404")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrUnauthorized.Code, appErrors.FromError(err).Code)
}
