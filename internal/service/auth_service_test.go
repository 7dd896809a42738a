package service

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/noah-isme/youscore-api/internal/models"
	appErrors "github.com/noah-isme/youscore-api/pkg/errors"
)

type mockAuthRepo struct {
	users          map[string]*models.User
	refreshTokens  map[string]*models.RefreshToken
	createErr      error
	revokedTokens  []string
	passwordByUser map[string]string
}

func newMockAuthRepo() *mockAuthRepo {
	return &mockAuthRepo{
		users:          make(map[string]*models.User),
		refreshTokens:  make(map[string]*models.RefreshToken),
		passwordByUser: make(map[string]string),
	}
}

func (m *mockAuthRepo) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	for _, u := range m.users {
		if u.Email == email {
			return u, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (m *mockAuthRepo) FindByID(ctx context.Context, id string) (*models.User, error) {
	if u, ok := m.users[id]; ok {
		return u, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockAuthRepo) Create(ctx context.Context, user *models.User) error {
	if m.createErr != nil {
		return m.createErr
	}
	if user.ID == "" {
		user.ID = "user-" + user.Email
	}
	m.users[user.ID] = user
	return nil
}

func (m *mockAuthRepo) UpdateLastLogin(ctx context.Context, id string, ts time.Time) error {
	return nil
}

func (m *mockAuthRepo) UpdatePassword(ctx context.Context, id, passwordHash string, updatedAt time.Time) error {
	m.passwordByUser[id] = passwordHash
	if u, ok := m.users[id]; ok {
		u.PasswordHash = passwordHash
	}
	return nil
}

func (m *mockAuthRepo) RevokeUserRefreshTokens(ctx context.Context, userID string) error {
	for _, rt := range m.refreshTokens {
		if rt.UserID == userID {
			rt.Revoked = true
		}
	}
	return nil
}

func (m *mockAuthRepo) DeleteAccount(ctx context.Context, userID string) error {
	if _, ok := m.users[userID]; !ok {
		return sql.ErrNoRows
	}
	delete(m.users, userID)
	for token, rt := range m.refreshTokens {
		if rt.UserID == userID {
			delete(m.refreshTokens, token)
		}
	}
	return nil
}

func (m *mockAuthRepo) CreateRefreshToken(ctx context.Context, token *models.RefreshToken) error {
	m.refreshTokens[token.Token] = token
	return nil
}

func (m *mockAuthRepo) FindRefreshToken(ctx context.Context, token string) (*models.RefreshToken, error) {
	if rt, ok := m.refreshTokens[token]; ok {
		return rt, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockAuthRepo) RevokeRefreshToken(ctx context.Context, id string, revokedAt time.Time) error {
	m.revokedTokens = append(m.revokedTokens, id)
	for _, rt := range m.refreshTokens {
		if rt.ID == id {
			rt.Revoked = true
		}
	}
	return nil
}

func testAuthConfig() AuthConfig {
	return AuthConfig{
		AccessTokenSecret:  "secret",
		AccessTokenExpiry:  15 * time.Minute,
		RefreshTokenExpiry: 24 * time.Hour,
		Issuer:             "youscore-api",
		Audience:           []string{"youscore"},
	}
}

func seedUser(t *testing.T, repo *mockAuthRepo, email, password string) *models.User {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	require.NoError(t, err)
	user := &models.User{ID: "user-1", Email: email, PasswordHash: string(hash), FullName: "An", Active: true}
	repo.users[user.ID] = user
	return user
}

func TestAuthServiceSignUpAndLogin(t *testing.T) {
	repo := newMockAuthRepo()
	svc := NewAuthService(repo, nil, nil, nil, testAuthConfig())

	session, err := svc.SignUp(context.Background(), models.SignUpRequest{
		Email:    "An@Example.com",
		Password: "secret123",
		FullName: "Nguyễn Văn An",
	})
	require.NoError(t, err)
	assert.NotEmpty(t, session.AccessToken)
	assert.NotEmpty(t, session.RefreshToken)
	assert.Equal(t, "an@example.com", session.User.Email)

	login, err := svc.Login(context.Background(), models.LoginRequest{Email: "an@example.com", Password: "secret123"})
	require.NoError(t, err)
	assert.NotEmpty(t, login.AccessToken)
}

func TestAuthServiceLoginWrongPassword(t *testing.T) {
	repo := newMockAuthRepo()
	seedUser(t, repo, "an@example.com", "right-password")
	svc := NewAuthService(repo, nil, nil, nil, testAuthConfig())

	_, err := svc.Login(context.Background(), models.LoginRequest{Email: "an@example.com", Password: "wrong"})
	require.Error(t, err)

	var appErr *appErrors.Error
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, appErrors.ErrInvalidCredentials.Code, appErr.Code)
}

func TestAuthServiceLoginInactiveAccount(t *testing.T) {
	repo := newMockAuthRepo()
	user := seedUser(t, repo, "an@example.com", "secret123")
	user.Active = false
	svc := NewAuthService(repo, nil, nil, nil, testAuthConfig())

	_, err := svc.Login(context.Background(), models.LoginRequest{Email: "an@example.com", Password: "secret123"})
	require.Error(t, err)

	var appErr *appErrors.Error
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, appErrors.ErrInactiveAccount.Code, appErr.Code)
}

func TestAuthServiceValidateToken(t *testing.T) {
	repo := newMockAuthRepo()
	seedUser(t, repo, "an@example.com", "secret123")
	svc := NewAuthService(repo, nil, nil, nil, testAuthConfig())

	session, err := svc.Login(context.Background(), models.LoginRequest{Email: "an@example.com", Password: "secret123"})
	require.NoError(t, err)

	claims, err := svc.ValidateToken(session.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, "user-1", claims.UserID)
	assert.Equal(t, "an@example.com", claims.Email)

	_, err = svc.ValidateToken("not-a-token")
	assert.Error(t, err)
}

func TestAuthServiceRefreshRotatesToken(t *testing.T) {
	repo := newMockAuthRepo()
	seedUser(t, repo, "an@example.com", "secret123")
	svc := NewAuthService(repo, nil, nil, nil, testAuthConfig())

	session, err := svc.Login(context.Background(), models.LoginRequest{Email: "an@example.com", Password: "secret123"})
	require.NoError(t, err)

	refreshed, err := svc.RefreshToken(context.Background(), models.RefreshTokenRequest{RefreshToken: session.RefreshToken})
	require.NoError(t, err)
	assert.NotEqual(t, session.RefreshToken, refreshed.RefreshToken)
	assert.NotEmpty(t, repo.revokedTokens)

	// the consumed token must not be reusable
	_, err = svc.RefreshToken(context.Background(), models.RefreshTokenRequest{RefreshToken: session.RefreshToken})
	assert.Error(t, err)
}

func TestAuthServiceChangePassword(t *testing.T) {
	repo := newMockAuthRepo()
	seedUser(t, repo, "an@example.com", "secret123")
	svc := NewAuthService(repo, nil, nil, nil, testAuthConfig())

	err := svc.ChangePassword(context.Background(), "user-1", models.ChangePasswordRequest{
		OldPassword: "secret123",
		NewPassword: "newsecret456",
	})
	require.NoError(t, err)

	_, err = svc.Login(context.Background(), models.LoginRequest{Email: "an@example.com", Password: "newsecret456"})
	assert.NoError(t, err)
}

func TestAuthServiceDeleteAccount(t *testing.T) {
	repo := newMockAuthRepo()
	seedUser(t, repo, "an@example.com", "secret123")
	cache := newMockCache()
	cache.store["youscore:scores:user-1"] = []byte(`[]`)
	cache.store["youscore:settings:user-1"] = []byte(`{}`)
	svc := NewAuthService(repo, cache, nil, nil, testAuthConfig())

	session, err := svc.Login(context.Background(), models.LoginRequest{Email: "an@example.com", Password: "secret123"})
	require.NoError(t, err)

	err = svc.DeleteAccount(context.Background(), "user-1", models.DeleteAccountRequest{Password: "secret123"})
	require.NoError(t, err)

	// The account is gone and the old session cannot be renewed.
	_, err = svc.Login(context.Background(), models.LoginRequest{Email: "an@example.com", Password: "secret123"})
	assert.Error(t, err)
	_, err = svc.RefreshToken(context.Background(), models.RefreshTokenRequest{RefreshToken: session.RefreshToken})
	assert.Error(t, err)

	// The Redis mirrors are dropped as well.
	assert.NotContains(t, cache.store, "youscore:scores:user-1")
	assert.NotContains(t, cache.store, "youscore:settings:user-1")
}

func TestAuthServiceDeleteAccountWrongPassword(t *testing.T) {
	repo := newMockAuthRepo()
	seedUser(t, repo, "an@example.com", "secret123")
	svc := NewAuthService(repo, nil, nil, nil, testAuthConfig())

	err := svc.DeleteAccount(context.Background(), "user-1", models.DeleteAccountRequest{Password: "wrong"})
	require.Error(t, err)

	var appErr *appErrors.Error
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, appErrors.ErrForbidden.Code, appErr.Code)
	assert.Contains(t, repo.users, "user-1")
}

func TestAuthServiceChangePasswordWrongOld(t *testing.T) {
	repo := newMockAuthRepo()
	seedUser(t, repo, "an@example.com", "secret123")
	svc := NewAuthService(repo, nil, nil, nil, testAuthConfig())

	err := svc.ChangePassword(context.Background(), "user-1", models.ChangePasswordRequest{
		OldPassword: "wrong",
		NewPassword: "newsecret456",
	})
	require.Error(t, err)

	var appErr *appErrors.Error
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, appErrors.ErrForbidden.Code, appErr.Code)
}
