package service

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/alhisab/school-fees-api/internal/models"
	appErrors "github.com/alhisab/school-fees-api/pkg/errors"
)

type mockAuthRepo struct {
	userByEmail    *models.User
	userByID       *models.User
	findByEmailErr error
	users          []models.User
	refreshTokens  map[string]*models.RefreshToken
	created        *models.User
	deactivated    []string
	revokedAll     []string
	lastLoginSet   bool
}

func (m *mockAuthRepo) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	if m.findByEmailErr != nil {
		return nil, m.findByEmailErr
	}
	if m.userByEmail == nil {
		return nil, sql.ErrNoRows
	}
	return m.userByEmail, nil
}

func (m *mockAuthRepo) FindByID(ctx context.Context, id string) (*models.User, error) {
	if m.userByID == nil {
		return nil, sql.ErrNoRows
	}
	return m.userByID, nil
}

func (m *mockAuthRepo) List(ctx context.Context) ([]models.User, error) {
	return m.users, nil
}

func (m *mockAuthRepo) Create(ctx context.Context, user *models.User) error {
	user.ID = "usr-1"
	m.created = user
	return nil
}

func (m *mockAuthRepo) Update(ctx context.Context, user *models.User) error {
	return nil
}

func (m *mockAuthRepo) UpdateLastLogin(ctx context.Context, id string, ts time.Time) error {
	m.lastLoginSet = true
	return nil
}

func (m *mockAuthRepo) Deactivate(ctx context.Context, id string) error {
	m.deactivated = append(m.deactivated, id)
	return nil
}

func (m *mockAuthRepo) CreateRefreshToken(ctx context.Context, token *models.RefreshToken) error {
	if m.refreshTokens == nil {
		m.refreshTokens = make(map[string]*models.RefreshToken)
	}
	m.refreshTokens[token.Token] = token
	return nil
}

func (m *mockAuthRepo) FindRefreshToken(ctx context.Context, token string) (*models.RefreshToken, error) {
	rt, ok := m.refreshTokens[token]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return rt, nil
}

func (m *mockAuthRepo) RevokeRefreshToken(ctx context.Context, id string, revokedAt time.Time) error {
	for _, rt := range m.refreshTokens {
		if rt.ID == id {
			rt.RevokedAt = &revokedAt
		}
	}
	return nil
}

func (m *mockAuthRepo) RevokeUserRefreshTokens(ctx context.Context, userID string) error {
	m.revokedAll = append(m.revokedAll, userID)
	return nil
}

func newAuthService(repo *mockAuthRepo) *AuthService {
	return NewAuthService(repo, nil, nil, AuthConfig{
		AccessTokenSecret:  "test-secret",
		AccessTokenExpiry:  time.Hour,
		RefreshTokenExpiry: 24 * time.Hour,
		Issuer:             "school-fees-api",
	})
}

func hashPassword(t *testing.T, raw string) string {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(raw), bcrypt.MinCost)
	require.NoError(t, err)
	return string(hash)
}

func TestAuthServiceLogin(t *testing.T) {
	repo := &mockAuthRepo{userByEmail: &models.User{
		ID:           "usr-1",
		Email:        "admin@school.iq",
		PasswordHash: hashPassword(t, "secret123"),
		Role:         models.RoleAdmin,
		Active:       true,
	}}
	svc := newAuthService(repo)

	resp, err := svc.Login(context.Background(), models.LoginRequest{Email: "admin@school.iq", Password: "secret123"})
	require.NoError(t, err)
	assert.NotEmpty(t, resp.AccessToken)
	assert.NotEmpty(t, resp.RefreshToken)
	assert.True(t, repo.lastLoginSet)

	claims, err := svc.ValidateToken(resp.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, "usr-1", claims.UserID)
	assert.Equal(t, models.RoleAdmin, claims.Role)
}

func TestAuthServiceLoginWrongPassword(t *testing.T) {
	repo := &mockAuthRepo{userByEmail: &models.User{
		Email:        "admin@school.iq",
		PasswordHash: hashPassword(t, "secret123"),
		Active:       true,
	}}
	svc := newAuthService(repo)

	_, err := svc.Login(context.Background(), models.LoginRequest{Email: "admin@school.iq", Password: "wrong"})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrInvalidCredentials.Code, appErrors.FromError(err).Code)
}

func TestAuthServiceLoginInactive(t *testing.T) {
	repo := &mockAuthRepo{userByEmail: &models.User{
		Email:        "admin@school.iq",
		PasswordHash: hashPassword(t, "secret123"),
		Active:       false,
	}}
	svc := newAuthService(repo)

	_, err := svc.Login(context.Background(), models.LoginRequest{Email: "admin@school.iq", Password: "secret123"})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrInactiveAccount.Code, appErrors.FromError(err).Code)
}

func TestAuthServiceRefreshRotates(t *testing.T) {
	user := &models.User{ID: "usr-1", Email: "a@b.c", Active: true}
	repo := &mockAuthRepo{
		userByID: user,
		refreshTokens: map[string]*models.RefreshToken{
			"old-token": {ID: "rt-1", UserID: "usr-1", Token: "old-token", ExpiresAt: time.Now().Add(time.Hour)},
		},
	}
	svc := newAuthService(repo)

	resp, err := svc.Refresh(context.Background(), RefreshRequest{RefreshToken: "old-token"})
	require.NoError(t, err)
	assert.NotEqual(t, "old-token", resp.RefreshToken)
	assert.NotNil(t, repo.refreshTokens["old-token"].RevokedAt)
}

func TestAuthServiceRefreshExpired(t *testing.T) {
	repo := &mockAuthRepo{
		refreshTokens: map[string]*models.RefreshToken{
			"stale": {ID: "rt-1", UserID: "usr-1", Token: "stale", ExpiresAt: time.Now().Add(-time.Hour)},
		},
	}
	svc := newAuthService(repo)

	_, err := svc.Refresh(context.Background(), RefreshRequest{RefreshToken: "stale"})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrUnauthorized.Code, appErrors.FromError(err).Code)
}

func TestAuthServiceCreateAccountant(t *testing.T) {
	repo := &mockAuthRepo{}
	svc := newAuthService(repo)

	user, err := svc.CreateAccountant(context.Background(), CreateAccountantRequest{
		Email:    "cashier@school.iq",
		Password: "longenough",
		FullName: "Huda Salim",
	})
	require.NoError(t, err)
	assert.Equal(t, models.RoleAccountant, user.Role)
	assert.True(t, user.Active)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte("longenough")))
}

func TestAuthServiceCreateAccountantDuplicateEmail(t *testing.T) {
	repo := &mockAuthRepo{userByEmail: &models.User{Email: "cashier@school.iq"}}
	svc := newAuthService(repo)

	_, err := svc.CreateAccountant(context.Background(), CreateAccountantRequest{
		Email:    "cashier@school.iq",
		Password: "longenough",
		FullName: "Huda Salim",
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrConflict.Code, appErrors.FromError(err).Code)
}

func TestAuthServiceDeactivateRevokesTokens(t *testing.T) {
	repo := &mockAuthRepo{userByID: &models.User{ID: "usr-1"}}
	svc := newAuthService(repo)

	require.NoError(t, svc.DeactivateAccountant(context.Background(), "usr-1"))
	assert.Equal(t, []string{"usr-1"}, repo.deactivated)
	assert.Equal(t, []string{"usr-1"}, repo.revokedAll)
}
