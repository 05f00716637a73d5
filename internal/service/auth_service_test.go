package service

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/campushub/grade-portal-api/internal/models"
	appErrors "github.com/campushub/grade-portal-api/pkg/errors"
)

type authRepoStub struct {
	users         map[string]*models.User
	refreshTokens map[string]*models.RefreshToken
	created       *models.User
	revokedIDs    []string
}

func newAuthRepoStub() *authRepoStub {
	return &authRepoStub{
		users:         map[string]*models.User{},
		refreshTokens: map[string]*models.RefreshToken{},
	}
}

func (s *authRepoStub) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	for _, u := range s.users {
		if u.Email == email {
			return u, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (s *authRepoStub) FindByID(ctx context.Context, id string) (*models.User, error) {
	if u, ok := s.users[id]; ok {
		return u, nil
	}
	return nil, sql.ErrNoRows
}

func (s *authRepoStub) Create(ctx context.Context, user *models.User) error {
	user.ID = "usr-new"
	s.users[user.ID] = user
	s.created = user
	return nil
}

func (s *authRepoStub) UpdateLastLogin(ctx context.Context, id string, ts time.Time) error {
	return nil
}

func (s *authRepoStub) CreateRefreshToken(ctx context.Context, token *models.RefreshToken) error {
	s.refreshTokens[token.Token] = token
	return nil
}

func (s *authRepoStub) FindRefreshToken(ctx context.Context, token string) (*models.RefreshToken, error) {
	if t, ok := s.refreshTokens[token]; ok {
		return t, nil
	}
	return nil, sql.ErrNoRows
}

func (s *authRepoStub) RevokeRefreshToken(ctx context.Context, id string, revokedAt time.Time) error {
	s.revokedIDs = append(s.revokedIDs, id)
	for _, t := range s.refreshTokens {
		if t.ID == id {
			t.Revoked = true
			t.RevokedAt = &revokedAt
		}
	}
	return nil
}

func testAuthConfig() AuthConfig {
	return AuthConfig{
		AccessTokenSecret:  "test-secret",
		AccessTokenExpiry:  time.Hour,
		RefreshTokenExpiry: 24 * time.Hour,
		Issuer:             "grade-portal",
	}
}

func seedUser(t *testing.T, repo *authRepoStub, password string, active bool) *models.User {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	require.NoError(t, err)
	user := &models.User{
		ID:           "usr-1",
		Email:        "student@example.edu",
		PasswordHash: string(hash),
		FullName:     "Test Student",
		Role:         models.RoleStudent,
		Active:       active,
	}
	repo.users[user.ID] = user
	return user
}

func TestLoginSuccessIssuesTokens(t *testing.T) {
	repo := newAuthRepoStub()
	seedUser(t, repo, "secret-pass", true)
	svc := NewAuthService(repo, nil, nil, testAuthConfig())

	resp, err := svc.Login(context.Background(), models.LoginRequest{
		Email:    "student@example.edu",
		Password: "secret-pass",
	})
	require.NoError(t, err)
	assert.NotEmpty(t, resp.AccessToken)
	assert.NotEmpty(t, resp.RefreshToken)
	assert.Equal(t, "usr-1", resp.User.ID)
	assert.Equal(t, models.RoleStudent, resp.User.Role)

	claims, err := svc.ValidateToken(resp.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, "usr-1", claims.UserID)
	assert.Equal(t, models.RoleStudent, claims.Role)
}

func TestLoginWrongPassword(t *testing.T) {
	repo := newAuthRepoStub()
	seedUser(t, repo, "secret-pass", true)
	svc := NewAuthService(repo, nil, nil, testAuthConfig())

	_, err := svc.Login(context.Background(), models.LoginRequest{
		Email:    "student@example.edu",
		Password: "wrong",
	})
	assert.Equal(t, appErrors.ErrInvalidCredentials.Code, appErrorCode(t, err))
}

func TestLoginUnknownEmailMatchesWrongPasswordError(t *testing.T) {
	svc := NewAuthService(newAuthRepoStub(), nil, nil, testAuthConfig())

	_, err := svc.Login(context.Background(), models.LoginRequest{
		Email:    "ghost@example.edu",
		Password: "whatever",
	})
	assert.Equal(t, appErrors.ErrInvalidCredentials.Code, appErrorCode(t, err))
}

func TestLoginInactiveAccount(t *testing.T) {
	repo := newAuthRepoStub()
	seedUser(t, repo, "secret-pass", false)
	svc := NewAuthService(repo, nil, nil, testAuthConfig())

	_, err := svc.Login(context.Background(), models.LoginRequest{
		Email:    "student@example.edu",
		Password: "secret-pass",
	})
	assert.Equal(t, appErrors.ErrInactiveAccount.Code, appErrorCode(t, err))
}

func TestRegisterCreatesStudentAndLogsIn(t *testing.T) {
	repo := newAuthRepoStub()
	svc := NewAuthService(repo, nil, nil, testAuthConfig())

	resp, err := svc.Register(context.Background(), models.RegisterRequest{
		Email:    "New.Student@Example.edu",
		Password: "secret-pass",
		FullName: "New Student",
	})
	require.NoError(t, err)
	require.NotNil(t, repo.created)
	assert.Equal(t, models.RoleStudent, repo.created.Role)
	assert.Equal(t, "new.student@example.edu", repo.created.Email)
	assert.True(t, repo.created.Active)
	assert.NotEmpty(t, resp.AccessToken)
}

func TestRegisterDuplicateEmail(t *testing.T) {
	repo := newAuthRepoStub()
	seedUser(t, repo, "secret-pass", true)
	svc := NewAuthService(repo, nil, nil, testAuthConfig())

	_, err := svc.Register(context.Background(), models.RegisterRequest{
		Email:    "student@example.edu",
		Password: "secret-pass",
		FullName: "Copy Cat",
	})
	assert.Equal(t, appErrors.ErrConflict.Code, appErrorCode(t, err))
}

func TestRefreshTokenRotates(t *testing.T) {
	repo := newAuthRepoStub()
	seedUser(t, repo, "secret-pass", true)
	svc := NewAuthService(repo, nil, nil, testAuthConfig())

	login, err := svc.Login(context.Background(), models.LoginRequest{
		Email:    "student@example.edu",
		Password: "secret-pass",
	})
	require.NoError(t, err)

	refreshed, err := svc.RefreshToken(context.Background(), models.RefreshTokenRequest{RefreshToken: login.RefreshToken})
	require.NoError(t, err)
	assert.NotEqual(t, login.RefreshToken, refreshed.RefreshToken)

	// used token is revoked, replaying it fails
	_, err = svc.RefreshToken(context.Background(), models.RefreshTokenRequest{RefreshToken: login.RefreshToken})
	assert.Equal(t, appErrors.ErrUnauthorized.Code, appErrorCode(t, err))
}

func TestRefreshTokenUnknown(t *testing.T) {
	svc := NewAuthService(newAuthRepoStub(), nil, nil, testAuthConfig())

	_, err := svc.RefreshToken(context.Background(), models.RefreshTokenRequest{RefreshToken: "bogus"})
	assert.Equal(t, appErrors.ErrUnauthorized.Code, appErrorCode(t, err))
}

func TestLogoutRevokesToken(t *testing.T) {
	repo := newAuthRepoStub()
	seedUser(t, repo, "secret-pass", true)
	svc := NewAuthService(repo, nil, nil, testAuthConfig())

	login, err := svc.Login(context.Background(), models.LoginRequest{
		Email:    "student@example.edu",
		Password: "secret-pass",
	})
	require.NoError(t, err)

	require.NoError(t, svc.Logout(context.Background(), login.RefreshToken, "usr-1"))
	assert.NotEmpty(t, repo.revokedIDs)
}

func TestLogoutForeignTokenForbidden(t *testing.T) {
	repo := newAuthRepoStub()
	seedUser(t, repo, "secret-pass", true)
	svc := NewAuthService(repo, nil, nil, testAuthConfig())

	login, err := svc.Login(context.Background(), models.LoginRequest{
		Email:    "student@example.edu",
		Password: "secret-pass",
	})
	require.NoError(t, err)

	err = svc.Logout(context.Background(), login.RefreshToken, "usr-2")
	assert.Equal(t, appErrors.ErrForbidden.Code, appErrorCode(t, err))
}

func TestValidateTokenRejectsTampered(t *testing.T) {
	repo := newAuthRepoStub()
	seedUser(t, repo, "secret-pass", true)
	svc := NewAuthService(repo, nil, nil, testAuthConfig())

	login, err := svc.Login(context.Background(), models.LoginRequest{
		Email:    "student@example.edu",
		Password: "secret-pass",
	})
	require.NoError(t, err)

	other := NewAuthService(repo, nil, nil, AuthConfig{
		AccessTokenSecret: "different-secret",
		AccessTokenExpiry: time.Hour,
	})
	_, err = other.ValidateToken(login.AccessToken)
	assert.Equal(t, appErrors.ErrUnauthorized.Code, appErrorCode(t, err))
}
