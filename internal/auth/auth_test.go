package auth

import (
	"context"
	"testing"
	"time"

	"lawnly/internal/config"
	"lawnly/internal/database"
	"lawnly/internal/models"
	"lawnly/internal/repository"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupManager(t *testing.T) (*Manager, *database.DB) {
	t.Helper()
	logger := zerolog.Nop()
	db, err := database.NewDB(":memory:", &logger)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	cfg := config.AuthConfig{
		JWTSecret:         "test-secret",
		AccessTokenTTLSec: 3600,
		SessionTTLSec:     86400,
		ResetTokenTTLSec:  900,
		BcryptCost:        4, // keep the test fast
	}
	sessions := repository.NewMemorySessionRepository(cfg.SessionTTL())
	return NewManager(db, sessions, cfg, &logger), db
}

func TestSignUp(t *testing.T) {
	m, _ := setupManager(t)
	ctx := context.Background()

	t.Run("customer", func(t *testing.T) {
		result, err := m.SignUp(ctx, SignUpInput{
			Email:    "Pat@Example.com",
			Password: "password123",
			FullName: "Pat Customer",
			Role:     models.RoleCustomer,
			Address:  "12 Elm St",
		})
		require.NoError(t, err)
		require.NotNil(t, result.Profile)
		assert.Equal(t, "pat@example.com", result.Profile.Email)
		assert.Equal(t, models.RoleCustomer, result.Profile.Role)
		require.NotNil(t, result.Profile.Customer)
		assert.Equal(t, "12 Elm St", result.Profile.Customer.Address)
		assert.NotEmpty(t, result.AccessToken)
		assert.NotEmpty(t, result.Session.ID)
	})

	t.Run("provider with areas", func(t *testing.T) {
		result, err := m.SignUp(ctx, SignUpInput{
			Email:        "crew@example.com",
			Password:     "password123",
			FullName:     "Green Crew",
			Role:         models.RoleProvider,
			BusinessName: "Green Crew LLC",
			ServiceAreas: []string{"north", "south"},
		})
		require.NoError(t, err)
		require.NotNil(t, result.Profile.Provider)
		assert.Equal(t, "Green Crew LLC", result.Profile.Provider.BusinessName)
		assert.Equal(t, []string{"north", "south"}, result.Profile.Provider.ServiceAreas)
	})

	t.Run("duplicate email", func(t *testing.T) {
		_, err := m.SignUp(ctx, SignUpInput{
			Email:    "pat@example.com",
			Password: "password123",
			Role:     models.RoleCustomer,
		})
		assert.ErrorIs(t, err, ErrEmailTaken)
	})

	t.Run("admin cannot self-register", func(t *testing.T) {
		_, err := m.SignUp(ctx, SignUpInput{
			Email:    "boss@example.com",
			Password: "password123",
			Role:     models.RoleAdmin,
		})
		assert.Error(t, err)
	})

	t.Run("short password", func(t *testing.T) {
		_, err := m.SignUp(ctx, SignUpInput{
			Email:    "short@example.com",
			Password: "abc",
			Role:     models.RoleCustomer,
		})
		assert.ErrorIs(t, err, ErrWeakPassword)
	})
}

func TestSignInAndOut(t *testing.T) {
	m, _ := setupManager(t)
	ctx := context.Background()

	_, err := m.SignUp(ctx, SignUpInput{
		Email:    "user@example.com",
		Password: "password123",
		FullName: "User",
		Role:     models.RoleCustomer,
	})
	require.NoError(t, err)

	t.Run("valid credentials", func(t *testing.T) {
		result, err := m.SignIn(ctx, "user@example.com", "password123")
		require.NoError(t, err)
		assert.Equal(t, "User", result.Profile.FullName)
		assert.NotEmpty(t, result.AccessToken)

		session, err := m.Authenticate(ctx, result.AccessToken)
		require.NoError(t, err)
		assert.Equal(t, result.Session.ID, session.ID)
		assert.Equal(t, models.RoleCustomer, session.Role)
	})

	t.Run("wrong password", func(t *testing.T) {
		_, err := m.SignIn(ctx, "user@example.com", "wrong-password")
		assert.ErrorIs(t, err, ErrInvalidCredentials)
	})

	t.Run("unknown email", func(t *testing.T) {
		_, err := m.SignIn(ctx, "ghost@example.com", "password123")
		assert.ErrorIs(t, err, ErrInvalidCredentials)
	})

	t.Run("sign out revokes the session", func(t *testing.T) {
		result, err := m.SignIn(ctx, "user@example.com", "password123")
		require.NoError(t, err)

		require.NoError(t, m.SignOut(ctx, result.Session.ID))

		_, err = m.Authenticate(ctx, result.AccessToken)
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("garbage token", func(t *testing.T) {
		_, err := m.Authenticate(ctx, "not-a-token")
		assert.ErrorIs(t, err, ErrInvalidToken)
	})
}

func TestSignInRateLimit(t *testing.T) {
	m, _ := setupManager(t)
	ctx := context.Background()

	_, err := m.SignUp(ctx, SignUpInput{
		Email:    "target@example.com",
		Password: "password123",
		Role:     models.RoleCustomer,
	})
	require.NoError(t, err)

	for i := 0; i < signInAttemptLimit; i++ {
		_, err := m.SignIn(ctx, "target@example.com", "wrong")
		assert.ErrorIs(t, err, ErrInvalidCredentials)
	}

	_, err = m.SignIn(ctx, "target@example.com", "password123")
	assert.ErrorIs(t, err, ErrRateLimited)
}

func TestPasswordReset(t *testing.T) {
	m, _ := setupManager(t)
	ctx := context.Background()

	_, err := m.SignUp(ctx, SignUpInput{
		Email:    "reset@example.com",
		Password: "password123",
		Role:     models.RoleCustomer,
	})
	require.NoError(t, err)

	t.Run("full flow", func(t *testing.T) {
		token, err := m.RequestPasswordReset(ctx, "reset@example.com")
		require.NoError(t, err)
		require.NotEmpty(t, token)

		require.NoError(t, m.ResetPassword(ctx, token, "new-password-1"))

		_, err = m.SignIn(ctx, "reset@example.com", "password123")
		assert.ErrorIs(t, err, ErrInvalidCredentials)

		result, err := m.SignIn(ctx, "reset@example.com", "new-password-1")
		require.NoError(t, err)
		assert.NotEmpty(t, result.AccessToken)
	})

	t.Run("token is single use", func(t *testing.T) {
		token, err := m.RequestPasswordReset(ctx, "reset@example.com")
		require.NoError(t, err)

		require.NoError(t, m.ResetPassword(ctx, token, "new-password-2"))
		err = m.ResetPassword(ctx, token, "new-password-3")
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("unknown email leaks nothing", func(t *testing.T) {
		token, err := m.RequestPasswordReset(ctx, "ghost@example.com")
		require.NoError(t, err)
		assert.Empty(t, token)
	})
}

func TestTokenManager(t *testing.T) {
	tm := NewTokenManager("secret", time.Hour)
	session := &models.Session{ID: "sess-1", UserID: "user-1", Role: models.RoleProvider}

	raw, err := tm.Issue(session)
	require.NoError(t, err)

	claims, err := tm.Parse(raw)
	require.NoError(t, err)
	assert.Equal(t, "user-1", claims.Subject)
	assert.Equal(t, "sess-1", claims.ID)
	assert.Equal(t, "provider", claims.Role)

	t.Run("wrong secret rejected", func(t *testing.T) {
		other := NewTokenManager("other-secret", time.Hour)
		_, err := other.Parse(raw)
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("expired token rejected", func(t *testing.T) {
		expired := NewTokenManager("secret", -time.Hour)
		raw, err := expired.Issue(session)
		require.NoError(t, err)

		_, err = tm.Parse(raw)
		assert.ErrorIs(t, err, ErrInvalidToken)
	})
}
