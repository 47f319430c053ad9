package auth

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"time"

	"lawnly/internal/config"
	"lawnly/internal/database"
	"lawnly/internal/domain"
	"lawnly/internal/models"
	"lawnly/internal/repository"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"
)

var (
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrRateLimited        = errors.New("too many attempts, try again later")
	ErrEmailTaken         = errors.New("email already registered")
	ErrWeakPassword       = errors.New("password must be at least 8 characters")
)

const (
	signInAttemptLimit  = 5
	signInAttemptWindow = 15 * time.Minute
	minPasswordLength   = 8
)

// SignUpInput carries registration data. Role-specific fields are applied
// only when they match the chosen role.
type SignUpInput struct {
	Email    string
	Password string
	FullName string
	Phone    string
	Role     models.Role

	// Customer fields.
	Address string

	// Provider fields.
	BusinessName string
	Bio          string
	ServiceAreas []string
}

// Result is what both SignUp and SignIn hand back to the transport layer.
type Result struct {
	Profile     *models.Profile
	Session     *models.Session
	AccessToken string
}

// Manager owns identities, sessions and access tokens.
type Manager struct {
	accessor   domain.Accessor
	sessions   domain.SessionRepository
	tokens     *TokenManager
	sessionTTL time.Duration
	resetTTL   time.Duration
	bcryptCost int
	log        zerolog.Logger
}

func NewManager(accessor domain.Accessor, sessions domain.SessionRepository, cfg config.AuthConfig, logger *zerolog.Logger) *Manager {
	cost := cfg.BcryptCost
	if cost == 0 {
		cost = bcrypt.DefaultCost
	}

	var log zerolog.Logger
	if logger != nil {
		log = logger.With().Str("component", "auth").Logger()
	}

	return &Manager{
		accessor:   accessor,
		sessions:   sessions,
		tokens:     NewTokenManager(cfg.JWTSecret, cfg.AccessTokenTTL()),
		sessionTTL: cfg.SessionTTL(),
		resetTTL:   cfg.ResetTokenTTL(),
		bcryptCost: cost,
		log:        log,
	}
}

// SignUp registers a user, creates the profile with its role extension and
// opens a session. Admin accounts cannot self-register.
func (m *Manager) SignUp(ctx context.Context, input SignUpInput) (*Result, error) {
	email := strings.ToLower(strings.TrimSpace(input.Email))
	if email == "" {
		return nil, fmt.Errorf("email is required")
	}
	if len(input.Password) < minPasswordLength {
		return nil, ErrWeakPassword
	}
	if input.Role != models.RoleCustomer && input.Role != models.RoleProvider {
		return nil, fmt.Errorf("role must be customer or provider")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(input.Password), m.bcryptCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user := &models.User{
		Email:        email,
		PasswordHash: string(hash),
		Role:         input.Role,
	}
	if err := m.accessor.CreateUser(ctx, user); err != nil {
		if errors.Is(err, database.ErrDuplicateEmail) {
			return nil, ErrEmailTaken
		}
		return nil, err
	}

	profile := &models.Profile{
		ID:       user.ID,
		Email:    email,
		Role:     input.Role,
		FullName: strings.TrimSpace(input.FullName),
		Phone:    strings.TrimSpace(input.Phone),
	}
	if err := m.accessor.CreateProfile(ctx, profile); err != nil {
		return nil, err
	}

	switch input.Role {
	case models.RoleCustomer:
		ext := &models.CustomerExtension{Address: strings.TrimSpace(input.Address)}
		if err := m.accessor.UpsertCustomerExtension(ctx, user.ID, ext); err != nil {
			return nil, err
		}
		profile.Customer = ext
	case models.RoleProvider:
		ext := &models.ProviderExtension{
			BusinessName: strings.TrimSpace(input.BusinessName),
			Bio:          input.Bio,
			ServiceAreas: input.ServiceAreas,
		}
		if err := m.accessor.UpsertProviderExtension(ctx, user.ID, ext); err != nil {
			return nil, err
		}
		profile.Provider = ext
	}

	result, err := m.openSession(ctx, user.ID, input.Role, profile)
	if err != nil {
		return nil, err
	}

	m.log.Info().Str("user_id", user.ID).Str("role", string(input.Role)).Msg("user registered")
	return result, nil
}

// SignIn checks credentials and opens a session. Attempts are rate limited
// per email address.
func (m *Manager) SignIn(ctx context.Context, email, password string) (*Result, error) {
	email = strings.ToLower(strings.TrimSpace(email))

	allowed, err := m.sessions.CheckRateLimit(ctx, "signin:"+email, signInAttemptLimit, signInAttemptWindow)
	if err != nil {
		m.log.Warn().Err(err).Msg("rate limit check failed, allowing attempt")
	} else if !allowed {
		return nil, ErrRateLimited
	}

	user, err := m.accessor.GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}

	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)) != nil {
		return nil, ErrInvalidCredentials
	}

	profile, err := m.accessor.GetProfile(ctx, user.ID)
	if err != nil {
		return nil, err
	}

	result, err := m.openSession(ctx, user.ID, user.Role, profile)
	if err != nil {
		return nil, err
	}

	m.log.Info().Str("user_id", user.ID).Msg("user signed in")
	return result, nil
}

// SignOut revokes the session behind a token.
func (m *Manager) SignOut(ctx context.Context, sessionID string) error {
	return m.sessions.DeleteSession(ctx, sessionID)
}

// Authenticate resolves a bearer token into a live session. A valid token
// whose session was revoked is rejected.
func (m *Manager) Authenticate(ctx context.Context, rawToken string) (*models.Session, error) {
	claims, err := m.tokens.Parse(rawToken)
	if err != nil {
		return nil, err
	}

	session, err := m.sessions.GetSession(ctx, claims.ID)
	if err != nil {
		if errors.Is(err, repository.ErrSessionNotFound) {
			return nil, ErrInvalidToken
		}
		return nil, err
	}

	if session.UserID != claims.Subject {
		return nil, ErrInvalidToken
	}
	return session, nil
}

// RequestPasswordReset issues a single-use reset token. A missing email
// yields the same empty answer so the endpoint cannot be used to probe
// registered addresses.
func (m *Manager) RequestPasswordReset(ctx context.Context, email string) (string, error) {
	email = strings.ToLower(strings.TrimSpace(email))

	user, err := m.accessor.GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return "", nil
		}
		return "", err
	}

	token, err := randomToken()
	if err != nil {
		return "", err
	}

	if err := m.sessions.SaveResetToken(ctx, token, user.ID, m.resetTTL); err != nil {
		return "", err
	}

	m.log.Info().Str("user_id", user.ID).Msg("password reset requested")
	return token, nil
}

// ResetPassword consumes a reset token and replaces the password.
func (m *Manager) ResetPassword(ctx context.Context, token, newPassword string) error {
	if len(newPassword) < minPasswordLength {
		return ErrWeakPassword
	}

	userID, err := m.sessions.ConsumeResetToken(ctx, token)
	if err != nil {
		if errors.Is(err, repository.ErrSessionNotFound) {
			return ErrInvalidToken
		}
		return err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(newPassword), m.bcryptCost)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}

	if err := m.accessor.UpdateUserPassword(ctx, userID, string(hash)); err != nil {
		return err
	}

	m.log.Info().Str("user_id", userID).Msg("password reset completed")
	return nil
}

func (m *Manager) openSession(ctx context.Context, userID string, role models.Role, profile *models.Profile) (*Result, error) {
	now := time.Now().UTC()
	session := &models.Session{
		ID:        uuid.NewString(),
		UserID:    userID,
		Role:      role,
		CreatedAt: now,
		ExpiresAt: now.Add(m.sessionTTL),
	}

	if err := m.sessions.SaveSession(ctx, session); err != nil {
		return nil, fmt.Errorf("failed to save session: %w", err)
	}

	token, err := m.tokens.Issue(session)
	if err != nil {
		return nil, err
	}

	return &Result{Profile: profile, Session: session, AccessToken: token}, nil
}

func randomToken() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("failed to generate token: %w", err)
	}
	return hex.EncodeToString(buf), nil
}
