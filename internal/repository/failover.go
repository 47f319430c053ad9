package repository

import (
	"context"
	"errors"
	"sync/atomic"
	"time"

	"lawnly/internal/domain"
	"lawnly/internal/models"

	"github.com/rs/zerolog"
)

type FailoverSessionRepository struct {
	primary   domain.SessionRepository
	fallback  domain.SessionRepository
	logger    *zerolog.Logger
	isDown    atomic.Bool
	lastCheck time.Time
}

func NewFailoverSessionRepository(primary, fallback domain.SessionRepository, logger *zerolog.Logger) *FailoverSessionRepository {
	return &FailoverSessionRepository{
		primary:  primary,
		fallback: fallback,
		logger:   logger,
	}
}

// markDown flips to the fallback after an infrastructure error. A missing
// session is a normal answer, not a failure.
func (r *FailoverSessionRepository) markDown(err error) {
	r.logger.Error().Err(err).Msg("Primary session repository failed, falling back to memory")
	r.isDown.Store(true)
	r.lastCheck = time.Now()
}

func (r *FailoverSessionRepository) SaveSession(ctx context.Context, session *models.Session) error {
	if !r.isDown.Load() {
		err := r.primary.SaveSession(ctx, session)
		if err == nil {
			return nil
		}
		r.markDown(err)
	}

	return r.fallback.SaveSession(ctx, session)
}

func (r *FailoverSessionRepository) GetSession(ctx context.Context, id string) (*models.Session, error) {
	if !r.isDown.Load() {
		session, err := r.primary.GetSession(ctx, id)
		if err == nil || errors.Is(err, ErrSessionNotFound) {
			return session, err
		}
		r.markDown(err)
	}

	// Try to recover after 1 minute.
	if r.isDown.Load() && time.Since(r.lastCheck) > time.Minute {
		session, err := r.primary.GetSession(ctx, id)
		if err == nil || errors.Is(err, ErrSessionNotFound) {
			r.isDown.Store(false)
			return session, err
		}
		r.lastCheck = time.Now()
	}

	return r.fallback.GetSession(ctx, id)
}

func (r *FailoverSessionRepository) DeleteSession(ctx context.Context, id string) error {
	if !r.isDown.Load() {
		err := r.primary.DeleteSession(ctx, id)
		if err == nil {
			return nil
		}
		r.markDown(err)
	}

	return r.fallback.DeleteSession(ctx, id)
}

func (r *FailoverSessionRepository) SaveResetToken(ctx context.Context, token, userID string, ttl time.Duration) error {
	if !r.isDown.Load() {
		err := r.primary.SaveResetToken(ctx, token, userID, ttl)
		if err == nil {
			return nil
		}
		r.markDown(err)
	}

	return r.fallback.SaveResetToken(ctx, token, userID, ttl)
}

func (r *FailoverSessionRepository) ConsumeResetToken(ctx context.Context, token string) (string, error) {
	if !r.isDown.Load() {
		userID, err := r.primary.ConsumeResetToken(ctx, token)
		if err == nil || errors.Is(err, ErrSessionNotFound) {
			return userID, err
		}
		r.markDown(err)
	}

	return r.fallback.ConsumeResetToken(ctx, token)
}

func (r *FailoverSessionRepository) CheckRateLimit(ctx context.Context, key string, limit int, window time.Duration) (bool, error) {
	if !r.isDown.Load() {
		allowed, err := r.primary.CheckRateLimit(ctx, key, limit, window)
		if err == nil {
			return allowed, nil
		}
		r.markDown(err)
	}

	return r.fallback.CheckRateLimit(ctx, key, limit, window)
}
