package repository

import (
	"context"
	"sync"
	"time"

	"lawnly/internal/models"
)

type MemorySessionRepository struct {
	sessions    sync.Map
	resetTokens sync.Map
	rateLimits  sync.Map
	ttl         time.Duration
}

func NewMemorySessionRepository(ttl time.Duration) *MemorySessionRepository {
	return &MemorySessionRepository{
		ttl: ttl,
	}
}

type sessionEntry struct {
	session   *models.Session
	expiresAt time.Time
}

func (r *MemorySessionRepository) SaveSession(ctx context.Context, session *models.Session) error {
	expiresAt := time.Now().Add(r.ttl)
	if session.ExpiresAt.Before(expiresAt) {
		expiresAt = session.ExpiresAt
	}
	r.sessions.Store(session.ID, &sessionEntry{session: session, expiresAt: expiresAt})
	return nil
}

func (r *MemorySessionRepository) GetSession(ctx context.Context, id string) (*models.Session, error) {
	val, ok := r.sessions.Load(id)
	if !ok {
		return nil, ErrSessionNotFound
	}
	entry := val.(*sessionEntry)
	if time.Now().After(entry.expiresAt) {
		r.sessions.Delete(id)
		return nil, ErrSessionNotFound
	}
	return entry.session, nil
}

func (r *MemorySessionRepository) DeleteSession(ctx context.Context, id string) error {
	r.sessions.Delete(id)
	return nil
}

type resetTokenEntry struct {
	userID    string
	expiresAt time.Time
}

func (r *MemorySessionRepository) SaveResetToken(ctx context.Context, token, userID string, ttl time.Duration) error {
	r.resetTokens.Store(token, &resetTokenEntry{userID: userID, expiresAt: time.Now().Add(ttl)})
	return nil
}

func (r *MemorySessionRepository) ConsumeResetToken(ctx context.Context, token string) (string, error) {
	val, ok := r.resetTokens.LoadAndDelete(token)
	if !ok {
		return "", ErrSessionNotFound
	}
	entry := val.(*resetTokenEntry)
	if time.Now().After(entry.expiresAt) {
		return "", ErrSessionNotFound
	}
	return entry.userID, nil
}

type rateLimitEntry struct {
	count     int
	expiresAt time.Time
}

func (r *MemorySessionRepository) CheckRateLimit(ctx context.Context, key string, limit int, window time.Duration) (bool, error) {
	now := time.Now()
	val, ok := r.rateLimits.Load(key)

	var entry *rateLimitEntry
	if !ok {
		entry = &rateLimitEntry{
			count:     1,
			expiresAt: now.Add(window),
		}
	} else {
		entry = val.(*rateLimitEntry)
		if now.After(entry.expiresAt) {
			entry.count = 1
			entry.expiresAt = now.Add(window)
		} else {
			entry.count++
		}
	}

	r.rateLimits.Store(key, entry)
	return entry.count <= limit, nil
}
