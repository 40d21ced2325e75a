// internal/pkg/session/manager.go
package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"mohandz-service/internal/domain/auth"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// Store is the durable side of session bookkeeping.
type Store interface {
	CreateSession(ctx context.Context, session *auth.SessionRecord) error
	FindActiveSession(ctx context.Context, identityID uuid.UUID, token string) (*auth.SessionRecord, error)
	RevokeSession(ctx context.Context, identityID uuid.UUID, token string) error
	RevokeAllSessions(ctx context.Context, identityID uuid.UUID) ([]string, error)
}

// Manager keeps sessions in Redis with the database as fallback.
type Manager struct {
	client *redis.Client
	store  Store
	logger *zap.Logger
}

func NewManager(client *redis.Client, store Store, logger *zap.Logger) *Manager {
	return &Manager{
		client: client,
		store:  store,
		logger: logger,
	}
}

// CreateSession persists the session row and caches it.
func (m *Manager) CreateSession(ctx context.Context, session *SessionData) error {
	ttl := time.Until(session.ExpiresAt)
	if ttl <= 0 {
		return fmt.Errorf("session already expired")
	}

	record := &auth.SessionRecord{
		IdentityID:   session.IdentityID,
		SessionToken: session.JTI,
		IPAddress:    optional(session.IPAddress),
		UserAgent:    optional(session.UserAgent),
		ExpiresAt:    session.ExpiresAt,
	}
	if err := m.store.CreateSession(ctx, record); err != nil {
		return fmt.Errorf("failed to persist session: %w", err)
	}
	session.SessionID = record.ID
	session.LoginAt = record.LoginAt
	session.LastActivityAt = record.LastActivityAt

	return m.cache(ctx, session, ttl)
}

func (m *Manager) cache(ctx context.Context, session *SessionData, ttl time.Duration) error {
	data, err := json.Marshal(session)
	if err != nil {
		return fmt.Errorf("failed to marshal session: %w", err)
	}
	if err := m.client.Set(ctx, m.sessionKey(session.IdentityID, session.JTI), data, ttl).Err(); err != nil {
		return fmt.Errorf("failed to store session in redis: %w", err)
	}
	return nil
}

// GetSession retrieves a session from Redis with DB fallback
func (m *Manager) GetSession(ctx context.Context, identityID uuid.UUID, jti string) (*SessionData, error) {
	data, err := m.client.Get(ctx, m.sessionKey(identityID, jti)).Bytes()
	if err == nil {
		var session SessionData
		if err := json.Unmarshal(data, &session); err != nil {
			return nil, fmt.Errorf("failed to unmarshal session: %w", err)
		}
		return &session, nil
	}

	if !errors.Is(err, redis.Nil) {
		m.logger.Warn("redis session lookup failed, falling back to database", zap.Error(err))
	}

	record, err := m.store.FindActiveSession(ctx, identityID, jti)
	if err != nil {
		return nil, fmt.Errorf("session not found: %w", err)
	}

	session := &SessionData{
		JTI:            jti,
		IdentityID:     record.IdentityID,
		SessionID:      record.ID,
		IPAddress:      deref(record.IPAddress),
		UserAgent:      deref(record.UserAgent),
		LoginAt:        record.LoginAt,
		LastActivityAt: record.LastActivityAt,
		ExpiresAt:      record.ExpiresAt,
	}

	if ttl := time.Until(session.ExpiresAt); ttl > 0 {
		if err := m.cache(ctx, session, ttl); err != nil {
			m.logger.Warn("failed to restore session to redis", zap.Error(err))
		}
	}

	return session, nil
}

// InvalidateSession removes a session and blacklists its token id until
// the token would have expired anyway.
func (m *Manager) InvalidateSession(ctx context.Context, identityID uuid.UUID, jti string, remaining time.Duration) error {
	if err := m.client.Del(ctx, m.sessionKey(identityID, jti)).Err(); err != nil {
		m.logger.Warn("failed to delete session from redis", zap.Error(err))
	}
	if remaining > 0 {
		if err := m.BlacklistToken(ctx, jti, remaining); err != nil {
			m.logger.Warn("failed to blacklist token", zap.Error(err))
		}
	}
	if err := m.store.RevokeSession(ctx, identityID, jti); err != nil {
		return fmt.Errorf("failed to invalidate DB session: %w", err)
	}
	return nil
}

// InvalidateAllUserSessions removes all sessions for an identity and
// returns the revoked token ids.
func (m *Manager) InvalidateAllUserSessions(ctx context.Context, identityID uuid.UUID, maxRemaining time.Duration) ([]string, error) {
	pattern := fmt.Sprintf("session:%s:*", identityID)

	iter := m.client.Scan(ctx, 0, pattern, 0).Iterator()
	for iter.Next(ctx) {
		if err := m.client.Del(ctx, iter.Val()).Err(); err != nil {
			m.logger.Warn("failed to delete session", zap.String("key", iter.Val()), zap.Error(err))
		}
	}
	if err := iter.Err(); err != nil {
		m.logger.Warn("session scan failed", zap.Error(err))
	}

	jtis, err := m.store.RevokeAllSessions(ctx, identityID)
	if err != nil {
		return nil, fmt.Errorf("failed to invalidate DB sessions: %w", err)
	}
	for _, jti := range jtis {
		if err := m.BlacklistToken(ctx, jti, maxRemaining); err != nil {
			m.logger.Warn("failed to blacklist token", zap.String("jti", jti), zap.Error(err))
		}
	}
	return jtis, nil
}

// IsTokenBlacklisted checks if a token is blacklisted
func (m *Manager) IsTokenBlacklisted(ctx context.Context, jti string) (bool, error) {
	exists, err := m.client.Exists(ctx, m.blacklistKey(jti)).Result()
	if err != nil {
		return false, fmt.Errorf("failed to check blacklist: %w", err)
	}
	return exists > 0, nil
}

// BlacklistToken adds a token to the blacklist
func (m *Manager) BlacklistToken(ctx context.Context, jti string, ttl time.Duration) error {
	return m.client.Set(ctx, m.blacklistKey(jti), "1", ttl).Err()
}

func (m *Manager) sessionKey(identityID uuid.UUID, jti string) string {
	return fmt.Sprintf("session:%s:%s", identityID, jti)
}

func (m *Manager) blacklistKey(jti string) string {
	return fmt.Sprintf("blacklist:%s", jti)
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
