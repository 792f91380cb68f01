package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	goredis "github.com/redis/go-redis/v9"
	"github.com/yuchiehee/personalpage-backend/internal/domain"
)

const (
	// Redis hash field names for session keys.
	fieldAccountID = "account_id"
	fieldCSRFToken = "csrf_token"
)

// SessionStore implements domain.SessionStore on Redis hashes.
// One hash per session, expired by TTL.
type SessionStore struct {
	rdb *goredis.Client
}

func NewSessionStore(rdb *goredis.Client) *SessionStore {
	return &SessionStore{rdb: rdb}
}

func sessionKey(sessionID uuid.UUID) string {
	return "session:" + sessionID.String()
}

func (s *SessionStore) Create(ctx context.Context, accountID uuid.UUID, csrfToken string, ttl time.Duration) (*domain.Session, error) {
	sessionID := uuid.New()
	sk := sessionKey(sessionID)

	pipe := s.rdb.Pipeline()
	pipe.HSet(ctx, sk, map[string]any{
		fieldAccountID: accountID.String(),
		fieldCSRFToken: csrfToken,
	})
	pipe.Expire(ctx, sk, ttl)
	if _, err := pipe.Exec(ctx); err != nil {
		return nil, fmt.Errorf("failed to create session: %w", err)
	}

	return &domain.Session{ID: sessionID, AccountID: accountID, CSRFToken: csrfToken}, nil
}

func (s *SessionStore) Get(ctx context.Context, sessionID uuid.UUID) (*domain.Session, error) {
	fields, err := s.rdb.HGetAll(ctx, sessionKey(sessionID)).Result()
	if err != nil && !errors.Is(err, goredis.Nil) {
		return nil, fmt.Errorf("failed to get session: %w", err)
	}
	if len(fields) == 0 {
		return nil, domain.ErrSessionNotFound
	}

	accountID, err := uuid.Parse(fields[fieldAccountID])
	if err != nil {
		return nil, fmt.Errorf("corrupt session %s: %w", sessionID, err)
	}

	return &domain.Session{
		ID:        sessionID,
		AccountID: accountID,
		CSRFToken: fields[fieldCSRFToken],
	}, nil
}

func (s *SessionStore) Delete(ctx context.Context, sessionID uuid.UUID) error {
	if err := s.rdb.Del(ctx, sessionKey(sessionID)).Err(); err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}
	return nil
}
