package domain

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Session is the server-side record behind a cookie. The cookie only
// carries the session ID; account identity and the CSRF token live here.
type Session struct {
	ID        uuid.UUID
	AccountID uuid.UUID
	CSRFToken string
}

type SessionStore interface {
	Create(ctx context.Context, accountID uuid.UUID, csrfToken string, ttl time.Duration) (*Session, error)
	Get(ctx context.Context, sessionID uuid.UUID) (*Session, error)
	Delete(ctx context.Context, sessionID uuid.UUID) error
}
