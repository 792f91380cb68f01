// Package session provides an in-memory domain.SessionStore for
// single-instance mode and tests.
package session

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/yuchiehee/personalpage-backend/internal/domain"
)

type memorySession struct {
	accountID uuid.UUID
	csrfToken string
	expiresAt time.Time
}

// InMemoryStore keeps sessions in a map. Expired entries are dropped
// lazily on Get.
type InMemoryStore struct {
	mu       sync.Mutex
	clock    clockwork.Clock
	sessions map[uuid.UUID]memorySession
}

func NewInMemoryStore(clock clockwork.Clock) *InMemoryStore {
	return &InMemoryStore{
		clock:    clock,
		sessions: make(map[uuid.UUID]memorySession),
	}
}

func (s *InMemoryStore) Create(_ context.Context, accountID uuid.UUID, csrfToken string, ttl time.Duration) (*domain.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sessionID := uuid.New()
	s.sessions[sessionID] = memorySession{
		accountID: accountID,
		csrfToken: csrfToken,
		expiresAt: s.clock.Now().Add(ttl),
	}
	return &domain.Session{ID: sessionID, AccountID: accountID, CSRFToken: csrfToken}, nil
}

func (s *InMemoryStore) Get(_ context.Context, sessionID uuid.UUID) (*domain.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry, ok := s.sessions[sessionID]
	if !ok {
		return nil, domain.ErrSessionNotFound
	}
	if s.clock.Now().After(entry.expiresAt) {
		delete(s.sessions, sessionID)
		return nil, domain.ErrSessionNotFound
	}
	return &domain.Session{ID: sessionID, AccountID: entry.accountID, CSRFToken: entry.csrfToken}, nil
}

func (s *InMemoryStore) Delete(_ context.Context, sessionID uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.sessions, sessionID)
	return nil
}
