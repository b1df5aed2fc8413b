package repository

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/spec-kit/mileage-skill/internal/domain"
)

// ErrSessionNotFound is returned when no live session exists for a caller.
var ErrSessionNotFound = errors.New("session not found")

// SessionRepository maps chat caller ids to their last authentication.
type SessionRepository interface {
	Put(ctx context.Context, callerID string, session domain.Session) error
	Get(ctx context.Context, callerID string) (*domain.Session, error)
}

type memorySessionRepository struct {
	mu       sync.RWMutex
	ttl      time.Duration
	now      func() time.Time
	sessions map[string]domain.Session
}

// NewMemorySessionRepository keeps sessions for the process lifetime.
// With ttl > 0, sessions older than ttl read as absent and are dropped.
func NewMemorySessionRepository(ttl time.Duration) SessionRepository {
	return &memorySessionRepository{
		ttl:      ttl,
		now:      time.Now,
		sessions: make(map[string]domain.Session),
	}
}

func (r *memorySessionRepository) Put(_ context.Context, callerID string, session domain.Session) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sessions[callerID] = session
	return nil
}

func (r *memorySessionRepository) Get(_ context.Context, callerID string) (*domain.Session, error) {
	r.mu.RLock()
	session, ok := r.sessions[callerID]
	r.mu.RUnlock()
	if !ok {
		return nil, ErrSessionNotFound
	}
	if session.Expired(r.ttl, r.now()) {
		r.mu.Lock()
		if current, ok := r.sessions[callerID]; ok && current.Expired(r.ttl, r.now()) {
			delete(r.sessions, callerID)
		}
		r.mu.Unlock()
		return nil, ErrSessionNotFound
	}
	return &session, nil
}
