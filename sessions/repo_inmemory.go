package sessions

import (
	"context"
	"fmt"
	"sync"
	"time"
)

// InMemoryRepo is a process-local, volatile implementation of Repo.
// Restarting the process or running several instances loses or splits sessions.
type InMemoryRepo struct {
	mu       sync.RWMutex
	sessions map[string]Session // subject -> Session
	nowFunc  func() time.Time
}

var _ Repo = (*InMemoryRepo)(nil)

type InMemoryOption func(*InMemoryRepo)

// WithNowFunc sets the clock used for lazy expiry (primarily for testing)
func WithNowFunc(now func() time.Time) InMemoryOption {
	return func(r *InMemoryRepo) {
		r.nowFunc = now
	}
}

// NewInMemoryRepo creates a new in-memory session repository
func NewInMemoryRepo(options ...InMemoryOption) *InMemoryRepo {
	r := &InMemoryRepo{
		sessions: make(map[string]Session),
		nowFunc:  time.Now,
	}
	for _, opt := range options {
		opt(r)
	}
	return r
}

// Upsert creates or replaces the session for session.Subject
func (r *InMemoryRepo) Upsert(_ context.Context, session Session) error {
	if session.Subject == "" {
		return fmt.Errorf("subject is required")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	r.sessions[session.Subject] = session
	return nil
}

// Get retrieves the live session for subject. An expired entry is removed while
// the write lock is held, so concurrent readers can never both observe it as valid.
func (r *InMemoryRepo) Get(_ context.Context, subject string) (*Session, error) {
	if subject == "" {
		return nil, fmt.Errorf("subject is required")
	}

	r.mu.RLock()
	session, ok := r.sessions[subject]
	r.mu.RUnlock()
	if !ok {
		return nil, ErrSessionNotFound
	}
	if !session.Expired(r.nowFunc()) {
		return &session, nil
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	// Re-read: the entry may have been replaced by a fresh login since the read lock was released
	session, ok = r.sessions[subject]
	if !ok {
		return nil, ErrSessionNotFound
	}
	if session.Expired(r.nowFunc()) {
		delete(r.sessions, subject)
		return nil, ErrSessionNotFound
	}
	return &session, nil
}

// Delete removes the session for subject
func (r *InMemoryRepo) Delete(_ context.Context, subject string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	delete(r.sessions, subject)
	return nil
}

// DeleteExpired sweeps every expired session and returns how many were removed
func (r *InMemoryRepo) DeleteExpired() int {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := r.nowFunc()
	removed := 0
	for subject, session := range r.sessions {
		if session.Expired(now) {
			delete(r.sessions, subject)
			removed++
		}
	}
	return removed
}

// Len returns the number of stored sessions, including expired ones not yet swept
func (r *InMemoryRepo) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions)
}
