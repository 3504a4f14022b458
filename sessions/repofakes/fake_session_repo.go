package repofakes

import (
	"context"
	"errors"
	"sync"

	"github.com/jrsteele09/go-kite-session/sessions"
)

var _ sessions.Repo = (*FakeSessionRepo)(nil)

// FakeSessionRepo keeps sessions without applying expiry, so callers' own expiry
// checks can be exercised. Err, when set, is returned by every operation.
type FakeSessionRepo struct {
	sessions map[string]sessions.Session
	lock     sync.RWMutex

	Err     error
	Deletes []string
}

func NewFakeSessionRepo() *FakeSessionRepo {
	return &FakeSessionRepo{
		sessions: make(map[string]sessions.Session),
	}
}

func (sr *FakeSessionRepo) Upsert(_ context.Context, session sessions.Session) error {
	sr.lock.Lock()
	defer sr.lock.Unlock()

	if sr.Err != nil {
		return sr.Err
	}
	sr.sessions[session.Subject] = session
	return nil
}

func (sr *FakeSessionRepo) Get(_ context.Context, subject string) (*sessions.Session, error) {
	sr.lock.RLock()
	defer sr.lock.RUnlock()

	if sr.Err != nil {
		return nil, sr.Err
	}
	session, ok := sr.sessions[subject]
	if !ok {
		return nil, sessions.ErrSessionNotFound
	}
	return &session, nil
}

func (sr *FakeSessionRepo) Delete(_ context.Context, subject string) error {
	sr.lock.Lock()
	defer sr.lock.Unlock()

	sr.Deletes = append(sr.Deletes, subject)
	if sr.Err != nil {
		return sr.Err
	}
	delete(sr.sessions, subject)
	return nil
}

// Len returns the number of stored sessions
func (sr *FakeSessionRepo) Len() int {
	sr.lock.RLock()
	defer sr.lock.RUnlock()
	return len(sr.sessions)
}

// Has reports whether a session is physically present for subject
func (sr *FakeSessionRepo) Has(subject string) bool {
	sr.lock.RLock()
	defer sr.lock.RUnlock()
	_, ok := sr.sessions[subject]
	return ok
}

// ErrFake is a convenience error for failure injection
var ErrFake = errors.New("fake repo failure")
