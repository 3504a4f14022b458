package sessions

import (
	"context"

	apperrors "github.com/jrsteele09/go-kite-session/internal/errors"
)

// ErrSessionNotFound is returned by Get when no live session exists for a subject
var ErrSessionNotFound = apperrors.ErrSessionNotFound

// Repo is the only owner of session state. Implementations must be safe for
// concurrent use and must never return an expired session from Get.
type Repo interface {
	// Upsert stores the session under its Subject, replacing any previous one
	Upsert(ctx context.Context, session Session) error

	// Get returns a copy of the live session for subject, or ErrSessionNotFound
	Get(ctx context.Context, subject string) (*Session, error)

	// Delete removes the session for subject; deleting a missing session is not an error
	Delete(ctx context.Context, subject string) error
}
