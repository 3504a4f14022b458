package auth

import (
	"errors"

	apperrors "github.com/jrsteele09/go-kite-session/internal/errors"
)

// Reasons a bearer credential is refused. Each is wrapped together with
// ErrUnauthenticated so callers can classify without knowing the reason.
var (
	ErrMissingAuthorization   = errors.New("missing authorization header")
	ErrMalformedAuthorization = errors.New("authorization header is not a bearer token")
	ErrTokenRejected          = errors.New("session token rejected")
	ErrNoSession              = errors.New("no session for token subject")
	ErrSessionLapsed          = apperrors.ErrSessionExpired
)

// ErrInvalidCredentials marks a legacy login the brokerage refused. It travels
// alongside ErrUpstreamAuth and answers 401 rather than 400.
var ErrInvalidCredentials = errors.New("invalid brokerage credentials")
