package errors

import (
	"errors"
	"fmt"
)

// Error taxonomy for the session gateway. Every error that reaches the HTTP boundary
// should wrap exactly one of these so the server can classify it.
var (
	// ErrBadRequest is returned when required input is missing or malformed
	ErrBadRequest = errors.New("bad request")
	// ErrConfiguration is returned when a required key or secret is not configured
	ErrConfiguration = errors.New("configuration error")
	// ErrUpstreamAuth is returned when the brokerage rejects the credentials or the checksum
	ErrUpstreamAuth = errors.New("upstream authentication failed")
	// ErrUnauthenticated is returned when the bearer token or the session it names is not valid
	ErrUnauthenticated = errors.New("unauthenticated")
	// ErrUpstreamUnavailable is returned on network failures or timeouts talking to the brokerage
	ErrUpstreamUnavailable = errors.New("upstream unavailable")

	// Session errors
	ErrSessionNotFound = errors.New("session not found")
	ErrSessionExpired  = errors.New("session expired")

	// Token errors
	ErrInvalidToken = errors.New("invalid token")

	// General errors
	ErrInternal = errors.New("internal error")
)

// UpstreamError carries a message returned by the brokerage that is safe to forward
// to the caller. Kind is one of the taxonomy sentinels.
type UpstreamError struct {
	Kind    error
	Status  int
	Message string
}

func (e *UpstreamError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("%s (status %d)", e.Kind, e.Status)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *UpstreamError) Unwrap() error {
	return e.Kind
}

// PublicError is an error whose Message may be shown to the caller as is.
type PublicError struct {
	Kind    error
	Message string
}

// Public returns an error of the given kind carrying a caller-facing message
func Public(kind error, message string) error {
	return &PublicError{Kind: kind, Message: message}
}

func (e *PublicError) Error() string {
	return e.Message
}

func (e *PublicError) Unwrap() error {
	return e.Kind
}

// Wrapf wraps an error with context using fmt.Errorf
func Wrapf(err error, format string, args ...interface{}) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf(format+": %w", append(args, err)...)
}

// Is reports whether any error in err's chain matches target
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// UpstreamMessage returns the forwardable upstream message in err's chain, if any.
func UpstreamMessage(err error) (string, bool) {
	var upstreamErr *UpstreamError
	if errors.As(err, &upstreamErr) && upstreamErr.Message != "" {
		return upstreamErr.Message, true
	}
	return "", false
}

// PublicMessage returns the first caller-facing message in err's chain: a PublicError's
// message, or else a forwardable upstream message.
func PublicMessage(err error) (string, bool) {
	var publicErr *PublicError
	if errors.As(err, &publicErr) && publicErr.Message != "" {
		return publicErr.Message, true
	}
	return UpstreamMessage(err)
}
