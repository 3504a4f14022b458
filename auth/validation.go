package auth

import (
	"strings"

	apperrors "github.com/jrsteele09/go-kite-session/internal/errors"
)

const bearerScheme = "bearer"

// LegacyCredentials are the user credentials posted to the legacy login path
type LegacyCredentials struct {
	UserID   string `json:"user_id"`
	Password string `json:"password"`
	TwoFA    string `json:"twofa"`
}

// Validate checks the fields the upstream requires
func (c LegacyCredentials) Validate() error {
	if strings.TrimSpace(c.UserID) == "" || c.Password == "" {
		return apperrors.Public(apperrors.ErrBadRequest, "User ID and password are required")
	}
	return nil
}

// ValidateRequestToken rejects an absent request token
func ValidateRequestToken(requestToken string) error {
	if strings.TrimSpace(requestToken) == "" {
		return apperrors.Public(apperrors.ErrBadRequest, "Request token is required")
	}
	return nil
}

// BearerToken extracts the token from an "Authorization: Bearer <token>" header value.
// The scheme is matched case-insensitively.
func BearerToken(authorizationHeader string) (string, error) {
	header := strings.TrimSpace(authorizationHeader)
	if header == "" {
		return "", ErrMissingAuthorization
	}

	parts := strings.Fields(header)
	if len(parts) != 2 || strings.ToLower(parts[0]) != bearerScheme {
		return "", ErrMalformedAuthorization
	}
	return parts[1], nil
}
