package token

import (
	"encoding/hex"

	"github.com/golang-jwt/jwt/v5"
	apperrors "github.com/jrsteele09/go-kite-session/internal/errors"
	"github.com/pkg/errors"
)

// Signer produces and checks keyed signatures over session token payloads
type Signer interface {
	// Sign returns the lowercase hex signature of payload
	Sign(payload string) (string, error)

	// Verify checks a hex signature against payload in constant time
	Verify(payload, signature string) error
}

// HMACSigner implements Signer using symmetric HMAC-SHA256
type HMACSigner struct {
	secret []byte
}

var _ Signer = (*HMACSigner)(nil)

// NewHMACSigner creates a new HMAC signer with the given secret
func NewHMACSigner(secret string) *HMACSigner {
	return &HMACSigner{
		secret: []byte(secret),
	}
}

func (h *HMACSigner) Sign(payload string) (string, error) {
	if len(h.secret) == 0 {
		return "", errors.Wrap(apperrors.ErrConfiguration, "session signing secret not configured")
	}
	sig, err := jwt.SigningMethodHS256.Sign(payload, h.secret)
	if err != nil {
		return "", errors.Wrap(err, "failed to sign payload with HMAC")
	}
	return hex.EncodeToString(sig), nil
}

func (h *HMACSigner) Verify(payload, signature string) error {
	if len(h.secret) == 0 {
		return errors.Wrap(apperrors.ErrConfiguration, "session signing secret not configured")
	}
	// Only the canonical lowercase form is accepted so that every altered
	// character in the signature changes the decoded bytes.
	if !isLowerHex(signature) || len(signature) != 2*jwt.SigningMethodHS256.Hash.Size() {
		return errors.Wrap(apperrors.ErrInvalidToken, "malformed signature")
	}
	sig, err := hex.DecodeString(signature)
	if err != nil {
		return errors.Wrap(apperrors.ErrInvalidToken, "malformed signature")
	}
	if err := jwt.SigningMethodHS256.Verify(payload, sig, h.secret); err != nil {
		return errors.Wrap(apperrors.ErrInvalidToken, err.Error())
	}
	return nil
}

func isLowerHex(s string) bool {
	for i := 0; i < len(s); i++ {
		c := s[i]
		if (c < '0' || c > '9') && (c < 'a' || c > 'f') {
			return false
		}
	}
	return true
}
