package token

import (
	"encoding/base64"
	"strconv"
	"strings"
	"time"

	apperrors "github.com/jrsteele09/go-kite-session/internal/errors"
	"github.com/pkg/errors"
)

const (
	separator        = "."
	payloadSeparator = ":"
)

// ErrInvalidSubject is returned by Mint for subjects that cannot be encoded unambiguously
var ErrInvalidSubject = errors.New("invalid token subject")

// Claims is what a verified session token asserts: who, and when it was minted.
// Tokens carry no expiry of their own; the session they name does.
type Claims struct {
	Subject  string
	IssuedAt time.Time
}

// IssuedAtMillis returns the issue time as epoch milliseconds, as carried on the wire
func (c Claims) IssuedAtMillis() int64 {
	return c.IssuedAt.UnixMilli()
}

// Manager mints and verifies session tokens of the form
//
//	base64(subject ":" epochMillis) "." hex(HMAC-SHA256(payload))
type Manager struct {
	signer  Signer
	nowFunc func() time.Time
}

type ManagerOption func(*Manager)

func WithNowFunc(now func() time.Time) ManagerOption {
	return func(m *Manager) {
		m.nowFunc = now
	}
}

func New(signer Signer, options ...ManagerOption) *Manager {
	m := &Manager{
		signer:  signer,
		nowFunc: time.Now,
	}
	for _, opt := range options {
		opt(m)
	}
	return m
}

// Mint signs subject and the current time into an opaque bearer token
func (m *Manager) Mint(subject string) (string, error) {
	if subject == "" || strings.Contains(subject, payloadSeparator) {
		return "", errors.Wrapf(ErrInvalidSubject, "subject %q", subject)
	}

	payload := subject + payloadSeparator + strconv.FormatInt(m.nowFunc().UnixMilli(), 10)
	signature, err := m.signer.Sign(payload)
	if err != nil {
		return "", errors.Wrap(err, "Manager.Mint")
	}
	return base64.StdEncoding.EncodeToString([]byte(payload)) + separator + signature, nil
}

// Verify checks the token signature and returns its claims. Any malformation or
// mismatch is reported as ErrInvalidToken; a missing signing secret as ErrConfiguration.
func (m *Manager) Verify(raw string) (*Claims, error) {
	parts := strings.Split(raw, separator)
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return nil, errors.Wrap(apperrors.ErrInvalidToken, "expected payload.signature")
	}

	payloadBytes, err := base64.StdEncoding.DecodeString(parts[0])
	if err != nil {
		return nil, errors.Wrap(apperrors.ErrInvalidToken, "payload is not base64")
	}
	// The decoder tolerates line breaks and stray padding bits; insist on the
	// canonical encoding so the token text maps to exactly one payload.
	if base64.StdEncoding.EncodeToString(payloadBytes) != parts[0] {
		return nil, errors.Wrap(apperrors.ErrInvalidToken, "payload is not canonical base64")
	}
	payload := string(payloadBytes)

	if err := m.signer.Verify(payload, parts[1]); err != nil {
		return nil, errors.Wrap(err, "Manager.Verify")
	}

	idx := strings.LastIndex(payload, payloadSeparator)
	if idx <= 0 {
		return nil, errors.Wrap(apperrors.ErrInvalidToken, "payload missing subject")
	}
	millis, err := strconv.ParseInt(payload[idx+1:], 10, 64)
	if err != nil {
		return nil, errors.Wrap(apperrors.ErrInvalidToken, "payload timestamp")
	}

	return &Claims{
		Subject:  payload[:idx],
		IssuedAt: time.UnixMilli(millis),
	}, nil
}
