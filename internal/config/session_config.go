package config

import "time"

type SessionConfig interface {
	GetSessionSecret() string
	GetSessionTTL() time.Duration
}

type Session struct {
	Secret string        `env:"SESSION_SECRET"`
	TTL    time.Duration `env:"SESSION_TTL" envDefault:"24h"`
}

var _ SessionConfig = Session{}

// GetSessionSecret returns the signing secret for session tokens. There is no
// built-in default: an empty secret disables token minting.
func (s Session) GetSessionSecret() string {
	return s.Secret
}

func (s Session) GetSessionTTL() time.Duration {
	if s.TTL <= 0 {
		return 24 * time.Hour
	}
	return s.TTL
}
