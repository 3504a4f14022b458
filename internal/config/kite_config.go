package config

import "time"

// KiteConfig describes the upstream brokerage. The key and secret are optional at
// startup; callers must check HasKiteCredentials before using them.
type KiteConfig interface {
	GetKiteAPIKey() string
	GetKiteAPISecret() string
	GetKiteAPIBaseURL() string
	GetKiteLoginURL() string
	GetKiteLegacyLoginURL() string
	GetKiteTimeout() time.Duration
	HasKiteCredentials() bool
}

type Kite struct {
	APIKey         string        `env:"KITE_API_KEY"`
	APISecret      string        `env:"KITE_API_SECRET"`
	APIBaseURL     string        `env:"KITE_API_BASE_URL" envDefault:"https://api.kite.trade"`
	LoginURL       string        `env:"KITE_LOGIN_URL" envDefault:"https://kite.trade/connect/login"`
	LegacyLoginURL string        `env:"KITE_LEGACY_LOGIN_URL" envDefault:"https://kite.zerodha.com/api/login"`
	Timeout        time.Duration `env:"KITE_TIMEOUT" envDefault:"10s"`
}

var _ KiteConfig = Kite{}

func (k Kite) GetKiteAPIKey() string {
	return k.APIKey
}

func (k Kite) GetKiteAPISecret() string {
	return k.APISecret
}

func (k Kite) GetKiteAPIBaseURL() string {
	return k.APIBaseURL
}

func (k Kite) GetKiteLoginURL() string {
	return k.LoginURL
}

func (k Kite) GetKiteLegacyLoginURL() string {
	return k.LegacyLoginURL
}

func (k Kite) GetKiteTimeout() time.Duration {
	if k.Timeout <= 0 {
		return 10 * time.Second
	}
	return k.Timeout
}

func (k Kite) HasKiteCredentials() bool {
	return k.APIKey != "" && k.APISecret != ""
}
