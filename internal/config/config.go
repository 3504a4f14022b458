package config

import (
	"errors"
	"fmt"
	"io/fs"

	"github.com/caarlos0/env/v6"
	"github.com/joho/godotenv"
)

type Config interface {
	EnvConfig
	CorsConfig
	KiteConfig
	SessionConfig
	StoreConfig
}

type EnvConfig interface {
	GetPort() string
	GetAppName() string
	GetEnv() string
	IsDev() bool
	GetLogLevel() string
}

type CorsConfig interface {
	GetAllowedOrigins() AllowedOrigins
	GetAllowedMethods() string
	GetAllowedHeaders() string
}

type mainConfig struct {
	EnvVars
	Cors
	Kite
	Session
	Store
}

// Load reads an optional dotenv file and then the process environment.
// Credentials are not required here: their absence is reported per request.
func Load() (Config, error) {
	file := GetEnv(envFileVar, ".env")
	if err := godotenv.Load(file); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("[config Load] failed to read %s: %w", file, err)
	}
	return Parse()
}

// Parse builds the configuration from the process environment only.
func Parse() (Config, error) {
	c := mainConfig{}
	if err := env.Parse(&c); err != nil {
		return nil, fmt.Errorf("[config Parse] %w", err)
	}
	return c, nil
}
