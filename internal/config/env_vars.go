package config

import (
	"os"
	"strings"
)

const envFileVar = "ENV_FILE"

type EnvVars struct {
	Port     string `env:"PORT" envDefault:"8080"`
	AppName  string `env:"APP_NAME" envDefault:"Kite Session Gateway"`
	Env      string `env:"ENV" envDefault:"DEV"`
	LogLevel string `env:"LOG_LEVEL" envDefault:"info"`
}

var _ EnvConfig = EnvVars{}

func (e EnvVars) GetPort() string {
	if strings.HasPrefix(e.Port, ":") {
		return e.Port
	}
	return ":" + e.Port
}

func (e EnvVars) GetAppName() string {
	return e.AppName
}

func (e EnvVars) GetEnv() string {
	return e.Env
}

// IsDev reports whether diagnostic detail may be sent to clients
func (e EnvVars) IsDev() bool {
	return strings.EqualFold(e.Env, "DEV")
}

func (e EnvVars) GetLogLevel() string {
	return e.LogLevel
}

func GetEnv(envVar, defaultValue string) string {
	value := os.Getenv(envVar)
	if value == "" {
		return defaultValue
	}
	return value
}
