package config

import (
	"maps"
	"slices"
	"strings"
)

type Cors struct {
	Origins []string `env:"CORS_ALLOWED_ORIGINS" envSeparator:"," envDefault:"*"`
}

var _ CorsConfig = Cors{}

type AllowedOrigins map[string]struct{}
type nullValue = struct{}

func (a AllowedOrigins) IsAllowedOrigin(origin string) bool {
	_, ok := a[origin]
	return ok
}

func (a AllowedOrigins) String() string {
	return strings.Join(slices.Sorted(maps.Keys(a)), ", ")
}

func (c Cors) GetAllowedOrigins() AllowedOrigins {
	allowed := make(AllowedOrigins, len(c.Origins))
	for _, origin := range c.Origins {
		if origin = strings.TrimSpace(origin); origin != "" {
			allowed[origin] = nullValue{}
		}
	}
	return allowed
}

func (Cors) GetAllowedMethods() string {
	return "GET, POST, DELETE, OPTIONS"
}

func (Cors) GetAllowedHeaders() string {
	return "Content-Type, Authorization"
}
