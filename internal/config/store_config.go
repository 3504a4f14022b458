package config

import "strings"

const (
	StoreMemory = "memory"
	StoreRedis  = "redis"
)

type StoreConfig interface {
	GetSessionStore() string
	GetRedisURL() string
	GetRedisKeyPrefix() string
}

type Store struct {
	Kind      string `env:"SESSION_STORE" envDefault:"memory"`
	RedisURL  string `env:"REDIS_URL" envDefault:"redis://localhost:6379/0"`
	KeyPrefix string `env:"REDIS_KEY_PREFIX" envDefault:"kite:session:"`
}

var _ StoreConfig = Store{}

func (s Store) GetSessionStore() string {
	return strings.ToLower(s.Kind)
}

func (s Store) GetRedisURL() string {
	return s.RedisURL
}

func (s Store) GetRedisKeyPrefix() string {
	return s.KeyPrefix
}
