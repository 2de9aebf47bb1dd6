package main

import "time"

// Config is loaded from the environment, with optional .env overrides for
// local development.
type Config struct {
	AppName  string        `env:"APP_NAME" envDefault:"relayd"`
	Env      string        `env:"APP_ENV" envDefault:"development"`
	LogLevel string        `env:"LOG_LEVEL" envDefault:"info"`
	HTTPAddr string        `env:"HTTP_ADDR" envDefault:":8080"`
	RedisURL string        `env:"REDIS_URL"` // empty: in-process cache
	CacheTTL time.Duration `env:"CACHE_TTL" envDefault:"1m"`

	ShutdownTimeout time.Duration `env:"SHUTDOWN_TIMEOUT" envDefault:"10s"`
}
