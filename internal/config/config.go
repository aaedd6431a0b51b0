package config

import (
	"fmt"
	"time"

	env "github.com/caarlos0/env/v11"
)

type Config struct {
	Port     int    `env:"PORT" envDefault:"8080"`
	LogLevel string `env:"LOG_LEVEL" envDefault:"info"`
	AppEnv   string `env:"APP_ENV" envDefault:"production"`

	PlaceholderBaseURL string        `env:"PLACEHOLDER_BASE_URL" envDefault:"https://jsonplaceholder.typicode.com"`
	FetchTimeout       time.Duration `env:"FETCH_TIMEOUT" envDefault:"0s"`
	RefreshInterval    time.Duration `env:"REFRESH_INTERVAL" envDefault:"0s"`

	IdempotencyTTL  time.Duration `env:"IDEMPOTENCY_TTL" envDefault:"24h"`
	ShutdownTimeout time.Duration `env:"SHUTDOWN_TIMEOUT" envDefault:"30s"`
}

func Load() (*Config, error) {
	cfg, err := env.ParseAs[Config]()
	if err != nil {
		return nil, fmt.Errorf("config.Load: %w", err)
	}
	return &cfg, nil
}
