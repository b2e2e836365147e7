package config

import (
	"context"
	"fmt"
	"time"

	"github.com/sethvargo/go-envconfig"
)

// Config holds every runtime setting of the client gateway. Values come from
// the environment (optionally seeded from a .env file in main).
type Config struct {
	Port      string `env:"PORT, default=8080"`
	Env       string `env:"APP_ENV, default=development"`
	LogLevel  string `env:"LOG_LEVEL, default=info"`
	LogFormat string `env:"LOG_FORMAT, default=console"`

	// Tsviyo backend REST API.
	APIBaseURL  string        `env:"API_BASE_URL, default=http://localhost:8000/api"`
	HTTPTimeout time.Duration `env:"HTTP_TIMEOUT, default=15s"`

	// Realtime push service (websocket).
	RealtimeURL string `env:"REALTIME_URL, default=ws://localhost:6001/ws"`

	// Mapbox geocoding and directions.
	MapboxToken      string `env:"MAPBOX_TOKEN"`
	MapboxDailyLimit int    `env:"MAPBOX_DAILY_LIMIT, default=5000"`

	// Advisory fare estimate, dollars per kilometre.
	RatePerKm float64 `env:"RATE_PER_KM, default=1"`

	// Interval for the ride-mirror fallback poll.
	PollInterval time.Duration `env:"POLL_INTERVAL, default=3s"`

	Redis RedisConfig
}

type RedisConfig struct {
	Host     string        `env:"REDIS_HOST, default=localhost"`
	Port     string        `env:"REDIS_PORT, default=6379"`
	Password string        `env:"REDIS_PASSWORD"`
	DB       int           `env:"REDIS_DB, default=0"`
	CacheTTL time.Duration `env:"CACHE_TTL, default=24h"`
}

// Addr returns the host:port pair for the Redis client.
func (r RedisConfig) Addr() string {
	return fmt.Sprintf("%s:%s", r.Host, r.Port)
}

// Load reads the configuration from environment variables.
func Load(ctx context.Context) (*Config, error) {
	var cfg Config
	if err := envconfig.Process(ctx, &cfg); err != nil {
		return nil, fmt.Errorf("failed to process configuration: %w", err)
	}
	return &cfg, nil
}
