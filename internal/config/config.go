package config

import (
	"context"
	"time"

	"github.com/sethvargo/go-envconfig"
)

// Config holds runtime configuration for the placement portal service.
type Config struct {
	Addr             string        `env:"ADDR,default=:8080"`
	DBDSN            string        `env:"DB_DSN,required"`
	NATSURL          string        `env:"NATS_URL"`
	TokenSigningKey  string        `env:"ATTENDANCE_TOKEN_KEY,required"`
	TokenTTL         time.Duration `env:"ATTENDANCE_TOKEN_TTL,default=10m"`
	TokenIssuer      string        `env:"ATTENDANCE_TOKEN_ISSUER,default=placementd"`
	PhotoBucket      string        `env:"PHOTO_BUCKET"`
	PhotoURLTTL      time.Duration `env:"PHOTO_URL_TTL,default=15m"`
	OTLPEndpoint     string        `env:"OTEL_EXPORTER_OTLP_ENDPOINT"`
	AllowedOrigins   []string      `env:"CORS_ALLOWED_ORIGINS,default=http://localhost:5173"`
	RateLimitPerMin  int           `env:"RATE_LIMIT_PER_MINUTE,default=300"`
	ShutdownTimeout  time.Duration `env:"SHUTDOWN_TIMEOUT,default=10s"`
}

// Load returns a Config populated from environment variables.
func Load(ctx context.Context) (Config, error) {
	var cfg Config
	if err := envconfig.Process(ctx, &cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}
