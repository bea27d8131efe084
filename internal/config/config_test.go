package config

import (
	"context"
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("DB_DSN", "postgres://localhost/placement")
	t.Setenv("ATTENDANCE_TOKEN_KEY", "test-key")

	cfg, err := Load(context.Background())
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Addr != ":8080" {
		t.Errorf("Addr = %q, want :8080", cfg.Addr)
	}
	if cfg.TokenTTL != 10*time.Minute {
		t.Errorf("TokenTTL = %v, want 10m", cfg.TokenTTL)
	}
	if cfg.TokenIssuer != "placementd" {
		t.Errorf("TokenIssuer = %q, want placementd", cfg.TokenIssuer)
	}
	if cfg.PhotoURLTTL != 15*time.Minute {
		t.Errorf("PhotoURLTTL = %v, want 15m", cfg.PhotoURLTTL)
	}
	if cfg.RateLimitPerMin != 300 {
		t.Errorf("RateLimitPerMin = %d, want 300", cfg.RateLimitPerMin)
	}
	if cfg.ShutdownTimeout != 10*time.Second {
		t.Errorf("ShutdownTimeout = %v, want 10s", cfg.ShutdownTimeout)
	}
}

func TestLoadRequiresSigningKey(t *testing.T) {
	t.Setenv("DB_DSN", "postgres://localhost/placement")
	t.Setenv("ATTENDANCE_TOKEN_KEY", "")

	if _, err := Load(context.Background()); err == nil {
		t.Fatal("Load() succeeded without ATTENDANCE_TOKEN_KEY")
	}
}
