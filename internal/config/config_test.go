package config

import (
	"os"
	"testing"
	"time"
)

func TestLoad_Defaults(t *testing.T) {
	os.Clearenv()

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg == nil {
		t.Fatal("Load returned nil config")
	}
	if cfg.HTTPAddr != ":3000" {
		t.Errorf("HTTPAddr = %q, want %q", cfg.HTTPAddr, ":3000")
	}
	if cfg.JWTSecret != DevJWTSecret {
		t.Errorf("JWTSecret = %q, want dev default", cfg.JWTSecret)
	}
	if cfg.JWTAccessTTL != "24h" {
		t.Errorf("JWTAccessTTL = %q, want %q", cfg.JWTAccessTTL, "24h")
	}
	if cfg.BcryptCost != 10 {
		t.Errorf("BcryptCost = %d, want 10", cfg.BcryptCost)
	}
	if cfg.BlacklistSweepInterval != "5m" {
		t.Errorf("BlacklistSweepInterval = %q, want %q", cfg.BlacklistSweepInterval, "5m")
	}
}

func TestLoad_EnvVarOverride(t *testing.T) {
	os.Clearenv()
	os.Setenv("HTTP_ADDR", ":9000")
	os.Setenv("JWT_ACCESS_TTL", "1h")
	os.Setenv("BCRYPT_COST", "6")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.HTTPAddr != ":9000" {
		t.Errorf("HTTPAddr = %q, want %q", cfg.HTTPAddr, ":9000")
	}
	if got := cfg.AccessTTL(); got != time.Hour {
		t.Errorf("AccessTTL() = %v, want 1h", got)
	}
	if cfg.BcryptCost != 6 {
		t.Errorf("BcryptCost = %d, want 6", cfg.BcryptCost)
	}
}

func TestLoad_RejectsDevSecretInProduction(t *testing.T) {
	os.Clearenv()
	os.Setenv("APP_ENV", "production")

	if _, err := Load(); err == nil {
		t.Fatal("Load should fail with dev JWT secret in production")
	}

	os.Setenv("JWT_SECRET", "a-real-secret")
	if _, err := Load(); err != nil {
		t.Fatalf("Load with real secret: %v", err)
	}
}

func TestLoad_RejectsBadBcryptCost(t *testing.T) {
	os.Clearenv()
	os.Setenv("BCRYPT_COST", "50")

	if _, err := Load(); err == nil {
		t.Fatal("Load should fail with BCRYPT_COST=50")
	}
}

func TestConfig_DurationFallbacks(t *testing.T) {
	c := &Config{JWTAccessTTL: "not-a-duration", BlacklistSweepInterval: "", CodeCleanupInterval: "-1m"}
	if got := c.AccessTTL(); got != 24*time.Hour {
		t.Errorf("AccessTTL() = %v, want 24h", got)
	}
	if got := c.SweepInterval(); got != 5*time.Minute {
		t.Errorf("SweepInterval() = %v, want 5m", got)
	}
	if got := c.CleanupInterval(); got != 15*time.Minute {
		t.Errorf("CleanupInterval() = %v, want 15m", got)
	}
}
