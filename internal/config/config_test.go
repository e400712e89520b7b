package config

import (
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("RIDES_AUTH_MODE", "none")
	t.Setenv("RIDES_HTTP_ADDR", "")
	t.Setenv("RIDES_BASE_FARE", "")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.HTTP.Addr != ":8080" {
		t.Errorf("HTTP.Addr = %q, want :8080", cfg.HTTP.Addr)
	}
	if cfg.Pricing.BaseFare != 1000 {
		t.Errorf("BaseFare = %d, want 1000", cfg.Pricing.BaseFare)
	}
	if cfg.Ranking.CacheTTL != 30*time.Second {
		t.Errorf("CacheTTL = %s, want 30s", cfg.Ranking.CacheTTL)
	}
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("RIDES_AUTH_MODE", "JWT")
	t.Setenv("RIDES_JWT_SECRET", "s3cret")
	t.Setenv("RIDES_BASE_FARE", "1500")
	t.Setenv("RIDES_TRENDING_TTL", "5s")
	t.Setenv("RIDES_DB_MIGRATE", "false")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Auth.Mode != AuthJWT {
		t.Errorf("Auth.Mode = %q, want jwt", cfg.Auth.Mode)
	}
	if cfg.Pricing.BaseFare != 1500 {
		t.Errorf("BaseFare = %d, want 1500", cfg.Pricing.BaseFare)
	}
	if cfg.Ranking.CacheTTL != 5*time.Second {
		t.Errorf("CacheTTL = %s, want 5s", cfg.Ranking.CacheTTL)
	}
	if cfg.DB.Migrate {
		t.Error("DB.Migrate should be false")
	}
}

func TestValidate(t *testing.T) {
	cases := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{"jwt without secret", func(c *Config) { c.Auth.Mode = AuthJWT }, true},
		{"jwt with secret", func(c *Config) { c.Auth.Mode = AuthJWT; c.Auth.JWTSecret = "x" }, false},
		{"firebase without project", func(c *Config) { c.Auth.Mode = AuthFirebase }, true},
		{"unknown mode", func(c *Config) { c.Auth.Mode = "ldap" }, true},
		{"zero base fare", func(c *Config) { c.Auth.Mode = AuthNone; c.Pricing.BaseFare = 0 }, true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := Config{Pricing: PricingConfig{BaseFare: 1000}}
			tc.mutate(&cfg)
			err := cfg.Validate()
			if (err != nil) != tc.wantErr {
				t.Fatalf("Validate() err = %v, wantErr %v", err, tc.wantErr)
			}
		})
	}
}
