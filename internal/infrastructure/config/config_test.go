package config

import (
	"context"
	"testing"
	"time"

	"github.com/sethvargo/go-envconfig"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := load(context.Background(), envconfig.MapLookuper(map[string]string{
		"JWT_SECRET": "s3cret",
	}))
	if err != nil {
		t.Fatalf("load: %v", err)
	}

	if cfg.Port != "8080" || cfg.Env != "development" || cfg.LogLevel != "info" {
		t.Fatalf("unexpected server defaults: %+v", cfg)
	}
	if cfg.AccessTokenTTL != 5*time.Minute || cfg.RefreshTokenTTL != 24*time.Hour {
		t.Fatalf("unexpected token lifetimes: %s / %s", cfg.AccessTokenTTL, cfg.RefreshTokenTTL)
	}
	if cfg.StoreDriver != DriverPostgres {
		t.Fatalf("expected postgres driver by default, got %q", cfg.StoreDriver)
	}
	if cfg.Redis.LockTTL != 5*time.Second {
		t.Fatalf("unexpected lock ttl %s", cfg.Redis.LockTTL)
	}
	if !cfg.IsDevelopment() {
		t.Fatalf("expected development mode")
	}
}

func TestLoad_Overrides(t *testing.T) {
	cfg, err := load(context.Background(), envconfig.MapLookuper(map[string]string{
		"JWT_SECRET":       "s3cret",
		"ENV":              "production",
		"STORE_DRIVER":     "Mongo",
		"MONGO_DB":         "accounts",
		"ACCESS_TOKEN_TTL": "15m",
		"REDIS_DB":         "3",
	}))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.StoreDriver != DriverMongo || cfg.Mongo.Database != "accounts" {
		t.Fatalf("unexpected store config: %q %q", cfg.StoreDriver, cfg.Mongo.Database)
	}
	if cfg.AccessTokenTTL != 15*time.Minute || cfg.Redis.DB != 3 {
		t.Fatalf("overrides not applied: %+v", cfg)
	}
	if cfg.IsDevelopment() {
		t.Fatalf("production must not be development")
	}
}

func TestLoad_Errors(t *testing.T) {
	cases := map[string]map[string]string{
		"missing secret":   {},
		"unknown driver":   {"JWT_SECRET": "x", "STORE_DRIVER": "sqlite"},
		"refresh < access": {"JWT_SECRET": "x", "ACCESS_TOKEN_TTL": "1h", "REFRESH_TOKEN_TTL": "1m"},
		"bad duration":     {"JWT_SECRET": "x", "LOCK_TTL": "soon"},
	}
	for name, env := range cases {
		t.Run(name, func(t *testing.T) {
			if _, err := load(context.Background(), envconfig.MapLookuper(env)); err == nil {
				t.Fatalf("expected error")
			}
		})
	}
}
