package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoadExpandsEnvAndDefaults(t *testing.T) {
	t.Setenv("TEST_PG_URL", "postgres://quiz@db/quiz")
	t.Setenv("TEST_SALT", "s3cret")
	path := writeConfig(t, `
server:
  port: "9090"
postgres:
  url: ${TEST_PG_URL}
security:
  ip_hash_salt: ${TEST_SALT}
identity:
  secure_cookies: true
  session_ttl: 72h
oauth:
  client_id: id
  client_secret: secret
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Server.Port != "9090" || cfg.Postgres.URL != "postgres://quiz@db/quiz" || cfg.Security.IPHashSalt != "s3cret" {
		t.Fatalf("unexpected config %+v", cfg)
	}
	if !cfg.Identity.SecureCookies || cfg.Identity.GuestCookie != "guestId" || cfg.Identity.SessionCookie != "session" {
		t.Fatalf("unexpected identity section %+v", cfg.Identity)
	}
	if got := TTLDuration(cfg.Identity.SessionTTL, time.Hour); got != 72*time.Hour {
		t.Fatalf("expected 72h session ttl, got %v", got)
	}
	if !cfg.OAuthEnabled() || cfg.OAuth.Provider != "google" {
		t.Fatalf("expected oauth enabled with default provider")
	}
	if cfg.Log.Level != "info" || cfg.Log.Format != "json" {
		t.Fatalf("unexpected log defaults %+v", cfg.Log)
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Fatalf("expected error for missing file")
	}
}

func TestTTLDuration(t *testing.T) {
	if TTLDuration("", time.Minute) != time.Minute {
		t.Fatalf("expected fallback for empty")
	}
	if TTLDuration("garbage", time.Minute) != time.Minute {
		t.Fatalf("expected fallback for invalid")
	}
	if TTLDuration("90s", time.Minute) != 90*time.Second {
		t.Fatalf("expected parsed duration")
	}
}

func TestDefaults(t *testing.T) {
	cfg := Defaults()
	if cfg.Server.Port != "8080" || cfg.OAuthEnabled() {
		t.Fatalf("unexpected defaults %+v", cfg)
	}
}
