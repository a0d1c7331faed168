package config

import (
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Server struct {
		Port            string `yaml:"port"`
		ReadTimeout     string `yaml:"read_timeout"`
		WriteTimeout    string `yaml:"write_timeout"`
		ShutdownTimeout string `yaml:"shutdown_timeout"`
		// AllowedOrigins limits live leaderboard upgrades; empty allows any origin.
		AllowedOrigins []string `yaml:"allowed_origins"`
	} `yaml:"server"`
	Log struct {
		Level  string `yaml:"level"`
		Format string `yaml:"format"`
	} `yaml:"log"`
	Redis struct {
		Addr     string `yaml:"addr"`
		Password string `yaml:"password"`
		DB       int    `yaml:"db"`
	} `yaml:"redis"`
	Postgres struct {
		URL string `yaml:"url"`
	} `yaml:"postgres"`
	Identity struct {
		GuestCookie   string `yaml:"guest_cookie"`
		SessionCookie string `yaml:"session_cookie"`
		SecureCookies bool   `yaml:"secure_cookies"`
		TrustProxy    bool   `yaml:"trust_proxy"`
		SessionTTL    string `yaml:"session_ttl"`
	} `yaml:"identity"`
	Security struct {
		IPHashSalt string `yaml:"ip_hash_salt"`
	} `yaml:"security"`
	OAuth struct {
		Provider      string   `yaml:"provider"`
		ClientID      string   `yaml:"client_id"`
		ClientSecret  string   `yaml:"client_secret"`
		RedirectURL   string   `yaml:"redirect_url"`
		AuthURL       string   `yaml:"auth_url"`
		TokenURL      string   `yaml:"token_url"`
		UserInfoURL   string   `yaml:"userinfo_url"`
		Scopes        []string `yaml:"scopes"`
		AfterLoginURL string   `yaml:"after_login_url"`
	} `yaml:"oauth"`
	Trivia struct {
		BaseURL   string `yaml:"base_url"`
		UserAgent string `yaml:"user_agent"`
		Timeout   string `yaml:"timeout"`
	} `yaml:"trivia"`
}

// OAuthEnabled reports whether sign-in credentials are configured.
func (c Config) OAuthEnabled() bool {
	return c.OAuth.ClientID != "" && c.OAuth.ClientSecret != ""
}

// Load reads YAML config from path. ${VAR} references are expanded from the
// environment before decoding, then unset values take their defaults.
func Load(path string) (Config, error) {
	cfg := Config{}
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}
	if err := yaml.Unmarshal([]byte(os.ExpandEnv(string(data))), &cfg); err != nil {
		return cfg, err
	}
	cfg.applyDefaults()
	return cfg, nil
}

// Defaults returns a config with every default applied, used when no file exists.
func Defaults() Config {
	cfg := Config{}
	cfg.applyDefaults()
	return cfg
}

func (c *Config) applyDefaults() {
	if c.Server.Port == "" {
		c.Server.Port = "8080"
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Log.Format == "" {
		c.Log.Format = "json"
	}
	if c.Identity.GuestCookie == "" {
		c.Identity.GuestCookie = "guestId"
	}
	if c.Identity.SessionCookie == "" {
		c.Identity.SessionCookie = "session"
	}
	if c.OAuth.Provider == "" {
		c.OAuth.Provider = "google"
	}
	if c.OAuth.AfterLoginURL == "" {
		c.OAuth.AfterLoginURL = "/"
	}
}

// TTLDuration parses a duration string or returns the fallback if empty.
func TTLDuration(raw string, fallback time.Duration) time.Duration {
	if raw == "" {
		return fallback
	}
	if d, err := time.ParseDuration(raw); err == nil {
		return d
	}
	return fallback
}
