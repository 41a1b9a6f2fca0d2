// Package config loads Sentinel settings from defaults, an optional JSON file,
// an optional .env file, and SENTINEL_* environment variables, in that order.
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	envPrefix = "SENTINEL_"

	defaultSecret = "your-secret-key-change-this-in-production"
)

// Config is the full server configuration.
type Config struct {
	AppName string `json:"app_name"`
	Debug   bool   `json:"debug"`
	Port    int    `json:"port"`

	RootPath     string `json:"root_path"`
	DatabasePath string `json:"database_path"`
	FixturePath  string `json:"fixture_path"`

	SecretKey                string `json:"secret_key"`
	Algorithm                string `json:"algorithm"`
	AccessTokenExpireMinutes int    `json:"access_token_expire_minutes"`

	AdminUsername string `json:"admin_username"`
	AdminEmail    string `json:"admin_email"`
	AdminPassword string `json:"admin_password"`

	CookieForceSecure bool   `json:"cookie_force_secure"`
	CookieSameSite    string `json:"cookie_samesite"`

	RateLimitPerMinute int `json:"rate_limit_per_minute"`
	RateLimitBurst     int `json:"rate_limit_burst"`

	// SnapshotSeed seeds the synthetic snapshot generator; 0 seeds from the clock.
	SnapshotSeed int64 `json:"snapshot_seed"`

	TelemetryInterval Duration `json:"telemetry_interval"`

	// WebhookURL receives a Discord-style message for every directory event.
	WebhookURL string `json:"webhook_url"`

	TLS   TLSConfig   `json:"tls"`
	Redis RedisConfig `json:"redis"`
}

type TLSConfig struct {
	Enabled  bool   `json:"enabled"`
	CertPath string `json:"cert"`
	KeyPath  string `json:"key"`
}

type RedisConfig struct {
	Enabled  bool   `json:"enabled"`
	Address  string `json:"address"`
	Password string `json:"password"`
	DB       int    `json:"db"`
	Prefix   string `json:"prefix"`
}

// Duration decodes from either a Go duration string ("5s") or integer seconds.
type Duration struct {
	time.Duration
}

func (d Duration) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.String())
}

func (d *Duration) UnmarshalJSON(b []byte) error {
	var raw any
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	switch v := raw.(type) {
	case float64:
		d.Duration = time.Duration(v * float64(time.Second))
		return nil
	case string:
		parsed, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("invalid duration %q: %w", v, err)
		}
		d.Duration = parsed
		return nil
	default:
		return fmt.Errorf("invalid duration %s", string(b))
	}
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		AppName:                  "System-Sentinel",
		Port:                     8000,
		RootPath:                 ".",
		SecretKey:                defaultSecret,
		Algorithm:                "HS256",
		AccessTokenExpireMinutes: 30,
		AdminUsername:            "admin",
		AdminEmail:               "admin@systemsentinel.com",
		AdminPassword:            "admin123",
		CookieSameSite:           "lax",
		RateLimitPerMinute:       100,
		RateLimitBurst:           10,
		TelemetryInterval:        Duration{5 * time.Second},
		Redis: RedisConfig{
			Address: "localhost:6379",
			Prefix:  "sentinel:",
		},
	}
}

// Load builds the configuration. A missing config file or .env file is not an
// error; a malformed one is.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path != "" {
		if err := cfg.loadFile(path); err != nil {
			return nil, err
		}
	}
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}
	cfg.applyEnv()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) loadFile(path string) error {
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("read config: %w", err)
	}
	if len(strings.TrimSpace(string(data))) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, c); err != nil {
		return fmt.Errorf("error parsing configuration: %w", err)
	}
	return nil
}

func (c *Config) applyEnv() {
	envString("APP_NAME", &c.AppName)
	envBool("DEBUG", &c.Debug)
	envInt("PORT", &c.Port)
	envString("ROOT_PATH", &c.RootPath)
	envString("DATABASE_PATH", &c.DatabasePath)
	envString("FIXTURE_PATH", &c.FixturePath)
	envString("SECRET_KEY", &c.SecretKey)
	envString("ALGORITHM", &c.Algorithm)
	envInt("ACCESS_TOKEN_EXPIRE_MINUTES", &c.AccessTokenExpireMinutes)
	envString("ADMIN_USERNAME", &c.AdminUsername)
	envString("ADMIN_EMAIL", &c.AdminEmail)
	envString("ADMIN_PASSWORD", &c.AdminPassword)
	envBool("COOKIE_FORCE_SECURE", &c.CookieForceSecure)
	envString("COOKIE_SAMESITE", &c.CookieSameSite)
	envInt("RATE_LIMIT_PER_MINUTE", &c.RateLimitPerMinute)
	envInt("RATE_LIMIT_BURST", &c.RateLimitBurst)
	envInt64("SNAPSHOT_SEED", &c.SnapshotSeed)
	if v, ok := lookup("TELEMETRY_INTERVAL"); ok {
		if d, err := time.ParseDuration(v); err == nil {
			c.TelemetryInterval = Duration{d}
		}
	}
	envString("WEBHOOK_URL", &c.WebhookURL)
	envBool("USE_TLS", &c.TLS.Enabled)
	envString("TLS_CERT", &c.TLS.CertPath)
	envString("TLS_KEY", &c.TLS.KeyPath)
	envBool("REDIS_ENABLED", &c.Redis.Enabled)
	envString("REDIS_ADDRESS", &c.Redis.Address)
	envString("REDIS_PASSWORD", &c.Redis.Password)
	envInt("REDIS_DB", &c.Redis.DB)
	envString("REDIS_PREFIX", &c.Redis.Prefix)
}

// Validate rejects settings the server cannot start with.
func (c *Config) Validate() error {
	if c.Port < 1 || c.Port > 65535 {
		return fmt.Errorf("port must be between 1 and 65535, got %d", c.Port)
	}
	if !strings.EqualFold(c.Algorithm, "HS256") {
		return fmt.Errorf("unsupported token algorithm %q", c.Algorithm)
	}
	if c.AccessTokenExpireMinutes <= 0 {
		return fmt.Errorf("access_token_expire_minutes must be positive")
	}
	if strings.TrimSpace(c.SecretKey) == "" {
		return fmt.Errorf("secret_key is required")
	}
	if c.TLS.Enabled && (c.TLS.CertPath == "" || c.TLS.KeyPath == "") {
		return fmt.Errorf("tls enabled but cert or key path not provided")
	}
	if c.TelemetryInterval.Duration <= 0 {
		c.TelemetryInterval = Duration{5 * time.Second}
	}
	return nil
}

// TokenExpiry returns the access token lifetime.
func (c *Config) TokenExpiry() time.Duration {
	return time.Duration(c.AccessTokenExpireMinutes) * time.Minute
}

// UsingDefaultSecret reports whether the signing key was never changed.
func (c *Config) UsingDefaultSecret() bool {
	return c.SecretKey == defaultSecret
}

func lookup(key string) (string, bool) {
	v, ok := os.LookupEnv(envPrefix + key)
	if !ok || strings.TrimSpace(v) == "" {
		return "", false
	}
	return strings.TrimSpace(v), true
}

func envString(key string, dst *string) {
	if v, ok := lookup(key); ok {
		*dst = v
	}
}

func envInt(key string, dst *int) {
	if v, ok := lookup(key); ok {
		if n, err := strconv.Atoi(v); err == nil {
			*dst = n
		}
	}
}

func envInt64(key string, dst *int64) {
	if v, ok := lookup(key); ok {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			*dst = n
		}
	}
}

func envBool(key string, dst *bool) {
	if v, ok := lookup(key); ok {
		if b, err := strconv.ParseBool(v); err == nil {
			*dst = b
		}
	}
}
