package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

// DefaultConfigPath is the YAML file read when CONFIG_PATH is not set.
const DefaultConfigPath = "config.yaml"

// localSessionSecret signs sessions in local development when no secret is configured.
const localSessionSecret = "bidzilla-local-development-secret"

// Session store backends.
const (
	SessionStoreCookie = "cookie"
	SessionStoreRedis  = "redis"
)

// Config holds all configuration for the Bidzilla web front end.
// Configuration can come from a YAML file or environment variables.
// Environment variables always override YAML values for fields that support both.
// Secrets (session secret, Redis password) must only come from environment variables.
type Config struct {
	// Server configuration
	BindAddr string `yaml:"bind_addr" env:"BIND_ADDR" env-default:"127.0.0.1"`
	Port     string `yaml:"port" env:"PORT" env-default:"3000"`
	Env      string `yaml:"env" env:"ENVIRONMENT" env-default:"local"`
	BaseURL  string `yaml:"base_url" env:"BASE_URL" env-default:""` // Auto-derived from Port if empty
	Version  string `yaml:"-"`                                      // Set at load time, not from config

	// TLS configuration (optional - if both provided, server uses HTTPS)
	TLSCertPath string `yaml:"tls_cert_path" env:"TLS_CERT_PATH" env-default:""`
	TLSKeyPath  string `yaml:"tls_key_path" env:"TLS_KEY_PATH" env-default:""`

	// API is the marketplace backend this front end talks to.
	API APIConfig `yaml:"api"`

	Session SessionConfig `yaml:"session"`
	Redis   RedisConfig   `yaml:"redis"`
	Auth    AuthConfig    `yaml:"auth"`
	Log     LogConfig     `yaml:"log"`
	Metrics MetricsConfig `yaml:"metrics"`
}

// APIConfig holds the marketplace backend client settings.
type APIConfig struct {
	BaseURL string `yaml:"base_url" env:"API_BASE_URL" env-default:"http://localhost:5000/api"`
	// Timeout bounds each backend request. Zero means no timeout.
	Timeout time.Duration `yaml:"timeout" env:"API_TIMEOUT" env-default:"0s"`
	// ReadRetries is how many times a failed GET is retried. Writes are never retried.
	ReadRetries int `yaml:"read_retries" env:"API_READ_RETRIES" env-default:"0"`
}

// SessionConfig holds browser session settings.
type SessionConfig struct {
	// Store selects the backend: "cookie" keeps the session in a signed cookie,
	// "redis" keeps it server-side with only a signed ID in the cookie.
	Store        string `yaml:"store" env:"SESSION_STORE" env-default:"cookie"`
	CookieName   string `yaml:"cookie_name" env:"SESSION_COOKIE_NAME" env-default:"bidzilla_session"`
	MaxAge       int    `yaml:"max_age" env:"SESSION_MAX_AGE" env-default:"604800"` // seconds
	CookieDomain string `yaml:"cookie_domain" env:"COOKIE_DOMAIN" env-default:""`
	Secret       string `yaml:"-" env:"SESSION_SECRET"` // Secret - not in YAML
	// TokenKey seals the backend token inside the session. Empty stores it signed only.
	TokenKey string `yaml:"-" env:"SESSION_TOKEN_KEY"` // Secret - not in YAML

	// InsecureSecret is set when the built-in development secret is in use.
	InsecureSecret bool `yaml:"-" env:"-"`
}

// RedisConfig holds Redis settings for the server-side session store.
type RedisConfig struct {
	Host      string `yaml:"host" env:"REDIS_HOST" env-default:""`
	Port      int    `yaml:"port" env:"REDIS_PORT" env-default:"6379"`
	DB        int    `yaml:"db" env:"REDIS_DB" env-default:"0"`
	Password  string `yaml:"-" env:"REDIS_PASSWORD"` // Secret - not in YAML
	KeyPrefix string `yaml:"key_prefix" env:"REDIS_KEY_PREFIX" env-default:"bidzilla:session:"`
}

// Addr returns host:port for the Redis client.
func (c *RedisConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// AuthConfig holds token verification settings.
type AuthConfig struct {
	// JWKSURL enables signature verification of backend tokens against a JWKS
	// endpoint. When empty, tokens are only inspected for expiry.
	JWKSURL string `yaml:"jwks_url" env:"AUTH_JWKS_URL" env-default:""`
}

// LogConfig holds logger settings.
type LogConfig struct {
	Level string `yaml:"level" env:"LOG_LEVEL" env-default:"info"`
}

// MetricsConfig controls the Prometheus endpoint.
type MetricsConfig struct {
	Enabled bool `yaml:"enabled" env:"METRICS_ENABLED" env-default:"true"`
}

// IsLocal reports whether the server runs in the local development environment.
func (c *Config) IsLocal() bool {
	return c.Env == "local"
}

// Load reads configuration from the YAML file named by CONFIG_PATH (default
// config.yaml) with environment variable overrides. A missing file is not an
// error; defaults and environment variables are used instead.
// The version parameter is injected at build time and set on the returned Config.
func Load(version string) (*Config, error) {
	cfg := &Config{
		Version: version,
	}

	path := os.Getenv("CONFIG_PATH")
	if path == "" {
		path = DefaultConfigPath
	}

	if _, err := os.Stat(path); err == nil {
		if err := cleanenv.ReadConfig(path, cfg); err != nil {
			return nil, fmt.Errorf("failed to read %s: %w", path, err)
		}
	} else if errors.Is(err, os.ErrNotExist) {
		if err := cleanenv.ReadEnv(cfg); err != nil {
			return nil, fmt.Errorf("failed to read environment: %w", err)
		}
	} else {
		return nil, fmt.Errorf("failed to stat %s: %w", path, err)
	}

	if err := cfg.finalize(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// finalize validates the loaded configuration and fills derived fields.
func (c *Config) finalize() error {
	if err := c.validateTLS(); err != nil {
		return fmt.Errorf("invalid TLS configuration: %w", err)
	}
	if err := c.validateAPI(); err != nil {
		return fmt.Errorf("invalid api configuration: %w", err)
	}
	if err := c.validateSession(); err != nil {
		return fmt.Errorf("invalid session configuration: %w", err)
	}

	c.API.BaseURL = ResolveURLForDocker(c.API.BaseURL)
	c.Redis.Host = ResolveHostForDocker(c.Redis.Host)

	// Auto-derive BaseURL from Port if not explicitly set
	// Use HTTPS scheme if TLS is configured
	if c.BaseURL == "" {
		scheme := "http"
		if c.TLSCertPath != "" {
			scheme = "https"
		}
		c.BaseURL = (&url.URL{
			Scheme: scheme,
			Host:   "localhost:" + c.Port,
		}).String()
	}

	return nil
}

// validateTLS ensures TLS configuration is valid if provided.
// Both cert and key must be provided together, and files must exist.
func (c *Config) validateTLS() error {
	certSet := c.TLSCertPath != ""
	keySet := c.TLSKeyPath != ""

	if certSet != keySet {
		return fmt.Errorf("both tls_cert_path and tls_key_path must be provided together")
	}

	if certSet {
		if _, err := os.Stat(c.TLSCertPath); err != nil {
			return fmt.Errorf("TLS cert file does not exist: %w", err)
		}
		if _, err := os.Stat(c.TLSKeyPath); err != nil {
			return fmt.Errorf("TLS key file does not exist: %w", err)
		}
	}

	return nil
}

func (c *Config) validateAPI() error {
	u, err := url.Parse(c.API.BaseURL)
	if err != nil {
		return fmt.Errorf("base_url: %w", err)
	}
	if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("base_url %q must be an absolute http(s) URL", c.API.BaseURL)
	}
	if c.API.Timeout < 0 {
		return fmt.Errorf("timeout must not be negative")
	}
	if c.API.ReadRetries < 0 {
		return fmt.Errorf("read_retries must not be negative")
	}
	return nil
}

func (c *Config) validateSession() error {
	switch c.Session.Store {
	case SessionStoreCookie:
	case SessionStoreRedis:
		if c.Redis.Host == "" {
			return fmt.Errorf("redis.host is required when session store is %q", SessionStoreRedis)
		}
	default:
		return fmt.Errorf("unknown session store %q (want %q or %q)", c.Session.Store, SessionStoreCookie, SessionStoreRedis)
	}

	if c.Session.MaxAge <= 0 {
		return fmt.Errorf("max_age must be positive")
	}

	if c.Session.Secret == "" {
		if !c.IsLocal() {
			return fmt.Errorf("SESSION_SECRET must be set outside the local environment")
		}
		c.Session.Secret = localSessionSecret
		c.Session.InsecureSecret = true
	}
	return nil
}
