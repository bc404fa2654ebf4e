package config

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"regexp"
	"runtime"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// DefaultRateLimitPerMinute applies when rate_limit.per_minute is absent.
const DefaultRateLimitPerMinute = 120

// Config holds the docsearch API configuration.
type Config struct {
	HTTP       HTTPConfig       `yaml:"http"`
	Backend    BackendConfig    `yaml:"backend"`
	RateLimit  RateLimitConfig  `yaml:"rate_limit"`
	UsageStore UsageStoreConfig `yaml:"usage_store"`
	Auth       AuthConfig       `yaml:"auth"`
	Logging    LoggingConfig    `yaml:"logging"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level string `yaml:"level"` // debug, info, warn, error (default: determined by env)
}

// AuthConfig holds API authentication settings.
type AuthConfig struct {
	APIKeys []string `yaml:"api_keys"`
}

// HTTPConfig holds HTTP server settings.
type HTTPConfig struct {
	Port            int `yaml:"port"`
	ReadTimeoutSec  int `yaml:"read_timeout_sec"`
	WriteTimeoutSec int `yaml:"write_timeout_sec"`
	ShutdownSec     int `yaml:"shutdown_timeout_sec"`
}

// BackendConfig holds search backend connection settings.
type BackendConfig struct {
	URL               string `yaml:"url"`
	Username          string `yaml:"username"`
	Password          string `yaml:"password"`
	Index             string `yaml:"index"`
	Shards            int    `yaml:"shards"`   // 0 = cluster default
	Replicas          int    `yaml:"replicas"` // 0 = cluster default
	Refresh           string `yaml:"refresh"`  // "", "true", "wait_for"
	ConnectTimeoutSec int    `yaml:"connect_timeout_sec"`
	RequestTimeoutSec int    `yaml:"request_timeout_sec"`
	ReadinessTimeout  int    `yaml:"readiness_timeout_sec"`
}

// RateLimitConfig holds per-tenant admission settings.
type RateLimitConfig struct {
	PerMinute *int `yaml:"per_minute"` // nil = default, <= 0 disables
}

// Limit returns the effective per-minute limit.
func (c RateLimitConfig) Limit() int {
	if c.PerMinute == nil {
		return DefaultRateLimitPerMinute
	}
	return *c.PerMinute
}

// UsageStoreConfig holds the optional Redis store for decision counters.
// The store is disabled when Addrs is empty.
type UsageStoreConfig struct {
	Addrs    []string `yaml:"addrs"`
	Username string   `yaml:"username"`
	Password string   `yaml:"password"`
	DB       int      `yaml:"db"`
	TTLSec   int      `yaml:"ttl_sec"`
	Buffer   int      `yaml:"buffer"`
}

// Enabled reports whether a usage store is configured.
func (c UsageStoreConfig) Enabled() bool { return len(c.Addrs) > 0 }

// Load reads configuration from a YAML file by environment name (local, dev, prod).
func Load(env string) (Config, error) {
	configPath := findConfigPath(env)

	data, err := os.ReadFile(filepath.Clean(configPath))
	if err != nil {
		return Config{}, fmt.Errorf("failed to read config %s: %w", configPath, err)
	}

	return Parse(data)
}

// Parse decodes YAML configuration, expanding ${VAR} and ${VAR:-default}.
func Parse(data []byte) (Config, error) {
	data = expandEnvVars(data)

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("failed to parse config: %w", err)
	}

	cfg.ApplyDefaults()

	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

// MustLoad loads configuration or panics.
func MustLoad(env string) Config {
	cfg, err := Load(env)
	if err != nil {
		panic(err)
	}
	return cfg
}

// LoadDotEnv loads .env.<env> and .env if present. Variables already set in
// the process environment win.
func LoadDotEnv(env string) error {
	for _, name := range []string{".env." + env, ".env"} {
		if !fileExists(name) {
			continue
		}
		if err := godotenv.Load(name); err != nil {
			return fmt.Errorf("load %s: %w", name, err)
		}
	}
	return nil
}

// GetEnv returns the current environment from the ENV variable, defaulting to "local".
func GetEnv() string {
	if env := os.Getenv("ENV"); env != "" {
		return env
	}
	return "local"
}

// ApplyDefaults fills empty fields with default values.
func (c *Config) ApplyDefaults() {
	if c.HTTP.Port == 0 {
		c.HTTP.Port = 8080
	}
	if c.HTTP.ReadTimeoutSec <= 0 {
		c.HTTP.ReadTimeoutSec = 10
	}
	if c.HTTP.WriteTimeoutSec <= 0 {
		c.HTTP.WriteTimeoutSec = 15
	}
	if c.HTTP.ShutdownSec <= 0 {
		c.HTTP.ShutdownSec = 10
	}
	if c.Backend.Index == "" {
		c.Backend.Index = "documents"
	}
	if c.Backend.ConnectTimeoutSec <= 0 {
		c.Backend.ConnectTimeoutSec = 5
	}
	if c.Backend.RequestTimeoutSec <= 0 {
		c.Backend.RequestTimeoutSec = 10
	}
	if c.Backend.ReadinessTimeout <= 0 {
		c.Backend.ReadinessTimeout = 30
	}
	if c.UsageStore.TTLSec <= 0 {
		c.UsageStore.TTLSec = 48 * 60 * 60
	}
	if c.UsageStore.Buffer <= 0 {
		c.UsageStore.Buffer = 1024
	}
}

// Validate checks the configuration for correctness.
func (c *Config) Validate() error {
	if c.HTTP.Port <= 0 || c.HTTP.Port > 65535 {
		return fmt.Errorf("http.port must be between 1 and 65535, got %d", c.HTTP.Port)
	}
	if c.Backend.URL == "" {
		return fmt.Errorf("backend.url is required")
	}
	u, err := url.Parse(c.Backend.URL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("backend.url must be an http(s) URL, got %q", c.Backend.URL)
	}
	if c.Backend.ConnectTimeoutSec > c.Backend.RequestTimeoutSec {
		return fmt.Errorf(
			"backend.connect_timeout_sec (%d) must not exceed backend.request_timeout_sec (%d)",
			c.Backend.ConnectTimeoutSec, c.Backend.RequestTimeoutSec,
		)
	}
	if c.Backend.Shards < 0 || c.Backend.Replicas < 0 {
		return fmt.Errorf("backend.shards and backend.replicas must not be negative")
	}
	switch c.Backend.Refresh {
	case "", "true", "wait_for":
		// ok
	default:
		return fmt.Errorf("backend.refresh must be \"\", \"true\" or \"wait_for\", got %q", c.Backend.Refresh)
	}
	if c.UsageStore.DB < 0 {
		return fmt.Errorf("usage_store.db must not be negative, got %d", c.UsageStore.DB)
	}
	return nil
}

// findConfigPath locates the config file.
func findConfigPath(env string) string {
	filename := fmt.Sprintf("%s.yaml", env)

	// 1. Check ./config/
	if path := filepath.Join("config", filename); fileExists(path) {
		return path
	}

	// 2. Check relative to the source file
	_, b, _, _ := runtime.Caller(0)
	projectRoot := filepath.Dir(filepath.Dir(filepath.Dir(b))) // internal/config -> project root
	if path := filepath.Join(projectRoot, "config", filename); fileExists(path) {
		return path
	}

	// 3. Fallback to ./config/
	return filepath.Join("config", filename)
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// expandEnvVars replaces ${VAR} and ${VAR:-default} with environment variable values.
var envVarRegex = regexp.MustCompile(`\$\{([^}]+)\}`)

func expandEnvVars(data []byte) []byte {
	return envVarRegex.ReplaceAllFunc(data, func(match []byte) []byte {
		expr := string(match[2 : len(match)-1]) // strip ${ and }
		varName, defaultVal, hasDefault := strings.Cut(expr, ":-")
		val := os.Getenv(varName)
		if val == "" && hasDefault {
			val = defaultVal
		}
		return []byte(val)
	})
}
