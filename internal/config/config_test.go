package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func validConfig() Config {
	cfg := Config{
		HTTP:    HTTPConfig{Port: 8080},
		Backend: BackendConfig{URL: "http://localhost:9200"},
	}
	cfg.ApplyDefaults()
	return cfg
}

func TestValidate_Valid(t *testing.T) {
	cfg := validConfig()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestValidate_Errors(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"port zero", func(c *Config) { c.HTTP.Port = 0 }, "http.port"},
		{"port too big", func(c *Config) { c.HTTP.Port = 70000 }, "http.port"},
		{"missing url", func(c *Config) { c.Backend.URL = "" }, "backend.url is required"},
		{"bad scheme", func(c *Config) { c.Backend.URL = "tcp://localhost:9200" }, "http(s) URL"},
		{"no host", func(c *Config) { c.Backend.URL = "http://" }, "http(s) URL"},
		{"connect exceeds request", func(c *Config) {
			c.Backend.ConnectTimeoutSec = 20
			c.Backend.RequestTimeoutSec = 10
		}, "connect_timeout_sec"},
		{"negative shards", func(c *Config) { c.Backend.Shards = -1 }, "shards"},
		{"bad refresh", func(c *Config) { c.Backend.Refresh = "false" }, "backend.refresh"},
		{"negative db", func(c *Config) { c.UsageStore.DB = -1 }, "usage_store.db"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			cfg := validConfig()
			tc.mutate(&cfg)
			err := cfg.Validate()
			if err == nil {
				t.Fatal("expected error")
			}
			if !strings.Contains(err.Error(), tc.wantErr) {
				t.Errorf("error = %q, want mention of %q", err, tc.wantErr)
			}
		})
	}
}

func TestApplyDefaults(t *testing.T) {
	cfg := Config{}
	cfg.ApplyDefaults()

	if cfg.HTTP.Port != 8080 {
		t.Errorf("expected Port=8080, got %d", cfg.HTTP.Port)
	}
	if cfg.HTTP.ReadTimeoutSec != 10 {
		t.Errorf("expected ReadTimeoutSec=10, got %d", cfg.HTTP.ReadTimeoutSec)
	}
	if cfg.HTTP.ShutdownSec != 10 {
		t.Errorf("expected ShutdownSec=10, got %d", cfg.HTTP.ShutdownSec)
	}
	if cfg.Backend.Index != "documents" {
		t.Errorf("expected Index=documents, got %q", cfg.Backend.Index)
	}
	if cfg.Backend.ConnectTimeoutSec != 5 {
		t.Errorf("expected ConnectTimeoutSec=5, got %d", cfg.Backend.ConnectTimeoutSec)
	}
	if cfg.Backend.RequestTimeoutSec != 10 {
		t.Errorf("expected RequestTimeoutSec=10, got %d", cfg.Backend.RequestTimeoutSec)
	}
	if cfg.UsageStore.Buffer != 1024 {
		t.Errorf("expected Buffer=1024, got %d", cfg.UsageStore.Buffer)
	}
	if cfg.RateLimit.Limit() != DefaultRateLimitPerMinute {
		t.Errorf("expected default limit %d, got %d", DefaultRateLimitPerMinute, cfg.RateLimit.Limit())
	}
	if cfg.UsageStore.Enabled() {
		t.Error("usage store should be disabled by default")
	}
}

func TestApplyDefaults_NoOverride(t *testing.T) {
	cfg := Config{
		HTTP:    HTTPConfig{Port: 9000, ReadTimeoutSec: 30, WriteTimeoutSec: 60, ShutdownSec: 5},
		Backend: BackendConfig{Index: "docs-v2", ConnectTimeoutSec: 2, RequestTimeoutSec: 4},
	}
	cfg.ApplyDefaults()

	if cfg.HTTP.Port != 9000 {
		t.Errorf("expected Port=9000, got %d", cfg.HTTP.Port)
	}
	if cfg.HTTP.WriteTimeoutSec != 60 {
		t.Errorf("expected WriteTimeoutSec=60, got %d", cfg.HTTP.WriteTimeoutSec)
	}
	if cfg.Backend.Index != "docs-v2" {
		t.Errorf("expected Index=docs-v2, got %q", cfg.Backend.Index)
	}
	if cfg.Backend.ConnectTimeoutSec != 2 || cfg.Backend.RequestTimeoutSec != 4 {
		t.Errorf("timeouts overridden: %+v", cfg.Backend)
	}
}

func TestParse_RateLimit(t *testing.T) {
	tests := []struct {
		name string
		yaml string
		want int
	}{
		{"absent", "", DefaultRateLimitPerMinute},
		{"explicit", "rate_limit:\n  per_minute: 5\n", 5},
		{"zero disables", "rate_limit:\n  per_minute: 0\n", 0},
		{"negative disables", "rate_limit:\n  per_minute: -1\n", -1},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			cfg, err := Parse([]byte("backend:\n  url: http://localhost:9200\n" + tc.yaml))
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got := cfg.RateLimit.Limit(); got != tc.want {
				t.Errorf("Limit() = %d, want %d", got, tc.want)
			}
		})
	}
}

func TestParse_EnvExpansion(t *testing.T) {
	data := []byte(`
backend:
  url: ${OPENSEARCH_URL:-http://localhost:9200}
rate_limit:
  per_minute: ${RATE_LIMIT_PER_MIN:-120}
`)

	t.Run("defaults", func(t *testing.T) {
		t.Setenv("OPENSEARCH_URL", "")
		t.Setenv("RATE_LIMIT_PER_MIN", "")
		cfg, err := Parse(data)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if cfg.Backend.URL != "http://localhost:9200" {
			t.Errorf("URL = %q", cfg.Backend.URL)
		}
		if cfg.RateLimit.Limit() != 120 {
			t.Errorf("Limit() = %d", cfg.RateLimit.Limit())
		}
	})

	t.Run("overrides", func(t *testing.T) {
		t.Setenv("OPENSEARCH_URL", "https://search.internal:9200")
		t.Setenv("RATE_LIMIT_PER_MIN", "7")
		cfg, err := Parse(data)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if cfg.Backend.URL != "https://search.internal:9200" {
			t.Errorf("URL = %q", cfg.Backend.URL)
		}
		if cfg.RateLimit.Limit() != 7 {
			t.Errorf("Limit() = %d", cfg.RateLimit.Limit())
		}
	})
}

func TestParse_Invalid(t *testing.T) {
	if _, err := Parse([]byte("http: [")); err == nil {
		t.Error("expected parse error")
	}
	if _, err := Parse([]byte("http:\n  port: 8080\n")); err == nil {
		t.Error("expected validation error for missing backend.url")
	}
}

func TestLoad_ConfigFiles(t *testing.T) {
	for _, env := range []string{"local", "prod"} {
		t.Run(env, func(t *testing.T) {
			t.Setenv("OPENSEARCH_URL", "")
			t.Setenv("RATE_LIMIT_PER_MIN", "")
			cfg, err := Load(env)
			if err != nil {
				t.Fatalf("Load(%q): %v", env, err)
			}
			if cfg.RateLimit.Limit() != 120 {
				t.Errorf("Limit() = %d, want 120", cfg.RateLimit.Limit())
			}
		})
	}
}

func TestLoadDotEnv(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	t.Setenv("DOCSEARCH_TEST_PRESET", "process")

	content := "DOCSEARCH_TEST_FROM_FILE=file\nDOCSEARCH_TEST_PRESET=file\n"
	if err := os.WriteFile(filepath.Join(dir, ".env.local"), []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = os.Unsetenv("DOCSEARCH_TEST_FROM_FILE") })

	if err := LoadDotEnv("local"); err != nil {
		t.Fatalf("LoadDotEnv: %v", err)
	}
	if got := os.Getenv("DOCSEARCH_TEST_FROM_FILE"); got != "file" {
		t.Errorf("DOCSEARCH_TEST_FROM_FILE = %q", got)
	}
	if got := os.Getenv("DOCSEARCH_TEST_PRESET"); got != "process" {
		t.Errorf("process environment overridden: %q", got)
	}
}

func TestLoadDotEnv_NoFiles(t *testing.T) {
	t.Chdir(t.TempDir())
	if err := LoadDotEnv("local"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}
