package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadConfigMissingFile(t *testing.T) {
	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "nope.toml"))
	if err != nil {
		t.Fatalf("expected no error for missing file, got %v", err)
	}
	if cfg.API.BaseURL != nil || cfg.Dashboard.SampleSize != nil {
		t.Fatalf("expected empty config, got %+v", cfg)
	}
}

func TestLoadConfigDecodesSections(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	content := `[api]
base-url = "http://localhost:9999"
delay = "250ms"

[dashboard]
mode = "sample"
sample-size = 30

[history]
disabled = true
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}
	if cfg.API.BaseURL == nil || *cfg.API.BaseURL != "http://localhost:9999" {
		t.Fatalf("unexpected base url: %v", cfg.API.BaseURL)
	}
	if cfg.API.Delay == nil || *cfg.API.Delay != "250ms" {
		t.Fatalf("unexpected delay: %v", cfg.API.Delay)
	}
	if cfg.Dashboard.SampleSize == nil || *cfg.Dashboard.SampleSize != 30 {
		t.Fatalf("unexpected sample size: %v", cfg.Dashboard.SampleSize)
	}
	if cfg.History.Disabled == nil || !*cfg.History.Disabled {
		t.Fatalf("expected history disabled")
	}
	if cfg.API.Timeout != nil {
		t.Fatalf("expected unset timeout, got %q", *cfg.API.Timeout)
	}
}

func TestLoadConfigRejectsEmptyPath(t *testing.T) {
	if _, err := LoadConfig(""); err == nil {
		t.Fatalf("expected error for empty path")
	}
}

func TestDotEnvAndApplyEnv(t *testing.T) {
	dir := t.TempDir()
	envPath := filepath.Join(dir, ".env")
	if err := os.WriteFile(envPath, []byte(EnvDBPath+"=/tmp/from-dotenv.db\n"), 0o644); err != nil {
		t.Fatalf("write .env: %v", err)
	}
	t.Setenv(EnvBaseURL, "http://env.example")
	t.Setenv(EnvDBPath, "")
	if err := os.Unsetenv(EnvDBPath); err != nil {
		t.Fatalf("unsetenv: %v", err)
	}

	if err := LoadDotEnv(envPath); err != nil {
		t.Fatalf("LoadDotEnv failed: %v", err)
	}
	if err := LoadDotEnv(filepath.Join(dir, "missing.env")); err != nil {
		t.Fatalf("expected missing .env to be ignored, got %v", err)
	}

	var cfg FileConfig
	ApplyEnv(&cfg)
	if cfg.API.BaseURL == nil || *cfg.API.BaseURL != "http://env.example" {
		t.Fatalf("unexpected base url: %v", cfg.API.BaseURL)
	}
	if cfg.History.DBPath == nil || *cfg.History.DBPath != "/tmp/from-dotenv.db" {
		t.Fatalf("unexpected db path: %v", cfg.History.DBPath)
	}
}

func TestDefaultPathsUseXDG(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", "/cfg")
	t.Setenv("XDG_DATA_HOME", "/data")
	if got := DefaultConfigPath(); got != filepath.Join("/cfg", "triviadash", "config.toml") {
		t.Fatalf("unexpected config path: %s", got)
	}
	if got := DefaultDBPath(); got != filepath.Join("/data", "triviadash", "triviadash.db") {
		t.Fatalf("unexpected db path: %s", got)
	}
}
