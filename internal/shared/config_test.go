package shared

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestConfig(t *testing.T) {
	t.Run("DefaultConfig", func(t *testing.T) {
		config := DefaultConfig()

		if config.API.BaseURL != "http://localhost:8080" {
			t.Errorf("expected base URL http://localhost:8080, got %s", config.API.BaseURL)
		}

		if config.Auth.TokenLifetimeMinutes != 30 {
			t.Errorf("expected token lifetime 30, got %d", config.Auth.TokenLifetimeMinutes)
		}

		if config.Auth.RenewalMarginPercent != 17 {
			t.Errorf("expected renewal margin 17, got %d", config.Auth.RenewalMarginPercent)
		}

		if config.Output.PageSize != 20 {
			t.Errorf("expected page size 20, got %d", config.Output.PageSize)
		}
	})

	t.Run("CreateConfigFile", func(t *testing.T) {
		tmpDir := t.TempDir()
		configPath := filepath.Join(tmpDir, "config.toml")

		if err := CreateConfigFile(configPath); err != nil {
			t.Fatalf("failed to create config file: %v", err)
		}

		if _, err := os.Stat(configPath); err != nil {
			t.Fatalf("config file should exist: %v", err)
		}

		config, err := LoadConfig(configPath)
		if err != nil {
			t.Fatalf("failed to load created config: %v", err)
		}

		defaultConfig := DefaultConfig()
		if config.API.BaseURL != defaultConfig.API.BaseURL {
			t.Errorf("created config base URL doesn't match default")
		}

		if err := CreateConfigFile(configPath); err == nil {
			t.Error("creating config file again should fail")
		}
	})

	t.Run("LoadConfig", func(t *testing.T) {
		tmpDir := t.TempDir()
		configPath := filepath.Join(tmpDir, "config.toml")

		testConfig := `[api]
base_url = "https://streamly.example.com"
timeout_seconds = 5
rate_limit = 2.5

[auth]
token_lifetime_minutes = 15
renewal_margin_percent = 20
callback_port = 9999

[database]
path = "/custom/path.db"
max_open_conns = 20
max_idle_conns = 10

[output]
page_size = 50
format = "json"
`
		if err := os.WriteFile(configPath, []byte(testConfig), 0644); err != nil {
			t.Fatalf("failed to write test config: %v", err)
		}

		config, err := LoadConfig(configPath)
		if err != nil {
			t.Fatalf("failed to load config: %v", err)
		}

		if config.API.BaseURL != "https://streamly.example.com" {
			t.Errorf("expected custom base URL, got %s", config.API.BaseURL)
		}

		if config.Auth.CallbackPort != 9999 {
			t.Errorf("expected callback port 9999, got %d", config.Auth.CallbackPort)
		}

		if config.Database.Path != "/custom/path.db" {
			t.Errorf("expected database path /custom/path.db, got %s", config.Database.Path)
		}

		if config.Output.Format != "json" {
			t.Errorf("expected output format json, got %s", config.Output.Format)
		}
	})

	t.Run("TokenLifetime", func(t *testing.T) {
		if got := (AuthConfig{TokenLifetimeMinutes: 45}).TokenLifetime(); got != 45*time.Minute {
			t.Errorf("expected 45m, got %v", got)
		}

		if got := (AuthConfig{}).TokenLifetime(); got != 30*time.Minute {
			t.Errorf("expected 30m fallback, got %v", got)
		}
	})

	t.Run("RenewalInterval", func(t *testing.T) {
		conf := AuthConfig{RenewalMarginPercent: 20}

		if got := conf.RenewalInterval(30 * time.Minute); got != 24*time.Minute {
			t.Errorf("expected 24m, got %v", got)
		}

		// out-of-range margins snap to the default 17
		conf.RenewalMarginPercent = 90
		if got := conf.RenewalInterval(100 * time.Minute); got != 83*time.Minute {
			t.Errorf("expected 83m, got %v", got)
		}

		// never renews more often than once a minute
		if got := conf.RenewalInterval(10 * time.Second); got != time.Minute {
			t.Errorf("expected 1m floor, got %v", got)
		}
	})

	t.Run("ResolvedPath", func(t *testing.T) {
		conf := DatabaseConfig{Path: "/explicit/streamly.db"}
		path, err := conf.ResolvedPath()
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if path != "/explicit/streamly.db" {
			t.Errorf("expected explicit path, got %s", path)
		}

		path, err = DatabaseConfig{}.ResolvedPath()
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if filepath.Base(path) != "streamly.db" {
			t.Errorf("expected state-dir fallback, got %s", path)
		}
	})
}
