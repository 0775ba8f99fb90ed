package shared

import (
	_ "embed"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/BurntSushi/toml"
)

//go:embed config.example.toml
var exampleConf []byte

// Config represents the application configuration loaded from a TOML file.
type Config struct {
	API      APIConfig      `toml:"api"`
	Auth     AuthConfig     `toml:"auth"`
	Database DatabaseConfig `toml:"database"`
	Output   OutputConfig   `toml:"output"`
}

// APIConfig contains backend connection settings.
type APIConfig struct {
	BaseURL        string  `toml:"base_url"`
	TimeoutSeconds int     `toml:"timeout_seconds"`
	RateLimit      float64 `toml:"rate_limit"` // requests per second, 0 disables throttling
}

// AuthConfig contains session lifecycle settings.
type AuthConfig struct {
	// TokenLifetimeMinutes is the backend's advertised access-token lifetime.
	// Used as a fallback when the lifetime cannot be read from the token itself.
	TokenLifetimeMinutes int `toml:"token_lifetime_minutes"`

	// RenewalMarginPercent is how far ahead of expiry silent renewal runs (15-20% recommended).
	RenewalMarginPercent int `toml:"renewal_margin_percent"`

	// CallbackPort is the loopback port used to capture identity-provider redirects.
	CallbackPort int `toml:"callback_port"`
}

// DatabaseConfig contains local cache database settings.
type DatabaseConfig struct {
	Path         string `toml:"path"`
	MaxOpenConns int    `toml:"max_open_conns"`
	MaxIdleConns int    `toml:"max_idle_conns"`
}

// ResolvedPath returns the configured database path, falling back to
// streamly.db in the state directory when unset.
func (d DatabaseConfig) ResolvedPath() (string, error) {
	if d.Path != "" {
		return d.Path, nil
	}

	dir, err := StateDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "streamly.db"), nil
}

// OutputConfig contains defaults for list rendering and exports.
type OutputConfig struct {
	PageSize int    `toml:"page_size"`
	Format   string `toml:"format"` // table, json, csv, markdown
}

// TokenLifetime returns the configured token lifetime as a [time.Duration].
func (a AuthConfig) TokenLifetime() time.Duration {
	if a.TokenLifetimeMinutes <= 0 {
		return 30 * time.Minute
	}
	return time.Duration(a.TokenLifetimeMinutes) * time.Minute
}

// RenewalInterval derives the silent-renewal interval from a credential lifetime,
// keeping the configured safety margin ahead of expiry.
func (a AuthConfig) RenewalInterval(lifetime time.Duration) time.Duration {
	margin := a.RenewalMarginPercent
	if margin < 5 || margin > 50 {
		margin = 17
	}
	interval := lifetime - lifetime*time.Duration(margin)/100
	if interval < time.Minute {
		interval = time.Minute
	}
	return interval
}

// LoadConfig reads and parses a TOML configuration file from the specified path.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var config Config
	if err := toml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	return &config, nil
}

// DefaultConfig returns a Config with sensible defaults loaded from the embedded example config.
func DefaultConfig() *Config {
	var config Config
	if err := toml.Unmarshal(exampleConf, &config); err != nil {
		panic(fmt.Sprintf("failed to parse embedded default config: %v", err))
	}
	return &config
}

// CreateConfigFile creates a config.toml file at the specified path using the embedded example config.
func CreateConfigFile(path string) error {
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("%w: config file already exists at %s", ErrInvalidArgument, path)
	}

	if err := os.WriteFile(path, exampleConf, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}
