package shared

import (
	_ "embed"
	"fmt"
	"net"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/caarlos0/env/v11"
)

//go:embed config.example.toml
var exampleConf []byte

// Config represents the application configuration loaded from a TOML file and overlaid with environment variables.
type Config struct {
	Credentials CredentialsConfig `toml:"credentials"`
	Server      ServerConfig      `toml:"server"`
	Session     SessionConfig     `toml:"session"`
	Log         LogConfig         `toml:"log"`
}

// CredentialsConfig contains service-specific credentials.
type CredentialsConfig struct {
	Spotify SpotifyConfig `toml:"spotify"`
}

// SpotifyConfig contains Spotify API credentials and endpoints.
type SpotifyConfig struct {
	ClientID     string `toml:"client_id" env:"SPOTIFY_CLIENT_ID"`
	ClientSecret string `toml:"client_secret" env:"SPOTIFY_CLIENT_SECRET"`
	RedirectURI  string `toml:"redirect_uri" env:"SPOTIFY_REDIRECT_URI"`
	AccountsURL  string `toml:"accounts_url" env:"SPOTIFY_ACCOUNTS_URL"`
	APIBaseURL   string `toml:"api_base_url" env:"SPOTIFY_API_BASE_URL"`
}

// ServerConfig contains HTTP server settings.
type ServerConfig struct {
	Host            string        `toml:"host" env:"LISTENLOG_HOST"`
	Port            int           `toml:"port" env:"LISTENLOG_PORT"`
	Env             string        `toml:"env" env:"LISTENLOG_ENV"`
	RateLimit       float64       `toml:"rate_limit" env:"LISTENLOG_RATE_LIMIT"`
	RateBurst       int           `toml:"rate_burst" env:"LISTENLOG_RATE_BURST"`
	UpstreamTimeout time.Duration `toml:"upstream_timeout" env:"LISTENLOG_UPSTREAM_TIMEOUT"`
}

// SessionConfig contains the session cookie settings.
type SessionConfig struct {
	Secret     string        `toml:"secret" env:"LISTENLOG_SESSION_SECRET"`
	CookieName string        `toml:"cookie_name" env:"LISTENLOG_COOKIE_NAME"`
	MaxAge     time.Duration `toml:"max_age" env:"LISTENLOG_SESSION_MAX_AGE"`
}

// LogConfig contains logger settings.
type LogConfig struct {
	Level string `toml:"level" env:"LISTENLOG_LOG_LEVEL"`
}

// Addr returns the host:port listen address.
func (s ServerConfig) Addr() string {
	return net.JoinHostPort(s.Host, strconv.Itoa(s.Port))
}

// Production reports whether the server runs with production settings (secure cookies).
func (s ServerConfig) Production() bool {
	return strings.EqualFold(s.Env, "production")
}

// placeholderPrefix marks the sample values shown in the config template.
const placeholderPrefix = "your_spotify_"

// Configured reports whether real OAuth client credentials are present.
//
// Template placeholders count as unset.
func (s SpotifyConfig) Configured() bool {
	return credentialSet(s.ClientID) && credentialSet(s.ClientSecret)
}

func credentialSet(v string) bool {
	v = strings.TrimSpace(v)
	return v != "" && !strings.HasPrefix(v, placeholderPrefix)
}

// LoadConfig reads and parses a TOML configuration file from the specified path.
//
// Keys missing from the file keep the embedded defaults.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	config := DefaultConfig()
	if err := toml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	return config, nil
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
		return fmt.Errorf("config file already exists at %s", path)
	}

	if err := os.WriteFile(path, exampleConf, 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// ApplyEnv overlays environment variables onto the config.
//
// Unset variables keep the values already loaded.
func (c *Config) ApplyEnv() error {
	if err := env.Parse(c); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	return nil
}

// Validate checks the settings the server cannot start without.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.Session.Secret) == "" {
		return ErrMissingSecret
	}
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("%w: port %d", ErrInvalidConfig, c.Server.Port)
	}
	if c.Server.RateLimit < 0 {
		return fmt.Errorf("%w: negative rate_limit", ErrInvalidConfig)
	}
	return nil
}

// ResolveConfig loads path when it exists, falls back to defaults otherwise, then applies the environment.
func ResolveConfig(path string) (*Config, error) {
	config := DefaultConfig()
	if path != "" {
		if _, err := os.Stat(path); err == nil {
			loaded, err := LoadConfig(path)
			if err != nil {
				return nil, err
			}
			config = loaded
		}
	}

	if err := config.ApplyEnv(); err != nil {
		return nil, err
	}
	return config, nil
}
