// Package config provides configuration loading and structs for the glossary server and client.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds all configuration for the application.
type Config struct {
	Debug   bool          `yaml:"debug"`
	Server  ServerConfig  `yaml:"server"`
	Storage StorageConfig `yaml:"storage"`
	Search  SearchConfig  `yaml:"search"`
	Client  ClientConfig  `yaml:"client"`
	Render  RenderConfig  `yaml:"render"`
	Watch   WatchConfig   `yaml:"watch"`
	Auth    AuthConfig    `yaml:"auth"`
}

// AuthConfig holds account and session settings.
type AuthConfig struct {
	// SessionTTLHours is how long a login stays valid.
	SessionTTLHours int `yaml:"session_ttl_hours"`
	// HashCost is the bcrypt cost for new passwords.
	HashCost int `yaml:"hash_cost"`
	// SecureCookie marks the session cookie Secure (HTTPS only).
	SecureCookie bool `yaml:"secure_cookie"`
}

// SessionTTL returns the session lifetime as a duration.
func (a *AuthConfig) SessionTTL() time.Duration {
	return time.Duration(a.SessionTTLHours) * time.Hour
}

// WatchConfig holds import directory watch settings.
type WatchConfig struct {
	Directories []string `yaml:"directories"`
	Extensions  []string `yaml:"extensions"`
	Recursive   *bool    `yaml:"recursive"`
}

// RecursiveOrDefault returns whether to watch recursively; defaults to true when unset.
func (w *WatchConfig) RecursiveOrDefault() bool {
	if w.Recursive != nil {
		return *w.Recursive
	}
	return true
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
}

// Addr returns host:port.
func (s *ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// StorageConfig holds paths for the database, term index and uploaded documents.
type StorageConfig struct {
	DatabasePath   string `yaml:"database_path"`
	BleveIndexPath string `yaml:"bleve_index_path"`
	UploadDir      string `yaml:"upload_dir"`
}

// SearchConfig holds backend search settings.
type SearchConfig struct {
	// SuggestionLimit is the maximum number of "did you mean" suggestions.
	SuggestionLimit int `yaml:"suggestion_limit"`
	// SuggestionCutoff is the minimum similarity (0..1] for a suggestion.
	SuggestionCutoff float64 `yaml:"suggestion_cutoff"`
	// PairLimit is the maximum number of common pairs returned.
	PairLimit int `yaml:"pair_limit"`
}

// ClientConfig holds settings for the lookup client talking to a backend.
type ClientConfig struct {
	BaseURL string `yaml:"base_url"`
	// TimeoutSeconds bounds each request; 0 means no timeout.
	TimeoutSeconds int `yaml:"timeout_seconds"`
	// MaxInFlight bounds concurrent enrichment requests.
	MaxInFlight int `yaml:"max_in_flight"`
	// RequestsPerSecond limits outgoing requests; 0 means unlimited.
	RequestsPerSecond float64 `yaml:"requests_per_second"`
}

// Timeout returns the request timeout as a duration.
func (c *ClientConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutSeconds) * time.Second
}

// RenderConfig holds result rendering settings.
type RenderConfig struct {
	PreviewLimit int `yaml:"preview_limit"`
}

// Load reads and parses the config file at path, expands paths, and applies defaults.
// Returns an error if the file cannot be read or parsed.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	ApplyDefaults(&cfg)

	configDir := filepath.Dir(path)
	cfg.Storage.DatabasePath = expandPath(cfg.Storage.DatabasePath, configDir)
	cfg.Storage.BleveIndexPath = expandPath(cfg.Storage.BleveIndexPath, configDir)
	cfg.Storage.UploadDir = expandPath(cfg.Storage.UploadDir, configDir)
	for i := range cfg.Watch.Directories {
		cfg.Watch.Directories[i] = expandPath(cfg.Watch.Directories[i], configDir)
	}

	return &cfg, nil
}

// Save writes the config to path.
func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	return nil
}

// expandPath converts a path to absolute. Paths starting with "./" are relative to configDir;
// other relative paths are relative to the home directory.
func expandPath(path string, configDir string) string {
	if path == "" || filepath.IsAbs(path) {
		return path
	}
	if strings.HasPrefix(path, "./") || path == "." {
		return filepath.Join(configDir, path)
	}
	if home, err := os.UserHomeDir(); err == nil {
		return filepath.Join(home, path)
	}
	return path
}
