// Package config loads process configuration from the environment.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v3"
)

const appName = "pmdash"

// Backend modes
const (
	BackendEmbedded = "embedded"
	BackendRemote   = "remote"
)

// Config is the effective configuration of one pmdash process
type Config struct {
	Backend     string        `env:"PMDASH_BACKEND"      envDefault:"embedded" yaml:"backend"`
	URL         string        `env:"PMDASH_URL"          envDefault:"http://localhost:54321" yaml:"url"`
	AnonKey     string        `env:"PMDASH_ANON_KEY"     yaml:"anon_key,omitempty"`
	DataDir     string        `env:"PMDASH_DATA_DIR"     yaml:"data_dir"`
	JWTSecret   string        `env:"PMDASH_JWT_SECRET"   yaml:"jwt_secret,omitempty"`
	SessionTTL  time.Duration `env:"PMDASH_SESSION_TTL"  envDefault:"1h" yaml:"session_ttl"`
	Listen      string        `env:"PMDASH_LISTEN"       envDefault:"127.0.0.1:54321" yaml:"listen"`
	LogFile     string        `env:"PMDASH_LOG_FILE"     yaml:"log_file"`
	HTTPTimeout time.Duration `env:"PMDASH_HTTP_TIMEOUT" envDefault:"15s" yaml:"http_timeout"`
}

// ParseEnv loads configuration from environment variables.
func ParseEnv(target any) error {
	if err := env.Parse(target); err != nil {
		return fmt.Errorf("parse env: %w", err)
	}
	return nil
}

// Load parses the environment, fills derived defaults and validates
func Load() (Config, error) {
	var cfg Config
	if err := ParseEnv(&cfg); err != nil {
		return Config{}, err
	}

	if cfg.DataDir == "" {
		dir, err := defaultDataDir()
		if err != nil {
			return Config{}, err
		}
		cfg.DataDir = dir
	}
	if cfg.LogFile == "" {
		cfg.LogFile = filepath.Join(cfg.DataDir, appName+".log")
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) Validate() error {
	switch c.Backend {
	case BackendEmbedded, BackendRemote:
	default:
		return fmt.Errorf("invalid backend %q", c.Backend)
	}
	if c.Backend == BackendRemote && c.URL == "" {
		return fmt.Errorf("remote backend requires PMDASH_URL")
	}
	if c.SessionTTL <= 0 {
		return fmt.Errorf("session ttl must be positive, got %v", c.SessionTTL)
	}
	return nil
}

// defaultDataDir is $XDG_DATA_HOME/pmdash, falling back to ~/.local/share/pmdash
func defaultDataDir() (string, error) {
	dataDir := os.Getenv("XDG_DATA_HOME")
	if dataDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		dataDir = filepath.Join(home, ".local", "share")
	}
	return filepath.Join(dataDir, appName), nil
}

// EnsureDataDir creates DataDir if it does not exist
func (c Config) EnsureDataDir() error {
	return os.MkdirAll(c.DataDir, 0755)
}

func (c Config) DatabasePath() string {
	return filepath.Join(c.DataDir, appName+".db")
}

func (c Config) PrefsPath() string {
	return filepath.Join(c.DataDir, "prefs.yaml")
}

func (c Config) LogPath() string {
	return c.LogFile
}

// YAML renders the configuration with secrets redacted
func (c Config) YAML() ([]byte, error) {
	if c.JWTSecret != "" {
		c.JWTSecret = "[redacted]"
	}
	if c.AnonKey != "" {
		c.AnonKey = "[redacted]"
	}
	return yaml.Marshal(c)
}
