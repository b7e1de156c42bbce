// Package config handles NOESIS configuration loading.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/genecyber/NOESIS-sub002/identity"
	nerrors "github.com/genecyber/NOESIS-sub002/pkg/errors"
	"github.com/genecyber/NOESIS-sub002/stance"
)

// Storage backends.
const (
	BackendMemory = "memory"
	BackendBadger = "badger"
	BackendRedis  = "redis"
	BackendGit    = "git"
)

// Config is the root configuration structure.
type Config struct {
	Identity  identity.Config   `yaml:"identity"`
	Branching BranchingConfig   `yaml:"branching"`
	Mode      stance.ModeConfig `yaml:"mode"`
	Storage   StorageConfig     `yaml:"storage"`
	Logging   LoggingConfig     `yaml:"logging"`
	Server    ServerConfig      `yaml:"server"`
	Session   SessionConfig     `yaml:"session"`
}

// BranchingConfig holds branch manager settings.
type BranchingConfig struct {
	RootName     string `yaml:"root_name"`
	MaxSnapshots int    `yaml:"max_snapshots"`
}

// StorageConfig selects where session records are persisted.
type StorageConfig struct {
	Backend  string `yaml:"backend"`
	Path     string `yaml:"path"`
	RedisURL string `yaml:"redis_url"`
	// TTLHours expires Redis records; 0 keeps them forever.
	TTLHours int `yaml:"ttl_hours"`
}

// LoggingConfig holds logger settings.
type LoggingConfig struct {
	Level      string `yaml:"level"`
	File       string `yaml:"file"`
	Console    bool   `yaml:"console"`
	MaxSizeMB  int    `yaml:"max_size_mb"`
	MaxBackups int    `yaml:"max_backups"`
	MaxAgeDays int    `yaml:"max_age_days"`
}

// ServerConfig holds HTTP API settings.
type ServerConfig struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
}

// Addr returns host:port.
func (s ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// SessionConfig holds session settings.
type SessionConfig struct {
	Name       string `yaml:"name"`
	AutoSave   bool   `yaml:"auto_save"`
	ExportPath string `yaml:"export_path"`
}

// Default returns the default configuration.
func Default() *Config {
	return &Config{
		Identity: identity.DefaultConfig(),
		Branching: BranchingConfig{
			RootName:     "main",
			MaxSnapshots: 32,
		},
		Mode: stance.DefaultModeConfig(),
		Storage: StorageConfig{
			Backend: BackendBadger,
			Path:    "./data",
		},
		Logging: LoggingConfig{
			Level:      "info",
			File:       "./logs/noesis.log",
			Console:    false,
			MaxSizeMB:  50,
			MaxBackups: 5,
			MaxAgeDays: 30,
		},
		Server: ServerConfig{
			Host: "127.0.0.1",
			Port: 8090,
		},
		Session: SessionConfig{
			Name:       "default",
			AutoSave:   true,
			ExportPath: "./exports",
		},
	}
}

// Validate checks cross-field constraints.
func (c *Config) Validate() error {
	if err := c.Identity.Validate(); err != nil {
		return nerrors.Wrap(err, nerrors.ErrConfigInvalid, nerrors.CategoryConfig, "invalid identity section")
	}
	if err := c.Mode.Validate(); err != nil {
		return nerrors.New(nerrors.ErrConfigInvalid, nerrors.CategoryConfig, "invalid mode section").
			WithContext("field", "mode."+err.Field)
	}
	switch c.Storage.Backend {
	case BackendMemory, BackendBadger, BackendGit:
		if c.Storage.Backend != BackendMemory && c.Storage.Path == "" {
			return nerrors.New(nerrors.ErrConfigInvalid, nerrors.CategoryConfig, "storage.path is required").
				WithContext("backend", c.Storage.Backend)
		}
	case BackendRedis:
		if c.Storage.RedisURL == "" {
			return nerrors.New(nerrors.ErrConfigInvalid, nerrors.CategoryConfig, "storage.redis_url is required").
				WithSuggestion("Set storage.redis_url, e.g. redis://localhost:6379/0")
		}
	default:
		return nerrors.Newf(nerrors.ErrConfigInvalid, nerrors.CategoryConfig, "unknown storage backend %q", c.Storage.Backend).
			WithSuggestion("Use one of: memory, badger, redis, git")
	}
	if c.Server.Port < 0 || c.Server.Port > 65535 {
		return nerrors.Newf(nerrors.ErrConfigInvalid, nerrors.CategoryConfig, "invalid server port %d", c.Server.Port)
	}
	return nil
}

// Load loads configuration from a file, layering it over the defaults.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nerrors.Wrap(err, nerrors.ErrConfigNotFound, nerrors.CategoryConfig, "configuration file not found").
				WithContext("path", path).
				WithSuggestion("Run 'noesis init' to create a default config")
		}
		return nil, nerrors.Wrap(err, nerrors.ErrConfigNotFound, nerrors.CategoryConfig, "failed to read config").
			WithContext("path", path)
	}

	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, nerrors.Wrap(err, nerrors.ErrConfigParseFailed, nerrors.CategoryConfig, "failed to parse config").
			WithContext("path", path).
			WithSuggestion("Check the YAML syntax")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadOrDefault loads config from path, or returns default if not found.
func LoadOrDefault(path string) (*Config, error) {
	if path == "" {
		return Default(), nil
	}
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return Default(), nil
	}
	return Load(path)
}

// Save saves configuration to a file.
func (c *Config) Save(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nerrors.Wrap(err, nerrors.ErrConfigWriteFailed, nerrors.CategoryConfig, "failed to create config directory")
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return nerrors.Wrap(err, nerrors.ErrConfigWriteFailed, nerrors.CategoryConfig, "failed to marshal config")
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return nerrors.Wrap(err, nerrors.ErrConfigWriteFailed, nerrors.CategoryConfig, "failed to write config file").
			WithContext("path", path)
	}
	return nil
}

// DefaultConfigPath returns the default config file path.
func DefaultConfigPath() string {
	if _, err := os.Stat("noesis.yaml"); err == nil {
		return "noesis.yaml"
	}
	if _, err := os.Stat("config/noesis.yaml"); err == nil {
		return "config/noesis.yaml"
	}
	return "noesis.yaml"
}

// InitConfig creates a default config file if it doesn't exist.
func InitConfig(path string) error {
	if _, err := os.Stat(path); err == nil {
		return nil // Already exists
	}
	return Default().Save(path)
}
