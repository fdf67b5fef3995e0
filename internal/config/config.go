// Package config loads settingsctl configuration from YAML with environment
// overrides.
package config

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

const (
	StoreFile   = "file"
	StoreBadger = "badger"
	StoreMemory = "memory"
)

// Config is the full CLI configuration.
type Config struct {
	Store     StoreConfig  `yaml:"store"`
	Window    WindowConfig `yaml:"window"`
	Rules     RulesConfig  `yaml:"rules"`
	Log       LogConfig    `yaml:"log"`
	Catalog   string       `yaml:"catalog"`
	LocalOnly []string     `yaml:"local_only"`
}

// StoreConfig selects the shared store backend.
type StoreConfig struct {
	Kind       string `yaml:"kind"`
	Path       string `yaml:"path"`
	SyncWrites bool   `yaml:"sync_writes"`
}

// WindowConfig describes the window the CLI acts as.
type WindowConfig struct {
	ID          string `yaml:"id"`
	Kind        string `yaml:"kind"`
	Transparent bool   `yaml:"transparent"`
}

type RulesConfig struct {
	Engine string `yaml:"engine"`
}

type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// Default returns the configuration used when no file or variable says
// otherwise.
func Default() Config {
	return Config{
		Store:  StoreConfig{Kind: StoreFile, Path: "data/settings"},
		Window: WindowConfig{Kind: "desktop"},
		Rules:  RulesConfig{Engine: "expr"},
		Log:    LogConfig{Level: "info", Format: "text"},
	}
}

// Load reads path (when non-empty) over the defaults and applies the
// SETTINGS_* environment variables on top.
func Load(path string) (Config, error) {
	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("config: read %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("config: parse %s: %w", path, err)
		}
	}
	cfg.ApplyEnv(os.Getenv)
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// ApplyEnv overrides fields from getenv. Empty values are ignored.
func (c *Config) ApplyEnv(getenv func(string) string) {
	if v := getenv("SETTINGS_STORE"); v != "" {
		c.Store.Kind = v
	}
	if v := getenv("SETTINGS_PATH"); v != "" {
		c.Store.Path = v
	}
	if v := getenv("SETTINGS_SYNC_WRITES"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			c.Store.SyncWrites = b
		}
	}
	if v := getenv("SETTINGS_WINDOW"); v != "" {
		c.Window.Kind = v
	}
	if v := getenv("SETTINGS_RULES_ENGINE"); v != "" {
		c.Rules.Engine = v
	}
	if v := getenv("SETTINGS_LOG_LEVEL"); v != "" {
		c.Log.Level = v
	}
	if v := getenv("SETTINGS_CATALOG"); v != "" {
		c.Catalog = v
	}
}

// Validate checks enumerated fields.
func (c Config) Validate() error {
	var errs []error
	switch c.Store.Kind {
	case StoreFile, StoreBadger:
		if c.Store.Path == "" {
			errs = append(errs, fmt.Errorf("config: store %q requires a path", c.Store.Kind))
		}
	case StoreMemory:
	default:
		errs = append(errs, fmt.Errorf("config: unknown store kind %q", c.Store.Kind))
	}
	switch c.Window.Kind {
	case "desktop", "inGame":
	default:
		errs = append(errs, fmt.Errorf("config: unknown window kind %q", c.Window.Kind))
	}
	if _, err := parseLevel(c.Log.Level); err != nil {
		errs = append(errs, err)
	}
	switch c.Log.Format {
	case "", "text", "json":
	default:
		errs = append(errs, fmt.Errorf("config: unknown log format %q", c.Log.Format))
	}
	return errors.Join(errs...)
}

// Logger builds the slog logger described by the log section.
func (c Config) Logger(w io.Writer) *slog.Logger {
	level, _ := parseLevel(c.Log.Level)
	opts := &slog.HandlerOptions{Level: level}
	if c.Log.Format == "json" {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}

func parseLevel(level string) (slog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return slog.LevelDebug, nil
	case "", "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, fmt.Errorf("config: unknown log level %q", level)
	}
}
