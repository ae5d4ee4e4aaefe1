package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// Config holds the global ish configuration.
type Config struct {
	Prompt  string        `yaml:"prompt"`
	Color   string        `yaml:"color" validate:"oneof=auto always never"`
	Home    string        `yaml:"home"`
	History HistoryConfig `yaml:"history"`
	Path    PathConfig    `yaml:"path"`
	Journal JournalConfig `yaml:"journal"`
	Log     LogConfig     `yaml:"log"`
}

// HistoryConfig locates the history file. An empty File disables loading
// at startup and saving on exit.
type HistoryConfig struct {
	File string `yaml:"file"`
}

// PathConfig controls executable lookup.
type PathConfig struct {
	// Dirs overrides $PATH when non-empty.
	Dirs []string `yaml:"dirs"`

	// CacheTTL is how long a resolved command stays hashed. "0" disables
	// hashing.
	CacheTTL string `yaml:"cache_ttl" validate:"duration"`
}

// TTL parses CacheTTL. Validate guarantees it parses.
func (p *PathConfig) TTL() time.Duration {
	d, _ := time.ParseDuration(p.CacheTTL)
	return d
}

// JournalConfig controls the command journal.
type JournalConfig struct {
	Enabled bool   `yaml:"enabled"`
	Path    string `yaml:"path" validate:"required_if=Enabled true"`
}

// LogConfig controls diagnostic logging. Nothing is logged when Path is
// empty.
type LogConfig struct {
	Path       string `yaml:"path"`
	Level      string `yaml:"level" validate:"oneof=debug info warn error"`
	Format     string `yaml:"format" validate:"oneof=text json"`
	MaxSizeMB  int    `yaml:"max_size_mb" validate:"min=1"`
	MaxBackups int    `yaml:"max_backups" validate:"min=0"`
	MaxAgeDays int    `yaml:"max_age_days" validate:"min=0"`
}

// DefaultConfig returns the default configuration, seeded from the
// environment.
func DefaultConfig() *Config {
	home, _ := os.UserHomeDir()
	if h := os.Getenv("HOME"); h != "" {
		home = h
	}
	return &Config{
		Prompt: "$ ",
		Color:  "auto",
		Home:   home,
		History: HistoryConfig{
			File: os.Getenv("HISTFILE"),
		},
		Path: PathConfig{
			CacheTTL: "0s",
		},
		Journal: JournalConfig{
			Path: filepath.Join(home, ".local", "share", "ish", "journal.jsonl"),
		},
		Log: LogConfig{
			Level:      "info",
			Format:     "text",
			MaxSizeMB:  10,
			MaxBackups: 3,
			MaxAgeDays: 28,
		},
	}
}

// Load reads the config from the standard location (~/.config/ish/config.yaml).
// If the file doesn't exist, returns the default config.
func Load() (*Config, error) {
	return LoadFrom(ConfigPath())
}

// LoadFrom reads the config from the given path.
func LoadFrom(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return DefaultConfig(), nil
		}
		return nil, fmt.Errorf("read config: %w", err)
	}
	return Parse(data, path)
}

// Parse decodes YAML over the defaults, expands ~ in path fields and
// validates the result. name is used in error messages.
func Parse(data []byte, name string) (*Config, error) {
	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", name, err)
	}

	cfg.History.File = expandTilde(cfg.History.File, cfg.Home)
	cfg.Journal.Path = expandTilde(cfg.Journal.Path, cfg.Home)
	cfg.Log.Path = expandTilde(cfg.Log.Path, cfg.Home)
	for i, d := range cfg.Path.Dirs {
		cfg.Path.Dirs[i] = expandTilde(d, cfg.Home)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config %s: %w", name, err)
	}
	return cfg, nil
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterValidation("duration", func(fl validator.FieldLevel) bool {
		_, err := time.ParseDuration(fl.Field().String())
		return err == nil
	})
	return v
}

// Validate checks field constraints and reports the first violation by
// its YAML-ish field path.
func (c *Config) Validate() error {
	err := validate.Struct(c)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return err
	}
	fe := verrs[0]
	field := strings.ToLower(strings.TrimPrefix(fe.Namespace(), "Config."))
	if fe.Param() != "" {
		return fmt.Errorf("invalid %s %q: must satisfy %s=%s", field, fmt.Sprint(fe.Value()), fe.Tag(), fe.Param())
	}
	return fmt.Errorf("invalid %s %q: must satisfy %s", field, fmt.Sprint(fe.Value()), fe.Tag())
}

func expandTilde(p, home string) string {
	if p == "~" {
		return home
	}
	if rest, ok := strings.CutPrefix(p, "~/"); ok {
		return filepath.Join(home, rest)
	}
	return p
}

// ConfigPath returns the standard config file path.
func ConfigPath() string {
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".config", "ish", "config.yaml")
}
