// Package config provides configuration loading from YAML files.
package config

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/creasty/defaults"
	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// Config represents the application configuration.
type Config struct {
	Server  ServerConfig            `yaml:"server"`
	Log     LogConfig               `yaml:"log"`
	Library LibraryConfig           `yaml:"library"`
	Filters map[string]FilterConfig `yaml:"filters"`
	Audio   AudioConfig             `yaml:"audio"`
	Store   StoreConfig             `yaml:"store"`
	Theme   ThemeConfig             `yaml:"theme"`
	Control ControlConfig           `yaml:"control"`
}

// ServerConfig represents server configuration.
type ServerConfig struct {
	Addr  string      `yaml:"addr" default:":8080" validate:"required"`
	Hooks HooksConfig `yaml:"hooks"`
}

// HooksConfig represents lifecycle hooks configuration.
type HooksConfig struct {
	OnStarted []string `yaml:"on_started"`
	OnStopped []string `yaml:"on_stopped"`
}

// LogConfig represents logger configuration.
type LogConfig struct {
	Level  string `yaml:"level" default:"info" validate:"oneof=debug info warn warning error"`
	Output string `yaml:"output" default:"stdout"` // "stdout", "stderr" or "file"
	File   string `yaml:"file"`
}

// LibraryConfig represents the music directories to scan.
type LibraryConfig struct {
	Dirs       []string `yaml:"dirs" validate:"required,min=1,dive,required"`
	Extensions []string `yaml:"extensions" default:"[\"mp3\",\"wav\"]" validate:"min=1,dive,oneof=mp3 wav"` // Formats the decoders support
}

// FilterConfig represents a filter's configuration.
type FilterConfig struct {
	Enabled  bool           `yaml:"enabled"`
	Settings map[string]any `yaml:"settings,omitempty"`
}

// AudioConfig selects the audio backend.
type AudioConfig struct {
	Type     string         `yaml:"type" default:"beep" validate:"oneof=beep null"`
	Settings map[string]any `yaml:"settings,omitempty"`
}

// StoreConfig represents the persisted selection store.
type StoreConfig struct {
	Path      string `yaml:"path"` // Empty selects the XDG data directory
	Namespace string `yaml:"namespace" default:"music-storage" validate:"required"`
}

// ThemeConfig represents the initial color scheme.
type ThemeConfig struct {
	Default string `yaml:"default" default:"light" validate:"oneof=light dark"`
}

// ControlConfig guards mutating RPCs.
type ControlConfig struct {
	Token string `yaml:"token"` // Empty disables the check
}

// Load loads configuration from a YAML file.
// Environment variables take precedence over file values.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "failed to read config file")
	}
	return Parse(data)
}

// Parse parses configuration from YAML, then applies environment
// overrides and defaults and validates the result.
func Parse(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, errors.Wrap(err, "failed to parse config file")
	}

	cfg.overrideFromEnv()
	cfg.expandHome()

	if err := defaults.Set(&cfg); err != nil {
		return nil, errors.Wrap(err, "failed to set defaults")
	}
	cfg.Library.Extensions = cfg.Library.NormalizedExtensions()

	if err := cfg.Validate(); err != nil {
		return nil, errors.Wrap(err, "config validation failed")
	}

	return &cfg, nil
}

// expandHome replaces a leading "~" in filesystem paths with the user's
// home directory.
func (c *Config) expandHome() {
	home, err := os.UserHomeDir()
	if err != nil {
		return
	}
	expand := func(p string) string {
		if p == "~" || strings.HasPrefix(p, "~/") {
			return filepath.Join(home, strings.TrimPrefix(p, "~"))
		}
		return p
	}
	for i, dir := range c.Library.Dirs {
		c.Library.Dirs[i] = expand(dir)
	}
	c.Store.Path = expand(c.Store.Path)
	c.Log.File = expand(c.Log.File)
}

// overrideFromEnv overrides config values with MYMUSIC_* environment variables.
func (c *Config) overrideFromEnv() {
	if v := os.Getenv("MYMUSIC_SERVER_ADDR"); v != "" {
		c.Server.Addr = v
	}
	if v := os.Getenv("MYMUSIC_LOG_LEVEL"); v != "" {
		c.Log.Level = v
	}
	if v := os.Getenv("MYMUSIC_LIBRARY_DIRS"); v != "" {
		c.Library.Dirs = filepath.SplitList(v)
	}
	if v := os.Getenv("MYMUSIC_AUDIO_TYPE"); v != "" {
		c.Audio.Type = v
	}
	if v := os.Getenv("MYMUSIC_STORE_PATH"); v != "" {
		c.Store.Path = v
	}
	if v := os.Getenv("MYMUSIC_THEME"); v != "" {
		c.Theme.Default = v
	}
	if v := os.Getenv("MYMUSIC_CONTROL_TOKEN"); v != "" {
		c.Control.Token = v
	}
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	validate := validator.New()
	if err := validate.Struct(c); err != nil {
		return errors.Wrap(err, "struct validation failed")
	}

	for name := range c.Filters {
		if strings.TrimSpace(name) == "" {
			return errors.New("filter name must not be empty")
		}
	}

	return nil
}

// NormalizedExtensions returns the allowed extensions lower-cased and
// without a leading dot.
func (l LibraryConfig) NormalizedExtensions() []string {
	exts := make([]string, 0, len(l.Extensions))
	for _, e := range l.Extensions {
		e = strings.ToLower(strings.TrimPrefix(strings.TrimSpace(e), "."))
		if e != "" {
			exts = append(exts, e)
		}
	}
	return exts
}

// IsFilterEnabled checks if a filter is enabled.
func (c *Config) IsFilterEnabled(filterName string) bool {
	if f, ok := c.Filters[filterName]; ok {
		return f.Enabled
	}
	return false
}

// EnabledFilters returns the settings of every enabled filter, keyed by name.
func (c *Config) EnabledFilters() map[string]map[string]any {
	enabled := make(map[string]map[string]any)
	for name, f := range c.Filters {
		if f.Enabled {
			enabled[name] = f.Settings
		}
	}
	return enabled
}
