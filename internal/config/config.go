// Package config handles configuration loading, validation, and hot reload
// for ultrafocus.
package config

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/adrg/xdg"

	"ultrafocus/internal/logging"
)

// Version is the current configuration schema version.
const Version = 1

// Config holds the complete application configuration.
type Config struct {
	// Version is the configuration schema version.
	Version int `toml:"version" json:"version" yaml:"version"`

	// Focus controls how the target window is chosen and prepared.
	Focus FocusConfig `toml:"focus" json:"focus" yaml:"focus"`

	// Logging configuration.
	Logging LoggingConfig `toml:"logging" json:"logging" yaml:"logging"`
}

// FocusConfig selects and prepares the focus target.
type FocusConfig struct {
	// Marker is the substring a window title must contain to be focused.
	Marker string `toml:"marker" json:"marker" yaml:"marker"`

	// SelfTitle is the title of our own window. It is never targeted or
	// minimized.
	SelfTitle string `toml:"self_title" json:"self_title" yaml:"self_title"`

	// Fullscreen sends the full-screen toggle when the target does not
	// cover its monitor.
	Fullscreen bool `toml:"fullscreen" json:"fullscreen" yaml:"fullscreen"`

	// MinimizeOthers minimizes every other window on session start.
	MinimizeOthers bool `toml:"minimize_others" json:"minimize_others" yaml:"minimize_others"`
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	Level      string `toml:"level" json:"level" yaml:"level"`
	Format     string `toml:"format" json:"format" yaml:"format"`
	Output     string `toml:"output" json:"output" yaml:"output"`
	FilePath   string `toml:"file_path" json:"file_path" yaml:"file_path"`
	MaxSizeMB  int    `toml:"max_size_mb" json:"max_size_mb" yaml:"max_size_mb"`
	MaxBackups int    `toml:"max_backups" json:"max_backups" yaml:"max_backups"`
	Compress   bool   `toml:"compress" json:"compress" yaml:"compress"`
}

// DefaultConfig returns a configuration with the built-in defaults.
func DefaultConfig() *Config {
	return &Config{
		Version: Version,
		Focus: FocusConfig{
			Marker:         "LeetCode",
			SelfTitle:      "UltraFocusLeetCode",
			Fullscreen:     true,
			MinimizeOthers: true,
		},
		Logging: LoggingConfig{
			Level:      "info",
			Format:     "text",
			Output:     "file",
			FilePath:   logging.DefaultLogPath(),
			MaxSizeMB:  10,
			MaxBackups: 3,
			Compress:   true,
		},
	}
}

// Dir returns the ultrafocus config directory.
func Dir() string {
	return filepath.Join(xdg.ConfigHome, "ultrafocus")
}

// ConfigPath returns the default configuration file path.
func ConfigPath() string {
	return filepath.Join(Dir(), "config.toml")
}

// SupportedConfigFormats returns the config file extensions understood by
// the loader, in search order.
func SupportedConfigFormats() []string {
	return []string{"toml", "yaml", "yml", "json"}
}

// FindConfigFile returns the first config.<ext> that exists in the config
// directory, or ConfigPath if there is none.
func FindConfigFile() string {
	for _, ext := range SupportedConfigFormats() {
		path := filepath.Join(Dir(), "config."+ext)
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}
	return ConfigPath()
}

// ApplyEnvOverrides applies ULTRAFOCUS_* environment variables.
func (c *Config) ApplyEnvOverrides() {
	if v := os.Getenv("ULTRAFOCUS_MARKER"); v != "" {
		c.Focus.Marker = v
	}
	if v := os.Getenv("ULTRAFOCUS_SELF_TITLE"); v != "" {
		c.Focus.SelfTitle = v
	}
	if v := os.Getenv("ULTRAFOCUS_LOG_LEVEL"); v != "" {
		c.Logging.Level = strings.ToLower(v)
	}
}

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	return ValidateConfig(c)
}

// Clone returns a copy of the configuration.
func (c *Config) Clone() *Config {
	clone := *c
	return &clone
}

// LoggingConfig converts the logging section for logging.New. component is
// attached to every record.
func (c *Config) LoggingConfig(component string) (*logging.Config, error) {
	level, err := logging.ParseLevel(c.Logging.Level)
	if err != nil {
		return nil, err
	}
	format, err := logging.ParseFormat(c.Logging.Format)
	if err != nil {
		return nil, err
	}

	lc := logging.DefaultConfig()
	lc.Level = level
	lc.Format = format
	lc.Output = c.Logging.Output
	lc.MaxSize = int64(c.Logging.MaxSizeMB)
	lc.MaxBackups = c.Logging.MaxBackups
	lc.Compress = c.Logging.Compress
	if c.Logging.FilePath != "" {
		lc.FilePath = c.Logging.FilePath
	}
	if component != "" {
		lc.Component = component
	}
	return lc, nil
}
