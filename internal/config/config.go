// Copyright 2025 Tom Barlow
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package config loads teachbooks settings from defaults, an optional YAML
// file and environment variables, in that order of precedence (lowest first).
// Command line flags are applied on top by the commands themselves.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	pkgerrors "github.com/tombee/teachbooks/pkg/errors"
)

// LocalFileName is picked up from the current directory when no --config is given.
const LocalFileName = "teachbooks.yaml"

var (
	// ErrInvalidConfig is returned when configuration validation fails.
	ErrInvalidConfig = errors.New("config: invalid configuration")
)

// Config is the complete teachbooks configuration.
type Config struct {
	Builder BuilderConfig `yaml:"builder"`
	Preview PreviewConfig `yaml:"preview"`
	Log     LogConfig     `yaml:"log"`
}

// BuilderConfig configures the external book builder.
type BuilderConfig struct {
	// Command is the jupyter-book executable.
	// Environment: TEACHBOOKS_BUILDER
	// Default: jupyter-book
	Command string `yaml:"command"`

	// Linkcheck runs a linkcheck build after the html build.
	// Default: true
	Linkcheck bool `yaml:"linkcheck"`

	// Debounce is the quiet period before a watched rebuild.
	// Default: 500ms
	Debounce time.Duration `yaml:"debounce,omitempty"`
}

// PreviewConfig configures the local preview server.
type PreviewConfig struct {
	// ServeDir is the directory served by 'teachbooks serve'.
	// Environment: TEACHBOOKS_SERVE_DIR
	// Default: book/_build/html
	ServeDir string `yaml:"serve_dir"`

	// WorkDir holds the server state and logs.
	// Environment: TEACHBOOKS_WORK_DIR
	// Default: book/.teachbooks
	WorkDir string `yaml:"work_dir"`

	// Port is the preferred port; 0 picks a free one.
	// Environment: TEACHBOOKS_PORT
	Port int `yaml:"port,omitempty"`

	// SettleInterval is how long a new server gets to fail before it is
	// considered started.
	// Environment: TEACHBOOKS_SETTLE_INTERVAL
	// Default: 150ms
	SettleInterval time.Duration `yaml:"settle_interval,omitempty"`

	// StopTimeout bounds the graceful part of stopping the server.
	// Default: 3s
	StopTimeout time.Duration `yaml:"stop_timeout,omitempty"`
}

// LogConfig configures diagnostic logging.
type LogConfig struct {
	Level     string `yaml:"level"`
	Format    string `yaml:"format"`
	AddSource bool   `yaml:"add_source,omitempty"`
}

// Default returns the configuration used when nothing is set.
func Default() *Config {
	return &Config{
		Builder: BuilderConfig{
			Command:   "jupyter-book",
			Linkcheck: true,
			Debounce:  500 * time.Millisecond,
		},
		Preview: PreviewConfig{
			ServeDir:       filepath.Join("book", "_build", "html"),
			WorkDir:        filepath.Join("book", ".teachbooks"),
			SettleInterval: 150 * time.Millisecond,
			StopTimeout:    3 * time.Second,
		},
		Log: LogConfig{
			Level:  "warn",
			Format: "text",
		},
	}
}

// Load builds the configuration. configPath may be empty; see ResolvePath.
func Load(configPath string) (*Config, error) {
	cfg := Default()

	if configPath != "" {
		if err := cfg.loadFromFile(configPath); err != nil {
			return nil, &pkgerrors.ConfigError{
				Key:    "config_file",
				Reason: fmt.Sprintf("failed to load from %s", configPath),
				Cause:  err,
			}
		}
	}

	cfg.applyDefaults()

	if err := cfg.loadFromEnv(); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, &pkgerrors.ConfigError{
			Key:    "validation",
			Reason: "configuration validation failed",
			Cause:  err,
		}
	}

	return cfg, nil
}

// ResolvePath picks the config file: the explicit path if given, else
// teachbooks.yaml in the working directory, else the user config file.
// It returns "" when none exists.
func ResolvePath(explicit string) string {
	if explicit != "" {
		return explicit
	}
	if _, err := os.Stat(LocalFileName); err == nil {
		return LocalFileName
	}
	if path, err := ConfigPath(); err == nil {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}
	return ""
}

// applyDefaults fills zero values left by a partial file.
func (c *Config) applyDefaults() {
	defaults := Default()

	if c.Builder.Command == "" {
		c.Builder.Command = defaults.Builder.Command
	}
	if c.Builder.Debounce == 0 {
		c.Builder.Debounce = defaults.Builder.Debounce
	}
	if c.Preview.ServeDir == "" {
		c.Preview.ServeDir = defaults.Preview.ServeDir
	}
	if c.Preview.WorkDir == "" {
		c.Preview.WorkDir = defaults.Preview.WorkDir
	}
	if c.Preview.SettleInterval == 0 {
		c.Preview.SettleInterval = defaults.Preview.SettleInterval
	}
	if c.Preview.StopTimeout == 0 {
		c.Preview.StopTimeout = defaults.Preview.StopTimeout
	}
	if c.Log.Level == "" {
		c.Log.Level = defaults.Log.Level
	}
	if c.Log.Format == "" {
		c.Log.Format = defaults.Log.Format
	}
}

func (c *Config) loadFromFile(path string) error {
	if strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return fmt.Errorf("failed to get home directory: %w", err)
		}
		path = filepath.Join(home, path[2:])
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}

	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("failed to parse YAML: %w", err)
	}

	return nil
}

// loadFromEnv applies environment overrides. Unlike unknown keys in the
// file, a malformed numeric value is an error.
func (c *Config) loadFromEnv() error {
	if val := os.Getenv("TEACHBOOKS_BUILDER"); val != "" {
		c.Builder.Command = val
	}
	if val := os.Getenv("TEACHBOOKS_SERVE_DIR"); val != "" {
		c.Preview.ServeDir = val
	}
	if val := os.Getenv("TEACHBOOKS_WORK_DIR"); val != "" {
		c.Preview.WorkDir = val
	}
	if val := os.Getenv("TEACHBOOKS_PORT"); val != "" {
		port, err := strconv.Atoi(val)
		if err != nil {
			return &pkgerrors.ConfigError{Key: "TEACHBOOKS_PORT", Reason: fmt.Sprintf("not a number: %q", val), Cause: err}
		}
		c.Preview.Port = port
	}
	if val := os.Getenv("TEACHBOOKS_SETTLE_INTERVAL"); val != "" {
		d, err := time.ParseDuration(val)
		if err != nil {
			return &pkgerrors.ConfigError{Key: "TEACHBOOKS_SETTLE_INTERVAL", Reason: fmt.Sprintf("not a duration: %q", val), Cause: err}
		}
		c.Preview.SettleInterval = d
	}

	if val := os.Getenv("LOG_LEVEL"); val != "" {
		c.Log.Level = strings.ToLower(val)
	}
	if val := os.Getenv("TEACHBOOKS_LOG_LEVEL"); val != "" {
		c.Log.Level = strings.ToLower(val)
	}
	if val := os.Getenv("LOG_FORMAT"); val != "" {
		c.Log.Format = strings.ToLower(val)
	}
	if val := os.Getenv("LOG_SOURCE"); val != "" {
		c.Log.AddSource = val == "1" || strings.ToLower(val) == "true"
	}
	return nil
}

// Validate checks that the configuration is usable.
func (c *Config) Validate() error {
	var errs []string

	if strings.TrimSpace(c.Builder.Command) == "" {
		errs = append(errs, "builder.command must not be empty")
	}
	if c.Builder.Debounce < 0 {
		errs = append(errs, fmt.Sprintf("builder.debounce must not be negative, got %v", c.Builder.Debounce))
	}

	if c.Preview.Port < 0 || c.Preview.Port > 65535 {
		errs = append(errs, fmt.Sprintf("preview.port must be between 0 and 65535, got %d", c.Preview.Port))
	}
	if c.Preview.SettleInterval <= 0 {
		errs = append(errs, fmt.Sprintf("preview.settle_interval must be positive, got %v", c.Preview.SettleInterval))
	}
	if c.Preview.StopTimeout <= 0 {
		errs = append(errs, fmt.Sprintf("preview.stop_timeout must be positive, got %v", c.Preview.StopTimeout))
	}

	validLevels := map[string]bool{"trace": true, "debug": true, "info": true, "warn": true, "warning": true, "error": true}
	if !validLevels[c.Log.Level] {
		errs = append(errs, fmt.Sprintf("log.level must be one of [trace, debug, info, warn, error], got %q", c.Log.Level))
	}
	validFormats := map[string]bool{"json": true, "text": true}
	if !validFormats[c.Log.Format] {
		errs = append(errs, fmt.Sprintf("log.format must be one of [json, text], got %q", c.Log.Format))
	}

	if len(errs) > 0 {
		return fmt.Errorf("%w:\n  - %s", ErrInvalidConfig, strings.Join(errs, "\n  - "))
	}
	return nil
}
