// Package config holds tinkerpad configuration: interpreter settings,
// state persistence, and rendering preferences. Values come from an
// optional YAML file with environment-variable overrides on top.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the full tinkerpad configuration.
type Config struct {
	PHP    PHPConfig    `yaml:"php"`
	State  StateConfig  `yaml:"state"`
	Render RenderConfig `yaml:"render"`
}

// PHPConfig configures the external interpreter.
type PHPConfig struct {
	// Binary is the PHP executable to invoke.
	Binary string `yaml:"binary"`

	// Timeout bounds a single fragment run, e.g. "30s".
	Timeout string `yaml:"timeout"`

	// Project pins the Laravel project root for tinker fragments. Empty
	// means locate it by walking up from the notebook.
	Project string `yaml:"project"`
}

// StateConfig configures execution-state persistence.
type StateConfig struct {
	// Driver selects the sink: "file" (JSON document) or "sqlite".
	Driver string `yaml:"driver"`

	// Path is the sink location. Empty derives a path next to the
	// notebook (<notebook>.state.json or <notebook>.state.db).
	Path string `yaml:"path"`
}

// RenderConfig configures result rendering.
type RenderConfig struct {
	Collapsible     bool `yaml:"collapsible"`
	MaxDepth        int  `yaml:"max_depth"`
	HighlightSyntax bool `yaml:"highlight_syntax"`
	ShowLineNumbers bool `yaml:"show_line_numbers"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		PHP: PHPConfig{
			Binary:  "php",
			Timeout: "30s",
		},
		State: StateConfig{
			Driver: "file",
		},
		Render: RenderConfig{
			MaxDepth:        10,
			HighlightSyntax: true,
		},
	}
}

// Load reads a YAML config file over the defaults. An empty path or a
// missing file yields the defaults; a malformed file is an error.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			if !os.IsNotExist(err) {
				return nil, fmt.Errorf("read config: %w", err)
			}
		} else if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}
	cfg.applyEnvOverrides()
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// applyEnvOverrides lets the environment win over the file.
func (c *Config) applyEnvOverrides() {
	if v := os.Getenv("TINKERPAD_PHP_BINARY"); v != "" {
		c.PHP.Binary = v
	}
	if v := os.Getenv("TINKERPAD_PHP_TIMEOUT"); v != "" {
		c.PHP.Timeout = v
	}
	if v := os.Getenv("TINKERPAD_PROJECT"); v != "" {
		c.PHP.Project = v
	}
	if v := os.Getenv("TINKERPAD_STATE_DRIVER"); v != "" {
		c.State.Driver = v
	}
	if v := os.Getenv("TINKERPAD_STATE_PATH"); v != "" {
		c.State.Path = v
	}
	if v := os.Getenv("TINKERPAD_MAX_DEPTH"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.Render.MaxDepth = n
		}
	}
}

func (c *Config) validate() error {
	switch c.State.Driver {
	case "", "file", "sqlite":
	default:
		return fmt.Errorf("unknown state driver %q (want file or sqlite)", c.State.Driver)
	}
	if _, err := c.RunTimeout(); err != nil {
		return err
	}
	return nil
}

// RunTimeout parses the configured execution timeout.
func (c *Config) RunTimeout() (time.Duration, error) {
	if c.PHP.Timeout == "" {
		return 0, nil
	}
	d, err := time.ParseDuration(c.PHP.Timeout)
	if err != nil {
		return 0, fmt.Errorf("invalid php.timeout %q: %w", c.PHP.Timeout, err)
	}
	return d, nil
}
