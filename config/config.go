// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

// Package config loads host configuration for the overlay compositor from
// YAML files. It covers what the embedding host wires at startup: the
// screen size, the render backend, and the set of overlays to create.
package config

import (
	"fmt"
	"strings"
)

// Config is the effective, validated host configuration.
type Config struct {
	// Screen is the initial host viewport.
	Screen ScreenConfig `yaml:"screen"`

	// Backend names the default render backend for all overlays.
	// Empty selects the best available backend.
	Backend string `yaml:"backend"`

	// LogLevel is one of "debug", "info", "warn", "error". Empty means
	// logging stays disabled.
	LogLevel string `yaml:"log_level"`

	// Overlays lists surfaces to create at startup, back-to-front.
	Overlays []OverlayConfig `yaml:"overlays"`
}

// ScreenConfig is the host viewport size in pixels.
type ScreenConfig struct {
	Width  int `yaml:"width"`
	Height int `yaml:"height"`
}

// OverlayConfig declares one overlay surface.
type OverlayConfig struct {
	ID     string `yaml:"id"`
	X      int    `yaml:"x"`
	Y      int    `yaml:"y"`
	Width  int    `yaml:"width"`
	Height int    `yaml:"height"`
	Hidden bool   `yaml:"hidden"`

	// Backend overrides the top-level backend for this overlay.
	Backend string `yaml:"backend"`
}

// Default returns the configuration used when no file exists.
func Default() *Config {
	return &Config{
		Screen: ScreenConfig{Width: 1280, Height: 720},
	}
}

// ValidationError reports an invalid configuration value and where it
// lives in the YAML document.
type ValidationError struct {
	Path    string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Path == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Path, e.Message)
}

var logLevels = map[string]bool{
	"":      true,
	"debug": true,
	"info":  true,
	"warn":  true,
	"error": true,
}

// Validate checks the configuration for values the compositor would
// reject at runtime.
func (c *Config) Validate() error {
	if c.Screen.Width <= 0 || c.Screen.Height <= 0 {
		return &ValidationError{
			Path:    "screen",
			Message: fmt.Sprintf("size must be positive, got %dx%d", c.Screen.Width, c.Screen.Height),
		}
	}
	if !logLevels[strings.ToLower(c.LogLevel)] {
		return &ValidationError{
			Path:    "log_level",
			Message: fmt.Sprintf("unknown level %q", c.LogLevel),
		}
	}

	seen := make(map[string]bool, len(c.Overlays))
	for i, o := range c.Overlays {
		path := fmt.Sprintf("overlays[%d]", i)
		if o.ID == "" {
			return &ValidationError{Path: path + ".id", Message: "id is required"}
		}
		if seen[o.ID] {
			return &ValidationError{Path: path + ".id", Message: fmt.Sprintf("duplicate id %q", o.ID)}
		}
		seen[o.ID] = true
		if o.Width <= 0 || o.Height <= 0 {
			return &ValidationError{
				Path:    path,
				Message: fmt.Sprintf("size must be positive, got %dx%d", o.Width, o.Height),
			}
		}
	}
	return nil
}
