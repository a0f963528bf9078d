// SPDX-License-Identifier: MPL-2.0

package config

import (
	"errors"
	"fmt"
	"strings"
)

// ErrInvalidConfig is the sentinel error wrapped by InvalidConfigError.
var ErrInvalidConfig = errors.New("invalid config")

type (
	// Config is the full distpack configuration. Every field has a default;
	// a config file only needs to override what differs.
	Config struct {
		Build   BuildConfig   `mapstructure:"build" toml:"build"`
		Layout  LayoutConfig  `mapstructure:"layout" toml:"layout"`
		Archive ArchiveConfig `mapstructure:"archive" toml:"archive"`
		UI      UIConfig      `mapstructure:"ui" toml:"ui"`
	}

	// BuildConfig controls the external build invocation.
	BuildConfig struct {
		// Command is the full production build command line.
		Command string `mapstructure:"command" toml:"command"`
	}

	// LayoutConfig names the directories of the framework's output layout.
	LayoutConfig struct {
		// DistDir is the build output directory relative to the project root.
		DistDir string `mapstructure:"dist_dir" toml:"dist_dir"`
		// BrowserDir is the nested bundle directory relative to dist/<app>.
		BrowserDir string `mapstructure:"browser_dir" toml:"browser_dir"`
	}

	// ArchiveConfig controls the packaging stage.
	ArchiveConfig struct {
		// Compress selects .tar.gz output instead of plain .tar.
		Compress bool `mapstructure:"compress" toml:"compress"`
		// DeterministicTimestamps stamps every archive entry with a fixed
		// modification time instead of preserving disk mtimes, so two runs
		// over identical content produce identical archives.
		DeterministicTimestamps bool `mapstructure:"deterministic_timestamps" toml:"deterministic_timestamps"`
	}

	// UIConfig controls console output.
	UIConfig struct {
		// Verbose enables debug-level logging.
		Verbose bool `mapstructure:"verbose" toml:"verbose"`
	}

	// InvalidConfigError is returned when a loaded configuration fails
	// validation. It wraps ErrInvalidConfig for errors.Is() compatibility.
	InvalidConfigError struct {
		Field  string
		Reason string
	}
)

// Error implements the error interface.
func (e *InvalidConfigError) Error() string {
	return fmt.Sprintf("invalid config field %q: %s", e.Field, e.Reason)
}

// Unwrap returns ErrInvalidConfig so callers can use errors.Is.
func (e *InvalidConfigError) Unwrap() error { return ErrInvalidConfig }

// DefaultConfig returns the built-in defaults: an Angular-style production
// build writing to dist/<app>/browser, compressed deterministic archives off.
func DefaultConfig() *Config {
	return &Config{
		Build: BuildConfig{
			Command: "ng build --configuration production",
		},
		Layout: LayoutConfig{
			DistDir:    "dist",
			BrowserDir: "browser",
		},
		Archive: ArchiveConfig{
			Compress: true,
		},
	}
}

// Validate checks constraints the file format cannot express.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.Build.Command) == "" {
		return &InvalidConfigError{Field: "build.command", Reason: "must not be empty"}
	}
	if strings.TrimSpace(c.Layout.DistDir) == "" {
		return &InvalidConfigError{Field: "layout.dist_dir", Reason: "must not be empty"}
	}
	if strings.TrimSpace(c.Layout.BrowserDir) == "" {
		return &InvalidConfigError{Field: "layout.browser_dir", Reason: "must not be empty"}
	}
	return nil
}
