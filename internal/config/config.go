// SPDX-License-Identifier: MPL-2.0

// Package config loads distpack configuration with viper: built-in defaults,
// overridden by a TOML config file (platform config dir or a local
// distpack.toml), overridden by DISTPACK_* environment variables.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/pelletier/go-toml/v2"
	"github.com/spf13/viper"

	"distpack/internal/issue"
)

const (
	// AppName is the application name, used for the config directory.
	AppName = "distpack"
	// ConfigFileName is the config file name inside the config directory.
	ConfigFileName = "config.toml"
	// LocalConfigFileName is the per-project config file looked up in the
	// working directory.
	LocalConfigFileName = "distpack.toml"
	// envPrefix namespaces environment overrides (e.g. DISTPACK_UI_VERBOSE).
	envPrefix = "DISTPACK"
)

// configFilePathOverride lets the --config flag and tests pin the file path.
var configFilePathOverride string

// SetConfigFilePathOverride forces Load to read exactly this file.
func SetConfigFilePathOverride(path string) {
	configFilePathOverride = path
}

// ConfigDir returns the distpack configuration directory using
// platform-specific conventions: Windows uses %APPDATA%, macOS uses
// ~/Library/Application Support, and Linux/others use $XDG_CONFIG_HOME
// (defaulting to ~/.config).
func ConfigDir() (string, error) {
	var configDir string

	switch runtime.GOOS {
	case "windows":
		configDir = os.Getenv("APPDATA")
		if configDir == "" {
			configDir = filepath.Join(os.Getenv("USERPROFILE"), "AppData", "Roaming")
		}
	case "darwin":
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("failed to get home directory: %w", err)
		}
		configDir = filepath.Join(home, "Library", "Application Support")
	default: // Linux and others
		configDir = os.Getenv("XDG_CONFIG_HOME")
		if configDir == "" {
			home, err := os.UserHomeDir()
			if err != nil {
				return "", fmt.Errorf("failed to get home directory: %w", err)
			}
			configDir = filepath.Join(home, ".config")
		}
	}

	return filepath.Join(configDir, AppName), nil
}

// Load reads the configuration. A missing config file is not an error; the
// defaults apply. A file that exists but cannot be parsed or validated is.
func Load() (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	path, err := resolveConfigFile()
	if err != nil {
		return nil, err
	}
	if path != "" {
		v.SetConfigFile(path)
		v.SetConfigType("toml")
		if err := v.ReadInConfig(); err != nil {
			return nil, issue.NewContext().
				WithOperation("load configuration").
				WithResource(path).
				WithSuggestion("Check that the file contains valid TOML syntax").
				WithSuggestion("Run 'distpack config init' to write a fresh default file").
				Wrap(err).
				BuildError()
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, issue.NewContext().
			WithOperation("validate configuration").
			WithResource(path).
			WithSuggestion("Run 'distpack config show' to inspect the effective configuration").
			Wrap(err).
			BuildError()
	}

	return &cfg, nil
}

// WriteDefault serializes the default configuration as TOML to path,
// creating parent directories as needed. Refuses to overwrite.
func WriteDefault(path string) error {
	if _, err := os.Stat(path); err == nil {
		return issue.NewContext().
			WithOperation("write default configuration").
			WithResource(path).
			WithSuggestion("Remove the existing file first if you want a fresh one").
			Wrap(os.ErrExist).
			BuildError()
	}

	data, err := toml.Marshal(DefaultConfig())
	if err != nil {
		return fmt.Errorf("failed to serialize default config: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// Render serializes a configuration as TOML for display.
func Render(cfg *Config) (string, error) {
	data, err := toml.Marshal(cfg)
	if err != nil {
		return "", fmt.Errorf("failed to render config: %w", err)
	}
	return string(data), nil
}

func setDefaults(v *viper.Viper) {
	defaults := DefaultConfig()
	v.SetDefault("build.command", defaults.Build.Command)
	v.SetDefault("layout.dist_dir", defaults.Layout.DistDir)
	v.SetDefault("layout.browser_dir", defaults.Layout.BrowserDir)
	v.SetDefault("archive.compress", defaults.Archive.Compress)
	v.SetDefault("archive.deterministic_timestamps", defaults.Archive.DeterministicTimestamps)
	v.SetDefault("ui.verbose", defaults.UI.Verbose)
}

// resolveConfigFile picks the config file to read: the explicit override,
// else the platform config dir, else a local distpack.toml. Empty means
// no file found, defaults only.
func resolveConfigFile() (string, error) {
	if configFilePathOverride != "" {
		if !fileExists(configFilePathOverride) {
			return "", issue.NewContext().
				WithOperation("load configuration").
				WithResource(configFilePathOverride).
				WithSuggestion("Verify the file path is correct").
				Wrap(os.ErrNotExist).
				BuildError()
		}
		return configFilePathOverride, nil
	}

	cfgDir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	path := filepath.Join(cfgDir, ConfigFileName)
	if fileExists(path) {
		return path, nil
	}

	if fileExists(LocalConfigFileName) {
		return LocalConfigFileName, nil
	}
	return "", nil
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}
