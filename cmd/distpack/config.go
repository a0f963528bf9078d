// SPDX-License-Identifier: MPL-2.0

package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"distpack/internal/config"
)

// configInitPath is the destination for the generated config file.
var configInitPath string

// configCmd is the parent command for configuration management.
var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage distpack configuration",
	Long: `Manage distpack configuration.

Configuration is read from (in order of precedence):
  1. --config <file>
  2. ` + filepath.Join("<config dir>", config.AppName, config.ConfigFileName) + `
  3. ` + config.LocalConfigFileName + ` in the current directory
  4. built-in defaults

Environment variables with the DISTPACK_ prefix override file values
(e.g. DISTPACK_ARCHIVE_COMPRESS=false).`,
}

// configShowCmd prints the effective configuration.
var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show the effective configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		rendered, err := config.Render(cfg)
		if err != nil {
			return err
		}
		fmt.Fprint(os.Stdout, rendered)
		return nil
	},
}

// configInitCmd writes a default config file.
var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Write a default config file",
	Long: `Write the built-in default configuration as a TOML file.

Without --path the file is created in the platform config directory.

Examples:
  distpack config init
  distpack config init --path ./distpack.toml`,
	RunE: runConfigInit,
}

func init() {
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configInitCmd)

	configInitCmd.Flags().StringVar(&configInitPath, "path", "", "destination file (default: platform config directory)")
}

func runConfigInit(cmd *cobra.Command, args []string) error {
	path := configInitPath
	if path == "" {
		cfgDir, err := config.ConfigDir()
		if err != nil {
			return err
		}
		path = filepath.Join(cfgDir, config.ConfigFileName)
	}

	if err := config.WriteDefault(path); err != nil {
		return &ExitError{Code: 1, Err: err}
	}

	fmt.Fprintln(os.Stdout, SuccessStyle.Render("✓ ")+"config written to "+path)
	return nil
}
