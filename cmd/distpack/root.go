// SPDX-License-Identifier: MPL-2.0

// Package main contains all CLI commands for distpack.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/charmbracelet/fang"
	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"distpack/internal/config"
	"distpack/internal/issue"
)

var (
	// Version is the semantic version (set via -ldflags).
	Version = "dev"
	// Commit is the git commit hash (set via -ldflags).
	Commit = "unknown"
	// BuildDate is the build timestamp (set via -ldflags).
	BuildDate = "unknown"

	// verbose enables debug-level output
	verbose bool
	// cfgFile allows specifying a custom config file
	cfgFile string

	// cfg is the loaded configuration, available to all commands.
	cfg = config.DefaultConfig()

	// logger is the shared CLI logger.
	logger = log.NewWithOptions(os.Stderr, log.Options{
		Prefix: "distpack",
	})

	// rootCmd represents the base command when called without any subcommands
	rootCmd = &cobra.Command{
		Use:   "distpack",
		Short: "Build, restage and package a front-end dist tree",
		Long: TitleStyle.Render("distpack") + SubtitleStyle.Render(" - dist-tree packaging for deployment") + `

distpack wraps your front-end framework's production build, flattens the
nested browser output directory into dist/<app>, normalizes the entry
HTML document, and packages the result into a deployable tar archive.

` + SubtitleStyle.Render("Examples:") + `
  distpack pack --name clinic              Build and package dist/clinic
  distpack pack --name app --rename-folder v2
                                           Package with dist/v2/ entry paths
  distpack pack --name app --skip-build    Package an existing dist tree
  distpack config show                     Show effective configuration`,
	}
)

func init() {
	cobra.OnInitialize(initRootConfig)

	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose output")
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $HOME/.config/distpack/config.toml)")

	rootCmd.AddCommand(packCmd)
	rootCmd.AddCommand(configCmd)
}

// getVersionString returns a formatted version string for display.
func getVersionString() string {
	if Version == "dev" {
		return "dev (built from source)"
	}
	return fmt.Sprintf("%s (commit: %s, built: %s)", Version, Commit, BuildDate)
}

// Execute adds all child commands to the root command and sets flags
// appropriately. This is called by main.main().
func Execute() {
	if err := fang.Execute(
		context.Background(),
		rootCmd,
		fang.WithVersion(getVersionString()),
		fang.WithNotifySignal(os.Interrupt),
	); err != nil {
		var exitErr *ExitError
		if errors.As(err, &exitErr) {
			os.Exit(exitErr.Code)
		}
		os.Exit(1)
	}
}

// initRootConfig reads the config file and environment variables if set.
func initRootConfig() {
	if cfgFile != "" {
		config.SetConfigFilePathOverride(cfgFile)
	}

	loaded, err := config.Load()
	if err != nil {
		// Surface config loading problems but keep running on defaults.
		fmt.Fprintln(os.Stderr, WarningStyle.Render("Warning: ")+formatErrorForDisplay(err, verbose))
	} else {
		cfg = loaded
	}

	// Apply verbose from config if not set via flag.
	if !verbose {
		verbose = cfg.UI.Verbose
	}
	if verbose {
		logger.SetLevel(log.DebugLevel)
	}
}

// formatErrorForDisplay formats an error for user display. ActionableErrors
// render their suggestions; verbose mode shows the full error chain.
func formatErrorForDisplay(err error, verboseMode bool) string {
	var ae *issue.ActionableError
	if errors.As(err, &ae) {
		return ae.Format(verboseMode)
	}
	return err.Error()
}
