// SPDX-License-Identifier: MPL-2.0

package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"distpack/internal/builder"
	"distpack/internal/dist"
	"distpack/internal/issue"
	"distpack/internal/paths"
	"distpack/internal/pipeline"
	"distpack/internal/tui"
)

var (
	// packName is the app name under dist/ (required).
	packName string
	// packSkipBuild packages an existing dist tree without rebuilding.
	packSkipBuild bool
	// packRenameFolder replaces the top-level folder name inside the archive.
	packRenameFolder string
	// packNoCompress disables gzip compression.
	packNoCompress bool
	// packProjectPath overrides the project root (default: current directory).
	packProjectPath string
	// packBuildCommand overrides the configured build command.
	packBuildCommand string
	// packDeterministic stamps a fixed mod time on every archive entry.
	packDeterministic bool
)

// packCmd runs the full packaging pipeline.
var packCmd = &cobra.Command{
	Use:   "pack",
	Short: "Build, flatten and package a dist tree into a tar archive",
	Long: `Run the packaging pipeline for one application:

  1. Run the production build (unless --skip-build)
  2. Flatten dist/<name>/browser into dist/<name>
  3. Ensure dist/<name>/index.html exists (synthesized from index.csr.html)
  4. Package dist/<name> into dist_<name>.tar[.gz] at the project root

Examples:
  distpack pack --name clinic
  distpack pack --name app --rename-folder v2
  distpack pack --name app --skip-build --no-compress
  distpack pack --name app --project-path ~/src/app --deterministic-timestamps`,
	RunE: runPack,
}

func init() {
	packCmd.Flags().StringVarP(&packName, "name", "n", "", "app folder name under dist/ (required)")
	packCmd.Flags().BoolVar(&packSkipBuild, "skip-build", false, "package an existing dist tree without rebuilding")
	packCmd.Flags().StringVar(&packRenameFolder, "rename-folder", "", "folder name recorded inside the archive instead of the app name")
	packCmd.Flags().BoolVar(&packNoCompress, "no-compress", false, "produce a plain .tar instead of .tar.gz")
	packCmd.Flags().StringVar(&packProjectPath, "project-path", "", "project root (default: current directory)")
	packCmd.Flags().StringVar(&packBuildCommand, "build-command", "", "override the configured build command")
	packCmd.Flags().BoolVar(&packDeterministic, "deterministic-timestamps", false, "stamp a fixed mod time on archive entries for reproducible output")

	if err := packCmd.MarkFlagRequired("name"); err != nil {
		panic(err)
	}
}

func runPack(cmd *cobra.Command, args []string) error {
	compress := cfg.Archive.Compress && !packNoCompress

	layout, err := paths.Resolve(paths.Options{
		AppName:      packName,
		ProjectPath:  packProjectPath,
		RenameFolder: packRenameFolder,
		Compress:     compress,
		DistDir:      cfg.Layout.DistDir,
		BrowserDir:   cfg.Layout.BrowserDir,
	})
	if err != nil {
		return &ExitError{Code: 1, Err: err}
	}

	buildCommand := cfg.Build.Command
	if packBuildCommand != "" {
		buildCommand = packBuildCommand
	}

	opts := pipeline.Options{
		Layout:                  layout,
		BuildCommand:            buildCommand,
		SkipBuild:               packSkipBuild,
		Compress:                compress,
		DeterministicTimestamps: packDeterministic || cfg.Archive.DeterministicTimestamps,
		Logger:                  logger,
	}

	var result *pipeline.Result
	run := func() error {
		var runErr error
		result, runErr = pipeline.Run(cmd.Context(), opts)
		return runErr
	}

	// The spinner is cosmetic; plain log lines when not on a terminal or
	// when the build output should stream through.
	if !packSkipBuild && isatty.IsTerminal(os.Stdout.Fd()) && !verbose {
		err = tui.Spin(tui.SpinOptions{Title: "Building " + packName + "..."}, run)
	} else {
		if !packSkipBuild {
			opts.BuildOutput = os.Stderr
		}
		err = run()
	}
	if err != nil {
		return &ExitError{Code: 1, Err: describePackError(err, layout)}
	}

	fmt.Fprintln(os.Stdout, SuccessStyle.Render("✓ ")+"archive written to "+result.ArchivePath)
	return nil
}

// describePackError wraps stage errors with remediation context for display.
func describePackError(err error, layout *paths.Layout) error {
	switch {
	case errors.Is(err, builder.ErrBuildFailed):
		var bfe *builder.BuildFailedError
		if errors.As(err, &bfe) && bfe.Output != "" {
			fmt.Fprintln(os.Stderr, ErrorStyle.Render("build output:"))
			fmt.Fprintln(os.Stderr, bfe.Output)
		}
		return issue.NewContext().
			WithOperation("run production build").
			WithResource(layout.ProjectRoot).
			WithSuggestion("Fix the build errors reported above and rerun").
			Wrap(err).
			BuildError()
	case errors.Is(err, dist.ErrMissingBuildOutput):
		return issue.NewContext().
			WithOperation("flatten build output").
			WithResource(layout.BrowserDir).
			WithSuggestion("Run without --skip-build so the build populates the directory").
			WithSuggestion("Check the layout.browser_dir setting against your framework's output layout").
			Wrap(err).
			BuildError()
	case errors.Is(err, dist.ErrPartialFlatten):
		return issue.NewContext().
			WithOperation("flatten build output").
			WithResource(layout.AppDistDir).
			WithSuggestion("Rerun the command; flattening is safe to repeat after a fresh build").
			Wrap(err).
			BuildError()
	default:
		return issue.NewContext().
			WithOperation("package dist tree").
			WithResource(layout.AppDistDir).
			Wrap(err).
			BuildError()
	}
}
