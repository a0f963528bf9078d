// SPDX-License-Identifier: MPL-2.0

// Package paths derives every filesystem location the packaging pipeline
// touches from a small set of inputs (app name, project path, optional
// rename). It performs no I/O; all resolution is pure computation so the
// same inputs always yield the same layout.
package paths

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

const (
	// DistDirName is the directory the front-end build writes into,
	// relative to the project root.
	DistDirName = "dist"

	// BrowserDirName is the nested subdirectory the framework's
	// application builder places the actual browser bundle in.
	BrowserDirName = "browser"

	// archivePrefix is the file-name prefix of the final artifact
	// (dist_<app>.tar or dist_<app>.tar.gz).
	archivePrefix = "dist_"
)

// ErrInvalidInput is the sentinel error wrapped by InvalidInputError.
var ErrInvalidInput = errors.New("invalid input")

type (
	// InvalidInputError is returned when an app name or rename value is
	// empty or not a valid single path segment. It wraps ErrInvalidInput
	// for errors.Is() compatibility.
	InvalidInputError struct {
		Field string
		Value string
		// Reason describes what made the value invalid.
		Reason string
	}

	// Options are the raw inputs a layout is resolved from.
	Options struct {
		// AppName is the dist folder name produced by the build (required).
		AppName string
		// ProjectPath is the project root; empty means the current directory.
		ProjectPath string
		// RenameFolder, when set, replaces AppName as the top-level folder
		// name recorded inside the archive. The filesystem is not renamed.
		RenameFolder string
		// Compress selects a .tar.gz artifact instead of plain .tar.
		Compress bool
		// DistDir overrides DistDirName (relative to the project root).
		DistDir string
		// BrowserDir overrides BrowserDirName (relative to the app dist dir).
		BrowserDir string
	}

	// Layout is the fully resolved set of absolute paths the pipeline
	// operates on. All fields are derived once, up front, so later stages
	// never re-do path math.
	Layout struct {
		// ProjectRoot is the absolute project directory.
		ProjectRoot string
		// DistDir is <ProjectRoot>/dist.
		DistDir string
		// AppDistDir is <ProjectRoot>/dist/<app>, the tree that gets
		// flattened, normalized and archived.
		AppDistDir string
		// BrowserDir is <AppDistDir>/browser, the raw build output that
		// the flattener consumes and removes.
		BrowserDir string
		// ArchivePath is the final artifact location at the project root.
		ArchivePath string

		// AppName is the validated dist folder name.
		AppName string
		// ArchiveFolderName is the top-level folder name recorded in
		// archive entry paths: RenameFolder if supplied, else AppName.
		ArchiveFolderName string
	}
)

// Error implements the error interface.
func (e *InvalidInputError) Error() string {
	return fmt.Sprintf("invalid %s %q: %s", e.Field, e.Value, e.Reason)
}

// Unwrap returns ErrInvalidInput so callers can use errors.Is for
// programmatic detection.
func (e *InvalidInputError) Unwrap() error { return ErrInvalidInput }

// Resolve validates opts and computes the full layout. The only I/O-adjacent
// call is os.Getwd when ProjectPath is empty; everything else is pure.
func Resolve(opts Options) (*Layout, error) {
	if err := validateSegment("app name", opts.AppName); err != nil {
		return nil, err
	}

	archiveFolder := opts.AppName
	if opts.RenameFolder != "" {
		if err := validateSegment("rename folder", opts.RenameFolder); err != nil {
			return nil, err
		}
		archiveFolder = opts.RenameFolder
	}

	projectPath := opts.ProjectPath
	if projectPath == "" {
		cwd, err := os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("failed to get current directory: %w", err)
		}
		projectPath = cwd
	}
	root, err := filepath.Abs(projectPath)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve project path: %w", err)
	}

	distName := opts.DistDir
	if distName == "" {
		distName = DistDirName
	}
	browserName := opts.BrowserDir
	if browserName == "" {
		browserName = BrowserDirName
	}

	ext := ".tar"
	if opts.Compress {
		ext = ".tar.gz"
	}

	distDir := filepath.Join(root, distName)
	appDistDir := filepath.Join(distDir, opts.AppName)

	return &Layout{
		ProjectRoot:       root,
		DistDir:           distDir,
		AppDistDir:        appDistDir,
		BrowserDir:        filepath.Join(appDistDir, browserName),
		ArchivePath:       filepath.Join(root, archivePrefix+opts.AppName+ext),
		AppName:           opts.AppName,
		ArchiveFolderName: archiveFolder,
	}, nil
}

// validateSegment rejects values that are empty or not a single, traversal-free
// path segment. Names like "../etc" or "a/b" would silently escape the dist
// directory once joined, so they are refused before any stage runs.
func validateSegment(field, value string) error {
	switch {
	case strings.TrimSpace(value) == "":
		return &InvalidInputError{Field: field, Value: value, Reason: "must not be empty"}
	case value == "." || value == "..":
		return &InvalidInputError{Field: field, Value: value, Reason: "must not be a traversal segment"}
	case strings.ContainsAny(value, `/\`):
		return &InvalidInputError{Field: field, Value: value, Reason: "must be a single path segment without separators"}
	case filepath.Clean(value) != value:
		return &InvalidInputError{Field: field, Value: value, Reason: "must be a clean path segment"}
	}
	return nil
}
