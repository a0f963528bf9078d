// SPDX-License-Identifier: MPL-2.0

// Package builder invokes the external front-end production build as a
// blocking subprocess. The pipeline only consumes the exit status; on
// success it assumes the framework populated the nested browser output
// directory under the app dist directory.
package builder

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"

	"mvdan.cc/sh/v3/shell"
)

var (
	// ErrBuildFailed is the sentinel error wrapped by BuildFailedError.
	ErrBuildFailed = errors.New("build failed")
	// ErrEmptyBuildCommand is returned when the configured build command
	// expands to nothing.
	ErrEmptyBuildCommand = errors.New("build command is empty")
)

type (
	// BuildFailedError is returned when the external build command exits
	// non-zero. It carries the command's own diagnostic output so the
	// failure is propagated to the user verbatim. Fatal, never retried.
	BuildFailedError struct {
		Command  string
		ExitCode int
		// Output is the combined stdout/stderr captured from the command.
		Output string
		Cause  error
	}

	// Invocation describes a single build run.
	Invocation struct {
		// Command is the full command line, split with shell quoting rules.
		Command string
		// Dir is the working directory (the project root).
		Dir string
		// Output, when set, receives the command's combined output as it
		// is produced. The output is always captured for error reporting
		// regardless.
		Output io.Writer
	}
)

// Error implements the error interface.
func (e *BuildFailedError) Error() string {
	return fmt.Sprintf("build command %q failed with exit code %d", e.Command, e.ExitCode)
}

// Unwrap returns ErrBuildFailed so callers can use errors.Is.
func (e *BuildFailedError) Unwrap() error { return ErrBuildFailed }

// Run executes the build command and blocks until it finishes. The command
// line is split with mvdan/sh field rules, so quoted arguments survive
// intact (e.g. `ng build --configuration "production"`). Environment
// variable references in the command line expand from the process
// environment.
func Run(ctx context.Context, inv Invocation) error {
	fields, err := shell.Fields(inv.Command, os.Getenv)
	if err != nil {
		return fmt.Errorf("failed to parse build command %q: %w", inv.Command, err)
	}
	if len(fields) == 0 || strings.TrimSpace(inv.Command) == "" {
		return ErrEmptyBuildCommand
	}

	var buf bytes.Buffer
	var out io.Writer = &buf
	if inv.Output != nil {
		out = io.MultiWriter(&buf, inv.Output)
	}

	cmd := exec.CommandContext(ctx, fields[0], fields[1:]...)
	cmd.Dir = inv.Dir
	cmd.Stdout = out
	cmd.Stderr = out

	if err := cmd.Run(); err != nil {
		exitCode := -1
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			exitCode = exitErr.ExitCode()
		}
		return &BuildFailedError{
			Command:  inv.Command,
			ExitCode: exitCode,
			Output:   buf.String(),
			Cause:    err,
		}
	}
	return nil
}
