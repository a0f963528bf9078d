// SPDX-License-Identifier: MPL-2.0

// Package dist restages the build output tree in place: it flattens the
// nested browser subdirectory into the app dist directory and normalizes
// the entry HTML document. Both operations mutate the tree directly; the
// archive packager only ever reads the result.
package dist

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

var (
	// ErrMissingBuildOutput is the sentinel error wrapped by MissingBuildOutputError.
	ErrMissingBuildOutput = errors.New("missing build output")
	// ErrPartialFlatten is the sentinel error wrapped by PartialFlattenError.
	ErrPartialFlatten = errors.New("partial flatten")
)

type (
	// MissingBuildOutputError is returned when the nested build output
	// subdirectory does not exist or is not a directory. It signals either
	// a failed build or a wrong output-layout assumption and is fatal.
	MissingBuildOutputError struct {
		Path string
	}

	// PartialFlattenError is returned when some entries could not be moved
	// out of the build output subdirectory. No rollback is attempted; the
	// unmoved entries are reported so a rerun can pick up where this one
	// stopped.
	PartialFlattenError struct {
		// Unmoved lists the entry names still inside the subdirectory.
		Unmoved []string
		// Cause is the first move error encountered.
		Cause error
	}
)

// Error implements the error interface.
func (e *MissingBuildOutputError) Error() string {
	return fmt.Sprintf("build output directory not found: %s (did the build run, and does it use this output layout?)", e.Path)
}

// Unwrap returns ErrMissingBuildOutput so callers can use errors.Is.
func (e *MissingBuildOutputError) Unwrap() error { return ErrMissingBuildOutput }

// Error implements the error interface.
func (e *PartialFlattenError) Error() string {
	return fmt.Sprintf("flatten incomplete, %d entries not moved (%s): %v",
		len(e.Unmoved), strings.Join(e.Unmoved, ", "), e.Cause)
}

// Unwrap returns ErrPartialFlatten so callers can use errors.Is.
func (e *PartialFlattenError) Unwrap() error { return ErrPartialFlatten }

// Flatten moves every direct child of srcDir (the nested build output
// subdirectory) up into destDir, then removes the now-empty srcDir.
//
// Collisions overwrite the destination entry (last-write-wins). A dist tree
// is rebuilt from scratch on every run, so anything already at the target
// path is stale output from a previous run; this is a deliberate policy.
// The one exception is an entry named like srcDir itself: its destination
// IS the source, so it is moved through a staging directory instead of
// being cleared.
//
// On a partial failure the entries moved so far stay moved. Rolling back a
// half-finished directory move is unsafe without a staging copy, so the
// remaining entries are reported via PartialFlattenError and the rerun is
// the retry mechanism.
func Flatten(srcDir, destDir string) error {
	info, err := os.Stat(srcDir)
	if err != nil {
		if os.IsNotExist(err) {
			return &MissingBuildOutputError{Path: srcDir}
		}
		return fmt.Errorf("failed to stat build output directory: %w", err)
	}
	if !info.IsDir() {
		return &MissingBuildOutputError{Path: srcDir}
	}

	entries, err := os.ReadDir(srcDir)
	if err != nil {
		return fmt.Errorf("failed to read build output directory: %w", err)
	}

	// deferredName is set when an entry's destination path is srcDir itself
	// (the build emitted a child named like the output directory). Moving it
	// in the loop would RemoveAll the tree being flattened; it is settled
	// last, through a staging directory, once srcDir is otherwise empty.
	var deferredName string

	unmoved := func(from int, cause error) error {
		var names []string
		if deferredName != "" {
			names = append(names, deferredName)
		}
		for _, e := range entries[from:] {
			names = append(names, e.Name())
		}
		return &PartialFlattenError{Unmoved: names, Cause: cause}
	}

	for i, entry := range entries {
		src := filepath.Join(srcDir, entry.Name())
		dest := filepath.Join(destDir, entry.Name())

		if filepath.Clean(dest) == filepath.Clean(srcDir) {
			deferredName = entry.Name()
			continue
		}

		// Last-write-wins: clear whatever a previous run left behind.
		if err := os.RemoveAll(dest); err != nil {
			return unmoved(i, err)
		}
		if err := os.Rename(src, dest); err != nil {
			return unmoved(i, err)
		}
	}

	if deferredName != "" {
		// The deferred entry is the only thing left inside srcDir. Park it
		// beside the destination so srcDir can be removed first.
		tmp, err := os.MkdirTemp(destDir, ".flatten-")
		if err != nil {
			return unmoved(len(entries), err)
		}
		staged := filepath.Join(tmp, deferredName)
		if err := os.Rename(filepath.Join(srcDir, deferredName), staged); err != nil {
			_ = os.Remove(tmp)
			return unmoved(len(entries), err)
		}
		if err := os.Remove(srcDir); err != nil {
			return fmt.Errorf("failed to remove build output directory %s: %w", srcDir, err)
		}
		if err := os.Rename(staged, filepath.Join(destDir, deferredName)); err != nil {
			return &PartialFlattenError{Unmoved: []string{deferredName}, Cause: err}
		}
		if err := os.Remove(tmp); err != nil {
			return fmt.Errorf("failed to remove staging directory %s: %w", tmp, err)
		}
		return nil
	}

	if err := os.Remove(srcDir); err != nil {
		return fmt.Errorf("failed to remove build output directory %s: %w", srcDir, err)
	}
	return nil
}
