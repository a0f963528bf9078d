// SPDX-License-Identifier: MPL-2.0

// Package archive streams a flattened dist tree into a tar archive,
// optionally gzip-compressed, rewriting the top-level folder name in entry
// paths on the fly. The source tree is never mutated and no staging copy is
// made; the rename exists only in archive entry metadata.
package archive

import (
	"archive/tar"
	"errors"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/klauspost/compress/gzip"
)

// ErrArchiveWrite is the sentinel error wrapped by WriteError.
var ErrArchiveWrite = errors.New("archive write failed")

type (
	// WriteError is returned when the archive cannot be produced, either
	// because the output file cannot be written or the source tree cannot
	// be fully read. The partial output file is removed before this error
	// is returned, so a failed run never leaves a plausible-looking
	// artifact behind.
	WriteError struct {
		Path  string
		Cause error
	}

	// Options describes a single packaging run.
	Options struct {
		// SourceDir is the flattened dist tree (dist/<app>), read-only here.
		SourceDir string
		// DistFolderName is the on-disk folder name (the app name).
		DistFolderName string
		// ArchiveFolderName is the folder name recorded in entry paths;
		// equals DistFolderName unless a rename was requested.
		ArchiveFolderName string
		// OutputPath is where the archive file is created.
		OutputPath string
		// Compress selects gzip compression.
		Compress bool
		// FixedModTime, when non-zero, is stamped on every entry instead
		// of the on-disk modification time. This is the reproducible-build
		// switch; the zero value preserves disk timestamps.
		FixedModTime time.Time
	}
)

// Error implements the error interface.
func (e *WriteError) Error() string {
	return fmt.Sprintf("failed to write archive %s: %v", e.Path, e.Cause)
}

// Unwrap returns ErrArchiveWrite so callers can use errors.Is. The
// underlying I/O cause is reachable through errors.As on the struct itself.
func (e *WriteError) Unwrap() error { return ErrArchiveWrite }

// Pack writes the full recursive contents of SourceDir into a tar archive
// at OutputPath. Every entry path takes the form
// dist/<ArchiveFolderName>/<relative path>, derived by an anchored prefix
// rewrite of the logical dist/<DistFolderName> prefix.
func Pack(opts Options) error {
	out, err := os.Create(opts.OutputPath)
	if err != nil {
		return &WriteError{Path: opts.OutputPath, Cause: err}
	}

	if err := writeEntries(out, opts); err != nil {
		// Never leave a truncated archive that looks valid.
		out.Close()
		os.Remove(opts.OutputPath)
		return &WriteError{Path: opts.OutputPath, Cause: err}
	}

	if err := out.Close(); err != nil {
		os.Remove(opts.OutputPath)
		return &WriteError{Path: opts.OutputPath, Cause: err}
	}
	return nil
}

// writeEntries streams the tree through the tar (and optional gzip) writers.
func writeEntries(out io.Writer, opts Options) error {
	var tw *tar.Writer
	var gz *gzip.Writer
	if opts.Compress {
		gz = gzip.NewWriter(out)
		tw = tar.NewWriter(gz)
	} else {
		tw = tar.NewWriter(out)
	}

	oldPrefix := path.Join("dist", opts.DistFolderName)
	newPrefix := path.Join("dist", opts.ArchiveFolderName)

	err := filepath.WalkDir(opts.SourceDir, func(p string, d os.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}

		rel, err := filepath.Rel(opts.SourceDir, p)
		if err != nil {
			return fmt.Errorf("failed to get relative path: %w", err)
		}

		logical := oldPrefix
		if rel != "." {
			logical = oldPrefix + "/" + filepath.ToSlash(rel)
		}
		name := RewritePrefix(logical, oldPrefix, newPrefix)

		info, err := d.Info()
		if err != nil {
			return fmt.Errorf("failed to stat %s: %w", p, err)
		}

		link := ""
		if info.Mode()&os.ModeSymlink != 0 {
			if link, err = os.Readlink(p); err != nil {
				return fmt.Errorf("failed to read symlink %s: %w", p, err)
			}
		}

		header, err := tar.FileInfoHeader(info, link)
		if err != nil {
			return fmt.Errorf("failed to create header for %s: %w", p, err)
		}
		header.Name = name
		if d.IsDir() {
			header.Name += "/"
		}
		if !opts.FixedModTime.IsZero() {
			header.ModTime = opts.FixedModTime
			header.AccessTime = time.Time{}
			header.ChangeTime = time.Time{}
		}

		if err := tw.WriteHeader(header); err != nil {
			return fmt.Errorf("failed to write header for %s: %w", name, err)
		}
		if !info.Mode().IsRegular() {
			return nil
		}

		f, err := os.Open(p)
		if err != nil {
			return fmt.Errorf("failed to open %s: %w", p, err)
		}
		defer f.Close()

		if _, err := io.Copy(tw, f); err != nil {
			return fmt.Errorf("failed to write %s: %w", name, err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	if err := tw.Close(); err != nil {
		return fmt.Errorf("failed to finalize tar stream: %w", err)
	}
	if gz != nil {
		if err := gz.Close(); err != nil {
			return fmt.Errorf("failed to finalize gzip stream: %w", err)
		}
	}
	return nil
}

// RewritePrefix replaces oldPrefix with newPrefix at the start of name.
// The match is anchored and component-aware: it only applies when name is
// exactly oldPrefix or continues with a path separator, so an entry that
// merely contains the app name somewhere in a file name is never touched.
func RewritePrefix(name, oldPrefix, newPrefix string) string {
	if name == oldPrefix {
		return newPrefix
	}
	if strings.HasPrefix(name, oldPrefix+"/") {
		return newPrefix + name[len(oldPrefix):]
	}
	return name
}
