// SPDX-License-Identifier: MPL-2.0

// Package pipeline sequences the packaging stages: build, flatten,
// normalize, pack. The stages are strictly sequential and each one depends
// only on the filesystem state its predecessor left behind; any fatal error
// aborts the remaining stages.
package pipeline

import (
	"context"
	"io"
	"time"

	"github.com/charmbracelet/log"

	"distpack/internal/archive"
	"distpack/internal/builder"
	"distpack/internal/dist"
	"distpack/internal/paths"
)

// ReproducibleModTime is the fixed timestamp stamped on archive entries when
// deterministic timestamps are enabled.
var ReproducibleModTime = time.Unix(0, 0).UTC()

type (
	// Options configures a full pipeline run.
	Options struct {
		// Layout is the resolved path set for this run.
		Layout *paths.Layout
		// BuildCommand is the external production build command line.
		BuildCommand string
		// SkipBuild runs flatten onwards against an existing dist tree.
		SkipBuild bool
		// Compress selects .tar.gz output.
		Compress bool
		// DeterministicTimestamps stamps ReproducibleModTime on every
		// archive entry instead of preserving disk mtimes.
		DeterministicTimestamps bool
		// BuildOutput, when set, receives the build command's combined
		// output as it is produced.
		BuildOutput io.Writer
		// Logger receives stage progress and the normalization warning.
		// Nil falls back to the package default logger.
		Logger *log.Logger
	}

	// Result summarizes a successful run.
	Result struct {
		// ArchivePath is the final artifact location.
		ArchivePath string
		// EntryWarning is the non-fatal normalization warning, if any.
		EntryWarning string
	}
)

// Run executes the pipeline. The returned error is one of the stage errors
// (builder.BuildFailedError, dist.MissingBuildOutputError,
// dist.PartialFlattenError, archive.WriteError) or a context error.
func Run(ctx context.Context, opts Options) (*Result, error) {
	logger := opts.Logger
	if logger == nil {
		logger = log.Default()
	}
	layout := opts.Layout

	if opts.SkipBuild {
		logger.Debug("skipping build", "dir", layout.AppDistDir)
	} else {
		logger.Info("running production build", "command", opts.BuildCommand)
		err := builder.Run(ctx, builder.Invocation{
			Command: opts.BuildCommand,
			Dir:     layout.ProjectRoot,
			Output:  opts.BuildOutput,
		})
		if err != nil {
			return nil, err
		}
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	logger.Info("flattening build output", "from", layout.BrowserDir, "to", layout.AppDistDir)
	if err := dist.Flatten(layout.BrowserDir, layout.AppDistDir); err != nil {
		return nil, err
	}

	norm, err := dist.NormalizeEntry(layout.AppDistDir)
	if err != nil {
		return nil, err
	}
	if norm.Warning != "" {
		logger.Warn(norm.Warning)
	}
	if norm.Synthesized {
		logger.Info("synthesized entry document", "base_href", norm.BaseHref)
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	fixed := time.Time{}
	if opts.DeterministicTimestamps {
		fixed = ReproducibleModTime
	}

	logger.Info("packing archive", "path", layout.ArchivePath, "folder", layout.ArchiveFolderName)
	err = archive.Pack(archive.Options{
		SourceDir:         layout.AppDistDir,
		DistFolderName:    layout.AppName,
		ArchiveFolderName: layout.ArchiveFolderName,
		OutputPath:        layout.ArchivePath,
		Compress:          opts.Compress,
		FixedModTime:      fixed,
	})
	if err != nil {
		return nil, err
	}

	return &Result{
		ArchivePath:  layout.ArchivePath,
		EntryWarning: norm.Warning,
	}, nil
}
