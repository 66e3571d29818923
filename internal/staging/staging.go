// Package staging materializes the import file set into a staging tree and
// sanitizes the filter subset of the copies.
package staging

import (
	"context"
	"log/slog"
	"path/filepath"
	"time"

	"git.home.luguber.info/inful/tidyarxiv/internal/fileset"
	ferrors "git.home.luguber.info/inful/tidyarxiv/internal/foundation/errors"
	"git.home.luguber.info/inful/tidyarxiv/internal/logfields"
	"git.home.luguber.info/inful/tidyarxiv/internal/sanitize"
	"git.home.luguber.info/inful/tidyarxiv/internal/util/fsutil"
)

// Request describes one staging pass.
type Request struct {
	// SourceRoot is the project directory; it is only ever read.
	SourceRoot string
	// StagingDir is an existing, empty directory owned by the run.
	StagingDir string
	Import     fileset.Set
	Filter     fileset.Set
}

// Report summarizes what was staged.
type Report struct {
	Imported  []string
	Sanitized []string
	Duration  time.Duration
}

// Assemble copies every import path into the staging dir at the same relative
// path, then sanitizes the copies of paths that are also in the filter set.
// Sanitization starts only after every copy has completed.
func Assemble(ctx context.Context, req Request) (*Report, error) {
	start := time.Now()
	if req.StagingDir == "" {
		return nil, ferrors.InternalError("staging directory not set").Build()
	}

	report := &Report{Imported: req.Import.Sorted()}
	for _, rel := range report.Imported {
		if err := ctx.Err(); err != nil {
			return nil, ferrors.WrapError(err, ferrors.CategoryStaging, "staging canceled").Build()
		}
		slog.Debug("Importing", logfields.File(rel))
		src := filepath.Join(req.SourceRoot, filepath.FromSlash(rel))
		dst := filepath.Join(req.StagingDir, filepath.FromSlash(rel))
		if err := fsutil.CopyFile(src, dst); err != nil {
			return nil, ferrors.WrapError(err, ferrors.CategoryStaging, "failed to import file").
				Fatal().
				WithContext("file", rel).
				Build()
		}
	}

	report.Sanitized = req.Import.Intersect(req.Filter).Sorted()
	for _, rel := range report.Sanitized {
		if err := ctx.Err(); err != nil {
			return nil, ferrors.WrapError(err, ferrors.CategoryStaging, "staging canceled").Build()
		}
		slog.Debug("Filtering", logfields.File(rel))
		if err := sanitize.File(filepath.Join(req.StagingDir, filepath.FromSlash(rel))); err != nil {
			return nil, ferrors.WrapError(err, ferrors.CategoryStaging, "failed to strip comments").
				Fatal().
				WithContext("file", rel).
				Build()
		}
	}

	report.Duration = time.Since(start)
	slog.Info("Staged project files",
		slog.Int("imported", len(report.Imported)),
		slog.Int("sanitized", len(report.Sanitized)),
		logfields.DurationMS(float64(report.Duration.Milliseconds())))
	return report, nil
}
