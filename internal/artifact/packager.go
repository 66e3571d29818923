package artifact

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"

	"git.home.luguber.info/inful/tidyarxiv/internal/compiler"
	"git.home.luguber.info/inful/tidyarxiv/internal/fileset"
	ferrors "git.home.luguber.info/inful/tidyarxiv/internal/foundation/errors"
	"git.home.luguber.info/inful/tidyarxiv/internal/logfields"
	"git.home.luguber.info/inful/tidyarxiv/internal/util/fsutil"
)

// Packager writes the artifacts of one run into OutDir.
type Packager struct {
	OutDir     string
	SourceRoot string
	Target     string
	// Publish selects the archive contents, resolved against the staging tree.
	Publish fileset.Spec
	// MetadataFile is optional, relative to SourceRoot unless absolute.
	MetadataFile string
}

// Bundle lists the files written for a successful run.
type Bundle struct {
	Names     Names
	Archive   string
	PDF       string
	Log       string
	Metadata  string
	Published []string
	Warnings  []string
}

// Package writes the archive, the compiled document copy and the build log,
// all under names derived from timestamp. The publish set is resolved inside
// stagingDir, so the archive carries sanitized sources and files generated by
// the build (such as .bbl). Either all three are written or none remain.
func (p *Packager) Package(ctx context.Context, stagingDir, timestamp string, header LogHeader, outcome *compiler.Outcome) (bundle *Bundle, err error) {
	names := NewNames(p.Target, timestamp)
	paths := names.In(p.OutDir)
	bundle = &Bundle{Names: names}

	pdf := filepath.Join(stagingDir, p.Target+".pdf")
	if !fsutil.IsFile(pdf) {
		return bundle, ferrors.FileSystemError("compiled document not found in staging tree").
			WithContext("file", p.Target+".pdf").
			Build()
	}

	publish, err := fileset.Resolve(stagingDir, p.Publish)
	if err != nil {
		return nil, ferrors.WrapError(err, ferrors.CategoryFileSystem, "failed to resolve publish files").Build()
	}
	bundle.Published = publish.Sorted()

	defer func() {
		if err != nil {
			bundle.removeWritten()
		}
	}()

	if err := WriteArchive(ctx, stagingDir, bundle.Published, paths.Archive); err != nil {
		return bundle, ferrors.WrapError(err, ferrors.CategoryFileSystem, "failed to write archive").
			WithContext("path", paths.Archive).
			Build()
	}
	bundle.Archive = paths.Archive
	slog.Info("Archive written", logfields.Path(paths.Archive), logfields.Count(len(bundle.Published)))

	if err := fsutil.CopyFile(pdf, paths.PDF); err != nil {
		return bundle, ferrors.WrapError(err, ferrors.CategoryFileSystem, "failed to copy compiled document").
			WithContext("path", paths.PDF).
			Build()
	}
	bundle.PDF = paths.PDF

	if err := WriteLog(paths.Log, header, outcome); err != nil {
		return bundle, ferrors.WrapError(err, ferrors.CategoryFileSystem, "failed to write build log").
			WithContext("path", paths.Log).
			Build()
	}
	bundle.Log = paths.Log

	if p.MetadataFile != "" {
		p.copyMetadata(bundle, paths.Metadata)
	}
	return bundle, nil
}

// removeWritten deletes the artifacts of a bundle whose packaging failed.
func (b *Bundle) removeWritten() {
	for _, path := range []*string{&b.Archive, &b.PDF, &b.Log} {
		if *path == "" {
			continue
		}
		if err := os.Remove(*path); err != nil && !os.IsNotExist(err) {
			slog.Warn("Failed to remove partial artifact", logfields.Path(*path), logfields.Error(err))
		}
		*path = ""
	}
}

// copyMetadata never fails the run: a missing or unreadable file is a warning.
func (p *Packager) copyMetadata(bundle *Bundle, dest string) {
	src := p.MetadataFile
	if !filepath.IsAbs(src) {
		src = filepath.Join(p.SourceRoot, src)
	}
	if !fsutil.IsFile(src) {
		msg := `Metadata file "` + p.MetadataFile + `" not found. Skipping metadata file copy.`
		slog.Warn(msg, logfields.Path(src))
		bundle.Warnings = append(bundle.Warnings, msg)
		return
	}
	if err := fsutil.CopyFile(src, dest); err != nil {
		msg := `Metadata file "` + p.MetadataFile + `" could not be copied: ` + err.Error()
		slog.Warn(msg, logfields.Path(src))
		bundle.Warnings = append(bundle.Warnings, msg)
		return
	}
	bundle.Metadata = dest
}

// WriteFailureLog writes the build log of a failed run to OutDir/build.log.
func (p *Packager) WriteFailureLog(header LogHeader, outcome *compiler.Outcome) (string, error) {
	path := filepath.Join(p.OutDir, FailureLogName)
	if err := WriteLog(path, header, outcome); err != nil {
		return "", ferrors.WrapError(err, ferrors.CategoryFileSystem, "failed to write build log").
			WithContext("path", path).
			Build()
	}
	return path, nil
}
