package artifact

import (
	"archive/tar"
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/klauspost/compress/gzip"

	"git.home.luguber.info/inful/tidyarxiv/internal/logfields"
)

// WriteArchive writes a gzip-compressed tarball at dest containing each of
// files (slash-separated, relative to root) under its relative path. The
// archive is written to a temporary name and renamed into place, so a failed
// write leaves no partial archive behind.
func WriteArchive(ctx context.Context, root string, files []string, dest string) (err error) {
	tmp, err := os.CreateTemp(filepath.Dir(dest), ".tidyarxiv-archive-*")
	if err != nil {
		return fmt.Errorf("create archive: %w", err)
	}
	tmpName := tmp.Name()
	defer func() {
		if err != nil {
			_ = tmp.Close()
			_ = os.Remove(tmpName)
		}
	}()

	gz := gzip.NewWriter(tmp)
	tw := tar.NewWriter(gz)

	for _, rel := range files {
		if err := ctx.Err(); err != nil {
			return err
		}
		slog.Debug("Adding", logfields.File(rel))
		if err := addFile(tw, filepath.Join(root, filepath.FromSlash(rel)), rel); err != nil {
			return fmt.Errorf("add %s: %w", rel, err)
		}
	}

	if err := tw.Close(); err != nil {
		return fmt.Errorf("finish tar stream: %w", err)
	}
	if err := gz.Close(); err != nil {
		return fmt.Errorf("finish gzip stream: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close archive: %w", err)
	}
	if err := os.Chmod(tmpName, 0o644); err != nil {
		return fmt.Errorf("chmod archive: %w", err)
	}
	if err := os.Rename(tmpName, dest); err != nil {
		return fmt.Errorf("rename archive: %w", err)
	}
	return nil
}

func addFile(tw *tar.Writer, path, name string) error {
	info, err := os.Stat(path)
	if err != nil {
		return err
	}
	if !info.Mode().IsRegular() {
		return fmt.Errorf("%s is not a regular file", name)
	}

	hdr, err := tar.FileInfoHeader(info, "")
	if err != nil {
		return err
	}
	hdr.Name = name
	hdr.Uid, hdr.Gid = 0, 0
	hdr.Uname, hdr.Gname = "", ""

	if err := tw.WriteHeader(hdr); err != nil {
		return err
	}

	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer func() {
		_ = f.Close()
	}()
	_, err = io.Copy(tw, f)
	return err
}
