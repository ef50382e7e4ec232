package archive

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/afero"
)

// Extract writes every file in the tree under dest, creating directories as
// needed.
//
// A file that cannot be read back from the archive (I/O or checksum failure)
// stops the extraction immediately. Failures to create directories or write
// destination files are collected and returned together as an *ExtractError
// once every file has been attempted.
func (l *Loaded) Extract(ctx context.Context, dest string) error {
	root := filepath.Clean(dest)
	fs := l.archive.fs
	logger := l.archive.logger.With("destination", root)

	failed := &ExtractError{}
	written := 0

	for _, path := range l.Files() {
		if err := ctx.Err(); err != nil {
			return err
		}

		target, err := destinationPath(root, path)
		if err != nil {
			failed.add(target, err)
			continue
		}

		if err := fs.MkdirAll(filepath.Dir(target), 0o755); err != nil {
			failed.add(target, fmt.Errorf("failed to create directory: %w", err))
			continue
		}

		data, _, err := l.GetFile(path)
		if err != nil {
			return fmt.Errorf("failed to extract %s: %w", path, err)
		}

		if err := afero.WriteFile(fs, target, data, 0o644); err != nil {
			failed.add(target, fmt.Errorf("failed to write file: %w", err))
			continue
		}

		written++
		logger.Debug("extracted file", "path", path, "size", len(data))
	}

	if len(failed.Failed) > 0 {
		logger.Error("some files could not be written",
			"written", written,
			"failed", len(failed.Failed),
		)
		return failed
	}

	logger.Info("extracted archive", "files", written)
	return nil
}

// destinationPath joins a tree path onto root and refuses results that do
// not stay strictly inside root.
func destinationPath(root, path string) (string, error) {
	target := filepath.Join(root, filepath.FromSlash(path))

	rel, err := filepath.Rel(root, target)
	if err != nil {
		return target, fmt.Errorf("%w: %q: %w", ErrUnsafePath, path, err)
	}
	if rel == "." || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return target, fmt.Errorf("%w: %q", ErrUnsafePath, path)
	}
	return target, nil
}
