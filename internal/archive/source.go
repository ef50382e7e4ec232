package archive

import (
	"fmt"
	"log/slog"
	"os"
	"path"
	"path/filepath"

	"github.com/spf13/afero"

	"github.com/ossyrian/mintyvpk/internal/vpk"
)

// EnumerateSource walks root and returns a record for every regular file.
// Files of a directory come first in lexical order, followed by its
// subdirectories, recursively. Each file is read once to compute its
// checksum and size.
func EnumerateSource(fs afero.Fs, root string, logger *slog.Logger) ([]*vpk.FileRecord, error) {
	var records []*vpk.FileRecord
	if err := enumerateDir(fs, root, "", logger, &records); err != nil {
		return nil, err
	}
	return records, nil
}

func enumerateDir(fs afero.Fs, root, rel string, logger *slog.Logger, records *[]*vpk.FileRecord) error {
	dir := filepath.Join(root, filepath.FromSlash(rel))

	infos, err := afero.ReadDir(fs, dir)
	if err != nil {
		return fmt.Errorf("failed to list %s: %w", dir, err)
	}

	var subdirs []string
	for _, info := range infos {
		childRel := path.Join(rel, info.Name())

		switch {
		case info.IsDir():
			subdirs = append(subdirs, childRel)
		case info.Mode().IsRegular():
			record, err := newSourceRecord(fs, root, childRel)
			if err != nil {
				return err
			}
			*records = append(*records, record)
		default:
			logger.Debug("skipping non-regular file", "path", childRel, "mode", info.Mode().String())
		}
	}

	for _, sub := range subdirs {
		if err := enumerateDir(fs, root, sub, logger, records); err != nil {
			return err
		}
	}
	return nil
}

func newSourceRecord(fs afero.Fs, root, rel string) (*vpk.FileRecord, error) {
	sourcePath := filepath.Join(root, filepath.FromSlash(rel))

	f, err := fs.OpenFile(sourcePath, os.O_RDONLY, 0)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", sourcePath, err)
	}
	defer f.Close()

	checksum, size, err := vpk.ChecksumReader(f)
	if err != nil {
		return nil, fmt.Errorf("failed to checksum %s: %w", sourcePath, err)
	}

	record, err := vpk.NewFileRecord(rel, sourcePath, size, checksum)
	if err != nil {
		return nil, err
	}
	return record, nil
}
