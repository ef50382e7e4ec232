package archive

import (
	"bufio"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"

	"github.com/samber/lo"
	"github.com/spf13/afero"

	"github.com/ossyrian/mintyvpk/internal/vpk"
)

// Writer builds a new archive from the files under a source directory.
type Writer struct {
	fs     afero.Fs
	root   string
	logger *slog.Logger
}

// NewWriter returns a Writer for the directory root on fs.
func NewWriter(fs afero.Fs, root string, opts ...Option) *Writer {
	o := buildOptions(opts)
	return &Writer{
		fs:     fs,
		root:   root,
		logger: o.logger.With("source", root),
	}
}

// IsValid reports whether the source root is a directory.
func (w *Writer) IsValid() bool {
	ok, err := afero.IsDir(w.fs, w.root)
	return err == nil && ok
}

// Load enumerates the source files and lays out the tree for an archive of
// the given format version. Only version 1 can be written.
func (w *Writer) Load(version uint32) (*Layout, error) {
	if version != 1 {
		return nil, fmt.Errorf("%w: cannot write version %d archives", vpk.ErrUnsupportedOperation, version)
	}
	if !w.IsValid() {
		return nil, fmt.Errorf("%w: %s", ErrNotDirectory, w.root)
	}

	records, err := EnumerateSource(w.fs, w.root, w.logger)
	if err != nil {
		return nil, err
	}

	treeLength, err := vpk.LayoutRecords(records)
	if err != nil {
		return nil, err
	}

	l := &Layout{
		fs:     w.fs,
		logger: w.logger,
		header: &vpk.Header{
			Signature:  vpk.Signature,
			Version:    version,
			TreeLength: treeLength,
		},
		records: records,
	}

	w.logger.Info("laid out archive",
		"files", len(records),
		"tree_length", treeLength,
		"data_length", l.DataLength(),
	)
	return l, nil
}

// Layout is the planned content of a new archive: its header and the
// records in tree order with their payload offsets assigned.
type Layout struct {
	fs      afero.Fs
	logger  *slog.Logger
	header  *vpk.Header
	records []*vpk.FileRecord
}

// Header returns a copy of the header that Save will write.
func (l *Layout) Header() vpk.Header {
	return *l.header
}

// Records returns the records in tree order.
func (l *Layout) Records() []*vpk.FileRecord {
	return l.records
}

// DataLength returns the total payload size following the tree.
func (l *Layout) DataLength() int64 {
	return lo.SumBy(l.records, func(r *vpk.FileRecord) int64 { return r.Size })
}

// Save writes the archive to dest: header, tree, then the payload of every
// record in tree order. The archive is written to a temporary file next to
// dest and renamed into place, so a failed Save leaves nothing behind.
func (l *Layout) Save(dest string) error {
	header, err := l.header.Encode()
	if err != nil {
		return err
	}
	tree, err := vpk.EncodeTree(l.records)
	if err != nil {
		return err
	}
	if len(tree) != int(l.header.TreeLength) {
		return fmt.Errorf("encoded tree is %d bytes, header says %d", len(tree), l.header.TreeLength)
	}

	dir := filepath.Dir(dest)
	if err := l.fs.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create directory %s: %w", dir, err)
	}

	tmp, err := afero.TempFile(l.fs, dir, "vpk_*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpPath := tmp.Name()

	if err := l.writeTo(tmp, header, tree); err != nil {
		tmp.Close()
		l.fs.Remove(tmpPath)
		return err
	}
	if err := tmp.Close(); err != nil {
		l.fs.Remove(tmpPath)
		return fmt.Errorf("failed to close temp file: %w", err)
	}
	if err := l.fs.Rename(tmpPath, dest); err != nil {
		l.fs.Remove(tmpPath)
		return fmt.Errorf("failed to move archive into place: %w", err)
	}

	l.logger.Info("saved archive",
		"destination", dest,
		"files", len(l.records),
		"size", int64(len(header)+len(tree))+l.DataLength(),
	)
	return nil
}

func (l *Layout) writeTo(w io.Writer, header, tree []byte) error {
	bw := bufio.NewWriter(w)

	if _, err := bw.Write(header); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}
	if _, err := bw.Write(tree); err != nil {
		return fmt.Errorf("failed to write tree: %w", err)
	}

	for _, r := range l.records {
		if err := l.copyPayload(bw, r); err != nil {
			return err
		}
	}

	if err := bw.Flush(); err != nil {
		return fmt.Errorf("failed to flush archive: %w", err)
	}
	return nil
}

// copyPayload appends the source file of r. The file must still have the
// size it had when the layout was computed, or every later offset would be
// wrong.
func (l *Layout) copyPayload(w io.Writer, r *vpk.FileRecord) error {
	f, err := l.fs.Open(r.SourcePath)
	if err != nil {
		return fmt.Errorf("failed to open %s: %w", r.SourcePath, err)
	}
	defer f.Close()

	n, err := io.Copy(w, io.LimitReader(f, r.Size+1))
	if err != nil {
		return fmt.Errorf("failed to copy %s: %w", r.SourcePath, err)
	}
	if n != r.Size {
		return fmt.Errorf("%s changed size since layout: expected %d bytes, read %d",
			r.SourcePath, r.Size, n)
	}
	return nil
}
