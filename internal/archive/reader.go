package archive

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"slices"

	"github.com/samber/lo"
	"github.com/spf13/afero"

	"github.com/ossyrian/mintyvpk/internal/vpk"
)

// Archive is a VPK directory file that has not been loaded yet. Creating one
// does no I/O.
type Archive struct {
	fs     afero.Fs
	path   string
	logger *slog.Logger
}

// New returns an Archive for the directory file at path on fs.
func New(fs afero.Fs, path string, opts ...Option) *Archive {
	o := buildOptions(opts)
	return &Archive{
		fs:     fs,
		path:   path,
		logger: o.logger.With("archive", path),
	}
}

// Path returns the directory file path.
func (a *Archive) Path() string {
	return a.path
}

// IsValid reports whether the file starts with a header that decodes
// cleanly. Only the header-sized prefix is read.
func (a *Archive) IsValid() bool {
	f, err := a.fs.Open(a.path)
	if err != nil {
		a.logger.Debug("could not open directory file", "error", err)
		return false
	}
	defer f.Close()

	buf := make([]byte, vpk.HeaderV2Length)
	n, err := io.ReadFull(f, buf)
	if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) {
		a.logger.Debug("could not read header", "error", err)
		return false
	}

	if _, err := vpk.DecodeHeader(vpk.NewCursor(buf[:n])); err != nil {
		a.logger.Debug("header is invalid", "error", err)
		return false
	}
	return true
}

// Load reads the directory file and decodes its header and tree. Every
// failure wraps ErrLoadFailed; decode failures also wrap vpk.ErrFormat.
func (a *Archive) Load() (*Loaded, error) {
	data, err := afero.ReadFile(a.fs, a.path)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to read %s: %w", ErrLoadFailed, a.path, err)
	}

	c := vpk.NewCursor(data)

	h, err := vpk.DecodeHeader(c)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrLoadFailed, a.path, err)
	}

	a.logger.Debug("header is valid",
		"version", h.Version,
		"tree_length", h.TreeLength,
		"footer_length", h.FooterLength,
	)

	tree, err := vpk.DecodeTree(c, a.logger)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrLoadFailed, a.path, err)
	}

	if end := h.Length() + int(h.TreeLength); c.Pos() != end {
		a.logger.Warn("tree length does not match header",
			"expected_end", end,
			"actual_end", c.Pos(),
		)
	}

	a.logger.Info("loaded archive",
		"version", h.Version,
		"files", len(tree),
	)

	return &Loaded{
		archive: a,
		header:  h,
		tree:    tree,
	}, nil
}

// Extract loads the archive and extracts every file under dest. See
// Loaded.Extract.
func (a *Archive) Extract(ctx context.Context, dest string) error {
	l, err := a.Load()
	if err != nil {
		return err
	}
	return l.Extract(ctx, dest)
}

// Loaded is an archive whose header and tree have been decoded. It is never
// modified after Load returns, so its read methods may be called
// concurrently.
type Loaded struct {
	archive *Archive
	header  *vpk.Header
	tree    vpk.Tree
}

// Path returns the directory file path.
func (l *Loaded) Path() string {
	return l.archive.path
}

// Header returns a copy of the decoded header.
func (l *Loaded) Header() vpk.Header {
	return *l.header
}

// Files returns every logical path in the tree, sorted.
func (l *Loaded) Files() []string {
	files := lo.Keys(l.tree)
	slices.Sort(files)
	return files
}

// Entry returns a copy of the directory entry for path.
func (l *Loaded) Entry(path string) (vpk.DirectoryEntry, bool) {
	e, ok := l.tree[path]
	if !ok {
		return vpk.DirectoryEntry{}, false
	}
	return *e, true
}

// GetFile assembles and verifies the contents of path. A path that is not in
// the tree returns ok == false and a nil error. A checksum mismatch returns
// vpk.ErrIntegrity and no data.
func (l *Loaded) GetFile(path string) (data []byte, ok bool, err error) {
	entry, ok := l.tree[path]
	if !ok {
		return nil, false, nil
	}

	preload, main, err := vpk.Locate(l.header, entry, l.archive.path)
	if err != nil {
		return nil, true, fmt.Errorf("failed to locate %s: %w", path, err)
	}

	buf := make([]byte, entry.Size())
	if preload != nil {
		if err := l.readSegment(preload, buf[:preload.Length]); err != nil {
			return nil, true, fmt.Errorf("failed to read preload of %s: %w", path, err)
		}
	}
	if main != nil {
		if err := l.readSegment(main, buf[entry.PreloadBytes:]); err != nil {
			return nil, true, fmt.Errorf("failed to read %s: %w", path, err)
		}
	}

	if err := vpk.VerifyChecksum(buf, entry.Checksum); err != nil {
		return nil, true, fmt.Errorf("%s: %w", path, err)
	}

	return buf, true, nil
}

// readSegment fills dst from seg. The file is opened and closed here.
func (l *Loaded) readSegment(seg *vpk.Segment, dst []byte) error {
	f, err := l.archive.fs.Open(seg.Path)
	if err != nil {
		return fmt.Errorf("failed to open %s: %w", seg.Path, err)
	}
	defer f.Close()

	n, err := f.ReadAt(dst, seg.Offset)
	if n < len(dst) {
		if err == nil || errors.Is(err, io.EOF) {
			err = io.ErrUnexpectedEOF
		}
		return fmt.Errorf("failed to read %d bytes at offset %d of %s: %w",
			len(dst), seg.Offset, seg.Path, err)
	}
	return nil
}
