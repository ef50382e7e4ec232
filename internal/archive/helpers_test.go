package archive_test

import (
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"testing"

	"github.com/spf13/afero"

	"github.com/ossyrian/mintyvpk/internal/archive"
	"github.com/ossyrian/mintyvpk/internal/vpk"
)

// discardLogger is a no-op logger for tests
func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// sourceFiles is the directory tree most tests pack into an archive
var sourceFiles = map[string]string{
	"readme":        "read me first",
	"a.txt":         "alpha",
	".hidden":       "h",
	"empty.dat":     "",
	"dir/b.bin":     "\x00\x01\x02\xff",
	"dir/sub/c.txt": "charlie charlie charlie",
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}

// writeSource writes files under root, creating directories as needed
func writeSource(t *testing.T, fs afero.Fs, root string, files map[string]string) {
	t.Helper()
	for rel, content := range files {
		path := filepath.Join(root, filepath.FromSlash(rel))
		if err := fs.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			t.Fatalf("MkdirAll(%s) failed: %v", path, err)
		}
		if err := afero.WriteFile(fs, path, []byte(content), 0o644); err != nil {
			t.Fatalf("WriteFile(%s) failed: %v", path, err)
		}
	}
}

// packArchive writes files under /src and packs them into dest
func packArchive(t *testing.T, fs afero.Fs, dest string, files map[string]string) *archive.Layout {
	t.Helper()
	writeSource(t, fs, "/src", files)

	layout, err := archive.NewWriter(fs, "/src", archive.WithLogger(discardLogger())).Load(1)
	if err != nil {
		t.Fatalf("Load(1) failed: %v", err)
	}
	if err := layout.Save(dest); err != nil {
		t.Fatalf("Save(%s) failed: %v", dest, err)
	}
	return layout
}

func loadArchive(t *testing.T, fs afero.Fs, path string) *archive.Loaded {
	t.Helper()
	l, err := archive.New(fs, path, archive.WithLogger(discardLogger())).Load()
	if err != nil {
		t.Fatalf("Load(%s) failed: %v", path, err)
	}
	return l
}

// corruptPayload flips the first payload byte of path inside an archive
// whose payload lives in the directory file
func corruptPayload(t *testing.T, fs afero.Fs, l *archive.Loaded, path string) {
	t.Helper()
	e, ok := l.Entry(path)
	if !ok || e.EntryLength == 0 {
		t.Fatalf("cannot corrupt %s: entry %+v", path, e)
	}
	h := l.Header()

	data, err := afero.ReadFile(fs, l.Path())
	if err != nil {
		t.Fatalf("ReadFile() failed: %v", err)
	}
	data[h.Length()+int(h.TreeLength)+int(e.EntryOffset)] ^= 0xFF
	if err := afero.WriteFile(fs, l.Path(), data, 0o644); err != nil {
		t.Fatalf("WriteFile() failed: %v", err)
	}
}

// handEntry describes one leaf of a hand-built tree
type handEntry struct {
	ext, dir, name string
	preload        []byte
	index          uint16
	offset         uint32
	length         uint32
	crc            uint32
}

// buildTree encodes leaves, each in its own extension and directory group
func buildTree(t *testing.T, leaves []handEntry) []byte {
	t.Helper()
	c := vpk.NewCursor(nil)
	for _, e := range leaves {
		for _, s := range []string{e.ext, e.dir, e.name} {
			if err := c.WriteCString(s); err != nil {
				t.Fatalf("WriteCString(%q) failed: %v", s, err)
			}
		}
		c.WriteUint32(e.crc)
		c.WriteUint16(uint16(len(e.preload)))
		c.WriteUint16(e.index)
		c.WriteUint32(e.offset)
		c.WriteUint32(e.length)
		c.WriteUint16(vpk.EntryTerminator)
		c.WriteBytes(e.preload)
		c.WriteBytes([]byte{0, 0})
	}
	c.WriteBytes([]byte{0})
	return c.Bytes()
}

// buildHeader encodes a header from raw field values
func buildHeader(fields ...uint32) []byte {
	c := vpk.NewCursor(nil)
	for _, f := range fields {
		c.WriteUint32(f)
	}
	return c.Bytes()
}

// segmentedArchive writes a version 2 archive at /vpk/pak01_dir.vpk that
// uses preload bytes, directory-file payloads and a segment file, and
// returns the expected contents of each path
func segmentedArchive(t *testing.T, fs afero.Fs) map[string][]byte {
	t.Helper()

	want := map[string][]byte{
		"a.txt":        []byte("hello"),
		"models/b.mdl": []byte("segment payload"),
		"c.cfg":        []byte("abcdef"),
		"d.bin":        []byte("tail"),
	}

	tree := buildTree(t, []handEntry{
		{ext: "txt", dir: " ", name: "a", preload: want["a.txt"], index: vpk.DirectoryArchiveIndex, crc: vpk.Checksum(want["a.txt"])},
		{ext: "mdl", dir: "models", name: "b", index: 3, offset: 4, length: 15, crc: vpk.Checksum(want["models/b.mdl"])},
		{ext: "cfg", dir: " ", name: "c", preload: []byte("ab"), index: vpk.DirectoryArchiveIndex, offset: 0, length: 4, crc: vpk.Checksum(want["c.cfg"])},
		{ext: "bin", dir: " ", name: "d", index: vpk.DirectoryArchiveIndex, offset: 4, length: 4, crc: vpk.Checksum(want["d.bin"])},
	})

	dir := buildHeader(vpk.Signature, 2, uint32(len(tree)), 0, 0, 0, 0)
	dir = append(dir, tree...)
	dir = append(dir, "cdef"...)
	dir = append(dir, "tail"...)

	if err := fs.MkdirAll("/vpk", 0o755); err != nil {
		t.Fatalf("MkdirAll() failed: %v", err)
	}
	if err := afero.WriteFile(fs, "/vpk/pak01_dir.vpk", dir, 0o644); err != nil {
		t.Fatalf("WriteFile() failed: %v", err)
	}
	if err := afero.WriteFile(fs, "/vpk/pak01_003.vpk", []byte("JUNKsegment payload"), 0o644); err != nil {
		t.Fatalf("WriteFile() failed: %v", err)
	}
	return want
}

var errDenied = errors.New("permission denied")

// failingFs refuses to open the listed paths for writing
type failingFs struct {
	afero.Fs
	deny map[string]bool
}

func (f failingFs) OpenFile(name string, flag int, perm os.FileMode) (afero.File, error) {
	if flag&(os.O_WRONLY|os.O_RDWR) != 0 && f.deny[name] {
		return nil, &os.PathError{Op: "open", Path: name, Err: errDenied}
	}
	return f.Fs.OpenFile(name, flag, perm)
}
