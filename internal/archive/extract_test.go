package archive_test

import (
	"context"
	"errors"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"github.com/spf13/afero"

	"github.com/ossyrian/mintyvpk/internal/archive"
	"github.com/ossyrian/mintyvpk/internal/vpk"
)

func TestRoundTrip(t *testing.T) {
	fs := afero.NewMemMapFs()
	layout := packArchive(t, fs, "/out/pak01_dir.vpk", sourceFiles)

	a := archive.New(fs, "/out/pak01_dir.vpk", archive.WithLogger(discardLogger()))
	if !a.IsValid() {
		t.Fatal("IsValid() = false for a freshly written archive")
	}

	l, err := a.Load()
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}
	if h := l.Header(); h != layout.Header() {
		t.Errorf("Header() = %+v, want %+v", h, layout.Header())
	}
	if got, want := l.Files(), sortedKeys(sourceFiles); !reflect.DeepEqual(got, want) {
		t.Errorf("Files() = %v, want %v", got, want)
	}

	if err := l.Extract(context.Background(), "/dest"); err != nil {
		t.Fatalf("Extract() failed: %v", err)
	}

	for rel, content := range sourceFiles {
		got, err := afero.ReadFile(fs, filepath.Join("/dest", rel))
		if err != nil {
			t.Errorf("ReadFile(%s) failed: %v", rel, err)
			continue
		}
		if string(got) != content {
			t.Errorf("extracted %s = %q, want %q", rel, got, content)
		}
	}
}

func TestArchive_ExtractAutoLoads(t *testing.T) {
	fs := afero.NewMemMapFs()
	want := segmentedArchive(t, fs)

	a := archive.New(fs, "/vpk/pak01_dir.vpk", archive.WithLogger(discardLogger()))
	if err := a.Extract(context.Background(), "/dest"); err != nil {
		t.Fatalf("Extract() failed: %v", err)
	}

	for path, content := range want {
		got, err := afero.ReadFile(fs, filepath.Join("/dest", path))
		if err != nil || string(got) != string(content) {
			t.Errorf("extracted %s = %q, %v, want %q", path, got, err, content)
		}
	}
}

func TestArchive_ExtractLoadFailed(t *testing.T) {
	fs := afero.NewMemMapFs()
	if err := afero.WriteFile(fs, "/bad_dir.vpk", []byte("definitely not a vpk"), 0o644); err != nil {
		t.Fatalf("WriteFile() failed: %v", err)
	}

	a := archive.New(fs, "/bad_dir.vpk", archive.WithLogger(discardLogger()))
	err := a.Extract(context.Background(), "/dest")
	if !errors.Is(err, archive.ErrLoadFailed) || !errors.Is(err, vpk.ErrFormat) {
		t.Errorf("Extract() error = %v, want ErrLoadFailed wrapping ErrFormat", err)
	}
	if exists, _ := afero.DirExists(fs, "/dest"); exists {
		t.Error("Extract() created the destination for an archive that failed to load")
	}
}

func TestLoaded_ExtractCollectsWriteFailures(t *testing.T) {
	mem := afero.NewMemMapFs()
	packArchive(t, mem, "/out/pak01_dir.vpk", sourceFiles)

	fs := failingFs{
		Fs: mem,
		deny: map[string]bool{
			"/dest/a.txt":     true,
			"/dest/dir/b.bin": true,
		},
	}
	l := loadArchive(t, fs, "/out/pak01_dir.vpk")

	err := l.Extract(context.Background(), "/dest")

	var extractErr *archive.ExtractError
	if !errors.As(err, &extractErr) {
		t.Fatalf("Extract() error = %v, want *ExtractError", err)
	}
	wantFailed := []string{"/dest/a.txt", "/dest/dir/b.bin"}
	if !reflect.DeepEqual(extractErr.Failed, wantFailed) {
		t.Errorf("Failed = %v, want %v", extractErr.Failed, wantFailed)
	}
	for _, dest := range wantFailed {
		if !strings.Contains(err.Error(), dest) {
			t.Errorf("Error() = %q, should contain %q", err.Error(), dest)
		}
	}
	if !errors.Is(err, errDenied) {
		t.Errorf("Extract() error = %v, should wrap the write failure", err)
	}

	// every other file was still written
	for rel, content := range sourceFiles {
		if rel == "a.txt" || rel == "dir/b.bin" {
			continue
		}
		got, err := afero.ReadFile(mem, filepath.Join("/dest", rel))
		if err != nil || string(got) != content {
			t.Errorf("extracted %s = %q, %v, want %q", rel, got, err, content)
		}
	}
}

func TestLoaded_ExtractAbortsOnIntegrityError(t *testing.T) {
	fs := afero.NewMemMapFs()
	packArchive(t, fs, "/out/pak01_dir.vpk", sourceFiles)

	l := loadArchive(t, fs, "/out/pak01_dir.vpk")
	corruptPayload(t, fs, l, "a.txt")

	err := l.Extract(context.Background(), "/dest")
	if !errors.Is(err, vpk.ErrIntegrity) {
		t.Fatalf("Extract() error = %v, want ErrIntegrity", err)
	}
	var extractErr *archive.ExtractError
	if errors.As(err, &extractErr) {
		t.Errorf("integrity failure was collected instead of aborting: %v", extractErr)
	}

	// files sorted after a.txt were never attempted
	if exists, _ := afero.Exists(fs, "/dest/dir/b.bin"); exists {
		t.Error("Extract() kept going after an integrity failure")
	}
}

func TestLoaded_ExtractRefusesUnsafePaths(t *testing.T) {
	fs := afero.NewMemMapFs()

	evil := []byte("evil")
	ok := []byte("ok")
	tree := buildTree(t, []handEntry{
		{ext: "txt", dir: "..", name: "evil", index: vpk.DirectoryArchiveIndex, offset: 0, length: 4, crc: vpk.Checksum(evil)},
		{ext: "txt", dir: " ", name: "ok", index: vpk.DirectoryArchiveIndex, offset: 4, length: 2, crc: vpk.Checksum(ok)},
	})
	dir := append(buildHeader(vpk.Signature, 1, uint32(len(tree))), tree...)
	dir = append(dir, evil...)
	dir = append(dir, ok...)
	if err := afero.WriteFile(fs, "/evil_dir.vpk", dir, 0o644); err != nil {
		t.Fatalf("WriteFile() failed: %v", err)
	}

	l := loadArchive(t, fs, "/evil_dir.vpk")
	err := l.Extract(context.Background(), "/dest/root")

	if !errors.Is(err, archive.ErrUnsafePath) {
		t.Fatalf("Extract() error = %v, want ErrUnsafePath", err)
	}
	if exists, _ := afero.Exists(fs, "/dest/evil.txt"); exists {
		t.Error("Extract() wrote outside the destination root")
	}
	if got, err := afero.ReadFile(fs, "/dest/root/ok.txt"); err != nil || string(got) != "ok" {
		t.Errorf("ok.txt = %q, %v, want \"ok\"", got, err)
	}
}

func TestLoaded_ExtractCancelled(t *testing.T) {
	fs := afero.NewMemMapFs()
	packArchive(t, fs, "/out/pak01_dir.vpk", sourceFiles)
	l := loadArchive(t, fs, "/out/pak01_dir.vpk")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if err := l.Extract(ctx, "/dest"); !errors.Is(err, context.Canceled) {
		t.Errorf("Extract() error = %v, want context.Canceled", err)
	}
}
