package vpk

import (
	"fmt"
	"strings"
)

// Segment is a byte range in one physical file.
type Segment struct {
	Path   string
	Offset int64
	Length int64
}

// SegmentPath returns the path of segment file index for the directory file
// dirPath, e.g. pak01_dir.vpk -> pak01_003.vpk.
func SegmentPath(dirPath string, index uint16) (string, error) {
	base, ok := strings.CutSuffix(dirPath, DirSuffix)
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrInvalidDirectoryPath, dirPath)
	}
	return base + fmt.Sprintf(segmentSuffixFormat, index), nil
}

// Locate resolves where the payload of e lives. preload is nil when the entry
// has no inline bytes and main is nil when it has no main payload.
func Locate(h *Header, e *DirectoryEntry, dirPath string) (preload, main *Segment, err error) {
	if e.PreloadBytes > 0 {
		preload = &Segment{
			Path:   dirPath,
			Offset: e.PreloadOffset,
			Length: int64(e.PreloadBytes),
		}
	}

	if e.EntryLength == 0 {
		return preload, nil, nil
	}

	if e.InDirectory() {
		main = &Segment{
			Path:   dirPath,
			Offset: int64(h.TreeLength) + int64(h.Length()) + int64(e.EntryOffset),
			Length: int64(e.EntryLength),
		}
		return preload, main, nil
	}

	segmentPath, err := SegmentPath(dirPath, e.ArchiveIndex)
	if err != nil {
		return nil, nil, err
	}
	main = &Segment{
		Path:   segmentPath,
		Offset: int64(e.EntryOffset),
		Length: int64(e.EntryLength),
	}
	return preload, main, nil
}
