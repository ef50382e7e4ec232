package vpk

import "fmt"

// Signature is the magic number identifying valid VPK directory files.
const Signature uint32 = 0x55AA1234

const (
	// HeaderV1Length is the size in bytes of a version 1 header.
	HeaderV1Length = 12
	// HeaderV2Length is the size in bytes of a version 2 header. Version 2 adds
	// four opaque 32-bit fields after the tree length.
	HeaderV2Length = 28
)

const (
	// EntryTerminator follows the fixed fields of every directory entry.
	EntryTerminator uint16 = 0xFFFF

	// DirectoryArchiveIndex is the archive index meaning "payload lives in the
	// directory file, after the tree".
	DirectoryArchiveIndex uint16 = 0x7FFF

	// entryFieldsLength is checksum(4) + preload(2) + index(2) + offset(4) +
	// length(4) + terminator(2).
	entryFieldsLength = 18

	// EntryBodyLength is the size of an entry as written by EncodeTree: the
	// fixed fields plus the two NUL bytes that close the name and directory
	// levels.
	EntryBodyLength = entryFieldsLength + 2
)

// Placeholder stands for "no value" in the extension, directory and name
// strings of the tree. A directory stored as Placeholder is the archive root,
// not a directory called " ".
const Placeholder = " "

const (
	// DirSuffix is the suffix of a directory file.
	DirSuffix = "_dir.vpk"
	// segmentSuffixFormat is the suffix of segment file N.
	segmentSuffixFormat = "_%03d.vpk"
)

// HeaderLength returns the header size for a format version.
func HeaderLength(version uint32) (int, error) {
	switch version {
	case 1:
		return HeaderV1Length, nil
	case 2:
		return HeaderV2Length, nil
	default:
		return 0, fmt.Errorf("%w: %d", ErrUnsupportedVersion, version)
	}
}
