package vpk

import (
	"fmt"
	"math"
	"path"
	"strings"
)

// FileRecord describes one source file on the way into a new archive.
type FileRecord struct {
	Location   string // directory part of the path, Placeholder for the root
	Name       string // base name without extension, Placeholder if empty
	Extension  string // extension without the dot, Placeholder for none
	Checksum   uint32
	Size       int64
	SourcePath string

	// Set by LayoutRecords.
	EntrySize  int
	DataOffset uint32 // relative to the end of the tree
}

// Path returns the logical path the record decodes to.
func (r *FileRecord) Path() string {
	return JoinPath(r.Extension, r.Location, r.Name)
}

// SplitPath splits a slash-separated relative path into the location, name
// and extension strings stored in the tree, substituting Placeholder where a
// part is empty. Paths whose parts would collide with Placeholder or
// terminate a tree level early are rejected.
func SplitPath(rel string) (location, name, extension string, err error) {
	if rel == "" || strings.HasPrefix(rel, "/") || strings.ContainsRune(rel, 0) {
		return "", "", "", fmt.Errorf("%w: %q", ErrUnrepresentablePath, rel)
	}

	location, base := path.Split(rel)
	location = strings.TrimSuffix(location, "/")
	if base == "" {
		return "", "", "", fmt.Errorf("%w: %q has no file name", ErrUnrepresentablePath, rel)
	}
	switch location {
	case "":
		location = Placeholder
	case Placeholder:
		return "", "", "", fmt.Errorf("%w: %q is in a directory named %q", ErrUnrepresentablePath, rel, Placeholder)
	}

	ext := path.Ext(base)
	if len(ext) <= 1 {
		// no extension, or a trailing dot that would encode as an empty string
		if base == Placeholder {
			return "", "", "", fmt.Errorf("%w: file name %q", ErrUnrepresentablePath, base)
		}
		return location, base, Placeholder, nil
	}

	extension = ext[1:]
	if extension == Placeholder {
		return "", "", "", fmt.Errorf("%w: extension of %q is %q", ErrUnrepresentablePath, rel, Placeholder)
	}

	name = strings.TrimSuffix(base, ext)
	switch name {
	case "":
		name = Placeholder
	case Placeholder:
		// would read back as a dotfile
		return "", "", "", fmt.Errorf("%w: file name of %q is %q", ErrUnrepresentablePath, rel, Placeholder)
	}
	return location, name, extension, nil
}

// NewFileRecord builds a record for the file at slash-separated path rel.
func NewFileRecord(rel, sourcePath string, size int64, checksum uint32) (*FileRecord, error) {
	location, name, extension, err := SplitPath(rel)
	if err != nil {
		return nil, err
	}
	if size < 0 || size > math.MaxUint32 {
		return nil, fmt.Errorf("%w: %s is %d bytes", ErrTooLarge, rel, size)
	}
	return &FileRecord{
		Location:   location,
		Name:       name,
		Extension:  extension,
		Checksum:   checksum,
		Size:       size,
		SourcePath: sourcePath,
	}, nil
}

// LayoutRecords assigns EntrySize and DataOffset to every record, in order,
// and returns the length of the encoded tree. Payloads are laid out
// contiguously after the tree in the same order.
func LayoutRecords(records []*FileRecord) (uint32, error) {
	var treeLength, dataOffset uint64

	for _, r := range records {
		r.EntrySize = len(r.Location) + 1 + len(r.Name) + 1 + len(r.Extension) + 1 + EntryBodyLength
		if dataOffset > math.MaxUint32 {
			return 0, fmt.Errorf("%w: data offset of %s is %d", ErrTooLarge, r.Path(), dataOffset)
		}
		r.DataOffset = uint32(dataOffset)

		treeLength += uint64(r.EntrySize)
		dataOffset += uint64(r.Size)
	}
	treeLength++ // closes the extension level

	if treeLength > math.MaxUint32 {
		return 0, fmt.Errorf("%w: tree is %d bytes", ErrTooLarge, treeLength)
	}
	return uint32(treeLength), nil
}

// EncodeTree serializes records laid out by LayoutRecords. Every record gets
// its own extension and directory group, so each is followed by the two NUL
// bytes closing those levels; a final NUL closes the tree.
func EncodeTree(records []*FileRecord) ([]byte, error) {
	size := 1
	for _, r := range records {
		size += r.EntrySize
	}

	c := NewCursor(make([]byte, 0, size))
	for _, r := range records {
		for _, s := range []string{r.Extension, r.Location, r.Name} {
			if err := c.WriteCString(s); err != nil {
				return nil, fmt.Errorf("failed to encode %s: %w", r.Path(), err)
			}
		}
		c.WriteUint32(r.Checksum)
		c.WriteUint16(0)
		c.WriteUint16(DirectoryArchiveIndex)
		c.WriteUint32(r.DataOffset)
		c.WriteUint32(uint32(r.Size))
		c.WriteUint16(EntryTerminator)
		c.WriteBytes([]byte{0, 0})
	}
	c.WriteBytes([]byte{0})

	return c.Bytes(), nil
}
