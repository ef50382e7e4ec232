package vpk

import "fmt"

// DirectoryEntry is the metadata record stored for every file in the tree.
type DirectoryEntry struct {
	Checksum     uint32 // CRC-32 of preload + main payload
	PreloadBytes uint16 // payload bytes stored inline after the record
	ArchiveIndex uint16 // segment number, or DirectoryArchiveIndex
	EntryOffset  uint32 // relative to the end of the tree for DirectoryArchiveIndex, else absolute in the segment
	EntryLength  uint32 // payload bytes excluding preload

	// PreloadOffset is the absolute position in the directory file right after
	// the record's fixed fields. It is derived while decoding, not stored.
	PreloadOffset int64
}

// InDirectory reports whether the main payload lives in the directory file.
func (e *DirectoryEntry) InDirectory() bool {
	return e.ArchiveIndex == DirectoryArchiveIndex
}

// Size returns the total size of the file the entry describes.
func (e *DirectoryEntry) Size() int64 {
	return int64(e.PreloadBytes) + int64(e.EntryLength)
}

// DecodeEntry reads the fixed fields of a directory entry and checks its
// terminator. The inline preload bytes are not consumed.
func DecodeEntry(c *Cursor) (*DirectoryEntry, error) {
	e := &DirectoryEntry{}

	var err error
	if e.Checksum, err = c.ReadUint32(); err != nil {
		return nil, fmt.Errorf("failed to read checksum: %w", err)
	}
	if e.PreloadBytes, err = c.ReadUint16(); err != nil {
		return nil, fmt.Errorf("failed to read preload byte count: %w", err)
	}
	if e.ArchiveIndex, err = c.ReadUint16(); err != nil {
		return nil, fmt.Errorf("failed to read archive index: %w", err)
	}
	if e.EntryOffset, err = c.ReadUint32(); err != nil {
		return nil, fmt.Errorf("failed to read entry offset: %w", err)
	}
	if e.EntryLength, err = c.ReadUint32(); err != nil {
		return nil, fmt.Errorf("failed to read entry length: %w", err)
	}

	terminator, err := c.ReadUint16()
	if err != nil {
		return nil, fmt.Errorf("failed to read terminator: %w", err)
	}
	if terminator != EntryTerminator {
		return nil, fmt.Errorf("%w: terminator 0x%04X at offset %d",
			ErrCorruptEntry, terminator, c.Pos()-2)
	}

	e.PreloadOffset = int64(c.Pos())
	return e, nil
}
