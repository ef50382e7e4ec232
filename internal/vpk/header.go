package vpk

import "fmt"

// Header is the fixed-size header at the start of a directory file.
type Header struct {
	Signature  uint32
	Version    uint32
	TreeLength uint32 // size of the tree that immediately follows the header

	// Version 2 only. Kept verbatim, never interpreted.
	Unknown1     uint32
	FooterLength uint32
	Unknown3     uint32
	Unknown4     uint32
}

// Length returns the encoded size of the header on disk.
func (h *Header) Length() int {
	n, err := HeaderLength(h.Version)
	if err != nil {
		return HeaderV1Length
	}
	return n
}

// DecodeHeader reads a header from c. The signature and version are
// validated; any violation wraps ErrFormat and nothing is returned.
func DecodeHeader(c *Cursor) (*Header, error) {
	h := &Header{}

	var err error
	if h.Signature, err = c.ReadUint32(); err != nil {
		return nil, fmt.Errorf("%w: failed to read signature: %w", ErrFormat, err)
	}
	if h.Signature != Signature {
		return nil, fmt.Errorf("%w: %w: expected 0x%08X, got 0x%08X",
			ErrFormat, ErrInvalidSignature, Signature, h.Signature)
	}

	if h.Version, err = c.ReadUint32(); err != nil {
		return nil, fmt.Errorf("%w: failed to read version: %w", ErrFormat, err)
	}
	if h.Version != 1 && h.Version != 2 {
		return nil, fmt.Errorf("%w: %w: %d", ErrFormat, ErrUnsupportedVersion, h.Version)
	}

	if h.TreeLength, err = c.ReadUint32(); err != nil {
		return nil, fmt.Errorf("%w: failed to read tree length: %w", ErrFormat, err)
	}

	if h.Version == 2 {
		for _, field := range []*uint32{&h.Unknown1, &h.FooterLength, &h.Unknown3, &h.Unknown4} {
			if *field, err = c.ReadUint32(); err != nil {
				return nil, fmt.Errorf("%w: failed to read version 2 header: %w", ErrFormat, err)
			}
		}
	}

	return h, nil
}

// Encode serializes a version 1 header. Writing version 2 is not supported.
func (h *Header) Encode() ([]byte, error) {
	if h.Version != 1 {
		return nil, fmt.Errorf("%w: cannot encode header: %w: %d",
			ErrUnsupportedOperation, ErrUnsupportedVersion, h.Version)
	}

	c := NewCursor(make([]byte, 0, HeaderV1Length))
	c.WriteUint32(Signature)
	c.WriteUint32(h.Version)
	c.WriteUint32(h.TreeLength)
	return c.Bytes(), nil
}
