package vpk

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
)

// Cursor reads and writes little-endian values sequentially over an in-memory
// buffer. Reads never go past the end of the buffer; writes grow it.
type Cursor struct {
	buf []byte
	pos int
}

// NewCursor returns a cursor positioned at the start of buf.
func NewCursor(buf []byte) *Cursor {
	return &Cursor{buf: buf}
}

// Pos returns the current position.
func (c *Cursor) Pos() int { return c.pos }

// Len returns the length of the underlying buffer.
func (c *Cursor) Len() int { return len(c.buf) }

// Remaining returns the number of unread bytes.
func (c *Cursor) Remaining() int { return len(c.buf) - c.pos }

// Bytes returns the underlying buffer.
func (c *Cursor) Bytes() []byte { return c.buf }

func (c *Cursor) next(n int) ([]byte, error) {
	if n < 0 || c.Remaining() < n {
		return nil, fmt.Errorf("need %d bytes at offset %d, have %d: %w",
			n, c.pos, c.Remaining(), io.ErrUnexpectedEOF)
	}
	b := c.buf[c.pos : c.pos+n]
	c.pos += n
	return b, nil
}

// ReadUint16 reads a little-endian uint16.
func (c *Cursor) ReadUint16() (uint16, error) {
	b, err := c.next(2)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint16(b), nil
}

// ReadUint32 reads a little-endian uint32.
func (c *Cursor) ReadUint32() (uint32, error) {
	b, err := c.next(4)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint32(b), nil
}

// ReadCString reads a NUL-terminated string and consumes the terminator.
// The returned string does not include the NUL.
func (c *Cursor) ReadCString() (string, error) {
	end := bytes.IndexByte(c.buf[c.pos:], 0)
	if end < 0 {
		return "", fmt.Errorf("unterminated string at offset %d: %w", c.pos, io.ErrUnexpectedEOF)
	}
	s := string(c.buf[c.pos : c.pos+end])
	c.pos += end + 1
	return s, nil
}

// Skip advances the position by n bytes.
func (c *Cursor) Skip(n int) error {
	_, err := c.next(n)
	return err
}

// reserve makes room for n bytes at the current position and returns them.
func (c *Cursor) reserve(n int) []byte {
	if need := c.pos + n; need > len(c.buf) {
		if need > cap(c.buf) {
			grown := make([]byte, len(c.buf), max(need, 2*cap(c.buf)))
			copy(grown, c.buf)
			c.buf = grown
		}
		c.buf = c.buf[:need]
	}
	b := c.buf[c.pos : c.pos+n]
	c.pos += n
	return b
}

// WriteUint16 writes a little-endian uint16.
func (c *Cursor) WriteUint16(v uint16) {
	binary.LittleEndian.PutUint16(c.reserve(2), v)
}

// WriteUint32 writes a little-endian uint32.
func (c *Cursor) WriteUint32(v uint32) {
	binary.LittleEndian.PutUint32(c.reserve(4), v)
}

// WriteBytes writes b verbatim.
func (c *Cursor) WriteBytes(b []byte) {
	copy(c.reserve(len(b)), b)
}

// WriteCString writes s followed by a NUL byte. Strings that contain a NUL
// cannot be read back and are rejected.
func (c *Cursor) WriteCString(s string) error {
	if i := bytes.IndexByte([]byte(s), 0); i >= 0 {
		return fmt.Errorf("string %q contains NUL at index %d", s, i)
	}
	b := c.reserve(len(s) + 1)
	copy(b, s)
	b[len(s)] = 0
	return nil
}
