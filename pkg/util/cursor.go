package util

import (
	"encoding/hex"
	"errors"
	"strings"
)

var (
	ErrInsufficientData = errors.New("util: insufficient data")
	ErrInvalidWidth     = errors.New("util: invalid integer width")
)

// Cursor reads big-endian values sequentially from a fixed byte slice.
// The offset only moves forward and no read ever goes past the slice end:
// a read that does not fit returns ErrInsufficientData and leaves the offset untouched.
type Cursor struct {
	buf    []byte
	offset int
}

func NewCursor(buf []byte) *Cursor {
	return &Cursor{buf: buf}
}

// ReadUint returns the next n bytes (1 <= n <= 8) as a big-endian unsigned integer.
// Values are exact over the full 64-bit range.
func (c *Cursor) ReadUint(n int) (v uint64, err error) {
	if n < 1 || n > 8 {
		return 0, ErrInvalidWidth
	}
	b, err := c.ReadBytes(n)
	if err != nil {
		return 0, err
	}
	for _, x := range b {
		v = v<<8 | uint64(x)
	}
	return
}

// ReadBytes returns the next n bytes without copying.
func (c *Cursor) ReadBytes(n int) ([]byte, error) {
	if n < 0 || c.Remaining() < n {
		return nil, ErrInsufficientData
	}
	b := c.buf[c.offset : c.offset+n]
	c.offset += n
	return b, nil
}

// ReadHex renders the next n bytes as uppercase hex without separators.
func (c *Cursor) ReadHex(n int) (string, error) {
	b, err := c.ReadBytes(n)
	if err != nil {
		return "", err
	}
	return strings.ToUpper(hex.EncodeToString(b)), nil
}

// ReadASCII maps each of the next n bytes to the code point of the same value (Latin-1).
func (c *Cursor) ReadASCII(n int) (string, error) {
	b, err := c.ReadBytes(n)
	if err != nil {
		return "", err
	}
	return Latin1(b), nil
}

// ReadCString reads up to and including the next NUL byte and returns the text before it.
// An unterminated string consumes the rest of the slice.
func (c *Cursor) ReadCString() string {
	rest := c.buf[c.offset:]
	for i, x := range rest {
		if x == 0 {
			c.offset += i + 1
			return Latin1(rest[:i])
		}
	}
	c.offset = len(c.buf)
	return Latin1(rest)
}

func (c *Cursor) Skip(n int) error {
	_, err := c.ReadBytes(n)
	return err
}

func (c *Cursor) Remaining() int {
	return max(0, len(c.buf)-c.offset)
}

func (c *Cursor) Len() int {
	return len(c.buf)
}

func (c *Cursor) Offset() int {
	return c.offset
}

func (c *Cursor) Finished() bool {
	return c.Remaining() == 0
}

// Latin1 converts bytes to a string one code point per byte, so 0x80-0xFF stay single characters.
func Latin1(b []byte) string {
	var sb strings.Builder
	sb.Grow(len(b))
	for _, x := range b {
		sb.WriteRune(rune(x))
	}
	return sb.String()
}
