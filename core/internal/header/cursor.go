package header

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"

	"github.com/meigma/sah/core/internal/sahtype"
)

// cursor reads little-endian primitives sequentially from a header stream
// and tracks the stream position for error reporting.
//
// When the underlying reader is also an io.Seeker, skips are relative seeks
// and the remaining length is known up front, which lets length-prefixed
// reads fail before allocating.
type cursor struct {
	r      io.Reader
	seeker io.Seeker
	pos    int64
	size   int64
	buf    [8]byte
}

func newCursor(r io.Reader) (*cursor, error) {
	c := &cursor{r: r, size: -1}
	s, ok := r.(io.Seeker)
	if !ok {
		return c, nil
	}
	start, err := s.Seek(0, io.SeekCurrent)
	if err != nil {
		return nil, fmt.Errorf("header: seek: %w", err)
	}
	end, err := s.Seek(0, io.SeekEnd)
	if err != nil {
		return nil, fmt.Errorf("header: seek: %w", err)
	}
	if _, err := s.Seek(start, io.SeekStart); err != nil {
		return nil, fmt.Errorf("header: seek: %w", err)
	}
	c.seeker = s
	c.size = end - start
	return c, nil
}

// remaining reports how many bytes are left, or false if unknown.
func (c *cursor) remaining() (int64, bool) {
	if c.size < 0 {
		return 0, false
	}
	return c.size - c.pos, true
}

func (c *cursor) short(want int64) error {
	return fmt.Errorf("header offset %d: need %d bytes: %w", c.pos, want, sahtype.ErrUnexpectedEOF)
}

func (c *cursor) readFull(p []byte) error {
	n, err := io.ReadFull(c.r, p)
	if err != nil {
		if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
			short := c.short(int64(len(p)))
			c.pos += int64(n)
			return short
		}
		return fmt.Errorf("header offset %d: %w", c.pos, err)
	}
	c.pos += int64(n)
	return nil
}

// skip advances the cursor by n bytes.
func (c *cursor) skip(n int64) error {
	if c.seeker == nil {
		copied, err := io.CopyN(io.Discard, c.r, n)
		if err != nil {
			if errors.Is(err, io.EOF) {
				short := c.short(n)
				c.pos += copied
				return short
			}
			return fmt.Errorf("header offset %d: %w", c.pos, err)
		}
		c.pos += n
		return nil
	}
	if left, _ := c.remaining(); n > left {
		return c.short(n)
	}
	if _, err := c.seeker.Seek(n, io.SeekCurrent); err != nil {
		return fmt.Errorf("header offset %d: seek: %w", c.pos, err)
	}
	c.pos += n
	return nil
}

func (c *cursor) readInt32() (int32, error) {
	if err := c.readFull(c.buf[:4]); err != nil {
		return 0, err
	}
	return int32(binary.LittleEndian.Uint32(c.buf[:4])), nil //nolint:gosec // signed field by format
}

func (c *cursor) readUint32() (uint32, error) {
	if err := c.readFull(c.buf[:4]); err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint32(c.buf[:4]), nil
}

func (c *cursor) readUint64() (uint64, error) {
	if err := c.readFull(c.buf[:8]); err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint64(c.buf[:8]), nil
}

// readBytes reads exactly n bytes into a new slice.
func (c *cursor) readBytes(n int) ([]byte, error) {
	if left, ok := c.remaining(); ok && int64(n) > left {
		return nil, c.short(int64(n))
	}
	p := make([]byte, n)
	if err := c.readFull(p); err != nil {
		return nil, err
	}
	return p, nil
}
