package header

import (
	"bytes"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/meigma/sah/core/internal/sahtype"
)

// streamOnly hides the Seek method of the wrapped reader.
type streamOnly struct {
	io.Reader
}

func TestCursor_Primitives(t *testing.T) {
	t.Parallel()

	data := []byte{
		0xfe, 0xff, 0xff, 0xff, // int32 -2
		0x01, 0x00, 0x00, 0x80, // uint32
		0x08, 0x07, 0x06, 0x05, 0x04, 0x03, 0x02, 0x01, // uint64
		'a', 'b', 'c',
	}

	for name, r := range map[string]io.Reader{
		"seeker": bytes.NewReader(data),
		"stream": streamOnly{bytes.NewReader(data)},
	} {
		t.Run(name, func(t *testing.T) {
			c, err := newCursor(r)
			require.NoError(t, err)

			i, err := c.readInt32()
			require.NoError(t, err)
			assert.Equal(t, int32(-2), i)

			u, err := c.readUint32()
			require.NoError(t, err)
			assert.Equal(t, uint32(0x80000001), u)

			u64, err := c.readUint64()
			require.NoError(t, err)
			assert.Equal(t, uint64(0x0102030405060708), u64)

			b, err := c.readBytes(3)
			require.NoError(t, err)
			assert.Equal(t, []byte("abc"), b)
			assert.Equal(t, int64(len(data)), c.pos)

			_, err = c.readInt32()
			require.ErrorIs(t, err, sahtype.ErrUnexpectedEOF)
		})
	}
}

func TestCursor_Skip(t *testing.T) {
	t.Parallel()

	data := []byte{0, 0, 0, 0, 0x2a, 0, 0, 0}

	for name, r := range map[string]io.Reader{
		"seeker": bytes.NewReader(data),
		"stream": streamOnly{bytes.NewReader(data)},
	} {
		t.Run(name, func(t *testing.T) {
			c, err := newCursor(r)
			require.NoError(t, err)

			require.NoError(t, c.skip(4))
			v, err := c.readInt32()
			require.NoError(t, err)
			assert.Equal(t, int32(42), v)

			err = c.skip(1)
			require.ErrorIs(t, err, sahtype.ErrUnexpectedEOF)
		})
	}
}

func TestCursor_SeekerStartsAtCurrentPosition(t *testing.T) {
	t.Parallel()

	r := bytes.NewReader([]byte{0xff, 0x07, 0x00, 0x00, 0x00})
	_, err := r.Seek(1, io.SeekStart)
	require.NoError(t, err)

	c, err := newCursor(r)
	require.NoError(t, err)
	left, ok := c.remaining()
	require.True(t, ok)
	assert.Equal(t, int64(4), left)

	v, err := c.readInt32()
	require.NoError(t, err)
	assert.Equal(t, int32(7), v)
}

func TestCursor_ReadBytesChecksRemainingFirst(t *testing.T) {
	t.Parallel()

	c, err := newCursor(bytes.NewReader([]byte("ab")))
	require.NoError(t, err)

	_, err = c.readBytes(1 << 30)
	require.ErrorIs(t, err, sahtype.ErrUnexpectedEOF)
	assert.Equal(t, int64(0), c.pos)
}
