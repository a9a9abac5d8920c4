package file_test

import (
	"errors"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/meigma/sah/core/internal/file"
	"github.com/meigma/sah/core/internal/sahtype"
	"github.com/meigma/sah/core/testutil"
)

type failingSource struct {
	*testutil.MockByteSource
	sizeErr error
	readErr error
}

func (s *failingSource) Size() (int64, error) {
	if s.sizeErr != nil {
		return 0, s.sizeErr
	}
	return s.MockByteSource.Size()
}

func (s *failingSource) ReadAt(p []byte, off int64) (int, error) {
	if s.readErr != nil {
		return 1, s.readErr
	}
	return s.MockByteSource.ReadAt(p, off)
}

func TestReader_ReadAll(t *testing.T) {
	t.Parallel()

	data := testutil.Sequential(300)
	r := file.NewReader(testutil.NewMockByteSource(data))

	tests := []struct {
		name    string
		file    sahtype.File
		want    []byte
		wantErr error
	}{
		{"middle", sahtype.File{Name: "a", Offset: 200, Length: 10}, data[200:210], nil},
		{"ends exactly at blob end", sahtype.File{Name: "b", Offset: 250, Length: 50}, data[250:], nil},
		{"whole blob", sahtype.File{Name: "c", Offset: 0, Length: 300}, data, nil},
		{"empty", sahtype.File{Name: "d", Offset: 300, Length: 0}, []byte{}, nil},
		{"one byte past end", sahtype.File{Name: "e", Offset: 250, Length: 51}, nil, sahtype.ErrDataOutOfBounds},
		{"offset past end", sahtype.File{Name: "f", Offset: 301, Length: 0}, nil, sahtype.ErrDataOutOfBounds},
		{"overflowing range", sahtype.File{Name: "g", Offset: ^uint64(0), Length: 2}, nil, sahtype.ErrDataOutOfBounds},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := r.ReadAll(&tt.file)
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				assert.Contains(t, err.Error(), tt.file.Name)
				assert.Nil(t, got)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestReader_ReadAllReturnsOwnedBuffer(t *testing.T) {
	t.Parallel()

	data := testutil.Sequential(16)
	r := file.NewReader(testutil.NewMockByteSource(data))
	f := &sahtype.File{Name: "x", Offset: 4, Length: 4}

	first, err := r.ReadAll(f)
	require.NoError(t, err)
	first[0] = 0xff

	second, err := r.ReadAll(f)
	require.NoError(t, err)
	assert.Equal(t, byte(4), second[0])
	assert.Equal(t, byte(4), data[4])
}

func TestReader_IncompleteRead(t *testing.T) {
	t.Parallel()

	src := &testutil.ShortSource{
		MockByteSource: testutil.NewMockByteSource(testutil.Sequential(100)),
		ClaimedSize:    200,
	}
	r := file.NewReader(src)

	_, err := r.ReadAll(&sahtype.File{Name: "tail", Offset: 90, Length: 20})
	require.ErrorIs(t, err, sahtype.ErrIncompleteRead)
	assert.Contains(t, err.Error(), "10 of 20")
}

func TestReader_SourceErrors(t *testing.T) {
	t.Parallel()

	sizeErr := errors.New("stat failed")
	r := file.NewReader(&failingSource{
		MockByteSource: testutil.NewMockByteSource(testutil.Sequential(10)),
		sizeErr:        sizeErr,
	})
	_, err := r.ReadAll(&sahtype.File{Name: "a", Length: 1})
	require.ErrorIs(t, err, sizeErr)

	readErr := errors.New("disk on fire")
	r = file.NewReader(&failingSource{
		MockByteSource: testutil.NewMockByteSource(testutil.Sequential(10)),
		readErr:        readErr,
	})
	_, err = r.ReadAll(&sahtype.File{Name: "a", Length: 4})
	require.ErrorIs(t, err, sahtype.ErrIncompleteRead)
	require.ErrorIs(t, err, readErr)
}

func TestReader_Section(t *testing.T) {
	t.Parallel()

	data := testutil.Sequential(64)
	r := file.NewReader(testutil.NewMockByteSource(data))

	sec, err := r.Section(&sahtype.File{Name: "s", Offset: 8, Length: 8})
	require.NoError(t, err)
	got, err := io.ReadAll(sec)
	require.NoError(t, err)
	assert.Equal(t, data[8:16], got)

	_, err = r.Section(&sahtype.File{Name: "s", Offset: 60, Length: 8})
	require.ErrorIs(t, err, sahtype.ErrDataOutOfBounds)
}
