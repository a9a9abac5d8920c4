// Package file reads archived file content from the data blob.
package file

import (
	"errors"
	"fmt"
	"io"

	"github.com/meigma/sah/core/internal/sahtype"
	"github.com/meigma/sah/core/internal/sizing"
)

// ByteSource provides random access to the data blob.
//
// Size is queried on every read so that a blob replaced or truncated after
// the archive was opened is detected.
type ByteSource interface {
	io.ReaderAt
	Size() (int64, error)
}

// Reader extracts file content from a ByteSource.
//
// Reads go through io.ReaderAt, so positioning and reading happen in one
// call and a Reader is safe for concurrent use.
type Reader struct {
	source ByteSource
}

// NewReader creates a Reader for the given source.
func NewReader(source ByteSource) *Reader {
	return &Reader{source: source}
}

// ReadAll returns a newly allocated copy of the file's bytes.
func (r *Reader) ReadAll(f *sahtype.File) ([]byte, error) {
	offset, length, err := r.checkedRange(f)
	if err != nil {
		return nil, err
	}

	buf := make([]byte, length)
	if length == 0 {
		return buf, nil
	}
	n, err := r.source.ReadAt(buf, offset)
	if n == length {
		return buf, nil
	}
	if err == nil || errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("read %s: got %d of %d bytes at offset %d: %w", f.Name, n, length, offset, sahtype.ErrIncompleteRead)
	}
	return nil, fmt.Errorf("read %s: got %d of %d bytes at offset %d: %w: %w", f.Name, n, length, offset, sahtype.ErrIncompleteRead, err)
}

// Validate checks the file's range against the current source size
// without reading any content.
func (r *Reader) Validate(f *sahtype.File) error {
	_, _, err := r.checkedRange(f)
	return err
}

// Section returns a reader bounded to the file's byte range after checking
// the range against the current source size.
func (r *Reader) Section(f *sahtype.File) (*io.SectionReader, error) {
	offset, length, err := r.checkedRange(f)
	if err != nil {
		return nil, err
	}
	return io.NewSectionReader(r.source, offset, int64(length)), nil
}

func (r *Reader) checkedRange(f *sahtype.File) (offset int64, length int, err error) {
	size, err := r.source.Size()
	if err != nil {
		return 0, 0, fmt.Errorf("read %s: data size: %w", f.Name, err)
	}
	if err := ValidateForRead(f, size); err != nil {
		return 0, 0, fmt.Errorf("read %s: %w", f.Name, err)
	}
	offset, err = sizing.ToInt64(f.Offset, sahtype.ErrDataOutOfBounds)
	if err != nil {
		return 0, 0, fmt.Errorf("read %s: %w", f.Name, err)
	}
	length, err = sizing.ToInt(f.Length, sahtype.ErrDataOutOfBounds)
	if err != nil {
		return 0, 0, fmt.Errorf("read %s: %w", f.Name, err)
	}
	return offset, length, nil
}
