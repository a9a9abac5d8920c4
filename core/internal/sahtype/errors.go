package sahtype

import (
	"errors"
	"fmt"
	"io/fs"
)

var (
	// ErrMalformedHeader is returned when the header has a bad signature or
	// carries a count or length that cannot be valid.
	ErrMalformedHeader = errors.New("sah: malformed header")

	// ErrUnexpectedEOF is returned when the header ends before the format
	// says it should.
	ErrUnexpectedEOF = errors.New("sah: unexpected end of header data")

	// ErrPathNotFound is returned when a path does not resolve to an entry.
	// It matches fs.ErrNotExist.
	ErrPathNotFound = fmt.Errorf("sah: path not found: %w", fs.ErrNotExist)

	// ErrDataOutOfBounds is returned when a file's byte range extends past
	// the end of the data blob.
	ErrDataOutOfBounds = errors.New("sah: data out of bounds")

	// ErrIncompleteRead is returned when the data blob yields fewer bytes
	// than a file's length.
	ErrIncompleteRead = errors.New("sah: incomplete read")
)
