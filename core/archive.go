package sah

import (
	"bytes"
	"fmt"
	"io"
	"io/fs"
	"iter"
	"log/slog"

	"golang.org/x/sync/singleflight"

	"github.com/meigma/sah/core/cache"
	"github.com/meigma/sah/core/internal/file"
	"github.com/meigma/sah/core/internal/header"
	"github.com/meigma/sah/core/internal/sahtype"
)

// Re-export tree types from internal/sahtype for the public API.
type (
	// File is the location of an archived file in the data blob.
	File = sahtype.File

	// Folder is a virtual directory in the archive tree.
	Folder = sahtype.Folder
)

// RootName is the name of the root folder.
const RootName = sahtype.RootName

// Sentinel errors re-exported from internal/sahtype.
var (
	// ErrMalformedHeader is returned when the header signature, a count or
	// a name length is invalid.
	ErrMalformedHeader = sahtype.ErrMalformedHeader

	// ErrUnexpectedEOF is returned when the header is shorter than its
	// contents require.
	ErrUnexpectedEOF = sahtype.ErrUnexpectedEOF

	// ErrPathNotFound is returned when a path does not resolve. It matches
	// fs.ErrNotExist.
	ErrPathNotFound = sahtype.ErrPathNotFound

	// ErrDataOutOfBounds is returned when a file's range extends past the
	// end of the data blob.
	ErrDataOutOfBounds = sahtype.ErrDataOutOfBounds

	// ErrIncompleteRead is returned when the data blob returns fewer bytes
	// than a file's length.
	ErrIncompleteRead = sahtype.ErrIncompleteRead
)

// Interface compliance.
var (
	_ fs.FS         = (*Archive)(nil)
	_ fs.StatFS     = (*Archive)(nil)
	_ fs.ReadFileFS = (*Archive)(nil)
	_ fs.ReadDirFS  = (*Archive)(nil)
)

// ByteSource provides random access to the data blob.
//
// Implementations exist for local files and HTTP range requests. Size is
// called on every read. SourceID must return a stable identifier for the
// underlying content; it scopes cache keys.
type ByteSource interface {
	io.ReaderAt
	Size() (int64, error)
	SourceID() string
}

// Archive is a decoded header tree paired with its data blob.
//
// The tree is immutable after construction. All methods are safe for
// concurrent use.
type Archive struct {
	root          *Folder
	declared      int32
	headerSize    int64
	fileCount     int
	source        ByteSource
	reader        *file.Reader
	strictPaths   bool
	maxDepth      int
	maxNameLength int
	nameDecoder   header.NameDecoder
	cache         cache.Cache        // nil = no caching
	readGroup     singleflight.Group // zero value is valid
	logger        *slog.Logger
}

// log returns the logger, falling back to a discard logger if nil.
func (a *Archive) log() *slog.Logger {
	if a.logger == nil {
		return slog.New(slog.DiscardHandler)
	}
	return a.logger
}

// New decodes a header from r and pairs it with the data source.
//
// The header is read in full before New returns. If decoding fails no
// Archive is returned.
func New(r io.Reader, source ByteSource, opts ...Option) (*Archive, error) {
	a := &Archive{
		source:        source,
		maxDepth:      header.DefaultMaxDepth,
		maxNameLength: header.DefaultMaxNameLength,
	}
	for _, opt := range opts {
		opt(a)
	}

	h, err := header.Decode(r,
		header.WithMaxDepth(a.maxDepth),
		header.WithMaxNameLength(a.maxNameLength),
		header.WithNameDecoder(a.nameDecoder),
	)
	if err != nil {
		return nil, err
	}

	a.root = h.Root
	a.declared = h.DeclaredEntries
	a.headerSize = h.Size
	a.fileCount = h.Root.CountFiles()
	a.reader = file.NewReader(source)

	a.log().Debug("header decoded",
		"bytes", h.Size,
		"files", a.fileCount,
		"declared", h.DeclaredEntries,
	)
	if int(h.DeclaredEntries) != a.fileCount {
		a.log().Warn("declared entry count differs from decoded files",
			"declared", h.DeclaredEntries,
			"files", a.fileCount,
		)
	}
	return a, nil
}

// Root returns the root folder.
func (a *Archive) Root() *Folder {
	return a.root
}

// Len returns the number of files in the archive.
func (a *Archive) Len() int {
	return a.fileCount
}

// DeclaredEntries returns the entry count stored in the header preamble.
// It is informational and may not match Len.
func (a *Archive) DeclaredEntries() int32 {
	return a.declared
}

// HeaderSize returns the number of header bytes decoded.
func (a *Archive) HeaderSize() int64 {
	return a.headerSize
}

// Source returns the data source.
func (a *Archive) Source() ByteSource {
	return a.source
}

// StrictPaths reports whether the resolvers require every path segment to
// match.
func (a *Archive) StrictPaths() bool {
	return a.strictPaths
}

// ReadData returns the content of f.
//
// The range [f.Offset, f.Offset+f.Length) is checked against the data
// blob's current size on every call; a range past the end fails with
// ErrDataOutOfBounds and a short read fails with ErrIncompleteRead. The
// returned slice is newly allocated and owned by the caller.
//
// Without a cache (the default) every call reads from the data blob.
func (a *Archive) ReadData(f *File) ([]byte, error) {
	if f == nil {
		return nil, fmt.Errorf("read: nil file: %w", fs.ErrInvalid)
	}
	if a.cache == nil {
		return a.reader.ReadAll(f)
	}

	// Bounds are still checked against the live blob on a cache hit.
	if err := a.reader.Validate(f); err != nil {
		return nil, err
	}
	key := cache.Key(a.source.SourceID(), f.Offset, f.Length)
	if data, ok := a.cache.Get(key); ok {
		a.log().Debug("data cache hit", "file", f.Name)
		return bytes.Clone(data), nil
	}

	a.log().Debug("data cache miss", "file", f.Name)
	v, err, _ := a.readGroup.Do(key, func() (any, error) {
		if data, ok := a.cache.Get(key); ok {
			return data, nil
		}
		data, err := a.reader.ReadAll(f)
		if err != nil {
			return nil, err
		}
		a.cache.Put(key, data)
		return data, nil
	})
	if err != nil {
		return nil, err
	}
	data, _ := v.([]byte) //nolint:errcheck // type is fixed by the closure above
	return bytes.Clone(data), nil
}

// SectionReader returns a reader over f's range of the data blob, for
// callers that read a file piecewise. The range is checked against the
// blob's current size when the reader is created. The cache is bypassed.
func (a *Archive) SectionReader(f *File) (*io.SectionReader, error) {
	if f == nil {
		return nil, fmt.Errorf("section: nil file: %w", fs.ErrInvalid)
	}
	return a.reader.Section(f)
}

// Files returns an iterator over every file in header order, depth-first,
// paired with its slash-separated path relative to the root.
func (a *Archive) Files() iter.Seq2[string, *File] {
	return FilesUnder(a.root)
}

// FilesUnder returns an iterator over every file below folder, with paths
// relative to folder.
func FilesUnder(folder *Folder) iter.Seq2[string, *File] {
	return func(yield func(string, *File) bool) {
		walkFiles(folder, "", yield)
	}
}

func walkFiles(folder *Folder, prefix string, yield func(string, *File) bool) bool {
	for _, f := range folder.Files {
		if !yield(prefix+f.Name, f) {
			return false
		}
	}
	for _, sub := range folder.Folders {
		if !walkFiles(sub, prefix+sub.Name+"/", yield) {
			return false
		}
	}
	return true
}
