package sah

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
)

// Default file names for SAH archives.
const (
	DefaultHeaderName = "data.sah"
	DefaultDataName   = "data.saf"
)

// fileSource wraps *os.File to implement ByteSource.
// Size and SourceID stat the file on each call, so a data file truncated or
// rewritten in place is noticed at read time and never matches cache
// entries made from its old content.
type fileSource struct {
	file    *os.File
	absPath string
}

// newFileSource creates a fileSource from an open file.
func newFileSource(f *os.File) (*fileSource, error) {
	if _, err := f.Stat(); err != nil {
		return nil, fmt.Errorf("stat data file: %w", err)
	}
	absPath, err := filepath.Abs(f.Name())
	if err != nil {
		absPath = f.Name()
	}
	return &fileSource{file: f, absPath: absPath}, nil
}

// ReadAt implements io.ReaderAt.
func (s *fileSource) ReadAt(p []byte, off int64) (int, error) {
	return s.file.ReadAt(p, off)
}

// Size returns the current size of the file.
func (s *fileSource) Size() (int64, error) {
	info, err := s.file.Stat()
	if err != nil {
		return 0, fmt.Errorf("stat data file: %w", err)
	}
	return info.Size(), nil
}

// SourceID identifies the file's current content by path, size and
// modification time. If the file cannot be stat'ed the path alone is used;
// the following bounds check then fails the read anyway.
func (s *fileSource) SourceID() string {
	info, err := s.file.Stat()
	if err != nil {
		return "file:" + s.absPath
	}
	return fmt.Sprintf("file:%s:%d:%d", s.absPath, info.Size(), info.ModTime().UnixNano())
}

// ArchiveFile wraps an Archive with its underlying data file handle.
// Close must be called to release file resources.
type ArchiveFile struct {
	*Archive
	dataFile *os.File
}

// Close closes the underlying data file.
func (af *ArchiveFile) Close() error {
	if af.dataFile == nil {
		return nil
	}
	err := af.dataFile.Close()
	af.dataFile = nil
	return err
}

// Open opens an archive from header and data files.
//
// The header file is read and decoded in full; the data file is kept open
// for random access. If the header cannot be decoded the data file is
// closed and no archive is returned. The returned ArchiveFile must be
// closed to release file resources.
func Open(headerPath, dataPath string, opts ...Option) (*ArchiveFile, error) {
	headerData, err := os.ReadFile(headerPath) //nolint:gosec // User-provided path is intentional
	if err != nil {
		return nil, fmt.Errorf("read header file: %w", err)
	}

	dataFile, err := os.Open(dataPath) //nolint:gosec // User-provided path is intentional
	if err != nil {
		return nil, fmt.Errorf("open data file: %w", err)
	}

	source, err := newFileSource(dataFile)
	if err != nil {
		dataFile.Close()
		return nil, err
	}

	a, err := New(bytes.NewReader(headerData), source, opts...)
	if err != nil {
		dataFile.Close()
		return nil, fmt.Errorf("decode %s: %w", headerPath, err)
	}

	return &ArchiveFile{
		Archive:  a,
		dataFile: dataFile,
	}, nil
}

// OpenDir opens data.sah and data.saf from dir.
func OpenDir(dir string, opts ...Option) (*ArchiveFile, error) {
	return Open(filepath.Join(dir, DefaultHeaderName), filepath.Join(dir, DefaultDataName), opts...)
}

// Interface compliance for fileSource.
var _ ByteSource = (*fileSource)(nil)
