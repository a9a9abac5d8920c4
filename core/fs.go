package sah

import (
	"io"
	"io/fs"
	"slices"
	"strings"
	"time"
)

// Open implements fs.FS.
//
// Names are matched case-insensitively and every element must exist; the
// legacy resolver walk does not apply. "." is the root folder. The file's
// byte range is checked against the data blob when it is opened.
func (a *Archive) Open(name string) (fs.File, error) {
	if !fs.ValidPath(name) {
		return nil, &fs.PathError{Op: "open", Path: name, Err: fs.ErrInvalid}
	}
	f, folder, ok := a.lookup(name)
	if !ok {
		return nil, &fs.PathError{Op: "open", Path: name, Err: ErrPathNotFound}
	}
	if folder != nil {
		return &openDir{folder: folder, name: name}, nil
	}
	section, err := a.reader.Section(f)
	if err != nil {
		return nil, &fs.PathError{Op: "open", Path: name, Err: err}
	}
	return &openFile{file: f, section: section}, nil
}

// Stat implements fs.StatFS.
func (a *Archive) Stat(name string) (fs.FileInfo, error) {
	if !fs.ValidPath(name) {
		return nil, &fs.PathError{Op: "stat", Path: name, Err: fs.ErrInvalid}
	}
	f, folder, ok := a.lookup(name)
	if !ok {
		return nil, &fs.PathError{Op: "stat", Path: name, Err: ErrPathNotFound}
	}
	if folder != nil {
		return &folderInfo{folder: folder, root: name == "."}, nil
	}
	return &fileInfo{file: f}, nil
}

// ReadFile implements fs.ReadFileFS.
func (a *Archive) ReadFile(name string) ([]byte, error) {
	if !fs.ValidPath(name) {
		return nil, &fs.PathError{Op: "readfile", Path: name, Err: fs.ErrInvalid}
	}
	f, folder, ok := a.lookup(name)
	if !ok {
		return nil, &fs.PathError{Op: "readfile", Path: name, Err: ErrPathNotFound}
	}
	if folder != nil {
		return nil, &fs.PathError{Op: "readfile", Path: name, Err: fs.ErrInvalid}
	}
	data, err := a.ReadData(f)
	if err != nil {
		return nil, &fs.PathError{Op: "readfile", Path: name, Err: err}
	}
	return data, nil
}

// ReadDir implements fs.ReadDirFS. Entries are sorted by name.
func (a *Archive) ReadDir(name string) ([]fs.DirEntry, error) {
	if !fs.ValidPath(name) {
		return nil, &fs.PathError{Op: "readdir", Path: name, Err: fs.ErrInvalid}
	}
	_, folder, ok := a.lookup(name)
	if !ok {
		return nil, &fs.PathError{Op: "readdir", Path: name, Err: ErrPathNotFound}
	}
	if folder == nil {
		return nil, &fs.PathError{Op: "readdir", Path: name, Err: fs.ErrInvalid}
	}
	return dirEntries(folder), nil
}

// dirEntries lists folder's subfolders and files sorted by name.
func dirEntries(folder *Folder) []fs.DirEntry {
	entries := make([]fs.DirEntry, 0, len(folder.Files)+len(folder.Folders))
	for _, sub := range folder.Folders {
		entries = append(entries, fs.FileInfoToDirEntry(&folderInfo{folder: sub}))
	}
	for _, f := range folder.Files {
		entries = append(entries, fs.FileInfoToDirEntry(&fileInfo{file: f}))
	}
	slices.SortStableFunc(entries, func(x, y fs.DirEntry) int {
		return strings.Compare(x.Name(), y.Name())
	})
	return entries
}

// openFile is an fs.File over a file's bounded section of the data blob.
type openFile struct {
	file    *File
	section *io.SectionReader
	closed  bool
}

var (
	_ io.ReaderAt = (*openFile)(nil)
	_ io.Seeker   = (*openFile)(nil)
)

func (f *openFile) Stat() (fs.FileInfo, error) {
	return &fileInfo{file: f.file}, nil
}

func (f *openFile) Read(p []byte) (int, error) {
	if f.closed {
		return 0, &fs.PathError{Op: "read", Path: f.file.Name, Err: fs.ErrClosed}
	}
	return f.section.Read(p)
}

func (f *openFile) ReadAt(p []byte, off int64) (int, error) {
	if f.closed {
		return 0, &fs.PathError{Op: "read", Path: f.file.Name, Err: fs.ErrClosed}
	}
	return f.section.ReadAt(p, off)
}

func (f *openFile) Seek(offset int64, whence int) (int64, error) {
	if f.closed {
		return 0, &fs.PathError{Op: "seek", Path: f.file.Name, Err: fs.ErrClosed}
	}
	return f.section.Seek(offset, whence)
}

func (f *openFile) Close() error {
	if f.closed {
		return &fs.PathError{Op: "close", Path: f.file.Name, Err: fs.ErrClosed}
	}
	f.closed = true
	return nil
}

// openDir implements fs.ReadDirFile for a folder.
type openDir struct {
	folder  *Folder
	name    string
	entries []fs.DirEntry
	offset  int
}

func (d *openDir) Read(_ []byte) (int, error) {
	return 0, &fs.PathError{Op: "read", Path: d.name, Err: fs.ErrInvalid}
}

func (d *openDir) Stat() (fs.FileInfo, error) {
	return &folderInfo{folder: d.folder, root: d.name == "."}, nil
}

func (d *openDir) Close() error {
	return nil
}

func (d *openDir) ReadDir(n int) ([]fs.DirEntry, error) {
	if d.entries == nil {
		d.entries = dirEntries(d.folder)
	}
	rest := d.entries[d.offset:]
	if n <= 0 {
		d.offset = len(d.entries)
		return slices.Clone(rest), nil
	}
	if len(rest) == 0 {
		return nil, io.EOF
	}
	n = min(n, len(rest))
	d.offset += n
	return slices.Clone(rest[:n]), nil
}

// fileInfo implements fs.FileInfo for an archived file.
type fileInfo struct {
	file *File
}

func (fi *fileInfo) Name() string       { return fi.file.Name }
func (fi *fileInfo) Size() int64        { return int64(fi.file.Length) } //nolint:gosec // decoded from a u32
func (fi *fileInfo) Mode() fs.FileMode  { return 0o444 }
func (fi *fileInfo) ModTime() time.Time { return time.Time{} }
func (fi *fileInfo) IsDir() bool        { return false }
func (fi *fileInfo) Sys() any           { return fi.file }

// folderInfo implements fs.FileInfo for a folder.
type folderInfo struct {
	folder *Folder
	root   bool
}

func (fi *folderInfo) Name() string {
	if fi.root {
		return "."
	}
	return fi.folder.Name
}
func (fi *folderInfo) Size() int64        { return 0 }
func (fi *folderInfo) Mode() fs.FileMode  { return fs.ModeDir | 0o555 }
func (fi *folderInfo) ModTime() time.Time { return time.Time{} }
func (fi *folderInfo) IsDir() bool        { return true }
func (fi *folderInfo) Sys() any           { return fi.folder }
