// Package sahtype holds the archive tree types shared by the decoder,
// the reader and the public API.
package sahtype

import "strings"

// RootName is the label given to the root folder. The header stream does
// not carry a name for it.
const RootName = "data"

// File is the location of one archived file inside the data blob.
type File struct {
	// Name is the file name with trailing NUL padding removed.
	Name string

	// Offset is the byte offset in the data blob where the content begins.
	Offset uint64

	// Length is the content size in bytes. The header stores it as a u32.
	Length uint64
}

// Folder is a virtual directory. Files and Folders keep the order in
// which they appear in the header.
type Folder struct {
	Name    string
	Files   []*File
	Folders []*Folder
}

// FindFile returns the first direct file whose name matches name
// case-insensitively.
func (f *Folder) FindFile(name string) (*File, bool) {
	for _, file := range f.Files {
		if strings.EqualFold(file.Name, name) {
			return file, true
		}
	}
	return nil, false
}

// FindFolder returns the first direct subfolder whose name matches name
// case-insensitively.
func (f *Folder) FindFolder(name string) (*Folder, bool) {
	for _, sub := range f.Folders {
		if strings.EqualFold(sub.Name, name) {
			return sub, true
		}
	}
	return nil, false
}

// CountFiles returns the number of files in f and all of its descendants.
func (f *Folder) CountFiles() int {
	n := len(f.Files)
	for _, sub := range f.Folders {
		n += sub.CountFiles()
	}
	return n
}

// CountEntries returns the number of files and folders below f, not
// counting f itself.
func (f *Folder) CountEntries() int {
	n := len(f.Files) + len(f.Folders)
	for _, sub := range f.Folders {
		n += sub.CountEntries()
	}
	return n
}
