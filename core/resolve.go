package sah

import (
	"io/fs"
	"strings"
)

// ResolveFile returns the file at path.
//
// Segments are matched case-insensitively against the tree, starting at the
// root. With the default legacy walk, each segment is first compared with
// the current folder's files and a match is returned immediately, even if
// segments remain; otherwise a matching subfolder is entered, and a segment
// matching neither is skipped. See WithStrictPaths for full-path matching.
//
// The returned File points into the archive tree and must not be modified.
func (a *Archive) ResolveFile(path string) (*File, error) {
	segments := Segments(path)
	var (
		f  *File
		ok bool
	)
	if a.strictPaths {
		f, ok = resolveFileStrict(a.root, segments)
	} else {
		f, ok = resolveFileLegacy(a.root, segments)
	}
	if !ok {
		return nil, &fs.PathError{Op: "resolve", Path: path, Err: ErrPathNotFound}
	}
	return f, nil
}

// ResolveFolder returns the folder at path. "/", "" and "." return the root.
//
// With the default legacy walk, matching subfolders are entered and other
// segments are skipped; the walk succeeds only if the folder reached has the
// same name (case-insensitively) as the final segment. See WithStrictPaths
// for full-path matching.
func (a *Archive) ResolveFolder(path string) (*Folder, error) {
	if isRootPath(path) {
		return a.root, nil
	}
	segments := Segments(path)
	var (
		folder *Folder
		ok     bool
	)
	if a.strictPaths {
		folder, ok = resolveFolderStrict(a.root, segments)
	} else {
		folder, ok = resolveFolderLegacy(a.root, segments)
	}
	if !ok {
		return nil, &fs.PathError{Op: "resolve", Path: path, Err: ErrPathNotFound}
	}
	return folder, nil
}

func resolveFileLegacy(root *Folder, segments []string) (*File, bool) {
	folder := root
	for _, seg := range segments {
		if f, ok := folder.FindFile(seg); ok {
			return f, true
		}
		if sub, ok := folder.FindFolder(seg); ok {
			folder = sub
		}
	}
	return nil, false
}

func resolveFolderLegacy(root *Folder, segments []string) (*Folder, bool) {
	folder := root
	last := ""
	for _, seg := range segments {
		if sub, ok := folder.FindFolder(seg); ok {
			folder = sub
		}
		last = seg
	}
	if strings.EqualFold(folder.Name, last) {
		return folder, true
	}
	return nil, false
}

func resolveFileStrict(root *Folder, segments []string) (*File, bool) {
	if len(segments) == 0 {
		return nil, false
	}
	folder, ok := resolveFolderStrict(root, segments[:len(segments)-1])
	if !ok {
		return nil, false
	}
	return folder.FindFile(segments[len(segments)-1])
}

func resolveFolderStrict(root *Folder, segments []string) (*Folder, bool) {
	folder := root
	for _, seg := range segments {
		sub, ok := folder.FindFolder(seg)
		if !ok {
			return nil, false
		}
		folder = sub
	}
	return folder, true
}

// lookup finds the entry at a valid fs path using strict matching,
// regardless of the archive's resolver mode. Exactly one of the results is
// non-nil on success.
func (a *Archive) lookup(name string) (*File, *Folder, bool) {
	if name == "." {
		return nil, a.root, true
	}
	segments := Segments(name)
	parent, ok := resolveFolderStrict(a.root, segments[:len(segments)-1])
	if !ok {
		return nil, nil, false
	}
	last := segments[len(segments)-1]
	if f, ok := parent.FindFile(last); ok {
		return f, nil, true
	}
	if sub, ok := parent.FindFolder(last); ok {
		return nil, sub, true
	}
	return nil, nil, false
}
