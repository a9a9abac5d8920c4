// Package mount serves a SAH archive as a read-only FUSE filesystem.
//
// Directory lookups are case-insensitive like archive path resolution, while
// listings report names as stored. Entries whose names cannot appear in a
// directory (empty, ".", "..", or containing a slash) are hidden.
package mount

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"strings"
	"syscall"

	"bazil.org/fuse"
	"bazil.org/fuse/fs"

	sah "github.com/meigma/sah/core"
)

// Interface compliance.
var (
	_ fs.FS                 = (*FS)(nil)
	_ fs.Node               = (*Dir)(nil)
	_ fs.NodeStringLookuper = (*Dir)(nil)
	_ fs.HandleReadDirAller = (*Dir)(nil)
	_ fs.Node               = (*File)(nil)
	_ fs.HandleReader       = (*File)(nil)
)

// FS is a read-only filesystem over an archive tree.
//
// Inode numbers are assigned once, in header order, so they are stable for
// the life of the mount.
type FS struct {
	archive *sah.Archive
	logger  *slog.Logger
	folders map[*sah.Folder]uint64
	files   map[*sah.File]uint64
}

// Option configures an FS.
type Option func(*FS)

// WithLogger sets the logger for read failures.
func WithLogger(logger *slog.Logger) Option {
	return func(f *FS) {
		f.logger = logger
	}
}

// NewFS builds a filesystem over archive.
func NewFS(archive *sah.Archive, opts ...Option) *FS {
	f := &FS{
		archive: archive,
		folders: make(map[*sah.Folder]uint64),
		files:   make(map[*sah.File]uint64),
	}
	for _, opt := range opts {
		opt(f)
	}
	next := uint64(1)
	f.assignInodes(archive.Root(), &next)
	return f
}

func (f *FS) assignInodes(folder *sah.Folder, next *uint64) {
	f.folders[folder] = *next
	*next++
	for _, file := range folder.Files {
		f.files[file] = *next
		*next++
	}
	for _, sub := range folder.Folders {
		f.assignInodes(sub, next)
	}
}

func (f *FS) log() *slog.Logger {
	if f.logger == nil {
		return slog.New(slog.DiscardHandler)
	}
	return f.logger
}

// Root returns the archive's root directory.
func (f *FS) Root() (fs.Node, error) {
	return &Dir{fs: f, folder: f.archive.Root()}, nil
}

// Dir is a directory node backed by an archive folder.
type Dir struct {
	fs     *FS
	folder *sah.Folder
}

// Attr reports a read-only directory.
func (d *Dir) Attr(_ context.Context, a *fuse.Attr) error {
	a.Inode = d.fs.folders[d.folder]
	a.Mode = os.ModeDir | 0o555
	return nil
}

// Lookup finds a child by case-insensitive name. Files win over folders
// with the same name.
func (d *Dir) Lookup(_ context.Context, name string) (fs.Node, error) {
	if !visible(name) {
		return nil, syscall.ENOENT
	}
	if file, ok := d.folder.FindFile(name); ok {
		return &File{fs: d.fs, file: file}, nil
	}
	if folder, ok := d.folder.FindFolder(name); ok {
		return &Dir{fs: d.fs, folder: folder}, nil
	}
	return nil, syscall.ENOENT
}

// ReadDirAll lists files then subfolders in header order. Repeated names
// are listed once since only the first is reachable through Lookup.
func (d *Dir) ReadDirAll(_ context.Context) ([]fuse.Dirent, error) {
	dirents := make([]fuse.Dirent, 0, len(d.folder.Files)+len(d.folder.Folders))
	seen := make(map[string]struct{}, cap(dirents))
	add := func(name string, inode uint64, typ fuse.DirentType) {
		if !visible(name) {
			return
		}
		key := strings.ToLower(name)
		if _, ok := seen[key]; ok {
			return
		}
		seen[key] = struct{}{}
		dirents = append(dirents, fuse.Dirent{Inode: inode, Name: name, Type: typ})
	}
	for _, file := range d.folder.Files {
		add(file.Name, d.fs.files[file], fuse.DT_File)
	}
	for _, sub := range d.folder.Folders {
		add(sub.Name, d.fs.folders[sub], fuse.DT_Dir)
	}
	return dirents, nil
}

// File is a read-only file node backed by an archive file record.
type File struct {
	fs   *FS
	file *sah.File
}

// Attr reports the file's length as its size.
func (f *File) Attr(_ context.Context, a *fuse.Attr) error {
	a.Inode = f.fs.files[f.file]
	a.Mode = 0o444
	a.Size = f.file.Length
	return nil
}

// Read serves a ranged read from the data blob.
func (f *File) Read(_ context.Context, req *fuse.ReadRequest, resp *fuse.ReadResponse) error {
	section, err := f.fs.archive.SectionReader(f.file)
	if err != nil {
		f.fs.log().Warn("mount read failed", "file", f.file.Name, "error", err)
		return syscall.EIO
	}
	buf := make([]byte, req.Size)
	n, err := section.ReadAt(buf, req.Offset)
	if err != nil && !errors.Is(err, io.EOF) {
		f.fs.log().Warn("mount read failed", "file", f.file.Name, "offset", req.Offset, "error", err)
		return syscall.EIO
	}
	resp.Data = buf[:n]
	return nil
}

func visible(name string) bool {
	return name != "" && name != "." && name != ".." && !strings.Contains(name, "/")
}

// Serve mounts archive at mountpoint and serves requests until ctx is
// cancelled or the filesystem is unmounted externally.
func Serve(ctx context.Context, archive *sah.Archive, mountpoint string, opts ...Option) error {
	filesystem := NewFS(archive, opts...)
	c, err := fuse.Mount(
		mountpoint,
		fuse.FSName("sah"),
		fuse.Subtype("sah"),
		fuse.ReadOnly(),
	)
	if err != nil {
		return err
	}
	defer c.Close()

	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			if err := fuse.Unmount(mountpoint); err != nil {
				filesystem.log().Warn("unmount failed", "mountpoint", mountpoint, "error", err)
			}
		case <-done:
		}
	}()

	filesystem.log().Info("archive mounted", "mountpoint", mountpoint, "files", archive.Len())
	return fs.Serve(c, filesystem)
}
