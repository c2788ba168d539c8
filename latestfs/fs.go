package latestfs

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"syscall"

	"bazil.org/fuse"
	"bazil.org/fuse/fs"
	"github.com/dendrascience/drsmap/drs"
	"go.uber.org/zap"
)

// FS is a read-only view of a DRS archive in which every variable directory shows
// the files of its latest version directly.
type FS struct {
	root   string
	log    *zap.Logger
	inodes inodeTable
}

// New returns an FS over the archive at root.
func New(root string, log *zap.Logger) (*FS, error) {
	if log == nil {
		log = zap.NewNop()
	}
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, err
	}
	info, err := os.Stat(abs)
	if err != nil {
		return nil, fmt.Errorf("archive %s: %w", root, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("archive %s is not a directory", root)
	}
	f := &FS{root: abs, log: log}
	// the root directory takes inode 1
	f.inodes.get(abs)
	return f, nil
}

// Root returns the root directory node
func (f *FS) Root() (fs.Node, error) {
	return &Dir{fs: f, path: f.root}, nil
}

// Dir is a directory of the view. path is the real directory it mirrors.
type Dir struct {
	fs   *FS
	path string
}

func (d *Dir) Attr(ctx context.Context, a *fuse.Attr) error {
	info, err := os.Stat(d.path)
	if err != nil {
		return errno(err)
	}
	a.Inode = d.fs.inodes.get(d.path)
	a.Mode = os.ModeDir | 0o555
	a.Mtime = info.ModTime()
	a.Ctime = info.ModTime()
	a.Atime = info.ModTime()
	return nil
}

func (d *Dir) Lookup(ctx context.Context, name string) (fs.Node, error) {
	entries, err := d.entries()
	if err != nil {
		return nil, errno(err)
	}
	e, ok := entries[name]
	if !ok {
		return nil, syscall.ENOENT
	}
	if e.IsDir() {
		return &Dir{fs: d.fs, path: filepath.Join(d.source(), name)}, nil
	}
	return &File{fs: d.fs, path: filepath.Join(d.source(), name)}, nil
}

func (d *Dir) ReadDirAll(ctx context.Context) ([]fuse.Dirent, error) {
	entries, err := d.entries()
	if err != nil {
		return nil, errno(err)
	}
	names := make([]string, 0, len(entries))
	for name := range entries {
		names = append(names, name)
	}
	sort.Strings(names)

	src := d.source()
	dirents := make([]fuse.Dirent, 0, len(names))
	for _, name := range names {
		typ := fuse.DT_File
		if entries[name].IsDir() {
			typ = fuse.DT_Dir
		}
		dirents = append(dirents, fuse.Dirent{
			Inode: d.fs.inodes.get(filepath.Join(src, name)),
			Name:  name,
			Type:  typ,
		})
	}
	return dirents, nil
}

// source is the directory whose entries are shown: the latest version directory for
// a variable directory, the directory itself otherwise.
func (d *Dir) source() string {
	latest := filepath.Join(d.path, drs.LatestName)
	info, err := os.Lstat(latest)
	if err != nil || info.Mode()&os.ModeSymlink == 0 {
		return d.path
	}
	if target, err := os.Stat(latest); err != nil || !target.IsDir() {
		d.fs.log.Debug("unresolvable latest", zap.String("path", latest))
		return d.path
	}
	return latest
}

// entries stats the visible entries of d, following links. Dangling links are
// hidden.
func (d *Dir) entries() (map[string]os.FileInfo, error) {
	src := d.source()
	des, err := os.ReadDir(src)
	if err != nil {
		return nil, err
	}
	out := make(map[string]os.FileInfo, len(des))
	for _, de := range des {
		name := de.Name()
		info, err := os.Stat(filepath.Join(src, name))
		if err != nil {
			d.fs.log.Debug("hiding entry", zap.String("path", filepath.Join(src, name)), zap.Error(err))
			continue
		}
		out[name] = info
	}
	return out, nil
}

// File is a regular file of the view, served from the real file behind any links.
type File struct {
	fs   *FS
	path string
}

func (f *File) Attr(ctx context.Context, a *fuse.Attr) error {
	info, err := os.Stat(f.path)
	if err != nil {
		return errno(err)
	}
	a.Inode = f.fs.inodes.get(f.path)
	a.Mode = info.Mode().Perm() &^ 0o222
	a.Size = uint64(info.Size())
	a.Mtime = info.ModTime()
	a.Ctime = info.ModTime()
	a.Atime = info.ModTime()
	return nil
}

func (f *File) Read(ctx context.Context, req *fuse.ReadRequest, resp *fuse.ReadResponse) error {
	file, err := os.Open(f.path)
	if err != nil {
		return errno(err)
	}
	defer file.Close()

	buf := make([]byte, req.Size)
	n, err := file.ReadAt(buf, req.Offset)
	if err != nil && !errors.Is(err, io.EOF) {
		return errno(err)
	}
	resp.Data = buf[:n]
	return nil
}

func errno(err error) error {
	switch {
	case errors.Is(err, os.ErrNotExist):
		return syscall.ENOENT
	case errors.Is(err, os.ErrPermission):
		return syscall.EACCES
	default:
		return syscall.EIO
	}
}

// inodeTable hands out one stable inode per real path.
type inodeTable struct {
	mu      sync.Mutex
	highest uint64
	byPath  map[string]uint64
}

func (t *inodeTable) get(path string) uint64 {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.byPath == nil {
		t.byPath = make(map[string]uint64)
	}
	if ino, ok := t.byPath[path]; ok {
		return ino
	}
	t.highest++
	t.byPath[path] = t.highest
	return t.highest
}
