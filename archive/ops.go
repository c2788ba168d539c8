package archive

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"github.com/dendrascience/drsmap/drs"
	"github.com/google/renameio/v2"
	"go.uber.org/zap"
)

// EntryKind classifies a filesystem entry without following symlinks.
type EntryKind int

const (
	EntryNone EntryKind = iota
	EntryFile
	EntryDir
	EntrySymlink
)

func (k EntryKind) String() string {
	switch k {
	case EntryFile:
		return "file"
	case EntryDir:
		return "directory"
	case EntrySymlink:
		return "symlink"
	default:
		return "none"
	}
}

// Ops is the set of filesystem operations used to build archive trees.
// Every mutation failure wraps drs.ErrIOFailure.
type Ops interface {
	MkdirAll(dir string) error
	// CopyFile copies src to dst, replacing dst.
	CopyFile(src, dst string) error
	// WriteFile writes data to path, replacing any previous content.
	WriteFile(path string, data []byte) error
	// Symlink creates link pointing at target, atomically replacing an existing link.
	Symlink(target, link string) error
	Readlink(link string) (string, error)
	Kind(path string) (EntryKind, error)
	// ReadDir returns the sorted entry names of dir.
	ReadDir(dir string) ([]string, error)
	// SameContent reports whether a and b both exist with identical content.
	SameContent(a, b string) (bool, error)
}

func ioFailure(op, path string, err error) error {
	return fmt.Errorf("%w: %s %s: %w", drs.ErrIOFailure, op, path, err)
}

// RealOps performs operations on the local filesystem.
type RealOps struct {
	Log *zap.Logger
}

// NewRealOps returns RealOps logging through log; a nil log discards messages.
func NewRealOps(log *zap.Logger) *RealOps {
	if log == nil {
		log = zap.NewNop()
	}
	return &RealOps{Log: log}
}

func (o *RealOps) MkdirAll(dir string) error {
	if k, err := o.Kind(dir); err == nil && k == EntryDir {
		return nil
	}
	o.Log.Debug("mkdir", zap.String("dir", dir))
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return ioFailure("mkdir", dir, err)
	}
	return nil
}

func (o *RealOps) CopyFile(src, dst string) error {
	o.Log.Debug("copy", zap.String("source", src), zap.String("dest", dst))
	source, err := os.Open(src)
	if err != nil {
		return ioFailure("open", src, err)
	}
	defer source.Close()
	info, err := source.Stat()
	if err != nil {
		return ioFailure("stat", src, err)
	}

	pending, err := renameio.NewPendingFile(dst,
		renameio.WithTempDir(filepath.Dir(dst)),
		renameio.WithStaticPermissions(info.Mode().Perm()))
	if err != nil {
		return ioFailure("create", dst, err)
	}
	defer pending.Cleanup()

	if _, err = io.Copy(pending, source); err != nil {
		return ioFailure("copy", dst, err)
	}
	if err = pending.CloseAtomicallyReplace(); err != nil {
		return ioFailure("replace", dst, err)
	}
	return nil
}

func (o *RealOps) WriteFile(path string, data []byte) error {
	o.Log.Debug("write", zap.String("path", path), zap.Int("bytes", len(data)))
	if err := renameio.WriteFile(path, data, 0o644, renameio.WithTempDir(filepath.Dir(path))); err != nil {
		return ioFailure("write", path, err)
	}
	return nil
}

func (o *RealOps) Symlink(target, link string) error {
	kind, err := o.Kind(link)
	if err != nil {
		return err
	}
	switch kind {
	case EntryNone:
		o.Log.Debug("symlink", zap.String("link", link), zap.String("target", target))
	case EntrySymlink:
		if current, err := os.Readlink(link); err == nil && current == target {
			return nil
		}
		o.Log.Debug("replace symlink", zap.String("link", link), zap.String("target", target))
	default:
		return ioFailure("symlink", link, fmt.Errorf("refusing to replace %s", kind))
	}
	if err := renameio.Symlink(target, link); err != nil {
		return ioFailure("symlink", link, err)
	}
	return nil
}

func (o *RealOps) Readlink(link string) (string, error) {
	target, err := os.Readlink(link)
	if err != nil {
		return "", ioFailure("readlink", link, err)
	}
	return target, nil
}

func (o *RealOps) Kind(path string) (EntryKind, error) {
	info, err := os.Lstat(path)
	if os.IsNotExist(err) {
		return EntryNone, nil
	}
	if err != nil {
		return EntryNone, ioFailure("lstat", path, err)
	}
	return kindOf(info), nil
}

func (o *RealOps) ReadDir(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, ioFailure("readdir", dir, err)
	}
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		names = append(names, e.Name())
	}
	return names, nil
}

func (o *RealOps) SameContent(a, b string) (bool, error) {
	return sameContent(a, b)
}

func kindOf(info os.FileInfo) EntryKind {
	switch {
	case info.Mode()&os.ModeSymlink != 0:
		return EntrySymlink
	case info.IsDir():
		return EntryDir
	default:
		return EntryFile
	}
}

type overlayEntry struct {
	kind   EntryKind
	target string
}

// DryRunOps reads the real filesystem but never mutates it. Intended mutations are
// logged and recorded in an in-memory overlay, so later decisions of the same run
// see them as done.
type DryRunOps struct {
	Log     *zap.Logger
	real    *RealOps
	mu      sync.Mutex
	overlay map[string]overlayEntry
	actions int
}

// NewDryRunOps returns a DryRunOps logging intended actions through log.
func NewDryRunOps(log *zap.Logger) *DryRunOps {
	if log == nil {
		log = zap.NewNop()
	}
	return &DryRunOps{
		Log:     log,
		real:    NewRealOps(zap.NewNop()),
		overlay: make(map[string]overlayEntry),
	}
}

// Actions returns the number of mutations that would have been performed.
func (o *DryRunOps) Actions() int {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.actions
}

func (o *DryRunOps) record(path string, e overlayEntry) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.overlay[filepath.Clean(path)] = e
	o.actions++
}

func (o *DryRunOps) lookup(path string) (overlayEntry, bool) {
	o.mu.Lock()
	defer o.mu.Unlock()
	e, ok := o.overlay[filepath.Clean(path)]
	return e, ok
}

func (o *DryRunOps) MkdirAll(dir string) error {
	var missing []string
	for d := filepath.Clean(dir); ; d = filepath.Dir(d) {
		k, err := o.Kind(d)
		if err != nil {
			return err
		}
		if k == EntryDir {
			break
		}
		if k != EntryNone {
			return ioFailure("mkdir", d, fmt.Errorf("%s exists", k))
		}
		missing = append(missing, d)
		if filepath.Dir(d) == d {
			break
		}
	}
	if len(missing) == 0 {
		return nil
	}
	o.Log.Info("dry-run: mkdir", zap.String("dir", dir))
	for _, d := range missing {
		o.record(d, overlayEntry{kind: EntryDir})
	}
	return nil
}

func (o *DryRunOps) CopyFile(src, dst string) error {
	if k, err := o.real.Kind(src); err != nil || k == EntryNone {
		return ioFailure("open", src, os.ErrNotExist)
	}
	o.Log.Info("dry-run: copy", zap.String("source", src), zap.String("dest", dst))
	o.record(dst, overlayEntry{kind: EntryFile})
	return nil
}

func (o *DryRunOps) WriteFile(path string, data []byte) error {
	o.Log.Info("dry-run: write", zap.String("path", path), zap.Int("bytes", len(data)))
	o.record(path, overlayEntry{kind: EntryFile})
	return nil
}

func (o *DryRunOps) Symlink(target, link string) error {
	k, err := o.Kind(link)
	if err != nil {
		return err
	}
	if k != EntryNone && k != EntrySymlink {
		return ioFailure("symlink", link, fmt.Errorf("refusing to replace %s", k))
	}
	if k == EntrySymlink {
		if current, err := o.Readlink(link); err == nil && current == target {
			return nil
		}
	}
	o.Log.Info("dry-run: symlink", zap.String("link", link), zap.String("target", target))
	o.record(link, overlayEntry{kind: EntrySymlink, target: target})
	return nil
}

func (o *DryRunOps) Readlink(link string) (string, error) {
	if e, ok := o.lookup(link); ok {
		if e.kind != EntrySymlink {
			return "", ioFailure("readlink", link, fmt.Errorf("%s is not a symlink", e.kind))
		}
		return e.target, nil
	}
	return o.real.Readlink(link)
}

func (o *DryRunOps) Kind(path string) (EntryKind, error) {
	if e, ok := o.lookup(path); ok {
		return e.kind, nil
	}
	return o.real.Kind(path)
}

func (o *DryRunOps) ReadDir(dir string) ([]string, error) {
	seen := make(map[string]bool)
	if k, err := o.real.Kind(dir); err == nil && k == EntryDir {
		names, err := o.real.ReadDir(dir)
		if err != nil {
			return nil, err
		}
		for _, n := range names {
			seen[n] = true
		}
	} else if k, _ := o.Kind(dir); k != EntryDir {
		return nil, ioFailure("readdir", dir, os.ErrNotExist)
	}

	clean := filepath.Clean(dir)
	o.mu.Lock()
	for p := range o.overlay {
		if filepath.Dir(p) == clean {
			seen[filepath.Base(p)] = true
		}
	}
	o.mu.Unlock()

	names := make([]string, 0, len(seen))
	for n := range seen {
		names = append(names, n)
	}
	sort.Strings(names)
	return names, nil
}

func (o *DryRunOps) SameContent(a, b string) (bool, error) {
	if _, ok := o.lookup(b); ok {
		// Planned copies carry the content of their source.
		return false, nil
	}
	return sameContent(a, b)
}
