package archive

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/dendrascience/drsmap/drs"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// DefaultProject is the project tag of the CMIP6 fedcheck destination.
const DefaultProject = "cmip6"

// Recorder collects per-input outcomes. Implementations must be safe for
// concurrent use.
type Recorder interface {
	Success(input string)
	Skip(input, reason string)
	Fail(input string, err error)
}

// CopyOptions configures a Copier.
type CopyOptions struct {
	// Source and Dest are required and must be existing directories.
	Source string
	Dest   string
	// Layout parses source file paths; its root depth counts segments of the absolute path.
	Layout drs.Layout
	// Project replaces the project facet in the destination.
	Project string
	// Template is the destination variable directory template, drs.DestinationLayout if empty.
	Template []string
	// Include restricts the copy to files whose path relative to Source matches one of
	// these doublestar patterns. Empty means every file.
	Include []string
	// Jobs is the number of files copied in parallel; values below 1 mean 1.
	Jobs int
}

// Copier copies a CMIP5 archive into a new DRS layout and maintains the version
// tree of every variable it touches.
type Copier struct {
	Ops Ops
	Log *zap.Logger

	opts  CopyOptions
	dest  drs.Destination
	locks stripedLocks
}

// NewCopier validates opts and returns a Copier. Both roots must exist and neither
// may contain the other.
func NewCopier(opts CopyOptions, ops Ops, log *zap.Logger) (*Copier, error) {
	if log == nil {
		log = zap.NewNop()
	}
	if ops == nil {
		ops = NewRealOps(log)
	}
	if opts.Source == "" || opts.Dest == "" {
		return nil, errors.New("source and destination roots are required")
	}
	for _, root := range []string{opts.Source, opts.Dest} {
		info, err := os.Stat(root)
		if err != nil {
			return nil, fmt.Errorf("root %s: %w", root, err)
		}
		if !info.IsDir() {
			return nil, fmt.Errorf("root %s is not a directory", root)
		}
	}
	src, err := filepath.Abs(opts.Source)
	if err != nil {
		return nil, err
	}
	opts.Source = src
	realSrc, err := resolveRoot(opts.Source)
	if err != nil {
		return nil, fmt.Errorf("root %s: %w", opts.Source, err)
	}
	realDest, err := resolveRoot(opts.Dest)
	if err != nil {
		return nil, fmt.Errorf("root %s: %w", opts.Dest, err)
	}
	if PathsOverlap(realSrc, realDest) {
		return nil, fmt.Errorf("destination %s overlaps source %s", opts.Dest, opts.Source)
	}
	if err := opts.Layout.Validate(); err != nil {
		return nil, err
	}
	if err := drs.ValidateTemplate(opts.Template); err != nil {
		return nil, err
	}
	for _, p := range opts.Include {
		if !doublestar.ValidatePattern(p) {
			return nil, fmt.Errorf("invalid include pattern %q", p)
		}
	}
	if opts.Project == "" {
		opts.Project = DefaultProject
	}
	if opts.Jobs < 1 {
		opts.Jobs = 1
	}
	return &Copier{
		Ops:  ops,
		Log:  log,
		opts: opts,
		dest: drs.Destination{
			Root:     opts.Dest,
			Strategy: drs.Reconstruct,
			NewTag:   opts.Project,
			Template: opts.Template,
		},
	}, nil
}

// Run walks the source tree and copies every regular file. Per-file failures go to
// rec and never stop the walk. Cancelling ctx stops scheduling new files; files in
// flight are finished and ctx.Err() is returned.
func (c *Copier) Run(ctx context.Context, rec Recorder) error {
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(c.opts.Jobs)

	walkErr := filepath.WalkDir(c.opts.Source, func(path string, d fs.DirEntry, err error) error {
		if cerr := gctx.Err(); cerr != nil {
			return cerr
		}
		if err != nil {
			if path == c.opts.Source {
				return err
			}
			rec.Fail(path, ioFailure("walk", path, err))
			return nil
		}
		if d.IsDir() {
			return nil
		}
		if d.Type()&fs.ModeSymlink != 0 {
			c.Log.Debug("skipping symlink", zap.String("path", path))
			rec.Skip(path, "symlink")
			return nil
		}
		if !c.included(path) {
			rec.Skip(path, "excluded")
			return nil
		}
		g.Go(func() error {
			c.copyOne(path, rec)
			return nil
		})
		return nil
	})

	waitErr := g.Wait()
	if err := ctx.Err(); err != nil {
		return err
	}
	if walkErr != nil {
		return walkErr
	}
	return waitErr
}

func (c *Copier) included(path string) bool {
	if len(c.opts.Include) == 0 {
		return true
	}
	rel, err := filepath.Rel(c.opts.Source, path)
	if err != nil {
		return false
	}
	rel = filepath.ToSlash(rel)
	for _, p := range c.opts.Include {
		if doublestar.MatchUnvalidated(p, rel) {
			return true
		}
	}
	return false
}

func (c *Copier) copyOne(path string, rec Recorder) {
	copied, err := c.CopyFile(path)
	switch {
	case err != nil:
		c.Log.Warn("copy failed", zap.String("input", path), zap.Error(err))
		rec.Fail(path, err)
	case copied:
		rec.Success(path)
	default:
		rec.Skip(path, "unchanged")
	}
}

// CopyFile copies one source file into the destination tree and updates the
// version tree of its variable. It reports whether the file content was copied;
// false means an identical copy was already in place.
func (c *Copier) CopyFile(path string) (bool, error) {
	f, err := drs.ParsePathFacets(path, c.opts.Layout)
	if err != nil {
		return false, err
	}
	if f.Date == "" {
		return false, fmt.Errorf("%w: %s carries no date", drs.ErrMalformedPath, path)
	}
	varDir, err := c.dest.VariableDir(f)
	if err != nil {
		return false, err
	}

	physical := drs.FilePath(varDir, f)
	if err := c.Ops.MkdirAll(filepath.Dir(physical)); err != nil {
		return false, err
	}
	same, err := c.Ops.SameContent(path, physical)
	if err != nil {
		return false, err
	}
	if !same {
		if err := c.Ops.CopyFile(path, physical); err != nil {
			return false, err
		}
	}

	unlock := c.locks.lock(varDir)
	res, err := UpdateVersionTree(c.Ops, varDir, f)
	unlock()
	if err != nil {
		return !same, err
	}
	c.Log.Debug("copied",
		zap.String("source", path),
		zap.String("dest", physical),
		zap.String("version", res.VersionDir),
		zap.String("latest", res.LatestTarget),
		zap.Bool("latest_changed", res.LatestChanged || res.LatestCreated),
	)
	return !same, nil
}
