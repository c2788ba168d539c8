package archive

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/dendrascience/drsmap/drs"
)

// Verify walks a produced archive and checks every variable directory, that is every
// directory holding version directories:
//   - version directories must carry distinct dates (drs.ErrAmbiguousLatest)
//   - latest must be a symlink resolving to the newest version (drs.ErrStaleLatest,
//     drs.ErrIOFailure)
//   - links inside version directories must resolve (drs.ErrIOFailure)
//
// Each healthy variable directory is recorded as succeeded, each finding as failed.
func Verify(ctx context.Context, ops Ops, root string, rec Recorder) error {
	info, err := os.Stat(root)
	if err != nil {
		return fmt.Errorf("root %s: %w", root, err)
	}
	if !info.IsDir() {
		return fmt.Errorf("root %s is not a directory", root)
	}

	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if cerr := ctx.Err(); cerr != nil {
			return cerr
		}
		if err != nil {
			if path == root {
				return err
			}
			rec.Fail(path, ioFailure("walk", path, err))
			return nil
		}
		if !d.IsDir() {
			return nil
		}
		if drs.IsVersion(d.Name()) {
			// checked by its parent
			return filepath.SkipDir
		}
		findings, isVarDir, err := verifyVariableDir(ops, path)
		if err != nil {
			rec.Fail(path, err)
			return nil
		}
		if !isVarDir {
			return nil
		}
		if len(findings) == 0 {
			rec.Success(path)
		}
		for _, f := range findings {
			rec.Fail(path, f)
		}
		return nil
	})
}

func verifyVariableDir(ops Ops, dir string) (findings []error, isVarDir bool, err error) {
	names, err := ops.ReadDir(dir)
	if err != nil {
		return nil, false, err
	}

	var newest time.Time
	var newestName string
	byDate := make(map[time.Time]string)
	for _, name := range names {
		if !drs.IsVersion(name) {
			continue
		}
		if k, err := ops.Kind(filepath.Join(dir, name)); err != nil || k != EntryDir {
			continue
		}
		isVarDir = true
		date, err := drs.VersionDate(name)
		if err != nil {
			findings = append(findings, err)
			continue
		}
		if other, ok := byDate[date]; ok {
			findings = append(findings, fmt.Errorf("%w: %s and %s share date %s",
				drs.ErrAmbiguousLatest, other, name, date.Format(drs.DateLayout)))
		}
		byDate[date] = name
		if date.After(newest) {
			newest, newestName = date, name
		}
		findings = append(findings, verifyVersionLinks(ops, filepath.Join(dir, name))...)
	}
	if !isVarDir {
		return nil, false, nil
	}

	latest := filepath.Join(dir, drs.LatestName)
	kind, err := ops.Kind(latest)
	if err != nil {
		return append(findings, err), true, nil
	}
	switch kind {
	case EntryNone:
		findings = append(findings, fmt.Errorf("%w: %s is missing", drs.ErrIOFailure, latest))
		return findings, true, nil
	case EntrySymlink:
	default:
		findings = append(findings, fmt.Errorf("%w: %s is a %s, not a symlink", drs.ErrIOFailure, latest, kind))
		return findings, true, nil
	}

	target, err := ops.Readlink(latest)
	if err != nil {
		return append(findings, err), true, nil
	}
	if _, err := os.Stat(latest); err != nil {
		findings = append(findings, fmt.Errorf("%w: %s -> %s does not resolve", drs.ErrIOFailure, latest, target))
		return findings, true, nil
	}
	if filepath.Base(target) != newestName {
		findings = append(findings, fmt.Errorf("%w: %s -> %s, newest is %s",
			drs.ErrStaleLatest, latest, target, newestName))
	}
	return findings, true, nil
}

func verifyVersionLinks(ops Ops, versionDir string) []error {
	names, err := ops.ReadDir(versionDir)
	if err != nil {
		return []error{err}
	}
	var findings []error
	for _, name := range names {
		p := filepath.Join(versionDir, name)
		if k, err := ops.Kind(p); err != nil || k != EntrySymlink {
			continue
		}
		if _, err := os.Stat(p); err != nil {
			target, _ := ops.Readlink(p)
			findings = append(findings, fmt.Errorf("%w: %s -> %s does not resolve", drs.ErrIOFailure, p, target))
		}
	}
	return findings
}
