package archive

import (
	"fmt"
	"path/filepath"

	"github.com/dendrascience/drsmap/drs"
)

// TreeResult describes what UpdateVersionTree did to a variable directory.
type TreeResult struct {
	VersionDir    string
	LatestTarget  string
	LatestCreated bool
	LatestChanged bool
}

// UpdateVersionTree maintains the version tree of the variable directory varDir for a
// copied file described by f:
//
//	varDir/v<date>/<filename> -> ../<folder>/<variable>_<date>/<filename>
//	varDir/latest             -> v<date> of the newest date seen
//
// latest only moves to a strictly newer date. Two version directories with the same
// date, or a latest pointing at another directory with the same date, fail with
// drs.ErrAmbiguousLatest and leave latest untouched.
//
// Callers that update the same variable concurrently must serialise the calls.
func UpdateVersionTree(ops Ops, varDir string, f drs.Facets) (TreeResult, error) {
	var res TreeResult
	date, err := drs.ParseDate(f.Date)
	if err != nil {
		return res, err
	}
	if f.Filename == "" {
		return res, fmt.Errorf("%w: no filename for %s", drs.ErrMalformedPath, varDir)
	}
	version := drs.VersionName(f.Date)
	res.VersionDir = filepath.Join(varDir, version)

	if err := ops.MkdirAll(res.VersionDir); err != nil {
		return res, err
	}
	if err := ops.Symlink(drs.VersionLinkTarget(f), filepath.Join(res.VersionDir, f.Filename)); err != nil {
		return res, err
	}

	names, err := ops.ReadDir(varDir)
	if err != nil {
		return res, err
	}
	for _, name := range names {
		if name == version || !drs.IsVersion(name) {
			continue
		}
		d, err := drs.VersionDate(name)
		if err != nil {
			continue
		}
		if d.Equal(date) {
			return res, fmt.Errorf("%w: %s and %s in %s share date %s",
				drs.ErrAmbiguousLatest, name, version, varDir, f.Date)
		}
	}

	latest := filepath.Join(varDir, drs.LatestName)
	kind, err := ops.Kind(latest)
	if err != nil {
		return res, err
	}
	switch kind {
	case EntryNone:
		if err := ops.Symlink(version, latest); err != nil {
			return res, err
		}
		res.LatestTarget = version
		res.LatestCreated = true
		return res, nil
	case EntrySymlink:
	default:
		return res, fmt.Errorf("%w: %s is a %s, not a symlink", drs.ErrIOFailure, latest, kind)
	}

	target, err := ops.Readlink(latest)
	if err != nil {
		return res, err
	}
	res.LatestTarget = target
	current := filepath.Base(target)
	currentDate, err := drs.VersionDate(current)
	if err != nil {
		return res, fmt.Errorf("%w: %s points at %q which carries no version date: %v",
			drs.ErrIOFailure, latest, target, err)
	}

	switch {
	case date.After(currentDate):
		if err := ops.Symlink(version, latest); err != nil {
			return res, err
		}
		res.LatestTarget = version
		res.LatestChanged = true
	case date.Equal(currentDate) && current != version:
		return res, fmt.Errorf("%w: %s points at %s, which has the same date as %s",
			drs.ErrAmbiguousLatest, latest, target, version)
	}
	return res, nil
}
