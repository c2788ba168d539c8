package archive

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/dendrascience/drsmap/drs"
)

func tasFacets(date string) drs.Facets {
	return drs.Facets{
		Project:    "cmip5",
		Product:    "output1",
		Institute:  "MOHC",
		Model:      "HadGEM2-ES",
		Experiment: "esmControl",
		Frequency:  "mon",
		Realm:      "atmos",
		Table:      "Amon",
		Ensemble:   "r1i1p1",
		Variable:   "tas",
		Folder:     drs.DefaultFolder,
		Date:       date,
		Version:    drs.VersionName(date),
		Filename:   "tas_Amon_HadGEM2-ES_esmControl_r1i1p1_185912-188411.nc",
	}
}

func readLatest(t *testing.T, varDir string) string {
	t.Helper()
	target, err := os.Readlink(filepath.Join(varDir, drs.LatestName))
	if err != nil {
		t.Fatalf("Failed to read latest: %v", err)
	}
	return target
}

func TestUpdateVersionTreeCreates(t *testing.T) {
	varDir := filepath.Join(t.TempDir(), "tas")
	ops := NewRealOps(nil)
	f := tasFacets("20110101")

	res, err := UpdateVersionTree(ops, varDir, f)
	if err != nil {
		t.Fatalf("UpdateVersionTree failed: %v", err)
	}
	if !res.LatestCreated || res.LatestTarget != "v20110101" {
		t.Errorf("Expected latest to be created at v20110101 but got %+v", res)
	}

	link := filepath.Join(varDir, "v20110101", f.Filename)
	target, err := os.Readlink(link)
	if err != nil {
		t.Fatalf("Expected version link at %s: %v", link, err)
	}
	want := filepath.Join("..", "files", "tas_20110101", f.Filename)
	if target != want {
		t.Errorf("Expected link target %s but got %s", want, target)
	}
	if got := readLatest(t, varDir); got != "v20110101" {
		t.Errorf("Expected latest -> v20110101 but got %s", got)
	}
}

func TestUpdateVersionTreeIdempotent(t *testing.T) {
	varDir := filepath.Join(t.TempDir(), "tas")
	ops := NewRealOps(nil)
	f := tasFacets("20110101")

	if _, err := UpdateVersionTree(ops, varDir, f); err != nil {
		t.Fatal(err)
	}
	res, err := UpdateVersionTree(ops, varDir, f)
	if err != nil {
		t.Fatalf("Second update failed: %v", err)
	}
	if res.LatestCreated || res.LatestChanged {
		t.Errorf("Expected no latest change on rerun but got %+v", res)
	}
	names, err := ops.ReadDir(varDir)
	if err != nil {
		t.Fatal(err)
	}
	if len(names) != 2 {
		t.Errorf("Expected latest and one version dir but got %v", names)
	}
}

func TestUpdateVersionTreeOrder(t *testing.T) {
	orders := map[string][]string{
		"ascending":    {"20100101", "20150101", "20200101"},
		"out of order": {"20100101", "20200101", "20150101"},
		"descending":   {"20200101", "20150101", "20100101"},
	}

	for name, dates := range orders {
		t.Run(name, func(t *testing.T) {
			varDir := filepath.Join(t.TempDir(), "tas")
			ops := NewRealOps(nil)
			for _, d := range dates {
				if _, err := UpdateVersionTree(ops, varDir, tasFacets(d)); err != nil {
					t.Fatalf("Update for %s failed: %v", d, err)
				}
			}
			if got := readLatest(t, varDir); got != "v20200101" {
				t.Errorf("Expected latest -> v20200101 but got %s", got)
			}
			for _, d := range dates {
				if k, _ := ops.Kind(filepath.Join(varDir, "v"+d)); k != EntryDir {
					t.Errorf("Expected version dir v%s but got %s", d, k)
				}
			}
		})
	}
}

func TestUpdateVersionTreeAmbiguous(t *testing.T) {
	varDir := filepath.Join(t.TempDir(), "tas")
	ops := NewRealOps(nil)
	if _, err := UpdateVersionTree(ops, varDir, tasFacets("20110101")); err != nil {
		t.Fatal(err)
	}
	// A second version directory carrying the same date under another name.
	if err := os.Mkdir(filepath.Join(varDir, "v0020110101"), 0o755); err != nil {
		t.Fatal(err)
	}

	_, err := UpdateVersionTree(ops, varDir, tasFacets("20110101"))
	if !errors.Is(err, drs.ErrAmbiguousLatest) {
		t.Fatalf("Expected ErrAmbiguousLatest but got %v", err)
	}
	if got := readLatest(t, varDir); got != "v20110101" {
		t.Errorf("Expected latest untouched but got %s", got)
	}
}

func TestUpdateVersionTreeLatestSameDateOtherName(t *testing.T) {
	varDir := filepath.Join(t.TempDir(), "tas")
	if err := os.MkdirAll(varDir, 0o755); err != nil {
		t.Fatal(err)
	}
	// latest names a version with the same date that has no directory of its own.
	if err := os.Symlink("v0020110101", filepath.Join(varDir, drs.LatestName)); err != nil {
		t.Fatal(err)
	}

	_, err := UpdateVersionTree(NewRealOps(nil), varDir, tasFacets("20110101"))
	if !errors.Is(err, drs.ErrAmbiguousLatest) {
		t.Fatalf("Expected ErrAmbiguousLatest but got %v", err)
	}
	if !strings.Contains(err.Error(), "points at v0020110101") {
		t.Errorf("Expected the latest target in the error, got %v", err)
	}
	if got := readLatest(t, varDir); got != "v0020110101" {
		t.Errorf("Expected latest untouched but got %s", got)
	}
}

func TestUpdateVersionTreeLatestNotSymlink(t *testing.T) {
	varDir := filepath.Join(t.TempDir(), "tas")
	if err := os.MkdirAll(filepath.Join(varDir, drs.LatestName), 0o755); err != nil {
		t.Fatal(err)
	}
	_, err := UpdateVersionTree(NewRealOps(nil), varDir, tasFacets("20110101"))
	if !errors.Is(err, drs.ErrIOFailure) {
		t.Fatalf("Expected ErrIOFailure but got %v", err)
	}
	if k, _ := NewRealOps(nil).Kind(filepath.Join(varDir, drs.LatestName)); k != EntryDir {
		t.Errorf("Expected latest directory to be left alone but got %s", k)
	}
}

func TestUpdateVersionTreeBadInput(t *testing.T) {
	varDir := filepath.Join(t.TempDir(), "tas")
	ops := NewRealOps(nil)

	f := tasFacets("20110101")
	f.Date = "2011"
	if _, err := UpdateVersionTree(ops, varDir, f); !errors.Is(err, drs.ErrMalformedPath) {
		t.Errorf("Expected ErrMalformedPath for a short date but got %v", err)
	}

	f = tasFacets("20110101")
	f.Filename = ""
	if _, err := UpdateVersionTree(ops, varDir, f); !errors.Is(err, drs.ErrMalformedPath) {
		t.Errorf("Expected ErrMalformedPath for a missing filename but got %v", err)
	}
}

func TestDryRunUpdateVersionTree(t *testing.T) {
	varDir := filepath.Join(t.TempDir(), "tas")
	ops := NewDryRunOps(nil)

	for _, d := range []string{"20100101", "20200101", "20150101"} {
		if _, err := UpdateVersionTree(ops, varDir, tasFacets(d)); err != nil {
			t.Fatalf("Dry-run update for %s failed: %v", d, err)
		}
	}
	target, err := ops.Readlink(filepath.Join(varDir, drs.LatestName))
	if err != nil {
		t.Fatal(err)
	}
	if target != "v20200101" {
		t.Errorf("Expected planned latest -> v20200101 but got %s", target)
	}
	if ops.Actions() == 0 {
		t.Error("Expected planned actions")
	}
	if _, err := os.Lstat(varDir); !os.IsNotExist(err) {
		t.Errorf("Dry run must not touch the filesystem, stat gave %v", err)
	}
}
