package mapfile

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/dendrascience/drsmap/archive"
	"github.com/dendrascience/drsmap/drs"
	"github.com/google/go-cmp/cmp"
)

const (
	histID = "cmip5.output1.INST.MODEL.historical.mon.atmos.Amon.r1i1p1"
	rcpID  = "cmip5.output1.INST.MODEL.rcp45.mon.atmos.Amon.r1i1p1"
)

func mapLine(id, variable, file string) string {
	return fmt.Sprintf("%s | /data/cmip5/output1/v20110101/%s/%s | 1024 | mod_time=1300000000.0 | checksum=abc | checksum_type=MD5",
		id, variable, file)
}

func writeMapfile(t *testing.T, dir string, lines ...string) string {
	t.Helper()
	mdir := filepath.Join(dir, "mapfiles", "cmip5", "output1")
	if err := os.MkdirAll(mdir, 0o755); err != nil {
		t.Fatal(err)
	}
	path := filepath.Join(mdir, histID+".v20110101")
	if err := os.WriteFile(path, []byte(strings.Join(lines, "\n")+"\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestVersion(t *testing.T) {
	tests := []struct {
		path    string
		want    string
		wantErr bool
	}{
		{"/maps/cmip5/" + histID + ".v20110101", "v20110101", false},
		{"x.v1", "v1", false},
		{"noversion", "", true},
		{"/maps/" + histID + ".latest", "", true},
		{"file.v2011a", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			got, err := Version(tt.path)
			if tt.wantErr {
				if !errors.Is(err, drs.ErrMalformedPath) {
					t.Errorf("Expected ErrMalformedPath but got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("Unexpected error: %v", err)
			}
			if got != tt.want {
				t.Errorf("Expected %s but got %s", tt.want, got)
			}
		})
	}
}

func TestRead(t *testing.T) {
	path := filepath.Join(t.TempDir(), "m.v1")
	content := "a 1 2\n\n   \nb 3 4\r\n"
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	lines, blank, err := Read(path)
	if err != nil {
		t.Fatal(err)
	}
	want := []Line{{Number: 1, Text: "a 1 2"}, {Number: 4, Text: "b 3 4"}}
	if diff := cmp.Diff(want, lines); diff != "" {
		t.Errorf("Lines mismatch (-want +got):\n%s", diff)
	}
	if blank != 2 {
		t.Errorf("Expected 2 blank lines but got %d", blank)
	}

	if _, _, err := Read(filepath.Join(t.TempDir(), "missing")); !errors.Is(err, drs.ErrIOFailure) {
		t.Errorf("Expected ErrIOFailure but got %v", err)
	}
}

func TestPartition(t *testing.T) {
	input := []string{
		mapLine(histID, "tas", "tas_1.nc"),
		mapLine(histID, "pr", "pr_1.nc"),
		"cmip6.bad.id | /data/v1/tas/x.nc",
		mapLine(histID, "tas", "tas_2.nc"),
		mapLine(rcpID, "tas", "tas_3.nc"),
		mapLine(histID, "tas", "tas_4.nc"),
		"too few",
	}
	lines := make([]Line, len(input))
	for i, l := range input {
		lines[i] = Line{Number: i + 1, Text: l}
	}

	groups, failures := Partition(lines, drs.NewRemapper())

	var ids []string
	total := 0
	for _, g := range groups {
		ids = append(ids, g.ID)
		total += len(g.Lines)
	}
	wantIDs := []string{
		"cmip5_rt.output1.INST.MODEL.historical.mon.atmos.Amon.r1i1p1.tas",
		"cmip5_rt.output1.INST.MODEL.historical.mon.atmos.Amon.r1i1p1.pr",
		"cmip5_rt.output1.INST.MODEL.rcp45.mon.atmos.Amon.r1i1p1.tas",
	}
	if diff := cmp.Diff(wantIDs, ids); diff != "" {
		t.Errorf("Group order mismatch (-want +got):\n%s", diff)
	}
	if total+len(failures) != len(lines) {
		t.Errorf("Expected every line accounted for: %d grouped + %d failed != %d",
			total, len(failures), len(lines))
	}

	tas := groups[0].Lines
	if len(tas) != 3 {
		t.Fatalf("Expected 3 tas lines but got %d", len(tas))
	}
	for i, file := range []string{"tas_1.nc", "tas_2.nc", "tas_4.nc"} {
		if !strings.Contains(tas[i], file) {
			t.Errorf("Expected line %d to carry %s but got %q", i, file, tas[i])
		}
		if !strings.HasPrefix(tas[i], wantIDs[0]+" | ") {
			t.Errorf("Expected rewritten identifier in %q", tas[i])
		}
	}

	wantFailed := []int{3, 7}
	var gotFailed []int
	for _, f := range failures {
		gotFailed = append(gotFailed, f.Line)
		if !errors.Is(f, drs.ErrMalformedIdentifier) {
			t.Errorf("Expected ErrMalformedIdentifier for line %d but got %v", f.Line, f.Err)
		}
	}
	if diff := cmp.Diff(wantFailed, gotFailed); diff != "" {
		t.Errorf("Failed lines mismatch (-want +got):\n%s", diff)
	}
}

func TestPartitionMalformedPath(t *testing.T) {
	lines := []Line{{Number: 1, Text: histID + " | /data/tas/x.nc"}}
	groups, failures := Partition(lines, drs.NewRemapper())
	if len(groups) != 0 || len(failures) != 1 {
		t.Fatalf("Expected a single failure but got %v %v", groups, failures)
	}
	if !errors.Is(failures[0], drs.ErrMalformedPath) {
		t.Errorf("Expected ErrMalformedPath but got %v", failures[0].Err)
	}
}

func TestOutputDir(t *testing.T) {
	testCases := []struct {
		Root     string
		Path     string
		Expected string
	}{
		{Root: "with_var", Path: "maps/cmip5/output1/x.v1", Expected: filepath.Join("with_var", "maps", "cmip5_rt", "output1")},
		// Only whole segments are renamed.
		{Root: "out", Path: "cmip5x/cmip5/x.v1", Expected: filepath.Join("out", "cmip5x", "cmip5_rt")},
		{Root: "out", Path: "/abs/cmip5/x.v1", Expected: filepath.Join("out", "abs", "cmip5_rt")},
	}
	for _, c := range testCases {
		got, err := OutputDir(c.Root, c.Path, "cmip5", "cmip5_rt")
		if err != nil {
			t.Fatalf("OutputDir(%q): %v", c.Path, err)
		}
		if got != c.Expected {
			t.Errorf("OutputDir(%q) = %s, expected %s", c.Path, got, c.Expected)
		}
	}
}

func TestConvert(t *testing.T) {
	dir := t.TempDir()
	path := writeMapfile(t, dir,
		mapLine(histID, "tas", "tas_Amon_MODEL_hist_r1i1p1_200001-200512.nc"),
		"",
		mapLine(histID, "pr", "pr_Amon_MODEL_hist_r1i1p1_200001-200512.nc"),
		mapLine(histID, "tas", "tas_Amon_MODEL_hist_r1i1p1_200601-201012.nc"),
	)
	out := filepath.Join(dir, "with_var")

	res, err := Convert(archive.NewRealOps(nil), path, Options{OutputRoot: out, Remapper: drs.NewRemapper()}, nil)
	if err != nil {
		t.Fatalf("Convert failed: %v", err)
	}
	if res.Version != "v20110101" || res.Lines != 3 || res.Blank != 1 || len(res.Failures) != 0 {
		t.Errorf("Unexpected result %+v", res)
	}

	outDir := filepath.Join(out, dir, "mapfiles", "cmip5_rt", "output1")
	tasID := "cmip5_rt.output1.INST.MODEL.historical.mon.atmos.Amon.r1i1p1.tas"
	prID := "cmip5_rt.output1.INST.MODEL.historical.mon.atmos.Amon.r1i1p1.pr"
	wantWritten := []string{
		filepath.Join(outDir, tasID+".v20110101"),
		filepath.Join(outDir, prID+".v20110101"),
	}
	if diff := cmp.Diff(wantWritten, res.Written); diff != "" {
		t.Errorf("Written files mismatch (-want +got):\n%s", diff)
	}

	data, err := os.ReadFile(wantWritten[0])
	if err != nil {
		t.Fatal(err)
	}
	got := strings.Split(strings.TrimSuffix(string(data), "\n"), "\n")
	want := []string{
		tasID + " | /data/cmip5/output1/v20110101/tas/tas_Amon_MODEL_hist_r1i1p1_200001-200512.nc | 1024 | mod_time=1300000000.0 | checksum=abc | checksum_type=MD5",
		tasID + " | /data/cmip5/output1/v20110101/tas/tas_Amon_MODEL_hist_r1i1p1_200601-201012.nc | 1024 | mod_time=1300000000.0 | checksum=abc | checksum_type=MD5",
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Partition content mismatch (-want +got):\n%s", diff)
	}

	// A rerun overwrites rather than appends.
	if _, err := Convert(archive.NewRealOps(nil), path, Options{OutputRoot: out, Remapper: drs.NewRemapper()}, nil); err != nil {
		t.Fatal(err)
	}
	again, err := os.ReadFile(wantWritten[0])
	if err != nil {
		t.Fatal(err)
	}
	if string(again) != string(data) {
		t.Errorf("Expected identical content after rerun but got:\n%s", again)
	}
}

func TestConvertDryRun(t *testing.T) {
	dir := t.TempDir()
	path := writeMapfile(t, dir, mapLine(histID, "tas", "tas.nc"))
	out := filepath.Join(dir, "with_var")

	ops := archive.NewDryRunOps(nil)
	res, err := Convert(ops, path, Options{OutputRoot: out, Remapper: drs.NewRemapper()}, nil)
	if err != nil {
		t.Fatal(err)
	}
	if len(res.Written) != 1 {
		t.Errorf("Expected one planned file but got %v", res.Written)
	}
	if _, err := os.Stat(out); !os.IsNotExist(err) {
		t.Errorf("Dry run created %s: %v", out, err)
	}
}

func TestConvertBadName(t *testing.T) {
	path := filepath.Join(t.TempDir(), "mapfile.txt")
	if err := os.WriteFile(path, []byte(mapLine(histID, "tas", "x.nc")), 0o644); err != nil {
		t.Fatal(err)
	}
	_, err := Convert(archive.NewDryRunOps(nil), path, Options{Remapper: drs.NewRemapper()}, nil)
	if !errors.Is(err, drs.ErrMalformedPath) {
		t.Errorf("Expected ErrMalformedPath but got %v", err)
	}
}
