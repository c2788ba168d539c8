package drs

import (
	"fmt"
	"path/filepath"
	"strings"
)

// Layout anchors.
const (
	// AnchorRoot maps segments after RootDepth leading path segments.
	AnchorRoot = "root"
	// AnchorTail maps the trailing segments of a path.
	AnchorTail = "tail"
)

// Pseudo segment names accepted by layouts besides facet names.
const (
	// SegmentVarDate is a "<variable>_<date>" directory, split at the last underscore.
	SegmentVarDate = "var_date"
	// SegmentSkip ignores the segment.
	SegmentSkip = "-"
)

// Layout is a fixed-depth archive path schema: an ordered list of segment names
// and where the list is anchored in a path.
type Layout struct {
	Name      string   `toml:"name" json:"name" yaml:"name"`
	Anchor    string   `toml:"anchor" json:"anchor" yaml:"anchor"`
	RootDepth int      `toml:"root_depth" json:"root_depth" yaml:"root_depth"`
	Segments  []string `toml:"segments" json:"segments" yaml:"segments"`
}

// MapfileLayout locates version and variable in the data path of a CMIP5 mapfile line,
// e.g. ".../v20110101/tas/tas_Amon_MODEL_historical_r1i1p1_200001-200512.nc".
var MapfileLayout = Layout{
	Name:     "cmip5-mapfile",
	Anchor:   AnchorTail,
	Segments: []string{FacetVersion, FacetVariable, FacetFilename},
}

// FedcheckLayout is the CEDA CMIP5 archive layout below /badc/cmip5/data,
// e.g. "/badc/cmip5/data/cmip5/output1/MOHC/HadGEM2-ES/esmControl/mon/atmos/Amon/r1i1p1/files/tas_20110101/tas.nc".
var FedcheckLayout = Layout{
	Name:      "cmip5-fedcheck",
	Anchor:    AnchorRoot,
	RootDepth: 3,
	Segments: []string{
		FacetProject, FacetProduct, FacetInstitute, FacetModel, FacetExperiment,
		FacetFrequency, FacetRealm, FacetTable, FacetEnsemble,
		FacetFolder, SegmentVarDate, FacetFilename,
	},
}

// BuiltinLayouts are the layouts available without configuration, keyed by name.
var BuiltinLayouts = map[string]Layout{
	MapfileLayout.Name:  MapfileLayout,
	FedcheckLayout.Name: FedcheckLayout,
}

// Validate checks that the layout is well formed.
func (l Layout) Validate() error {
	if len(l.Segments) == 0 {
		return fmt.Errorf("layout %q: no segments", l.Name)
	}
	switch l.Anchor {
	case AnchorRoot, "":
	case AnchorTail:
		if l.RootDepth != 0 {
			return fmt.Errorf("layout %q: root_depth is meaningless for a tail anchor", l.Name)
		}
	default:
		return fmt.Errorf("layout %q: unknown anchor %q", l.Name, l.Anchor)
	}
	if l.RootDepth < 0 {
		return fmt.Errorf("layout %q: negative root_depth", l.Name)
	}
	seen := make(map[string]bool)
	for _, s := range l.Segments {
		if s == SegmentSkip {
			continue
		}
		if s != SegmentVarDate && !IsFacet(s) {
			return fmt.Errorf("layout %q: unknown segment %q", l.Name, s)
		}
		if seen[s] {
			return fmt.Errorf("layout %q: segment %q appears twice", l.Name, s)
		}
		seen[s] = true
	}
	return nil
}

// ParsePathFacets extracts facets from path according to layout. The path depth
// must fit the layout exactly for a root anchor, and be at least the segment count
// for a tail anchor.
func ParsePathFacets(path string, layout Layout) (Facets, error) {
	var f Facets
	parts := SplitPath(path)

	var mapped []string
	switch layout.Anchor {
	case AnchorTail:
		if len(parts) < len(layout.Segments) {
			return f, fmt.Errorf("%w: %q has %d segments, layout %q needs at least %d",
				ErrMalformedPath, path, len(parts), layout.Name, len(layout.Segments))
		}
		mapped = parts[len(parts)-len(layout.Segments):]
	default:
		want := layout.RootDepth + len(layout.Segments)
		if len(parts) != want {
			return f, fmt.Errorf("%w: %q has %d segments, layout %q needs %d",
				ErrMalformedPath, path, len(parts), layout.Name, want)
		}
		mapped = parts[layout.RootDepth:]
	}

	for i, name := range layout.Segments {
		value := mapped[i]
		switch name {
		case SegmentSkip:
			continue
		case SegmentVarDate:
			cut := strings.LastIndex(value, "_")
			if cut <= 0 || cut == len(value)-1 {
				return f, fmt.Errorf("%w: %q is not <variable>_<date>", ErrMalformedPath, value)
			}
			f.Variable = value[:cut]
			f.Date = value[cut+1:]
		default:
			if err := f.Set(name, value); err != nil {
				return f, err
			}
		}
	}

	if f.Version != "" {
		if err := CheckVersion(f.Version); err != nil {
			return f, err
		}
		if f.Date == "" {
			if d, err := VersionDate(f.Version); err == nil {
				f.Date = d.Format(DateLayout)
			}
		}
	}
	if f.Date != "" {
		if _, err := ParseDate(f.Date); err != nil {
			return f, err
		}
		if f.Version == "" {
			f.Version = VersionName(f.Date)
		}
	}
	return f, nil
}

// SplitPath cleans path and splits it into its non-empty segments.
func SplitPath(path string) []string {
	clean := filepath.ToSlash(filepath.Clean(path))
	var parts []string
	for _, p := range strings.Split(clean, "/") {
		if p != "" && p != "." {
			parts = append(parts, p)
		}
	}
	return parts
}

// Depth returns the number of segments of path.
func Depth(path string) int {
	return len(SplitPath(path))
}
