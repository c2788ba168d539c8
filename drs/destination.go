package drs

import (
	"fmt"
	"path/filepath"
	"strings"
)

// Strategy selects how a destination path is derived from a source path.
type Strategy string

const (
	// Substitute replaces the old project directory name in the source path.
	Substitute Strategy = "substitute"
	// Reconstruct rebuilds the path from the ordered facets.
	Reconstruct Strategy = "reconstruct"
)

// Names of the fixed entries below a destination variable directory.
const (
	DefaultFolder = "files"
	LatestName    = "latest"
)

// DestinationLayout is the CMIP6-style variable directory template used by Reconstruct.
var DestinationLayout = []string{
	FacetProject, FacetProduct, FacetInstitute, FacetModel, FacetExperiment,
	FacetFrequency, FacetRealm, FacetTable, FacetEnsemble, FacetVariable,
}

// Destination computes paths in an output tree.
type Destination struct {
	Root     string
	Strategy Strategy
	// OldTag and NewTag are the project tags swapped by both strategies.
	OldTag string
	NewTag string
	// Template is the ordered facet list used by Reconstruct; DestinationLayout if empty.
	Template []string
}

// ValidateTemplate checks that tmpl names known facets, each at most once.
func ValidateTemplate(tmpl []string) error {
	seen := make(map[string]bool)
	for _, name := range tmpl {
		if !IsFacet(name) {
			return fmt.Errorf("template: unknown facet %q", name)
		}
		if seen[name] {
			return fmt.Errorf("template: facet %q appears twice", name)
		}
		seen[name] = true
	}
	return nil
}

// SubstituteTag replaces every path segment equal to oldTag with newTag.
func SubstituteTag(path, oldTag, newTag string) string {
	if path == "" {
		return path
	}
	parts := strings.Split(filepath.ToSlash(path), "/")
	for i, p := range parts {
		if p == oldTag {
			parts[i] = newTag
		}
	}
	return filepath.FromSlash(strings.Join(parts, "/"))
}

// Path returns the destination of original. With Substitute the project segments of
// original are swapped and the result is placed under Root; with Reconstruct the path
// is the variable directory built from f.
func (d Destination) Path(original string, f Facets) (string, error) {
	switch d.Strategy {
	case Substitute:
		return filepath.Join(d.Root, SubstituteTag(original, d.OldTag, d.NewTag)), nil
	case Reconstruct:
		return d.VariableDir(f)
	default:
		return "", fmt.Errorf("unknown destination strategy %q", d.Strategy)
	}
}

// VariableDir builds the destination directory of a variable from its facets.
func (d Destination) VariableDir(f Facets) (string, error) {
	tmpl := d.Template
	if len(tmpl) == 0 {
		tmpl = DestinationLayout
	}
	if d.NewTag != "" {
		f.Project = d.NewTag
	}
	parts := []string{d.Root}
	for _, name := range tmpl {
		v, err := f.Get(name)
		if err != nil {
			return "", err
		}
		if v == "" {
			return "", fmt.Errorf("%w: facet %s is empty for %s", ErrMalformedPath, name, f.Filename)
		}
		parts = append(parts, v)
	}
	return filepath.Join(parts...), nil
}

// FilePath is the physical location of a copied file below its variable directory,
// "<folder>/<variable>_<date>/<filename>".
func FilePath(varDir string, f Facets) string {
	return filepath.Join(varDir, folderOf(f), f.VarDate(), f.Filename)
}

// VersionLinkTarget is the relative target of the link inside a version directory.
func VersionLinkTarget(f Facets) string {
	return filepath.Join("..", folderOf(f), f.VarDate(), f.Filename)
}

func folderOf(f Facets) string {
	if f.Folder == "" {
		return DefaultFolder
	}
	return f.Folder
}
