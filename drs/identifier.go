package drs

import (
	"fmt"
	"strings"
)

// Default project tags of the CMIP5 to CMIP5-RT mapfile conversion.
const (
	DefaultSourceTag = "cmip5"
	DefaultTargetTag = "cmip5_rt"
)

// ParseDatasetID splits a dot-delimited CMIP5 dataset identifier into facets.
// The identifier must have exactly nine components and start with sourceTag.
func ParseDatasetID(id, sourceTag string) (Facets, error) {
	var f Facets
	parts := strings.Split(id, ".")
	if len(parts) != len(IdentifierFacets) {
		return f, fmt.Errorf("%w: %q has %d components, want %d",
			ErrMalformedIdentifier, id, len(parts), len(IdentifierFacets))
	}
	if parts[0] != sourceTag {
		return f, fmt.Errorf("%w: %q starts with %q, want %q",
			ErrMalformedIdentifier, id, parts[0], sourceTag)
	}
	for i, name := range IdentifierFacets {
		if parts[i] == "" {
			return f, fmt.Errorf("%w: %q has an empty %s component", ErrMalformedIdentifier, id, name)
		}
		f.Set(name, parts[i])
	}
	return f, nil
}

// FormatDatasetID joins the identifier facets of f with dots.
func FormatDatasetID(f Facets) string {
	parts := make([]string, 0, len(IdentifierFacets))
	for _, name := range IdentifierFacets {
		v, _ := f.Get(name)
		parts = append(parts, v)
	}
	return strings.Join(parts, ".")
}

// RemapIdentifier swaps the leading project tag of the identifier described by f
// and appends the variable as a tenth component.
func RemapIdentifier(f Facets, oldTag, newTag string) (string, error) {
	if f.Project != oldTag {
		return "", fmt.Errorf("%w: project %q, want %q", ErrMalformedIdentifier, f.Project, oldTag)
	}
	if f.Variable == "" {
		return "", fmt.Errorf("%w: no variable to append to %q", ErrMalformedIdentifier, FormatDatasetID(f))
	}
	f.Project = newTag
	return FormatDatasetID(f) + "." + f.Variable, nil
}

// Remapper rewrites mapfile lines from one project tag to another.
type Remapper struct {
	SourceTag string
	TargetTag string
	// Layout locates the version and variable inside the data path field.
	Layout Layout
}

// NewRemapper returns a Remapper for the CMIP5 to CMIP5-RT conversion.
func NewRemapper() Remapper {
	return Remapper{
		SourceTag: DefaultSourceTag,
		TargetTag: DefaultTargetTag,
		Layout:    MapfileLayout,
	}
}

// RemapLine rewrites one mapfile line. Field 0 is the dataset identifier and
// field 2 the data file path; the variable comes from the path. It returns the
// new identifier and the rewritten line, fields joined by single spaces.
func (r Remapper) RemapLine(line string) (newID, newLine string, err error) {
	fields := strings.Fields(line)
	if len(fields) < 3 {
		return "", "", fmt.Errorf("%w: line has %d fields, want at least 3", ErrMalformedIdentifier, len(fields))
	}
	f, err := ParseDatasetID(fields[0], r.SourceTag)
	if err != nil {
		return "", "", err
	}
	pf, err := ParsePathFacets(fields[2], r.Layout)
	if err != nil {
		return "", "", err
	}
	f.Variable = pf.Variable
	newID, err = RemapIdentifier(f, r.SourceTag, r.TargetTag)
	if err != nil {
		return "", "", err
	}
	fields[0] = newID
	return newID, strings.Join(fields, " "), nil
}
