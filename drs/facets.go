package drs

import (
	"fmt"
	"strings"
)

// Facet names understood by layouts and destination templates.
const (
	FacetProject    = "project"
	FacetProduct    = "product"
	FacetInstitute  = "institute"
	FacetModel      = "model"
	FacetExperiment = "experiment"
	FacetFrequency  = "frequency"
	FacetRealm      = "realm"
	FacetTable      = "table"
	FacetEnsemble   = "ensemble"
	FacetVariable   = "variable"
	FacetVersion    = "version"
	FacetFilename   = "filename"
	FacetFolder     = "folder"
	FacetDate       = "date"
)

// IdentifierFacets is the order of the nine components of a CMIP5 dataset identifier.
var IdentifierFacets = []string{
	FacetProject,
	FacetProduct,
	FacetInstitute,
	FacetModel,
	FacetExperiment,
	FacetFrequency,
	FacetRealm,
	FacetTable,
	FacetEnsemble,
}

// Facets holds the semantic components of a dataset identifier or archive path.
// Folder and Date only appear in archive layouts: Folder is the physical files
// directory and Date the YYYYMMDD stamp of the data.
type Facets struct {
	Project    string `json:"project,omitempty" yaml:"project,omitempty"`
	Product    string `json:"product,omitempty" yaml:"product,omitempty"`
	Institute  string `json:"institute,omitempty" yaml:"institute,omitempty"`
	Model      string `json:"model,omitempty" yaml:"model,omitempty"`
	Experiment string `json:"experiment,omitempty" yaml:"experiment,omitempty"`
	Frequency  string `json:"frequency,omitempty" yaml:"frequency,omitempty"`
	Realm      string `json:"realm,omitempty" yaml:"realm,omitempty"`
	Table      string `json:"table,omitempty" yaml:"table,omitempty"`
	Ensemble   string `json:"ensemble,omitempty" yaml:"ensemble,omitempty"`
	Variable   string `json:"variable,omitempty" yaml:"variable,omitempty"`
	Version    string `json:"version,omitempty" yaml:"version,omitempty"`
	Filename   string `json:"filename,omitempty" yaml:"filename,omitempty"`
	Folder     string `json:"folder,omitempty" yaml:"folder,omitempty"`
	Date       string `json:"date,omitempty" yaml:"date,omitempty"`
}

func (f *Facets) field(name string) (*string, bool) {
	switch name {
	case FacetProject:
		return &f.Project, true
	case FacetProduct:
		return &f.Product, true
	case FacetInstitute:
		return &f.Institute, true
	case FacetModel:
		return &f.Model, true
	case FacetExperiment:
		return &f.Experiment, true
	case FacetFrequency:
		return &f.Frequency, true
	case FacetRealm:
		return &f.Realm, true
	case FacetTable:
		return &f.Table, true
	case FacetEnsemble:
		return &f.Ensemble, true
	case FacetVariable:
		return &f.Variable, true
	case FacetVersion:
		return &f.Version, true
	case FacetFilename:
		return &f.Filename, true
	case FacetFolder:
		return &f.Folder, true
	case FacetDate:
		return &f.Date, true
	}
	return nil, false
}

// IsFacet reports whether name is a known facet name.
func IsFacet(name string) bool {
	var f Facets
	_, ok := f.field(name)
	return ok
}

// Get returns the value of the named facet.
func (f Facets) Get(name string) (string, error) {
	p, ok := f.field(name)
	if !ok {
		return "", fmt.Errorf("%w: unknown facet %q", ErrMalformedPath, name)
	}
	return *p, nil
}

// Set assigns the named facet.
func (f *Facets) Set(name, value string) error {
	p, ok := f.field(name)
	if !ok {
		return fmt.Errorf("%w: unknown facet %q", ErrMalformedPath, name)
	}
	*p = value
	return nil
}

// VarDate is the physical files subdirectory name, "<variable>_<date>".
func (f Facets) VarDate() string {
	return f.Variable + "_" + f.Date
}

func (f Facets) String() string {
	var parts []string
	for _, name := range allFacets {
		v, _ := f.Get(name)
		if v != "" {
			parts = append(parts, name+"="+v)
		}
	}
	return strings.Join(parts, " ")
}

var allFacets = []string{
	FacetProject,
	FacetProduct,
	FacetInstitute,
	FacetModel,
	FacetExperiment,
	FacetFrequency,
	FacetRealm,
	FacetTable,
	FacetEnsemble,
	FacetVariable,
	FacetVersion,
	FacetFilename,
	FacetFolder,
	FacetDate,
}
