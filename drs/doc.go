// Package drs implements the Data Reference Syntax (DRS) rules used to reorganise
// CMIP5 archives into CMIP5-RT and CMIP6 layouts.
//
// Key Components:
//
// Facets:
//   - Facets holds the named components of a dataset identifier or archive path
//     (project, product, institute, model, experiment, frequency, realm, table,
//     ensemble, variable, version, filename)
//
// Dataset Identifiers:
//   - ParseDatasetID validates nine-component CMIP5 identifiers
//   - RemapIdentifier swaps the project tag and appends the variable
//   - Remapper rewrites whole mapfile lines
//
// Layouts:
//   - Layout describes a fixed-depth path schema anchored at a root depth or at the tail
//   - ParsePathFacets extracts facets and fails with ErrMalformedPath on depth or
//     version mismatches instead of indexing out of range
//
// Destinations:
//   - Destination derives output paths either by substituting the project directory
//     or by rebuilding the path from facets
//
// All failures wrap one of the sentinel errors in errors.go; Kind maps them to the
// names used in run reports.
package drs
