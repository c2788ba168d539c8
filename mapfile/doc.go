// Package mapfile converts CMIP5 ESGF mapfiles to CMIP5-RT ones.
//
// A mapfile lists one data file per line; the first field is the dataset identifier
// and the third the data path. Conversion appends the variable, taken from the data
// path, to every identifier and splits the mapfile into one file per new identifier,
// named "<identifier>.<version>" and written below an output root that mirrors the
// input directory with the project directory renamed.
package mapfile
