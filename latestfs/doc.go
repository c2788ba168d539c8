// Package latestfs implements a read-only FUSE view of a DRS archive that hides
// version history.
//
// The view mirrors the archive tree, except that a variable directory, one
// holding a "latest" link, lists the files of the version latest points at in
// place of its files/, v<date>/ and latest entries. Links are followed and
// dangling ones are hidden, so every visible entry is readable.
//
// The main entry point is New() which creates the filesystem; Mount() serves it
// with the bazil.org/fuse library.
package latestfs
