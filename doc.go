// Package main provides the drsmap command-line interface.
//
// drsmap reorganises CMIP5 climate data archives into new Data Reference Syntax
// layouts. It rewrites ESGF mapfiles for the CMIP5-RT project, copies CEDA
// fedcheck archives into CMIP6-style trees whose variables carry v<date>
// directories and a "latest" link, and checks or browses those trees.
//
// The main binary supports multiple subcommands:
//   - remap: Split CMIP5 mapfiles into per-variable CMIP5-RT mapfiles
//   - copy: Copy a CMIP5 archive into a versioned destination tree
//   - verify: Check the version trees of a destination archive
//   - mount: Mount a read-only view showing only the latest versions
//   - seed: Generate a synthetic CMIP5 archive for trials
//
// Exit status is 0 on success, 1 on an unrecoverable error and 2 when a run
// completed but some inputs failed.
package main
