// Package archive copies CMIP5 archives into new DRS trees and maintains their
// version directories.
//
// Each variable directory of a produced tree has the shape:
//
//	<variable dir>/
//	  files/<variable>_<date>/<filename>   physical copies
//	  v<date>/<filename>                   -> ../files/<variable>_<date>/<filename>
//	  latest                               -> v<newest date>
//
// Copier walks a source tree with a bounded worker pool, copies files whose content
// changed and calls UpdateVersionTree under a per-variable lock, so latest always
// ends up at the newest date whatever order the files arrive in. Verify checks an
// existing tree for stale or ambiguous latest links and dangling version links.
//
// All filesystem mutation goes through Ops. RealOps writes to disk; DryRunOps only
// logs and remembers what it would have done.
package archive
