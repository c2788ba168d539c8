package version

import (
	"fmt"
	"runtime"
	"runtime/debug"
)

// Set through -ldflags at release time.
var (
	Version = ""
	Commit  = ""
	Date    = ""
)

// Package is the module the binary is built from.
const Package = "drsmap"

// Info describes the running build.
type Info struct {
	Version   string `json:"version" yaml:"version"`
	Commit    string `json:"commit" yaml:"commit"`
	Date      string `json:"date" yaml:"date"`
	GoVersion string `json:"go_version" yaml:"go_version"`
	Package   string `json:"package" yaml:"package"`
}

// Get returns the build information, preferring values set at link time over the
// module build info and falling back to development placeholders.
func Get() Info {
	info := Info{
		Version:   Version,
		Commit:    Commit,
		Date:      Date,
		GoVersion: runtime.Version(),
		Package:   Package,
	}
	if bi, ok := debug.ReadBuildInfo(); ok {
		if info.Version == "" && bi.Main.Version != "" && bi.Main.Version != "(devel)" {
			info.Version = bi.Main.Version
		}
		for _, s := range bi.Settings {
			switch {
			case s.Key == "vcs.revision" && info.Commit == "":
				info.Commit = s.Value
			case s.Key == "vcs.time" && info.Date == "":
				info.Date = s.Value
			}
		}
	}
	if info.Version == "" {
		info.Version = "development"
	}
	if info.Commit == "" {
		info.Commit = "unknown"
	}
	if info.Date == "" {
		info.Date = "unknown"
	}
	return info
}

// ShortCommit is the commit abbreviated to seven characters.
func (i Info) ShortCommit() string {
	if len(i.Commit) > 7 {
		return i.Commit[:7]
	}
	return i.Commit
}

// String formats the version with its commit and build date when known.
func (i Info) String() string {
	if i.Commit == "unknown" {
		return i.Version
	}
	if i.Date == "unknown" {
		return fmt.Sprintf("%s (%s)", i.Version, i.ShortCommit())
	}
	return fmt.Sprintf("%s (%s, built %s)", i.Version, i.ShortCommit(), i.Date)
}
