// Package version reports the drsmap build.
//
// Values come, in order of preference, from link-time variables, from the module
// build info embedded by the Go toolchain, and from development placeholders:
//
//	go build -ldflags "-X github.com/dendrascience/drsmap/version.Version=v1.0.0 \
//	  -X github.com/dendrascience/drsmap/version.Commit=abc1234 \
//	  -X github.com/dendrascience/drsmap/version.Date=2024-01-01T00:00:00Z"
//
// The root command passes Get() to fang for --version, and every run report
// records the version that produced it.
package version
