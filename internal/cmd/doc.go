// Package cmd provides the command-line interface implementation for drsmap.
//
// This package contains all the subcommand implementations for the drsmap CLI tool.
// It uses the Cobra library for command structure; main runs the root command
// through Fang for styling, version handling and signal cancellation.
//
// The package is organized into the following commands:
//   - root: Main command coordinator and the persistent --config, --log-level,
//     --log-format and --verbose flags
//   - remap: mapfile conversion
//   - copy: archive copy with version tree maintenance
//   - verify: version tree checking
//   - mount: read-only latest view
//   - seed: synthetic archive generation
//
// Each command is implemented as a separate file with its own constructor function
// that returns a *cobra.Command. Settings resolve as built-in default, then config
// file, then DRSMAP_ environment variable, then explicitly set flag.
//
// Commands that process many inputs return report.ErrPartial when some of them
// failed, which main maps to exit status 2.
package cmd
