// Package logging builds the zap logger shared by the drsmap commands.
package logging

import (
	"fmt"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Options selects the logger level and encoding.
type Options struct {
	Level  string
	Format string
	// Verbose forces the debug level.
	Verbose bool
}

// New returns a production zap logger writing to stderr.
func New(opts Options) (*zap.Logger, error) {
	config := zap.NewProductionConfig()

	level := zapcore.InfoLevel
	if opts.Level != "" {
		if err := level.UnmarshalText([]byte(opts.Level)); err != nil {
			return nil, fmt.Errorf("log level %q: %w", opts.Level, err)
		}
	}
	if opts.Verbose {
		level = zapcore.DebugLevel
	}
	config.Level = zap.NewAtomicLevelAt(level)

	switch opts.Format {
	case "", "console":
		config.Encoding = "console"
		config.EncoderConfig = zap.NewDevelopmentEncoderConfig()
	case "json":
		config.Encoding = "json"
	default:
		return nil, fmt.Errorf("log format %q: want console or json", opts.Format)
	}
	config.DisableStacktrace = !opts.Verbose
	config.Sampling = nil

	return config.Build()
}
