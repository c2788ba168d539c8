// Package config loads drsmap settings from a TOML file and DRSMAP_ environment
// variables, in that order of precedence over the built-in defaults.
package config

import (
	"fmt"
	"path/filepath"

	"github.com/BurntSushi/toml"
	"github.com/caarlos0/env/v11"
	"github.com/dendrascience/drsmap/archive"
	"github.com/dendrascience/drsmap/drs"
	"github.com/dendrascience/drsmap/mapfile"
)

// EnvPrefix prefixes every environment variable read by Load.
const EnvPrefix = "DRSMAP_"

// Log formats.
const (
	FormatConsole = "console"
	FormatJSON    = "json"
)

// LogConfig controls logging.
type LogConfig struct {
	Level  string `toml:"level" env:"LEVEL"`
	Format string `toml:"format" env:"FORMAT"`
}

// RemapConfig holds the mapfile conversion settings.
type RemapConfig struct {
	Output    string `toml:"output" env:"OUTPUT"`
	SourceTag string `toml:"source_tag" env:"SOURCE_TAG"`
	TargetTag string `toml:"target_tag" env:"TARGET_TAG"`
	Layout    string `toml:"layout" env:"LAYOUT"`
}

// CopyConfig holds the archive copy settings. Source and Dest have no defaults.
type CopyConfig struct {
	Source   string   `toml:"source" env:"SOURCE"`
	Dest     string   `toml:"dest" env:"DEST"`
	Project  string   `toml:"project" env:"PROJECT"`
	Layout   string   `toml:"layout" env:"LAYOUT"`
	Include  []string `toml:"include" env:"INCLUDE" envSeparator:","`
	Jobs     int      `toml:"jobs" env:"JOBS"`
	// Template orders the facets of destination variable directories.
	Template []string `toml:"template" env:"TEMPLATE" envSeparator:","`
}

// Config is the complete drsmap configuration.
type Config struct {
	Log   LogConfig   `toml:"log" envPrefix:"LOG_"`
	Remap RemapConfig `toml:"remap" envPrefix:"REMAP_"`
	Copy  CopyConfig  `toml:"copy" envPrefix:"COPY_"`
	// Layouts adds to, or replaces by name, the built-in layouts.
	Layouts []drs.Layout `toml:"layouts" env:"-"`
}

// Default returns the configuration used when nothing else is set.
func Default() Config {
	return Config{
		Log: LogConfig{
			Level:  "info",
			Format: FormatConsole,
		},
		Remap: RemapConfig{
			Output:    mapfile.DefaultOutputRoot,
			SourceTag: drs.DefaultSourceTag,
			TargetTag: drs.DefaultTargetTag,
			Layout:    drs.MapfileLayout.Name,
		},
		Copy: CopyConfig{
			Project: archive.DefaultProject,
			Layout:  drs.FedcheckLayout.Name,
			Jobs:    1,
		},
	}
}

// Load reads path, when not empty, over the defaults and applies the process
// environment on top.
func Load(path string) (Config, error) {
	return load(path, env.Options{Prefix: EnvPrefix})
}

// LoadEnv is Load with an explicit environment instead of the process one.
func LoadEnv(path string, environ map[string]string) (Config, error) {
	return load(path, env.Options{Prefix: EnvPrefix, Environment: environ})
}

func load(path string, opts env.Options) (Config, error) {
	cfg := Default()
	if path != "" {
		md, err := toml.DecodeFile(path, &cfg)
		if err != nil {
			return cfg, fmt.Errorf("config %s: %w", path, err)
		}
		if undecoded := md.Undecoded(); len(undecoded) > 0 {
			return cfg, fmt.Errorf("config %s: unknown keys %v", path, undecoded)
		}
		cfg.resolve(filepath.Dir(path))
	}
	if err := env.ParseWithOptions(&cfg, opts); err != nil {
		return cfg, fmt.Errorf("parse env: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// resolve makes the file system paths of a config file relative to its directory.
func (c *Config) resolve(dir string) {
	for _, p := range []*string{&c.Remap.Output, &c.Copy.Source, &c.Copy.Dest} {
		if *p != "" && !filepath.IsAbs(*p) {
			*p = filepath.Join(dir, *p)
		}
	}
}

// Validate checks values that cannot be checked by decoding alone.
func (c Config) Validate() error {
	switch c.Log.Format {
	case FormatConsole, FormatJSON:
	default:
		return fmt.Errorf("log format %q: want %s or %s", c.Log.Format, FormatConsole, FormatJSON)
	}
	if c.Copy.Jobs < 0 {
		return fmt.Errorf("copy jobs %d: must not be negative", c.Copy.Jobs)
	}
	if c.Remap.SourceTag == "" || c.Remap.TargetTag == "" {
		return fmt.Errorf("remap source and target tags must not be empty")
	}
	if err := drs.ValidateTemplate(c.Copy.Template); err != nil {
		return fmt.Errorf("copy %w", err)
	}
	for i, l := range c.Layouts {
		if l.Name == "" {
			return fmt.Errorf("layout %d: name is required", i)
		}
		if err := l.Validate(); err != nil {
			return err
		}
	}
	return nil
}

// Layout returns the named layout, configured layouts taking precedence over
// built-in ones.
func (c Config) Layout(name string) (drs.Layout, error) {
	for _, l := range c.Layouts {
		if l.Name == name {
			return l, nil
		}
	}
	if l, ok := drs.BuiltinLayouts[name]; ok {
		return l, nil
	}
	return drs.Layout{}, fmt.Errorf("unknown layout %q", name)
}
