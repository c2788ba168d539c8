package cmd

import (
	"fmt"
	"io"

	"github.com/dendrascience/drsmap/archive"
	"github.com/dendrascience/drsmap/internal/config"
	"github.com/dendrascience/drsmap/internal/logging"
	"github.com/dendrascience/drsmap/report"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

const (
	groupArchive   = "archive"
	groupUtilities = "utilities"
)

// globalOptions holds the persistent flags of the root command.
type globalOptions struct {
	configPath string
	logLevel   string
	logFormat  string
	verbose    bool
}

// NewRootCmd creates and returns the root cobra command for the drsmap CLI.
// It sets up all subcommands, command groups and the persistent flags.
func NewRootCmd() *cobra.Command {
	opts := &globalOptions{}

	rootCmd := &cobra.Command{
		Use:   "drsmap",
		Short: "drsmap - CMIP5 DRS remapping and version tree maintenance",
		Long: `drsmap reorganises CMIP5 climate data archives into new DRS layouts.

It rewrites ESGF mapfiles for the CMIP5-RT project, copies CEDA fedcheck archives
into a CMIP6-style tree with per-variable version directories and a "latest" link,
and checks or browses the trees it produces.

Use subcommands to perform different operations:
  - remap: Split CMIP5 mapfiles into per-variable CMIP5-RT mapfiles
  - copy: Copy a CMIP5 archive into a versioned destination tree
  - verify: Check the version trees of a destination archive
  - mount: Mount a read-only view showing only the latest versions
  - seed: Generate a synthetic CMIP5 archive for trials`,
	}

	pf := rootCmd.PersistentFlags()
	pf.StringVar(&opts.configPath, "config", "", "Path to a TOML configuration file")
	pf.StringVar(&opts.logLevel, "log-level", "", "Log level (debug, info, warn, error)")
	pf.StringVar(&opts.logFormat, "log-format", "", "Log format (console or json)")
	pf.BoolVarP(&opts.verbose, "verbose", "v", false, "Enable debug logging")

	rootCmd.AddGroup(&cobra.Group{
		ID:    groupArchive,
		Title: "Archive Operations",
	})
	rootCmd.AddGroup(&cobra.Group{
		ID:    groupUtilities,
		Title: "Utility Commands",
	})

	remapCmd := NewRemapCmd(opts)
	copyCmd := NewCopyCmd(opts)
	verifyCmd := NewVerifyCmd(opts)
	mountCmd := NewMountCmd(opts)
	seedCmd := NewSeedCmd(opts)

	remapCmd.GroupID = groupArchive
	copyCmd.GroupID = groupArchive
	verifyCmd.GroupID = groupArchive
	mountCmd.GroupID = groupUtilities
	seedCmd.GroupID = groupUtilities

	rootCmd.AddCommand(remapCmd)
	rootCmd.AddCommand(copyCmd)
	rootCmd.AddCommand(verifyCmd)
	rootCmd.AddCommand(mountCmd)
	rootCmd.AddCommand(seedCmd)

	return rootCmd
}

// setup loads the configuration, applies explicitly set global flags on top and
// builds the logger.
func (o *globalOptions) setup(cmd *cobra.Command) (config.Config, *zap.Logger, error) {
	cfg, err := config.Load(o.configPath)
	if err != nil {
		return cfg, nil, err
	}
	flags := cmd.Flags()
	if flags.Changed("log-level") {
		cfg.Log.Level = o.logLevel
	}
	if flags.Changed("log-format") {
		cfg.Log.Format = o.logFormat
	}
	log, err := logging.New(logging.Options{
		Level:   cfg.Log.Level,
		Format:  cfg.Log.Format,
		Verbose: o.verbose,
	})
	if err != nil {
		return cfg, nil, err
	}
	return cfg, log, nil
}

// newOps returns the filesystem operations for a run.
func newOps(dryRun bool, log *zap.Logger) archive.Ops {
	if dryRun {
		return archive.NewDryRunOps(log)
	}
	return archive.NewRealOps(log)
}

// finish prints the summary, writes it to reportPath when set and returns the
// summary error.
func finish(w io.Writer, s *report.Summary, reportPath string, log *zap.Logger) error {
	s.Finish()
	s.Print(w)
	if reportPath != "" {
		if err := s.Write(reportPath); err != nil {
			return fmt.Errorf("write report: %w", err)
		}
		log.Info("report written", zap.String("path", reportPath))
	}
	log.Info("run complete",
		zap.String("run_id", s.RunID),
		zap.String("command", s.Command),
		zap.Int("succeeded", s.Succeeded),
		zap.Int("failed", s.Failed),
		zap.Int("skipped", s.Skipped),
	)
	return s.Err()
}
