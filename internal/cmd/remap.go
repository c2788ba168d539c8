package cmd

import (
	"fmt"

	"github.com/dendrascience/drsmap/drs"
	"github.com/dendrascience/drsmap/mapfile"
	"github.com/dendrascience/drsmap/report"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// NewRemapCmd creates and returns the remap subcommand for the drsmap CLI.
// It splits CMIP5 mapfiles into CMIP5-RT mapfiles, one per variable.
func NewRemapCmd(global *globalOptions) *cobra.Command {
	var (
		output     string
		sourceTag  string
		targetTag  string
		layoutName string
		dryRun     bool
		reportPath string
	)

	cmd := &cobra.Command{
		Use:   "remap MAPFILE...",
		Short: "Split CMIP5 mapfiles into per-variable CMIP5-RT mapfiles",
		Long: `Split CMIP5 mapfiles into per-variable CMIP5-RT mapfiles.

Every line's dataset identifier gets the CMIP5-RT project tag and the variable,
taken from the data path, as an extra component. The lines of each input mapfile
are grouped by new identifier and each group is written to
<output>/<mapfile directory with cmip5 renamed to cmip5_rt>/<identifier>.<version>,
where version is the suffix of the input mapfile name. Existing output files are
overwritten.

Lines that cannot be remapped are reported and do not stop the run.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, log, err := global.setup(cmd)
			if err != nil {
				return err
			}
			defer log.Sync()

			flags := cmd.Flags()
			if !flags.Changed("output") {
				output = cfg.Remap.Output
			}
			if !flags.Changed("source-tag") {
				sourceTag = cfg.Remap.SourceTag
			}
			if !flags.Changed("target-tag") {
				targetTag = cfg.Remap.TargetTag
			}
			if !flags.Changed("layout") {
				layoutName = cfg.Remap.Layout
			}
			layout, err := cfg.Layout(layoutName)
			if err != nil {
				return err
			}

			opts := mapfile.Options{
				OutputRoot: output,
				Remapper: drs.Remapper{
					SourceTag: sourceTag,
					TargetTag: targetTag,
					Layout:    layout,
				},
			}
			summary := runRemap(args, opts, dryRun, log)
			return finish(cmd.OutOrStdout(), summary, reportPath, log)
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", mapfile.DefaultOutputRoot, "Output root for converted mapfiles")
	cmd.Flags().StringVar(&sourceTag, "source-tag", drs.DefaultSourceTag, "Project tag of the input identifiers")
	cmd.Flags().StringVar(&targetTag, "target-tag", drs.DefaultTargetTag, "Project tag of the output identifiers")
	cmd.Flags().StringVar(&layoutName, "layout", drs.MapfileLayout.Name, "Layout locating version and variable in data paths")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "Log the files that would be written without writing them")
	cmd.Flags().StringVar(&reportPath, "report", "", "Write the run summary to this file (.json, .yaml)")

	return cmd
}

func runRemap(paths []string, opts mapfile.Options, dryRun bool, log *zap.Logger) *report.Summary {
	summary := report.New("remap", dryRun)
	ops := newOps(dryRun, log)

	for _, path := range paths {
		res, err := mapfile.Convert(ops, path, opts, log)
		if err != nil {
			log.Warn("mapfile failed", zap.String("input", path), zap.Error(err))
			summary.Fail(path, err)
			continue
		}
		for i := 0; i < res.Lines-len(res.Failures); i++ {
			summary.Success(path)
		}
		for i := 0; i < res.Blank; i++ {
			summary.Skip(path, "blank line")
		}
		for _, f := range res.Failures {
			summary.Fail(fmt.Sprintf("%s:%d", path, f.Line), f)
		}
		for _, w := range res.Written {
			summary.AddWritten(w)
		}
		log.Debug("mapfile converted",
			zap.String("input", path),
			zap.String("version", res.Version),
			zap.Int("groups", len(res.Groups)),
		)
	}
	return summary
}
