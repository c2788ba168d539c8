package cmd

import (
	"context"
	"errors"
	"fmt"

	"github.com/dendrascience/drsmap/archive"
	"github.com/dendrascience/drsmap/drs"
	"github.com/dendrascience/drsmap/report"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// NewCopyCmd creates and returns the copy subcommand for the drsmap CLI.
// It copies a CMIP5 fedcheck archive into a versioned destination tree.
func NewCopyCmd(global *globalOptions) *cobra.Command {
	var (
		source     string
		dest       string
		project    string
		layoutName string
		rootDepth  int
		include    []string
		template   []string
		jobs       int
		dryRun     bool
		reportPath string
	)

	cmd := &cobra.Command{
		Use:   "copy --source DIR --dest DIR",
		Short: "Copy a CMIP5 archive into a versioned destination tree",
		Long: `Copy a CMIP5 archive into a versioned destination tree.

Every regular file below the source root is parsed with the source layout and
copied to

  <dest>/<project>/<product>/<institute>/<model>/<experiment>/<frequency>/<realm>/<table>/<ensemble>/<variable>/files/<variable>_<date>/<file>

next to a v<date> directory linking to it and a "latest" link to the newest
v<date>. Files already present with identical content are not copied again.
Symlinks in the source are skipped.

--template reorders or trims the facets of the destination variable directory,
for example "project,institute,model,experiment,variable".

--root-depth overrides the number of leading path segments the layout skips,
counted on the absolute source path.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, log, err := global.setup(cmd)
			if err != nil {
				return err
			}
			defer log.Sync()

			flags := cmd.Flags()
			if !flags.Changed("source") {
				source = cfg.Copy.Source
			}
			if !flags.Changed("dest") {
				dest = cfg.Copy.Dest
			}
			if !flags.Changed("project") {
				project = cfg.Copy.Project
			}
			if !flags.Changed("layout") {
				layoutName = cfg.Copy.Layout
			}
			if !flags.Changed("include") {
				include = cfg.Copy.Include
			}
			if !flags.Changed("jobs") {
				jobs = cfg.Copy.Jobs
			}
			if !flags.Changed("template") {
				template = cfg.Copy.Template
			}
			if source == "" || dest == "" {
				return errors.New("both --source and --dest are required")
			}
			layout, err := cfg.Layout(layoutName)
			if err != nil {
				return err
			}
			if flags.Changed("root-depth") {
				layout.RootDepth = rootDepth
			}

			opts := archive.CopyOptions{
				Source:   source,
				Dest:     dest,
				Layout:   layout,
				Project:  project,
				Template: template,
				Include:  include,
				Jobs:     jobs,
			}
			summary, err := runCopy(cmd.Context(), opts, dryRun, log)
			if err != nil {
				if summary != nil {
					summary.Print(cmd.OutOrStdout())
				}
				return err
			}
			return finish(cmd.OutOrStdout(), summary, reportPath, log)
		},
	}

	cmd.Flags().StringVarP(&source, "source", "s", "", "Source archive root (required)")
	cmd.Flags().StringVarP(&dest, "dest", "d", "", "Destination archive root (required)")
	cmd.Flags().StringVar(&project, "project", archive.DefaultProject, "Project directory of the destination tree")
	cmd.Flags().StringVar(&layoutName, "layout", drs.FedcheckLayout.Name, "Layout of the source archive")
	cmd.Flags().IntVar(&rootDepth, "root-depth", 0, "Leading path segments skipped by the source layout")
	cmd.Flags().StringArrayVar(&include, "include", nil, "Only copy files matching this glob, relative to the source (repeatable)")
	cmd.Flags().StringSliceVar(&template, "template", nil, "Comma-separated facets naming the destination variable directory")
	cmd.Flags().IntVarP(&jobs, "jobs", "j", 1, "Number of files copied in parallel")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "Log the changes that would be made without making them")
	cmd.Flags().StringVar(&reportPath, "report", "", "Write the run summary to this file (.json, .yaml)")

	return cmd
}

func runCopy(ctx context.Context, opts archive.CopyOptions, dryRun bool, log *zap.Logger) (*report.Summary, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	copier, err := archive.NewCopier(opts, newOps(dryRun, log), log)
	if err != nil {
		return nil, err
	}

	log.Info("copying archive",
		zap.String("source", opts.Source),
		zap.String("dest", opts.Dest),
		zap.String("layout", opts.Layout.Name),
		zap.Int("jobs", opts.Jobs),
		zap.Bool("dry_run", dryRun),
	)
	summary := report.New("copy", dryRun)
	if err := copier.Run(ctx, summary); err != nil {
		if errors.Is(err, context.Canceled) {
			log.Warn("copy interrupted", zap.Int("done", summary.Total()))
			summary.Finish()
			return summary, fmt.Errorf("interrupted after %d files: %w", summary.Total(), err)
		}
		return summary, err
	}
	return summary, nil
}
