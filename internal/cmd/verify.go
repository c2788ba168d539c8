package cmd

import (
	"github.com/dendrascience/drsmap/archive"
	"github.com/dendrascience/drsmap/report"
	"github.com/spf13/cobra"
)

// NewVerifyCmd creates and returns the verify subcommand for the drsmap CLI.
// It checks the version trees of a destination archive.
func NewVerifyCmd(global *globalOptions) *cobra.Command {
	var (
		path       string
		reportPath string
	)

	cmd := &cobra.Command{
		Use:   "verify --path DIR",
		Short: "Check the version trees of a destination archive",
		Long: `Check the version trees of a destination archive.

Every variable directory, that is every directory holding v<date> directories,
is checked for:
  - a "latest" symlink that resolves to the v<date> with the newest date
  - v<date> directories with distinct dates
  - links inside v<date> directories that resolve

The command exits with status 2 when any finding is reported.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			_, log, err := global.setup(cmd)
			if err != nil {
				return err
			}
			defer log.Sync()

			summary := report.New("verify", false)
			if err := archive.Verify(cmd.Context(), archive.NewRealOps(log), path, summary); err != nil {
				return err
			}
			return finish(cmd.OutOrStdout(), summary, reportPath, log)
		},
	}

	cmd.Flags().StringVarP(&path, "path", "p", "", "Path to the destination archive to verify (required)")
	cmd.Flags().StringVar(&reportPath, "report", "", "Write the findings to this file (.json, .yaml)")

	cmd.MarkFlagRequired("path")

	return cmd
}
