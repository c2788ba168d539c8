package cmd

import (
	"fmt"

	"github.com/dendrascience/drsmap/archive"
	"github.com/dendrascience/drsmap/latestfs"
	"github.com/dendrascience/drsmap/version"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// NewMountCmd creates and returns the mount subcommand for the drsmap CLI.
// It mounts a read-only view of an archive showing only the latest versions.
func NewMountCmd(global *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "mount ARCHIVE MOUNTPOINT",
		Short: "Mount a read-only view showing only the latest versions",
		Long: `Mount a read-only view of a destination archive at the specified mountpoint.

ARCHIVE is the root of a tree produced by drsmap copy.
MOUNTPOINT is the directory where the view will be mounted; it must not be
inside ARCHIVE, nor contain it.

In the view every variable directory lists the files of its latest version in
place of its version directories. The view is unmounted on interrupt.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			_, log, err := global.setup(cmd)
			if err != nil {
				return err
			}
			defer log.Sync()

			archiveRoot, mountpoint := args[0], args[1]
			if archive.PathsOverlap(archiveRoot, mountpoint) {
				return fmt.Errorf("mountpoint %s overlaps archive %s", mountpoint, archiveRoot)
			}

			filesystem, err := latestfs.New(archiveRoot, log)
			if err != nil {
				return err
			}
			log.Info("mounting latest view",
				zap.String("version", version.Get().String()),
				zap.String("archive", archiveRoot),
				zap.String("mountpoint", mountpoint),
			)
			return latestfs.Mount(cmd.Context(), filesystem, mountpoint)
		},
	}
}
