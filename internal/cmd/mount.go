package cmd

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/meigma/sah/internal/mount"
)

func newMountCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "mount MOUNTPOINT",
		Short: "Mount the archive as a read-only filesystem",
		Long: `Mount the archive at MOUNTPOINT using FUSE. The mount stays up
until interrupted or unmounted externally.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			archive, closer, err := opts.openArchive(cmd)
			if err != nil {
				return err
			}
			defer closer.Close()

			logger, err := opts.logger(cmd)
			if err != nil {
				return err
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return mount.Serve(ctx, archive, args[0], mount.WithLogger(logger))
		},
	}
}
