package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	sah "github.com/meigma/sah/core"
)

func newExtractCmd(opts *rootOptions) *cobra.Command {
	var (
		overwrite bool
		workers   int
	)
	cmd := &cobra.Command{
		Use:   "extract DEST [FOLDER]",
		Short: "Extract a folder to disk",
		Long: `Extract every file below FOLDER (the root by default) into DEST,
recreating the folder structure. Existing files are skipped unless
--overwrite is set.`,
		Args: cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			archive, closer, err := opts.openArchive(cmd)
			if err != nil {
				return err
			}
			defer closer.Close()

			folder := "/"
			if len(args) == 2 {
				folder = args[1]
			}
			stats, err := archive.Extract(args[0], folder,
				sah.ExtractWithOverwrite(overwrite),
				sah.ExtractWithWorkers(workers),
			)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "extracted %d files (%d bytes), skipped %d\n",
				stats.FileCount, stats.TotalBytes, stats.Skipped)
			return nil
		},
	}
	cmd.Flags().BoolVar(&overwrite, "overwrite", false, "replace existing files")
	cmd.Flags().IntVarP(&workers, "workers", "j", 0, "files to extract concurrently (default 4)")
	return cmd
}
