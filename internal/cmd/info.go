package cmd

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

func newInfoCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "info",
		Short: "Show a summary of the archive header",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			archive, closer, err := opts.openArchive(cmd)
			if err != nil {
				return err
			}
			defer closer.Close()

			dataSize, err := archive.Source().Size()
			if err != nil {
				return fmt.Errorf("data size: %w", err)
			}
			root := archive.Root()
			folders := root.CountEntries() - root.CountFiles()

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			fmt.Fprintf(w, "header:\t%s (%d bytes)\n", opts.headerPath, archive.HeaderSize())
			fmt.Fprintf(w, "data:\t%s (%d bytes)\n", archive.Source().SourceID(), dataSize)
			fmt.Fprintf(w, "declared entries:\t%d\n", archive.DeclaredEntries())
			fmt.Fprintf(w, "files:\t%d\n", archive.Len())
			fmt.Fprintf(w, "folders:\t%d\n", folders)
			return w.Flush()
		},
	}
}
