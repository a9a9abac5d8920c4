package cmd

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	sah "github.com/meigma/sah/core"
)

func newLsCmd(opts *rootOptions) *cobra.Command {
	var recursive bool
	cmd := &cobra.Command{
		Use:   "ls [FOLDER]",
		Short: "List the contents of a folder",
		Long: `List the subfolders and files of FOLDER (the root by default).

Folders are printed with a trailing slash, files with their length and
offset in the data file. With --recursive every file below FOLDER is
listed with its full path.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			archive, closer, err := opts.openArchive(cmd)
			if err != nil {
				return err
			}
			defer closer.Close()

			path := "/"
			if len(args) == 1 {
				path = args[0]
			}
			folder, err := archive.ResolveFolder(path)
			if err != nil {
				return err
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			if recursive {
				for name, f := range sah.FilesUnder(folder) {
					fmt.Fprintf(w, "%d\t%d\t%s\n", f.Length, f.Offset, name)
				}
				return w.Flush()
			}
			for _, sub := range folder.Folders {
				fmt.Fprintf(w, "-\t-\t%s/\n", sub.Name)
			}
			for _, f := range folder.Files {
				fmt.Fprintf(w, "%d\t%d\t%s\n", f.Length, f.Offset, f.Name)
			}
			return w.Flush()
		},
	}
	cmd.Flags().BoolVarP(&recursive, "recursive", "r", false, "list every file below the folder")
	return cmd
}
