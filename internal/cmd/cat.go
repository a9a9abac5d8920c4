package cmd

import (
	"github.com/spf13/cobra"
)

func newCatCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "cat FILE...",
		Short: "Write archived files to stdout",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			archive, closer, err := opts.openArchive(cmd)
			if err != nil {
				return err
			}
			defer closer.Close()

			out := cmd.OutOrStdout()
			for _, path := range args {
				f, err := archive.ResolveFile(path)
				if err != nil {
					return err
				}
				data, err := archive.ReadData(f)
				if err != nil {
					return err
				}
				if _, err := out.Write(data); err != nil {
					return err
				}
			}
			return nil
		},
	}
}
