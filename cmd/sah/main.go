// Command sah inspects, extracts and mounts SAH/SAF game archives.
package main

import (
	"context"
	"os"

	"github.com/charmbracelet/fang"

	"github.com/meigma/sah/internal/cmd"
	"github.com/meigma/sah/internal/version"
)

func main() {
	if err := fang.Execute(context.Background(), cmd.NewRootCmd(),
		fang.WithVersion(version.GetVersion()),
		fang.WithCommit(version.GetCommit()),
	); err != nil {
		os.Exit(1)
	}
}
