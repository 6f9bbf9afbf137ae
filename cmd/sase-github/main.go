// Package main provides the entry point for the sase-github CLI.
package main

import (
	"context"
	"os"

	"github.com/bbugyi200/sase-github/internal/cli"
)

// Build information set via ldflags.
var (
	version = "" //nolint:gochecknoglobals // Set by -ldflags at build time
	commit  = "" //nolint:gochecknoglobals // Set by -ldflags at build time
	date    = "" //nolint:gochecknoglobals // Set by -ldflags at build time
)

func main() {
	ctx := context.Background()

	err := cli.Execute(ctx, cli.BuildInfo{
		Version: version,
		Commit:  commit,
		Date:    date,
	})
	cli.CloseLogFile()

	os.Exit(cli.ExitCodeForError(err))
}
