// Package version exposes the build version as a subcommand.
package version

import (
	"context"
	"fmt"

	"github.com/urfave/cli/v3"
)

// Version is stamped at build time via -ldflags; "dev" for local builds.
var Version = "dev"

// GetCommand returns the version command.
func GetCommand() *cli.Command {
	return &cli.Command{
		Name:  "version",
		Usage: "Print the revmux version",
		Action: func(ctx context.Context, cmd *cli.Command) error {
			fmt.Println(Version)
			return nil
		},
	}
}
