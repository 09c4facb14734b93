package main

import (
	"context"
	"fmt"
	"os"

	"github.com/urfave/cli/v3"

	"revmux/cmd/listen"
	"revmux/cmd/version"
)

func main() {
	app := &cli.Command{
		Name:  "revmux",
		Usage: "multiplexed reverse shell handler with SOCKS pivoting",
		Commands: []*cli.Command{
			listen.GetCommand(),
			version.GetCommand(),
		},
	}

	if err := app.Run(context.Background(), os.Args); err != nil {
		fmt.Printf("[!] Error: %s\n", err)
		os.Exit(1)
	}
}
