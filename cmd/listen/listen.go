package listen

import (
	"context"
	"fmt"

	"github.com/urfave/cli/v3"

	"revmux/cmd/shared"
	"revmux/pkg/config"
	"revmux/pkg/log"
	"revmux/pkg/server"
)

const categoryListen = "listen"

const hostFlag = "host"
const portFlag = "port"

// GetCommand returns the listen command: wait for a callback and serve it.
func GetCommand() *cli.Command {
	return &cli.Command{
		Name:  "listen",
		Usage: "Listen for a callback",
		Action: func(ctx context.Context, cmd *cli.Command) error {
			cfg := &config.Config{
				Host:      cmd.String(hostFlag),
				Port:      int(cmd.Int(portFlag)),
				Transport: cmd.String(shared.TransportFlag),
				Key:       cmd.String(shared.KeyFlag),
				Pty:       cmd.Bool(shared.PtyFlag),
				LogFile:   cmd.String(shared.LogFileFlag),
				Verbose:   cmd.Bool(shared.VerboseFlag),
			}
			if spec := cmd.String(shared.SocksFlag); spec != "" {
				cfg.Socks = config.NewSocksCfg(spec)
			}

			logger := log.NewLogger(cfg.Verbose)

			if errors := cfg.Validate(); len(errors) > 0 {
				logger.ErrorMsg("Argument validation errors:\n")
				for _, err := range errors {
					logger.ErrorMsg(" - %s\n", err)
				}
				return fmt.Errorf("exiting")
			}

			logger.InfoMsg("Listening on %s:%d (%s)\n", cfg.Host, cfg.Port, cfg.Transport)

			s, err := server.New(cfg, logger)
			if err != nil {
				return fmt.Errorf("server.New(): %s", err)
			}
			if err := s.Serve(ctx); err != nil {
				return fmt.Errorf("serving: %s", err)
			}

			return nil
		},
		Flags: append([]cli.Flag{
			&cli.StringFlag{
				Name:     hostFlag,
				Aliases:  []string{},
				Usage:    "Local interface, leave empty for all interfaces",
				Category: categoryListen,
				Value:    "",
				Required: false,
			},
			&cli.IntFlag{
				Name:     portFlag,
				Aliases:  []string{"p"},
				Usage:    "Local port",
				Category: categoryListen,
				Required: true,
			},
		}, shared.GetFlags()...),
	}
}
