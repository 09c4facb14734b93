// Package shared provides the CLI flag definitions used across revmux
// commands.
package shared

import (
	"github.com/urfave/cli/v3"
)

const categoryCommon = "common"

// KeyFlag is the name of the flag to specify the mTLS authentication key.
const KeyFlag = "key"

// VerboseFlag is the name of the flag to enable verbose logging.
const VerboseFlag = "verbose"

// TransportFlag is the name of the flag selecting the listener transport.
const TransportFlag = "transport"

// PtyFlag is the name of the flag to enable interactive terminal mode.
const PtyFlag = "pty"

// LogFileFlag is the name of the flag to specify a shell transcript file.
const LogFileFlag = "log"

// SocksFlag is the name of the flag to enable the SOCKS proxy.
const SocksFlag = "socks"

// GetFlags returns the flags shared by all listening commands.
func GetFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:     KeyFlag,
			Aliases:  []string{"k"},
			Usage:    "Key for mTLS authentication, leave empty to disable authentication",
			Category: categoryCommon,
			Value:    "",
			Required: false,
		},
		&cli.StringFlag{
			Name:     TransportFlag,
			Aliases:  []string{"t"},
			Usage:    "Listener transport: tcp|ws|wss|kcp",
			Category: categoryCommon,
			Value:    "tcp",
			Required: false,
		},
		&cli.BoolFlag{
			Name:     PtyFlag,
			Aliases:  []string{},
			Usage:    "Enable interactive terminal mode (raw mode, resize and signal forwarding)",
			Category: categoryCommon,
			Value:    false,
			Required: false,
		},
		&cli.StringFlag{
			Name:     LogFileFlag,
			Aliases:  []string{"l"},
			Usage:    "Record the shell session to this file",
			Category: categoryCommon,
			Value:    "",
			Required: false,
		},
		&cli.StringFlag{
			Name:     SocksFlag,
			Aliases:  []string{"D"},
			Usage:    "SOCKS4 proxy, format: -D [<local-host>:]<local-port> (local-host defaults to 127.0.0.1)",
			Category: categoryCommon,
			Value:    "",
			Required: false,
		},
		&cli.BoolFlag{
			Name:     VerboseFlag,
			Aliases:  []string{"v"},
			Usage:    "Verbose logging",
			Category: categoryCommon,
			Value:    false,
			Required: false,
		},
	}
}
