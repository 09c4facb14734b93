package config

import (
	"fmt"
	"strconv"
	"strings"
)

// SocksCfg names where the local SOCKS4 listener should bind. It is built
// from the -D flag's "[host:]port" spec; parse failures are kept on the
// value so Validate can report them alongside everything else.
type SocksCfg struct {
	Host string
	Port int

	spec       string
	parsingErr error
}

// String renders the bind address, or the raw spec if it never parsed.
func (sCfg *SocksCfg) String() string {
	if sCfg.parsingErr != nil {
		return sCfg.spec
	}

	return fmt.Sprintf("%s:%d", sCfg.Host, sCfg.Port)
}

// NewSocksCfg parses a "[host:]port" spec. A bare port binds 127.0.0.1; an
// empty host before the colon binds all interfaces.
func NewSocksCfg(spec string) *SocksCfg {
	out := SocksCfg{spec: spec, Host: "127.0.0.1"}

	portPart := spec
	if host, rest, found := strings.Cut(spec, ":"); found {
		if strings.Contains(rest, ":") {
			out.parsingErr = fmt.Errorf("unexpected format")
			return &out
		}
		out.Host = host
		portPart = rest
	}

	port, err := strconv.Atoi(portPart)
	if err != nil {
		out.parsingErr = fmt.Errorf("parsing '%s' as port: %s", portPart, err)
		return &out
	}
	out.Port = port

	return &out
}

func (sCfg *SocksCfg) validate() []error {
	var errors []error

	if err := validatePort(sCfg.Port); err != nil {
		errors = append(errors, fmt.Errorf("port: %s", err))
	}

	return errors
}
