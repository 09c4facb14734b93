// Package config holds the handler's configuration and its validation.
package config

import "fmt"

// Transports the listener can speak.
const (
	TransportTCP = "tcp"
	TransportWS  = "ws"
	TransportWSS = "wss"
	TransportKCP = "kcp"
)

var KeySalt = "x3Vb8mPq0RtYwA61kLsdE2nZjcFh5Ogu" // overwrite with custom value during release build

// Config describes one listener invocation.
type Config struct {
	Host      string
	Port      int
	Transport string

	Key     string
	Pty     bool
	LogFile string
	Verbose bool

	Socks *SocksCfg
}

// Validate reports everything wrong with the configuration at once.
func (cfg *Config) Validate() []error {
	var errors []error

	if err := validatePort(cfg.Port); err != nil {
		errors = append(errors, fmt.Errorf("'--port': %s", err))
	}

	switch cfg.Transport {
	case TransportTCP, TransportWS, TransportWSS, TransportKCP:
	default:
		errors = append(errors, fmt.Errorf("'--transport' must be one of tcp, ws, wss, kcp (got '%s')", cfg.Transport))
	}

	if cfg.Socks != nil {
		if cfg.Socks.parsingErr != nil {
			errors = append(errors, fmt.Errorf("SOCKS: %s: parsing error: %s", cfg.Socks, cfg.Socks.parsingErr))
		} else {
			for _, err := range cfg.Socks.validate() {
				errors = append(errors, fmt.Errorf("SOCKS: %s: %s", cfg.Socks, err))
			}
		}
	}

	return errors
}

// GetKey returns the salted shared key, or "" if no key is configured.
func (cfg *Config) GetKey() string {
	if cfg.Key == "" {
		return ""
	}

	return KeySalt + cfg.Key
}

func validatePort(port int) error {
	if port < 1 || port > 65535 {
		return fmt.Errorf("%d not in [1, 65535]", port)
	}

	return nil
}
