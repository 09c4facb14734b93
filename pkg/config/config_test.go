package config

import (
	"strings"
	"testing"
)

func TestConfigValidate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		cfg      *Config
		wantErrs int
	}{
		{
			name:     "valid tcp",
			cfg:      &Config{Host: "0.0.0.0", Port: 8443, Transport: TransportTCP},
			wantErrs: 0,
		},
		{
			name:     "valid wss with socks",
			cfg:      &Config{Port: 443, Transport: TransportWSS, Socks: NewSocksCfg("1080")},
			wantErrs: 0,
		},
		{
			name:     "port too low",
			cfg:      &Config{Port: 0, Transport: TransportTCP},
			wantErrs: 1,
		},
		{
			name:     "port too high",
			cfg:      &Config{Port: 70000, Transport: TransportKCP},
			wantErrs: 1,
		},
		{
			name:     "unknown transport",
			cfg:      &Config{Port: 8443, Transport: "quic"},
			wantErrs: 1,
		},
		{
			name:     "bad socks spec",
			cfg:      &Config{Port: 8443, Transport: TransportTCP, Socks: NewSocksCfg("a:b:c")},
			wantErrs: 1,
		},
		{
			name:     "bad socks port",
			cfg:      &Config{Port: 8443, Transport: TransportTCP, Socks: NewSocksCfg("0")},
			wantErrs: 1,
		},
		{
			name:     "everything wrong at once",
			cfg:      &Config{Port: -1, Transport: "", Socks: NewSocksCfg("nope")},
			wantErrs: 3,
		},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			errs := tc.cfg.Validate()
			if len(errs) != tc.wantErrs {
				t.Errorf("Validate() = %v, want %d errors", errs, tc.wantErrs)
			}
		})
	}
}

func TestGetKey(t *testing.T) {
	t.Parallel()

	cfg := &Config{}
	if got := cfg.GetKey(); got != "" {
		t.Errorf("GetKey() without key = %q, want empty", got)
	}

	cfg.Key = "hunter2"
	got := cfg.GetKey()
	if !strings.HasSuffix(got, "hunter2") {
		t.Errorf("GetKey() = %q, want suffix 'hunter2'", got)
	}
	if got == "hunter2" {
		t.Error("GetKey() did not salt the key")
	}
}
