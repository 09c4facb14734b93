package config

import (
	"testing"
)

func TestNewSocksCfg(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		spec      string
		wantHost  string
		wantPort  int
		wantError bool
	}{
		{
			name:     "port only",
			spec:     "1080",
			wantHost: "127.0.0.1",
			wantPort: 1080,
		},
		{
			name:     "host and port",
			spec:     "192.168.1.1:1080",
			wantHost: "192.168.1.1",
			wantPort: 1080,
		},
		{
			name:     "localhost and port",
			spec:     "localhost:8080",
			wantHost: "localhost",
			wantPort: 8080,
		},
		{
			name:      "too many colons",
			spec:      "host:port:extra",
			wantError: true,
		},
		{
			name:      "invalid port",
			spec:      "localhost:abc",
			wantError: true,
		},
		{
			name:      "empty spec",
			spec:      "",
			wantError: true,
		},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			cfg := NewSocksCfg(tc.spec)

			if (cfg.parsingErr != nil) != tc.wantError {
				t.Errorf("NewSocksCfg(%q) parsingErr = %v, wantError %v", tc.spec, cfg.parsingErr, tc.wantError)
			}

			if !tc.wantError {
				if cfg.Host != tc.wantHost {
					t.Errorf("NewSocksCfg(%q) Host = %q, want %q", tc.spec, cfg.Host, tc.wantHost)
				}
				if cfg.Port != tc.wantPort {
					t.Errorf("NewSocksCfg(%q) Port = %d, want %d", tc.spec, cfg.Port, tc.wantPort)
				}
			}
		})
	}
}

func TestSocksCfgString(t *testing.T) {
	t.Parallel()

	if got := NewSocksCfg("localhost:1080").String(); got != "localhost:1080" {
		t.Errorf("String() = %q, want %q", got, "localhost:1080")
	}

	if got := NewSocksCfg("a:b:c").String(); got != "a:b:c" {
		t.Errorf("String() for unparsable spec = %q, want original spec", got)
	}
}
