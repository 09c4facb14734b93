package crypto

import (
	"crypto/tls"
	"fmt"
)

// ServerTLSConfig builds the listener-side TLS configuration. With a key the
// remote must present a certificate issued by the key-derived CA, so only a
// peer knowing the same key can complete the handshake. Without a key the
// connection is encrypted but unauthenticated.
func ServerTLSConfig(key string) (*tls.Config, error) {
	id, err := NewIdentity(key)
	if err != nil {
		return nil, fmt.Errorf("crypto.NewIdentity(): %s", err)
	}

	cfg := &tls.Config{
		Certificates: []tls.Certificate{id.Cert},
		MinVersion:   tls.VersionTLS13,
	}

	if key != "" {
		cfg.ClientAuth = tls.RequireAndVerifyClientCert
		cfg.ClientCAs = id.CAPool
	}

	return cfg, nil
}
