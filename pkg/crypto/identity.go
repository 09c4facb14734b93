package crypto

import (
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/tls"
	"crypto/x509"
	"crypto/x509/pkix"
	"encoding/pem"
	"fmt"
	"math/big"
	"time"
)

// Identity is the TLS material for one endpoint: a certificate pool holding
// the shared CA and a leaf certificate signed by it. Both sides of a keyed
// session derive the same CA from the key, so each can verify the other.
type Identity struct {
	CAPool *x509.CertPool
	Cert   tls.Certificate
}

// NewIdentity derives an identity from the seed. An empty seed yields a
// throwaway random CA, which still encrypts but authenticates nobody.
func NewIdentity(seed string) (*Identity, error) {
	var err error

	if seed == "" {
		seed, err = RandomString(32)
		if err != nil {
			return nil, fmt.Errorf("RandomString(32): %s", err)
		}
	}

	caKeyPEM, caCertPEM, err := deriveCA(seed)
	if err != nil {
		return nil, fmt.Errorf("deriveCA(): %s", err)
	}

	pool := x509.NewCertPool()
	if !pool.AppendCertsFromPEM(caCertPEM) {
		return nil, fmt.Errorf("adding derived CA certificate to pool")
	}

	cert, err := issueLeaf(caCertPEM, caKeyPEM)
	if err != nil {
		return nil, fmt.Errorf("issueLeaf(): %s", err)
	}

	return &Identity{CAPool: pool, Cert: cert}, nil
}

// deriveCA deterministically generates the CA key pair and self-signed
// certificate from the seed, PEM-encoded.
func deriveCA(seed string) ([]byte, []byte, error) {
	rng := seededReader(seed)

	key, err := ecdsa.GenerateKey(elliptic.P256(), rng)
	if err != nil {
		return nil, nil, fmt.Errorf("generating CA key: %s", err)
	}

	cn, err := randomString(8, rng)
	if err != nil {
		return nil, nil, fmt.Errorf("generating common name: %s", err)
	}
	org, err := randomString(8, rng)
	if err != nil {
		return nil, nil, fmt.Errorf("generating organization: %s", err)
	}

	tmpl := x509.Certificate{
		NotBefore:    time.Date(1970, 0, 0, 0, 0, 0, 0, time.UTC),
		NotAfter:     time.Date(2063, 4, 5, 11, 0, 0, 0, time.UTC),
		SerialNumber: big.NewInt(1),
		Subject: pkix.Name{
			CommonName:   cn,
			Organization: []string{org},
		},
		BasicConstraintsValid: true,
		IsCA:                  true,
		KeyUsage:              x509.KeyUsageCertSign,
	}

	der, err := x509.CreateCertificate(rand.Reader, &tmpl, &tmpl, &key.PublicKey, key)
	if err != nil {
		return nil, nil, fmt.Errorf("creating CA certificate: %s", err)
	}

	keyDER, err := x509.MarshalECPrivateKey(key)
	if err != nil {
		return nil, nil, fmt.Errorf("marshaling CA key: %s", err)
	}

	keyPEM := pem.EncodeToMemory(&pem.Block{Type: "EC PRIVATE KEY", Bytes: keyDER})
	certPEM := pem.EncodeToMemory(&pem.Block{Type: "CERTIFICATE", Bytes: der})

	return keyPEM, certPEM, nil
}

// issueLeaf creates a fresh leaf certificate signed by the CA. The leaf key
// is always random; only the CA is derived from the seed.
func issueLeaf(caCertPEM, caKeyPEM []byte) (tls.Certificate, error) {
	var out tls.Certificate

	keyBlock, _ := pem.Decode(caKeyPEM)
	if keyBlock == nil {
		return out, fmt.Errorf("decoding CA key PEM")
	}
	caKey, err := x509.ParseECPrivateKey(keyBlock.Bytes)
	if err != nil {
		return out, fmt.Errorf("x509.ParseECPrivateKey(): %s", err)
	}

	certBlock, _ := pem.Decode(caCertPEM)
	if certBlock == nil {
		return out, fmt.Errorf("decoding CA certificate PEM")
	}
	caCert, err := x509.ParseCertificate(certBlock.Bytes)
	if err != nil {
		return out, fmt.Errorf("x509.ParseCertificate(): %s", err)
	}

	key, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	if err != nil {
		return out, fmt.Errorf("generating leaf key: %s", err)
	}

	cn, err := randomString(8, rand.Reader)
	if err != nil {
		return out, fmt.Errorf("generating common name: %s", err)
	}

	tmpl := x509.Certificate{
		SerialNumber: big.NewInt(1),
		Subject:      pkix.Name{CommonName: cn},
		NotBefore:    time.Date(1970, 0, 0, 0, 0, 0, 0, time.UTC),
		NotAfter:     time.Date(2063, 4, 5, 11, 0, 0, 0, time.UTC),
		KeyUsage:     x509.KeyUsageDigitalSignature,
	}

	der, err := x509.CreateCertificate(rand.Reader, &tmpl, caCert, &key.PublicKey, caKey)
	if err != nil {
		return out, fmt.Errorf("creating leaf certificate: %s", err)
	}

	out = tls.Certificate{
		Certificate: [][]byte{der},
		PrivateKey:  key,
	}

	return out, nil
}
