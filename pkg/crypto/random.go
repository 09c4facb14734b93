package crypto

import (
	"crypto/rand"
	"crypto/sha512"
	"encoding/base64"
	"io"
)

// RandomString returns a random URL-safe string of the given length.
func RandomString(length int) (string, error) {
	bytes := make([]byte, length)
	if _, err := rand.Read(bytes); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(bytes)[:length], nil
}

// seededReader returns a deterministic byte stream for a non-empty seed and
// the system entropy source otherwise.
func seededReader(seed string) io.Reader {
	if seed == "" {
		return rand.Reader
	}
	return &dRand{next: []byte(seed)}
}

// dRand derives an endless byte stream from a seed by iterating sha512:
// half of each digest becomes output, the other half the next input.
type dRand struct {
	next []byte
}

func (d *dRand) cycle() []byte {
	result := sha512.Sum512(d.next)
	d.next = result[:sha512.Size/2]
	return result[sha512.Size/2:]
}

func (d *dRand) Read(b []byte) (int, error) {
	n := 0
	for n < len(b) {
		out := d.cycle()
		n += copy(b[n:], out)
	}
	return n, nil
}

func randomString(length int, rng io.Reader) (string, error) {
	bytes := make([]byte, length)
	if _, err := io.ReadFull(rng, bytes); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(bytes)[:length], nil
}
