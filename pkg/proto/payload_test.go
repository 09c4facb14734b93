package proto

import (
	"errors"
	"testing"
)

func TestOpenPayload(t *testing.T) {
	t.Parallel()

	p, err := ParseOpenPayload(OpenPayload{Kind: KindShell, Flags: OpenFlagPTY}.Encode())
	if err != nil {
		t.Fatalf("ParseOpenPayload() failed: %v", err)
	}
	if p.Kind != KindShell || p.Flags != OpenFlagPTY {
		t.Errorf("payload = %+v", p)
	}

	if _, err := ParseOpenPayload([]byte{0}); !errors.Is(err, ErrBadPayload) {
		t.Errorf("short payload: err = %v, want ErrBadPayload", err)
	}
	if _, err := ParseOpenPayload([]byte{99, 0}); !errors.Is(err, ErrBadPayload) {
		t.Errorf("bad kind: err = %v, want ErrBadPayload", err)
	}
}

func TestGeometry(t *testing.T) {
	t.Parallel()

	raw := Geometry{Rows: 24, Cols: 80}.Encode()
	want := []byte{0x00, 0x18, 0x00, 0x50}
	for i := range want {
		if raw[i] != want[i] {
			t.Fatalf("Encode() = %v, want %v", raw, want)
		}
	}

	g, err := ParseGeometry(raw)
	if err != nil {
		t.Fatalf("ParseGeometry() failed: %v", err)
	}
	if g.Rows != 24 || g.Cols != 80 {
		t.Errorf("geometry = %+v", g)
	}

	if _, err := ParseGeometry([]byte{1, 2, 3}); !errors.Is(err, ErrBadPayload) {
		t.Errorf("short payload: err = %v, want ErrBadPayload", err)
	}
}

func TestProxyConnect(t *testing.T) {
	t.Parallel()

	p := ProxyConnect{IP: [4]byte{127, 0, 0, 1}, Port: 0x1F90}
	raw := p.Encode()
	want := []byte{127, 0, 0, 1, 0x1F, 0x90}
	for i := range want {
		if raw[i] != want[i] {
			t.Fatalf("Encode() = %v, want %v", raw, want)
		}
	}

	got, err := ParseProxyConnect(raw)
	if err != nil {
		t.Fatalf("ParseProxyConnect() failed: %v", err)
	}
	if got != p {
		t.Errorf("parsed = %+v, want %+v", got, p)
	}
	if got.Addr() != "127.0.0.1:8080" {
		t.Errorf("Addr() = %s, want 127.0.0.1:8080", got.Addr())
	}
}

func TestProxyReply(t *testing.T) {
	t.Parallel()

	status, err := ParseProxyReply([]byte{0x00})
	if err != nil {
		t.Fatalf("ParseProxyReply() failed: %v", err)
	}
	if status != ProxyReplySuccess {
		t.Errorf("status = %d, want success", status)
	}

	if _, err := ParseProxyReply(nil); !errors.Is(err, ErrBadPayload) {
		t.Errorf("empty payload: err = %v, want ErrBadPayload", err)
	}
}
