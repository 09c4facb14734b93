package proto

import (
	"encoding/binary"
	"errors"
	"fmt"
	"net"
)

// Kind identifies what a logical channel carries.
type Kind byte

// Channel kinds carried in Open payloads.
const (
	KindShell      Kind = 0
	KindProxy      Kind = 1
	KindTTYControl Kind = 2
)

func (k Kind) String() string {
	switch k {
	case KindShell:
		return "Shell"
	case KindProxy:
		return "Proxy"
	case KindTTYControl:
		return "TTYControl"
	default:
		return fmt.Sprintf("Kind(%d)", byte(k))
	}
}

// OpenFlagPTY advertises that the opener has an interactive terminal.
// Only meaningful on Shell opens.
const OpenFlagPTY = byte(0x01)

// ErrBadPayload reports a payload whose size does not match its frame type.
var ErrBadPayload = errors.New("malformed payload")

// OpenPayload is carried by Open frames: the channel kind plus a flags byte.
type OpenPayload struct {
	Kind  Kind
	Flags byte
}

// Encode serializes the Open payload.
func (p OpenPayload) Encode() []byte {
	return []byte{byte(p.Kind), p.Flags}
}

// ParseOpenPayload parses an Open frame's payload.
func ParseOpenPayload(b []byte) (OpenPayload, error) {
	if len(b) != 2 {
		return OpenPayload{}, fmt.Errorf("%w: Open payload has %d bytes, want 2", ErrBadPayload, len(b))
	}
	if Kind(b[0]) > KindTTYControl {
		return OpenPayload{}, fmt.Errorf("%w: unknown channel kind %d", ErrBadPayload, b[0])
	}
	return OpenPayload{Kind: Kind(b[0]), Flags: b[1]}, nil
}

// Geometry is a terminal size in rows and columns. It is the payload of
// WindowSize frames.
type Geometry struct {
	Rows uint16
	Cols uint16
}

// Encode serializes the geometry as [rows: u16][cols: u16].
func (g Geometry) Encode() []byte {
	out := make([]byte, 4)
	binary.BigEndian.PutUint16(out[0:2], g.Rows)
	binary.BigEndian.PutUint16(out[2:4], g.Cols)
	return out
}

// ParseGeometry parses a WindowSize frame's payload.
func ParseGeometry(b []byte) (Geometry, error) {
	if len(b) != 4 {
		return Geometry{}, fmt.Errorf("%w: WindowSize payload has %d bytes, want 4", ErrBadPayload, len(b))
	}
	return Geometry{
		Rows: binary.BigEndian.Uint16(b[0:2]),
		Cols: binary.BigEndian.Uint16(b[2:4]),
	}, nil
}

// ProxyConnect is the payload of ProxyConnect frames: the destination the
// remote side should dial, as [ipv4: 4 bytes][port: u16].
type ProxyConnect struct {
	IP   [4]byte
	Port uint16
}

// Encode serializes the ProxyConnect payload.
func (p ProxyConnect) Encode() []byte {
	out := make([]byte, 6)
	copy(out[0:4], p.IP[:])
	binary.BigEndian.PutUint16(out[4:6], p.Port)
	return out
}

// ParseProxyConnect parses a ProxyConnect frame's payload.
func ParseProxyConnect(b []byte) (ProxyConnect, error) {
	if len(b) != 6 {
		return ProxyConnect{}, fmt.Errorf("%w: ProxyConnect payload has %d bytes, want 6", ErrBadPayload, len(b))
	}
	var p ProxyConnect
	copy(p.IP[:], b[0:4])
	p.Port = binary.BigEndian.Uint16(b[4:6])
	return p, nil
}

// Addr formats the destination as host:port.
func (p ProxyConnect) Addr() string {
	return fmt.Sprintf("%s:%d", net.IP(p.IP[:]).String(), p.Port)
}

// ProxyReplySuccess is the ProxyReply status byte for a successful remote
// connect. Any other value is a failure.
const ProxyReplySuccess = byte(0x00)

// ParseProxyReply parses a ProxyReply frame's payload and returns the
// status byte.
func ParseProxyReply(b []byte) (byte, error) {
	if len(b) != 1 {
		return 0, fmt.Errorf("%w: ProxyReply payload has %d bytes, want 1", ErrBadPayload, len(b))
	}
	return b[0], nil
}

// ParseSignal parses a Signal frame's payload and returns the POSIX signal
// number it carries.
func ParseSignal(b []byte) (byte, error) {
	if len(b) != 1 {
		return 0, fmt.Errorf("%w: Signal payload has %d bytes, want 1", ErrBadPayload, len(b))
	}
	return b[0], nil
}
