// Package proto implements the wire framing that carries the logical
// channels of a session over one encrypted byte stream.
//
// Every frame has the layout
//
//	[channel_id: u32][type: u8][length: u32][payload: length bytes]
//
// with all integers big-endian. The codec is a pure transform over bytes
// and knows nothing about channel semantics.
package proto

import (
	"encoding/binary"
	"errors"
	"fmt"
)

// Type identifies the meaning of a frame's payload.
type Type byte

// Frame types of the channel protocol.
const (
	TypeOpen         Type = 0
	TypeData         Type = 1
	TypeClose        Type = 2
	TypeWindowSize   Type = 3
	TypeSignal       Type = 4
	TypeProxyConnect Type = 5
	TypeProxyReply   Type = 6
)

func (t Type) String() string {
	switch t {
	case TypeOpen:
		return "Open"
	case TypeData:
		return "Data"
	case TypeClose:
		return "Close"
	case TypeWindowSize:
		return "WindowSize"
	case TypeSignal:
		return "Signal"
	case TypeProxyConnect:
		return "ProxyConnect"
	case TypeProxyReply:
		return "ProxyReply"
	default:
		return fmt.Sprintf("Unknown(%d)", byte(t))
	}
}

// HeaderLen is the fixed size of a frame header in bytes.
const HeaderLen = 9

// MaxPayload bounds the declared payload length of a single frame. Larger
// declarations are a decode error since they would let a corrupted or
// malicious peer force unbounded buffering.
const MaxPayload = 1 << 20

// ErrShortBuffer reports that the buffer does not yet hold a complete
// frame. It is the "need more data" outcome, never a protocol failure.
var ErrShortBuffer = errors.New("incomplete frame")

// ErrPayloadTooLarge reports a declared payload length above MaxPayload.
// Stream synchronization cannot be trusted afterwards.
var ErrPayloadTooLarge = errors.New("declared payload length exceeds maximum")

// ErrUnknownType reports a frame type byte outside the protocol's range.
var ErrUnknownType = errors.New("unknown frame type")

// Frame is the unit of wire transfer: one typed payload on one channel.
type Frame struct {
	Channel uint32
	Type    Type
	Payload []byte
}

// Encode serializes f into a freshly allocated byte slice.
func (f Frame) Encode() []byte {
	out := make([]byte, HeaderLen+len(f.Payload))
	binary.BigEndian.PutUint32(out[0:4], f.Channel)
	out[4] = byte(f.Type)
	binary.BigEndian.PutUint32(out[5:9], uint32(len(f.Payload)))
	copy(out[HeaderLen:], f.Payload)
	return out
}

// Decode parses one frame from the start of buf. It returns the frame and
// the number of bytes consumed. If buf does not yet hold a complete frame
// it returns ErrShortBuffer and callers should retry with more data. Any
// other error means the header is malformed and the stream can no longer
// be trusted.
func Decode(buf []byte) (Frame, int, error) {
	var f Frame

	if len(buf) < HeaderLen {
		return f, 0, ErrShortBuffer
	}

	typ := Type(buf[4])
	if typ > TypeProxyReply {
		return f, 0, fmt.Errorf("%w: %d", ErrUnknownType, buf[4])
	}

	length := binary.BigEndian.Uint32(buf[5:9])
	if length > MaxPayload {
		return f, 0, fmt.Errorf("%w: %d > %d", ErrPayloadTooLarge, length, MaxPayload)
	}

	total := HeaderLen + int(length)
	if len(buf) < total {
		return f, 0, ErrShortBuffer
	}

	f.Channel = binary.BigEndian.Uint32(buf[0:4])
	f.Type = typ
	if length > 0 {
		f.Payload = make([]byte, length)
		copy(f.Payload, buf[HeaderLen:total])
	}

	return f, total, nil
}
