package socks

import (
	"encoding/binary"
	"fmt"
	"io"
)

// ################### Request ######################### //
//
// https://www.openssh.com/txt/socks4.protocol
//
//	+----+----+----+----+----+----+----+----+----+----+....+----+
//	| VN | CD | DSTPORT |      DSTIP        | USERID       |NULL|
//	+----+----+----+----+----+----+----+----+----+----+....+----+
//	   1    1      2              4           variable       1

// Request is a SOCKS4 CONNECT request naming the destination the client
// wants relayed through the remote side.
type Request struct {
	Cmd     Cmd
	DstIP   [4]byte
	DstPort uint16
	UserID  string
}

// ReadRequest reads a complete SOCKS4 request from r. Version or command
// mismatches are reported as ErrBadVersion / ErrCommandNotSupported so the
// caller can answer with a rejection reply.
func ReadRequest(r io.Reader) (*Request, error) {
	var out Request

	header := make([]byte, 8)
	if _, err := io.ReadFull(r, header); err != nil {
		return nil, fmt.Errorf("reading request header: %s", err)
	}

	if header[0] != Version4 {
		return nil, fmt.Errorf("%w: %d", ErrBadVersion, header[0])
	}

	switch Cmd(header[1]) {
	case CommandConnect:
		out.Cmd = CommandConnect
	default:
		return nil, fmt.Errorf("%w: %d", ErrCommandNotSupported, header[1])
	}

	out.DstPort = binary.BigEndian.Uint16(header[2:4])
	copy(out.DstIP[:], header[4:8])

	userID, err := readUserID(r)
	if err != nil {
		return nil, fmt.Errorf("reading user id: %w", err)
	}
	out.UserID = userID

	return &out, nil
}

// readUserID consumes the null-terminated username field.
func readUserID(r io.Reader) (string, error) {
	var out []byte

	b := []byte{0}
	for {
		if _, err := io.ReadFull(r, b); err != nil {
			return "", err
		}
		if b[0] == 0x00 {
			return string(out), nil
		}
		if len(out) >= maxUserIDLen {
			return "", fmt.Errorf("%w: user id longer than %d bytes", ErrBadRequest, maxUserIDLen)
		}
		out = append(out, b[0])
	}
}

// ######## Reply ######## //
//
//	+----+----+----+----+----+----+----+----+
//	| VN | CD | DSTPORT |      DSTIP        |
//	+----+----+----+----+----+----+----+----+
//	   1    1      2              4
//
// VN is 0 in replies. DSTPORT/DSTIP echo the request's destination.

// WriteReplyGranted tells the client its connection was relayed. Port and
// ip echo the destination from the request.
func WriteReplyGranted(w io.Writer, ip [4]byte, port uint16) error {
	return writeReply(w, ReplyGranted, ip, port)
}

// WriteReplyRejected tells the client its request failed or was refused.
func WriteReplyRejected(w io.Writer) error {
	return writeReply(w, ReplyRejected, [4]byte{}, 0)
}

func writeReply(w io.Writer, rep Rep, ip [4]byte, port uint16) error {
	out := make([]byte, 8)
	out[0] = 0x00
	out[1] = byte(rep)
	binary.BigEndian.PutUint16(out[2:4], port)
	copy(out[4:8], ip[:])

	if _, err := w.Write(out); err != nil {
		return fmt.Errorf("writing reply: %s", err)
	}

	return nil
}
