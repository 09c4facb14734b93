// Package socks implements the SOCKS4 negotiation spoken with local proxy
// clients. Only the CONNECT command is supported; the username field is
// read and ignored.
package socks

import "errors"

// Version4 is the only SOCKS version we support.
const Version4 = byte(0x04)

// ############################
// ########## Commands ########
// ############################

// Cmd is a SOCKS4 command.
type Cmd byte

// CommandConnect is the only command we support. Bind is rejected.
const (
	CommandConnect Cmd = 0x01
	CommandBind    Cmd = 0x02
)

// ErrBadVersion indicates the client did not speak SOCKS4.
var ErrBadVersion = errors.New("unsupported SOCKS version")

// ErrCommandNotSupported indicates a request for anything but CONNECT.
var ErrCommandNotSupported = errors.New("command not supported")

// ErrBadRequest indicates a structurally invalid request from a connected
// client, such as an oversized username field. The client deserves a
// rejection reply, unlike one that hung up mid-request.
var ErrBadRequest = errors.New("malformed request")

// #############################
// ########## Replies ##########
// #############################

// Rep is the status code of a SOCKS4 reply.
type Rep byte

// ReplyGranted indicates success, ReplyRejected any failure. SOCKS4 has
// finer-grained failure codes for identd mismatches, but this server never
// consults identd.
const (
	ReplyGranted  Rep = 90
	ReplyRejected Rep = 91
)

// maxUserIDLen bounds the null-terminated username field so a misbehaving
// client cannot stream bytes forever.
const maxUserIDLen = 255
