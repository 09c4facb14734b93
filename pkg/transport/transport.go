// Package transport provides the listener transports a handler can wait
// on. Each transport exposes a ListenAndServe function that blocks until
// the context is cancelled, invoking the handler for every connection it
// accepts:
//
//	err := tcp.ListenAndServe(ctx, ":8443", handler, logger)
//	err := ws.ListenAndServeWSS(ctx, ":443", handler, logger)
//	err := kcp.ListenAndServe(ctx, ":8443", handler, logger)
//
// Transports deliver raw byte streams. Session-level TLS is layered on top
// by the caller, so a wss listener carries TLS twice: once for the benefit
// of middleboxes, once for mutual authentication.
package transport

import "net"

// Handler processes one accepted connection. The connection is closed
// after the handler returns.
type Handler func(net.Conn) error
