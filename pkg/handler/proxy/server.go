// Package proxy runs the local SOCKS4 listener of a session. Each
// accepted client is negotiated, bound to a fresh Proxy channel, and then
// relayed through the remote side. A failed SOCKS4 handshake is reported
// to the client without ever opening a remote channel, so channel-id space
// is only spent on viable requests.
package proxy

import (
	"context"
	"errors"
	"fmt"
	"net"
	"time"

	"revmux/pkg/log"
	"revmux/pkg/pipeio"
	"revmux/pkg/proto"
	"revmux/pkg/session"
	"revmux/pkg/socks"
)

// negotiateTimeout bounds the SOCKS4 handshake with a local client.
const negotiateTimeout = 10 * time.Second

// Config configures the local SOCKS4 listener.
type Config struct {
	LocalHost string
	LocalPort int

	Logger *log.Logger
}

func (cfg Config) String() string {
	return fmt.Sprintf("%s:%d", cfg.LocalHost, cfg.LocalPort)
}

// Server accepts local SOCKS4 clients and relays them through the session.
type Server struct {
	cfg  Config
	sess *session.Session

	listener net.Listener
}

// NewServer binds the local listener.
func NewServer(cfg Config, sess *session.Session) (*Server, error) {
	addr := fmt.Sprintf("%s:%d", cfg.LocalHost, cfg.LocalPort)

	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("listen(tcp, %s): %s", addr, err)
	}

	return &Server{
		cfg:      cfg,
		sess:     sess,
		listener: listener,
	}, nil
}

// Addr returns the bound listener address.
func (srv *Server) Addr() net.Addr {
	return srv.listener.Addr()
}

// Serve accepts clients until the context is cancelled or the session
// tears down. Each client is handled on its own goroutine; a client's
// failure never affects the session or other clients.
func (srv *Server) Serve(ctx context.Context) error {
	go func() {
		select {
		case <-ctx.Done():
		case <-srv.sess.Done():
		}
		srv.listener.Close()
	}()

	for {
		conn, err := srv.listener.Accept()
		if err != nil {
			select {
			case <-ctx.Done():
				return nil
			case <-srv.sess.Done():
				return nil
			default:
				return fmt.Errorf("Accept(): %s", err)
			}
		}

		go srv.handle(ctx, conn)
	}
}

// Close shuts the listener down.
func (srv *Server) Close() error {
	return srv.listener.Close()
}

// handle drives one client through the proxy state machine: negotiate
// SOCKS4, open the channel, await the remote's verdict, then relay.
func (srv *Server) handle(ctx context.Context, conn net.Conn) {
	conn.SetReadDeadline(time.Now().Add(negotiateTimeout))

	req, err := socks.ReadRequest(conn)
	if err != nil {
		srv.cfg.Logger.DebugMsg("SOCKS4 negotiation with %s: %s\n", conn.RemoteAddr(), err)
		if errors.Is(err, socks.ErrBadVersion) || errors.Is(err, socks.ErrCommandNotSupported) || errors.Is(err, socks.ErrBadRequest) {
			socks.WriteReplyRejected(conn) // best effort
		}
		conn.Close()
		return
	}
	conn.SetReadDeadline(time.Time{})

	dst := proto.ProxyConnect{IP: req.DstIP, Port: req.DstPort}

	stream, status, err := srv.sess.OpenProxy(ctx, dst)
	if err != nil {
		srv.cfg.Logger.DebugMsg("Opening proxy channel for %s: %s\n", dst.Addr(), err)
		socks.WriteReplyRejected(conn) // best effort
		conn.Close()
		return
	}
	if status != proto.ProxyReplySuccess {
		srv.cfg.Logger.DebugMsg("Remote refused connect to %s (status %d)\n", dst.Addr(), status)
		socks.WriteReplyRejected(conn) // best effort
		conn.Close()
		return
	}

	if err := socks.WriteReplyGranted(conn, req.DstIP, req.DstPort); err != nil {
		srv.cfg.Logger.DebugMsg("Replying to %s: %s\n", conn.RemoteAddr(), err)
		stream.Close()
		conn.Close()
		return
	}

	srv.relay(ctx, conn, stream, dst)
}

// relay moves bytes in both directions until either side closes.
func (srv *Server) relay(ctx context.Context, conn net.Conn, stream *session.Stream, dst proto.ProxyConnect) {
	counted := &countedStream{inner: stream}

	pipeio.Pipe(ctx, conn, counted, func(err error) {
		srv.cfg.Logger.DebugMsg("Relay for %s: %s\n", dst.Addr(), err)
	})

	srv.cfg.Logger.DebugMsg("Proxy connection to %s done: %d bytes out, %d bytes in\n",
		dst.Addr(), counted.BytesOut(), counted.BytesIn())
}
