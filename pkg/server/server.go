// Package server runs the listening side: it waits for a callback on the
// configured transport, authenticates it with mutual TLS, and attaches the
// interactive handlers to the resulting session. One session is served at
// a time; additional callbacks are turned away until it ends.
package server

import (
	"context"
	"crypto/tls"
	"fmt"
	"net"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"revmux/pkg/config"
	"revmux/pkg/crypto"
	"revmux/pkg/handler/proxy"
	"revmux/pkg/handler/shell"
	"revmux/pkg/handler/ttyctl"
	"revmux/pkg/log"
	"revmux/pkg/session"
	"revmux/pkg/transport/kcp"
	"revmux/pkg/transport/tcp"
	"revmux/pkg/transport/ws"
)

// handshakeTimeout bounds the TLS handshake with a callback.
const handshakeTimeout = 10 * time.Second

// Server owns the listener lifecycle for one invocation.
type Server struct {
	cfg    *config.Config
	logger *log.Logger

	tlsCfg *tls.Config
	busy   atomic.Bool
}

// New prepares a server: the TLS identity is derived up front so key
// problems surface before we bind the port.
func New(cfg *config.Config, logger *log.Logger) (*Server, error) {
	tlsCfg, err := crypto.ServerTLSConfig(cfg.GetKey())
	if err != nil {
		return nil, fmt.Errorf("crypto.ServerTLSConfig(): %s", err)
	}

	return &Server{
		cfg:    cfg,
		logger: logger,
		tlsCfg: tlsCfg,
	}, nil
}

// Serve listens on the configured transport and blocks until the context
// is cancelled or the listener fails.
func (s *Server) Serve(ctx context.Context) error {
	addr := fmt.Sprintf("%s:%d", s.cfg.Host, s.cfg.Port)

	switch s.cfg.Transport {
	case config.TransportWS:
		return ws.ListenAndServeWS(ctx, addr, s.handle(ctx), s.logger)
	case config.TransportWSS:
		return ws.ListenAndServeWSS(ctx, addr, s.handle(ctx), s.logger)
	case config.TransportKCP:
		return kcp.ListenAndServe(ctx, addr, s.handle(ctx), s.logger)
	default:
		return tcp.ListenAndServe(ctx, addr, s.handle(ctx), s.logger)
	}
}

// handle returns the per-connection callback for the transport. Only one
// session runs at a time: latecomers are dropped immediately so they can
// retry once the active session ends.
func (s *Server) handle(ctx context.Context) func(conn net.Conn) error {
	return func(conn net.Conn) error {
		if !s.busy.CompareAndSwap(false, true) {
			return fmt.Errorf("already serving a session, dropping %s", conn.RemoteAddr())
		}
		defer s.busy.Store(false)

		id := uuid.NewString()[:8]

		tlsConn := tls.Server(conn, s.tlsCfg)
		tlsConn.SetDeadline(time.Now().Add(handshakeTimeout))
		if err := tlsConn.HandshakeContext(ctx); err != nil {
			tlsConn.Close()
			return fmt.Errorf("TLS handshake with %s: %s", conn.RemoteAddr(), err)
		}
		tlsConn.SetDeadline(time.Time{})

		s.logger.InfoMsg("Session %s established with %s\n", id, conn.RemoteAddr())
		defer s.logger.InfoMsg("Session %s ended\n", id)

		return s.serveSession(ctx, tlsConn)
	}
}

// serveSession drives one negotiated session to completion.
func (s *Server) serveSession(ctx context.Context, conn net.Conn) error {
	sess := session.New(conn, s.logger)
	defer sess.Close()

	if err := sess.Negotiate(); err != nil {
		return fmt.Errorf("negotiating session: %s", err)
	}

	sess.SetControlHandler(ttyctl.New(s.logger))

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	runErr := make(chan error, 1)
	go func() {
		runErr <- sess.Run()
		cancel()
	}()

	if s.cfg.Socks != nil {
		psrv, err := proxy.NewServer(proxy.Config{
			LocalHost: s.cfg.Socks.Host,
			LocalPort: s.cfg.Socks.Port,
			Logger:    s.logger,
		}, sess)
		if err != nil {
			return fmt.Errorf("starting SOCKS listener: %s", err)
		}
		defer psrv.Close()

		s.logger.InfoMsg("SOCKS4 proxy listening on %s\n", psrv.Addr())
		go func() {
			if err := psrv.Serve(ctx); err != nil {
				s.logger.ErrorMsg("SOCKS listener: %s\n", err)
			}
		}()
	}

	sh, err := shell.New(sess, s.logger, s.cfg.Pty, s.cfg.LogFile)
	if err != nil {
		return fmt.Errorf("attaching shell: %s", err)
	}
	if err := sh.Run(ctx); err != nil {
		s.logger.ErrorMsg("Shell handler: %s\n", err)
	}

	sess.Close()
	if err := <-runErr; err != nil {
		return fmt.Errorf("session: %s", err)
	}

	return nil
}
