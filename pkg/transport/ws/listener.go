// Package ws is the WebSocket transport. Callbacks arrive as HTTP upgrade
// requests; accepted sockets are exposed as binary-message net.Conns. The
// wss variant adds transport-level TLS with a throwaway certificate so the
// traffic looks like ordinary HTTPS on the wire.
package ws

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/coder/websocket"

	"revmux/pkg/crypto"
	"revmux/pkg/log"
	"revmux/pkg/transport"
)

// maxPendingUpgrades bounds concurrent HTTP upgrade handling. Extra
// requests receive 503.
const maxPendingUpgrades = 100

// ListenAndServeWS serves plain WebSocket connections on addr. It blocks
// until the context is cancelled or the listener fails.
func ListenAndServeWS(ctx context.Context, addr string, handler transport.Handler, logger *log.Logger) error {
	return listenAndServe(ctx, addr, handler, logger, false)
}

// ListenAndServeWSS serves WebSocket connections over TLS on addr. The
// certificate is ephemeral; peer authentication happens at the session
// layer, not here.
func ListenAndServeWSS(ctx context.Context, addr string, handler transport.Handler, logger *log.Logger) error {
	return listenAndServe(ctx, addr, handler, logger, true)
}

func listenAndServe(ctx context.Context, addr string, handler transport.Handler, logger *log.Logger, useTLS bool) error {
	nl, err := newNetListener(addr, useTLS)
	if err != nil {
		return err
	}
	defer nl.Close()

	server := &http.Server{
		Handler: upgradeHandler(ctx, handler, logger),

		// long-lived tunnel connections: only header reads are bounded
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.Serve(nl)
	}()

	select {
	case <-ctx.Done():
		nl.Close()
		if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) && !errors.Is(err, net.ErrClosed) {
			return fmt.Errorf("serving after cancellation: %s", err)
		}
		return nil

	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http.Server.Serve(): %s", err)
		}
		return nil
	}
}

func newNetListener(addr string, useTLS bool) (net.Listener, error) {
	tcpAddr, err := net.ResolveTCPAddr("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("net.ResolveTCPAddr(tcp, %s): %s", addr, err)
	}

	var nl net.Listener
	nl, err = net.ListenTCP("tcp", tcpAddr)
	if err != nil {
		return nil, fmt.Errorf("listen(tcp, %s): %s", addr, err)
	}

	if useTLS {
		id, err := crypto.NewIdentity("")
		if err != nil {
			nl.Close()
			return nil, fmt.Errorf("crypto.NewIdentity(): %s", err)
		}
		nl = tls.NewListener(nl, &tls.Config{
			Certificates: []tls.Certificate{id.Cert},
			MinVersion:   tls.VersionTLS13,
		})
	}

	return nl, nil
}

// upgradeHandler turns upgrade requests into handler calls, with a bounded
// number of in-flight connections.
func upgradeHandler(ctx context.Context, handler transport.Handler, logger *log.Logger) http.HandlerFunc {
	sem := make(chan struct{}, maxPendingUpgrades)

	return func(w http.ResponseWriter, r *http.Request) {
		select {
		case sem <- struct{}{}:
			defer func() { <-sem }()
		default:
			http.Error(w, http.StatusText(http.StatusServiceUnavailable), http.StatusServiceUnavailable)
			return
		}

		c, err := websocket.Accept(w, r, &websocket.AcceptOptions{
			Subprotocols: []string{"bin"},
		})
		if err != nil {
			logger.ErrorMsg("websocket.Accept(): %s\n", err)
			return
		}

		conn := websocket.NetConn(ctx, c, websocket.MessageBinary)
		defer conn.Close()

		logger.InfoMsg("New WS connection from %s\n", r.RemoteAddr)

		defer func() {
			if rec := recover(); rec != nil {
				logger.ErrorMsg("Handler panic: %v\n", rec)
			}
		}()

		if err := handler(conn); err != nil {
			logger.ErrorMsg("Handling connection from %s: %s\n", r.RemoteAddr, err)
		}
	}
}
