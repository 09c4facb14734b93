// Package tcp is the plain TCP transport.
package tcp

import (
	"context"
	"errors"
	"fmt"
	"net"
	"time"

	"github.com/jpillora/backoff"

	"revmux/pkg/log"
	"revmux/pkg/transport"
)

// ListenAndServe accepts TCP connections on addr and hands each to
// handler on its own goroutine. It blocks until the context is cancelled
// or the listener fails permanently. Transient accept errors are retried
// with exponential backoff.
func ListenAndServe(ctx context.Context, addr string, handler transport.Handler, logger *log.Logger) error {
	tcpAddr, err := net.ResolveTCPAddr("tcp", addr)
	if err != nil {
		return fmt.Errorf("net.ResolveTCPAddr(tcp, %s): %s", addr, err)
	}

	nl, err := net.ListenTCP("tcp", tcpAddr)
	if err != nil {
		return fmt.Errorf("listen(tcp, %s): %s", addr, err)
	}

	stop := context.AfterFunc(ctx, func() { nl.Close() })
	defer stop()
	defer nl.Close()

	bo := &backoff.Backoff{Factor: 2, Jitter: true}

	for {
		conn, err := nl.Accept()
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}

			var ne net.Error
			if errors.As(err, &ne) && ne.Timeout() {
				d := bo.Duration()
				logger.DebugMsg("Accept(): %s, retrying in %s\n", err, d)
				select {
				case <-ctx.Done():
					return nil
				case <-time.After(d):
				}
				continue
			}

			return fmt.Errorf("Accept(): %s", err)
		}
		bo.Reset()

		logger.InfoMsg("New TCP connection from %s\n", conn.RemoteAddr())

		go func() {
			defer conn.Close()
			if err := handler(conn); err != nil {
				logger.ErrorMsg("Handling connection from %s: %s\n", conn.RemoteAddr(), err)
			}
		}()
	}
}
