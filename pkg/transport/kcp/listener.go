// Package kcp is the KCP transport: a reliable stream over UDP for
// networks where TCP callbacks are shaped or blocked.
package kcp

import (
	"context"
	"fmt"

	kcpgo "github.com/xtaci/kcp-go/v5"

	"revmux/pkg/log"
	"revmux/pkg/transport"
)

// FEC parameters: 10 data shards, 3 parity shards.
const (
	dataShards   = 10
	parityShards = 3
)

// ListenAndServe accepts KCP sessions on the UDP addr and hands each to
// handler on its own goroutine. It blocks until the context is cancelled
// or the listener fails.
func ListenAndServe(ctx context.Context, addr string, handler transport.Handler, logger *log.Logger) error {
	nl, err := kcpgo.ListenWithOptions(addr, nil, dataShards, parityShards)
	if err != nil {
		return fmt.Errorf("kcp.ListenWithOptions(%s): %s", addr, err)
	}

	stop := context.AfterFunc(ctx, func() { nl.Close() })
	defer stop()
	defer nl.Close()

	for {
		conn, err := nl.AcceptKCP()
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return fmt.Errorf("AcceptKCP(): %s", err)
		}

		// interactive traffic: favor latency over throughput
		conn.SetStreamMode(true)
		conn.SetWriteDelay(false)
		conn.SetNoDelay(1, 10, 2, 1)

		logger.InfoMsg("New KCP connection from %s\n", conn.RemoteAddr())

		go func() {
			defer conn.Close()
			if err := handler(conn); err != nil {
				logger.ErrorMsg("Handling connection from %s: %s\n", conn.RemoteAddr(), err)
			}
		}()
	}
}
