//go:build linux || darwin
// +build linux darwin

package terminal

import (
	"context"
	"os"
	"os/signal"

	"golang.org/x/sys/unix"
)

// ResizeNotifications delivers one value per SIGWINCH until ctx is
// cancelled. The returned channel is closed on cancellation.
func ResizeNotifications(ctx context.Context) <-chan struct{} {
	out := make(chan struct{}, 1)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, unix.SIGWINCH)

	go func() {
		defer close(out)
		defer signal.Stop(sigCh)

		for {
			select {
			case <-sigCh:
				select {
				case out <- struct{}{}:
				default: // coalesce bursts
				}
			case <-ctx.Done():
				return
			}
		}
	}()

	return out
}

// JobControlSignals delivers interactive job-control signals (interrupt,
// quit, suspend) until ctx is cancelled. In raw mode the terminal driver no
// longer generates these from keystrokes, but externally delivered signals
// still arrive here instead of killing the session.
func JobControlSignals(ctx context.Context) <-chan byte {
	out := make(chan byte, 4)

	sigCh := make(chan os.Signal, 4)
	signal.Notify(sigCh, unix.SIGINT, unix.SIGQUIT, unix.SIGTSTP)

	go func() {
		defer close(out)
		defer signal.Stop(sigCh)

		for {
			select {
			case sig := <-sigCh:
				num, ok := signalNumber(sig)
				if !ok {
					continue
				}
				select {
				case out <- num:
				case <-ctx.Done():
					return
				}
			case <-ctx.Done():
				return
			}
		}
	}()

	return out
}

func signalNumber(sig os.Signal) (byte, bool) {
	s, ok := sig.(unix.Signal)
	if !ok || s <= 0 || s > 31 {
		return 0, false
	}
	return byte(s), true
}
