// Package shell bridges the session's shell channel to the local
// terminal. With terminal support enabled it also translates local resize
// and job-control events into WindowSize and Signal frames; without it the
// handler degrades to a plain byte pipe and those frame types are never
// produced.
package shell

import (
	"context"
	"fmt"
	"io"

	"revmux/pkg/log"
	"revmux/pkg/pipeio"
	"revmux/pkg/proto"
	"revmux/pkg/session"
	"revmux/pkg/terminal"
)

// Handler connects local stdin/stdout to the remote shell.
type Handler struct {
	sess   *session.Session
	logger *log.Logger

	stream io.ReadWriteCloser
	tty    bool
}

// New creates a shell handler over the session's shell channel. useTerminal
// selects the raw-mode variant; it is ignored unless both sides actually
// have an interactive terminal. transcript optionally names a file that
// records the shell traffic.
func New(sess *session.Session, logger *log.Logger, useTerminal bool, transcript string) (*Handler, error) {
	var stream io.ReadWriteCloser = sess.ShellStream()

	if transcript != "" {
		var err error
		stream, err = log.NewTranscriptStream(stream, transcript)
		if err != nil {
			return nil, fmt.Errorf("enabling transcript %s: %s", transcript, err)
		}
	}

	return &Handler{
		sess:   sess,
		logger: logger,
		stream: stream,
		tty:    useTerminal && sess.RemotePTY() && terminal.IsTerminal(),
	}, nil
}

// Run pipes shell traffic until the channel or session closes. It returns
// once the bridge is down; the terminal is always restored on the way out.
func (h *Handler) Run(ctx context.Context) error {
	if h.tty {
		return h.runWithTerminal(ctx)
	}

	h.pipe(ctx)
	return nil
}

// runWithTerminal is the interactive variant: raw mode for the duration of
// the bridge, resize and signal translation alongside it.
func (h *Handler) runWithTerminal(ctx context.Context) error {
	h.logger.InfoMsg("Enabling raw mode\n")

	guard, err := terminal.EnterRawMode()
	if err != nil {
		return fmt.Errorf("terminal.EnterRawMode(): %s", err)
	}
	defer func() {
		guard.Restore()
		h.logger.InfoMsg("Raw mode disabled\n")
	}()

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	// the remote starts out with our current geometry
	if size, err := terminal.Geometry(); err == nil {
		if err := h.sess.SendWindowSize(size); err != nil {
			return fmt.Errorf("sending initial window size: %s", err)
		}
	}

	go h.syncWindowSize(ctx)
	go h.forwardSignals(ctx)

	h.pipe(ctx)
	return nil
}

func (h *Handler) pipe(ctx context.Context) {
	pipeio.Pipe(ctx, pipeio.NewStdio(), h.stream, func(err error) {
		h.logger.DebugMsg("Shell pipe: %s\n", err)
	})
}

// syncWindowSize forwards local terminal resizes as WindowSize frames.
func (h *Handler) syncWindowSize(ctx context.Context) {
	notifications := terminal.ResizeNotifications(ctx)

	var last proto.Geometry
	for {
		select {
		case _, ok := <-notifications:
			if !ok {
				return
			}

			size, err := terminal.Geometry()
			if err != nil {
				h.logger.DebugMsg("Reading terminal size: %s\n", err)
				continue
			}
			if size == last {
				continue
			}

			if err := h.sess.SendWindowSize(size); err != nil {
				return
			}
			last = size

		case <-ctx.Done():
			return
		}
	}
}

// forwardSignals forwards local job-control signals as Signal frames.
func (h *Handler) forwardSignals(ctx context.Context) {
	signals := terminal.JobControlSignals(ctx)

	for {
		select {
		case num, ok := <-signals:
			if !ok {
				return
			}
			if err := h.sess.SendSignal(num); err != nil {
				return
			}
		case <-ctx.Done():
			return
		}
	}
}
