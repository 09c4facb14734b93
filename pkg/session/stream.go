package session

import (
	"context"
	"fmt"

	"revmux/pkg/channel"
	"revmux/pkg/proto"
)

// Stream exposes one logical channel as an io.ReadWriteCloser: reads drain
// the channel's inbound queue, writes become Data frames on the session's
// outbound queue. Each Stream has a single owning handler, so calls are
// not synchronized against each other.
type Stream struct {
	s  *Session
	ch *channel.Channel
}

// ID returns the underlying channel id.
func (st *Stream) ID() uint32 {
	return st.ch.ID()
}

// Read returns the next inbound payload bytes for the channel. It reports
// io.EOF once the channel is closed and drained.
func (st *Stream) Read(p []byte) (int, error) {
	return st.ch.Read(p)
}

// Write sends p as one or more Data frames, splitting at the protocol's
// payload limit. It blocks while the outbound queue is full.
func (st *Stream) Write(p []byte) (int, error) {
	var written int

	for len(p) > 0 {
		n := len(p)
		if n > proto.MaxPayload {
			n = proto.MaxPayload
		}

		// the frame outlives the caller's buffer
		payload := make([]byte, n)
		copy(payload, p[:n])

		if err := st.s.send(proto.Frame{Channel: st.ch.ID(), Type: proto.TypeData, Payload: payload}); err != nil {
			return written, err
		}

		written += n
		p = p[n:]
	}

	return written, nil
}

// Close closes the channel on both sides: a Close frame is sent to the
// remote (best effort once the session is draining) and the local entry is
// removed. Closing twice is a no-op.
func (st *Stream) Close() error {
	if _, ok := st.s.reg.Lookup(st.ch.ID()); !ok {
		return nil
	}

	st.s.trySend(proto.Frame{Channel: st.ch.ID(), Type: proto.TypeClose})
	st.s.reg.Close(st.ch.ID())

	return nil
}

// OpenProxy allocates a Proxy channel, announces it to the remote side
// with an Open and a ProxyConnect frame, and waits for the remote's
// ProxyReply. It returns the relay stream and the reply status byte
// (proto.ProxyReplySuccess on success). On failure the channel is already
// closed again when OpenProxy returns.
func (s *Session) OpenProxy(ctx context.Context, dst proto.ProxyConnect) (*Stream, byte, error) {
	ch, err := s.reg.Open(proto.KindProxy)
	if err != nil {
		return nil, 0, fmt.Errorf("allocating proxy channel: %s", err)
	}

	replyCh := make(chan byte, 1)
	s.mu.Lock()
	s.pendingReplies[ch.ID()] = replyCh
	s.mu.Unlock()

	abort := func() {
		s.mu.Lock()
		delete(s.pendingReplies, ch.ID())
		s.mu.Unlock()
		s.trySend(proto.Frame{Channel: ch.ID(), Type: proto.TypeClose})
		s.reg.Close(ch.ID())
	}

	open := proto.OpenPayload{Kind: proto.KindProxy}
	if err := s.send(proto.Frame{Channel: ch.ID(), Type: proto.TypeOpen, Payload: open.Encode()}); err != nil {
		abort()
		return nil, 0, fmt.Errorf("sending Open frame: %s", err)
	}
	if err := s.send(proto.Frame{Channel: ch.ID(), Type: proto.TypeProxyConnect, Payload: dst.Encode()}); err != nil {
		abort()
		return nil, 0, fmt.Errorf("sending ProxyConnect frame: %s", err)
	}

	select {
	case status, ok := <-replyCh:
		if !ok {
			abort()
			return nil, 0, fmt.Errorf("waiting for ProxyReply: %w", ErrClosed)
		}
		if status != proto.ProxyReplySuccess {
			abort()
			return nil, status, nil
		}
		return &Stream{s: s, ch: ch}, status, nil

	case <-ch.Done():
		abort()
		return nil, 0, fmt.Errorf("proxy channel closed while waiting for ProxyReply")

	case <-s.done:
		abort()
		return nil, 0, ErrClosed

	case <-ctx.Done():
		abort()
		return nil, 0, ctx.Err()
	}
}
