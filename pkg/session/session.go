// Package session implements the multiplexer at the heart of a revmux
// connection: it owns the encrypted duplex stream, decodes inbound frames
// and routes them to channel handlers, and serializes all outbound frames
// through a single writer.
//
// Exactly one goroutine reads from the stream (the Run loop) and exactly
// one writes to it (the write loop draining the bounded outbound queue), so
// frame boundaries can never interleave. The channel registry is mutated
// only from these paths; handlers interact with the session through Stream
// values and the typed send helpers.
package session

import (
	"errors"
	"fmt"
	"net"
	"sync"
	"sync/atomic"
	"time"

	"revmux/pkg/channel"
	"revmux/pkg/log"
	"revmux/pkg/proto"
)

// outQueueDepth bounds the outbound frame queue. When the peer stalls,
// producers block on send instead of buffering without limit.
const outQueueDepth = 64

// protocolErrorLimit is the number of recoverable protocol violations
// (frames for unknown channels, unexpected types) tolerated before the
// session is considered unsalvageable and drained.
const protocolErrorLimit = 8

// negotiateTimeout bounds how long we wait for the remote's opening frame.
const negotiateTimeout = 10 * time.Second

// drainFlushTimeout bounds the best-effort flush of queued frames during
// teardown, so a stalled peer cannot hold the drain hostage.
const drainFlushTimeout = 500 * time.Millisecond

// ErrClosed reports an operation on a session that is draining or closed.
var ErrClosed = errors.New("session closed")

// ErrNegotiation reports that the remote's opening exchange was not the
// expected Open(Shell) frame.
var ErrNegotiation = errors.New("negotiation failed")

// ErrProtocolLimit reports that repeated protocol violations exhausted the
// session's tolerance.
var ErrProtocolLimit = errors.New("too many protocol violations")

// ControlHandler consumes terminal-control events arriving on the shell
// channel. Implemented by the ttyctl handler.
type ControlHandler interface {
	HandleWindowSize(proto.Geometry)
	HandleSignal(num byte)
}

// Session multiplexes the logical channels of one accepted callback over
// its encrypted stream. Create with New, then Negotiate, then Run.
type Session struct {
	conn   net.Conn
	dec    *proto.Decoder
	reg    *channel.Registry
	logger *log.Logger

	out chan proto.Frame

	state atomic.Int32

	shell     *channel.Channel
	remotePTY bool

	ctl ControlHandler

	mu             sync.Mutex
	pendingReplies map[uint32]chan byte
	violations     int
	fatalErr       error

	done       chan struct{}
	writerDone chan struct{}
	drainOnce  sync.Once
}

// New wraps an established encrypted stream in a session. The TLS
// handshake has already been driven by the caller; the session starts in
// Handshaking state and begins framing once Negotiate runs.
func New(conn net.Conn, logger *log.Logger) *Session {
	s := &Session{
		conn:           conn,
		dec:            proto.NewDecoder(conn),
		reg:            channel.NewRegistry(),
		logger:         logger,
		out:            make(chan proto.Frame, outQueueDepth),
		pendingReplies: make(map[uint32]chan byte),
		done:           make(chan struct{}),
		writerDone:     make(chan struct{}),
	}
	s.state.Store(int32(StateHandshaking))

	go s.writeLoop()

	return s
}

// State returns the session's current lifecycle state.
func (s *Session) State() State {
	return State(s.state.Load())
}

// RemotePTY reports whether the remote side advertised an interactive
// terminal during negotiation.
func (s *Session) RemotePTY() bool {
	return s.remotePTY
}

// SetControlHandler installs the consumer for inbound WindowSize and
// Signal frames. Must be called before Run.
func (s *Session) SetControlHandler(h ControlHandler) {
	s.ctl = h
}

// Negotiate performs the initial exchange: the remote must open the shell
// channel as its very first frame, advertising PTY availability in the
// Open flags. Anything else aborts the session.
func (s *Session) Negotiate() error {
	s.state.Store(int32(StateNegotiating))

	s.conn.SetReadDeadline(time.Now().Add(negotiateTimeout))
	defer s.conn.SetReadDeadline(time.Time{})

	f, err := s.dec.Next()
	if err != nil {
		s.drain()
		return fmt.Errorf("reading opening frame: %s", err)
	}

	if f.Type != proto.TypeOpen {
		s.drain()
		return fmt.Errorf("%w: first frame was %s, want Open", ErrNegotiation, f.Type)
	}

	open, err := proto.ParseOpenPayload(f.Payload)
	if err != nil {
		s.drain()
		return fmt.Errorf("%w: %s", ErrNegotiation, err)
	}
	if open.Kind != proto.KindShell {
		s.drain()
		return fmt.Errorf("%w: first channel kind was %s, want Shell", ErrNegotiation, open.Kind)
	}

	shell, err := s.reg.Register(f.Channel, proto.KindShell)
	if err != nil {
		s.drain()
		return fmt.Errorf("registering shell channel %d: %s", f.Channel, err)
	}

	s.shell = shell
	s.remotePTY = open.Flags&proto.OpenFlagPTY != 0
	s.state.Store(int32(StateActive))

	return nil
}

// Run drives the steady state: it reads and dispatches frames until the
// stream fails, the remote shuts down orderly, or protocol violations
// exceed the limit. It always leaves the session in Closed state.
func (s *Session) Run() error {
	for {
		f, err := s.dec.Next()
		if err != nil {
			if s.State() >= StateDraining {
				// teardown already in flight, the read error is its echo
				s.drain()
				return s.takeFatal()
			}
			s.drain()
			return fmt.Errorf("reading frame: %s", err)
		}

		if err := s.dispatch(f); err != nil {
			s.drain()
			if errors.Is(err, errOrderlyShutdown) {
				return nil
			}
			return err
		}
	}
}

// errOrderlyShutdown signals the Run loop that the remote closed the shell
// channel and the session should drain without reporting an error.
var errOrderlyShutdown = errors.New("orderly shutdown")

// dispatch routes one inbound frame. A returned error is fatal for the
// session; recoverable violations are counted and swallowed until the
// limit is reached.
func (s *Session) dispatch(f proto.Frame) error {
	switch f.Type {
	case proto.TypeData:
		ch, ok := s.reg.Lookup(f.Channel)
		if !ok {
			return s.violation("Data frame for unknown channel %d", f.Channel)
		}
		if err := ch.Deliver(f.Payload); err != nil {
			// channel closed mid-flight, frame is dropped
			s.logger.DebugMsg("Dropping Data frame for closing channel %d\n", f.Channel)
		}
		return nil

	case proto.TypeClose:
		ch, ok := s.reg.Lookup(f.Channel)
		if !ok {
			return s.violation("Close frame for unknown channel %d", f.Channel)
		}
		if ch == s.shell {
			s.logger.InfoMsg("Remote closed the shell channel\n")
			return errOrderlyShutdown
		}
		s.reg.Close(f.Channel)
		return nil

	case proto.TypeWindowSize:
		if s.shell == nil || f.Channel != s.shell.ID() {
			return s.violation("WindowSize frame outside the shell channel (channel %d)", f.Channel)
		}
		size, err := proto.ParseGeometry(f.Payload)
		if err != nil {
			return s.violation("WindowSize frame: %s", err)
		}
		if s.ctl != nil {
			s.ctl.HandleWindowSize(size)
		}
		return nil

	case proto.TypeSignal:
		if s.shell == nil || f.Channel != s.shell.ID() {
			return s.violation("Signal frame outside the shell channel (channel %d)", f.Channel)
		}
		num, err := proto.ParseSignal(f.Payload)
		if err != nil {
			return s.violation("Signal frame: %s", err)
		}
		if s.ctl != nil {
			s.ctl.HandleSignal(num)
		}
		return nil

	case proto.TypeProxyReply:
		s.mu.Lock()
		replyCh, ok := s.pendingReplies[f.Channel]
		delete(s.pendingReplies, f.Channel)
		s.mu.Unlock()
		if !ok {
			return s.violation("ProxyReply for channel %d with no pending request", f.Channel)
		}
		status, err := proto.ParseProxyReply(f.Payload)
		if err != nil {
			close(replyCh)
			return s.violation("ProxyReply frame: %s", err)
		}
		replyCh <- status
		return nil

	case proto.TypeOpen:
		// the remote only opens the shell channel, and only during negotiation
		return s.violation("unexpected Open frame for channel %d", f.Channel)

	case proto.TypeProxyConnect:
		return s.violation("unexpected ProxyConnect frame for channel %d", f.Channel)

	default:
		return s.violation("unexpected frame type %s", f.Type)
	}
}

// violation records a recoverable protocol error. The offending frame is
// dropped; once violations reach protocolErrorLimit the session gives up.
func (s *Session) violation(format string, a ...interface{}) error {
	s.mu.Lock()
	s.violations++
	count := s.violations
	s.mu.Unlock()

	s.logger.ErrorMsg("Protocol violation (%d/%d): "+format+"\n",
		append([]interface{}{count, protocolErrorLimit}, a...)...)

	if count >= protocolErrorLimit {
		return fmt.Errorf("%w (%d)", ErrProtocolLimit, count)
	}
	return nil
}

// send queues a frame for transmission. It blocks while the outbound queue
// is full, bounding memory under a stalled peer, and fails once the
// session is draining.
func (s *Session) send(f proto.Frame) error {
	select {
	case <-s.done:
		return ErrClosed
	default:
	}

	select {
	case s.out <- f:
		return nil
	case <-s.done:
		return ErrClosed
	}
}

// trySend queues a frame without blocking. Used during teardown when the
// write loop may already be gone.
func (s *Session) trySend(f proto.Frame) {
	select {
	case s.out <- f:
	default:
	}
}

// writeLoop is the only goroutine that writes to the stream. It drains the
// outbound queue until the session closes, then flushes whatever is still
// queued best-effort.
func (s *Session) writeLoop() {
	defer close(s.writerDone)

	for {
		select {
		case f := <-s.out:
			if _, err := s.conn.Write(f.Encode()); err != nil {
				s.setFatal(fmt.Errorf("writing frame: %s", err))
				go s.drain()
				return
			}
		case <-s.done:
			s.conn.SetWriteDeadline(time.Now().Add(drainFlushTimeout))
			for {
				select {
				case f := <-s.out:
					if _, err := s.conn.Write(f.Encode()); err != nil {
						return // best effort only
					}
				default:
					return
				}
			}
		}
	}
}

// SendWindowSize sends the local terminal geometry on the shell channel.
func (s *Session) SendWindowSize(size proto.Geometry) error {
	if s.shell == nil {
		return fmt.Errorf("no shell channel")
	}
	return s.send(proto.Frame{Channel: s.shell.ID(), Type: proto.TypeWindowSize, Payload: size.Encode()})
}

// SendSignal sends a job-control signal number on the shell channel.
func (s *Session) SendSignal(num byte) error {
	if s.shell == nil {
		return fmt.Errorf("no shell channel")
	}
	return s.send(proto.Frame{Channel: s.shell.ID(), Type: proto.TypeSignal, Payload: []byte{num}})
}

// ShellStream returns the byte stream of the shell channel.
func (s *Session) ShellStream() *Stream {
	return &Stream{s: s, ch: s.shell}
}

// Done returns a channel closed once the session starts tearing down.
func (s *Session) Done() <-chan struct{} {
	return s.done
}

// Close drains the session from the local side. Safe to call at any time
// and from any goroutine, including concurrently with Run.
func (s *Session) Close() error {
	s.drain()
	return nil
}

// setFatal records the first stream-level failure so Run can report it.
func (s *Session) setFatal(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.fatalErr == nil {
		s.fatalErr = err
	}
}

func (s *Session) takeFatal() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.fatalErr
}

// drain performs the orderly teardown: force-close all proxy channels with
// best-effort Close frames, cancel all channel I/O, flush queued writes,
// and release the stream.
func (s *Session) drain() {
	s.drainOnce.Do(func() {
		s.state.Store(int32(StateDraining))

		s.reg.ForEachOpen(proto.KindProxy, func(c *channel.Channel) {
			s.trySend(proto.Frame{Channel: c.ID(), Type: proto.TypeClose})
		})
		s.reg.CloseAll()

		s.mu.Lock()
		for id, replyCh := range s.pendingReplies {
			close(replyCh)
			delete(s.pendingReplies, id)
		}
		s.mu.Unlock()

		close(s.done)
		// the writer may be parked inside conn.Write against a peer that
		// stopped reading; the deadline kicks it loose
		s.conn.SetWriteDeadline(time.Now().Add(drainFlushTimeout))
		<-s.writerDone
		s.conn.Close()

		s.state.Store(int32(StateClosed))
	})
}
