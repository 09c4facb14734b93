// Package channel tracks the logical channels multiplexed over a session:
// their ids, kinds, lifecycle state and per-channel delivery queues.
package channel

import (
	"errors"
	"io"
	"sync"

	"revmux/pkg/proto"
)

// State is the lifecycle state of a channel.
type State int

// Channel lifecycle states.
const (
	StateOpen State = iota
	StateClosing
	StateClosed
)

func (s State) String() string {
	switch s {
	case StateOpen:
		return "Open"
	case StateClosing:
		return "Closing"
	case StateClosed:
		return "Closed"
	default:
		return "Invalid"
	}
}

// ErrClosed reports an operation on a channel that is no longer open.
var ErrClosed = errors.New("channel closed")

// queueDepth bounds the number of pending inbound payloads per channel.
// A full queue makes Deliver block, pushing backpressure onto the session's
// read loop rather than buffering without bound.
const queueDepth = 32

// Channel is one logical sub-stream of a session. Inbound payloads are
// queued by the session's dispatch loop via Deliver and drained by the
// channel's handler via Read.
type Channel struct {
	id   uint32
	kind proto.Kind

	inbound chan []byte
	closed  chan struct{}

	mu       sync.Mutex
	state    State
	leftover []byte

	closeOnce sync.Once
}

func newChannel(id uint32, kind proto.Kind) *Channel {
	return &Channel{
		id:      id,
		kind:    kind,
		inbound: make(chan []byte, queueDepth),
		closed:  make(chan struct{}),
	}
}

// ID returns the channel id, unique within its session.
func (c *Channel) ID() uint32 { return c.id }

// Kind returns what the channel carries.
func (c *Channel) Kind() proto.Kind { return c.kind }

// State returns the current lifecycle state.
func (c *Channel) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Deliver queues an inbound payload for the channel's handler. It blocks
// while the queue is full and returns ErrClosed if the channel closes
// before the payload can be queued.
func (c *Channel) Deliver(p []byte) error {
	select {
	case <-c.closed:
		return ErrClosed
	default:
	}

	select {
	case c.inbound <- p:
		return nil
	case <-c.closed:
		return ErrClosed
	}
}

// Read drains queued payloads, making the channel usable as the read side
// of an io stream. After Close it keeps returning queued data until the
// queue is empty, then reports io.EOF and completes the transition to
// StateClosed.
func (c *Channel) Read(p []byte) (int, error) {
	c.mu.Lock()
	if len(c.leftover) > 0 {
		n := copy(p, c.leftover)
		c.leftover = c.leftover[n:]
		c.mu.Unlock()
		return n, nil
	}
	c.mu.Unlock()

	select {
	case data := <-c.inbound:
		return c.consume(p, data), nil
	case <-c.closed:
		// drain whatever was queued before the close
		select {
		case data := <-c.inbound:
			return c.consume(p, data), nil
		default:
			c.mu.Lock()
			c.state = StateClosed
			c.mu.Unlock()
			return 0, io.EOF
		}
	}
}

func (c *Channel) consume(p, data []byte) int {
	n := copy(p, data)
	if n < len(data) {
		c.mu.Lock()
		c.leftover = data[n:]
		c.mu.Unlock()
	}
	return n
}

// Close moves the channel to StateClosing and cancels any Deliver or Read
// blocked on its queue. Closing an already-closed channel is a no-op.
func (c *Channel) Close() error {
	c.closeOnce.Do(func() {
		c.mu.Lock()
		c.state = StateClosing
		c.mu.Unlock()
		close(c.closed)
	})
	return nil
}

// Done returns a channel that is closed once Close has been called.
func (c *Channel) Done() <-chan struct{} {
	return c.closed
}
