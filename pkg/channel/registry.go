package channel

import (
	"errors"
	"fmt"
	"math"
	"sync"

	"revmux/pkg/proto"
)

// ErrIDExhausted reports that the session has used up its channel id space.
// It is fatal for the session.
var ErrIDExhausted = errors.New("channel id space exhausted")

// ErrIDReused reports a remote Open whose id is not strictly greater than
// every id seen so far. Ids are never reused while a session is open.
var ErrIDReused = errors.New("channel id reused")

// Registry owns the set of open channels of one session. It allocates ids
// monotonically and is mutated only from the session's dispatch path;
// handlers observe channels through read operations only.
type Registry struct {
	mu    sync.Mutex
	next  uint32
	chans map[uint32]*Channel
}

// NewRegistry creates an empty registry. Channel ids start at 1; id 0 is
// never assigned.
func NewRegistry() *Registry {
	return &Registry{
		next:  1,
		chans: make(map[uint32]*Channel),
	}
}

// Open allocates the next unused id and creates a channel in Open state.
func (r *Registry) Open(kind proto.Kind) (*Channel, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.next == math.MaxUint32 {
		return nil, ErrIDExhausted
	}

	c := newChannel(r.next, kind)
	r.chans[r.next] = c
	r.next++

	return c, nil
}

// Register creates a channel under an id chosen by the remote side. The id
// must be strictly greater than every id allocated or registered so far.
func (r *Registry) Register(id uint32, kind proto.Kind) (*Channel, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if id < r.next {
		return nil, fmt.Errorf("%w: id %d already assigned", ErrIDReused, id)
	}
	if id == math.MaxUint32 {
		return nil, ErrIDExhausted
	}

	c := newChannel(id, kind)
	r.chans[id] = c
	r.next = id + 1

	return c, nil
}

// Lookup returns the channel with the given id, if it is still tracked.
func (r *Registry) Lookup(id uint32) (*Channel, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	c, ok := r.chans[id]
	return c, ok
}

// Close closes the channel with the given id and removes it from the
// registry. Closing an unknown or already-closed id is a no-op.
func (r *Registry) Close(id uint32) {
	r.mu.Lock()
	c, ok := r.chans[id]
	delete(r.chans, id)
	r.mu.Unlock()

	if ok {
		c.Close()
	}
}

// ForEachOpen calls fn for every tracked channel of the given kind. fn must
// not call back into the registry.
func (r *Registry) ForEachOpen(kind proto.Kind, fn func(*Channel)) {
	r.mu.Lock()
	matches := make([]*Channel, 0, len(r.chans))
	for _, c := range r.chans {
		if c.kind == kind {
			matches = append(matches, c)
		}
	}
	r.mu.Unlock()

	for _, c := range matches {
		fn(c)
	}
}

// CloseAll closes and removes every tracked channel.
func (r *Registry) CloseAll() {
	r.mu.Lock()
	all := make([]*Channel, 0, len(r.chans))
	for _, c := range r.chans {
		all = append(all, c)
	}
	r.chans = make(map[uint32]*Channel)
	r.mu.Unlock()

	for _, c := range all {
		c.Close()
	}
}
