// Package ttyctl consumes terminal-control frames arriving on the shell
// channel and applies them locally: it tracks the remote's last announced
// terminal geometry and re-raises forwarded job-control signals. It is
// purely reactive and owns no channel of its own.
package ttyctl

import (
	"sync"

	"revmux/pkg/log"
	"revmux/pkg/proto"
)

// Handler applies inbound WindowSize and Signal frames. It implements
// session.ControlHandler.
type Handler struct {
	logger *log.Logger

	mu       sync.Mutex
	geometry proto.Geometry
}

// New creates a Handler.
func New(logger *log.Logger) *Handler {
	return &Handler{logger: logger}
}

// HandleWindowSize records the geometry announced by the remote side. The
// stored value always reflects the most recent announcement.
func (h *Handler) HandleWindowSize(size proto.Geometry) {
	h.mu.Lock()
	h.geometry = size
	h.mu.Unlock()

	h.logger.DebugMsg("Remote terminal resized to %dx%d\n", size.Rows, size.Cols)
}

// Geometry returns the last geometry announced by the remote side.
func (h *Handler) Geometry() proto.Geometry {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.geometry
}

// HandleSignal raises the forwarded signal against the local process, so a
// remote interrupt lands on whatever is attached to this session locally.
func (h *Handler) HandleSignal(num byte) {
	h.logger.DebugMsg("Remote forwarded signal %d\n", num)

	if err := raiseSignal(num); err != nil {
		h.logger.ErrorMsg("Raising signal %d: %s\n", num, err)
	}
}
