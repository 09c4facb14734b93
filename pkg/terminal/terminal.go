// Package terminal wraps the local terminal as a capability: raw mode with
// guaranteed restoration, geometry reads, and notification streams for
// resize and job-control events. On platforms without the required signal
// support the notification streams degrade to nil channels.
package terminal

import (
	"fmt"
	"os"

	"golang.org/x/term"

	"revmux/pkg/proto"
)

// IsTerminal reports whether stdin is an interactive terminal.
func IsTerminal() bool {
	return term.IsTerminal(int(os.Stdin.Fd()))
}

// RawModeGuard restores the terminal to its previous mode. Restore is safe
// to call more than once and must run on every exit path.
type RawModeGuard struct {
	fd    int
	state *term.State
}

// EnterRawMode puts the local terminal into raw mode so bytes pass through
// to the remote PTY uninterpreted.
func EnterRawMode() (*RawModeGuard, error) {
	fd := int(os.Stdin.Fd())

	state, err := term.MakeRaw(fd)
	if err != nil {
		return nil, fmt.Errorf("term.MakeRaw(stdin): %s", err)
	}

	return &RawModeGuard{fd: fd, state: state}, nil
}

// Restore puts the terminal back into the mode it was in before
// EnterRawMode and clears the current line.
func (g *RawModeGuard) Restore() {
	if g == nil || g.state == nil {
		return
	}
	term.Restore(g.fd, g.state)
	g.state = nil
	fmt.Printf("\033[2K\r") // clear line
}

// Geometry returns the current size of the local terminal.
func Geometry() (proto.Geometry, error) {
	cols, rows, err := term.GetSize(int(os.Stdin.Fd()))
	if err != nil {
		return proto.Geometry{}, fmt.Errorf("term.GetSize(stdin): %s", err)
	}

	return proto.Geometry{Rows: uint16(rows), Cols: uint16(cols)}, nil
}
