package pipeio

import (
	"os"

	"github.com/muesli/cancelreader"
)

// Stdio exposes the local terminal's standard streams as a ReadWriteCloser.
// Reads come from stdin through a cancelable reader when the platform
// supports one, so a Close can interrupt a blocked read.
type Stdio struct {
	stdin            *os.File
	cancelableStdin  cancelreader.CancelReader

	stdout *os.File
}

// NewStdio creates a Stdio with cancelable stdin reading if supported.
func NewStdio() *Stdio {
	out := Stdio{
		stdin:  os.Stdin,
		stdout: os.Stdout,
	}

	cr, err := cancelreader.NewReader(os.Stdin)
	if err != nil {
		return &out
	}

	out.cancelableStdin = cr
	return &out
}

// Read reads from stdin, using the cancelable reader if available.
func (s *Stdio) Read(p []byte) (int, error) {
	if s.cancelableStdin != nil {
		return s.cancelableStdin.Read(p)
	}

	return s.stdin.Read(p)
}

// Write writes to stdout.
func (s *Stdio) Write(p []byte) (int, error) {
	return s.stdout.Write(p)
}

// Close cancels any pending stdin read. The real stdin and stdout file
// descriptors stay open for the rest of the process.
func (s *Stdio) Close() error {
	if s.cancelableStdin != nil {
		s.cancelableStdin.Cancel()
	}
	return nil
}
