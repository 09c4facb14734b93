// Package log provides colored console output for the operator terminal
// and a connection wrapper that records session transcripts to a file.
package log

import (
	"os"

	"github.com/fatih/color"
)

var red = color.New(color.FgRed).FprintfFunc()
var blue = color.New(color.FgBlue).FprintfFunc()
var yellow = color.New(color.FgYellow).FprintfFunc()

// Logger writes operator-facing messages to stderr. Debug messages are
// suppressed unless verbose is enabled.
type Logger struct {
	verbose bool
}

// NewLogger creates a Logger. verbose enables DebugMsg output.
func NewLogger(verbose bool) *Logger {
	return &Logger{verbose: verbose}
}

// ErrorMsg prints an error message to stderr in red color.
func (l *Logger) ErrorMsg(format string, a ...interface{}) {
	red(os.Stderr, "[!] Error: "+format, a...)
}

// InfoMsg prints an informational message to stderr in blue color.
func (l *Logger) InfoMsg(format string, a ...interface{}) {
	blue(os.Stderr, "[+] "+format, a...)
}

// DebugMsg prints a debug message to stderr in yellow color if verbose
// logging is enabled.
func (l *Logger) DebugMsg(format string, a ...interface{}) {
	if l == nil || !l.verbose {
		return
	}
	yellow(os.Stderr, "[*] "+format, a...)
}
