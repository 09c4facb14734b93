//go:build !linux && !darwin
// +build !linux,!darwin

package terminal

import "context"

// ResizeNotifications has no SIGWINCH equivalent here. The returned nil
// channel blocks forever, so select-based consumers simply never see a
// resize event.
func ResizeNotifications(ctx context.Context) <-chan struct{} {
	return nil
}

// JobControlSignals has no job-control signals to observe here.
func JobControlSignals(ctx context.Context) <-chan byte {
	return nil
}
