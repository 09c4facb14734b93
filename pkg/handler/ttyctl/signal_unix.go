//go:build linux || darwin
// +build linux darwin

package ttyctl

import (
	"fmt"

	"golang.org/x/sys/unix"
)

func raiseSignal(num byte) error {
	if num == 0 || num > 31 {
		return fmt.Errorf("signal number %d out of range", num)
	}

	return unix.Kill(unix.Getpid(), unix.Signal(num))
}
