//go:build !linux && !darwin
// +build !linux,!darwin

package ttyctl

import "fmt"

func raiseSignal(num byte) error {
	return fmt.Errorf("signal delivery not supported on this platform")
}
