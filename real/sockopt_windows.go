//go:build windows

package real

import (
	"syscall"

	"golang.org/x/sys/windows"
)

func setBroadcast(c syscall.RawConn, enabled bool) error {
	value := 0
	if enabled {
		value = 1
	}
	var opErr error
	err := c.Control(func(fd uintptr) {
		opErr = windows.SetsockoptInt(windows.Handle(fd), windows.SOL_SOCKET, windows.SO_BROADCAST, value)
	})
	if err != nil {
		return err
	}
	return opErr
}

// reuseAddrControl sets SO_REUSEADDR so that several providers on one
// machine can bind the discovery port. Windows has no SO_REUSEPORT.
func reuseAddrControl(network, address string, c syscall.RawConn) error {
	var opErr error
	err := c.Control(func(fd uintptr) {
		opErr = windows.SetsockoptInt(windows.Handle(fd), windows.SOL_SOCKET, windows.SO_REUSEADDR, 1)
	})
	if err != nil {
		return err
	}
	return opErr
}
