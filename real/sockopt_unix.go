//go:build linux || darwin || freebsd || netbsd || openbsd || dragonfly

package real

import (
	"syscall"

	"golang.org/x/sys/unix"
)

func setBroadcast(c syscall.RawConn, enabled bool) error {
	value := 0
	if enabled {
		value = 1
	}
	var opErr error
	err := c.Control(func(fd uintptr) {
		opErr = unix.SetsockoptInt(int(fd), unix.SOL_SOCKET, unix.SO_BROADCAST, value)
	})
	if err != nil {
		return err
	}
	return opErr
}

// reuseAddrControl sets SO_REUSEADDR and SO_REUSEPORT so that several
// providers on one machine can bind the discovery port.
func reuseAddrControl(network, address string, c syscall.RawConn) error {
	var opErr error
	err := c.Control(func(fd uintptr) {
		if opErr = unix.SetsockoptInt(int(fd), unix.SOL_SOCKET, unix.SO_REUSEADDR, 1); opErr != nil {
			return
		}
		opErr = unix.SetsockoptInt(int(fd), unix.SOL_SOCKET, unix.SO_REUSEPORT, 1)
	})
	if err != nil {
		return err
	}
	return opErr
}
