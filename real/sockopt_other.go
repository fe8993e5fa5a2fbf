//go:build !linux && !darwin && !freebsd && !netbsd && !openbsd && !dragonfly && !windows

package real

import "syscall"

// setBroadcast relies on the runtime default, which enables broadcast on
// datagram sockets where the platform supports it.
func setBroadcast(c syscall.RawConn, enabled bool) error {
	return nil
}

func reuseAddrControl(network, address string, c syscall.RawConn) error {
	return nil
}
