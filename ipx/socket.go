package ipx

import "errors"

// ErrClosed is returned by socket operations after Close.
var ErrClosed = errors.New("ipx socket closed")

// Socket is a bound connectionless IPX datagram socket.
//
// SendTo and RecvFrom may be called concurrently with each other and with the
// remaining methods. RecvFrom blocks until a datagram arrives or the socket is
// closed, in which case it returns an error wrapping ErrClosed.
type Socket interface {
	// SendTo transmits one datagram.
	SendTo(p []byte, to Addr) (int, error)

	// RecvFrom receives one datagram into p.
	RecvFrom(p []byte) (int, Addr, error)

	// LocalAddr returns the address assigned when the socket was bound.
	LocalAddr() Addr

	// SetBroadcast enables or disables sending to the broadcast node.
	SetBroadcast(enabled bool) error

	// BindDiscovery additionally binds the socket to addr so that datagrams
	// sent to addr are received on this socket. A nil addr reverts the
	// binding. Binding while a binding is active replaces it.
	BindDiscovery(addr *Addr) error

	// Close releases the socket. Blocked RecvFrom calls fail.
	Close() error
}

// Opener creates a socket bound to an ephemeral local address.
type Opener interface {
	Open() (Socket, error)
}

// OpenerFunc adapts a function to the Opener interface.
type OpenerFunc func() (Socket, error)

// Open calls f.
func (f OpenerFunc) Open() (Socket, error) { return f() }
