package ipxsp

import (
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/opd-ai/ipxsp/interfaces"
	"github.com/opd-ai/ipxsp/ipx"
)

// Connection is the provider state for one host instance. It implements
// interfaces.ServiceProvider.
//
// Host entry points may be called from any number of goroutines. The
// receive worker shares the record with them; all fields of state are
// accessed only through withLock.
type Connection struct {
	host     interfaces.Host
	logCalls bool

	// spawn launches the receive worker. Replaced in tests.
	spawn func(run func()) error

	mu    sync.Mutex
	state connState
}

// connState is the mutable record guarded by Connection.mu.
type connState struct {
	socket    ipx.Socket
	localAddr ipx.Addr

	// cachedPeer is the last name server or session host address seen.
	// The zero value means none has been learned.
	cachedPeer ipx.Addr

	// worker is nil until first started. It is not cleared when the
	// worker exits on a receive error.
	worker *receiveWorker

	discoveryBound bool
	closed         bool
}

var _ interfaces.ServiceProvider = (*Connection)(nil)

func newConnection(host interfaces.Host, sock ipx.Socket, local ipx.Addr, logCalls bool) *Connection {
	return &Connection{
		host:     host,
		logCalls: logCalls,
		spawn:    goSpawn,
		state: connState{
			socket:    sock,
			localAddr: local,
		},
	}
}

func goSpawn(run func()) error {
	go run()
	return nil
}

// withLock runs fn with exclusive access to the connection record. The lock
// is released on every return path, including a panic in fn.
func (c *Connection) withLock(fn func(s *connState) error) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return fn(&c.state)
}

// LocalAddr returns the address the socket was bound to at initialization.
func (c *Connection) LocalAddr() ipx.Addr {
	var addr ipx.Addr
	_ = c.withLock(func(s *connState) error {
		addr = s.localAddr
		return nil
	})
	return addr
}

// CachedPeer returns the cached name server address, if one has been learned.
func (c *Connection) CachedPeer() (ipx.Addr, bool) {
	var addr ipx.Addr
	_ = c.withLock(func(s *connState) error {
		addr = s.cachedPeer
		return nil
	})
	return addr, !addr.IsZero()
}

// Listening reports whether the connection is bound to the discovery socket.
func (c *Connection) Listening() bool {
	var bound bool
	_ = c.withLock(func(s *connState) error {
		bound = s.discoveryBound
		return nil
	})
	return bound
}

// ensureWorkerStarted starts the receive worker unless one has already been
// started. The check and the start happen under one lock acquisition, so
// concurrent first calls start exactly one worker.
func (c *Connection) ensureWorkerStarted() error {
	return c.withLock(func(s *connState) error {
		if s.worker != nil {
			return nil
		}
		if s.closed {
			return newOpError("start worker", "", ErrGeneric, ipx.ErrClosed)
		}

		w := newReceiveWorker(c)
		if err := c.spawn(w.run); err != nil {
			logrus.WithFields(logrus.Fields{
				"function": "ensureWorkerStarted",
				"error":    err.Error(),
			}).Error("Failed to create worker")
			return newOpError("start worker", "", ErrGeneric, err)
		}
		s.worker = w
		return nil
	})
}

// Open prepares the connection for a session. With create set, the socket is
// additionally bound to the discovery socket so enumeration broadcasts reach
// it; failure leaves the connection usable for joining. Otherwise a non-nil
// header names the session host, which becomes the cached peer.
func (c *Connection) Open(create bool, header []byte) error {
	c.logCall("Open", logrus.Fields{"create": create})

	var (
		peer    ipx.Addr
		hasPeer bool
	)
	if !create && header != nil {
		addr, err := ipx.ParseHeader(header)
		if err != nil {
			return newOpError("open", "", ErrInvalidParams, err)
		}
		peer, hasPeer = addr, true
	}

	if err := c.ensureWorkerStarted(); err != nil {
		return err
	}

	return c.withLock(func(s *connState) error {
		if create {
			addr := s.localAddr.WithSocket(DiscoverySocket)
			if err := s.socket.BindDiscovery(&addr); err != nil {
				logrus.WithFields(logrus.Fields{
					"function": "Open",
					"addr":     addr.String(),
					"error":    err.Error(),
				}).Warn("Cannot bind discovery socket")
				return newOpError("open", addr.String(), ErrCannotCreateServer, err)
			}
			s.discoveryBound = true
			return nil
		}
		if hasPeer {
			s.cachedPeer = peer
		}
		return nil
	})
}

// CloseEx drops the discovery binding if one is active. It always succeeds.
func (c *Connection) CloseEx() error {
	c.logCall("CloseEx", nil)

	return c.withLock(func(s *connState) error {
		if !s.discoveryBound {
			return nil
		}
		if err := s.socket.BindDiscovery(nil); err != nil {
			logrus.WithFields(logrus.Fields{
				"function": "CloseEx",
				"error":    err.Error(),
			}).Warn("Failed to release discovery socket")
		}
		s.discoveryBound = false
		return nil
	})
}

// ShutdownEx closes the socket and waits for the receive worker to exit.
// If the worker is inside the host's message handler, which includes a call
// from that handler, it is left to exit by itself once dispatch returns.
// Datagrams received after ShutdownEx are never dispatched. Calling
// ShutdownEx twice is an error.
func (c *Connection) ShutdownEx() error {
	c.logCall("ShutdownEx", nil)

	var wait *receiveWorker
	err := c.withLock(func(s *connState) error {
		if s.closed {
			return newOpError("shutdown", "", ErrGeneric, ipx.ErrClosed)
		}
		s.closed = true

		// The worker only sets its dispatch flag under this lock.
		if w := s.worker; w != nil && !w.inDispatch() {
			wait = w
			s.worker = nil
		}

		if err := s.socket.Close(); err != nil {
			logrus.WithFields(logrus.Fields{
				"function": "ShutdownEx",
				"error":    err.Error(),
			}).Warn("Error closing socket")
		}
		s.discoveryBound = false
		return nil
	})
	if err != nil {
		return err
	}

	if wait != nil {
		<-wait.done
	}

	logrus.WithFields(logrus.Fields{
		"function":   "ShutdownEx",
		"local_addr": c.LocalAddr().String(),
	}).Info("Service provider shut down")
	return nil
}

// logCall logs an entry point invocation when call logging is enabled.
func (c *Connection) logCall(name string, fields logrus.Fields) {
	if !c.logCalls {
		return
	}
	entry := logrus.WithFields(logrus.Fields{
		"function":  name,
		"component": "ipxsp",
	})
	if fields != nil {
		entry = entry.WithFields(fields)
	}
	entry.Debug("Service provider call")
}
