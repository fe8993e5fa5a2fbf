package ipxsp

import (
	"errors"
	"sync/atomic"

	"github.com/sirupsen/logrus"

	"github.com/opd-ai/ipxsp/ipx"
	"github.com/opd-ai/ipxsp/limits"
)

// receiveWorker delivers inbound datagrams of one Connection to its host.
// Closing the socket is the only way to stop it.
type receiveWorker struct {
	conn *Connection
	done chan struct{}

	// dispatching is set while the host's HandleMessage runs on the worker.
	dispatching atomic.Bool
}

func newReceiveWorker(conn *Connection) *receiveWorker {
	return &receiveWorker{
		conn: conn,
		done: make(chan struct{}),
	}
}

// inDispatch reports whether the worker is currently inside the host's
// message handler.
func (w *receiveWorker) inDispatch() bool {
	return w.dispatching.Load()
}

// beginDispatch marks the worker as dispatching unless the connection has
// been shut down. ShutdownEx reads the flag under the same lock, so it either
// sees the dispatch and does not wait, or closes first and the datagram is
// never dispatched.
func (w *receiveWorker) beginDispatch() bool {
	return w.conn.withLock(func(s *connState) error {
		if s.closed {
			return ipx.ErrClosed
		}
		w.dispatching.Store(true)
		return nil
	}) == nil
}

func (w *receiveWorker) run() {
	defer close(w.done)

	var sock ipx.Socket
	_ = w.conn.withLock(func(s *connState) error {
		sock = s.socket
		return nil
	})

	buffer := make([]byte, limits.MaxDatagramSize)
	for {
		if !w.receiveOne(sock, buffer) {
			return
		}
	}
}

// receiveOne reads and dispatches a single datagram.
// Returns false if the socket failed or the connection was shut down, and the
// worker must exit.
func (w *receiveWorker) receiveOne(sock ipx.Socket, buffer []byte) bool {
	n, from, err := sock.RecvFrom(buffer)
	if err != nil {
		level := logrus.WarnLevel
		if errors.Is(err, ipx.ErrClosed) {
			level = logrus.DebugLevel
		}
		logrus.WithFields(logrus.Fields{
			"function": "receiveWorker.run",
			"error":    err.Error(),
		}).Log(level, "recv failed, worker exiting")
		return false
	}

	payload := make([]byte, n)
	copy(payload, buffer[:n])

	if !w.beginDispatch() {
		logrus.WithFields(logrus.Fields{
			"function":    "receiveWorker.run",
			"remote_addr": from.String(),
			"size":        n,
		}).Debug("Connection shut down, dropping datagram")
		return false
	}
	defer w.dispatching.Store(false)

	if err := w.conn.host.HandleMessage(payload, from); err != nil {
		logrus.WithFields(logrus.Fields{
			"function":    "receiveWorker.run",
			"remote_addr": from.String(),
			"size":        n,
			"error":       err.Error(),
		}).Warn("HandleMessage error")
	}
	return true
}
