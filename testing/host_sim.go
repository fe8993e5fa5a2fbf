package testing

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/opd-ai/ipxsp/interfaces"
	"github.com/opd-ai/ipxsp/ipx"
	"github.com/sirupsen/logrus"
)

// ErrPlayerNotFound is returned by PlayerAddress for unknown players.
var ErrPlayerNotFound = errors.New("player not found")

// ReceivedMessage is a datagram delivered to a SimulatedHost.
type ReceivedMessage struct {
	Payload []byte
	From    ipx.Addr
}

// SimulatedHost implements interfaces.Host in memory. It stores player
// address metadata and records every dispatched message.
type SimulatedHost struct {
	mu        sync.Mutex
	players   map[interfaces.PlayerID]ipx.Addr
	localData any
	messages  []ReceivedMessage
	lookups   int
	onMessage func(ReceivedMessage)

	handleErr       error
	localDataErr    error
	setLocalDataErr error
	setPlayerErr    error

	received chan ReceivedMessage
}

var _ interfaces.Host = (*SimulatedHost)(nil)

// NewSimulatedHost creates a host with no players.
func NewSimulatedHost() *SimulatedHost {
	return &SimulatedHost{
		players:  make(map[interfaces.PlayerID]ipx.Addr),
		received: make(chan ReceivedMessage, inboundQueueSize),
	}
}

// HandleMessage implements interfaces.Host.
func (h *SimulatedHost) HandleMessage(payload []byte, from ipx.Addr) error {
	msg := ReceivedMessage{Payload: payload, From: from}

	h.mu.Lock()
	h.messages = append(h.messages, msg)
	handleErr, hook := h.handleErr, h.onMessage
	h.mu.Unlock()

	select {
	case h.received <- msg:
	default:
		logrus.WithFields(logrus.Fields{
			"function":    "SimulatedHost.HandleMessage",
			"remote_addr": from.String(),
		}).Warn("Received message channel full")
	}

	if hook != nil {
		hook(msg)
	}
	return handleErr
}

// PlayerAddress implements interfaces.Host.
func (h *SimulatedHost) PlayerAddress(id interfaces.PlayerID) (ipx.Addr, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.lookups++
	addr, ok := h.players[id]
	if !ok {
		return ipx.Addr{}, fmt.Errorf("%w: %d", ErrPlayerNotFound, id)
	}
	return addr, nil
}

// SetPlayerAddress implements interfaces.Host.
func (h *SimulatedHost) SetPlayerAddress(id interfaces.PlayerID, addr ipx.Addr) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.setPlayerErr != nil {
		return h.setPlayerErr
	}
	h.players[id] = addr
	return nil
}

// LocalData implements interfaces.Host.
func (h *SimulatedHost) LocalData() (any, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.localDataErr != nil {
		return nil, h.localDataErr
	}
	return h.localData, nil
}

// SetLocalData implements interfaces.Host.
func (h *SimulatedHost) SetLocalData(data any) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.setLocalDataErr != nil {
		return h.setLocalDataErr
	}
	h.localData = data
	return nil
}

// Messages returns a copy of the messages dispatched so far.
func (h *SimulatedHost) Messages() []ReceivedMessage {
	h.mu.Lock()
	defer h.mu.Unlock()

	out := make([]ReceivedMessage, len(h.messages))
	copy(out, h.messages)
	return out
}

// WaitMessage waits up to timeout for the next dispatched message.
func (h *SimulatedHost) WaitMessage(timeout time.Duration) (ReceivedMessage, bool) {
	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case msg := <-h.received:
		return msg, true
	case <-timer.C:
		return ReceivedMessage{}, false
	}
}

// Lookups returns the number of PlayerAddress calls made.
func (h *SimulatedHost) Lookups() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.lookups
}

// RemovePlayer deletes a player's address metadata.
func (h *SimulatedHost) RemovePlayer(id interfaces.PlayerID) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.players, id)
}

// OnMessage installs fn to run on the dispatching goroutine for every message.
func (h *SimulatedHost) OnMessage(fn func(ReceivedMessage)) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.onMessage = fn
}

// FailHandleMessage makes HandleMessage return err after recording the message.
func (h *SimulatedHost) FailHandleMessage(err error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.handleErr = err
}

// FailLocalData makes LocalData fail with err.
func (h *SimulatedHost) FailLocalData(err error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.localDataErr = err
}

// FailSetLocalData makes SetLocalData fail with err.
func (h *SimulatedHost) FailSetLocalData(err error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.setLocalDataErr = err
}

// FailSetPlayerAddress makes SetPlayerAddress fail with err.
func (h *SimulatedHost) FailSetPlayerAddress(err error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.setPlayerErr = err
}
