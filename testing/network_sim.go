package testing

import (
	"encoding/binary"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/opd-ai/ipxsp/interfaces"
	"github.com/opd-ai/ipxsp/ipx"
	"github.com/sirupsen/logrus"
)

const (
	// inboundQueueSize is the number of undelivered datagrams a socket holds
	// before further datagrams are dropped.
	inboundQueueSize = 256

	// firstEphemeralSocket is the first socket number handed out by Open.
	firstEphemeralSocket = 0x4000
)

// ErrBroadcastDisabled is returned when sending to the broadcast node from a
// socket without broadcast enabled.
var ErrBroadcastDisabled = errors.New("broadcast not enabled on socket")

// SimulatedNetwork is an in-memory IPX network. Each socket it opens gets a
// node number of its own.
type SimulatedNetwork struct {
	network [4]byte

	mu          sync.RWMutex
	nextNode    uint32
	nextSocket  uint16
	sockets     map[*SimulatedSocket]struct{}
	deliveryLog []DeliveryRecord
	openErr     error
}

// DeliveryRecord represents one datagram sent on the network for test verification
type DeliveryRecord struct {
	From      ipx.Addr
	To        ipx.Addr
	Payload   []byte
	Receivers int
}

// NewSimulatedNetwork creates an empty simulated network.
func NewSimulatedNetwork(config *interfaces.ProviderConfig) *SimulatedNetwork {
	logrus.Warn("SIMULATION FUNCTION - NOT A REAL OPERATION")
	n := &SimulatedNetwork{
		nextNode:   1,
		nextSocket: firstEphemeralSocket,
		sockets:    make(map[*SimulatedSocket]struct{}),
	}
	if config != nil {
		n.network = config.Network
	}
	logrus.WithFields(logrus.Fields{
		"function": "NewSimulatedNetwork",
		"network":  fmt.Sprintf("%X", n.network),
	}).Info("Creating simulated IPX network")
	return n
}

// Open implements ipx.Opener.
func (n *SimulatedNetwork) Open() (ipx.Socket, error) {
	n.mu.Lock()
	defer n.mu.Unlock()

	if n.openErr != nil {
		return nil, n.openErr
	}

	local := ipx.Addr{NetNum: n.network, Socket: n.nextSocket}
	local.Node[0] = 0x02 // locally administered
	binary.BigEndian.PutUint32(local.Node[2:], n.nextNode)
	n.nextNode++
	n.nextSocket++

	s := &SimulatedSocket{
		net:     n,
		local:   local,
		inbound: make(chan simDatagram, inboundQueueSize),
		closed:  make(chan struct{}),
	}
	n.sockets[s] = struct{}{}

	logrus.WithFields(logrus.Fields{
		"function":   "SimulatedNetwork.Open",
		"local_addr": local.String(),
	}).Debug("Opened simulated socket")
	return s, nil
}

// FailOpen makes subsequent Open calls fail with err. A nil err clears it.
func (n *SimulatedNetwork) FailOpen(err error) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.openErr = err
}

// OpenSockets returns the number of sockets not yet closed.
func (n *SimulatedNetwork) OpenSockets() int {
	n.mu.RLock()
	defer n.mu.RUnlock()
	return len(n.sockets)
}

// DeliveryLog returns a copy of every datagram sent so far.
func (n *SimulatedNetwork) DeliveryLog() []DeliveryRecord {
	n.mu.RLock()
	defer n.mu.RUnlock()

	out := make([]DeliveryRecord, len(n.deliveryLog))
	copy(out, n.deliveryLog)
	return out
}

// deliver queues p on every socket addressed by to.
func (n *SimulatedNetwork) deliver(from *SimulatedSocket, p []byte, to ipx.Addr) {
	n.mu.Lock()
	defer n.mu.Unlock()

	record := DeliveryRecord{
		From:    from.local,
		To:      to,
		Payload: append([]byte(nil), p...),
	}

	for s := range n.sockets {
		if s == from || !s.accepts(to) {
			continue
		}
		if s.enqueue(simDatagram{data: append([]byte(nil), p...), from: from.local}) {
			record.Receivers++
		}
	}
	n.deliveryLog = append(n.deliveryLog, record)
}

func (n *SimulatedNetwork) remove(s *SimulatedSocket) {
	n.mu.Lock()
	defer n.mu.Unlock()
	delete(n.sockets, s)
}

type simDatagram struct {
	data []byte
	from ipx.Addr
}

// SimulatedSocket is an ipx.Socket on a SimulatedNetwork.
type SimulatedSocket struct {
	net   *SimulatedNetwork
	local ipx.Addr

	inbound   chan simDatagram
	closed    chan struct{}
	closeOnce sync.Once
	receiving atomic.Int32

	mu           sync.Mutex
	broadcast    bool
	discovery    *ipx.Addr
	sendErr      error
	bindErr      error
	broadcastErr error
}

var _ ipx.Socket = (*SimulatedSocket)(nil)

// SendTo implements ipx.Socket.
func (s *SimulatedSocket) SendTo(p []byte, to ipx.Addr) (int, error) {
	if s.isClosed() {
		return 0, ipx.ErrClosed
	}

	s.mu.Lock()
	sendErr, broadcast := s.sendErr, s.broadcast
	s.mu.Unlock()

	if sendErr != nil {
		return 0, sendErr
	}
	if to.IsBroadcast() && !broadcast {
		return 0, ErrBroadcastDisabled
	}

	s.net.deliver(s, p, to)
	return len(p), nil
}

// RecvFrom implements ipx.Socket.
func (s *SimulatedSocket) RecvFrom(p []byte) (int, ipx.Addr, error) {
	s.receiving.Add(1)
	defer s.receiving.Add(-1)

	if s.isClosed() {
		return 0, ipx.Addr{}, ipx.ErrClosed
	}

	select {
	case d := <-s.inbound:
		return copy(p, d.data), d.from, nil
	case <-s.closed:
		return 0, ipx.Addr{}, ipx.ErrClosed
	}
}

// LocalAddr implements ipx.Socket.
func (s *SimulatedSocket) LocalAddr() ipx.Addr {
	return s.local
}

// SetBroadcast implements ipx.Socket.
func (s *SimulatedSocket) SetBroadcast(enabled bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.broadcastErr != nil {
		return s.broadcastErr
	}
	s.broadcast = enabled
	return nil
}

// BindDiscovery implements ipx.Socket.
func (s *SimulatedSocket) BindDiscovery(addr *ipx.Addr) error {
	if s.isClosed() {
		return ipx.ErrClosed
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if addr == nil {
		s.discovery = nil
		return nil
	}
	if s.bindErr != nil {
		return s.bindErr
	}
	bound := *addr
	s.discovery = &bound
	return nil
}

// Close implements ipx.Socket.
func (s *SimulatedSocket) Close() error {
	err := ipx.ErrClosed
	s.closeOnce.Do(func() {
		close(s.closed)
		s.net.remove(s)
		err = nil
	})
	return err
}

// Discovery returns the active discovery binding, if any.
func (s *SimulatedSocket) Discovery() (ipx.Addr, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.discovery == nil {
		return ipx.Addr{}, false
	}
	return *s.discovery, true
}

// BroadcastEnabled reports whether SetBroadcast(true) has been called.
func (s *SimulatedSocket) BroadcastEnabled() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.broadcast
}

// Receiving returns the number of goroutines blocked in RecvFrom.
func (s *SimulatedSocket) Receiving() int {
	return int(s.receiving.Load())
}

// Closed reports whether Close has been called.
func (s *SimulatedSocket) Closed() bool {
	return s.isClosed()
}

// FailSend makes SendTo fail with err. A nil err clears it.
func (s *SimulatedSocket) FailSend(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sendErr = err
}

// FailBindDiscovery makes BindDiscovery with a non-nil address fail with err.
func (s *SimulatedSocket) FailBindDiscovery(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.bindErr = err
}

// FailSetBroadcast makes SetBroadcast fail with err.
func (s *SimulatedSocket) FailSetBroadcast(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.broadcastErr = err
}

// Inject queues a datagram as if sent by from.
func (s *SimulatedSocket) Inject(payload []byte, from ipx.Addr) bool {
	return s.enqueue(simDatagram{data: append([]byte(nil), payload...), from: from})
}

func (s *SimulatedSocket) isClosed() bool {
	select {
	case <-s.closed:
		return true
	default:
		return false
	}
}

// accepts reports whether a datagram sent to to reaches this socket.
func (s *SimulatedSocket) accepts(to ipx.Addr) bool {
	if to.NetNum != s.local.NetNum {
		return false
	}
	if !to.IsBroadcast() && to.Node != s.local.Node {
		return false
	}
	if to.Socket == s.local.Socket {
		return true
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	return s.discovery != nil && s.discovery.Socket == to.Socket
}

// enqueue queues d unless the socket is closed or its queue is full.
func (s *SimulatedSocket) enqueue(d simDatagram) bool {
	if s.isClosed() {
		return false
	}
	select {
	case s.inbound <- d:
		return true
	default:
		logrus.WithFields(logrus.Fields{
			"local_addr":  s.local.String(),
			"remote_addr": d.from.String(),
			"component":   "SimulatedSocket",
		}).Warn("Dropped datagram due to full queue")
		return false
	}
}
