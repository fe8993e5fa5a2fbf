package real

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strconv"
	"sync"

	"github.com/sirupsen/logrus"
	"go.uber.org/multierr"
	"golang.org/x/net/ipv4"

	"github.com/opd-ai/ipxsp/interfaces"
	"github.com/opd-ai/ipxsp/ipx"
)

const (
	// inboundQueueSize bounds datagrams read from the UDP sockets but not yet
	// returned by RecvFrom.
	inboundQueueSize = 128

	// readBufferSize fits any UDP datagram.
	readBufferSize = 65536
)

// UDPOpener opens UDPSockets. It implements ipx.Opener.
type UDPOpener struct {
	config *interfaces.ProviderConfig
}

// NewUDPOpener creates an opener using config.
func NewUDPOpener(config *interfaces.ProviderConfig) *UDPOpener {
	logrus.WithFields(logrus.Fields{
		"function":     "NewUDPOpener",
		"bind_ip":      config.BindIP.String(),
		"broadcast_ip": config.BroadcastIP.String(),
	}).Info("Creating IPX over UDP opener")

	return &UDPOpener{config: config}
}

// Open binds a UDP socket to an ephemeral port on the configured address.
func (o *UDPOpener) Open() (ipx.Socket, error) {
	conn, err := net.ListenUDP("udp4", &net.UDPAddr{IP: o.config.BindIP, Port: 0})
	if err != nil {
		return nil, fmt.Errorf("bind udp socket: %w", err)
	}

	if o.config.TTL > 0 {
		if err := ipv4.NewPacketConn(conn).SetTTL(o.config.TTL); err != nil {
			_ = conn.Close()
			return nil, fmt.Errorf("set ttl %d: %w", o.config.TTL, err)
		}
	}

	bound, ok := conn.LocalAddr().(*net.UDPAddr)
	if !ok {
		_ = conn.Close()
		return nil, fmt.Errorf("unexpected local address %T", conn.LocalAddr())
	}
	nodeIP := bound.IP
	if nodeIP == nil || nodeIP.IsUnspecified() {
		nodeIP = primaryIPv4()
	}

	s := &UDPSocket{
		config:  o.config,
		conn:    conn,
		local:   toIPXAddr(o.config.Network, nodeIP, bound.Port),
		inbound: make(chan datagram, inboundQueueSize),
		closed:  make(chan struct{}),
	}
	s.startPump(conn, "primary")

	logrus.WithFields(logrus.Fields{
		"function":   "UDPOpener.Open",
		"local_addr": s.local.String(),
		"udp_addr":   bound.String(),
	}).Debug("Opened IPX over UDP socket")

	return s, nil
}

type datagram struct {
	data []byte
	from ipx.Addr
}

// UDPSocket is an ipx.Socket carried over UDP/IPv4.
type UDPSocket struct {
	config *interfaces.ProviderConfig
	conn   *net.UDPConn
	local  ipx.Addr

	inbound   chan datagram
	closed    chan struct{}
	closeOnce sync.Once
	pumps     sync.WaitGroup

	mu        sync.Mutex
	discovery *net.UDPConn
}

var _ ipx.Socket = (*UDPSocket)(nil)

// SendTo implements ipx.Socket.
func (s *UDPSocket) SendTo(p []byte, to ipx.Addr) (int, error) {
	if s.isClosed() {
		return 0, ipx.ErrClosed
	}
	return s.conn.WriteToUDP(p, s.toUDPAddr(to))
}

// RecvFrom implements ipx.Socket.
func (s *UDPSocket) RecvFrom(p []byte) (int, ipx.Addr, error) {
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
func (s *UDPSocket) LocalAddr() ipx.Addr {
	return s.local
}

// SetBroadcast implements ipx.Socket.
func (s *UDPSocket) SetBroadcast(enabled bool) error {
	raw, err := s.conn.SyscallConn()
	if err != nil {
		return err
	}
	return setBroadcast(raw, enabled)
}

// BindDiscovery implements ipx.Socket. The discovery listener binds the
// configured address on addr's socket number with address reuse enabled.
func (s *UDPSocket) BindDiscovery(addr *ipx.Addr) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.isClosed() {
		return ipx.ErrClosed
	}

	var err error
	if s.discovery != nil {
		err = s.discovery.Close()
		s.discovery = nil
	}
	if addr == nil {
		return err
	}

	lc := net.ListenConfig{Control: reuseAddrControl}
	bindAddr := net.JoinHostPort(s.config.BindIP.String(), strconv.Itoa(int(addr.Socket)))
	pc, listenErr := lc.ListenPacket(context.Background(), "udp4", bindAddr)
	if listenErr != nil {
		return fmt.Errorf("bind discovery %s: %w", bindAddr, listenErr)
	}

	s.discovery = pc.(*net.UDPConn)
	s.startPump(s.discovery, "discovery")

	logrus.WithFields(logrus.Fields{
		"function":   "UDPSocket.BindDiscovery",
		"local_addr": s.local.String(),
		"udp_addr":   bindAddr,
	}).Debug("Discovery socket bound")
	return nil
}

// Close implements ipx.Socket.
func (s *UDPSocket) Close() error {
	err := ipx.ErrClosed
	s.closeOnce.Do(func() {
		close(s.closed)

		s.mu.Lock()
		err = s.conn.Close()
		if s.discovery != nil {
			err = multierr.Append(err, s.discovery.Close())
			s.discovery = nil
		}
		s.mu.Unlock()

		s.pumps.Wait()
	})
	return err
}

// startPump copies datagrams from conn into the inbound queue until conn
// is closed.
func (s *UDPSocket) startPump(conn *net.UDPConn, role string) {
	s.pumps.Add(1)
	go func() {
		defer s.pumps.Done()

		buffer := make([]byte, readBufferSize)
		for {
			n, from, err := conn.ReadFromUDP(buffer)
			if err != nil {
				if errors.Is(err, net.ErrClosed) {
					return
				}
				logrus.WithFields(logrus.Fields{
					"role":      role,
					"error":     err.Error(),
					"component": "UDPSocket",
				}).Debug("Error reading datagram")
				continue
			}

			d := datagram{
				data: append([]byte(nil), buffer[:n]...),
				from: toIPXAddr(s.config.Network, from.IP, from.Port),
			}
			select {
			case s.inbound <- d:
			case <-s.closed:
				return
			}
		}
	}()
}

func (s *UDPSocket) isClosed() bool {
	select {
	case <-s.closed:
		return true
	default:
		return false
	}
}

// toUDPAddr maps an IPX address to the UDP endpoint carrying it.
func (s *UDPSocket) toUDPAddr(a ipx.Addr) *net.UDPAddr {
	if a.IsBroadcast() {
		return &net.UDPAddr{IP: s.config.BroadcastIP, Port: int(a.Socket)}
	}
	return &net.UDPAddr{
		IP:   net.IPv4(a.Node[0], a.Node[1], a.Node[2], a.Node[3]),
		Port: int(a.Socket),
	}
}

// toIPXAddr maps a UDP endpoint to its IPX address.
func toIPXAddr(network [4]byte, ip net.IP, port int) ipx.Addr {
	a := ipx.Addr{NetNum: network, Socket: uint16(port)}
	if ip4 := ip.To4(); ip4 != nil {
		copy(a.Node[:4], ip4)
	}
	return a
}

// primaryIPv4 returns the first IPv4 address of an up, non-loopback
// interface, or the loopback address if there is none.
func primaryIPv4() net.IP {
	ifaces, err := net.Interfaces()
	if err != nil {
		return net.IPv4(127, 0, 0, 1)
	}
	for _, iface := range ifaces {
		if iface.Flags&net.FlagUp == 0 || iface.Flags&net.FlagLoopback != 0 {
			continue
		}
		addrs, err := iface.Addrs()
		if err != nil {
			continue
		}
		for _, addr := range addrs {
			if ipnet, ok := addr.(*net.IPNet); ok {
				if ip4 := ipnet.IP.To4(); ip4 != nil {
					return ip4
				}
			}
		}
	}
	return net.IPv4(127, 0, 0, 1)
}
