package ipxsp

import (
	"github.com/sirupsen/logrus"

	"github.com/opd-ai/ipxsp/interfaces"
	"github.com/opd-ai/ipxsp/ipx"
	"github.com/opd-ai/ipxsp/limits"
)

// EnumSessions broadcasts message, minus its address header, to the discovery
// socket of every node on the local network. It starts the receive worker
// first so that replies are delivered.
func (c *Connection) EnumSessions(message []byte) error {
	c.logCall("EnumSessions", logrus.Fields{"size": len(message)})

	if err := limits.ValidateHostMessage(message, HeaderSize); err != nil {
		return newOpError("enum sessions", "", ErrInvalidParams, err)
	}
	if err := c.ensureWorkerStarted(); err != nil {
		return err
	}

	var (
		sock ipx.Socket
		dest ipx.Addr
	)
	_ = c.withLock(func(s *connState) error {
		sock = s.socket
		dest = s.localAddr.Broadcast().WithSocket(DiscoverySocket)
		return nil
	})

	return c.transmit("enum sessions", sock, message[HeaderSize:], dest)
}

// Send transmits message, minus its address header, to a player. Messages
// to players with no known address are dropped without error.
func (c *Connection) Send(to interfaces.PlayerID, message []byte) error {
	c.logCall("Send", logrus.Fields{"to": to, "size": len(message)})
	return c.send("send", to, message)
}

// SendEx concatenates buffers into one message of size bytes and sends it
// like Send. Buffers longer in total than size, and sizes no datagram can
// carry, are rejected before anything is allocated or copied.
func (c *Connection) SendEx(to interfaces.PlayerID, buffers [][]byte, size int) error {
	c.logCall("SendEx", logrus.Fields{"to": to, "buffers": len(buffers), "size": size})

	if err := limits.ValidateMessageSize(size, HeaderSize); err != nil {
		logrus.WithFields(logrus.Fields{
			"function": "SendEx",
			"size":     size,
			"error":    err.Error(),
		}).Warn("Declared message size too large, aborting")
		return newOpError("send ex", "", ErrGeneric, err)
	}
	if err := limits.ValidateFragments(buffers, size); err != nil {
		logrus.WithFields(logrus.Fields{
			"function": "SendEx",
			"error":    err.Error(),
		}).Warn("Message size too small, aborting")
		return newOpError("send ex", "", ErrGeneric, err)
	}

	message := make([]byte, size)
	off := 0
	for _, buf := range buffers {
		off += copy(message[off:], buf)
	}

	return c.send("send ex", to, message)
}

func (c *Connection) send(op string, to interfaces.PlayerID, message []byte) error {
	if err := limits.ValidateHostMessage(message, HeaderSize); err != nil {
		return newOpError(op, "", ErrInvalidParams, err)
	}

	var (
		sock   ipx.Socket
		cached ipx.Addr
	)
	_ = c.withLock(func(s *connState) error {
		sock = s.socket
		cached = s.cachedPeer
		return nil
	})

	dest, ok := resolveSendTarget(to, c.lookupPlayer, cached)
	if !ok {
		logrus.WithFields(logrus.Fields{
			"function":  "Send",
			"player_id": to,
		}).Info("No known address for player, dropping packet")
		return nil
	}

	return c.transmit(op, sock, message[HeaderSize:], dest)
}

// Reply sends message, minus its address header, to the address in header.
// If the name server's address is known it is cached first, whether or not
// the send then succeeds.
func (c *Connection) Reply(nameServer interfaces.PlayerID, header []byte, message []byte) error {
	c.logCall("Reply", logrus.Fields{"name_server": nameServer, "size": len(message)})

	if err := limits.ValidateHostMessage(message, HeaderSize); err != nil {
		return newOpError("reply", "", ErrInvalidParams, err)
	}
	dest, err := ipx.ParseHeader(header)
	if err != nil {
		return newOpError("reply", "", ErrInvalidParams, err)
	}

	var nsAddr ipx.Addr
	haveNS := false
	if nameServer != 0 {
		nsAddr, haveNS = c.lookupPlayer(nameServer)
	}

	var sock ipx.Socket
	_ = c.withLock(func(s *connState) error {
		if haveNS {
			s.cachedPeer = nsAddr
		}
		sock = s.socket
		return nil
	})

	return c.transmit("reply", sock, message[HeaderSize:], dest)
}

// CreatePlayer stores the address in header as the player's address
// metadata. A nil header (a local player) is ignored.
func (c *Connection) CreatePlayer(id interfaces.PlayerID, header []byte) error {
	c.logCall("CreatePlayer", logrus.Fields{"player_id": id})

	if header == nil {
		return nil
	}
	addr, err := ipx.ParseHeader(header)
	if err != nil {
		return newOpError("create player", "", ErrInvalidParams, err)
	}

	if err := c.host.SetPlayerAddress(id, addr); err != nil {
		logrus.WithFields(logrus.Fields{
			"function":  "CreatePlayer",
			"player_id": id,
			"error":     err.Error(),
		}).Error("SetPlayerAddress failed")
		return newOpError("create player", addr.String(), ErrGeneric, err)
	}
	return nil
}

// DeletePlayer has nothing to release.
func (c *Connection) DeletePlayer(id interfaces.PlayerID) error {
	c.logCall("DeletePlayer", logrus.Fields{"player_id": id})
	return nil
}

// lookupPlayer asks the host for a player's address metadata.
func (c *Connection) lookupPlayer(id interfaces.PlayerID) (ipx.Addr, bool) {
	addr, err := c.host.PlayerAddress(id)
	if err != nil || addr.IsZero() {
		return ipx.Addr{}, false
	}
	return addr, true
}

// transmit hands one datagram to the socket.
func (c *Connection) transmit(op string, sock ipx.Socket, payload []byte, to ipx.Addr) error {
	if err := limits.ValidateDatagram(payload); err != nil {
		return newOpError(op, to.String(), ErrGeneric, err)
	}

	if _, err := sock.SendTo(payload, to); err != nil {
		logrus.WithFields(logrus.Fields{
			"function":    op,
			"remote_addr": to.String(),
			"error":       err.Error(),
		}).Warn("sendto failed")
		return newOpError(op, to.String(), ErrGeneric, err)
	}
	return nil
}
