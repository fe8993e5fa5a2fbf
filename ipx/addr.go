package ipx

import (
	"encoding/binary"
	"encoding/hex"
	"errors"
	"fmt"
	"net"
	"strconv"
	"strings"
)

const (
	// FamilyIPX is the AF_IPX address family value stored in a header.
	FamilyIPX = 6

	// HeaderSize is the length of an encoded sockaddr_ipx.
	HeaderSize = 14
)

// ErrInvalidHeader indicates a buffer that does not hold an IPX address.
var ErrInvalidHeader = errors.New("invalid IPX address header")

// BroadcastNode is the all-ones node number addressing every node on a network.
var BroadcastNode = [6]byte{0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF}

// Addr is an IPX endpoint. The zero value means "no address".
// It implements net.Addr.
type Addr struct {
	// NetNum is the IPX network number.
	NetNum [4]byte
	Node   [6]byte
	Socket uint16
}

var _ net.Addr = Addr{}

// Network returns the address family name.
func (a Addr) Network() string { return "ipx" }

// String formats the address as NNNNNNNN.XXXXXXXXXXXX:SSSS.
func (a Addr) String() string {
	return fmt.Sprintf("%s.%s:%04X", strings.ToUpper(hex.EncodeToString(a.NetNum[:])),
		strings.ToUpper(hex.EncodeToString(a.Node[:])), a.Socket)
}

// IsZero reports whether the address is unset.
func (a Addr) IsZero() bool {
	return a == Addr{}
}

// IsBroadcast reports whether the node number is the broadcast node.
func (a Addr) IsBroadcast() bool {
	return a.Node == BroadcastNode
}

// Broadcast returns a copy of a addressed to every node on its network.
func (a Addr) Broadcast() Addr {
	a.Node = BroadcastNode
	return a
}

// WithSocket returns a copy of a with the socket number replaced.
func (a Addr) WithSocket(socket uint16) Addr {
	a.Socket = socket
	return a
}

// MarshalHeader encodes a as a sockaddr_ipx.
func (a Addr) MarshalHeader() []byte {
	buf := make([]byte, HeaderSize)
	a.PutHeader(buf)
	return buf
}

// PutHeader encodes a into buf, which must be at least HeaderSize bytes long.
func (a Addr) PutHeader(buf []byte) {
	binary.LittleEndian.PutUint16(buf[0:2], FamilyIPX)
	copy(buf[2:6], a.NetNum[:])
	copy(buf[6:12], a.Node[:])
	binary.BigEndian.PutUint16(buf[12:14], a.Socket)
}

// ParseHeader decodes a sockaddr_ipx from the start of buf.
func ParseHeader(buf []byte) (Addr, error) {
	if len(buf) < HeaderSize {
		return Addr{}, fmt.Errorf("%w: %d bytes, need %d", ErrInvalidHeader, len(buf), HeaderSize)
	}
	if family := binary.LittleEndian.Uint16(buf[0:2]); family != FamilyIPX {
		return Addr{}, fmt.Errorf("%w: address family %d", ErrInvalidHeader, family)
	}

	var a Addr
	copy(a.NetNum[:], buf[2:6])
	copy(a.Node[:], buf[6:12])
	a.Socket = binary.BigEndian.Uint16(buf[12:14])
	return a, nil
}

// ParseNetwork parses an 8 hex digit network number such as "0000000A".
func ParseNetwork(s string) ([4]byte, error) {
	var netnum [4]byte
	v, err := strconv.ParseUint(strings.TrimPrefix(strings.ToLower(s), "0x"), 16, 32)
	if err != nil {
		return netnum, fmt.Errorf("parse network number %q: %w", s, err)
	}
	binary.BigEndian.PutUint32(netnum[:], uint32(v))
	return netnum, nil
}
