package interfaces

import "github.com/opd-ai/ipxsp/ipx"

// PlayerID identifies a player in the host's directory. Zero means no player.
type PlayerID uint32

// Host is the session layer that owns a service provider instance.
// The provider calls these methods from arbitrary goroutines, including its
// receive worker.
type Host interface {
	// HandleMessage delivers one inbound datagram. payload is owned by the
	// host after the call returns.
	HandleMessage(payload []byte, from ipx.Addr) error

	// PlayerAddress returns the address metadata stored for a player.
	PlayerAddress(id PlayerID) (ipx.Addr, error)

	// SetPlayerAddress stores address metadata for a player.
	SetPlayerAddress(id PlayerID, addr ipx.Addr) error

	// LocalData returns the provider record stored for this host instance,
	// or nil if none has been stored.
	LocalData() (any, error)

	// SetLocalData stores the provider record for this host instance.
	SetLocalData(data any) error
}

// ServiceProvider is the callback table a provider registers with its host.
// Every method returns nil on success; errors map to host status codes.
type ServiceProvider interface {
	// EnumSessions broadcasts a session enumeration request.
	EnumSessions(message []byte) error

	// Send transmits a message to a player.
	Send(to PlayerID, message []byte) error

	// SendEx concatenates buffers into a message of size bytes and sends it.
	SendEx(to PlayerID, buffers [][]byte, size int) error

	// Reply answers a message whose sender address is in header.
	Reply(nameServer PlayerID, header []byte, message []byte) error

	// CreatePlayer records the address header of a newly created player.
	CreatePlayer(id PlayerID, header []byte) error

	// DeletePlayer is called when the host removes a player.
	DeletePlayer(id PlayerID) error

	// GetCaps fills in the provider capability record.
	GetCaps(caps *Caps) error

	// Open prepares the provider to host (create) or join a session.
	Open(create bool, header []byte) error

	// CloseEx leaves the current session.
	CloseEx() error

	// ShutdownEx releases all provider resources.
	ShutdownEx() error
}

// CapsSize is the minimum Size a host must declare in a Caps record.
const CapsSize = 40

// Caps is the capability record returned by GetCaps.
type Caps struct {
	// Size is set by the host to the size of the record it can accept
	Size            uint32
	Flags           uint32
	MaxBufferSize   uint32
	MaxQueueSize    uint32
	MaxPlayers      uint32
	HundredBaud     uint32
	Latency         uint32
	MaxLocalPlayers uint32
	HeaderLength    uint32
	Timeout         uint32
}
