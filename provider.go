package ipxsp

import (
	"fmt"

	"github.com/sirupsen/logrus"
	"go.uber.org/multierr"

	"github.com/opd-ai/ipxsp/interfaces"
	"github.com/opd-ai/ipxsp/ipx"
)

const (
	// DiscoverySocket is the IPX socket number session hosts listen on and
	// session enumeration broadcasts are sent to.
	DiscoverySocket = 42367

	// HeaderSize is the length of the address header the host reserves in
	// front of every message.
	HeaderSize = ipx.HeaderSize

	// SPVersion is the provider version reported at initialization.
	SPVersion = 0x00060000
)

// GUID identifies a service provider.
type GUID struct {
	Data1 uint32
	Data2 uint16
	Data3 uint16
	Data4 [8]byte
}

// String formats the GUID in registry form.
func (g GUID) String() string {
	return fmt.Sprintf("{%08X-%04X-%04X-%02X%02X-%02X%02X%02X%02X%02X%02X}",
		g.Data1, g.Data2, g.Data3, g.Data4[0], g.Data4[1],
		g.Data4[2], g.Data4[3], g.Data4[4], g.Data4[5], g.Data4[6], g.Data4[7])
}

// ProviderGUID is the GUID of the IPX service provider.
var ProviderGUID = GUID{
	Data1: 0x685BC400,
	Data2: 0x9D2C,
	Data3: 0x11CF,
	Data4: [8]byte{0xA9, 0xCD, 0x00, 0xAA, 0x00, 0x68, 0x86, 0xE3},
}

// InitData is passed to Init by the host for each provider instance.
type InitData struct {
	// GUID of the provider the host is loading
	GUID GUID

	// Host owning the instance
	Host interfaces.Host

	// Opener creates the instance socket
	Opener ipx.Opener

	// LogCalls logs every entry point at debug level
	LogCalls bool

	// Fallback initializes providers with a GUID other than ProviderGUID
	Fallback func(*InitData) (*InitResult, error)
}

// InitResult is returned to the host after successful initialization.
type InitResult struct {
	Provider   interfaces.ServiceProvider
	HeaderSize int
	Version    uint32
}

// Init initializes the provider for a host instance. Calling Init again for
// an instance that already has a Connection returns that Connection without
// opening another socket. On failure nothing is published to the host and
// the call may be retried.
func Init(data *InitData) (*InitResult, error) {
	if data == nil || data.Host == nil {
		return nil, newOpError("init", "", ErrInvalidParams, nil)
	}
	if data.GUID != ProviderGUID {
		if data.Fallback != nil {
			return data.Fallback(data)
		}
		return nil, newOpError("init", "", ErrUnavailable, fmt.Errorf("unknown provider %s", data.GUID))
	}

	existing, err := data.Host.LocalData()
	if err != nil {
		logrus.WithFields(logrus.Fields{
			"function": "Init",
			"error":    err.Error(),
		}).Error("Failed to read host local data")
		return nil, newOpError("init", "", ErrUnavailable, err)
	}
	if existing != nil {
		conn, ok := existing.(*Connection)
		if !ok {
			return nil, newOpError("init", "", ErrUnavailable, fmt.Errorf("host local data holds %T", existing))
		}
		logrus.WithFields(logrus.Fields{
			"function":   "Init",
			"local_addr": conn.LocalAddr().String(),
		}).Info("Already initialised, returning existing connection")
		return newInitResult(conn), nil
	}

	if data.Opener == nil {
		return nil, newOpError("init", "", ErrInvalidParams, fmt.Errorf("no socket opener"))
	}

	conn, err := openConnection(data)
	if err != nil {
		logrus.WithFields(logrus.Fields{
			"function": "Init",
			"error":    err.Error(),
		}).Error("Service provider initialization failed")
		return nil, newOpError("init", "", ErrUnavailable, err)
	}

	logrus.WithFields(logrus.Fields{
		"function":   "Init",
		"local_addr": conn.LocalAddr().String(),
	}).Info("Service provider initialized")

	return newInitResult(conn), nil
}

func newInitResult(conn *Connection) *InitResult {
	return &InitResult{
		Provider:   conn,
		HeaderSize: HeaderSize,
		Version:    SPVersion,
	}
}

// openConnection creates the socket and publishes a new Connection to the
// host. Every step failing closes the socket before returning.
func openConnection(data *InitData) (*Connection, error) {
	sock, err := data.Opener.Open()
	if err != nil {
		return nil, fmt.Errorf("open socket: %w", err)
	}

	conn, err := setupConnection(data, sock)
	if err != nil {
		if closeErr := sock.Close(); closeErr != nil {
			err = multierr.Append(err, fmt.Errorf("close socket: %w", closeErr))
		}
		return nil, err
	}
	return conn, nil
}

func setupConnection(data *InitData, sock ipx.Socket) (*Connection, error) {
	local := sock.LocalAddr()
	if local.IsZero() {
		return nil, fmt.Errorf("socket has no local address")
	}

	if err := sock.SetBroadcast(true); err != nil {
		return nil, fmt.Errorf("enable broadcast: %w", err)
	}

	conn := newConnection(data.Host, sock, local, data.LogCalls)
	if err := data.Host.SetLocalData(conn); err != nil {
		return nil, fmt.Errorf("publish connection: %w", err)
	}
	return conn, nil
}
