package interfaces

import (
	"errors"
	"fmt"
	"net"

	"github.com/sirupsen/logrus"
)

// Validation errors for ProviderConfig.
var (
	// ErrInvalidLogLevel indicates a log level logrus cannot parse
	ErrInvalidLogLevel = errors.New("invalid log level")

	// ErrInvalidBroadcastIP indicates a broadcast address that is not IPv4
	ErrInvalidBroadcastIP = errors.New("broadcast IP must be IPv4")

	// ErrInvalidBindIP indicates a bind address that is not IPv4
	ErrInvalidBindIP = errors.New("bind IP must be IPv4")

	// ErrInvalidTTL indicates a TTL outside 0-255
	ErrInvalidTTL = errors.New("TTL must be between 0 and 255")
)

// ProviderConfig holds configuration for service provider instances
type ProviderConfig struct {
	// UseSimulation selects the in-memory network instead of UDP
	UseSimulation bool

	// LogCalls logs every host entry point at debug level
	LogCalls bool

	// LogLevel is a logrus level name
	LogLevel string

	// Network is the IPX network number reported in local addresses
	Network [4]byte

	// BroadcastIP receives datagrams sent to the broadcast node
	BroadcastIP net.IP

	// BindIP is the local IPv4 address sockets bind to
	BindIP net.IP

	// TTL for outgoing datagrams; zero keeps the system default
	TTL int
}

// Validate checks that the configuration values are usable.
func (c *ProviderConfig) Validate() error {
	if _, err := logrus.ParseLevel(c.LogLevel); err != nil {
		return fmt.Errorf("%w: %q", ErrInvalidLogLevel, c.LogLevel)
	}
	if c.BroadcastIP == nil || c.BroadcastIP.To4() == nil {
		return fmt.Errorf("%w: %v", ErrInvalidBroadcastIP, c.BroadcastIP)
	}
	if c.BindIP == nil || c.BindIP.To4() == nil {
		return fmt.Errorf("%w: %v", ErrInvalidBindIP, c.BindIP)
	}
	if c.TTL < 0 || c.TTL > 255 {
		return fmt.Errorf("%w: %d", ErrInvalidTTL, c.TTL)
	}
	return nil
}
