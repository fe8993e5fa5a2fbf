// Package factory provides a factory for creating IPX service provider
// instances.
//
// The factory owns the provider configuration and selects the socket backend,
// allowing seamless switching between the in-memory simulated network (for
// testing) and IPX emulated over UDP without changing host code.
//
// # Configuration
//
// The factory supports configuration via environment variables:
//   - IPXSP_USE_SIMULATION: "true" or "false" to enable simulation mode
//   - IPXSP_LOG_CALLS: "true" to log every provider entry point at debug level
//   - IPXSP_LOG_LEVEL: logrus level name (panic, fatal, error, warn, info, debug, trace)
//   - IPXSP_NETWORK: IPX network number as 8 hex digits
//   - IPXSP_BROADCAST_IP: IPv4 address broadcast datagrams are sent to
//   - IPXSP_BIND_IP: local IPv4 address to bind sockets to
//   - IPXSP_TTL: IP TTL for outgoing datagrams, 0-255 (0 keeps the system default)
//
// Invalid values are logged and ignored.
//
// # Usage
//
//	factory := NewProviderFactory()
//
//	res, err := factory.NewProvider(host)
//	if err != nil {
//	    return ipxsp.StatusOf(err)
//	}
//	sp := res.Provider
//
// # Mode Switching
//
// Providers created in simulation mode share one simulated network, so they
// can exchange datagrams with each other:
//
//	factory.SwitchToSimulation()
//	a, _ := factory.NewProvider(hostA)
//	b, _ := factory.NewProvider(hostB)
//	factory.SwitchToReal()
package factory
