// Package ipxsp implements an IPX service provider for a DirectPlay-style
// session layer.
//
// The session layer (the host) owns players, sessions, and message framing.
// It calls the provider through a fixed callback table to move datagrams
// over an IPX socket, and receives inbound datagrams through its
// HandleMessage entry point. This package supplies the per-instance state,
// the receive worker, and the send path behind that table.
//
// # Getting Started
//
// The host initializes the provider once per instance and keeps the
// returned callback table:
//
//	res, err := ipxsp.Init(&ipxsp.InitData{
//	    GUID:   ipxsp.ProviderGUID,
//	    Host:   host,
//	    Opener: real.NewUDPOpener(cfg),
//	})
//	if err != nil {
//	    return ipxsp.StatusOf(err)
//	}
//	sp := res.Provider
//
//	// Host a session: listen on the discovery socket.
//	if err := sp.Open(true, nil); err != nil {
//	    log.Printf("cannot host: %v", err)
//	}
//
// Every message the host passes in starts with a HeaderSize byte address
// header, which the provider strips before transmission.
//
// # Core Types
//
//   - [Connection]: per-instance state, implements interfaces.ServiceProvider
//   - [InitData] and [InitResult]: initialization request and response
//   - [OpError] and [Status]: errors and their host status codes
//
// # Address Resolution
//
// A Send to a player goes to the address stored for that player by
// CreatePlayer. Without one, it goes to the cached name server address,
// learned from Open or Reply. With neither, the datagram is dropped and
// the call still succeeds, since the host may not have propagated player
// metadata yet.
//
// # Thread Safety
//
// Entry points may be called concurrently. Each Connection guards its
// mutable record with a sync.Mutex; network sends are made after the lock
// is released. One receive goroutine per Connection is started lazily by
// Open or EnumSessions and stops only when ShutdownEx closes the socket.
//
// # Error Handling
//
// Entry points return nil or an *OpError wrapping one of ErrGeneric,
// ErrInvalidParams, ErrUnavailable, or ErrCannotCreateServer. StatusOf
// converts an error to the status code the host expects.
package ipxsp
