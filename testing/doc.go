// Package testing provides simulation infrastructure for deterministic testing
// of the IPX service provider.
//
// # Overview
//
// This package implements an in-memory IPX network and an in-memory host
// session layer. Tests drive a provider through its callback table and
// observe what reached the network and the host, with no real sockets.
//
// # Simulation vs Real Implementation
//
// The provider supports two socket backends:
//
//   - Simulation (this package): datagrams are delivered in-memory between
//     SimulatedSocket instances and logged for verification.
//
//   - Real (real package): IPX is emulated over UDP/IPv4 sockets.
//
// Both implement ipx.Opener, so the factory package can switch between them.
//
// # Usage
//
//	network := testing.NewSimulatedNetwork(nil)
//	host := testing.NewSimulatedHost()
//
//	res, err := ipxsp.Init(&ipxsp.InitData{
//	    GUID:   ipxsp.ProviderGUID,
//	    Host:   host,
//	    Opener: network,
//	})
//
//	msg, ok := host.WaitMessage(time.Second)
//
// # Failure Injection
//
// SimulatedNetwork.FailOpen, SimulatedSocket.FailSend, FailBindDiscovery and
// FailSetBroadcast, and the SimulatedHost Fail* methods make the matching
// operation return a chosen error so error paths can be exercised.
//
// # Thread Safety
//
// All types are safe for concurrent use.
package testing
