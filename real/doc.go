// Package real provides the production IPX socket for the service provider,
// emulating IPX over UDP/IPv4.
//
// # Address Mapping
//
// An IPX address maps onto UDP as follows:
//
//	network  the configured IPX network number (ProviderConfig.Network)
//	node     the 4 IPv4 address bytes followed by two zero bytes
//	socket   the UDP port
//
// Datagrams sent to the broadcast node go to ProviderConfig.BroadcastIP on
// the destination socket's port.
//
// # Architecture
//
// Each UDPSocket owns one ephemeral UDP socket and, while a discovery binding
// is active, a second UDP socket bound to the discovery port with address
// reuse enabled so several providers on one machine can host sessions:
//
//	┌──────────────────────────────────────────┐
//	│                UDPSocket                 │
//	│  ┌──────────────┐   ┌─────────────────┐  │
//	│  │ primary conn │   │ discovery conn  │  │
//	│  │ (ephemeral)  │   │ (optional)      │  │
//	│  └──────┬───────┘   └────────┬────────┘  │
//	│         └──── inbound queue ─┘           │
//	└──────────────────┬───────────────────────┘
//	                   ▼
//	               RecvFrom
//
// All sends leave from the primary socket, so the source address a peer sees
// is always the sender's ephemeral IPX address.
//
// # Usage
//
//	opener := real.NewUDPOpener(cfg)
//	sock, err := opener.Open()
//	if err != nil {
//	    return err
//	}
//	defer sock.Close()
//
// # Thread Safety
//
// UDPSocket is safe for concurrent use. Close unblocks pending RecvFrom
// calls, which then return ipx.ErrClosed.
package real
