// Package interfaces defines the contracts between the IPX service provider
// and the session layer that hosts it.
//
// # Core Interfaces
//
// [Host] is implemented by the session layer. The provider uses it to hand
// inbound datagrams upward, to read and write per-player address metadata,
// and to store its own per-instance record:
//
//	func (h *MyHost) HandleMessage(payload []byte, from ipx.Addr) error {
//	    return h.session.Dispatch(payload, from.MarshalHeader())
//	}
//
// [ServiceProvider] is the callback table the provider registers with the
// host. It has one method per host entry point (EnumSessions, Send, SendEx,
// Reply, CreatePlayer, DeletePlayer, GetCaps, Open, CloseEx, ShutdownEx).
//
// # Configuration
//
// [ProviderConfig] carries the settings shared by provider instances. The
// factory package fills it from defaults and IPXSP_* environment variables
// and calls Validate before use.
package interfaces
