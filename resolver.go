package ipxsp

import (
	"github.com/opd-ai/ipxsp/interfaces"
	"github.com/opd-ai/ipxsp/ipx"
)

// playerLookup returns the address stored for a player, if any.
type playerLookup func(id interfaces.PlayerID) (ipx.Addr, bool)

// resolveSendTarget picks the destination of a unicast send. A player's own
// address metadata wins; otherwise the cached peer address is used. ok is
// false when neither is available and the datagram must be dropped.
func resolveSendTarget(to interfaces.PlayerID, lookup playerLookup, cached ipx.Addr) (addr ipx.Addr, ok bool) {
	if to != 0 && lookup != nil {
		if addr, ok := lookup(to); ok {
			return addr, true
		}
	}
	if !cached.IsZero() {
		return cached, true
	}
	return ipx.Addr{}, false
}
