package ipxsp

import (
	"github.com/opd-ai/ipxsp/interfaces"
	"github.com/opd-ai/ipxsp/limits"
)

// Capability values reported to the host. Most are nominal and match the
// reference IPX provider so that hosts inspecting them behave identically.
const (
	capsMaxPlayers = 65536
	capsLatency    = 50
	capsTimeout    = 500
)

// GetCaps fills in caps. The host must declare a record of at least
// interfaces.CapsSize bytes.
func (c *Connection) GetCaps(caps *interfaces.Caps) error {
	c.logCall("GetCaps", nil)

	if caps == nil || caps.Size < interfaces.CapsSize {
		return newOpError("get caps", "", ErrInvalidParams, nil)
	}
	fillCaps(caps)
	return nil
}

func fillCaps(caps *interfaces.Caps) {
	caps.Flags = 0
	caps.MaxBufferSize = limits.MaxBufferSize
	caps.MaxQueueSize = 0
	caps.MaxPlayers = capsMaxPlayers
	caps.HundredBaud = 0
	caps.Latency = capsLatency
	caps.MaxLocalPlayers = capsMaxPlayers
	caps.HeaderLength = HeaderSize
	caps.Timeout = capsTimeout
}
