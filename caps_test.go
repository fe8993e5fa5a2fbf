package ipxsp

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/opd-ai/ipxsp/interfaces"
)

func TestGetCaps(t *testing.T) {
	env := newTestEnv(t)

	caps := interfaces.Caps{Size: interfaces.CapsSize, Flags: 0xFFFF, MaxQueueSize: 9}
	require.NoError(t, env.conn.GetCaps(&caps))

	assert.Equal(t, interfaces.Caps{
		Size:            40,
		Flags:           0,
		MaxBufferSize:   1024,
		MaxQueueSize:    0,
		MaxPlayers:      65536,
		HundredBaud:     0,
		Latency:         50,
		MaxLocalPlayers: 65536,
		HeaderLength:    14,
		Timeout:         500,
	}, caps)
}

func TestGetCapsLargerRecord(t *testing.T) {
	env := newTestEnv(t)

	caps := interfaces.Caps{Size: 64}
	require.NoError(t, env.conn.GetCaps(&caps))
	assert.Equal(t, uint32(64), caps.Size, "declared size is preserved")
	assert.Equal(t, uint32(1024), caps.MaxBufferSize)
}

func TestGetCapsRejectsSmallRecord(t *testing.T) {
	env := newTestEnv(t)

	caps := interfaces.Caps{Size: interfaces.CapsSize - 1}
	err := env.conn.GetCaps(&caps)
	assert.ErrorIs(t, err, ErrInvalidParams)
	assert.Equal(t, interfaces.Caps{Size: interfaces.CapsSize - 1}, caps, "record left untouched")

	assert.ErrorIs(t, env.conn.GetCaps(nil), ErrInvalidParams)
}

func TestGetCapsIndependentOfState(t *testing.T) {
	env := newTestEnv(t)
	require.NoError(t, env.conn.Open(true, nil))
	require.NoError(t, env.conn.ShutdownEx())

	caps := interfaces.Caps{Size: interfaces.CapsSize}
	require.NoError(t, env.conn.GetCaps(&caps))
	assert.Equal(t, uint32(50), caps.Latency)
	assert.Equal(t, uint32(500), caps.Timeout)
}
