package factory

import (
	"net"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/opd-ai/ipxsp"
	"github.com/opd-ai/ipxsp/real"
	simtest "github.com/opd-ai/ipxsp/testing"
)

// clearEnv makes sure no IPXSP_* variable from the caller's environment
// leaks into a test.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, env := range []string{EnvUseSimulation, EnvLogCalls, EnvLogLevel, EnvNetwork, EnvBroadcastIP, EnvBindIP, EnvTTL} {
		t.Setenv(env, "")
	}
	level := logrus.GetLevel()
	t.Cleanup(func() { logrus.SetLevel(level) })
}

// TestNewProviderFactory verifies default factory creation
func TestNewProviderFactory(t *testing.T) {
	clearEnv(t)
	factory := NewProviderFactory()

	config := factory.GetCurrentConfig()
	require.NotNil(t, config)

	assert.False(t, config.UseSimulation)
	assert.False(t, config.LogCalls)
	assert.Equal(t, "info", config.LogLevel)
	assert.Equal(t, [4]byte{}, config.Network)
	assert.True(t, config.BroadcastIP.Equal(net.IPv4bcast))
	assert.True(t, config.BindIP.Equal(net.IPv4zero))
	assert.Equal(t, 0, config.TTL)
	assert.NoError(t, config.Validate())
}

// TestEnvironmentVariableParsing verifies environment variable handling
func TestEnvironmentVariableParsing(t *testing.T) {
	clearEnv(t)
	t.Setenv(EnvUseSimulation, "true")
	t.Setenv(EnvLogCalls, "1")
	t.Setenv(EnvLogLevel, "DEBUG")
	t.Setenv(EnvNetwork, "0000000A")
	t.Setenv(EnvBroadcastIP, "192.168.1.255")
	t.Setenv(EnvBindIP, "192.168.1.10")
	t.Setenv(EnvTTL, "4")

	config := NewProviderFactory().GetCurrentConfig()

	assert.True(t, config.UseSimulation)
	assert.True(t, config.LogCalls)
	assert.Equal(t, "debug", config.LogLevel)
	assert.Equal(t, logrus.DebugLevel, logrus.GetLevel())
	assert.Equal(t, [4]byte{0, 0, 0, 0x0A}, config.Network)
	assert.True(t, config.BroadcastIP.Equal(net.IPv4(192, 168, 1, 255)))
	assert.True(t, config.BindIP.Equal(net.IPv4(192, 168, 1, 10)))
	assert.Equal(t, 4, config.TTL)
}

// TestInvalidEnvironmentValuesKeepDefaults verifies bad values are ignored
func TestInvalidEnvironmentValuesKeepDefaults(t *testing.T) {
	tests := []struct {
		name   string
		envVar string
		value  string
	}{
		{"bad bool", EnvUseSimulation, "maybe"},
		{"bad log calls", EnvLogCalls, "yes please"},
		{"bad level", EnvLogLevel, "verbose"},
		{"bad network", EnvNetwork, "zz"},
		{"ipv6 broadcast", EnvBroadcastIP, "ff02::1"},
		{"bad bind", EnvBindIP, "localhost"},
		{"ttl not a number", EnvTTL, "ten"},
		{"ttl too large", EnvTTL, "300"},
		{"ttl negative", EnvTTL, "-1"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearEnv(t)
			t.Setenv(tt.envVar, tt.value)

			got := NewProviderFactory().GetCurrentConfig()
			assert.Equal(t, createDefaultConfig(), got)
		})
	}
}

func TestGetCurrentConfigReturnsCopy(t *testing.T) {
	clearEnv(t)
	factory := NewProviderFactory()

	config := factory.GetCurrentConfig()
	config.UseSimulation = true
	config.BroadcastIP[0] = 10

	fresh := factory.GetCurrentConfig()
	assert.False(t, fresh.UseSimulation)
	assert.True(t, fresh.BroadcastIP.Equal(net.IPv4bcast))
}

func TestModeSwitching(t *testing.T) {
	clearEnv(t)
	factory := NewProviderFactory()

	factory.SwitchToSimulation()
	assert.True(t, factory.IsUsingSimulation())
	opener, err := factory.CreateOpener()
	require.NoError(t, err)
	assert.IsType(t, &simtest.SimulatedNetwork{}, opener)
	assert.Same(t, factory.SimulatedNetwork(), opener)

	factory.SwitchToReal()
	assert.False(t, factory.IsUsingSimulation())
	opener, err = factory.CreateOpener()
	require.NoError(t, err)
	assert.IsType(t, &real.UDPOpener{}, opener)
}

func TestUpdateConfig(t *testing.T) {
	clearEnv(t)
	factory := NewProviderFactory()

	assert.Error(t, factory.UpdateConfig(nil))

	bad := factory.GetCurrentConfig()
	bad.TTL = 1000
	assert.Error(t, factory.UpdateConfig(bad))

	good := factory.GetCurrentConfig()
	good.LogCalls = true
	good.LogLevel = "warn"
	require.NoError(t, factory.UpdateConfig(good))
	assert.True(t, factory.GetCurrentConfig().LogCalls)
	assert.Equal(t, logrus.WarnLevel, logrus.GetLevel())
}

func TestNewProviderSimulated(t *testing.T) {
	clearEnv(t)
	factory := NewProviderFactory()
	factory.SwitchToSimulation()

	hostA := simtest.NewSimulatedHost()
	hostB := simtest.NewSimulatedHost()

	resA, err := factory.NewProvider(hostA)
	require.NoError(t, err)
	resB, err := factory.NewProvider(hostB)
	require.NoError(t, err)

	assert.Equal(t, ipxsp.HeaderSize, resA.HeaderSize)
	assert.Equal(t, uint32(ipxsp.SPVersion), resA.Version)
	assert.Equal(t, 2, factory.SimulatedNetwork().OpenSockets())

	require.NoError(t, resA.Provider.ShutdownEx())
	require.NoError(t, resB.Provider.ShutdownEx())
	assert.Equal(t, 0, factory.SimulatedNetwork().OpenSockets())
}
