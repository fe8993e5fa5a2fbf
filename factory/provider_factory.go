package factory

import (
	"encoding/hex"
	"fmt"
	"net"
	"os"
	"strconv"
	"strings"
	"sync"

	"github.com/opd-ai/ipxsp"
	"github.com/opd-ai/ipxsp/interfaces"
	"github.com/opd-ai/ipxsp/ipx"
	"github.com/opd-ai/ipxsp/real"
	"github.com/opd-ai/ipxsp/testing"
	"github.com/sirupsen/logrus"
)

// Validation constants for configuration bounds checking.
const (
	// MinTTL is the smallest TTL accepted from the environment; 0 keeps the system default.
	MinTTL = 0
	// MaxTTL is the largest TTL accepted from the environment.
	MaxTTL = 255
)

// Environment variables read by NewProviderFactory.
const (
	EnvUseSimulation = "IPXSP_USE_SIMULATION"
	EnvLogCalls      = "IPXSP_LOG_CALLS"
	EnvLogLevel      = "IPXSP_LOG_LEVEL"
	EnvNetwork       = "IPXSP_NETWORK"
	EnvBroadcastIP   = "IPXSP_BROADCAST_IP"
	EnvBindIP        = "IPXSP_BIND_IP"
	EnvTTL           = "IPXSP_TTL"
)

// ProviderFactory creates service provider instances based on configuration.
// It is safe for concurrent use; all methods are protected by an internal mutex.
type ProviderFactory struct {
	mu            sync.RWMutex
	defaultConfig *interfaces.ProviderConfig

	// simNetwork is shared by every simulated provider this factory creates
	simNetwork *testing.SimulatedNetwork
}

// NewProviderFactory creates a new factory with default configuration
func NewProviderFactory() *ProviderFactory {
	defaultConfig := createDefaultConfig()
	applyEnvironmentOverrides(defaultConfig)
	applyLogLevel(defaultConfig)
	logConfigurationInfo(defaultConfig)

	return &ProviderFactory{
		defaultConfig: defaultConfig,
	}
}

// createDefaultConfig initializes the default provider configuration.
//
// Default Value Rationale:
//   - UseSimulation: false - real UDP sockets unless simulation is explicitly enabled
//   - LogCalls: false - per-call logging is for debugging only
//   - Network: 00000000 - the "local network" number used by most IPX games
//   - BroadcastIP: 255.255.255.255 - limited broadcast reaches the local segment
//   - BindIP: 0.0.0.0 - receive on every interface, required to receive broadcasts
func createDefaultConfig() *interfaces.ProviderConfig {
	return &interfaces.ProviderConfig{
		UseSimulation: false,
		LogCalls:      false,
		LogLevel:      "info",
		BroadcastIP:   net.IPv4bcast,
		BindIP:        net.IPv4zero,
		TTL:           0,
	}
}

// applyEnvironmentOverrides updates configuration based on environment variables.
// It checks for IPXSP_* environment variables and overrides defaults if valid values are found.
func applyEnvironmentOverrides(config *interfaces.ProviderConfig) {
	parseSimulationSetting(config)
	parseLogCallsSetting(config)
	parseLogLevelSetting(config)
	parseNetworkSetting(config)
	parseBroadcastIPSetting(config)
	parseBindIPSetting(config)
	parseTTLSetting(config)
}

// parseBoolEnv returns the boolean value of an environment variable. ok is
// false if the variable is unset or does not parse, in which case a warning
// naming current is logged for the latter.
func parseBoolEnv(function, envVar string, current bool) (value, ok bool) {
	str := os.Getenv(envVar)
	if str == "" {
		return false, false
	}
	value, err := strconv.ParseBool(str)
	if err != nil {
		logrus.WithFields(logrus.Fields{
			"function":    function,
			"env_var":     envVar,
			"value":       str,
			"error":       err.Error(),
			"using_value": current,
		}).Warn("Failed to parse boolean environment variable, using default")
		return false, false
	}
	return value, true
}

// parseSimulationSetting updates UseSimulation from IPXSP_USE_SIMULATION.
func parseSimulationSetting(config *interfaces.ProviderConfig) {
	if v, ok := parseBoolEnv("parseSimulationSetting", EnvUseSimulation, config.UseSimulation); ok {
		config.UseSimulation = v
	}
}

// parseLogCallsSetting updates LogCalls from IPXSP_LOG_CALLS.
func parseLogCallsSetting(config *interfaces.ProviderConfig) {
	if v, ok := parseBoolEnv("parseLogCallsSetting", EnvLogCalls, config.LogCalls); ok {
		config.LogCalls = v
	}
}

// parseLogLevelSetting updates LogLevel from IPXSP_LOG_LEVEL. Only levels
// logrus recognizes are accepted.
func parseLogLevelSetting(config *interfaces.ProviderConfig) {
	levelStr := os.Getenv(EnvLogLevel)
	if levelStr == "" {
		return
	}
	if _, err := logrus.ParseLevel(levelStr); err != nil {
		logrus.WithFields(logrus.Fields{
			"function":    "parseLogLevelSetting",
			"env_var":     EnvLogLevel,
			"value":       levelStr,
			"error":       err.Error(),
			"using_value": config.LogLevel,
		}).Warn("Failed to parse IPXSP_LOG_LEVEL environment variable, using default")
		return
	}
	config.LogLevel = strings.ToLower(levelStr)
}

// parseNetworkSetting updates Network from IPXSP_NETWORK, 8 hex digits.
func parseNetworkSetting(config *interfaces.ProviderConfig) {
	netStr := os.Getenv(EnvNetwork)
	if netStr == "" {
		return
	}
	netnum, err := ipx.ParseNetwork(netStr)
	if err != nil {
		logrus.WithFields(logrus.Fields{
			"function":    "parseNetworkSetting",
			"env_var":     EnvNetwork,
			"value":       netStr,
			"error":       err.Error(),
			"using_value": hex.EncodeToString(config.Network[:]),
		}).Warn("Failed to parse IPXSP_NETWORK environment variable, using default")
		return
	}
	config.Network = netnum
}

// parseIPv4Env returns the IPv4 address in an environment variable.
func parseIPv4Env(function, envVar string, current net.IP) (net.IP, bool) {
	str := os.Getenv(envVar)
	if str == "" {
		return nil, false
	}
	ip := net.ParseIP(str)
	if ip == nil || ip.To4() == nil {
		logrus.WithFields(logrus.Fields{
			"function":    function,
			"env_var":     envVar,
			"value":       str,
			"using_value": current.String(),
		}).Warn("Environment variable is not an IPv4 address, using default")
		return nil, false
	}
	return ip.To4(), true
}

// parseBroadcastIPSetting updates BroadcastIP from IPXSP_BROADCAST_IP.
func parseBroadcastIPSetting(config *interfaces.ProviderConfig) {
	if ip, ok := parseIPv4Env("parseBroadcastIPSetting", EnvBroadcastIP, config.BroadcastIP); ok {
		config.BroadcastIP = ip
	}
}

// parseBindIPSetting updates BindIP from IPXSP_BIND_IP.
func parseBindIPSetting(config *interfaces.ProviderConfig) {
	if ip, ok := parseIPv4Env("parseBindIPSetting", EnvBindIP, config.BindIP); ok {
		config.BindIP = ip
	}
}

// parseTTLSetting updates TTL from IPXSP_TTL. It validates the value is
// within bounds [MinTTL, MaxTTL] and logs warnings for invalid values.
func parseTTLSetting(config *interfaces.ProviderConfig) {
	ttlStr := os.Getenv(EnvTTL)
	if ttlStr == "" {
		return
	}
	ttl, err := strconv.Atoi(ttlStr)
	if err != nil {
		logrus.WithFields(logrus.Fields{
			"function":    "parseTTLSetting",
			"env_var":     EnvTTL,
			"value":       ttlStr,
			"error":       err.Error(),
			"using_value": config.TTL,
		}).Warn("Failed to parse IPXSP_TTL environment variable, using default")
		return
	}
	if ttl < MinTTL || ttl > MaxTTL {
		logrus.WithFields(logrus.Fields{
			"function":    "parseTTLSetting",
			"env_var":     EnvTTL,
			"value":       ttl,
			"min":         MinTTL,
			"max":         MaxTTL,
			"using_value": config.TTL,
		}).Warn("IPXSP_TTL value out of bounds, using default")
		return
	}
	config.TTL = ttl
}

// applyLogLevel sets the global logrus level from the configuration.
func applyLogLevel(config *interfaces.ProviderConfig) {
	level, err := logrus.ParseLevel(config.LogLevel)
	if err != nil {
		return
	}
	logrus.SetLevel(level)
}

// logConfigurationInfo logs the final configuration settings for debugging purposes.
func logConfigurationInfo(config *interfaces.ProviderConfig) {
	logrus.WithFields(logrus.Fields{
		"function":       "NewProviderFactory",
		"use_simulation": config.UseSimulation,
		"log_calls":      config.LogCalls,
		"log_level":      config.LogLevel,
		"network":        hex.EncodeToString(config.Network[:]),
		"broadcast_ip":   config.BroadcastIP.String(),
		"bind_ip":        config.BindIP.String(),
		"ttl":            config.TTL,
	}).Info("Created provider factory with configuration")
}

// CreateOpener returns the socket opener selected by the configuration.
func (f *ProviderFactory) CreateOpener() (ipx.Opener, error) {
	config := f.GetCurrentConfig()
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid provider configuration: %w", err)
	}

	if config.UseSimulation {
		logrus.WithFields(logrus.Fields{
			"function": "CreateOpener",
			"type":     "simulation",
		}).Info("Creating simulated socket opener")
		return f.SimulatedNetwork(), nil
	}

	logrus.WithFields(logrus.Fields{
		"function": "CreateOpener",
		"type":     "real",
	}).Info("Creating UDP socket opener")
	return real.NewUDPOpener(config), nil
}

// NewProvider initializes a provider instance for host.
func (f *ProviderFactory) NewProvider(host interfaces.Host) (*ipxsp.InitResult, error) {
	opener, err := f.CreateOpener()
	if err != nil {
		return nil, err
	}

	return ipxsp.Init(&ipxsp.InitData{
		GUID:     ipxsp.ProviderGUID,
		Host:     host,
		Opener:   opener,
		LogCalls: f.GetCurrentConfig().LogCalls,
	})
}

// SimulatedNetwork returns the network shared by simulated providers,
// creating it on first use.
func (f *ProviderFactory) SimulatedNetwork() *testing.SimulatedNetwork {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.simNetwork == nil {
		f.simNetwork = testing.NewSimulatedNetwork(cloneConfig(f.defaultConfig))
	}
	return f.simNetwork
}

// SwitchToSimulation switches the configuration to use simulation
func (f *ProviderFactory) SwitchToSimulation() {
	f.mu.Lock()
	defer f.mu.Unlock()

	logrus.WithFields(logrus.Fields{
		"function": "SwitchToSimulation",
		"previous": f.defaultConfig.UseSimulation,
	}).Info("Switching factory to simulation mode")

	f.defaultConfig.UseSimulation = true
}

// SwitchToReal switches the configuration to use real UDP sockets
func (f *ProviderFactory) SwitchToReal() {
	f.mu.Lock()
	defer f.mu.Unlock()

	logrus.WithFields(logrus.Fields{
		"function": "SwitchToReal",
		"previous": f.defaultConfig.UseSimulation,
	}).Info("Switching factory to real mode")

	f.defaultConfig.UseSimulation = false
}

// GetCurrentConfig returns a copy of the current default configuration
func (f *ProviderFactory) GetCurrentConfig() *interfaces.ProviderConfig {
	f.mu.RLock()
	defer f.mu.RUnlock()

	return cloneConfig(f.defaultConfig)
}

// IsUsingSimulation returns true if the factory is configured for simulation
func (f *ProviderFactory) IsUsingSimulation() bool {
	f.mu.RLock()
	defer f.mu.RUnlock()

	return f.defaultConfig.UseSimulation
}

// UpdateConfig validates and replaces the factory's default configuration
func (f *ProviderFactory) UpdateConfig(config *interfaces.ProviderConfig) error {
	if config == nil {
		return fmt.Errorf("config cannot be nil")
	}
	if err := config.Validate(); err != nil {
		return err
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	logrus.WithFields(logrus.Fields{
		"function":       "UpdateConfig",
		"old_simulation": f.defaultConfig.UseSimulation,
		"new_simulation": config.UseSimulation,
		"old_log_level":  f.defaultConfig.LogLevel,
		"new_log_level":  config.LogLevel,
	}).Info("Updating factory configuration")

	f.defaultConfig = cloneConfig(config)
	applyLogLevel(f.defaultConfig)
	return nil
}

func cloneConfig(c *interfaces.ProviderConfig) *interfaces.ProviderConfig {
	out := *c
	out.BroadcastIP = append(net.IP(nil), c.BroadcastIP...)
	out.BindIP = append(net.IP(nil), c.BindIP...)
	return &out
}
