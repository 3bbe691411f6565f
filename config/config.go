// Package config handles node configuration.
//
// Settings are layered: built-in defaults for the network, then the
// key = value config file in the data directory, then command-line flags.
package config

import (
	"os"
	"path/filepath"
	"runtime"
)

// NetworkType identifies mainnet or testnet.
type NetworkType string

const (
	Mainnet NetworkType = "mainnet"
	Testnet NetworkType = "testnet"
)

// Storage backends.
const (
	BackendBadger = "badger"
	BackendMemory = "memory"
)

// Config holds node runtime configuration.
type Config struct {
	// Core
	Network NetworkType `conf:"network"`
	DataDir string      `conf:"datadir"`

	// Storage
	DB DBConfig

	// RPC server
	RPC RPCConfig

	// Prometheus metrics
	Metrics MetricsConfig

	// Storage-deposit pricing
	Ledger LedgerConfig

	// Development faucet
	Faucet FaucetConfig

	// Logging
	Log LogConfig
}

// DBConfig selects the storage backend.
type DBConfig struct {
	Backend string `conf:"db.backend"` // badger or memory
}

// RPCConfig holds RPC server settings.
type RPCConfig struct {
	Enabled     bool     `conf:"rpc.enabled"`
	Addr        string   `conf:"rpc.addr"`
	Port        int      `conf:"rpc.port"`
	AllowedIPs  []string `conf:"rpc.allowed"`
	CORSOrigins []string `conf:"rpc.cors"` // Allowed CORS origins ("*" = all).
}

// MetricsConfig holds the metrics endpoint settings.
type MetricsConfig struct {
	Enabled bool   `conf:"metrics.enabled"`
	Addr    string `conf:"metrics.addr"` // host:port of the /metrics listener
}

// LedgerConfig prices storage deposits: base + per_byte * data length.
type LedgerConfig struct {
	DepositBase    uint64 `conf:"ledger.deposit_base"`
	DepositPerByte uint64 `conf:"ledger.deposit_per_byte"`
}

// FaucetConfig controls ledger_faucet.
type FaucetConfig struct {
	Enabled bool   `conf:"faucet.enabled"`
	Amount  uint64 `conf:"faucet.amount"` // Max native units per request.
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level string `conf:"log.level"`
	File  string `conf:"log.file"`
	JSON  bool   `conf:"log.json"`
}

// HRP returns the bech32 human-readable part of addresses on the network.
func (c *Config) HRP() string {
	if c.Network == Testnet {
		return "tksw"
	}
	return "ksw"
}

// =============================================================================
// Directory helpers
// =============================================================================

// DefaultDataDir returns the platform-specific default data directory.
//
//	Linux:   ~/.klingswap
//	macOS:   ~/Library/Application Support/Klingswap
//	Windows: %APPDATA%\Klingswap
func DefaultDataDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".klingswap"
	}
	switch runtime.GOOS {
	case "darwin":
		return filepath.Join(home, "Library", "Application Support", "Klingswap")
	case "windows":
		appData := os.Getenv("APPDATA")
		if appData != "" {
			return filepath.Join(appData, "Klingswap")
		}
		return filepath.Join(home, "AppData", "Roaming", "Klingswap")
	default:
		return filepath.Join(home, ".klingswap")
	}
}

// NetworkDataDir returns the network-specific data directory.
func (c *Config) NetworkDataDir() string {
	return filepath.Join(c.DataDir, string(c.Network))
}

// LedgerDir returns the ledger database directory.
func (c *Config) LedgerDir() string {
	return filepath.Join(c.NetworkDataDir(), "ledger")
}

// KeystoreDir returns the keystore directory.
func (c *Config) KeystoreDir() string {
	return filepath.Join(c.NetworkDataDir(), "keystore")
}

// LogsDir returns the logs directory.
func (c *Config) LogsDir() string {
	return filepath.Join(c.DataDir, "logs")
}

// ConfigFile returns the config file path.
func (c *Config) ConfigFile() string {
	return filepath.Join(c.DataDir, "klingswap.conf")
}
