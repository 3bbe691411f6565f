package config

import (
	"fmt"
	"math"
	"net"
	"strings"
)

// Validate checks runtime node config for obvious operator mistakes.
func Validate(cfg *Config) error {
	if cfg == nil {
		return fmt.Errorf("config is nil")
	}
	if cfg.Network != Mainnet && cfg.Network != Testnet {
		return fmt.Errorf("network must be %q or %q", Mainnet, Testnet)
	}
	switch cfg.DB.Backend {
	case BackendBadger, BackendMemory:
	default:
		return fmt.Errorf("db.backend must be %q or %q", BackendBadger, BackendMemory)
	}
	if cfg.RPC.Port < 0 || cfg.RPC.Port > 65535 {
		return fmt.Errorf("rpc.port must be in range [0, 65535]")
	}
	if cfg.Metrics.Enabled {
		if _, _, err := net.SplitHostPort(cfg.Metrics.Addr); err != nil {
			return fmt.Errorf("metrics.addr must be host:port: %w", err)
		}
	}
	for i, entry := range cfg.RPC.AllowedIPs {
		if _, _, err := net.ParseCIDR(entry); err == nil {
			continue
		}
		if net.ParseIP(entry) == nil {
			return fmt.Errorf("rpc.allowed[%d] %q is not an IP or CIDR", i, entry)
		}
	}

	// The largest account must be payable without overflow.
	const maxAccountData = 1 << 12
	if cfg.Ledger.DepositPerByte > math.MaxUint64/maxAccountData {
		return fmt.Errorf("ledger.deposit_per_byte is too large")
	}
	if cfg.Ledger.DepositBase > math.MaxUint64-cfg.Ledger.DepositPerByte*maxAccountData {
		return fmt.Errorf("ledger.deposit_base is too large")
	}

	if cfg.Faucet.Enabled && cfg.Faucet.Amount == 0 {
		return fmt.Errorf("faucet.amount must be positive when the faucet is enabled")
	}
	if cfg.Faucet.Enabled && cfg.Network == Mainnet {
		return fmt.Errorf("faucet cannot be enabled on mainnet")
	}

	switch strings.ToLower(cfg.Log.Level) {
	case "debug", "info", "warn", "warning", "error", "":
	default:
		return fmt.Errorf("log.level must be debug, info, warn or error")
	}
	return nil
}
