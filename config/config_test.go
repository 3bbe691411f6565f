package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestLoad_Precedence(t *testing.T) {
	dir := t.TempDir()
	conf := filepath.Join(dir, "custom.conf")
	content := `# comment
network = testnet
db.backend = memory
rpc.port = 9000
metrics.enabled = true
ledger.deposit_base = 5
faucet.amount = "42"
log.level = debug
`
	if err := os.WriteFile(conf, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, _, err := Load([]string{"--testnet", "--datadir", dir, "--config", conf, "--rpc-port", "9100", "--log-json"})
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.Network != Testnet {
		t.Errorf("network = %s, want testnet", cfg.Network)
	}
	if cfg.DB.Backend != BackendMemory {
		t.Errorf("db.backend = %s, want memory", cfg.DB.Backend)
	}
	if cfg.RPC.Port != 9100 {
		t.Errorf("rpc.port = %d, want flag value 9100", cfg.RPC.Port)
	}
	if !cfg.Metrics.Enabled || cfg.Metrics.Addr != "127.0.0.1:9675" {
		t.Errorf("metrics = %+v", cfg.Metrics)
	}
	if cfg.Ledger.DepositBase != 5 || cfg.Ledger.DepositPerByte != 7 {
		t.Errorf("ledger = %+v", cfg.Ledger)
	}
	if !cfg.Faucet.Enabled || cfg.Faucet.Amount != 42 {
		t.Errorf("faucet = %+v", cfg.Faucet)
	}
	if cfg.Log.Level != "debug" || !cfg.Log.JSON {
		t.Errorf("log = %+v", cfg.Log)
	}
	if cfg.HRP() != "tksw" {
		t.Errorf("HRP = %s, want tksw", cfg.HRP())
	}
	if _, err := os.Stat(cfg.LedgerDir()); err != nil {
		t.Errorf("ledger dir not created: %v", err)
	}
}

func TestLoad_WritesDefaultConfig(t *testing.T) {
	dir := t.TempDir()
	if _, _, err := Load([]string{"--datadir", dir}); err != nil {
		t.Fatalf("Load: %v", err)
	}
	values, err := LoadFile(filepath.Join(dir, "klingswap.conf"))
	if err != nil {
		t.Fatalf("LoadFile: %v", err)
	}
	if values["network"] != "mainnet" || values["db.backend"] != "badger" {
		t.Errorf("default config values = %v", values)
	}

	// The written file must load back into a valid config.
	cfg := Default(Mainnet)
	cfg.DataDir = dir
	if err := ApplyFileConfig(cfg, values); err != nil {
		t.Fatalf("ApplyFileConfig: %v", err)
	}
	if err := Validate(cfg); err != nil {
		t.Errorf("Validate(default file) = %v", err)
	}
}

func TestLoad_HelpAndBadFlags(t *testing.T) {
	cfg, flags, err := Load([]string{"-h"})
	if err != nil || cfg != nil || !flags.Help {
		t.Errorf("help: cfg=%v flags=%+v err=%v", cfg, flags, err)
	}
	if _, _, err := Load([]string{"--no-such-flag"}); err == nil {
		t.Error("unknown flag should fail")
	}
	if _, _, err := Load([]string{"stray", "--rpc-port", "1"}); err == nil || !strings.Contains(err.Error(), "not parsed") {
		t.Errorf("positional argument: err = %v", err)
	}
}

func TestLoadFile_BadLine(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.conf")
	os.WriteFile(path, []byte("network testnet\n"), 0644)
	if _, err := LoadFile(path); err == nil {
		t.Error("line without = should fail")
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		modify func(*Config)
		ok     bool
	}{
		{"defaults", func(*Config) {}, true},
		{"bad network", func(c *Config) { c.Network = "devnet" }, false},
		{"bad backend", func(c *Config) { c.DB.Backend = "pebble" }, false},
		{"bad port", func(c *Config) { c.RPC.Port = 70000 }, false},
		{"bad allowed ip", func(c *Config) { c.RPC.AllowedIPs = []string{"localhost"} }, false},
		{"cidr allowed", func(c *Config) { c.RPC.AllowedIPs = []string{"10.0.0.0/8"} }, true},
		{"bad metrics addr", func(c *Config) { c.Metrics.Enabled = true; c.Metrics.Addr = "9575" }, false},
		{"faucet on mainnet", func(c *Config) { c.Faucet = FaucetConfig{Enabled: true, Amount: 1} }, false},
		{"huge per byte", func(c *Config) { c.Ledger.DepositPerByte = 1 << 62 }, false},
		{"bad log level", func(c *Config) { c.Log.Level = "loud" }, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultMainnet()
			tt.modify(cfg)
			err := Validate(cfg)
			if tt.ok && err != nil {
				t.Errorf("Validate() = %v, want nil", err)
			}
			if !tt.ok && err == nil {
				t.Error("Validate() = nil, want error")
			}
		})
	}
}
