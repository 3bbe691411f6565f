// klingswap-cli is a command-line client for a klingswapd node.
package main

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/Klingon-tech/klingswap/config"
	"github.com/Klingon-tech/klingswap/internal/rpcclient"
	"github.com/Klingon-tech/klingswap/pkg/types"
	"golang.org/x/term"
)

// globals holds flags shared by every command.
type globals struct {
	rpcURL  string
	dataDir string
	network config.NetworkType
}

func (g *globals) client() *rpcclient.Client {
	return rpcclient.New(g.rpcURL)
}

// keystoreDir matches klingswapd's layout: <datadir>/<network>/keystore.
func (g *globals) keystoreDir() string {
	cfg := config.Config{Network: g.network, DataDir: g.dataDir}
	return cfg.KeystoreDir()
}

func main() {
	g, args, err := parseGlobals(os.Args[1:])
	if err != nil {
		fatal("%v", err)
	}
	types.SetAddressHRP(config.Default(g.network).HRP())

	if len(args) == 0 {
		usage()
		os.Exit(1)
	}

	cmd, cmdArgs := args[0], args[1:]
	switch cmd {
	case "status":
		cmdStatus(g)
	case "wallet":
		cmdWallet(g, cmdArgs)
	case "mint":
		cmdMint(g, cmdArgs)
	case "account":
		cmdAccount(g, cmdArgs)
	case "escrow":
		cmdEscrow(g, cmdArgs)
	case "transfer":
		cmdTransfer(g, cmdArgs)
	case "balance":
		cmdBalance(g, cmdArgs)
	case "faucet":
		cmdFaucet(g, cmdArgs)
	case "help", "--help", "-h":
		usage()
	case "version", "--version":
		fmt.Printf("klingswap-cli %s\n", config.Version)
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", cmd)
		usage()
		os.Exit(1)
	}
}

// parseGlobals consumes the global flags in front of the command and
// fills in network defaults.
func parseGlobals(args []string) (*globals, []string, error) {
	g := &globals{dataDir: config.DefaultDataDir(), network: config.Mainnet}
scan:
	for len(args) > 0 {
		switch {
		case args[0] == "--testnet":
			g.network = config.Testnet
			args = args[1:]
		case args[0] == "--rpc" && len(args) > 1:
			g.rpcURL = args[1]
			args = args[2:]
		case strings.HasPrefix(args[0], "--rpc="):
			g.rpcURL = args[0][len("--rpc="):]
			args = args[1:]
		case args[0] == "--datadir" && len(args) > 1:
			g.dataDir = args[1]
			args = args[2:]
		case strings.HasPrefix(args[0], "--datadir="):
			g.dataDir = args[0][len("--datadir="):]
			args = args[1:]
		case args[0] == "--network" && len(args) > 1:
			g.network = config.NetworkType(args[1])
			args = args[2:]
		case strings.HasPrefix(args[0], "--network="):
			g.network = config.NetworkType(args[0][len("--network="):])
			args = args[1:]
		default:
			break scan
		}
	}

	if g.network != config.Mainnet && g.network != config.Testnet {
		return nil, nil, fmt.Errorf("unknown network %q", g.network)
	}
	if g.rpcURL == "" {
		g.rpcURL = fmt.Sprintf("http://127.0.0.1:%d", config.Default(g.network).RPC.Port)
	}
	g.dataDir = expandHome(g.dataDir)
	return g, args, nil
}

func usage() {
	fmt.Fprintf(os.Stderr, `Usage: klingswap-cli [global flags] <command> [flags]

Global flags:
  --rpc <url>         RPC endpoint (default: http://127.0.0.1:<network rpc port>)
  --datadir <path>    Data directory (default: ~/.klingswap)
  --network <net>     mainnet (default) or testnet
  --testnet           Shorthand for --network testnet

Commands:
  status                                  Node information
  wallet create --name <n>                Create a wallet with a new mnemonic
  wallet import --name <n> --mnemonic ... Import a wallet from a mnemonic
  wallet list                             List wallets
  wallet address --wallet <n> [--new]     Show (or derive a new) address
  mint create --wallet <n> --label <l> --name <n> --symbol <s> [--decimals N] [--program classic|extended]
  mint to --wallet <n> --mint <addr> --owner <addr> --amount X
  account create --wallet <n> --mint <addr> [--owner <addr>]
  account show (--address <addr> | --owner <addr> --mint <addr>)
  account list --owner <addr>
  escrow make --wallet <n> --seed N --offer-mint <addr> --offer X --want-mint <addr> --want X
  escrow take --wallet <n> --escrow <addr>
  escrow refund --wallet <n> --escrow <addr>
  escrow show --escrow <addr>
  escrow list --owner <addr>
  escrow address --owner <addr> --seed N --mint <addr> [--program classic|extended]
  transfer --wallet <n> --mint <addr> --to <addr> --amount X
  balance <address>                       Native balance
  faucet <address> [--amount N]           Request native balance (testnet)

Token amounts (X) are in token units and may carry up to the mint's
decimals, e.g. 1.5. Signing commands accept --account N and --index N to select the key at
m/44'/8888'/account'/0/index (default 0/0).
`)
}

// expandHome replaces a leading ~ with the user's home directory.
func expandHome(path string) string {
	rest, ok := strings.CutPrefix(path, "~")
	if !ok {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, rest)
}

func cmdStatus(g *globals) {
	info, err := g.client().NodeInfo()
	if err != nil {
		fatal("node_getInfo: %v", err)
	}
	fmt.Printf("Version:        %s\n", info.Version)
	fmt.Printf("Network:        %s (%s)\n", info.Network, info.HRP)
	fmt.Printf("Escrow program: %s\n", info.EscrowProgram)
	fmt.Printf("Open escrows:   %d\n", info.OpenEscrows)
	fmt.Printf("Deposit:        %d + %d/byte\n", info.DepositBase, info.DepositPerByte)
	fmt.Printf("Faucet:         %v\n", info.Faucet)
}

func cmdBalance(g *globals, args []string) {
	if len(args) != 1 {
		fatal("Usage: klingswap-cli balance <address>")
	}
	addr := parseAddress("address", args[0])
	bal, err := g.client().Balance(addr)
	if err != nil {
		fatal("ledger_getBalance: %v", err)
	}
	fmt.Printf("%s: %d\n", addr, bal)
}

func cmdFaucet(g *globals, args []string) {
	if len(args) < 1 {
		fatal("Usage: klingswap-cli faucet <address> [--amount N]")
	}
	addr := parseAddress("address", args[0])
	fs := newFlagSet("faucet")
	amount := fs.Uint64("amount", 0, "Native units (0 = node default)")
	fs.Parse(args[1:])

	bal, err := g.client().Faucet(addr, *amount)
	if err != nil {
		fatal("ledger_faucet: %v", err)
	}
	fmt.Printf("%s: %d\n", addr, bal)
}

// ── Helpers ─────────────────────────────────────────────────────────────

func parseAddress(name, s string) types.Address {
	if s == "" {
		fatal("--%s is required", name)
	}
	addr, err := validateAddress(s)
	if err != nil {
		fatal("invalid %s: %v", name, err)
	}
	return addr
}

// validateAddress parses a bech32 or hex address and rejects addresses of
// the other network.
func validateAddress(s string) (types.Address, error) {
	addr, err := types.ParseAddress(s)
	if err != nil {
		return types.Address{}, err
	}
	if hrp, _, ok := strings.Cut(s, "1"); ok && len(s) != 2*types.AddressSize && hrp != types.GetAddressHRP() {
		return types.Address{}, fmt.Errorf("%s address on %s network", hrp, types.GetAddressHRP())
	}
	return addr, nil
}

func printJSON(v interface{}) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		fatal("encode: %v", err)
	}
	fmt.Println(string(data))
}

func readPassword(prompt string) ([]byte, error) {
	fmt.Fprint(os.Stderr, prompt)
	password, err := term.ReadPassword(int(syscall.Stdin))
	fmt.Fprintln(os.Stderr) // newline after hidden input
	if err != nil {
		return nil, err
	}
	return password, nil
}

func fatal(format string, args ...interface{}) {
	fmt.Fprintf(os.Stderr, "Error: "+format+"\n", args...)
	os.Exit(1)
}
