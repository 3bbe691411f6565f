package main

import (
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/Klingon-tech/klingswap/internal/processor"
	"github.com/Klingon-tech/klingswap/internal/wallet"
	"github.com/Klingon-tech/klingswap/pkg/tx"
)

func newFlagSet(name string) *flag.FlagSet {
	return flag.NewFlagSet(name, flag.ExitOnError)
}

// keyFlags selects a signing key from a wallet.
type keyFlags struct {
	wallet  *string
	account *uint
	index   *uint
}

func addKeyFlags(fs *flag.FlagSet) keyFlags {
	return keyFlags{
		wallet:  fs.String("wallet", "", "Wallet name"),
		account: fs.Uint("account", 0, "Account number"),
		index:   fs.Uint("index", 0, "Address index"),
	}
}

// unlock prompts for the wallet password and derives the selected key.
func (k keyFlags) unlock(g *globals) *wallet.Account {
	if *k.wallet == "" {
		fatal("--wallet is required")
	}
	ks, err := wallet.NewKeystore(g.keystoreDir())
	if err != nil {
		fatal("open keystore: %v", err)
	}
	password, err := readPassword("Wallet password: ")
	if err != nil {
		fatal("read password: %v", err)
	}
	acct, err := ks.Unlock(*k.wallet, password, uint32(*k.account), uint32(*k.index))
	if err != nil {
		fatal("%v", err)
	}
	return acct
}

// submit signs payload as kind with the selected key and sends it.
func (k keyFlags) submit(g *globals, kind tx.Kind, payload any) *processor.Receipt {
	acct := k.unlock(g)
	defer acct.Key.Zero()

	b := tx.NewBuilder(kind).
		SetNonce(uint64(time.Now().UnixNano())).
		SetPayload(payload)
	if err := b.Sign(acct.Key); err != nil {
		fatal("sign: %v", err)
	}
	transaction, err := b.Build()
	if err != nil {
		fatal("build: %v", err)
	}
	receipt, err := g.client().Submit(transaction)
	if err != nil {
		fatal("%s: %v", kind, err)
	}
	fmt.Printf("Applied %s\n", receipt.Kind)
	fmt.Printf("  Tx:     %s\n", receipt.Hash)
	fmt.Printf("  Signer: %s\n", receipt.Signer)
	return receipt
}

func cmdWallet(g *globals, args []string) {
	if len(args) == 0 {
		fatal("Usage: klingswap-cli wallet <create|import|list|address>")
	}
	switch args[0] {
	case "create":
		cmdWalletCreate(g, args[1:])
	case "import":
		cmdWalletImport(g, args[1:])
	case "list":
		cmdWalletList(g)
	case "address":
		cmdWalletAddress(g, args[1:])
	default:
		fatal("unknown wallet command: %s", args[0])
	}
}

func cmdWalletCreate(g *globals, args []string) {
	fs := newFlagSet("wallet create")
	name := fs.String("name", "", "Wallet name")
	fs.Parse(args)
	if *name == "" {
		fatal("Usage: klingswap-cli wallet create --name <name>")
	}

	mnemonic, err := wallet.GenerateMnemonic()
	if err != nil {
		fatal("generate mnemonic: %v", err)
	}
	fmt.Println("Mnemonic (write this down!):")
	fmt.Printf("  %s\n\n", mnemonic)

	storeWallet(g, *name, mnemonic)
}

func cmdWalletImport(g *globals, args []string) {
	fs := newFlagSet("wallet import")
	name := fs.String("name", "", "Wallet name")
	mnemonic := fs.String("mnemonic", "", "BIP-39 mnemonic")
	fs.Parse(args)
	if *name == "" || *mnemonic == "" {
		fatal("Usage: klingswap-cli wallet import --name <name> --mnemonic \"word1 word2 ...\"")
	}
	if !wallet.ValidateMnemonic(*mnemonic) {
		fatal("invalid mnemonic")
	}
	storeWallet(g, *name, *mnemonic)
}

// storeWallet encrypts the mnemonic's seed under a new password and
// records the first address.
func storeWallet(g *globals, name, mnemonic string) {
	password, err := readPassword("Enter password: ")
	if err != nil {
		fatal("read password: %v", err)
	}
	confirm, err := readPassword("Confirm password: ")
	if err != nil {
		fatal("read password: %v", err)
	}
	if string(password) != string(confirm) {
		fatal("passwords do not match")
	}

	seed, err := wallet.SeedFromMnemonic(mnemonic, "")
	if err != nil {
		fatal("derive seed: %v", err)
	}
	defer func() {
		for i := range seed {
			seed[i] = 0
		}
	}()
	first, err := wallet.DeriveAccount(seed, 0, 0)
	if err != nil {
		fatal("derive address: %v", err)
	}
	first.Key.Zero()

	ks, err := wallet.NewKeystore(g.keystoreDir())
	if err != nil {
		fatal("open keystore: %v", err)
	}
	if err := ks.Create(name, seed, password, wallet.DefaultParams()); err != nil {
		fatal("create wallet: %v", err)
	}
	if err := ks.AddAccount(name, wallet.AccountEntry{Name: "Default", Address: first.Address}); err != nil {
		fatal("record address: %v", err)
	}

	fmt.Printf("Wallet created: %s\n", name)
	fmt.Printf("Address: %s\n", first.Address)
}

func cmdWalletList(g *globals) {
	ks, err := wallet.NewKeystore(g.keystoreDir())
	if err != nil {
		fatal("open keystore: %v", err)
	}
	names, err := ks.List()
	if err != nil {
		fatal("list wallets: %v", err)
	}
	if len(names) == 0 {
		fmt.Fprintln(os.Stderr, "No wallets found.")
		return
	}
	for _, n := range names {
		fmt.Println(n)
	}
}

func cmdWalletAddress(g *globals, args []string) {
	fs := newFlagSet("wallet address")
	key := addKeyFlags(fs)
	derive := fs.Bool("new", false, "Derive and record the next address of --account")
	fs.Parse(args)
	if *key.wallet == "" {
		fatal("Usage: klingswap-cli wallet address --wallet <name> [--new]")
	}

	ks, err := wallet.NewKeystore(g.keystoreDir())
	if err != nil {
		fatal("open keystore: %v", err)
	}

	if *derive {
		next, err := ks.NextIndex(*key.wallet, uint32(*key.account))
		if err != nil {
			fatal("%v", err)
		}
		*key.index = uint(next)
		acct := key.unlock(g)
		acct.Key.Zero()
		if err := ks.AddAccount(*key.wallet, wallet.AccountEntry{
			Name:    fmt.Sprintf("Address %d", next),
			Account: acct.Account,
			Index:   acct.Index,
			Address: acct.Address,
		}); err != nil {
			fatal("record address: %v", err)
		}
		fmt.Printf("%s  %s\n", acct.Path(), acct.Address)
		return
	}

	entries, err := ks.Accounts(*key.wallet)
	if err != nil {
		fatal("%v", err)
	}
	for _, e := range entries {
		fmt.Printf("%s  %s  %s\n", wallet.DerivationPath(e.Account, e.Index), e.Address, e.Name)
	}
}
