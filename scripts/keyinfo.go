// keyinfo prints the public key and network addresses of a signing key.
//
// Usage:
//
//	go run scripts/keyinfo.go <hex-keyfile>
//	go run scripts/keyinfo.go -mnemonic "word1 ..." [-account N] [-index N]
package main

import (
	"encoding/hex"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/Klingon-tech/klingswap/internal/wallet"
	"github.com/Klingon-tech/klingswap/pkg/crypto"
	"github.com/Klingon-tech/klingswap/pkg/types"
)

func main() {
	mnemonic := flag.String("mnemonic", "", "Derive the key from a BIP-39 mnemonic")
	account := flag.Uint("account", 0, "Account number (with -mnemonic)")
	index := flag.Uint("index", 0, "Address index (with -mnemonic)")
	flag.Parse()

	var key *crypto.PrivateKey
	switch {
	case *mnemonic != "":
		seed, err := wallet.SeedFromMnemonic(*mnemonic, "")
		exitOn(err)
		acct, err := wallet.DeriveAccount(seed, uint32(*account), uint32(*index))
		exitOn(err)
		fmt.Printf("path=%s\n", acct.Path())
		key = acct.Key
	case flag.NArg() == 1:
		data, err := os.ReadFile(flag.Arg(0))
		exitOn(err)
		keyBytes, err := hex.DecodeString(strings.TrimSpace(string(data)))
		exitOn(err)
		key, err = crypto.PrivateKeyFromBytes(keyBytes)
		exitOn(err)
	default:
		fmt.Fprintln(os.Stderr, "usage: keyinfo <keyfile> | keyinfo -mnemonic \"...\"")
		os.Exit(1)
	}
	defer key.Zero()

	addr := key.Address()
	fmt.Printf("pubkey=%s\n", hex.EncodeToString(key.PublicKey()))
	fmt.Printf("hex=%s\n", hex.EncodeToString(addr[:]))
	for _, hrp := range []string{types.MainnetHRP, types.TestnetHRP} {
		types.SetAddressHRP(hrp)
		fmt.Printf("%s=%s\n", hrp, addr)
	}
}

func exitOn(err error) {
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
