package main

import (
	"fmt"

	"github.com/Klingon-tech/klingswap/pkg/tx"
	"github.com/Klingon-tech/klingswap/pkg/types"
)

func cmdMint(g *globals, args []string) {
	if len(args) == 0 {
		fatal("Usage: klingswap-cli mint <create|to>")
	}
	switch args[0] {
	case "create":
		fs := newFlagSet("mint create")
		key := addKeyFlags(fs)
		label := fs.String("label", "", "Label the mint address is derived from")
		name := fs.String("name", "", "Token name")
		symbol := fs.String("symbol", "", "Token symbol")
		decimals := fs.Uint("decimals", 0, "Decimal places")
		program := fs.String("program", "classic", "Token program: classic or extended")
		fs.Parse(args[1:])
		if *label == "" || *name == "" || *symbol == "" || *decimals > 255 {
			fatal("Usage: klingswap-cli mint create --wallet <n> --label <l> --name <n> --symbol <s> [--decimals N]")
		}
		r := key.submit(g, tx.KindTokenCreateMint, tx.CreateMintPayload{
			Program:  *program,
			Label:    *label,
			Decimals: uint8(*decimals),
			Name:     *name,
			Symbol:   *symbol,
		})
		printJSON(r.Mint)

	case "to":
		fs := newFlagSet("mint to")
		key := addKeyFlags(fs)
		mint := fs.String("mint", "", "Mint address")
		owner := fs.String("owner", "", "Recipient")
		amount := fs.String("amount", "", "Token amount, e.g. 1.5")
		fs.Parse(args[1:])
		mintAddr := parseAddress("mint", *mint)
		r := key.submit(g, tx.KindTokenMintTo, tx.MintToPayload{
			Mint:   mintAddr,
			Owner:  parseAddress("owner", *owner),
			Amount: g.tokenAmount(mintAddr, *amount),
		})
		printJSON(r.Account)

	default:
		fatal("unknown mint command: %s", args[0])
	}
}

func cmdAccount(g *globals, args []string) {
	if len(args) == 0 {
		fatal("Usage: klingswap-cli account <create|show|list>")
	}
	switch args[0] {
	case "create":
		fs := newFlagSet("account create")
		key := addKeyFlags(fs)
		mint := fs.String("mint", "", "Mint address")
		owner := fs.String("owner", "", "Account owner (default: signer)")
		fs.Parse(args[1:])
		var ownerAddr types.Address
		if *owner != "" {
			ownerAddr = parseAddress("owner", *owner)
		}
		r := key.submit(g, tx.KindTokenCreateAccount, tx.CreateAccountPayload{
			Mint:  parseAddress("mint", *mint),
			Owner: ownerAddr,
		})
		printJSON(r.Account)

	case "show":
		fs := newFlagSet("account show")
		addr := fs.String("address", "", "Token account address")
		owner := fs.String("owner", "", "Owner of the associated account")
		mint := fs.String("mint", "", "Mint of the associated account")
		fs.Parse(args[1:])
		var a, o, m types.Address
		if *addr != "" {
			a = parseAddress("address", *addr)
		} else {
			o, m = parseAddress("owner", *owner), parseAddress("mint", *mint)
		}
		acct, err := g.client().TokenAccount(a, o, m)
		if err != nil {
			fatal("token_getAccount: %v", err)
		}
		printJSON(acct)
		if mint, err := g.client().Mint(acct.Mint); err == nil {
			fmt.Printf("Balance: %s %s\n", formatTokenAmount(acct.Amount, mint.Decimals), mint.Symbol)
		}

	case "list":
		fs := newFlagSet("account list")
		owner := fs.String("owner", "", "Owner address")
		fs.Parse(args[1:])
		accts, err := g.client().TokenAccounts(parseAddress("owner", *owner))
		if err != nil {
			fatal("token_listAccounts: %v", err)
		}
		printJSON(accts)

	default:
		fatal("unknown account command: %s", args[0])
	}
}

func cmdTransfer(g *globals, args []string) {
	fs := newFlagSet("transfer")
	key := addKeyFlags(fs)
	mint := fs.String("mint", "", "Mint address")
	to := fs.String("to", "", "Recipient owner")
	amount := fs.String("amount", "", "Token amount, e.g. 1.5")
	fs.Parse(args)
	mintAddr := parseAddress("mint", *mint)
	key.submit(g, tx.KindTokenTransfer, tx.TransferPayload{
		Mint:   mintAddr,
		To:     parseAddress("to", *to),
		Amount: g.tokenAmount(mintAddr, *amount),
	})
}

// mintDecimals fetches the decimals of mint from the node.
func (g *globals) mintDecimals(mint types.Address) uint8 {
	m, err := g.client().Mint(mint)
	if err != nil {
		fatal("token_getMint %s: %v", mint, err)
	}
	return m.Decimals
}

// tokenAmount parses a --amount flag in units of mint.
func (g *globals) tokenAmount(mint types.Address, s string) uint64 {
	if s == "" {
		fatal("--amount is required")
	}
	v, err := parseTokenAmount64(s, g.mintDecimals(mint))
	if err != nil {
		fatal("%v", err)
	}
	return v
}
