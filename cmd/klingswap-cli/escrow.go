package main

import (
	"github.com/Klingon-tech/klingswap/internal/rpc"
	"github.com/Klingon-tech/klingswap/internal/rpcclient"
	"github.com/Klingon-tech/klingswap/pkg/tx"
)

func cmdEscrow(g *globals, args []string) {
	if len(args) == 0 {
		fatal("Usage: klingswap-cli escrow <make|take|refund|show|list|address>")
	}
	switch args[0] {
	case "make":
		fs := newFlagSet("escrow make")
		key := addKeyFlags(fs)
		seed := fs.Uint64("seed", 0, "Escrow seed (unique per maker)")
		offerMint := fs.String("offer-mint", "", "Mint of the offered token")
		offer := fs.String("offer", "", "Offered amount in token units, e.g. 1.5")
		wantMint := fs.String("want-mint", "", "Mint of the requested token")
		want := fs.String("want", "", "Requested amount in token units")
		fs.Parse(args[1:])
		if *offer == "" || *want == "" {
			fatal("--offer and --want are required")
		}
		offered, requested := parseAddress("offer-mint", *offerMint), parseAddress("want-mint", *wantMint)
		offerUnits, err := parseTokenAmount(*offer, g.mintDecimals(offered))
		if err != nil {
			fatal("--offer: %v", err)
		}
		wantUnits, err := parseTokenAmount(*want, g.mintDecimals(requested))
		if err != nil {
			fatal("--want: %v", err)
		}
		r := key.submit(g, tx.KindEscrowMake, tx.MakePayload{
			Seed:            *seed,
			MintOffered:     offered,
			MintRequested:   requested,
			AmountOffered:   offerUnits.Dec(),
			AmountRequested: wantUnits.Dec(),
		})
		printJSON(r.Escrow)

	case "take":
		fs := newFlagSet("escrow take")
		key := addKeyFlags(fs)
		escrowAddr := fs.String("escrow", "", "Escrow address")
		fs.Parse(args[1:])
		key.submit(g, tx.KindEscrowTake, tx.TakePayload{Escrow: parseAddress("escrow", *escrowAddr)})

	case "refund":
		fs := newFlagSet("escrow refund")
		key := addKeyFlags(fs)
		escrowAddr := fs.String("escrow", "", "Escrow address")
		fs.Parse(args[1:])
		key.submit(g, tx.KindEscrowRefund, tx.RefundPayload{Escrow: parseAddress("escrow", *escrowAddr)})

	case "show":
		fs := newFlagSet("escrow show")
		escrowAddr := fs.String("escrow", "", "Escrow address")
		fs.Parse(args[1:])
		addr := parseAddress("escrow", *escrowAddr)
		offer, err := g.client().Escrow(addr)
		if rpcclient.IsNotFound(err) {
			fatal("no open escrow at %s", addr)
		}
		if err != nil {
			fatal("escrow_get: %v", err)
		}
		printJSON(offer)

	case "list":
		fs := newFlagSet("escrow list")
		owner := fs.String("owner", "", "Maker address")
		fs.Parse(args[1:])
		offers, err := g.client().EscrowsByOwner(parseAddress("owner", *owner))
		if err != nil {
			fatal("escrow_listByOwner: %v", err)
		}
		printJSON(offers)

	case "address":
		fs := newFlagSet("escrow address")
		owner := fs.String("owner", "", "Maker address")
		seed := fs.Uint64("seed", 0, "Escrow seed")
		mint := fs.String("mint", "", "Mint of the offered token")
		program := fs.String("program", "", "Token program when the mint does not exist yet")
		fs.Parse(args[1:])
		addrs, err := g.client().DeriveEscrow(rpc.DeriveParam{
			Owner:        parseAddress("owner", *owner),
			Seed:         *seed,
			MintOffered:  parseAddress("mint", *mint),
			TokenProgram: *program,
		})
		if err != nil {
			fatal("escrow_deriveAddress: %v", err)
		}
		printJSON(addrs)

	default:
		fatal("unknown escrow command: %s", args[0])
	}
}
