package escrow

import (
	"github.com/Klingon-tech/klingswap/internal/ledger"
	"github.com/Klingon-tech/klingswap/internal/token"
	"github.com/Klingon-tech/klingswap/pkg/types"
	"github.com/holiman/uint256"
)

// MakeAccounts are the accounts a Make touches. Maker must have signed.
// Zero MakerSource, Escrow or Vault mean the derived default.
type MakeAccounts struct {
	Maker         types.Address `json:"maker"`
	MintOffered   types.Address `json:"mint_offered"`
	MintRequested types.Address `json:"mint_requested"`
	MakerSource   types.Address `json:"maker_source,omitempty"`
	Escrow        types.Address `json:"escrow,omitempty"`
	Vault         types.Address `json:"vault,omitempty"`
}

// MakeArgs are the Make parameters.
type MakeArgs struct {
	Seed            uint64       `json:"seed"`
	AmountOffered   *uint256.Int `json:"amount_offered"`
	AmountRequested *uint256.Int `json:"amount_requested"`
}

// Make opens an escrow: it creates the record and its vault and moves
// AmountOffered of MintOffered from the maker into the vault. hooks run in
// the same ledger transaction once the escrow is open.
func (p *Program) Make(accts MakeAccounts, args MakeArgs, hooks ...ledger.Hook) (*Record, error) {
	var (
		rec     *Record
		offered uint64
	)
	err := p.ledger.Update(func(txn *ledger.Txn) error {
		var err error
		rec, offered, err = p.make(txn, accts, args)
		if err != nil {
			return err
		}
		return runHooks(txn, hooks)
	})
	if err = p.finish(OpMake, err); err != nil {
		return nil, err
	}

	p.logger.Info().
		Str("maker", rec.Owner.String()).
		Str("escrow", rec.Address.String()).
		Uint64("seed", rec.Seed).
		Uint64("offered", offered).
		Uint64("requested", rec.AmountRequested).
		Msg("Escrow made")
	p.emitter.Emit(newEvent(EventMade, rec, offered))
	return rec, nil
}

func (p *Program) make(txn *ledger.Txn, accts MakeAccounts, args MakeArgs) (*Record, uint64, error) {
	requested, err := checkAmount("amount_requested", args.AmountRequested)
	if err != nil {
		return nil, 0, err
	}
	offered, err := checkAmount("amount_offered", args.AmountOffered)
	if err != nil {
		return nil, 0, err
	}
	if accts.Maker.IsZero() {
		return nil, 0, reject(ErrUnauthorized, "missing maker signature")
	}

	mintOffered, err := token.LoadMint(txn, accts.MintOffered)
	if err != nil {
		return nil, 0, err
	}
	if _, err := token.LoadMint(txn, accts.MintRequested); err != nil {
		return nil, 0, err
	}

	addrs, err := DeriveAddresses(accts.Maker, args.Seed, mintOffered.Address, mintOffered.Program)
	if err != nil {
		return nil, 0, err
	}
	if !accts.Escrow.IsZero() && accts.Escrow != addrs.Escrow {
		return nil, 0, reject(ErrSeedsMismatch, "escrow %s, seeds derive %s", accts.Escrow, addrs.Escrow)
	}
	if !accts.Vault.IsZero() && accts.Vault != addrs.Vault {
		return nil, 0, reject(ErrAddressMismatch, "vault %s, want %s", accts.Vault, addrs.Vault)
	}
	if exists, err := txn.Exists(addrs.Escrow); err != nil {
		return nil, 0, err
	} else if exists {
		return nil, 0, reject(ErrEscrowExists, "maker %s seed %d", accts.Maker, args.Seed)
	}
	if exists, err := txn.Exists(addrs.Vault); err != nil {
		return nil, 0, err
	} else if exists {
		return nil, 0, reject(ErrAccountInUse, "vault %s", addrs.Vault)
	}

	source, err := p.tokenAccountFor(txn, accts.Maker, accts.Maker, mintOffered, accts.MakerSource)
	if err != nil {
		return nil, 0, err
	}
	if source.Amount < offered {
		return nil, 0, reject(ErrInsufficientFunds, "%s has %d, offer is %d", source.Address, source.Amount, offered)
	}

	rec := &Record{
		Address:         addrs.Escrow,
		Owner:           accts.Maker,
		Seed:            args.Seed,
		MintOffered:     accts.MintOffered,
		MintRequested:   accts.MintRequested,
		AmountRequested: requested,
		Bump:            addrs.Bump,
	}
	if _, err := txn.CreateAccount(accts.Maker, rec.Address, ProgramID, rec.Encode()); err != nil {
		return nil, 0, err
	}
	if _, err := p.tokens.InitializeAccount(txn, accts.Maker, addrs.Vault, mintOffered.Address, rec.Address); err != nil {
		return nil, 0, err
	}
	err = p.tokens.TransferChecked(txn, source.Address, mintOffered.Address, addrs.Vault, offered, mintOffered.Decimals, token.SignedBy(accts.Maker))
	if err != nil {
		return nil, 0, err
	}
	if err := txn.PutIndex(ownerIndexKey(rec.Owner, rec.Address)); err != nil {
		return nil, 0, err
	}
	return rec, offered, nil
}
