package escrow

import (
	"github.com/Klingon-tech/klingswap/internal/ledger"
	"github.com/Klingon-tech/klingswap/internal/token"
	"github.com/Klingon-tech/klingswap/pkg/types"
)

// TakeAccounts are the accounts a Take touches. Taker must have signed.
// Zero token accounts mean the associated account of the relevant owner,
// created on demand at the taker's expense.
type TakeAccounts struct {
	Taker            types.Address `json:"taker"`
	Escrow           types.Address `json:"escrow"`
	Vault            types.Address `json:"vault,omitempty"`
	TakerSource      types.Address `json:"taker_source,omitempty"`
	TakerDestination types.Address `json:"taker_destination,omitempty"`
	MakerDestination types.Address `json:"maker_destination,omitempty"`
}

// Take completes an escrow: the taker pays AmountRequested of the
// requested mint to the maker and receives the whole vault. Vault and
// record are closed and their deposits go back to the maker.
func (p *Program) Take(accts TakeAccounts, hooks ...ledger.Hook) (*Record, error) {
	var (
		rec     *Record
		offered uint64
	)
	err := p.ledger.Update(func(txn *ledger.Txn) error {
		var err error
		rec, offered, err = p.take(txn, accts)
		if err != nil {
			return err
		}
		return runHooks(txn, hooks)
	})
	if err = p.finish(OpTake, err); err != nil {
		return nil, err
	}

	p.logger.Info().
		Str("taker", accts.Taker.String()).
		Str("maker", rec.Owner.String()).
		Str("escrow", rec.Address.String()).
		Uint64("seed", rec.Seed).
		Uint64("offered", offered).
		Uint64("requested", rec.AmountRequested).
		Msg("Escrow taken")
	ev := newEvent(EventTaken, rec, offered)
	ev.Taker = accts.Taker
	p.emitter.Emit(ev)
	return rec, nil
}

func (p *Program) take(txn *ledger.Txn, accts TakeAccounts) (*Record, uint64, error) {
	if accts.Taker.IsZero() {
		return nil, 0, reject(ErrUnauthorized, "missing taker signature")
	}
	rec, err := loadRecord(txn, accts.Escrow)
	if err != nil {
		return nil, 0, err
	}
	vault, mintOffered, err := loadVault(txn, rec, accts.Vault)
	if err != nil {
		return nil, 0, err
	}
	mintRequested, err := token.LoadMint(txn, rec.MintRequested)
	if err != nil {
		return nil, 0, err
	}

	source, err := p.tokenAccountFor(txn, accts.Taker, accts.Taker, mintRequested, accts.TakerSource)
	if err != nil {
		return nil, 0, err
	}
	takerDest, err := p.tokenAccountFor(txn, accts.Taker, accts.Taker, mintOffered, accts.TakerDestination)
	if err != nil {
		return nil, 0, err
	}
	makerDest, err := p.tokenAccountFor(txn, accts.Taker, rec.Owner, mintRequested, accts.MakerDestination)
	if err != nil {
		return nil, 0, err
	}
	if source.Amount < rec.AmountRequested {
		return nil, 0, reject(ErrInsufficientFunds, "%s has %d, escrow asks %d", source.Address, source.Amount, rec.AmountRequested)
	}

	err = p.tokens.TransferChecked(txn, source.Address, mintRequested.Address, makerDest.Address,
		rec.AmountRequested, mintRequested.Decimals, token.SignedBy(accts.Taker))
	if err != nil {
		return nil, 0, err
	}
	offered := vault.Amount
	if err := p.closeEscrow(txn, rec, vault, mintOffered, takerDest.Address); err != nil {
		return nil, 0, err
	}
	return rec, offered, nil
}
