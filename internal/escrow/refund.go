package escrow

import (
	"github.com/Klingon-tech/klingswap/internal/ledger"
	"github.com/Klingon-tech/klingswap/pkg/types"
)

// RefundAccounts are the accounts a Refund touches. Maker must have signed
// and must be the record owner. A zero MakerDestination means the maker's
// associated account for the offered mint, created on demand.
type RefundAccounts struct {
	Maker            types.Address `json:"maker"`
	Escrow           types.Address `json:"escrow"`
	Vault            types.Address `json:"vault,omitempty"`
	MakerDestination types.Address `json:"maker_destination,omitempty"`
}

// Refund cancels an escrow: the vault balance returns to the maker and
// vault and record are closed.
func (p *Program) Refund(accts RefundAccounts, hooks ...ledger.Hook) (*Record, error) {
	var (
		rec      *Record
		refunded uint64
	)
	err := p.ledger.Update(func(txn *ledger.Txn) error {
		var err error
		rec, refunded, err = p.refund(txn, accts)
		if err != nil {
			return err
		}
		return runHooks(txn, hooks)
	})
	if err = p.finish(OpRefund, err); err != nil {
		return nil, err
	}

	p.logger.Info().
		Str("maker", rec.Owner.String()).
		Str("escrow", rec.Address.String()).
		Uint64("seed", rec.Seed).
		Uint64("refunded", refunded).
		Msg("Escrow refunded")
	p.emitter.Emit(newEvent(EventRefunded, rec, refunded))
	return rec, nil
}

func (p *Program) refund(txn *ledger.Txn, accts RefundAccounts) (*Record, uint64, error) {
	rec, err := loadRecord(txn, accts.Escrow)
	if err != nil {
		return nil, 0, err
	}
	if accts.Maker.IsZero() || accts.Maker != rec.Owner {
		return nil, 0, reject(ErrUnauthorized, "%s cannot refund escrow owned by %s", accts.Maker, rec.Owner)
	}
	vault, mintOffered, err := loadVault(txn, rec, accts.Vault)
	if err != nil {
		return nil, 0, err
	}
	dest, err := p.tokenAccountFor(txn, rec.Owner, rec.Owner, mintOffered, accts.MakerDestination)
	if err != nil {
		return nil, 0, err
	}
	refunded := vault.Amount
	if err := p.closeEscrow(txn, rec, vault, mintOffered, dest.Address); err != nil {
		return nil, 0, err
	}
	return rec, refunded, nil
}
