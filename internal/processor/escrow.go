package processor

import (
	"fmt"

	"github.com/Klingon-tech/klingswap/internal/escrow"
	"github.com/Klingon-tech/klingswap/internal/ledger"
	"github.com/Klingon-tech/klingswap/pkg/tx"
)

func (p *Processor) make(transaction *tx.Transaction, r *Receipt, hook ledger.Hook) error {
	var pl tx.MakePayload
	if err := decode(transaction, &pl); err != nil {
		return err
	}
	offered, err := tx.ParseAmount(pl.AmountOffered)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidTransaction, err)
	}
	requested, err := tx.ParseAmount(pl.AmountRequested)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidTransaction, err)
	}
	rec, err := p.escrow.Make(escrow.MakeAccounts{
		Maker:         r.Signer,
		MintOffered:   pl.MintOffered,
		MintRequested: pl.MintRequested,
		MakerSource:   pl.MakerSource,
		Escrow:        pl.Escrow,
		Vault:         pl.Vault,
	}, escrow.MakeArgs{
		Seed:            pl.Seed,
		AmountOffered:   offered,
		AmountRequested: requested,
	}, hook)
	if err != nil {
		return err
	}
	r.Escrow = rec
	return nil
}

func (p *Processor) take(transaction *tx.Transaction, r *Receipt, hook ledger.Hook) error {
	var pl tx.TakePayload
	if err := decode(transaction, &pl); err != nil {
		return err
	}
	rec, err := p.escrow.Take(escrow.TakeAccounts{
		Taker:            r.Signer,
		Escrow:           pl.Escrow,
		Vault:            pl.Vault,
		TakerSource:      pl.TakerSource,
		TakerDestination: pl.TakerDestination,
		MakerDestination: pl.MakerDestination,
	}, hook)
	if err != nil {
		return err
	}
	r.Escrow = rec
	return nil
}

func (p *Processor) refund(transaction *tx.Transaction, r *Receipt, hook ledger.Hook) error {
	var pl tx.RefundPayload
	if err := decode(transaction, &pl); err != nil {
		return err
	}
	rec, err := p.escrow.Refund(escrow.RefundAccounts{
		Maker:            r.Signer,
		Escrow:           pl.Escrow,
		Vault:            pl.Vault,
		MakerDestination: pl.MakerDestination,
	}, hook)
	if err != nil {
		return err
	}
	r.Escrow = rec
	return nil
}
