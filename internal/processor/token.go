package processor

import (
	"fmt"

	"github.com/Klingon-tech/klingswap/internal/ledger"
	"github.com/Klingon-tech/klingswap/internal/token"
	"github.com/Klingon-tech/klingswap/pkg/tx"
)

// applyToken runs a token instruction inside txn.
func (p *Processor) applyToken(txn *ledger.Txn, transaction *tx.Transaction, r *Receipt) error {
	signer := r.Signer
	switch transaction.Kind {
	case tx.KindTokenCreateMint:
		var pl tx.CreateMintPayload
		if err := decode(transaction, &pl); err != nil {
			return err
		}
		program, err := token.ParseProgram(pl.Program)
		if err != nil {
			return err
		}
		addr, err := token.MintAddress(signer, pl.Label, program)
		if err != nil {
			return err
		}
		m, err := p.tokens.CreateMint(txn, signer, addr, program, signer, pl.Decimals, pl.Name, pl.Symbol)
		if err != nil {
			return err
		}
		r.Mint = m

	case tx.KindTokenMintTo:
		var pl tx.MintToPayload
		if err := decode(transaction, &pl); err != nil {
			return err
		}
		acct, _, err := p.tokens.EnsureAssociated(txn, signer, pl.Owner, pl.Mint)
		if err != nil {
			return err
		}
		if err := p.tokens.MintTo(txn, pl.Mint, acct.Address, pl.Amount, token.SignedBy(signer)); err != nil {
			return err
		}
		acct, err = token.LoadAccount(txn, acct.Address)
		if err != nil {
			return err
		}
		r.Account = acct

	case tx.KindTokenCreateAccount:
		var pl tx.CreateAccountPayload
		if err := decode(transaction, &pl); err != nil {
			return err
		}
		acct, created, err := p.tokens.EnsureAssociated(txn, signer, pl.Owner, pl.Mint)
		if err != nil {
			return err
		}
		if !created {
			return fmt.Errorf("%w: %s", ErrAccountExists, acct.Address)
		}
		r.Account = acct

	case tx.KindTokenTransfer:
		var pl tx.TransferPayload
		if err := decode(transaction, &pl); err != nil {
			return err
		}
		m, err := token.LoadMint(txn, pl.Mint)
		if err != nil {
			return err
		}
		from, err := token.AssociatedAddress(signer, m.Address, m.Program)
		if err != nil {
			return err
		}
		to, _, err := p.tokens.EnsureAssociated(txn, signer, pl.To, pl.Mint)
		if err != nil {
			return err
		}
		err = p.tokens.TransferChecked(txn, from, m.Address, to.Address, pl.Amount, m.Decimals, token.SignedBy(signer))
		if err != nil {
			return err
		}
		to, err = token.LoadAccount(txn, to.Address)
		if err != nil {
			return err
		}
		r.Account = to

	default:
		return fmt.Errorf("%w: unsupported kind %q", ErrInvalidTransaction, transaction.Kind)
	}
	return nil
}
