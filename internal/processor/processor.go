// Package processor verifies signed instructions and applies them to the
// ledger through the token and escrow programs.
package processor

import (
	"errors"
	"fmt"

	"github.com/Klingon-tech/klingswap/internal/escrow"
	"github.com/Klingon-tech/klingswap/internal/ledger"
	"github.com/Klingon-tech/klingswap/internal/log"
	"github.com/Klingon-tech/klingswap/internal/token"
	"github.com/Klingon-tech/klingswap/pkg/tx"
	"github.com/Klingon-tech/klingswap/pkg/types"
	"github.com/rs/zerolog"
)

// Processing errors.
var (
	ErrInvalidTransaction = errors.New("invalid transaction")
	ErrAlreadyApplied     = errors.New("transaction already applied")
	ErrAccountExists      = errors.New("token account already exists")
	ErrFaucetLimit        = errors.New("faucet amount above limit")
)

// appliedPrefix indexes the hashes of applied transactions.
var appliedPrefix = []byte("x/")

func appliedKey(h types.Hash) []byte {
	return append(append([]byte{}, appliedPrefix...), h[:]...)
}

// Receipt describes an applied transaction.
type Receipt struct {
	Hash   types.Hash    `json:"hash"`
	Kind   tx.Kind       `json:"kind"`
	Signer types.Address `json:"signer"`

	Escrow  *escrow.Record `json:"escrow,omitempty"`
	Mint    *token.Mint    `json:"mint,omitempty"`
	Account *token.Account `json:"account,omitempty"`
}

// Processor applies signed transactions.
type Processor struct {
	ledger *ledger.Ledger
	tokens *token.Program
	escrow *escrow.Program
	logger zerolog.Logger
}

// New creates a processor over the given ledger and programs.
func New(l *ledger.Ledger, tokens *token.Program, esc *escrow.Program) *Processor {
	return &Processor{ledger: l, tokens: tokens, escrow: esc, logger: log.Nop()}
}

// SetLogger sets the processor logger.
func (p *Processor) SetLogger(logger zerolog.Logger) {
	p.logger = logger
}

// Submit verifies transaction's signature and applies it. The transaction
// and its replay record commit together or not at all.
func (p *Processor) Submit(transaction *tx.Transaction) (*Receipt, error) {
	if transaction == nil {
		return nil, fmt.Errorf("%w: nil transaction", ErrInvalidTransaction)
	}
	signer, err := transaction.Signer()
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidTransaction, err)
	}
	hash := transaction.Hash()
	if applied, err := p.Applied(hash); err != nil {
		return nil, err
	} else if applied {
		return nil, fmt.Errorf("%w: %s", ErrAlreadyApplied, hash)
	}

	r := &Receipt{Hash: hash, Kind: transaction.Kind, Signer: signer}
	markApplied := func(txn *ledger.Txn) error {
		key := appliedKey(hash)
		if seen, err := txn.HasIndex(key); err != nil {
			return err
		} else if seen {
			return fmt.Errorf("%w: %s", ErrAlreadyApplied, hash)
		}
		return txn.PutIndex(key)
	}

	switch transaction.Kind {
	case tx.KindEscrowMake:
		err = p.make(transaction, r, markApplied)
	case tx.KindEscrowTake:
		err = p.take(transaction, r, markApplied)
	case tx.KindEscrowRefund:
		err = p.refund(transaction, r, markApplied)
	default:
		err = p.ledger.Update(func(txn *ledger.Txn) error {
			if err := p.applyToken(txn, transaction, r); err != nil {
				return err
			}
			return markApplied(txn)
		})
	}
	if err != nil {
		p.logger.Debug().
			Str("tx", hash.String()).
			Str("kind", string(transaction.Kind)).
			Str("signer", signer.String()).
			Err(err).
			Msg("Transaction rejected")
		return nil, err
	}

	p.logger.Info().
		Str("tx", hash.String()).
		Str("kind", string(transaction.Kind)).
		Str("signer", signer.String()).
		Msg("Transaction applied")
	return r, nil
}

// Applied reports whether a transaction with hash h was applied.
func (p *Processor) Applied(h types.Hash) (bool, error) {
	var applied bool
	err := p.ledger.View(func(txn *ledger.Txn) error {
		var err error
		applied, err = txn.HasIndex(appliedKey(h))
		return err
	})
	return applied, err
}

// Fund credits amount of native balance to addr (development faucet).
// Amounts above limit are refused; a zero limit means no limit.
func (p *Processor) Fund(addr types.Address, amount, limit uint64) (uint64, error) {
	if limit > 0 && amount > limit {
		return 0, fmt.Errorf("%w: %d > %d", ErrFaucetLimit, amount, limit)
	}
	var balance uint64
	err := p.ledger.Update(func(txn *ledger.Txn) error {
		if err := txn.Credit(addr, amount); err != nil {
			return err
		}
		var err error
		balance, err = txn.Balance(addr)
		return err
	})
	if err != nil {
		return 0, err
	}
	p.logger.Info().Str("address", addr.String()).Uint64("amount", amount).Msg("Faucet funded")
	return balance, nil
}

func decode(transaction *tx.Transaction, v any) error {
	if err := transaction.DecodePayload(v); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidTransaction, err)
	}
	return nil
}
