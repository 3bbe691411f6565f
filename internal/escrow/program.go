// Package escrow implements the two-party swap program.
//
// A maker locks an amount of one token (the offer) in a vault owned by a
// program-derived escrow record and names the amount of another token it
// wants in return. A taker completes the swap atomically with Take, or the
// maker cancels with Refund. Each transition runs in one ledger
// transaction: it commits entirely or leaves no trace.
package escrow

import (
	"errors"
	"fmt"

	"github.com/Klingon-tech/klingswap/internal/ledger"
	"github.com/Klingon-tech/klingswap/internal/log"
	"github.com/Klingon-tech/klingswap/internal/token"
	"github.com/Klingon-tech/klingswap/pkg/types"
	"github.com/holiman/uint256"
	"github.com/rs/zerolog"
)

// Op names a transition for metrics and logs.
type Op string

// Transitions.
const (
	OpMake   Op = "make"
	OpTake   Op = "take"
	OpRefund Op = "refund"
)

// Observer is told about every attempted transition.
type Observer interface {
	ObserveTransition(op Op, err error)
}

// Program executes escrow transitions against a ledger.
type Program struct {
	ledger   *ledger.Ledger
	tokens   *token.Program
	emitter  Emitter
	observer Observer
	logger   zerolog.Logger
}

// NewProgram creates an escrow program over l, moving tokens with tokens.
func NewProgram(l *ledger.Ledger, tokens *token.Program) *Program {
	return &Program{
		ledger:  l,
		tokens:  tokens,
		emitter: NoopEmitter{},
		logger:  log.Nop(),
	}
}

// SetEmitter sets the event sink. nil restores the no-op emitter.
func (p *Program) SetEmitter(e Emitter) {
	if e == nil {
		e = NoopEmitter{}
	}
	p.emitter = e
}

// SetObserver sets the transition observer (metrics).
func (p *Program) SetObserver(o Observer) {
	p.observer = o
}

// SetLogger sets the program logger.
func (p *Program) SetLogger(logger zerolog.Logger) {
	p.logger = logger
}

// hookError marks a failure of a caller's hook. It is the caller's
// rejection, not the program's.
type hookError struct{ err error }

func (h *hookError) Error() string { return h.err.Error() }
func (h *hookError) Unwrap() error { return h.err }

func runHooks(txn *ledger.Txn, hooks []ledger.Hook) error {
	if err := ledger.RunHooks(txn, hooks); err != nil {
		return &hookError{err}
	}
	return nil
}

// finish classifies err, records the outcome and logs rejections. Hook
// failures are returned unchanged and not recorded.
func (p *Program) finish(op Op, err error) error {
	var he *hookError
	if errors.As(err, &he) {
		return he.err
	}
	err = classify(err)
	if p.observer != nil {
		p.observer.ObserveTransition(op, err)
	}
	if err != nil {
		ev := p.logger.Debug().Str("op", string(op)).Err(err)
		var e *Error
		if errors.As(err, &e) {
			ev = ev.Str("kind", e.Kind.String()).Uint16("code", uint16(e.Code))
		}
		ev.Msg("Escrow transition rejected")
	}
	return err
}

// checkAmount converts an instruction amount to the token range.
func checkAmount(name string, v *uint256.Int) (uint64, error) {
	if v == nil || v.IsZero() {
		return 0, reject(ErrZeroAmount, "%s", name)
	}
	if !v.IsUint64() {
		return 0, reject(ErrAmountTooLarge, "%s %s", name, v.Dec())
	}
	return v.Uint64(), nil
}

// loadRecord reads and authenticates the record at addr.
func loadRecord(txn *ledger.Txn, addr types.Address) (*Record, error) {
	acct, err := txn.Account(addr)
	if errors.Is(err, ledger.ErrAccountNotFound) {
		return nil, reject(ErrEscrowNotFound, "%s", addr)
	}
	if err != nil {
		return nil, err
	}
	if acct.Owner != ProgramID {
		return nil, reject(ErrInvalidRecord, "%s is owned by %s", addr, acct.Owner)
	}
	r, err := DecodeRecord(addr, acct.Data)
	if err != nil {
		return nil, reject(ErrInvalidRecord, "%s: %v", addr, err)
	}
	signer, err := token.ProgramSigner(ProgramID, r.signerSeeds()...)
	if err != nil || signer.Address() != addr {
		return nil, reject(ErrSeedsMismatch, "%s", addr)
	}
	return r, nil
}

// loadVault checks that vault is the record's vault and returns it.
func loadVault(txn *ledger.Txn, r *Record, vault types.Address) (*token.Account, *token.Mint, error) {
	mint, err := token.LoadMint(txn, r.MintOffered)
	if err != nil {
		return nil, nil, err
	}
	want, err := VaultAddress(r.Address, r.MintOffered, mint.Program)
	if err != nil {
		return nil, nil, err
	}
	if vault.IsZero() {
		vault = want
	}
	if vault != want {
		return nil, nil, reject(ErrAddressMismatch, "vault %s, want %s", vault, want)
	}
	acct, err := token.LoadAccount(txn, vault)
	if err != nil {
		return nil, nil, err
	}
	if acct.Mint != r.MintOffered || acct.Authority != r.Address {
		return nil, nil, reject(ErrInvalidTokenAccount, "vault %s is not controlled by %s", vault, r.Address)
	}
	return acct, mint, nil
}

// tokenAccountFor resolves a token account of mint held by owner. A zero
// addr means the associated account. When the associated account does not
// exist yet it is created, paid by payer.
func (p *Program) tokenAccountFor(txn *ledger.Txn, payer, owner types.Address, mint *token.Mint, addr types.Address) (*token.Account, error) {
	assoc, err := token.AssociatedAddress(owner, mint.Address, mint.Program)
	if err != nil {
		return nil, err
	}
	if addr.IsZero() {
		addr = assoc
	}
	if addr == assoc {
		acct, _, err := p.tokens.EnsureAssociated(txn, payer, owner, mint.Address)
		return acct, err
	}

	acct, err := token.LoadAccount(txn, addr)
	if err != nil {
		return nil, err
	}
	if acct.Mint != mint.Address {
		return nil, reject(ErrMintMismatch, "%s holds %s, want %s", addr, acct.Mint, mint.Address)
	}
	if acct.Program != mint.Program {
		return nil, reject(ErrProgramMismatch, "%s", addr)
	}
	if acct.Authority != owner {
		return nil, reject(ErrInvalidTokenAccount, "%s is controlled by %s, not %s", addr, acct.Authority, owner)
	}
	return acct, nil
}

// ownerIndexKey indexes records by owner: e/<owner(20)><record(20)>.
func ownerIndexKey(owner, record types.Address) []byte {
	key := make([]byte, 0, 2+2*types.AddressSize)
	key = append(key, 'e', '/')
	key = append(key, owner[:]...)
	key = append(key, record[:]...)
	return key
}

func ownerIndexPrefix(owner types.Address) []byte {
	return ownerIndexKey(owner, types.Address{})[:2+types.AddressSize]
}

// closeEscrow empties the vault into dest, closes it and the record, and
// refunds both storage deposits to the record owner.
func (p *Program) closeEscrow(txn *ledger.Txn, r *Record, vault *token.Account, mint *token.Mint, dest types.Address) error {
	signer, err := token.ProgramSigner(ProgramID, r.signerSeeds()...)
	if err != nil {
		return fmt.Errorf("escrow signer: %w", err)
	}
	if vault.Amount > 0 {
		if err := p.tokens.TransferChecked(txn, vault.Address, mint.Address, dest, vault.Amount, mint.Decimals, signer); err != nil {
			return err
		}
	}
	if err := p.tokens.CloseAccount(txn, vault.Address, r.Owner, signer); err != nil {
		return err
	}
	if _, err := txn.CloseAccount(ProgramID, r.Address, r.Owner); err != nil {
		return err
	}
	return txn.DeleteIndex(ownerIndexKey(r.Owner, r.Address))
}
