package token

import (
	"fmt"
	"math"

	"github.com/Klingon-tech/klingswap/internal/ledger"
	"github.com/Klingon-tech/klingswap/internal/log"
	"github.com/Klingon-tech/klingswap/pkg/types"
	"github.com/rs/zerolog"
)

// Program executes token instructions inside ledger transactions.
type Program struct {
	logger zerolog.Logger
}

// NewProgram creates a token program executor.
func NewProgram() *Program {
	return &Program{logger: log.Nop()}
}

// SetLogger sets the program logger.
func (p *Program) SetLogger(logger zerolog.Logger) {
	p.logger = logger
}

// CreateMint initializes a mint at addr under program. payer funds the
// storage deposit.
func (p *Program) CreateMint(txn *ledger.Txn, payer, addr, program types.Address, authority types.Address, decimals uint8, name, symbol string) (*Mint, error) {
	if !IsTokenProgram(program) {
		return nil, fmt.Errorf("%w: %s", ErrUnknownProgram, program)
	}
	if authority.IsZero() {
		return nil, fmt.Errorf("%w: mint authority is empty", ErrInvalidMetadata)
	}
	if err := ValidateMetadata(name, symbol, decimals); err != nil {
		return nil, err
	}

	m := &Mint{
		Address:   addr,
		Program:   program,
		Authority: authority,
		Decimals:  decimals,
		Name:      name,
		Symbol:    symbol,
	}
	if _, err := txn.CreateAccount(payer, addr, program, encodeMint(m)); err != nil {
		return nil, fmt.Errorf("create mint: %w", err)
	}
	p.logger.Debug().Str("mint", addr.String()).Str("symbol", symbol).Msg("Mint created")
	return m, nil
}

// InitializeAccount creates a token account for mint at addr, controlled
// by authority. The account belongs to the mint's token program.
func (p *Program) InitializeAccount(txn *ledger.Txn, payer, addr, mint, authority types.Address) (*Account, error) {
	m, err := LoadMint(txn, mint)
	if err != nil {
		return nil, err
	}
	a := &Account{Address: addr, Program: m.Program, Mint: mint, Authority: authority}
	if _, err := txn.CreateAccount(payer, addr, m.Program, encodeAccount(a)); err != nil {
		return nil, fmt.Errorf("create token account: %w", err)
	}
	if err := txn.PutIndex(authorityKey(authority, addr)); err != nil {
		return nil, err
	}
	return a, nil
}

// EnsureAssociated returns the associated token account of (owner, mint),
// creating it when missing. created reports whether it was created.
func (p *Program) EnsureAssociated(txn *ledger.Txn, payer, owner, mint types.Address) (acct *Account, created bool, err error) {
	m, err := LoadMint(txn, mint)
	if err != nil {
		return nil, false, err
	}
	addr, err := AssociatedAddress(owner, mint, m.Program)
	if err != nil {
		return nil, false, err
	}
	acct, err = LoadAccount(txn, addr)
	if err == nil {
		if acct.Mint != mint || acct.Authority != owner {
			return nil, false, fmt.Errorf("%w: %s", ErrNotAssociated, addr)
		}
		return acct, false, nil
	}
	exists, existsErr := txn.Exists(addr)
	if existsErr != nil {
		return nil, false, existsErr
	}
	if exists {
		return nil, false, err
	}
	acct, err = p.InitializeAccount(txn, payer, addr, mint, owner)
	if err != nil {
		return nil, false, err
	}
	return acct, true, nil
}

// MintTo issues amount new tokens of mint into dest.
func (p *Program) MintTo(txn *ledger.Txn, mint, dest types.Address, amount uint64, auth Authority) error {
	m, err := LoadMint(txn, mint)
	if err != nil {
		return err
	}
	if !auth.authorizes(m.Authority) {
		return fmt.Errorf("%w: mint authority is %s", ErrUnauthorized, m.Authority)
	}
	to, err := LoadAccount(txn, dest)
	if err != nil {
		return err
	}
	if to.Mint != mint {
		return fmt.Errorf("%w: %s holds %s, not %s", ErrMintMismatch, dest, to.Mint, mint)
	}
	if m.Supply > math.MaxUint64-amount {
		return fmt.Errorf("%w: supply %d + %d", ErrOverflow, m.Supply, amount)
	}
	if to.Amount > math.MaxUint64-amount {
		return fmt.Errorf("%w: balance %d + %d", ErrOverflow, to.Amount, amount)
	}
	m.Supply += amount
	to.Amount += amount
	if err := saveMint(txn, m); err != nil {
		return err
	}
	return saveAccount(txn, to)
}

// Transfer moves amount from one token account to another of the same
// mint and program. auth must control the source account.
func (p *Program) Transfer(txn *ledger.Txn, from, to types.Address, amount uint64, auth Authority) error {
	src, err := LoadAccount(txn, from)
	if err != nil {
		return err
	}
	dst, err := LoadAccount(txn, to)
	if err != nil {
		return err
	}
	return p.transfer(txn, src, dst, amount, auth)
}

// TransferChecked is Transfer with the caller's expectation of the mint
// and its decimals verified against both accounts.
func (p *Program) TransferChecked(txn *ledger.Txn, from, mint, to types.Address, amount uint64, decimals uint8, auth Authority) error {
	m, err := LoadMint(txn, mint)
	if err != nil {
		return err
	}
	if m.Decimals != decimals {
		return fmt.Errorf("%w: mint has %d, caller expects %d", ErrDecimalsMismatch, m.Decimals, decimals)
	}
	src, err := LoadAccount(txn, from)
	if err != nil {
		return err
	}
	if src.Mint != mint {
		return fmt.Errorf("%w: %s holds %s, not %s", ErrMintMismatch, from, src.Mint, mint)
	}
	if src.Program != m.Program {
		return fmt.Errorf("%w: %s", ErrProgramMismatch, from)
	}
	dst, err := LoadAccount(txn, to)
	if err != nil {
		return err
	}
	return p.transfer(txn, src, dst, amount, auth)
}

func (p *Program) transfer(txn *ledger.Txn, src, dst *Account, amount uint64, auth Authority) error {
	if src.Mint != dst.Mint {
		return fmt.Errorf("%w: %s holds %s, %s holds %s", ErrMintMismatch, src.Address, src.Mint, dst.Address, dst.Mint)
	}
	if src.Program != dst.Program {
		return fmt.Errorf("%w: %s and %s", ErrProgramMismatch, src.Address, dst.Address)
	}
	if !auth.authorizes(src.Authority) {
		return fmt.Errorf("%w: %s is controlled by %s", ErrUnauthorized, src.Address, src.Authority)
	}
	if src.Amount < amount {
		return fmt.Errorf("%w: %s has %d, needs %d", ErrInsufficientFunds, src.Address, src.Amount, amount)
	}
	if src.Address == dst.Address || amount == 0 {
		return nil
	}
	if dst.Amount > math.MaxUint64-amount {
		return fmt.Errorf("%w: %s balance %d + %d", ErrOverflow, dst.Address, dst.Amount, amount)
	}
	src.Amount -= amount
	dst.Amount += amount
	if err := saveAccount(txn, src); err != nil {
		return err
	}
	return saveAccount(txn, dst)
}

// CloseAccount deletes an empty token account and refunds its storage
// deposit to dest.
func (p *Program) CloseAccount(txn *ledger.Txn, addr, dest types.Address, auth Authority) error {
	a, err := LoadAccount(txn, addr)
	if err != nil {
		return err
	}
	if !auth.authorizes(a.Authority) {
		return fmt.Errorf("%w: %s is controlled by %s", ErrUnauthorized, addr, a.Authority)
	}
	if a.Amount != 0 {
		return fmt.Errorf("%w: %s holds %d", ErrNonZeroBalance, addr, a.Amount)
	}
	if _, err := txn.CloseAccount(a.Program, addr, dest); err != nil {
		return err
	}
	return txn.DeleteIndex(authorityKey(a.Authority, addr))
}
