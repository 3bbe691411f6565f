package escrow

import (
	"errors"
	"fmt"

	"github.com/Klingon-tech/klingswap/internal/ledger"
	"github.com/Klingon-tech/klingswap/internal/token"
)

// Kind classifies why a transition was rejected.
type Kind uint8

// Error kinds. Authorization failures are validation failures about who
// signed; Kind.IsValidation reports true for both.
const (
	KindValidation Kind = iota + 1
	KindAuthorization
	KindInsufficientFunds
	KindArithmetic
	KindState
)

func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindAuthorization:
		return "authorization"
	case KindInsufficientFunds:
		return "insufficient_funds"
	case KindArithmetic:
		return "arithmetic"
	case KindState:
		return "state"
	default:
		return "unknown"
	}
}

// ParseKind is the inverse of Kind.String.
func ParseKind(s string) (Kind, bool) {
	for k := KindValidation; k <= KindState; k++ {
		if k.String() == s {
			return k, true
		}
	}
	return 0, false
}

// IsValidation reports whether k is a validation or authorization failure.
func (k Kind) IsValidation() bool {
	return k == KindValidation || k == KindAuthorization
}

// Code is a stable numeric error code exposed to clients.
type Code uint16

// Error codes.
const (
	CodeZeroAmount Code = 6000 + iota
	CodeAmountTooLarge
	CodeInvalidMint
	CodeMintMismatch
	CodeProgramMismatch
	CodeInvalidTokenAccount
	CodeAddressMismatch
	CodeUnauthorized
	CodeInsufficientFunds
	CodeInsufficientDeposit
	CodeOverflow
	CodeEscrowExists
	CodeEscrowNotFound
	CodeInvalidRecord
	CodeSeedsMismatch
	CodeAccountInUse
)

// Sentinel causes. Every *Error wraps exactly one of them.
var (
	ErrZeroAmount          = errors.New("amount must be greater than zero")
	ErrAmountTooLarge      = errors.New("amount exceeds the token range")
	ErrInvalidMint         = errors.New("invalid mint")
	ErrMintMismatch        = errors.New("mint mismatch")
	ErrProgramMismatch     = errors.New("token program mismatch")
	ErrInvalidTokenAccount = errors.New("invalid token account")
	ErrAddressMismatch     = errors.New("account address mismatch")
	ErrUnauthorized        = errors.New("signer is not authorized")
	ErrInsufficientFunds   = errors.New("insufficient token balance")
	ErrInsufficientDeposit = errors.New("insufficient native balance for storage deposit")
	ErrOverflow            = errors.New("arithmetic overflow")
	ErrEscrowExists        = errors.New("escrow already exists")
	ErrEscrowNotFound      = errors.New("escrow not found")
	ErrInvalidRecord       = errors.New("account is not an escrow record")
	ErrSeedsMismatch       = errors.New("escrow address does not match its seeds")
	ErrAccountInUse        = errors.New("derived account already in use")
)

type causeInfo struct {
	kind Kind
	code Code
}

var causes = map[error]causeInfo{
	ErrZeroAmount:          {KindValidation, CodeZeroAmount},
	ErrAmountTooLarge:      {KindArithmetic, CodeAmountTooLarge},
	ErrInvalidMint:         {KindValidation, CodeInvalidMint},
	ErrMintMismatch:        {KindValidation, CodeMintMismatch},
	ErrProgramMismatch:     {KindValidation, CodeProgramMismatch},
	ErrInvalidTokenAccount: {KindValidation, CodeInvalidTokenAccount},
	ErrAddressMismatch:     {KindValidation, CodeAddressMismatch},
	ErrUnauthorized:        {KindAuthorization, CodeUnauthorized},
	ErrInsufficientFunds:   {KindInsufficientFunds, CodeInsufficientFunds},
	ErrInsufficientDeposit: {KindInsufficientFunds, CodeInsufficientDeposit},
	ErrOverflow:            {KindArithmetic, CodeOverflow},
	ErrEscrowExists:        {KindState, CodeEscrowExists},
	ErrEscrowNotFound:      {KindState, CodeEscrowNotFound},
	ErrInvalidRecord:       {KindState, CodeInvalidRecord},
	ErrSeedsMismatch:       {KindState, CodeSeedsMismatch},
	ErrAccountInUse:        {KindState, CodeAccountInUse},
}

// CauseOf returns the kind and sentinel cause behind a numeric code. The
// cause is nil for unknown codes.
func CauseOf(c Code) (Kind, error) {
	for cause, info := range causes {
		if info.code == c {
			return info.kind, cause
		}
	}
	return 0, nil
}

// Error is a rejected escrow transition. The ledger is unchanged when one
// is returned.
type Error struct {
	Kind Kind
	Code Code
	Err  error
}

func (e *Error) Error() string {
	return fmt.Sprintf("escrow: %s error %d: %v", e.Kind, e.Code, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// KindOf returns the kind of an escrow error, or false if err is not one.
func KindOf(err error) (Kind, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind, true
	}
	return 0, false
}

func reject(cause error, format string, args ...any) *Error {
	info := causes[cause]
	return &Error{
		Kind: info.kind,
		Code: info.code,
		Err:  fmt.Errorf("%w: %s", cause, fmt.Sprintf(format, args...)),
	}
}

// lowerCauses maps token and ledger failures onto escrow causes.
var lowerCauses = []struct {
	from error
	to   error
}{
	{token.ErrInsufficientFunds, ErrInsufficientFunds},
	{ledger.ErrInsufficientBalance, ErrInsufficientDeposit},
	{token.ErrOverflow, ErrOverflow},
	{ledger.ErrBalanceOverflow, ErrOverflow},
	{ledger.ErrDepositOverflow, ErrOverflow},
	{token.ErrMintMismatch, ErrMintMismatch},
	{token.ErrDecimalsMismatch, ErrMintMismatch},
	{token.ErrProgramMismatch, ErrProgramMismatch},
	{token.ErrUnauthorized, ErrUnauthorized},
	{token.ErrNotTokenAccount, ErrInvalidTokenAccount},
	{token.ErrNotAssociated, ErrInvalidTokenAccount},
	{token.ErrNotMint, ErrInvalidMint},
	{ledger.ErrAccountExists, ErrAccountInUse},
}

// classify converts an error from a lower layer into an *Error. Errors
// with no escrow meaning (storage failures) pass through unchanged.
func classify(err error) error {
	if err == nil {
		return nil
	}
	var e *Error
	if errors.As(err, &e) {
		return err
	}
	for _, m := range lowerCauses {
		if errors.Is(err, m.from) {
			info := causes[m.to]
			return &Error{Kind: info.kind, Code: info.code, Err: fmt.Errorf("%w: %w", m.to, err)}
		}
	}
	return err
}
