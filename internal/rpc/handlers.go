package rpc

import (
	"errors"
	"fmt"

	"github.com/Klingon-tech/klingswap/config"
	"github.com/Klingon-tech/klingswap/internal/escrow"
	"github.com/Klingon-tech/klingswap/internal/ledger"
	"github.com/Klingon-tech/klingswap/internal/processor"
	"github.com/Klingon-tech/klingswap/internal/token"
	"github.com/Klingon-tech/klingswap/pkg/tx"
	"github.com/Klingon-tech/klingswap/pkg/types"
)

// methodKinds maps each submission method to the instruction kind it accepts.
var methodKinds = map[string]tx.Kind{
	"escrow_make":         tx.KindEscrowMake,
	"escrow_take":         tx.KindEscrowTake,
	"escrow_refund":       tx.KindEscrowRefund,
	"token_createMint":    tx.KindTokenCreateMint,
	"token_mintTo":        tx.KindTokenMintTo,
	"token_createAccount": tx.KindTokenCreateAccount,
	"token_transfer":      tx.KindTokenTransfer,
}

// ── Submission ──────────────────────────────────────────────────────────

func (s *Server) handleSubmit(req *Request) (interface{}, *Error) {
	var p TxSubmitParam
	if err := parseParams(req, &p); err != nil {
		return nil, err
	}
	if p.Transaction == nil {
		return nil, &Error{Code: CodeInvalidParams, Message: "transaction required"}
	}
	if want := methodKinds[req.Method]; p.Transaction.Kind != want {
		return nil, &Error{
			Code:    CodeInvalidParams,
			Message: fmt.Sprintf("method %s expects kind %q, got %q", req.Method, want, p.Transaction.Kind),
		}
	}

	receipt, err := s.proc.Submit(p.Transaction)
	if err != nil {
		return nil, toRPCError(err)
	}
	return receipt, nil
}

// ── Escrow queries ──────────────────────────────────────────────────────

func (s *Server) handleEscrowGet(req *Request) (interface{}, *Error) {
	var p EscrowParam
	if err := parseParams(req, &p); err != nil {
		return nil, err
	}
	offer, err := s.escrow.Get(p.Escrow)
	if err != nil {
		if errors.Is(err, escrow.ErrEscrowNotFound) {
			return nil, &Error{Code: CodeNotFound, Message: err.Error(), Data: escrowData(err)}
		}
		return nil, toRPCError(err)
	}
	return offer, nil
}

func (s *Server) handleEscrowListByOwner(req *Request) (interface{}, *Error) {
	var p OwnerParam
	if err := parseParams(req, &p); err != nil {
		return nil, err
	}
	offers, err := s.escrow.ListByOwner(p.Owner)
	if err != nil {
		return nil, toRPCError(err)
	}
	if offers == nil {
		offers = []*escrow.Offer{}
	}
	return offers, nil
}

func (s *Server) handleEscrowDeriveAddress(req *Request) (interface{}, *Error) {
	var p DeriveParam
	if err := parseParams(req, &p); err != nil {
		return nil, err
	}
	if p.Owner.IsZero() || p.MintOffered.IsZero() {
		return nil, &Error{Code: CodeInvalidParams, Message: "owner and mint_offered required"}
	}

	// An existing mint decides the token program.
	var program types.Address
	err := s.ledger.View(func(txn *ledger.Txn) error {
		mint, err := token.LoadMint(txn, p.MintOffered)
		if err != nil {
			return err
		}
		program = mint.Program
		return nil
	})
	switch {
	case err == nil:
	case errors.Is(err, token.ErrNotMint):
		program, err = token.ParseProgram(p.TokenProgram)
		if err != nil {
			return nil, &Error{Code: CodeInvalidParams, Message: err.Error()}
		}
	default:
		return nil, &Error{Code: CodeInternalError, Message: err.Error()}
	}

	addrs, err := escrow.DeriveAddresses(p.Owner, p.Seed, p.MintOffered, program)
	if err != nil {
		return nil, &Error{Code: CodeInternalError, Message: err.Error()}
	}
	return addrs, nil
}

// ── Token queries ───────────────────────────────────────────────────────

func (s *Server) handleTokenGetMint(req *Request) (interface{}, *Error) {
	var p MintParam
	if err := parseParams(req, &p); err != nil {
		return nil, err
	}
	var mint *token.Mint
	err := s.ledger.View(func(txn *ledger.Txn) error {
		var err error
		mint, err = token.LoadMint(txn, p.Mint)
		return err
	})
	if err != nil {
		return nil, notFoundOr(err, token.ErrNotMint)
	}
	return mint, nil
}

func (s *Server) handleTokenGetAccount(req *Request) (interface{}, *Error) {
	var p TokenAccountParam
	if err := parseParams(req, &p); err != nil {
		return nil, err
	}
	if p.Address.IsZero() && (p.Owner.IsZero() || p.Mint.IsZero()) {
		return nil, &Error{Code: CodeInvalidParams, Message: "address, or owner and mint, required"}
	}

	var acct *token.Account
	err := s.ledger.View(func(txn *ledger.Txn) error {
		addr := p.Address
		if addr.IsZero() {
			mint, err := token.LoadMint(txn, p.Mint)
			if err != nil {
				return err
			}
			addr, err = token.AssociatedAddress(p.Owner, mint.Address, mint.Program)
			if err != nil {
				return err
			}
		}
		var err error
		acct, err = token.LoadAccount(txn, addr)
		return err
	})
	if err != nil {
		if errors.Is(err, token.ErrNotMint) {
			return nil, &Error{Code: CodeNotFound, Message: err.Error()}
		}
		return nil, notFoundOr(err, token.ErrNotTokenAccount)
	}
	return acct, nil
}

func (s *Server) handleTokenListAccounts(req *Request) (interface{}, *Error) {
	var p OwnerParam
	if err := parseParams(req, &p); err != nil {
		return nil, err
	}
	var accts []*token.Account
	err := s.ledger.View(func(txn *ledger.Txn) error {
		var err error
		accts, err = token.AccountsByAuthority(txn, p.Owner)
		return err
	})
	if err != nil {
		return nil, &Error{Code: CodeInternalError, Message: err.Error()}
	}
	if accts == nil {
		accts = []*token.Account{}
	}
	return accts, nil
}

// ── Ledger ──────────────────────────────────────────────────────────────

func (s *Server) handleLedgerGetBalance(req *Request) (interface{}, *Error) {
	var p AddressParam
	if err := parseParams(req, &p); err != nil {
		return nil, err
	}
	var bal uint64
	err := s.ledger.View(func(txn *ledger.Txn) error {
		var err error
		bal, err = txn.Balance(p.Address)
		return err
	})
	if err != nil {
		return nil, &Error{Code: CodeInternalError, Message: err.Error()}
	}
	return &BalanceResult{Address: p.Address, Balance: bal}, nil
}

func (s *Server) handleLedgerFaucet(req *Request) (interface{}, *Error) {
	if !s.faucet.Enabled {
		return nil, &Error{Code: CodeDisabled, Message: "faucet is disabled"}
	}
	var p FaucetParam
	if err := parseParams(req, &p); err != nil {
		return nil, err
	}
	if p.Address.IsZero() {
		return nil, &Error{Code: CodeInvalidParams, Message: "address required"}
	}
	amount := p.Amount
	if amount == 0 {
		amount = s.faucet.Amount
	}
	bal, err := s.proc.Fund(p.Address, amount, s.faucet.Amount)
	if err != nil {
		return nil, toRPCError(err)
	}
	return &BalanceResult{Address: p.Address, Balance: bal}, nil
}

// ── Node ────────────────────────────────────────────────────────────────

func (s *Server) handleNodeGetInfo(_ *Request) (interface{}, *Error) {
	open, err := s.escrow.CountOpen()
	if err != nil {
		return nil, &Error{Code: CodeInternalError, Message: err.Error()}
	}
	pricing := s.ledger.Pricing()
	return &NodeInfoResult{
		Version:        config.Version,
		Network:        string(s.network),
		HRP:            types.GetAddressHRP(),
		EscrowProgram:  escrow.ProgramID.String(),
		OpenEscrows:    open,
		DepositBase:    pricing.Base,
		DepositPerByte: pricing.PerByte,
		Faucet:         s.faucet.Enabled,
	}, nil
}

// ── Error mapping ───────────────────────────────────────────────────────

// businessErrors are rejections by the token program or ledger rules.
var businessErrors = []error{
	processor.ErrAccountExists,
	processor.ErrFaucetLimit,
	token.ErrUnknownProgram,
	token.ErrNotMint,
	token.ErrNotTokenAccount,
	token.ErrMintMismatch,
	token.ErrProgramMismatch,
	token.ErrDecimalsMismatch,
	token.ErrUnauthorized,
	token.ErrInsufficientFunds,
	token.ErrOverflow,
	token.ErrNonZeroBalance,
	token.ErrNotAssociated,
	token.ErrInvalidMetadata,
	ledger.ErrAccountExists,
	ledger.ErrInsufficientBalance,
	ledger.ErrBalanceOverflow,
	ledger.ErrDepositOverflow,
}

// toRPCError maps a processing error to a JSON-RPC error.
func toRPCError(err error) *Error {
	var e *escrow.Error
	switch {
	case errors.As(err, &e):
		return &Error{Code: CodeEscrowRejected, Message: err.Error(), Data: escrowData(err)}
	case errors.Is(err, processor.ErrAlreadyApplied):
		return &Error{Code: CodeAlreadyApplied, Message: err.Error()}
	case errors.Is(err, processor.ErrInvalidTransaction):
		return &Error{Code: CodeInvalidParams, Message: err.Error()}
	}
	for _, b := range businessErrors {
		if errors.Is(err, b) {
			return &Error{Code: CodeRejected, Message: err.Error(), Data: &ErrorData{Kind: "rejected"}}
		}
	}
	return &Error{Code: CodeInternalError, Message: err.Error()}
}

// escrowData returns the {kind, code} data of an escrow error, or nil.
func escrowData(err error) *ErrorData {
	var e *escrow.Error
	if !errors.As(err, &e) {
		return nil
	}
	return &ErrorData{Kind: e.Kind.String(), Code: uint16(e.Code)}
}

// notFoundOr maps sentinel to CodeNotFound and anything else to an
// internal error.
func notFoundOr(err, sentinel error) *Error {
	if errors.Is(err, sentinel) {
		return &Error{Code: CodeNotFound, Message: err.Error()}
	}
	return &Error{Code: CodeInternalError, Message: err.Error()}
}
