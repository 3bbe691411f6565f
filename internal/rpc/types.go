package rpc

import (
	"encoding/json"

	"github.com/Klingon-tech/klingswap/pkg/tx"
	"github.com/Klingon-tech/klingswap/pkg/types"
)

// JSON-RPC 2.0 error codes.
const (
	CodeParseError     = -32700
	CodeInvalidRequest = -32600
	CodeMethodNotFound = -32601
	CodeInvalidParams  = -32602
	CodeInternalError  = -32603
	CodeNotFound       = -32000

	// CodeEscrowRejected carries an escrow error; data holds its kind
	// and numeric code.
	CodeEscrowRejected = -32001
	// CodeAlreadyApplied reports a replayed transaction.
	CodeAlreadyApplied = -32002
	// CodeRejected reports a token or ledger rule violation outside the
	// escrow program.
	CodeRejected = -32003
	// CodeDisabled reports a method turned off by node configuration.
	CodeDisabled = -32004
)

// Request is a JSON-RPC 2.0 request.
type Request struct {
	JSONRPC string          `json:"jsonrpc"`
	Method  string          `json:"method"`
	Params  json.RawMessage `json:"params"`
	ID      interface{}     `json:"id"`
}

// Response is a JSON-RPC 2.0 response.
type Response struct {
	JSONRPC string      `json:"jsonrpc"`
	Result  interface{} `json:"result,omitempty"`
	Error   *Error      `json:"error,omitempty"`
	ID      interface{} `json:"id"`
}

// Error is a JSON-RPC 2.0 error object.
type Error struct {
	Code    int         `json:"code"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

// ErrorData is the data member of CodeEscrowRejected and CodeRejected errors.
type ErrorData struct {
	Kind string `json:"kind"`
	Code uint16 `json:"code,omitempty"`
}

// ── Param types ─────────────────────────────────────────────────────────

// TxSubmitParam is used by every state-changing method.
type TxSubmitParam struct {
	Transaction *tx.Transaction `json:"transaction"`
}

// EscrowParam is used by escrow_get.
type EscrowParam struct {
	Escrow types.Address `json:"escrow"`
}

// OwnerParam is used by escrow_listByOwner and token_listAccounts.
type OwnerParam struct {
	Owner types.Address `json:"owner"`
}

// DeriveParam is used by escrow_deriveAddress. TokenProgram ("classic" or
// "extended") is only consulted when the mint does not exist yet.
type DeriveParam struct {
	Owner        types.Address `json:"owner"`
	Seed         uint64        `json:"seed"`
	MintOffered  types.Address `json:"mint_offered"`
	TokenProgram string        `json:"token_program,omitempty"`
}

// MintParam is used by token_getMint.
type MintParam struct {
	Mint types.Address `json:"mint"`
}

// TokenAccountParam is used by token_getAccount: either Address, or the
// associated account of (Owner, Mint).
type TokenAccountParam struct {
	Address types.Address `json:"address"`
	Owner   types.Address `json:"owner"`
	Mint    types.Address `json:"mint"`
}

// AddressParam is used by ledger_getBalance.
type AddressParam struct {
	Address types.Address `json:"address"`
}

// FaucetParam is used by ledger_faucet. A zero Amount requests the
// configured maximum.
type FaucetParam struct {
	Address types.Address `json:"address"`
	Amount  uint64        `json:"amount"`
}

// ── Result types ────────────────────────────────────────────────────────

// BalanceResult is returned by ledger_getBalance and ledger_faucet.
type BalanceResult struct {
	Address types.Address `json:"address"`
	Balance uint64        `json:"balance"`
}

// NodeInfoResult is returned by node_getInfo.
type NodeInfoResult struct {
	Version        string `json:"version"`
	Network        string `json:"network"`
	HRP            string `json:"hrp"`
	EscrowProgram  string `json:"escrow_program"`
	OpenEscrows    int    `json:"open_escrows"`
	DepositBase    uint64 `json:"deposit_base"`
	DepositPerByte uint64 `json:"deposit_per_byte"`
	Faucet         bool   `json:"faucet"`
}
