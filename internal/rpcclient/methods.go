package rpcclient

import (
	"fmt"

	"github.com/Klingon-tech/klingswap/internal/escrow"
	"github.com/Klingon-tech/klingswap/internal/processor"
	"github.com/Klingon-tech/klingswap/internal/rpc"
	"github.com/Klingon-tech/klingswap/internal/token"
	"github.com/Klingon-tech/klingswap/pkg/tx"
	"github.com/Klingon-tech/klingswap/pkg/types"
)

// submitMethods maps instruction kinds to the RPC method that accepts them.
var submitMethods = map[tx.Kind]string{
	tx.KindEscrowMake:         "escrow_make",
	tx.KindEscrowTake:         "escrow_take",
	tx.KindEscrowRefund:       "escrow_refund",
	tx.KindTokenCreateMint:    "token_createMint",
	tx.KindTokenMintTo:        "token_mintTo",
	tx.KindTokenCreateAccount: "token_createAccount",
	tx.KindTokenTransfer:      "token_transfer",
}

// Submit sends a signed transaction to the method matching its kind.
func (c *Client) Submit(transaction *tx.Transaction) (*processor.Receipt, error) {
	method, ok := submitMethods[transaction.Kind]
	if !ok {
		return nil, fmt.Errorf("no method for kind %q", transaction.Kind)
	}
	var r processor.Receipt
	if err := c.Call(method, rpc.TxSubmitParam{Transaction: transaction}, &r); err != nil {
		return nil, err
	}
	return &r, nil
}

// Escrow returns the open escrow at addr.
func (c *Client) Escrow(addr types.Address) (*escrow.Offer, error) {
	var o escrow.Offer
	if err := c.Call("escrow_get", rpc.EscrowParam{Escrow: addr}, &o); err != nil {
		return nil, err
	}
	return &o, nil
}

// EscrowsByOwner lists the open escrows made by owner.
func (c *Client) EscrowsByOwner(owner types.Address) ([]escrow.Offer, error) {
	var out []escrow.Offer
	if err := c.Call("escrow_listByOwner", rpc.OwnerParam{Owner: owner}, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// DeriveEscrow derives the record and vault addresses of an escrow.
func (c *Client) DeriveEscrow(p rpc.DeriveParam) (*escrow.Addresses, error) {
	var a escrow.Addresses
	if err := c.Call("escrow_deriveAddress", p, &a); err != nil {
		return nil, err
	}
	return &a, nil
}

// Mint returns the mint at addr.
func (c *Client) Mint(addr types.Address) (*token.Mint, error) {
	var m token.Mint
	if err := c.Call("token_getMint", rpc.MintParam{Mint: addr}, &m); err != nil {
		return nil, err
	}
	return &m, nil
}

// TokenAccount returns a token account by address, or the associated
// account of (owner, mint) when addr is zero.
func (c *Client) TokenAccount(addr, owner, mint types.Address) (*token.Account, error) {
	var a token.Account
	if err := c.Call("token_getAccount", rpc.TokenAccountParam{Address: addr, Owner: owner, Mint: mint}, &a); err != nil {
		return nil, err
	}
	return &a, nil
}

// TokenAccounts lists the token accounts controlled by owner.
func (c *Client) TokenAccounts(owner types.Address) ([]token.Account, error) {
	var out []token.Account
	if err := c.Call("token_listAccounts", rpc.OwnerParam{Owner: owner}, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Balance returns the native balance of addr.
func (c *Client) Balance(addr types.Address) (uint64, error) {
	var r rpc.BalanceResult
	if err := c.Call("ledger_getBalance", rpc.AddressParam{Address: addr}, &r); err != nil {
		return 0, err
	}
	return r.Balance, nil
}

// Faucet requests native balance for addr. A zero amount requests the
// node's default.
func (c *Client) Faucet(addr types.Address, amount uint64) (uint64, error) {
	var r rpc.BalanceResult
	if err := c.Call("ledger_faucet", rpc.FaucetParam{Address: addr, Amount: amount}, &r); err != nil {
		return 0, err
	}
	return r.Balance, nil
}

// NodeInfo returns node_getInfo.
func (c *Client) NodeInfo() (*rpc.NodeInfoResult, error) {
	var r rpc.NodeInfoResult
	if err := c.Call("node_getInfo", nil, &r); err != nil {
		return nil, err
	}
	return &r, nil
}
