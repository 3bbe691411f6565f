package rpcclient

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/Klingon-tech/klingswap/config"
	"github.com/Klingon-tech/klingswap/internal/escrow"
	"github.com/Klingon-tech/klingswap/internal/ledger"
	klog "github.com/Klingon-tech/klingswap/internal/log"
	"github.com/Klingon-tech/klingswap/internal/processor"
	"github.com/Klingon-tech/klingswap/internal/rpc"
	"github.com/Klingon-tech/klingswap/internal/storage"
	"github.com/Klingon-tech/klingswap/internal/token"
	"github.com/Klingon-tech/klingswap/pkg/crypto"
	"github.com/Klingon-tech/klingswap/pkg/tx"
	"github.com/Klingon-tech/klingswap/pkg/types"
)

type testEnv struct {
	t      *testing.T
	client *Client
	nonce  uint64
}

func setupTestEnv(t *testing.T) *testEnv {
	t.Helper()
	klog.Init("error", false, "")

	l := ledger.New(storage.NewMemory(), ledger.DepositPricing{Base: 100, PerByte: 1})
	tokens := token.NewProgram()
	esc := escrow.NewProgram(l, tokens)
	srv := rpc.New("127.0.0.1:0", l, processor.New(l, tokens, esc), esc)
	srv.SetFaucet(config.FaucetConfig{Enabled: true, Amount: 1_000_000})

	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)
	return &testEnv{t: t, client: New(ts.URL)}
}

func (e *testEnv) submit(key *crypto.PrivateKey, kind tx.Kind, payload any) (*processor.Receipt, error) {
	e.t.Helper()
	e.nonce++
	b := tx.NewBuilder(kind).SetNonce(e.nonce).SetPayload(payload)
	if err := b.Sign(key); err != nil {
		e.t.Fatalf("Sign: %v", err)
	}
	transaction, err := b.Build()
	if err != nil {
		e.t.Fatalf("Build: %v", err)
	}
	return e.client.Submit(transaction)
}

func (e *testEnv) key() *crypto.PrivateKey {
	e.t.Helper()
	key, err := crypto.GenerateKey()
	if err != nil {
		e.t.Fatalf("GenerateKey: %v", err)
	}
	if _, err := e.client.Faucet(key.Address(), 0); err != nil {
		e.t.Fatalf("Faucet: %v", err)
	}
	return key
}

func TestClient_SwapAndRefund(t *testing.T) {
	env := setupTestEnv(t)
	c := env.client
	issuer, maker := env.key(), env.key()

	bal, err := c.Balance(maker.Address())
	if err != nil || bal != 1_000_000 {
		t.Fatalf("Balance = %d, %v", bal, err)
	}

	r, err := env.submit(issuer, tx.KindTokenCreateMint, tx.CreateMintPayload{Label: "a", Decimals: 0, Name: "Alpha", Symbol: "ALP"})
	if err != nil {
		t.Fatalf("createMint: %v", err)
	}
	mintA := r.Mint.Address
	r, err = env.submit(issuer, tx.KindTokenCreateMint, tx.CreateMintPayload{Label: "b", Decimals: 0, Name: "Beta", Symbol: "BET"})
	if err != nil {
		t.Fatalf("createMint: %v", err)
	}
	mintB := r.Mint.Address
	if _, err := env.submit(issuer, tx.KindTokenMintTo, tx.MintToPayload{Mint: mintA, Owner: maker.Address(), Amount: 50}); err != nil {
		t.Fatalf("mintTo: %v", err)
	}

	m, err := c.Mint(mintA)
	if err != nil || m.Symbol != "ALP" || m.Supply != 50 {
		t.Fatalf("Mint = %+v, %v", m, err)
	}

	addrs, err := c.DeriveEscrow(rpc.DeriveParam{Owner: maker.Address(), Seed: 3, MintOffered: mintA})
	if err != nil {
		t.Fatalf("DeriveEscrow: %v", err)
	}
	if _, err := env.submit(maker, tx.KindEscrowMake, tx.MakePayload{
		Seed: 3, MintOffered: mintA, MintRequested: mintB, AmountOffered: "20", AmountRequested: "2",
	}); err != nil {
		t.Fatalf("make: %v", err)
	}

	offers, err := c.EscrowsByOwner(maker.Address())
	if err != nil || len(offers) != 1 || offers[0].Vault != addrs.Vault {
		t.Fatalf("EscrowsByOwner = %+v, %v", offers, err)
	}
	info, err := c.NodeInfo()
	if err != nil || info.OpenEscrows != 1 {
		t.Fatalf("NodeInfo = %+v, %v", info, err)
	}

	_, err = env.submit(issuer, tx.KindEscrowRefund, tx.RefundPayload{Escrow: addrs.Escrow})
	var rpcErr *RPCError
	if !errors.As(err, &rpcErr) {
		t.Fatalf("refund by stranger: err = %v, want *RPCError", err)
	}
	if rpcErr.Code != rpc.CodeEscrowRejected || rpcErr.Data == nil || rpcErr.Data.Kind != "authorization" {
		t.Errorf("refund by stranger: %+v", rpcErr)
	}
	if kind, ok := escrow.KindOf(err); !ok || kind != escrow.KindAuthorization || !errors.Is(err, escrow.ErrUnauthorized) {
		t.Errorf("refund by stranger does not unwrap to an authorization error: %v", err)
	}

	if _, err := env.submit(maker, tx.KindEscrowRefund, tx.RefundPayload{Escrow: addrs.Escrow}); err != nil {
		t.Fatalf("refund: %v", err)
	}
	if acct, err := c.TokenAccount(addrs.Vault, types.Address{}, types.Address{}); err == nil {
		t.Fatalf("vault still exists after refund: %+v", acct)
	}
	acct, err := c.TokenAccount(types.Address{}, maker.Address(), mintA)
	if err != nil || acct.Amount != 50 {
		t.Errorf("maker account = %+v, %v", acct, err)
	}
	if offers, _ := c.EscrowsByOwner(maker.Address()); len(offers) != 0 {
		t.Errorf("offers after refund = %d, want 0", len(offers))
	}
}

func TestClient_Errors(t *testing.T) {
	env := setupTestEnv(t)

	err := env.client.Call("chain_getBlock", nil, nil)
	var rpcErr *RPCError
	if !errors.As(err, &rpcErr) || rpcErr.Code != rpc.CodeMethodNotFound {
		t.Errorf("unknown method: %v", err)
	}

	unreachable := NewWithTimeout("http://127.0.0.1:1", time.Second)
	if _, err := unreachable.NodeInfo(); err == nil || errors.As(err, &rpcErr) {
		t.Errorf("unreachable node: err = %v, want transport error", err)
	}

	if _, err := env.client.Submit(&tx.Transaction{Kind: "chain.mine"}); err == nil {
		t.Error("Submit accepted an unknown kind")
	}
}

func TestClient_TypedErrors(t *testing.T) {
	env := setupTestEnv(t)
	key := env.key()

	b := tx.NewBuilder(tx.KindTokenCreateMint).SetNonce(1).SetPayload(tx.CreateMintPayload{Label: "x", Name: "X", Symbol: "X"})
	if err := b.Sign(key); err != nil {
		t.Fatalf("Sign: %v", err)
	}
	transaction, err := b.Build()
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if _, err := env.client.Submit(transaction); err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if _, err := env.client.Submit(transaction); !errors.Is(err, processor.ErrAlreadyApplied) {
		t.Errorf("replay: err = %v, want ErrAlreadyApplied", err)
	}

	_, err = env.client.Escrow(types.Address{0x42})
	if !IsNotFound(err) {
		t.Errorf("missing escrow: err = %v, want not found", err)
	}
	if kind, ok := escrow.KindOf(err); !ok || kind != escrow.KindState || !errors.Is(err, escrow.ErrEscrowNotFound) {
		t.Errorf("missing escrow does not unwrap to ErrEscrowNotFound: %v", err)
	}

	_, err = env.client.Mint(types.Address{0x43})
	if !IsNotFound(err) {
		t.Errorf("missing mint: err = %v, want not found", err)
	}
	if _, ok := escrow.KindOf(err); ok {
		t.Errorf("missing mint unwrapped to an escrow error: %v", err)
	}
}

func TestClient_HTTPError(t *testing.T) {
	l := ledger.New(storage.NewMemory(), ledger.DepositPricing{})
	tokens := token.NewProgram()
	esc := escrow.NewProgram(l, tokens)
	srv := rpc.New("127.0.0.1:0", l, processor.New(l, tokens, esc), esc, config.RPCConfig{AllowedIPs: []string{"10.0.0.0/8"}})
	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)

	_, err := New(ts.URL).NodeInfo()
	var httpErr *HTTPError
	if !errors.As(err, &httpErr) || httpErr.Status != http.StatusForbidden {
		t.Errorf("filtered client: err = %v, want http 403", err)
	}
}
