package escrow

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"testing"

	"github.com/Klingon-tech/klingswap/internal/ledger"
	"github.com/Klingon-tech/klingswap/internal/storage"
	"github.com/Klingon-tech/klingswap/internal/token"
	"github.com/Klingon-tech/klingswap/pkg/types"
	"github.com/holiman/uint256"
)

var (
	issuer = types.Address{0x15}
	maker  = types.Address{0x3a}
	taker  = types.Address{0x7b}
)

const (
	startNative = 1_000_000
	startTokens = 1_000_000
)

type env struct {
	t      *testing.T
	ledger *ledger.Ledger
	tokens *token.Program
	escrow *Program

	mintA, mintB types.Address

	mu     sync.Mutex
	events []Event
}

func newEnv(t *testing.T) *env {
	t.Helper()
	l := ledger.New(storage.NewMemory(), ledger.DepositPricing{Base: 100, PerByte: 1})
	tokens := token.NewProgram()
	e := &env{t: t, ledger: l, tokens: tokens, escrow: NewProgram(l, tokens)}
	e.escrow.SetEmitter(EmitterFunc(func(ev Event) {
		e.mu.Lock()
		e.events = append(e.events, ev)
		e.mu.Unlock()
	}))

	for _, a := range []types.Address{issuer, maker, taker} {
		e.update(func(txn *ledger.Txn) error { return txn.Credit(a, startNative) })
	}
	e.mintA = e.createMint("A", token.ClassicProgramID)
	e.mintB = e.createMint("B", token.ClassicProgramID)
	e.fundTokens(maker, e.mintA, startTokens)
	e.fundTokens(taker, e.mintB, startTokens)
	return e
}

func (e *env) update(fn func(*ledger.Txn) error) {
	e.t.Helper()
	if err := e.ledger.Update(fn); err != nil {
		e.t.Fatalf("update: %v", err)
	}
}

func (e *env) createMint(label string, program types.Address) types.Address {
	e.t.Helper()
	addr, err := token.MintAddress(issuer, label, program)
	if err != nil {
		e.t.Fatalf("MintAddress: %v", err)
	}
	e.update(func(txn *ledger.Txn) error {
		_, err := e.tokens.CreateMint(txn, issuer, addr, program, issuer, 6, "Token "+label, label)
		return err
	})
	return addr
}

func (e *env) fundTokens(owner, mint types.Address, amount uint64) {
	e.t.Helper()
	e.update(func(txn *ledger.Txn) error {
		acct, _, err := e.tokens.EnsureAssociated(txn, owner, owner, mint)
		if err != nil {
			return err
		}
		return e.tokens.MintTo(txn, mint, acct.Address, amount, token.SignedBy(issuer))
	})
}

// tokenBalance returns owner's associated balance of mint, 0 if the
// account does not exist.
func (e *env) tokenBalance(owner, mint types.Address) uint64 {
	e.t.Helper()
	var amount uint64
	e.ledger.View(func(txn *ledger.Txn) error {
		m, err := token.LoadMint(txn, mint)
		if err != nil {
			e.t.Fatalf("LoadMint: %v", err)
		}
		addr, err := token.AssociatedAddress(owner, mint, m.Program)
		if err != nil {
			e.t.Fatalf("AssociatedAddress: %v", err)
		}
		if acct, err := token.LoadAccount(txn, addr); err == nil {
			amount = acct.Amount
		}
		return nil
	})
	return amount
}

func (e *env) native(addr types.Address) uint64 {
	e.t.Helper()
	var bal uint64
	e.ledger.View(func(txn *ledger.Txn) error {
		bal, _ = txn.Balance(addr)
		return nil
	})
	return bal
}

func (e *env) exists(addr types.Address) bool {
	e.t.Helper()
	var ok bool
	e.ledger.View(func(txn *ledger.Txn) error {
		ok, _ = txn.Exists(addr)
		return nil
	})
	return ok
}

// dump renders every account and participant balance, for comparing
// ledger state before and after a rejected transition.
func (e *env) dump() string {
	e.t.Helper()
	var lines []string
	e.ledger.View(func(txn *ledger.Txn) error {
		txn.ForEachAccount(func(a *ledger.Account) error {
			lines = append(lines, fmt.Sprintf("%s %s %d %x", a.Address.Hex(), a.Owner.Hex(), a.Deposit, a.Data))
			return nil
		})
		for _, p := range []types.Address{issuer, maker, taker} {
			bal, _ := txn.Balance(p)
			lines = append(lines, fmt.Sprintf("native %s %d", p.Hex(), bal))
		}
		return nil
	})
	sort.Strings(lines)
	return strings.Join(lines, "\n")
}

func (e *env) make(seed, offered, requested uint64) (*Record, error) {
	return e.escrow.Make(
		MakeAccounts{Maker: maker, MintOffered: e.mintA, MintRequested: e.mintB},
		MakeArgs{Seed: seed, AmountOffered: uint256.NewInt(offered), AmountRequested: uint256.NewInt(requested)},
	)
}

func (e *env) mustMake(seed, offered, requested uint64) *Record {
	e.t.Helper()
	rec, err := e.make(seed, offered, requested)
	if err != nil {
		e.t.Fatalf("Make(seed=%d): %v", seed, err)
	}
	return rec
}

func (e *env) eventTypes() []EventType {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make([]EventType, len(e.events))
	for i, ev := range e.events {
		out[i] = ev.Type
	}
	return out
}

func wantError(t *testing.T, err error, kind Kind, cause error) {
	t.Helper()
	if err == nil {
		t.Fatalf("expected %s error (%v), got nil", kind, cause)
	}
	got, ok := KindOf(err)
	if !ok {
		t.Fatalf("expected *escrow.Error, got %T: %v", err, err)
	}
	if got != kind {
		t.Errorf("kind = %s, want %s (err: %v)", got, kind, err)
	}
	if cause != nil && !errors.Is(err, cause) {
		t.Errorf("error %v does not wrap %v", err, cause)
	}
}
