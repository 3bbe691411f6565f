package escrow

import (
	"sync"
	"testing"

	"github.com/holiman/uint256"
)

func u(v uint64) *uint256.Int { return uint256.NewInt(v) }

func TestRefund(t *testing.T) {
	e := newEnv(t)
	makerNative := e.native(maker)
	rec := e.mustMake(6969, 1_000_000, 1_000_000)
	offer, _ := e.escrow.Get(rec.Address)

	if _, err := e.escrow.Refund(RefundAccounts{Maker: maker, Escrow: rec.Address}); err != nil {
		t.Fatalf("Refund: %v", err)
	}
	if got := e.tokenBalance(maker, e.mintA); got != startTokens {
		t.Errorf("maker token A = %d, want %d", got, startTokens)
	}
	if got := e.native(maker); got != makerNative {
		t.Errorf("maker native = %d, want %d", got, makerNative)
	}
	if e.exists(rec.Address) || e.exists(offer.Vault) {
		t.Error("record and vault should be closed")
	}
	if evs := e.eventTypes(); len(evs) != 2 || evs[1] != EventRefunded {
		t.Errorf("events = %v", evs)
	}
}

func TestRefund_NotOwner(t *testing.T) {
	e := newEnv(t)
	rec := e.mustMake(6969, 100, 100)
	before := e.dump()

	_, err := e.escrow.Refund(RefundAccounts{Maker: taker, Escrow: rec.Address})
	wantError(t, err, KindAuthorization, ErrUnauthorized)
	if kind, _ := KindOf(err); !kind.IsValidation() {
		t.Error("authorization failures are validation failures")
	}
	if after := e.dump(); after != before {
		t.Error("ledger changed by rejected Refund")
	}
}

func TestRefund_ThenMakeSameSeed(t *testing.T) {
	e := newEnv(t)
	first := e.mustMake(42, 300, 1)
	if _, err := e.escrow.Refund(RefundAccounts{Maker: maker, Escrow: first.Address}); err != nil {
		t.Fatalf("Refund: %v", err)
	}

	second := e.mustMake(42, 700, 2)
	if second.Address != first.Address {
		t.Errorf("reused seed derived %s, want %s", second.Address, first.Address)
	}
	offer, err := e.escrow.Get(second.Address)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if offer.AmountOffered != 700 || offer.AmountRequested != 2 {
		t.Errorf("offer = %d for %d, want 700 for 2", offer.AmountOffered, offer.AmountRequested)
	}
}

func TestTakeRefundRace(t *testing.T) {
	e := newEnv(t)

	for seed := uint64(0); seed < 25; seed++ {
		rec := e.mustMake(seed, 10, 10)

		var wg sync.WaitGroup
		start := make(chan struct{})
		errs := make([]error, 2)
		wg.Add(2)
		go func() {
			defer wg.Done()
			<-start
			_, errs[0] = e.escrow.Take(TakeAccounts{Taker: taker, Escrow: rec.Address})
		}()
		go func() {
			defer wg.Done()
			<-start
			_, errs[1] = e.escrow.Refund(RefundAccounts{Maker: maker, Escrow: rec.Address})
		}()
		close(start)
		wg.Wait()

		successes := 0
		for _, err := range errs {
			if err == nil {
				successes++
				continue
			}
			wantError(t, err, KindState, ErrEscrowNotFound)
		}
		if successes != 1 {
			t.Fatalf("seed %d: %d transitions committed, want exactly 1 (errs: %v)", seed, successes, errs)
		}
		if e.exists(rec.Address) {
			t.Fatalf("seed %d: record still open", seed)
		}
	}

	// Every unit of token A is either back with the maker or with the taker.
	if total := e.tokenBalance(maker, e.mintA) + e.tokenBalance(taker, e.mintA); total != startTokens {
		t.Errorf("token A total = %d, want %d", total, startTokens)
	}
}
