// Package ledger holds account state: native balances used for storage
// deposits, and program-owned accounts. State changes run inside Update,
// which commits all writes in one storage batch or none at all.
package ledger

import (
	"fmt"
	"sync"
	"time"

	"github.com/Klingon-tech/klingswap/internal/log"
	"github.com/Klingon-tech/klingswap/internal/storage"
	"github.com/rs/zerolog"
)

// Ledger serializes state transitions over a storage.DB.
type Ledger struct {
	mu      sync.RWMutex // Update holds it exclusively, View shared.
	db      storage.DB
	pricing DepositPricing
	logger  zerolog.Logger
}

// New creates a ledger over db.
func New(db storage.DB, pricing DepositPricing) *Ledger {
	return &Ledger{db: db, pricing: pricing, logger: log.Nop()}
}

// SetLogger sets the logger used for commit diagnostics.
func (l *Ledger) SetLogger(logger zerolog.Logger) {
	l.logger = logger
}

// Pricing returns the storage-deposit pricing.
func (l *Ledger) Pricing() DepositPricing {
	return l.pricing
}

// Update runs fn in a write transaction. If fn returns an error, every
// write it made is discarded and the error is returned unchanged.
// Transitions never interleave: a second Update waits for the first.
func (l *Ledger) Update(fn func(*Txn) error) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	txn := newTxn(l.db, l.pricing, false)
	if err := fn(txn); err != nil {
		return err
	}
	if len(txn.writes) == 0 {
		return nil
	}

	start := time.Now()
	if err := txn.commit(storage.NewBatch(l.db)); err != nil {
		l.logger.Error().Err(err).Int("writes", len(txn.writes)).Msg("Ledger commit failed")
		return fmt.Errorf("ledger commit: %w", err)
	}
	l.logger.Debug().
		Int("writes", len(txn.writes)).
		Dur("took", time.Since(start)).
		Msg("Ledger commit")
	return nil
}

// View runs fn in a read-only transaction.
func (l *Ledger) View(fn func(*Txn) error) error {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return fn(newTxn(l.db, l.pricing, true))
}
