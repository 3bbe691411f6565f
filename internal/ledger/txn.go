package ledger

import (
	"errors"
	"fmt"
	"math"
	"sort"

	"github.com/Klingon-tech/klingswap/internal/storage"
	"github.com/Klingon-tech/klingswap/pkg/types"
)

// Txn is a write-buffered view of the ledger. Reads see the transaction's
// own writes; nothing reaches storage until the enclosing Update returns nil.
type Txn struct {
	db       storage.DB
	pricing  DepositPricing
	writes   map[string][]byte // nil value marks a delete
	readOnly bool
}

func newTxn(db storage.DB, pricing DepositPricing, readOnly bool) *Txn {
	return &Txn{
		db:       db,
		pricing:  pricing,
		writes:   make(map[string][]byte),
		readOnly: readOnly,
	}
}

func (t *Txn) get(key []byte) ([]byte, bool, error) {
	if v, ok := t.writes[string(key)]; ok {
		return v, v != nil, nil
	}
	v, err := t.db.Get(key)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return v, true, nil
}

func (t *Txn) put(key, value []byte) error {
	if t.readOnly {
		return ErrReadOnly
	}
	if value == nil {
		value = []byte{}
	}
	t.writes[string(key)] = value
	return nil
}

func (t *Txn) del(key []byte) error {
	if t.readOnly {
		return ErrReadOnly
	}
	t.writes[string(key)] = nil
	return nil
}

// forEach walks stored keys under prefix merged with pending writes, in key order.
func (t *Txn) forEach(prefix []byte, fn func(key, value []byte) error) error {
	merged := make(map[string][]byte)
	err := t.db.ForEach(prefix, func(key, value []byte) error {
		merged[string(key)] = value
		return nil
	})
	if err != nil {
		return err
	}
	p := string(prefix)
	for k, v := range t.writes {
		if len(k) < len(p) || k[:len(p)] != p {
			continue
		}
		if v == nil {
			delete(merged, k)
		} else {
			merged[k] = v
		}
	}
	keys := make([]string, 0, len(merged))
	for k := range merged {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		if err := fn([]byte(k), merged[k]); err != nil {
			return err
		}
	}
	return nil
}

func (t *Txn) commit(batch storage.Batch) error {
	for k, v := range t.writes {
		var err error
		if v == nil {
			err = batch.Delete([]byte(k))
		} else {
			err = batch.Put([]byte(k), v)
		}
		if err != nil {
			return err
		}
	}
	return batch.Commit()
}

// Pricing returns the storage-deposit pricing in effect.
func (t *Txn) Pricing() DepositPricing {
	return t.pricing
}

// Account loads an account. Returns ErrAccountNotFound if it does not exist.
func (t *Txn) Account(addr types.Address) (*Account, error) {
	buf, ok, err := t.get(accountKey(addr))
	if err != nil {
		return nil, fmt.Errorf("load account %s: %w", addr, err)
	}
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrAccountNotFound, addr)
	}
	return decodeAccount(addr, buf)
}

// Exists reports whether an account is initialized at addr.
func (t *Txn) Exists(addr types.Address) (bool, error) {
	_, ok, err := t.get(accountKey(addr))
	return ok, err
}

// CreateAccount initializes an account at addr owned by program. The
// storage deposit for data is debited from payer's native balance.
func (t *Txn) CreateAccount(payer, addr, program types.Address, data []byte) (*Account, error) {
	exists, err := t.Exists(addr)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, fmt.Errorf("%w: %s", ErrAccountExists, addr)
	}
	deposit, err := t.pricing.DepositFor(len(data))
	if err != nil {
		return nil, err
	}
	if err := t.Debit(payer, deposit); err != nil {
		return nil, fmt.Errorf("storage deposit for %s: %w", addr, err)
	}

	acct := &Account{Address: addr, Owner: program, Deposit: deposit, Data: append([]byte(nil), data...)}
	if err := t.put(accountKey(addr), encodeAccount(acct)); err != nil {
		return nil, err
	}
	return acct, nil
}

// WriteAccount stores new data for an existing account. Only the owning
// program may write; the deposit is fixed at creation.
func (t *Txn) WriteAccount(program types.Address, addr types.Address, data []byte) error {
	acct, err := t.Account(addr)
	if err != nil {
		return err
	}
	if acct.Owner != program {
		return fmt.Errorf("%w: %s", ErrWrongOwner, addr)
	}
	acct.Data = data
	return t.put(accountKey(addr), encodeAccount(acct))
}

// CloseAccount deletes an account owned by program and refunds its deposit
// to destination. Returns the refunded amount.
func (t *Txn) CloseAccount(program, addr, destination types.Address) (uint64, error) {
	acct, err := t.Account(addr)
	if err != nil {
		return 0, err
	}
	if acct.Owner != program {
		return 0, fmt.Errorf("%w: %s", ErrWrongOwner, addr)
	}
	if err := t.del(accountKey(addr)); err != nil {
		return 0, err
	}
	if err := t.Credit(destination, acct.Deposit); err != nil {
		return 0, err
	}
	return acct.Deposit, nil
}

// Balance returns the native balance of addr (zero if never funded).
func (t *Txn) Balance(addr types.Address) (uint64, error) {
	buf, ok, err := t.get(nativeKey(addr))
	if err != nil || !ok {
		return 0, err
	}
	return decodeBalance(buf)
}

// Credit adds amount to the native balance of addr.
func (t *Txn) Credit(addr types.Address, amount uint64) error {
	if amount == 0 {
		return nil
	}
	bal, err := t.Balance(addr)
	if err != nil {
		return err
	}
	if bal > math.MaxUint64-amount {
		return fmt.Errorf("%w: %s", ErrBalanceOverflow, addr)
	}
	return t.put(nativeKey(addr), encodeBalance(bal+amount))
}

// Debit subtracts amount from the native balance of addr.
func (t *Txn) Debit(addr types.Address, amount uint64) error {
	if amount == 0 {
		return nil
	}
	bal, err := t.Balance(addr)
	if err != nil {
		return err
	}
	if bal < amount {
		return fmt.Errorf("%w: %s has %d, needs %d", ErrInsufficientBalance, addr, bal, amount)
	}
	if bal == amount {
		return t.del(nativeKey(addr))
	}
	return t.put(nativeKey(addr), encodeBalance(bal-amount))
}

// PutIndex records a program-defined index key.
func (t *Txn) PutIndex(key []byte) error {
	return t.put(indexKey(key), []byte{})
}

// DeleteIndex removes a program-defined index key.
func (t *Txn) DeleteIndex(key []byte) error {
	return t.del(indexKey(key))
}

// HasIndex reports whether an index key is present.
func (t *Txn) HasIndex(key []byte) (bool, error) {
	_, ok, err := t.get(indexKey(key))
	return ok, err
}

// ForEachIndex calls fn for every index key under prefix, with the index
// namespace stripped.
func (t *Txn) ForEachIndex(prefix []byte, fn func(key []byte) error) error {
	return t.forEach(indexKey(prefix), func(key, _ []byte) error {
		return fn(key[len(prefixIndex):])
	})
}

// ForEachAccount calls fn for every account, in address order.
func (t *Txn) ForEachAccount(fn func(*Account) error) error {
	return t.forEach(prefixAccount, func(key, value []byte) error {
		var addr types.Address
		copy(addr[:], key[len(prefixAccount):])
		acct, err := decodeAccount(addr, value)
		if err != nil {
			return err
		}
		return fn(acct)
	})
}

// Hook is extra work that joins a caller's write transaction, such as
// recording that an instruction was applied.
type Hook func(*Txn) error

// RunHooks runs hooks in order and stops at the first error.
func RunHooks(txn *Txn, hooks []Hook) error {
	for _, h := range hooks {
		if err := h(txn); err != nil {
			return err
		}
	}
	return nil
}
